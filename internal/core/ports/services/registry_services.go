package services

import (
	"context"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/dto"
)

// RegistryReaderSvc defines read operations for the chart of accounts
type RegistryReaderSvc interface {
	// GetAccountByID retrieves a specific ledger account by its unique identifier.
	GetAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error)

	// GetAccountByCode retrieves a ledger account by its numeric code.
	GetAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error)

	// GetAccountsByIDs retrieves multiple ledger accounts by their IDs.
	GetAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error)

	// GetSystemAccount retrieves the well-known system account for a key.
	GetSystemAccount(ctx context.Context, workplaceID string, key string) (*domain.LedgerAccount, error)

	// ListAccounts retrieves the accounts of a workplace, optionally filtered by type.
	ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool) ([]domain.LedgerAccount, error)
}

// RegistryWriterSvc defines write operations for the chart of accounts
type RegistryWriterSvc interface {
	// EnsureSystemAccounts creates any missing system accounts for a workplace.
	EnsureSystemAccounts(ctx context.Context, workplaceID string, currencyCode string, userID string) error

	// CreateAccount persists a new ledger account, allocating a code when absent.
	CreateAccount(ctx context.Context, workplaceID string, req dto.CreateAccountRequest, userID string) (*domain.LedgerAccount, error)

	// UpdateAccount updates the mutable details of a ledger account.
	UpdateAccount(ctx context.Context, workplaceID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.LedgerAccount, error)

	// ArchiveAccount marks an account inactive, recording why. System
	// accounts cannot be archived.
	ArchiveAccount(ctx context.Context, workplaceID string, accountID string, reason string, userID string) error
}

// RegistryProvisionerSvc defines the lazy auto-provisioning operations the
// binding layer relies on.
type RegistryProvisionerSvc interface {
	// GetOrCreateCategoryAccount resolves the ledger account for a category,
	// creating one in the proper code band on first use.
	GetOrCreateCategoryAccount(ctx context.Context, workplaceID string, category string, accountType domain.AccountType, currencyCode string, userID string) (*domain.LedgerAccount, error)

	// GetOrCreateExternalAccountMirror resolves the ledger asset account
	// mirroring an external account, creating it on first use.
	GetOrCreateExternalAccountMirror(ctx context.Context, workplaceID string, externalAccount *domain.ExternalAccount, userID string) (*domain.LedgerAccount, error)
}

// RegistrySvcFacade combines all chart-of-accounts service interfaces
type RegistrySvcFacade interface {
	RegistryReaderSvc
	RegistryWriterSvc
	RegistryProvisionerSvc
}
