package repositories

import (
	"context"
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExternalAccountReader defines read operations for external financial accounts
type ExternalAccountReader interface {
	// FindExternalAccountByID retrieves an external account by its identifier.
	FindExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error)

	// ListExternalAccounts retrieves the external accounts of a workplace.
	ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error)
}

// ExternalAccountWriter defines write operations for external financial accounts
type ExternalAccountWriter interface {
	// SaveExternalAccount persists a new external account.
	SaveExternalAccount(ctx context.Context, account domain.ExternalAccount) error

	// SetLedgerAccountID stores the chart-of-accounts mirror back-reference.
	SetLedgerAccountID(ctx context.Context, workplaceID string, externalAccountID string, ledgerAccountID string, userID string, now time.Time) error

	// OverwriteBalance replaces the stored current balance. Used only by the
	// reconciliation toolkit; regular balance movement goes through the entry
	// engine's transaction.
	OverwriteBalance(ctx context.Context, workplaceID string, externalAccountID string, balance decimal.Decimal, userID string, now time.Time) error
}

// ExternalAccountRepositoryFacade combines the external-account repository interfaces
type ExternalAccountRepositoryFacade interface {
	ExternalAccountReader
	ExternalAccountWriter
}
