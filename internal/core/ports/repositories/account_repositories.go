package repositories

import (
	"context"
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for chart-of-accounts data
type AccountReader interface {
	// FindAccountByID retrieves a specific ledger account by its unique identifier.
	FindAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error)

	// FindAccountByCode retrieves a ledger account by its code within a workplace.
	FindAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error)

	// FindAccountsByIDs retrieves multiple ledger accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error)

	// FindMaxAccountCode returns the highest code currently assigned to the
	// given account type in a workplace, or empty string when none exist.
	FindMaxAccountCode(ctx context.Context, workplaceID string, accountType domain.AccountType) (string, error)

	// ListAccounts retrieves the accounts of a workplace ordered by code,
	// optionally filtered by type. A non-positive limit means no limit.
	ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool, limit int, offset int) ([]domain.LedgerAccount, error)
}

// AccountWriter defines write operations for chart-of-accounts data
type AccountWriter interface {
	// SaveAccount persists a new ledger account.
	SaveAccount(ctx context.Context, account domain.LedgerAccount) error

	// UpdateAccount updates an existing ledger account's details.
	UpdateAccount(ctx context.Context, account domain.LedgerAccount) error

	// ArchiveAccount deactivates an account and clears its external-account link.
	ArchiveAccount(ctx context.Context, workplaceID string, accountID string, userID string, now time.Time) error
}

// AccountTransactionSupport defines operations used inside the entry engine's
// database transaction.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks their rows for
	// update within a transaction. Missing accounts are an error.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error)

	// ApplyBalanceChangesInTx applies balance, debit-total and credit-total
	// deltas for multiple accounts within a given transaction.
	ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]domain.BalanceChange, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
