package repositories

import (
	"context"
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryReader defines read operations for ledger entry data
type EntryReader interface {
	// FindEntryByID retrieves a specific entry (header only) by its identifier.
	FindEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error)

	// FindLinesByEntryID retrieves all lines of a single entry.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.EntryLine, error)

	// ListEntriesByWorkplace retrieves a paginated list of entries using
	// token-based pagination. It returns the entries, a token for the next
	// page, and an error.
	ListEntriesByWorkplace(ctx context.Context, workplaceID string, limit int, nextToken *string, includeReversals bool) ([]domain.LedgerEntry, *string, error)

	// ListLinesByAccountID retrieves a paginated list of lines touching one
	// ledger account, newest first.
	ListLinesByAccountID(ctx context.Context, workplaceID string, accountID string, limit int, nextToken *string) ([]domain.EntryLine, *string, error)

	// FindExternalLines retrieves every line carrying an external-account link
	// from entries that are neither reversed nor reversals. When
	// externalAccountID is non-empty the result is restricted to that account.
	FindExternalLines(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.EntryLine, error)
}

// EntryWriter defines write operations for ledger entry data
type EntryWriter interface {
	// SaveEntry persists an entry with its lines, applies account balance
	// changes and external-account balance deltas, all within one database
	// transaction.
	SaveEntry(ctx context.Context, entry domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal) error

	// SaveReversal persists a reversal entry exactly like SaveEntry and, in
	// the same transaction, marks the original entry reversed and links it to
	// the reversal.
	SaveReversal(ctx context.Context, reversal domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal, originalEntryID string, reversedAt time.Time) error
}

// EntryRepositoryFacade combines all entry-related repository interfaces
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}

// EntryRepositoryWithTx extends EntryRepositoryFacade with transaction capabilities
type EntryRepositoryWithTx interface {
	EntryRepositoryFacade
	TransactionManager
}
