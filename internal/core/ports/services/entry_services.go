package services

import (
	"context"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/dto"
)

// EntryReaderSvc defines read operations for ledger entries
type EntryReaderSvc interface {
	// GetEntryByID retrieves a specific entry with its lines.
	GetEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error)

	// ListEntries retrieves a paginated list of entries in a workplace.
	ListEntries(ctx context.Context, workplaceID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// ListLinesByAccount retrieves the lines touching a ledger account.
	ListLinesByAccount(ctx context.Context, workplaceID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}

// EntryWriterSvc defines write operations for ledger entries
type EntryWriterSvc interface {
	// CreateEntry validates, balances and atomically persists a new entry,
	// updating every touched account balance in the same transaction.
	CreateEntry(ctx context.Context, workplaceID string, req dto.CreateEntryRequest, userID string) (*domain.LedgerEntry, error)

	// ReverseEntry posts the mirror-image of an existing entry and marks the
	// original as reversed. Reversing an already-reversed entry returns the
	// existing reversal without posting anything.
	ReverseEntry(ctx context.Context, workplaceID string, entryID string, reason string, userID string) (*domain.LedgerEntry, error)
}

// EntrySvcFacade combines all entry-engine service interfaces
type EntrySvcFacade interface {
	EntryReaderSvc
	EntryWriterSvc
}
