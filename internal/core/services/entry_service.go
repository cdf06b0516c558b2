package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/finledger/finledger_backend/internal/utils/accounting"
)

var (
	ErrEntryAccountNotFound = errors.New("entry references unknown account")
	ErrExternalAcctUnknown  = errors.New("entry references unknown external account")
	ErrCurrencyMismatch     = errors.New("account currency does not match entry currency")
	ErrInactiveAccount      = errors.New("entry references inactive account")
	ErrEmptyDescription     = errors.New("entry description is required")
	ErrReverseReversal      = errors.New("cannot reverse a reversal entry")
)

// ReversalPrefix is prepended to the original description on reversal entries.
const ReversalPrefix = "Reversal: "

const defaultListLimit = 20

// entryService implements the entry and reversal engines. All balance
// mutation flows through the repository's single-transaction save methods;
// the service computes, validates and never touches balances directly.
type entryService struct {
	entryRepo    portsrepo.EntryRepositoryWithTx
	accountRepo  portsrepo.AccountRepositoryFacade
	externalRepo portsrepo.ExternalAccountRepositoryFacade
}

// NewEntryService creates a new entry engine service.
func NewEntryService(entryRepo portsrepo.EntryRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, externalRepo portsrepo.ExternalAccountRepositoryFacade) portssvc.EntrySvcFacade {
	return &entryService{
		entryRepo:    entryRepo,
		accountRepo:  accountRepo,
		externalRepo: externalRepo,
	}
}

var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// CreateEntry validates, balances and atomically persists a new ledger entry.
func (s *entryService) CreateEntry(ctx context.Context, workplaceID string, req dto.CreateEntryRequest, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Description == "" {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrEmptyDescription)
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := make([]domain.EntryLine, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		lines[i] = domain.EntryLine{
			LineID:            uuid.NewString(),
			EntryID:           entryID,
			AccountID:         lineReq.AccountID,
			Debit:             accounting.RoundAmount(lineReq.Debit),
			Credit:            accounting.RoundAmount(lineReq.Credit),
			CurrencyCode:      req.CurrencyCode,
			ExternalAccountID: lineReq.ExternalAccountID,
			Metadata:          lineReq.Metadata,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		accountIDs = append(accountIDs, lineReq.AccountID)
	}

	if err := accounting.ValidateEntryBalance(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, workplaceID, uniqueStrings(accountIDs))
	if err != nil {
		logger.Error("Failed to fetch accounts for entry", slog.String("error", err.Error()), slog.String("workplace_id", workplaceID))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range uniqueStrings(accountIDs) {
		acc, found := accounts[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrEntryAccountNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInactiveAccount, id)
		}
		if acc.CurrencyCode != req.CurrencyCode {
			return nil, fmt.Errorf("%w: account %s is %s, entry is %s", ErrCurrencyMismatch, id, acc.CurrencyCode, req.CurrencyCode)
		}
	}

	// External account ids must resolve within the same workplace; the lines
	// table cannot enforce tenancy, so an id from another workplace would
	// otherwise slip past the FK.
	externalIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ExternalAccountID != nil {
			externalIDs = append(externalIDs, *line.ExternalAccountID)
		}
	}
	for _, id := range uniqueStrings(externalIDs) {
		if _, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, id); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w %s", apperrors.ErrNotFound, ErrExternalAcctUnknown, id)
			}
			return nil, fmt.Errorf("failed to resolve external account %s: %w", id, err)
		}
	}

	changes, err := accounting.ComputeBalanceChanges(lines, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes: %w", err)
	}
	externalDeltas := accounting.ComputeExternalDeltas(lines)

	totalDebit, totalCredit := accounting.EntryTotals(lines)
	entry := domain.LedgerEntry{
		EntryID:      entryID,
		WorkplaceID:  workplaceID,
		EntryDate:    req.Date,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		SourceID:     req.SourceID,
		SourceType:   sourceType,
		Lines:        lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.entryRepo.SaveEntry(ctx, entry, changes, externalDeltas); err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	middleware.CountEntryPosted(string(sourceType))
	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("source_type", string(sourceType)), slog.Int("lines", len(lines)))
	return &entry, nil
}

// ReverseEntry posts the mirror-image of an existing entry and marks the
// original reversed. The operation is idempotent: reversing an entry that was
// already reversed returns the existing reversal.
func (s *entryService) ReverseEntry(ctx context.Context, workplaceID string, entryID string, reason string, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.entryRepo.FindEntryByID(ctx, workplaceID, entryID)
	if err != nil {
		return nil, err
	}
	if original.IsReversal {
		return nil, fmt.Errorf("%w: %s", ErrReverseReversal, entryID)
	}
	if original.Reversed && original.ReversalEntryID != nil {
		logger.Info("Entry already reversed, returning existing reversal", slog.String("entry_id", entryID), slog.String("reversal_entry_id", *original.ReversalEntryID))
		return s.GetEntryByID(ctx, workplaceID, *original.ReversalEntryID)
	}

	originalLines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lines for reversal: %w", err)
	}
	if len(originalLines) == 0 {
		return nil, fmt.Errorf("%w: entry %s has no lines", apperrors.ErrConflict, entryID)
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()

	description := ReversalPrefix + original.Description
	if reason != "" {
		description = description + " (" + reason + ")"
	}

	lines := make([]domain.EntryLine, len(originalLines))
	accountIDs := make([]string, 0, len(originalLines))
	for i, ol := range originalLines {
		lines[i] = domain.EntryLine{
			LineID:            uuid.NewString(),
			EntryID:           reversalID,
			AccountID:         ol.AccountID,
			Debit:             ol.Credit,
			Credit:            ol.Debit,
			CurrencyCode:      ol.CurrencyCode,
			ExternalAccountID: ol.ExternalAccountID,
			Metadata:          ol.Metadata,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		accountIDs = append(accountIDs, ol.AccountID)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, workplaceID, uniqueStrings(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}
	for _, id := range uniqueStrings(accountIDs) {
		if _, found := accounts[id]; !found {
			return nil, fmt.Errorf("%w: %s", ErrEntryAccountNotFound, id)
		}
	}

	changes, err := accounting.ComputeBalanceChanges(lines, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes for reversal: %w", err)
	}
	externalDeltas := accounting.ComputeExternalDeltas(lines)

	totalDebit, totalCredit := accounting.EntryTotals(lines)
	reversal := domain.LedgerEntry{
		EntryID:         reversalID,
		WorkplaceID:     workplaceID,
		EntryDate:       now,
		Description:     description,
		CurrencyCode:    original.CurrencyCode,
		TotalDebit:      totalDebit,
		TotalCredit:     totalCredit,
		SourceID:        original.SourceID,
		SourceType:      domain.SourceReversal,
		IsReversal:      true,
		ReversesEntryID: &original.EntryID,
		Lines:           lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.entryRepo.SaveReversal(ctx, reversal, changes, externalDeltas, original.EntryID, now); err != nil {
		// A concurrent reversal may have won; surface the existing one.
		if errors.Is(err, apperrors.ErrConflict) {
			refreshed, findErr := s.entryRepo.FindEntryByID(ctx, workplaceID, entryID)
			if findErr == nil && refreshed.Reversed && refreshed.ReversalEntryID != nil {
				return s.GetEntryByID(ctx, workplaceID, *refreshed.ReversalEntryID)
			}
		}
		logger.Error("Failed to save reversal", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save reversal: %w", err)
	}

	middleware.CountReversalPosted()
	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversalID))
	return &reversal, nil
}

// GetEntryByID retrieves a specific entry with its lines.
func (s *entryService) GetEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, workplaceID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, err
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch entry lines", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	for i := range lines {
		lines[i].EntryID = entryID
		lines[i].EntryDate = entry.EntryDate
		lines[i].EntryDescription = entry.Description
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of entries in a workplace.
func (s *entryService) ListEntries(ctx context.Context, workplaceID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, nextToken, err := s.entryRepo.ListEntriesByWorkplace(ctx, workplaceID, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()), slog.String("workplace_id", workplaceID))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		if params.IncludeLines {
			lines, err := s.entryRepo.FindLinesByEntryID(ctx, entries[i].EntryID)
			if err != nil {
				logger.Warn("Failed to fetch lines for listed entry", slog.String("error", err.Error()), slog.String("entry_id", entries[i].EntryID))
			} else {
				entries[i].Lines = lines
			}
		}
		responses[i] = dto.ToEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{
		Entries:   responses,
		NextToken: nextToken,
	}, nil
}

// ListLinesByAccount retrieves the lines touching one ledger account, newest
// first, with token pagination.
func (s *entryService) ListLinesByAccount(ctx context.Context, workplaceID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, workplaceID, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	lines, nextToken, err := s.entryRepo.ListLinesByAccountID(ctx, workplaceID, accountID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list account lines", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve lines: %w", err)
	}

	return &dto.ListLinesResponse{
		Lines:     dto.ToEntryLineResponses(lines),
		NextToken: nextToken,
	}, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
