package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/finledger/finledger_backend/internal/utils/accounting"
)

// recalcThreshold is the drift below which a recomputed balance is considered
// equal to the stored one and left unwritten.
var recalcThreshold = decimal.RequireFromString("0.01")

const defaultBatchSize = 25

// reconService implements the reconciliation and repair toolkit. Analysis is
// read-only; repairs route every balance mutation through the entry engine,
// except RecalculateBalances which overwrites stored external balances with
// values replayed from entry history.
type reconService struct {
	entryRepo    portsrepo.EntryRepositoryWithTx
	sourceRepo   portsrepo.SourceRepositoryFacade
	externalRepo portsrepo.ExternalAccountRepositoryFacade
	bindingSvc   portssvc.BindingSvcFacade
}

// NewReconService creates a new reconciliation service.
func NewReconService(entryRepo portsrepo.EntryRepositoryWithTx, sourceRepo portsrepo.SourceRepositoryFacade, externalRepo portsrepo.ExternalAccountRepositoryFacade, bindingSvc portssvc.BindingSvcFacade) portssvc.ReconSvcFacade {
	return &reconService{
		entryRepo:    entryRepo,
		sourceRepo:   sourceRepo,
		externalRepo: externalRepo,
		bindingSvc:   bindingSvc,
	}
}

var _ portssvc.ReconSvcFacade = (*reconService)(nil)

// signedSourceAmount is the expected balance effect of a paid source: income
// adds, expense subtracts.
func signedSourceAmount(doc domain.SourceDocument) decimal.Decimal {
	amount := accounting.RoundAmount(doc.Amount)
	if doc.Kind == domain.SourceKindExpense {
		return amount.Neg()
	}
	return amount
}

// openingTotal sums the external delta of account-opening lines. Opening
// balances enter the ledger as entries, not as source documents, so they are
// added to the source-derived expectation to keep the comparison fair.
func openingTotal(lines []domain.EntryLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.EntrySourceType == domain.SourceAccountOpening {
			total = total.Add(l.ExternalDelta())
		}
	}
	return total
}

// AnalyzeDiscrepancies re-aggregates every external account's expected balance
// from paid source documents (plus its opening entry) and compares it with
// the stored balance. Read-only.
func (s *reconService) AnalyzeDiscrepancies(ctx context.Context, workplaceID string) (*domain.DiscrepancyReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	externals, err := s.externalRepo.ListExternalAccounts(ctx, workplaceID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list external accounts: %w", err)
	}

	allLines, err := s.entryRepo.FindExternalLines(ctx, workplaceID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch external lines: %w", err)
	}
	linesByAccount := make(map[string][]domain.EntryLine)
	for _, l := range allLines {
		if l.ExternalAccountID != nil {
			linesByAccount[*l.ExternalAccountID] = append(linesByAccount[*l.ExternalAccountID], l)
		}
	}

	report := &domain.DiscrepancyReport{GeneratedAt: time.Now().UTC()}
	for i := range externals {
		ext := externals[i]
		sources, err := s.sourceRepo.ListSourcesByExternalAccount(ctx, workplaceID, ext.ExternalAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sources for account %s: %w", ext.ExternalAccountID, err)
		}

		expected := openingTotal(linesByAccount[ext.ExternalAccountID])
		paidCount := 0
		for _, doc := range sources {
			if !doc.Paid {
				continue
			}
			expected = expected.Add(signedSourceAmount(doc))
			paidCount++
		}

		discrepancy := expected.Sub(ext.CurrentBalance)
		report.Accounts = append(report.Accounts, domain.AccountDiscrepancy{
			ExternalAccountID: ext.ExternalAccountID,
			Name:              ext.Name,
			Expected:          expected,
			Stored:            ext.CurrentBalance,
			Discrepancy:       discrepancy,
			SourceCount:       paidCount,
		})
		if discrepancy.Abs().GreaterThan(recalcThreshold) {
			report.AccountsWithDrift++
		}
	}

	unlinked, err := s.sourceRepo.ListPaidSourcesMissingLink(ctx, workplaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unlinked sources: %w", err)
	}
	report.PaidSourcesMissingLink = len(unlinked)

	logger.Info("Discrepancy analysis completed", slog.Int("accounts", len(report.Accounts)), slog.Int("with_drift", report.AccountsWithDrift), slog.Int("unlinked_sources", report.PaidSourcesMissingLink))
	return report, nil
}

// RecalculateBalances replays every non-reversed externally-linked entry line,
// nets the deltas per external account and overwrites stored balances that
// drifted beyond the threshold. The read and the writes are not one
// transaction; entries posted mid-run can be missed at the window's edges,
// which re-running corrects.
func (s *reconService) RecalculateBalances(ctx context.Context, workplaceID string, opts domain.RecalcOptions, userID string) (*domain.RecalcReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	externals, err := s.externalRepo.ListExternalAccounts(ctx, workplaceID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list external accounts: %w", err)
	}

	lines, err := s.entryRepo.FindExternalLines(ctx, workplaceID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch external lines: %w", err)
	}

	type accumulator struct {
		balance decimal.Decimal
		debit   decimal.Decimal
		credit  decimal.Decimal
		entries map[string]struct{}
	}
	computed := make(map[string]*accumulator)
	for _, l := range lines {
		if l.ExternalAccountID == nil {
			continue
		}
		acc, ok := computed[*l.ExternalAccountID]
		if !ok {
			acc = &accumulator{entries: make(map[string]struct{})}
			computed[*l.ExternalAccountID] = acc
		}
		acc.balance = acc.balance.Add(l.ExternalDelta())
		acc.debit = acc.debit.Add(l.Debit)
		acc.credit = acc.credit.Add(l.Credit)
		acc.entries[l.EntryID] = struct{}{}
	}

	report := &domain.RecalcReport{DryRun: opts.DryRun, RanAt: now}
	for i := range externals {
		ext := externals[i]
		after := decimal.Zero
		entryCount := 0
		debit, credit := decimal.Zero, decimal.Zero
		if acc, ok := computed[ext.ExternalAccountID]; ok {
			after = acc.balance
			entryCount = len(acc.entries)
			debit, credit = acc.debit, acc.credit
		}

		drifted := after.Sub(ext.CurrentBalance).Abs().GreaterThan(recalcThreshold)
		updated := false
		if drifted && !opts.DryRun {
			if err := s.externalRepo.OverwriteBalance(ctx, workplaceID, ext.ExternalAccountID, after, userID, now); err != nil {
				return nil, fmt.Errorf("failed to overwrite balance for account %s: %w", ext.ExternalAccountID, err)
			}
			updated = true
		}

		report.Accounts = append(report.Accounts, domain.AccountRecalc{
			ExternalAccountID: ext.ExternalAccountID,
			Name:              ext.Name,
			Before:            ext.CurrentBalance,
			After:             after,
			EntryCount:        entryCount,
			DebitTotal:        debit,
			CreditTotal:       credit,
			Updated:           updated,
		})
		if updated {
			report.UpdatedCount++
		}
	}

	logger.Info("Balance recalculation completed", slog.Bool("dry_run", opts.DryRun), slog.Int("accounts", len(report.Accounts)), slog.Int("updated", report.UpdatedCount))
	return report, nil
}

// DiagnoseAccount produces the full drift trace for one external account:
// every contributing source, every contributing ledger line, and the three
// pairwise totals.
func (s *reconService) DiagnoseAccount(ctx context.Context, workplaceID string, externalAccountID string) (*domain.AccountDiagnosis, error) {
	external, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, externalAccountID)
	if err != nil {
		return nil, err
	}

	sources, err := s.sourceRepo.ListSourcesByExternalAccount(ctx, workplaceID, externalAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	lines, err := s.entryRepo.FindExternalLines(ctx, workplaceID, externalAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger lines: %w", err)
	}

	diagnosis := &domain.AccountDiagnosis{
		ExternalAccountID: externalAccountID,
		Name:              external.Name,
		StoredBalance:     external.CurrentBalance,
	}

	sourceTotal := openingTotal(lines)
	for _, doc := range sources {
		signed := decimal.Zero
		if doc.Paid {
			signed = signedSourceAmount(doc)
			sourceTotal = sourceTotal.Add(signed)
		}
		diagnosis.Sources = append(diagnosis.Sources, domain.DiagnosisSource{
			SourceID:      doc.SourceID,
			Kind:          doc.Kind,
			DocumentDate:  doc.DocumentDate,
			Description:   doc.Description,
			Amount:        doc.Amount,
			SignedAmount:  signed,
			LedgerEntryID: doc.LedgerEntryID,
		})
	}

	ledgerTotal := decimal.Zero
	for _, l := range lines {
		delta := l.ExternalDelta()
		ledgerTotal = ledgerTotal.Add(delta)
		diagnosis.Lines = append(diagnosis.Lines, domain.DiagnosisLine{
			EntryID:     l.EntryID,
			EntryDate:   l.EntryDate,
			Description: l.EntryDescription,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Delta:       delta,
		})
	}

	diagnosis.SourceTotal = sourceTotal
	diagnosis.LedgerTotal = ledgerTotal
	diagnosis.SourceVsLedger = sourceTotal.Sub(ledgerTotal)
	diagnosis.LedgerVsStored = ledgerTotal.Sub(external.CurrentBalance)
	diagnosis.SourceVsStored = sourceTotal.Sub(external.CurrentBalance)
	return diagnosis, nil
}

// runBatch drives a batch repair over items, continuing past individual
// failures and reporting progress after each item.
func runBatch(items []domain.SourceDocument, opts domain.RepairOptions, process func(doc domain.SourceDocument) (bool, error)) *domain.BatchReport {
	report := &domain.BatchReport{DryRun: opts.DryRun, Total: len(items)}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		for _, doc := range items[start:end] {
			report.Processed++
			if !opts.DryRun {
				updated, err := process(doc)
				if err != nil {
					report.Errors = append(report.Errors, domain.ItemError{ID: doc.SourceID, Err: err.Error()})
				} else if updated {
					report.Updated++
				}
			}
			if opts.OnProgress != nil {
				opts.OnProgress(report.Processed, report.Total, report.Updated, report.Errors)
			}
		}
	}
	return report
}

// RepairMissingLinks assigns defaultExternalAccountID to paid sources lacking
// an external-account link and re-saves them through the binding layer, which
// reverses and re-posts their entries against the newly linked account.
func (s *reconService) RepairMissingLinks(ctx context.Context, workplaceID string, defaultExternalAccountID string, opts domain.RepairOptions, userID string) (*domain.BatchReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, defaultExternalAccountID); err != nil {
		return nil, fmt.Errorf("default external account: %w", err)
	}

	unlinked, err := s.sourceRepo.ListPaidSourcesMissingLink(ctx, workplaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked sources: %w", err)
	}

	report := runBatch(unlinked, opts, func(doc domain.SourceDocument) (bool, error) {
		_, outcome, err := s.bindingSvc.UpdateSource(ctx, workplaceID, doc.SourceID, dtoPatchExternalAccount(defaultExternalAccountID), userID)
		if err != nil {
			return false, err
		}
		if outcome.LedgerError != nil {
			return false, outcome.LedgerError
		}
		return true, nil
	})

	logger.Info("Missing-link repair completed", slog.Bool("dry_run", opts.DryRun), slog.Int("processed", report.Processed), slog.Int("updated", report.Updated), slog.Int("errors", len(report.Errors)))
	return report, nil
}

// RebuildAllEntries forces a reverse+recreate cycle for every paid,
// externally-linked source. Used after a known data-quality incident.
func (s *reconService) RebuildAllEntries(ctx context.Context, workplaceID string, opts domain.RepairOptions, userID string) (*domain.BatchReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	linked, err := s.sourceRepo.ListPaidLinkedSources(ctx, workplaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked sources: %w", err)
	}

	report := runBatch(linked, opts, func(doc domain.SourceDocument) (bool, error) {
		outcome, err := s.bindingSvc.RebuildSourceEntry(ctx, workplaceID, doc.SourceID, userID)
		if err != nil {
			return false, err
		}
		return outcome.LedgerPosted, nil
	})

	logger.Info("Entry rebuild completed", slog.Bool("dry_run", opts.DryRun), slog.Int("processed", report.Processed), slog.Int("updated", report.Updated), slog.Int("errors", len(report.Errors)))
	return report, nil
}

// dtoPatchExternalAccount builds the update request that links a source to an
// external account, leaving every other field untouched.
func dtoPatchExternalAccount(externalAccountID string) dto.UpdateSourceRequest {
	return dto.UpdateSourceRequest{ExternalAccountID: &externalAccountID}
}
