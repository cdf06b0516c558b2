package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/finledger/finledger_backend/internal/utils/accounting"
)

var (
	ErrInvalidSourceKind  = errors.New("invalid source kind")
	ErrNonPositiveAmount  = errors.New("source amount must be positive")
	ErrExternalAcctClosed = errors.New("external account is inactive")
)

// bindingService keeps source documents and ledger entries in lockstep. Every
// write returns a PostingOutcome: the record save and the ledger posting are
// reported separately so a posting failure never loses the business record.
type bindingService struct {
	sourceRepo   portsrepo.SourceRepositoryFacade
	externalRepo portsrepo.ExternalAccountRepositoryFacade
	registrySvc  portssvc.RegistrySvcFacade
	entrySvc     portssvc.EntrySvcFacade
}

// NewBindingService creates a new source-binding service.
func NewBindingService(sourceRepo portsrepo.SourceRepositoryFacade, externalRepo portsrepo.ExternalAccountRepositoryFacade, registrySvc portssvc.RegistrySvcFacade, entrySvc portssvc.EntrySvcFacade) portssvc.BindingSvcFacade {
	return &bindingService{
		sourceRepo:   sourceRepo,
		externalRepo: externalRepo,
		registrySvc:  registrySvc,
		entrySvc:     entrySvc,
	}
}

var _ portssvc.BindingSvcFacade = (*bindingService)(nil)

// categoryTypeForKind picks the account type a category account is
// provisioned with for a source kind.
func categoryTypeForKind(kind domain.SourceKind) domain.AccountType {
	if kind == domain.SourceKindIncome {
		return domain.Revenue
	}
	return domain.Expense
}

// systemAccount resolves a well-known system account, seeding the workplace's
// system accounts on first use so a fresh workplace never needs an explicit
// bootstrap call before posting.
func (s *bindingService) systemAccount(ctx context.Context, workplaceID string, key string, currencyCode string, userID string) (*domain.LedgerAccount, error) {
	account, err := s.registrySvc.GetSystemAccount(ctx, workplaceID, key)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if seedErr := s.registrySvc.EnsureSystemAccounts(ctx, workplaceID, currencyCode, userID); seedErr != nil {
		return nil, fmt.Errorf("failed to seed system accounts: %w", seedErr)
	}
	return s.registrySvc.GetSystemAccount(ctx, workplaceID, key)
}

// paymentAccount resolves the ledger account the money side of a source entry
// posts against. A paid source with a linked external account settles against
// that account's mirror; everything else accrues against accounts-payable
// (expenses) or accounts-receivable (income). The returned pointer carries
// the external account id the line must be tagged with, nil for accruals.
func (s *bindingService) paymentAccount(ctx context.Context, workplaceID string, doc *domain.SourceDocument, userID string) (*domain.LedgerAccount, *string, error) {
	if !doc.Paid || doc.ExternalAccountID == nil {
		key := domain.SystemAccountsPayable
		if doc.Kind == domain.SourceKindIncome {
			key = domain.SystemAccountsReceivable
		}
		accrual, err := s.systemAccount(ctx, workplaceID, key, doc.CurrencyCode, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve accrual account: %w", err)
		}
		return accrual, nil, nil
	}

	external, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, *doc.ExternalAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve external account %s: %w", *doc.ExternalAccountID, err)
	}
	if !external.IsActive {
		return nil, nil, fmt.Errorf("%w: %s", ErrExternalAcctClosed, external.ExternalAccountID)
	}

	mirror, err := s.registrySvc.GetOrCreateExternalAccountMirror(ctx, workplaceID, external, userID)
	if err != nil {
		return nil, nil, err
	}
	return mirror, doc.ExternalAccountID, nil
}

// postSourceEntry builds and posts the double entry for a paid source
// document. Expenses debit the category account and credit the payment
// account; income mirrors that.
func (s *bindingService) postSourceEntry(ctx context.Context, workplaceID string, doc *domain.SourceDocument, userID string) (*domain.LedgerEntry, error) {
	amount := accounting.RoundAmount(doc.Amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", ErrNonPositiveAmount, doc.Amount)
	}

	categoryAcct, err := s.registrySvc.GetOrCreateCategoryAccount(ctx, workplaceID, doc.Category, categoryTypeForKind(doc.Kind), doc.CurrencyCode, userID)
	if err != nil {
		return nil, err
	}
	paymentAcct, externalID, err := s.paymentAccount(ctx, workplaceID, doc, userID)
	if err != nil {
		return nil, err
	}

	var lines []dto.CreateEntryLineRequest
	switch doc.Kind {
	case domain.SourceKindExpense:
		lines = []dto.CreateEntryLineRequest{
			{AccountID: categoryAcct.AccountID, Debit: amount, Metadata: doc.Category},
			{AccountID: paymentAcct.AccountID, Credit: amount, ExternalAccountID: externalID},
		}
	case domain.SourceKindIncome:
		lines = []dto.CreateEntryLineRequest{
			{AccountID: paymentAcct.AccountID, Debit: amount, ExternalAccountID: externalID},
			{AccountID: categoryAcct.AccountID, Credit: amount, Metadata: doc.Category},
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSourceKind, doc.Kind)
	}

	return s.entrySvc.CreateEntry(ctx, workplaceID, dto.CreateEntryRequest{
		Date:         doc.DocumentDate,
		Description:  doc.Description,
		CurrencyCode: doc.CurrencyCode,
		Lines:        lines,
		SourceID:     doc.SourceID,
		SourceType:   domain.SourceType(doc.Kind),
	}, userID)
}

// linkEntry persists the entry back-reference on the source document.
func (s *bindingService) linkEntry(ctx context.Context, doc *domain.SourceDocument, entryID *string, userID string) error {
	doc.LedgerEntryID = entryID
	doc.LastUpdatedAt = time.Now().UTC()
	doc.LastUpdatedBy = userID
	return s.sourceRepo.UpdateSource(ctx, *doc)
}

// CreateSource saves a source document, posts the matching ledger entry
// (settled against the linked account's mirror, or accrued against
// payable/receivable) and links the entry back.
func (s *bindingService) CreateSource(ctx context.Context, workplaceID string, req dto.CreateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	outcome := domain.PostingOutcome{}

	if req.Kind != domain.SourceKindExpense && req.Kind != domain.SourceKindIncome {
		return nil, outcome, fmt.Errorf("%w: %s", ErrInvalidSourceKind, req.Kind)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, outcome, fmt.Errorf("%w: %s", ErrNonPositiveAmount, req.Amount)
	}

	now := time.Now().UTC()
	doc := domain.SourceDocument{
		SourceID:          uuid.NewString(),
		WorkplaceID:       workplaceID,
		Kind:              req.Kind,
		Description:       req.Description,
		Amount:            accounting.RoundAmount(req.Amount),
		CurrencyCode:      req.CurrencyCode,
		Category:          req.Category,
		Paid:              req.Paid,
		ExternalAccountID: req.ExternalAccountID,
		DocumentDate:      req.Date,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.sourceRepo.SaveSource(ctx, doc); err != nil {
		logger.Error("Failed to save source", slog.String("error", err.Error()), slog.String("workplace_id", workplaceID))
		return nil, outcome, fmt.Errorf("failed to save source: %w", err)
	}
	outcome.RecordSaved = true

	entry, err := s.postSourceEntry(ctx, workplaceID, &doc, userID)
	if err != nil {
		logger.Warn("Source saved but ledger posting failed", slog.String("source_id", doc.SourceID), slog.String("error", err.Error()))
		outcome.LedgerError = err
		return &doc, outcome, nil
	}
	outcome.LedgerPosted = true

	if err := s.linkEntry(ctx, &doc, &entry.EntryID, userID); err != nil {
		// The entry exists but the back-reference is missing; the repair
		// toolkit finds these via ListPaidSourcesMissingLink.
		logger.Error("Failed to link entry to source", slog.String("source_id", doc.SourceID), slog.String("entry_id", entry.EntryID), slog.String("error", err.Error()))
		outcome.LedgerError = err
	}
	return &doc, outcome, nil
}

// UpdateSource applies a patch to a source document. Ledger-relevant changes
// reverse the prior entry and post a fresh one; entries are never edited.
func (s *bindingService) UpdateSource(ctx context.Context, workplaceID string, sourceID string, req dto.UpdateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	outcome := domain.PostingOutcome{}

	doc, err := s.sourceRepo.FindSourceByID(ctx, workplaceID, sourceID)
	if err != nil {
		return nil, outcome, err
	}

	patch := req.ToSourcePatch()
	if patch.Amount != nil && patch.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, outcome, fmt.Errorf("%w: %s", ErrNonPositiveAmount, *patch.Amount)
	}
	touchesLedger := patch.TouchesLedger(*doc)

	updated := patch.Apply(*doc)
	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = userID

	if err := s.sourceRepo.UpdateSource(ctx, updated); err != nil {
		logger.Error("Failed to update source", slog.String("error", err.Error()), slog.String("source_id", sourceID))
		return nil, outcome, fmt.Errorf("failed to update source: %w", err)
	}
	outcome.RecordSaved = true

	if !touchesLedger {
		outcome.LedgerPosted = updated.LedgerEntryID != nil
		return &updated, outcome, nil
	}

	// Reverse the prior entry before posting the replacement.
	if updated.LedgerEntryID != nil {
		if _, err := s.entrySvc.ReverseEntry(ctx, workplaceID, *updated.LedgerEntryID, "source updated", userID); err != nil {
			logger.Error("Failed to reverse entry for source update", slog.String("source_id", sourceID), slog.String("entry_id", *updated.LedgerEntryID), slog.String("error", err.Error()))
			outcome.LedgerError = err
			return &updated, outcome, nil
		}
		if err := s.linkEntry(ctx, &updated, nil, userID); err != nil {
			outcome.LedgerError = err
			return &updated, outcome, nil
		}
	}

	entry, err := s.postSourceEntry(ctx, workplaceID, &updated, userID)
	if err != nil {
		logger.Warn("Source updated but ledger re-posting failed", slog.String("source_id", sourceID), slog.String("error", err.Error()))
		outcome.LedgerError = err
		return &updated, outcome, nil
	}
	outcome.LedgerPosted = true

	if err := s.linkEntry(ctx, &updated, &entry.EntryID, userID); err != nil {
		logger.Error("Failed to link entry to updated source", slog.String("source_id", sourceID), slog.String("entry_id", entry.EntryID), slog.String("error", err.Error()))
		outcome.LedgerError = err
	}
	return &updated, outcome, nil
}

// DeleteSource reverses the document's ledger entry, if any, then deletes the
// document. When the reversal fails the document is kept so the ledger and
// the records never disagree silently.
func (s *bindingService) DeleteSource(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	outcome := domain.PostingOutcome{}

	doc, err := s.sourceRepo.FindSourceByID(ctx, workplaceID, sourceID)
	if err != nil {
		return outcome, err
	}

	if doc.LedgerEntryID != nil {
		if _, err := s.entrySvc.ReverseEntry(ctx, workplaceID, *doc.LedgerEntryID, "source deleted", userID); err != nil {
			logger.Error("Failed to reverse entry for source deletion", slog.String("source_id", sourceID), slog.String("error", err.Error()))
			outcome.LedgerError = err
			return outcome, fmt.Errorf("failed to reverse entry before deletion: %w", err)
		}
		outcome.LedgerPosted = true
	}

	if err := s.sourceRepo.DeleteSource(ctx, workplaceID, sourceID); err != nil {
		logger.Error("Failed to delete source", slog.String("error", err.Error()), slog.String("source_id", sourceID))
		return outcome, fmt.Errorf("failed to delete source: %w", err)
	}
	outcome.RecordSaved = true

	logger.Info("Source deleted", slog.String("source_id", sourceID), slog.String("workplace_id", workplaceID))
	return outcome, nil
}

// RebuildSourceEntry forces a reverse+recreate cycle for a source: any
// existing ledger entry is reversed, then a fresh one is posted and linked.
// Used by the repair toolkit to normalize entries after data-quality incidents.
func (s *bindingService) RebuildSourceEntry(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error) {
	outcome := domain.PostingOutcome{RecordSaved: true}

	doc, err := s.sourceRepo.FindSourceByID(ctx, workplaceID, sourceID)
	if err != nil {
		return domain.PostingOutcome{}, err
	}

	if doc.LedgerEntryID != nil {
		if _, err := s.entrySvc.ReverseEntry(ctx, workplaceID, *doc.LedgerEntryID, "entry rebuilt", userID); err != nil {
			outcome.LedgerError = err
			return outcome, fmt.Errorf("failed to reverse entry before rebuild: %w", err)
		}
		if err := s.linkEntry(ctx, doc, nil, userID); err != nil {
			outcome.LedgerError = err
			return outcome, err
		}
	}

	entry, err := s.postSourceEntry(ctx, workplaceID, doc, userID)
	if err != nil {
		outcome.LedgerError = err
		return outcome, err
	}
	outcome.LedgerPosted = true

	if err := s.linkEntry(ctx, doc, &entry.EntryID, userID); err != nil {
		outcome.LedgerError = err
		return outcome, err
	}
	return outcome, nil
}

// GetSourceByID retrieves a source document.
func (s *bindingService) GetSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error) {
	return s.sourceRepo.FindSourceByID(ctx, workplaceID, sourceID)
}

// ListSources retrieves the paid sources of one external account, or of the
// whole workplace when externalAccountID is empty.
func (s *bindingService) ListSources(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error) {
	if externalAccountID == "" {
		return s.sourceRepo.ListPaidSources(ctx, workplaceID)
	}
	return s.sourceRepo.ListSourcesByExternalAccount(ctx, workplaceID, externalAccountID)
}

// OpenExternalAccount registers a financial account and posts its opening
// balance through the ledger against opening balance equity, so the stored
// balance is always derivable from entry lines alone.
func (s *bindingService) OpenExternalAccount(ctx context.Context, workplaceID string, req dto.OpenExternalAccountRequest, userID string) (*domain.ExternalAccount, domain.PostingOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	outcome := domain.PostingOutcome{}

	now := time.Now().UTC()
	external := domain.ExternalAccount{
		ExternalAccountID: uuid.NewString(),
		WorkplaceID:       workplaceID,
		Name:              req.Name,
		CurrencyCode:      req.CurrencyCode,
		CurrentBalance:    decimal.Zero,
		IsActive:          true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.externalRepo.SaveExternalAccount(ctx, external); err != nil {
		logger.Error("Failed to save external account", slog.String("error", err.Error()), slog.String("workplace_id", workplaceID))
		return nil, outcome, fmt.Errorf("failed to save external account: %w", err)
	}
	outcome.RecordSaved = true

	mirror, err := s.registrySvc.GetOrCreateExternalAccountMirror(ctx, workplaceID, &external, userID)
	if err != nil {
		logger.Warn("External account saved but mirror provisioning failed", slog.String("external_account_id", external.ExternalAccountID), slog.String("error", err.Error()))
		outcome.LedgerError = err
		return &external, outcome, nil
	}

	opening := accounting.RoundAmount(req.OpeningBalance)
	if opening.IsZero() {
		outcome.LedgerPosted = true
		return &external, outcome, nil
	}

	equity, err := s.systemAccount(ctx, workplaceID, domain.SystemOpeningBalanceEquity, external.CurrencyCode, userID)
	if err != nil {
		outcome.LedgerError = err
		return &external, outcome, nil
	}

	// Positive opening balances debit the mirror; negative ones (overdrafts,
	// card debt) credit it.
	amount := opening.Abs()
	var lines []dto.CreateEntryLineRequest
	if opening.IsPositive() {
		lines = []dto.CreateEntryLineRequest{
			{AccountID: mirror.AccountID, Debit: amount, ExternalAccountID: &external.ExternalAccountID},
			{AccountID: equity.AccountID, Credit: amount},
		}
	} else {
		lines = []dto.CreateEntryLineRequest{
			{AccountID: equity.AccountID, Debit: amount},
			{AccountID: mirror.AccountID, Credit: amount, ExternalAccountID: &external.ExternalAccountID},
		}
	}

	openingDate := now
	if req.OpeningDate != nil {
		openingDate = *req.OpeningDate
	}

	if _, err := s.entrySvc.CreateEntry(ctx, workplaceID, dto.CreateEntryRequest{
		Date:         openingDate,
		Description:  "Opening balance: " + external.Name,
		CurrencyCode: external.CurrencyCode,
		Lines:        lines,
		SourceID:     external.ExternalAccountID,
		SourceType:   domain.SourceAccountOpening,
	}, userID); err != nil {
		logger.Warn("External account saved but opening entry failed", slog.String("external_account_id", external.ExternalAccountID), slog.String("error", err.Error()))
		outcome.LedgerError = err
		return &external, outcome, nil
	}
	outcome.LedgerPosted = true

	// The opening entry moved the stored balance; return the fresh row.
	refreshed, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, external.ExternalAccountID)
	if err != nil {
		return &external, outcome, nil
	}
	return refreshed, outcome, nil
}

// GetExternalAccountByID retrieves a financial account.
func (s *bindingService) GetExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error) {
	account, err := s.externalRepo.FindExternalAccountByID(ctx, workplaceID, externalAccountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find external account", slog.String("error", err.Error()), slog.String("external_account_id", externalAccountID))
		}
		return nil, err
	}
	return account, nil
}

// ListExternalAccounts retrieves the financial accounts of a workplace.
func (s *bindingService) ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error) {
	return s.externalRepo.ListExternalAccounts(ctx, workplaceID, includeInactive)
}
