package services_test

import (
	"context"
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepository) FindMaxAccountCode(ctx context.Context, workplaceID string, accountType domain.AccountType) (string, error) {
	args := m.Called(ctx, workplaceID, accountType)
	return args.String(0), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool, limit int, offset int) ([]domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountType, includeInactive, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.LedgerAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.LedgerAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ArchiveAccount(ctx context.Context, workplaceID string, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, workplaceID, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	args := m.Called(ctx, tx, workplaceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]domain.BalanceChange, userID string, now time.Time) error {
	args := m.Called(ctx, tx, changes, userID, now)
	return args.Error(0)
}

// --- Mock EntryRepository ---

type MockEntryRepository struct {
	mock.Mock
}

var _ portsrepo.EntryRepositoryWithTx = (*MockEntryRepository)(nil)

func (m *MockEntryRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal) error {
	args := m.Called(ctx, entry, changes, externalDeltas)
	return args.Error(0)
}

func (m *MockEntryRepository) SaveReversal(ctx context.Context, reversal domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal, originalEntryID string, reversedAt time.Time) error {
	args := m.Called(ctx, reversal, changes, externalDeltas, originalEntryID, reversedAt)
	return args.Error(0)
}

func (m *MockEntryRepository) FindEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, workplaceID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.EntryLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntryLine), args.Error(1)
}

func (m *MockEntryRepository) ListEntriesByWorkplace(ctx context.Context, workplaceID string, limit int, nextToken *string, includeReversals bool) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, workplaceID, limit, nextToken, includeReversals)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerEntry), returnedNextToken, args.Error(2)
}

func (m *MockEntryRepository) ListLinesByAccountID(ctx context.Context, workplaceID string, accountID string, limit int, nextToken *string) ([]domain.EntryLine, *string, error) {
	args := m.Called(ctx, workplaceID, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.EntryLine), returnedNextToken, args.Error(2)
}

func (m *MockEntryRepository) FindExternalLines(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.EntryLine, error) {
	args := m.Called(ctx, workplaceID, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntryLine), args.Error(1)
}

func (m *MockEntryRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockEntryRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockEntryRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock ExternalAccountRepository ---

type MockExternalAccountRepository struct {
	mock.Mock
}

var _ portsrepo.ExternalAccountRepositoryFacade = (*MockExternalAccountRepository)(nil)

func (m *MockExternalAccountRepository) FindExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error) {
	args := m.Called(ctx, workplaceID, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalAccount), args.Error(1)
}

func (m *MockExternalAccountRepository) ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error) {
	args := m.Called(ctx, workplaceID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalAccount), args.Error(1)
}

func (m *MockExternalAccountRepository) SaveExternalAccount(ctx context.Context, account domain.ExternalAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockExternalAccountRepository) SetLedgerAccountID(ctx context.Context, workplaceID string, externalAccountID string, ledgerAccountID string, userID string, now time.Time) error {
	args := m.Called(ctx, workplaceID, externalAccountID, ledgerAccountID, userID, now)
	return args.Error(0)
}

func (m *MockExternalAccountRepository) OverwriteBalance(ctx context.Context, workplaceID string, externalAccountID string, balance decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, workplaceID, externalAccountID, balance, userID, now)
	return args.Error(0)
}

// --- Mock SourceRepository ---

type MockSourceRepository struct {
	mock.Mock
}

var _ portsrepo.SourceRepositoryFacade = (*MockSourceRepository)(nil)

func (m *MockSourceRepository) FindSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

func (m *MockSourceRepository) ListPaidSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}

func (m *MockSourceRepository) ListPaidSourcesMissingLink(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}

func (m *MockSourceRepository) ListPaidLinkedSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}

func (m *MockSourceRepository) ListSourcesByExternalAccount(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}

func (m *MockSourceRepository) SaveSource(ctx context.Context, doc domain.SourceDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSourceRepository) UpdateSource(ctx context.Context, doc domain.SourceDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSourceRepository) DeleteSource(ctx context.Context, workplaceID string, sourceID string) error {
	args := m.Called(ctx, workplaceID, sourceID)
	return args.Error(0)
}

// --- Mock CategoryMappingRepository ---

type MockCategoryMappingRepository struct {
	mock.Mock
}

var _ portsrepo.CategoryMappingRepository = (*MockCategoryMappingRepository)(nil)

func (m *MockCategoryMappingRepository) GetCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string) (string, error) {
	args := m.Called(ctx, workplaceID, kind, category)
	return args.String(0), args.Error(1)
}

// PutCategoryAccount echoes the stored accountID back when the test returns
// an empty string, so tests that don't simulate a race need not know the
// generated id.
func (m *MockCategoryMappingRepository) PutCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string, accountID string, userID string, now time.Time) (string, error) {
	args := m.Called(ctx, workplaceID, kind, category, accountID, userID, now)
	mapped := args.String(0)
	if mapped == "" {
		mapped = accountID
	}
	return mapped, args.Error(1)
}

// --- Mock RegistryService (as used by the binding layer) ---

type MockRegistryService struct {
	mock.Mock
}

var _ portssvc.RegistrySvcFacade = (*MockRegistryService)(nil)

func (m *MockRegistryService) GetAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) GetAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) GetAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) GetSystemAccount(ctx context.Context, workplaceID string, key string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool) ([]domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountType, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) EnsureSystemAccounts(ctx context.Context, workplaceID string, currencyCode string, userID string) error {
	args := m.Called(ctx, workplaceID, currencyCode, userID)
	return args.Error(0)
}

func (m *MockRegistryService) CreateAccount(ctx context.Context, workplaceID string, req dto.CreateAccountRequest, userID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) UpdateAccount(ctx context.Context, workplaceID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) ArchiveAccount(ctx context.Context, workplaceID string, accountID string, reason string, userID string) error {
	args := m.Called(ctx, workplaceID, accountID, reason, userID)
	return args.Error(0)
}

func (m *MockRegistryService) GetOrCreateCategoryAccount(ctx context.Context, workplaceID string, category string, accountType domain.AccountType, currencyCode string, userID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, category, accountType, currencyCode, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockRegistryService) GetOrCreateExternalAccountMirror(ctx context.Context, workplaceID string, externalAccount *domain.ExternalAccount, userID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, workplaceID, externalAccount, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

// --- Mock EntryService (as used by the binding layer) ---

type MockEntryService struct {
	mock.Mock
}

var _ portssvc.EntrySvcFacade = (*MockEntryService)(nil)

func (m *MockEntryService) GetEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, workplaceID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryService) ListEntries(ctx context.Context, workplaceID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, workplaceID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockEntryService) ListLinesByAccount(ctx context.Context, workplaceID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	args := m.Called(ctx, workplaceID, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListLinesResponse), args.Error(1)
}

func (m *MockEntryService) CreateEntry(ctx context.Context, workplaceID string, req dto.CreateEntryRequest, userID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, workplaceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryService) ReverseEntry(ctx context.Context, workplaceID string, entryID string, reason string, userID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, workplaceID, entryID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

// --- Mock BindingService (as used by the reconciliation toolkit) ---

type MockBindingService struct {
	mock.Mock
}

var _ portssvc.BindingSvcFacade = (*MockBindingService)(nil)

func (m *MockBindingService) GetSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

func (m *MockBindingService) ListSources(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, workplaceID, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}

func (m *MockBindingService) CreateSource(ctx context.Context, workplaceID string, req dto.CreateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error) {
	args := m.Called(ctx, workplaceID, req, userID)
	outcome := args.Get(1).(domain.PostingOutcome)
	if args.Get(0) == nil {
		return nil, outcome, args.Error(2)
	}
	return args.Get(0).(*domain.SourceDocument), outcome, args.Error(2)
}

func (m *MockBindingService) UpdateSource(ctx context.Context, workplaceID string, sourceID string, req dto.UpdateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error) {
	args := m.Called(ctx, workplaceID, sourceID, req, userID)
	outcome := args.Get(1).(domain.PostingOutcome)
	if args.Get(0) == nil {
		return nil, outcome, args.Error(2)
	}
	return args.Get(0).(*domain.SourceDocument), outcome, args.Error(2)
}

func (m *MockBindingService) DeleteSource(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error) {
	args := m.Called(ctx, workplaceID, sourceID, userID)
	return args.Get(0).(domain.PostingOutcome), args.Error(1)
}

func (m *MockBindingService) RebuildSourceEntry(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error) {
	args := m.Called(ctx, workplaceID, sourceID, userID)
	return args.Get(0).(domain.PostingOutcome), args.Error(1)
}

func (m *MockBindingService) OpenExternalAccount(ctx context.Context, workplaceID string, req dto.OpenExternalAccountRequest, userID string) (*domain.ExternalAccount, domain.PostingOutcome, error) {
	args := m.Called(ctx, workplaceID, req, userID)
	outcome := args.Get(1).(domain.PostingOutcome)
	if args.Get(0) == nil {
		return nil, outcome, args.Error(2)
	}
	return args.Get(0).(*domain.ExternalAccount), outcome, args.Error(2)
}

func (m *MockBindingService) GetExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error) {
	args := m.Called(ctx, workplaceID, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalAccount), args.Error(1)
}

func (m *MockBindingService) ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error) {
	args := m.Called(ctx, workplaceID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalAccount), args.Error(1)
}

type MockCurrencyRepository struct {
	mock.Mock
}

var _ portsrepo.CurrencyRepositoryFacade = (*MockCurrencyRepository)(nil)

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}
