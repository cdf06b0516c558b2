package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/core/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
)

type BindingServiceTestSuite struct {
	suite.Suite
	mockSourceRepo    *MockSourceRepository
	mockExternalRepo  *MockExternalAccountRepository
	mockRegistrySvc   *MockRegistryService
	mockEntrySvc      *MockEntryService
	service           portssvc.BindingSvcFacade
	workplaceID       string
	userID            string
	categoryAccount   domain.LedgerAccount
	payableAccount    domain.LedgerAccount
	receivableAccount domain.LedgerAccount
}

func (suite *BindingServiceTestSuite) SetupTest() {
	suite.mockSourceRepo = new(MockSourceRepository)
	suite.mockExternalRepo = new(MockExternalAccountRepository)
	suite.mockRegistrySvc = new(MockRegistryService)
	suite.mockEntrySvc = new(MockEntryService)
	suite.service = services.NewBindingService(suite.mockSourceRepo, suite.mockExternalRepo, suite.mockRegistrySvc, suite.mockEntrySvc)

	suite.workplaceID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.categoryAccount = domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		Code:          "5100",
		Name:          "groceries",
		AccountType:   domain.Expense,
		NormalBalance: domain.DebitNormal,
		CurrencyCode:  "USD",
		IsActive:      true,
	}
	suite.payableAccount = domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		Code:          "2000",
		Name:          "Accounts Payable",
		AccountType:   domain.Liability,
		NormalBalance: domain.CreditNormal,
		CurrencyCode:  "USD",
		IsSystem:      true,
		IsActive:      true,
	}
	suite.receivableAccount = domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		Code:          "1100",
		Name:          "Accounts Receivable",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		CurrencyCode:  "USD",
		IsSystem:      true,
		IsActive:      true,
	}
}

func (suite *BindingServiceTestSuite) TestCreateSource_PaidExpenseSettlesAgainstMirror() {
	ctx := context.Background()
	externalID := uuid.NewString()
	external := &domain.ExternalAccount{
		ExternalAccountID: externalID,
		WorkplaceID:       suite.workplaceID,
		Name:              "Checking",
		CurrencyCode:      "USD",
		IsActive:          true,
	}
	mirror := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		CurrencyCode:  "USD",
		IsActive:      true,
	}
	req := dto.CreateSourceRequest{
		Kind:              domain.SourceKindExpense,
		Description:       "Groceries",
		Amount:            decimal.NewFromInt(50),
		CurrencyCode:      "USD",
		Category:          "groceries",
		Paid:              true,
		ExternalAccountID: &externalID,
		Date:              time.Now(),
	}
	entryID := uuid.NewString()
	postedEntry := &domain.LedgerEntry{EntryID: entryID, WorkplaceID: suite.workplaceID}

	suite.mockSourceRepo.On("SaveSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockExternalRepo.On("FindExternalAccountByID", ctx, suite.workplaceID, externalID).
		Return(external, nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateExternalAccountMirror", ctx, suite.workplaceID, external, suite.userID).
		Return(&mirror, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return req.SourceType == domain.SourceType(domain.SourceKindExpense) &&
			len(req.Lines) == 2 &&
			req.Lines[0].AccountID == suite.categoryAccount.AccountID &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(50)) &&
			req.Lines[1].AccountID == mirror.AccountID &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(50)) &&
			req.Lines[1].ExternalAccountID != nil && *req.Lines[1].ExternalAccountID == externalID
	}), suite.userID).Return(postedEntry, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.MatchedBy(func(doc domain.SourceDocument) bool {
		return doc.LedgerEntryID != nil && *doc.LedgerEntryID == entryID
	})).Return(nil).Once()

	doc, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.NoError(outcome.LedgerError)
	suite.Require().NotNil(doc.LedgerEntryID)
	suite.Equal(entryID, *doc.LedgerEntryID)

	suite.mockSourceRepo.AssertExpectations(suite.T())
	suite.mockRegistrySvc.AssertExpectations(suite.T())
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestCreateSource_UnpaidExpenseAccruesPayable() {
	ctx := context.Background()
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKindExpense,
		Description:  "Software subscription",
		Amount:       decimal.NewFromInt(30),
		CurrencyCode: "USD",
		Category:     "software",
		Paid:         false,
		Date:         time.Now(),
	}
	postedEntry := &domain.LedgerEntry{EntryID: uuid.NewString(), WorkplaceID: suite.workplaceID}

	suite.mockSourceRepo.On("SaveSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "software", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return len(req.Lines) == 2 &&
			req.Lines[0].AccountID == suite.categoryAccount.AccountID &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(30)) &&
			req.Lines[1].AccountID == suite.payableAccount.AccountID &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(30)) &&
			req.Lines[1].ExternalAccountID == nil
	}), suite.userID).Return(postedEntry, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()

	doc, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	// No external account balance moves on an accrual.
	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.Require().NotNil(doc.LedgerEntryID)
	suite.mockExternalRepo.AssertNotCalled(suite.T(), "FindExternalAccountByID", mock.Anything, mock.Anything, mock.Anything)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestCreateSource_FreshWorkplaceSeedsSystemAccounts() {
	// The very first posting in a workplace finds no system accounts yet;
	// the binding layer seeds them in place instead of soft-failing until a
	// bootstrap endpoint is called.
	ctx := context.Background()
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKindExpense,
		Description:  "First ever expense",
		Amount:       decimal.NewFromInt(40),
		CurrencyCode: "USD",
		Category:     "groceries",
		Paid:         false,
		Date:         time.Now(),
	}
	postedEntry := &domain.LedgerEntry{EntryID: uuid.NewString(), WorkplaceID: suite.workplaceID}

	suite.mockSourceRepo.On("SaveSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRegistrySvc.On("EnsureSystemAccounts", ctx, suite.workplaceID, "USD", suite.userID).Return(nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.AnythingOfType("dto.CreateEntryRequest"), suite.userID).
		Return(postedEntry, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()

	_, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.LedgerPosted)
	suite.mockRegistrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestCreateSource_IncomeWithoutAccountDebitsReceivable() {
	ctx := context.Background()
	revenueAccount := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Revenue,
		NormalBalance: domain.CreditNormal,
		CurrencyCode:  "USD",
		IsActive:      true,
	}
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKindIncome,
		Description:  "Consulting fee",
		Amount:       decimal.NewFromInt(200),
		CurrencyCode: "USD",
		Category:     "consulting",
		Paid:         false,
		Date:         time.Now(),
	}
	postedEntry := &domain.LedgerEntry{EntryID: uuid.NewString(), WorkplaceID: suite.workplaceID}

	suite.mockSourceRepo.On("SaveSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "consulting", domain.Revenue, "USD", suite.userID).
		Return(&revenueAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsReceivable).
		Return(&suite.receivableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return len(req.Lines) == 2 &&
			req.Lines[0].AccountID == suite.receivableAccount.AccountID &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(200)) &&
			req.Lines[1].AccountID == revenueAccount.AccountID &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(200))
	}), suite.userID).Return(postedEntry, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()

	_, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.LedgerPosted)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestCreateSource_PostingFailureKeepsRecord() {
	ctx := context.Background()
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKindExpense,
		Description:  "Groceries",
		Amount:       decimal.NewFromInt(50),
		CurrencyCode: "USD",
		Category:     "groceries",
		Paid:         true,
		Date:         time.Now(),
	}
	postErr := errors.New("ledger unavailable")

	suite.mockSourceRepo.On("SaveSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.AnythingOfType("dto.CreateEntryRequest"), suite.userID).
		Return(nil, postErr).Once()

	doc, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	// The record survives; only the outcome reports the posting failure.
	suite.Require().NoError(err)
	suite.Require().NotNil(doc)
	suite.True(outcome.RecordSaved)
	suite.False(outcome.LedgerPosted)
	suite.Error(outcome.LedgerError)
	suite.mockSourceRepo.AssertNotCalled(suite.T(), "UpdateSource", mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestCreateSource_InvalidKind() {
	ctx := context.Background()
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKind("transfer"),
		Description:  "Bad kind",
		Amount:       decimal.NewFromInt(50),
		CurrencyCode: "USD",
		Category:     "misc",
		Date:         time.Now(),
	}

	doc, outcome, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(doc)
	suite.False(outcome.RecordSaved)
	suite.ErrorIs(err, services.ErrInvalidSourceKind)
	suite.mockSourceRepo.AssertNotCalled(suite.T(), "SaveSource", mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestCreateSource_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.CreateSourceRequest{
		Kind:         domain.SourceKindExpense,
		Description:  "Zero",
		Amount:       decimal.Zero,
		CurrencyCode: "USD",
		Category:     "misc",
		Date:         time.Now(),
	}

	doc, _, err := suite.service.CreateSource(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(doc)
	suite.ErrorIs(err, services.ErrNonPositiveAmount)
}

func (suite *BindingServiceTestSuite) TestUpdateSource_NonLedgerChangeSkipsRebuild() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	entryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:      sourceID,
		WorkplaceID:   suite.workplaceID,
		Kind:          domain.SourceKindExpense,
		Description:   "Groceries",
		Amount:        decimal.NewFromInt(50),
		CurrencyCode:  "USD",
		Category:      "groceries",
		Paid:          true,
		DocumentDate:  time.Now(),
		LedgerEntryID: &entryID,
	}
	newDescription := "Groceries (corrected)"
	req := dto.UpdateSourceRequest{Description: &newDescription}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()

	doc, outcome, err := suite.service.UpdateSource(ctx, suite.workplaceID, sourceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(newDescription, doc.Description)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "ReverseEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestUpdateSource_AmountChangeReversesAndReposts() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	oldEntryID := uuid.NewString()
	newEntryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:      sourceID,
		WorkplaceID:   suite.workplaceID,
		Kind:          domain.SourceKindExpense,
		Description:   "Groceries",
		Amount:        decimal.NewFromInt(50),
		CurrencyCode:  "USD",
		Category:      "groceries",
		Paid:          true,
		DocumentDate:  time.Now(),
		LedgerEntryID: &oldEntryID,
	}
	newAmount := decimal.NewFromInt(75)
	req := dto.UpdateSourceRequest{Amount: &newAmount}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Times(3)
	suite.mockEntrySvc.On("ReverseEntry", ctx, suite.workplaceID, oldEntryID, "source updated", suite.userID).
		Return(&domain.LedgerEntry{EntryID: uuid.NewString(), IsReversal: true}, nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return len(req.Lines) == 2 && req.Lines[0].Debit.Equal(decimal.NewFromInt(75))
	}), suite.userID).Return(&domain.LedgerEntry{EntryID: newEntryID}, nil).Once()

	doc, outcome, err := suite.service.UpdateSource(ctx, suite.workplaceID, sourceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.Require().NotNil(doc.LedgerEntryID)
	suite.Equal(newEntryID, *doc.LedgerEntryID)
	suite.mockEntrySvc.AssertExpectations(suite.T())
	suite.mockSourceRepo.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestUpdateSource_MarkUnpaidMovesToAccrual() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	entryID := uuid.NewString()
	newEntryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:      sourceID,
		WorkplaceID:   suite.workplaceID,
		Kind:          domain.SourceKindExpense,
		Description:   "Groceries",
		Amount:        decimal.NewFromInt(50),
		CurrencyCode:  "USD",
		Category:      "groceries",
		Paid:          true,
		DocumentDate:  time.Now(),
		LedgerEntryID: &entryID,
	}
	unpaid := false
	req := dto.UpdateSourceRequest{Paid: &unpaid}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Times(3)
	suite.mockEntrySvc.On("ReverseEntry", ctx, suite.workplaceID, entryID, "source updated", suite.userID).
		Return(&domain.LedgerEntry{EntryID: uuid.NewString(), IsReversal: true}, nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return len(req.Lines) == 2 && req.Lines[1].AccountID == suite.payableAccount.AccountID
	}), suite.userID).Return(&domain.LedgerEntry{EntryID: newEntryID}, nil).Once()

	doc, outcome, err := suite.service.UpdateSource(ctx, suite.workplaceID, sourceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.Require().NotNil(doc.LedgerEntryID)
	suite.Equal(newEntryID, *doc.LedgerEntryID)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestDeleteSource_ReversesLinkedEntry() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	entryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:      sourceID,
		WorkplaceID:   suite.workplaceID,
		Kind:          domain.SourceKindExpense,
		Paid:          true,
		LedgerEntryID: &entryID,
	}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockEntrySvc.On("ReverseEntry", ctx, suite.workplaceID, entryID, "source deleted", suite.userID).
		Return(&domain.LedgerEntry{EntryID: uuid.NewString(), IsReversal: true}, nil).Once()
	suite.mockSourceRepo.On("DeleteSource", ctx, suite.workplaceID, sourceID).Return(nil).Once()

	outcome, err := suite.service.DeleteSource(ctx, suite.workplaceID, sourceID, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.mockSourceRepo.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestDeleteSource_ReversalFailureKeepsDocument() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	entryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:      sourceID,
		WorkplaceID:   suite.workplaceID,
		Kind:          domain.SourceKindExpense,
		Paid:          true,
		LedgerEntryID: &entryID,
	}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockEntrySvc.On("ReverseEntry", ctx, suite.workplaceID, entryID, "source deleted", suite.userID).
		Return(nil, errors.New("reversal failed")).Once()

	outcome, err := suite.service.DeleteSource(ctx, suite.workplaceID, sourceID, suite.userID)

	suite.Require().Error(err)
	suite.False(outcome.RecordSaved)
	suite.Error(outcome.LedgerError)
	suite.mockSourceRepo.AssertNotCalled(suite.T(), "DeleteSource", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestRebuildSourceEntry_UnpaidSourceAccrues() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	newEntryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:     sourceID,
		WorkplaceID:  suite.workplaceID,
		Kind:         domain.SourceKindExpense,
		Description:  "Vendor invoice",
		Amount:       decimal.NewFromInt(75),
		CurrencyCode: "USD",
		Category:     "supplies",
		Paid:         false,
		DocumentDate: time.Now(),
	}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "supplies", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.AnythingOfType("dto.CreateEntryRequest"), suite.userID).
		Return(&domain.LedgerEntry{EntryID: newEntryID}, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.AnythingOfType("domain.SourceDocument")).Return(nil).Once()

	outcome, err := suite.service.RebuildSourceEntry(ctx, suite.workplaceID, sourceID, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.LedgerPosted)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "ReverseEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestRebuildSourceEntry_PostsFreshEntry() {
	ctx := context.Background()
	sourceID := uuid.NewString()
	newEntryID := uuid.NewString()
	existing := &domain.SourceDocument{
		SourceID:     sourceID,
		WorkplaceID:  suite.workplaceID,
		Kind:         domain.SourceKindExpense,
		Description:  "Groceries",
		Amount:       decimal.NewFromInt(50),
		CurrencyCode: "USD",
		Category:     "groceries",
		Paid:         true,
		DocumentDate: time.Now(),
	}

	suite.mockSourceRepo.On("FindSourceByID", ctx, suite.workplaceID, sourceID).Return(existing, nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateCategoryAccount", ctx, suite.workplaceID, "groceries", domain.Expense, "USD", suite.userID).
		Return(&suite.categoryAccount, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemAccountsPayable).
		Return(&suite.payableAccount, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.AnythingOfType("dto.CreateEntryRequest"), suite.userID).
		Return(&domain.LedgerEntry{EntryID: newEntryID}, nil).Once()
	suite.mockSourceRepo.On("UpdateSource", ctx, mock.MatchedBy(func(doc domain.SourceDocument) bool {
		return doc.LedgerEntryID != nil && *doc.LedgerEntryID == newEntryID
	})).Return(nil).Once()

	outcome, err := suite.service.RebuildSourceEntry(ctx, suite.workplaceID, sourceID, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "ReverseEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestOpenExternalAccount_PostsOpeningBalance() {
	ctx := context.Background()
	mirror := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		CurrencyCode:  "USD",
		IsActive:      true,
	}
	equity := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Equity,
		NormalBalance: domain.CreditNormal,
		CurrencyCode:  "USD",
		IsSystem:      true,
		IsActive:      true,
	}
	req := dto.OpenExternalAccountRequest{
		Name:           "Checking",
		CurrencyCode:   "USD",
		OpeningBalance: decimal.NewFromInt(1000),
	}

	suite.mockExternalRepo.On("SaveExternalAccount", ctx, mock.AnythingOfType("domain.ExternalAccount")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateExternalAccountMirror", ctx, suite.workplaceID, mock.AnythingOfType("*domain.ExternalAccount"), suite.userID).
		Return(&mirror, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemOpeningBalanceEquity).
		Return(&equity, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return req.SourceType == domain.SourceAccountOpening &&
			len(req.Lines) == 2 &&
			req.Lines[0].AccountID == mirror.AccountID &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(1000)) &&
			req.Lines[1].AccountID == equity.AccountID &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(1000))
	}), suite.userID).Return(&domain.LedgerEntry{EntryID: uuid.NewString()}, nil).Once()
	refreshed := &domain.ExternalAccount{
		ExternalAccountID: uuid.NewString(),
		WorkplaceID:       suite.workplaceID,
		Name:              "Checking",
		CurrencyCode:      "USD",
		CurrentBalance:    decimal.NewFromInt(1000),
		IsActive:          true,
	}
	suite.mockExternalRepo.On("FindExternalAccountByID", ctx, suite.workplaceID, mock.AnythingOfType("string")).
		Return(refreshed, nil).Once()

	account, outcome, err := suite.service.OpenExternalAccount(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.True(account.CurrentBalance.Equal(decimal.NewFromInt(1000)))
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestOpenExternalAccount_NegativeOpeningCreditsMirror() {
	ctx := context.Background()
	mirror := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		CurrencyCode:  "USD",
		IsActive:      true,
	}
	equity := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountType:   domain.Equity,
		NormalBalance: domain.CreditNormal,
		CurrencyCode:  "USD",
		IsSystem:      true,
		IsActive:      true,
	}
	req := dto.OpenExternalAccountRequest{
		Name:           "Credit card",
		CurrencyCode:   "USD",
		OpeningBalance: decimal.NewFromInt(-250),
	}

	suite.mockExternalRepo.On("SaveExternalAccount", ctx, mock.AnythingOfType("domain.ExternalAccount")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateExternalAccountMirror", ctx, suite.workplaceID, mock.AnythingOfType("*domain.ExternalAccount"), suite.userID).
		Return(&mirror, nil).Once()
	suite.mockRegistrySvc.On("GetSystemAccount", ctx, suite.workplaceID, domain.SystemOpeningBalanceEquity).
		Return(&equity, nil).Once()
	suite.mockEntrySvc.On("CreateEntry", ctx, suite.workplaceID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		return len(req.Lines) == 2 &&
			req.Lines[0].AccountID == equity.AccountID &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(250)) &&
			req.Lines[1].AccountID == mirror.AccountID &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(250))
	}), suite.userID).Return(&domain.LedgerEntry{EntryID: uuid.NewString()}, nil).Once()
	suite.mockExternalRepo.On("FindExternalAccountByID", ctx, suite.workplaceID, mock.AnythingOfType("string")).
		Return(&domain.ExternalAccount{CurrentBalance: decimal.NewFromInt(-250)}, nil).Once()

	_, outcome, err := suite.service.OpenExternalAccount(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.LedgerPosted)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *BindingServiceTestSuite) TestOpenExternalAccount_ZeroBalanceSkipsEntry() {
	ctx := context.Background()
	mirror := domain.LedgerAccount{AccountID: uuid.NewString(), WorkplaceID: suite.workplaceID, IsActive: true}
	req := dto.OpenExternalAccountRequest{
		Name:         "Empty wallet",
		CurrencyCode: "USD",
	}

	suite.mockExternalRepo.On("SaveExternalAccount", ctx, mock.AnythingOfType("domain.ExternalAccount")).Return(nil).Once()
	suite.mockRegistrySvc.On("GetOrCreateExternalAccountMirror", ctx, suite.workplaceID, mock.AnythingOfType("*domain.ExternalAccount"), suite.userID).
		Return(&mirror, nil).Once()

	account, outcome, err := suite.service.OpenExternalAccount(ctx, suite.workplaceID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(outcome.RecordSaved)
	suite.True(outcome.LedgerPosted)
	suite.True(account.CurrentBalance.IsZero())
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BindingServiceTestSuite) TestGetExternalAccountByID_NotFound() {
	ctx := context.Background()
	externalID := uuid.NewString()

	suite.mockExternalRepo.On("FindExternalAccountByID", ctx, suite.workplaceID, externalID).
		Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.GetExternalAccountByID(ctx, suite.workplaceID, externalID)

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *BindingServiceTestSuite) TestListSources_ScopesToExternalAccount() {
	ctx := context.Background()
	externalID := uuid.NewString()
	docs := []domain.SourceDocument{{SourceID: uuid.NewString(), WorkplaceID: suite.workplaceID}}

	suite.mockSourceRepo.On("ListSourcesByExternalAccount", ctx, suite.workplaceID, externalID).Return(docs, nil).Once()

	got, err := suite.service.ListSources(ctx, suite.workplaceID, externalID)

	suite.Require().NoError(err)
	suite.Len(got, 1)
	suite.mockSourceRepo.AssertNotCalled(suite.T(), "ListPaidSources", mock.Anything, mock.Anything)
}

func TestBindingService(t *testing.T) {
	suite.Run(t, new(BindingServiceTestSuite))
}
