package services_test

import (
	"context"
	"testing"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/core/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
)

type CurrencyServiceTestSuite struct {
	suite.Suite
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.CurrencySvcFacade
	userID           string
}

func (suite *CurrencyServiceTestSuite) SetupTest() {
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.service = services.NewCurrencyService(suite.mockCurrencyRepo)
	suite.userID = uuid.NewString()
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_UppercasesCode() {
	ctx := context.Background()
	req := dto.CreateCurrencyRequest{
		CurrencyCode: "usd",
		Symbol:       "$",
		Name:         "US Dollar",
		Precision:    2,
	}

	suite.mockCurrencyRepo.On("SaveCurrency", ctx, mock.MatchedBy(func(c domain.Currency) bool {
		return c.CurrencyCode == "USD" && c.Symbol == "$" && c.Precision == 2
	})).Return(nil).Once()

	currency, err := suite.service.CreateCurrency(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("USD", currency.CurrencyCode)
	suite.Equal(suite.userID, currency.CreatedBy)
	suite.mockCurrencyRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_Duplicate() {
	ctx := context.Background()
	req := dto.CreateCurrencyRequest{
		CurrencyCode: "USD",
		Symbol:       "$",
		Name:         "US Dollar",
		Precision:    2,
	}

	suite.mockCurrencyRepo.On("SaveCurrency", ctx, mock.AnythingOfType("domain.Currency")).
		Return(apperrors.ErrDuplicate).Once()

	currency, err := suite.service.CreateCurrency(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(currency)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *CurrencyServiceTestSuite) TestGetCurrencyByCode_Uppercases() {
	ctx := context.Background()
	usd := &domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(usd, nil).Once()

	currency, err := suite.service.GetCurrencyByCode(ctx, "usd")

	suite.Require().NoError(err)
	suite.Equal("USD", currency.CurrencyCode)
	suite.mockCurrencyRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestListCurrencies_EmptyIsNotNil() {
	ctx := context.Background()

	suite.mockCurrencyRepo.On("ListCurrencies", ctx).Return([]domain.Currency{}, nil).Once()

	currencies, err := suite.service.ListCurrencies(ctx)

	suite.Require().NoError(err)
	suite.NotNil(currencies)
	suite.Empty(currencies)
}

func TestCurrencyService(t *testing.T) {
	suite.Run(t, new(CurrencyServiceTestSuite))
}
