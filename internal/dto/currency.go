package dto

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
)

// CreateCurrencyRequest defines the data for registering a currency.
type CreateCurrencyRequest struct {
	CurrencyCode string `json:"currencyCode" binding:"required,len=3"`
	Symbol       string `json:"symbol" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Precision    int    `json:"precision" binding:"gte=0,lte=8"`
}

// CurrencyResponse defines the data returned for a currency.
type CurrencyResponse struct {
	CurrencyCode string `json:"currencyCode"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int    `json:"precision"`
}

// ToCurrencyResponse converts a domain.Currency to CurrencyResponse.
func ToCurrencyResponse(c *domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		CurrencyCode: c.CurrencyCode,
		Symbol:       c.Symbol,
		Name:         c.Name,
		Precision:    c.Precision,
	}
}

// ToCurrencyResponses converts a slice of domain currencies.
func ToCurrencyResponses(currencies []domain.Currency) []CurrencyResponse {
	responses := make([]CurrencyResponse, 0, len(currencies))
	for i := range currencies {
		responses = append(responses, ToCurrencyResponse(&currencies[i]))
	}
	return responses
}
