package dto

import (
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenExternalAccountRequest defines the data for registering a bank or cash
// account with its opening balance.
type OpenExternalAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	CurrencyCode   string          `json:"currencyCode" binding:"required,len=3"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	OpeningDate    *time.Time      `json:"openingDate,omitempty"`
}

// ExternalAccountResponse defines the data returned for an external account.
type ExternalAccountResponse struct {
	ExternalAccountID string          `json:"externalAccountID"`
	Name              string          `json:"name"`
	CurrencyCode      string          `json:"currencyCode"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	LedgerAccountID   *string         `json:"ledgerAccountID,omitempty"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastUpdatedAt     time.Time       `json:"lastUpdatedAt"`
}

// ListExternalAccountsResponse wraps a list of external accounts.
type ListExternalAccountsResponse struct {
	ExternalAccounts []ExternalAccountResponse `json:"externalAccounts"`
}

// ToExternalAccountResponse converts a domain.ExternalAccount.
func ToExternalAccountResponse(a *domain.ExternalAccount) ExternalAccountResponse {
	return ExternalAccountResponse{
		ExternalAccountID: a.ExternalAccountID,
		Name:              a.Name,
		CurrencyCode:      a.CurrencyCode,
		CurrentBalance:    a.CurrentBalance,
		LedgerAccountID:   a.LedgerAccountID,
		IsActive:          a.IsActive,
		CreatedAt:         a.CreatedAt,
		LastUpdatedAt:     a.LastUpdatedAt,
	}
}

// ToExternalAccountResponses converts a slice of domain external accounts.
func ToExternalAccountResponses(accounts []domain.ExternalAccount) []ExternalAccountResponse {
	responses := make([]ExternalAccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToExternalAccountResponse(&accounts[i]))
	}
	return responses
}
