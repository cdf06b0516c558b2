package dto

import (
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a ledger account.
// Code is optional; when omitted the registry allocates the next code in the
// type's numeric band.
type CreateAccountRequest struct {
	Name         string             `json:"name" binding:"required"`
	AccountType  domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE COST_OF_GOODS"`
	CurrencyCode string             `json:"currencyCode" binding:"required,len=3"`
	Code         string             `json:"code,omitempty"`
	Category     string             `json:"category,omitempty"`
}

// UpdateAccountRequest defines the updatable fields of a ledger account.
// Nil pointers mean "unchanged".
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ArchiveAccountRequest carries the reason recorded when archiving an account.
type ArchiveAccountRequest struct {
	Reason string `json:"reason,omitempty"`
}

// EnsureSystemAccountsRequest bootstraps the fixed system accounts of a
// workplace in the given currency.
type EnsureSystemAccountsRequest struct {
	CurrencyCode string `json:"currencyCode" binding:"required,len=3"`
}

// AccountResponse defines the data returned for a ledger account.
type AccountResponse struct {
	AccountID         string          `json:"accountID"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	AccountType       string          `json:"accountType"`
	NormalBalance     string          `json:"normalBalance"`
	CurrencyCode      string          `json:"currencyCode"`
	Balance           decimal.Decimal `json:"balance"`
	DebitTotal        decimal.Decimal `json:"debitTotal"`
	CreditTotal       decimal.Decimal `json:"creditTotal"`
	IsSystem          bool            `json:"isSystem"`
	IsActive          bool            `json:"isActive"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	Category          string          `json:"category,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastUpdatedAt     time.Time       `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.LedgerAccount to AccountResponse.
func ToAccountResponse(a *domain.LedgerAccount) AccountResponse {
	return AccountResponse{
		AccountID:         a.AccountID,
		Code:              a.Code,
		Name:              a.Name,
		AccountType:       string(a.AccountType),
		NormalBalance:     string(a.NormalBalance),
		CurrencyCode:      a.CurrencyCode,
		Balance:           a.Balance,
		DebitTotal:        a.DebitTotal,
		CreditTotal:       a.CreditTotal,
		IsSystem:          a.IsSystem,
		IsActive:          a.IsActive,
		ExternalAccountID: a.ExternalAccountID,
		Category:          a.Category,
		CreatedAt:         a.CreatedAt,
		LastUpdatedAt:     a.LastUpdatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.LedgerAccount) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
