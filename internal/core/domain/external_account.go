package domain

import "github.com/shopspring/decimal"

// ExternalAccount is a bank/cash/card account tracked by the financial-accounts
// module and mirrored into the chart of accounts the first time it participates
// in a ledger entry. Once LedgerAccountID is set, CurrentBalance is mutated
// only through the entry engine's transaction.
type ExternalAccount struct {
	ExternalAccountID string          `json:"externalAccountID"` // Primary Key (UUID)
	WorkplaceID       string          `json:"workplaceID"`
	Name              string          `json:"name"`
	CurrencyCode      string          `json:"currencyCode"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	LedgerAccountID   *string         `json:"ledgerAccountID,omitempty"` // 1:1 mirror inside the chart of accounts
	IsActive          bool            `json:"isActive"`
	AuditFields
}
