package models

import "github.com/shopspring/decimal"

// ExternalAccount is the external_accounts row shape.
type ExternalAccount struct {
	ExternalAccountID string          `db:"external_account_id"`
	WorkplaceID       string          `db:"workplace_id"`
	Name              string          `db:"name"`
	CurrencyCode      string          `db:"currency_code"`
	CurrentBalance    decimal.Decimal `db:"current_balance"`
	LedgerAccountID   *string         `db:"ledger_account_id"` // Nullable until mirrored
	IsActive          bool            `db:"is_active"`
	AuditFields
}
