package models

import (
	"github.com/shopspring/decimal"
)

// AccountType mirrors domain.AccountType at the storage layer.
type AccountType string

// NormalBalance mirrors domain.NormalBalance at the storage layer.
type NormalBalance string

// LedgerAccount is the ledger_accounts row shape.
type LedgerAccount struct {
	AccountID         string          `db:"account_id"`
	WorkplaceID       string          `db:"workplace_id"`
	Code              string          `db:"code"`
	Name              string          `db:"name"`
	AccountType       AccountType     `db:"account_type"`
	NormalBalance     NormalBalance   `db:"normal_balance"`
	CurrencyCode      string          `db:"currency_code"`
	Balance           decimal.Decimal `db:"balance"`
	DebitTotal        decimal.Decimal `db:"debit_total"`
	CreditTotal       decimal.Decimal `db:"credit_total"`
	IsSystem          bool            `db:"is_system"`
	IsActive          bool            `db:"is_active"`
	ExternalAccountID *string         `db:"external_account_id"` // Nullable
	Category          string          `db:"category"`            // Empty unless auto-provisioned
	AuditFields
}
