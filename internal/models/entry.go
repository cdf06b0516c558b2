package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the ledger_entries row shape. Rows are append-only; only the
// reversal flag columns are ever updated in place.
type LedgerEntry struct {
	EntryID         string          `db:"entry_id"`
	WorkplaceID     string          `db:"workplace_id"`
	EntryDate       time.Time       `db:"entry_date"`
	Description     string          `db:"description"`
	CurrencyCode    string          `db:"currency_code"`
	TotalDebit      decimal.Decimal `db:"total_debit"`
	TotalCredit     decimal.Decimal `db:"total_credit"`
	SourceID        string          `db:"source_id"`
	SourceType      string          `db:"source_type"`
	IsReversal      bool            `db:"is_reversal"`
	ReversesEntryID *string         `db:"reverses_entry_id"` // Nullable
	Reversed        bool            `db:"reversed"`
	ReversalEntryID *string         `db:"reversal_entry_id"` // Nullable
	ReversedAt      *time.Time      `db:"reversed_at"`       // Nullable
	AuditFields
}

// EntryLine is the ledger_entry_lines row shape.
type EntryLine struct {
	LineID            string          `db:"line_id"`
	EntryID           string          `db:"entry_id"`
	AccountID         string          `db:"account_id"`
	Debit             decimal.Decimal `db:"debit"`
	Credit            decimal.Decimal `db:"credit"`
	CurrencyCode      string          `db:"currency_code"`
	ExternalAccountID *string         `db:"external_account_id"` // Nullable
	Metadata          string          `db:"metadata"`
	RunningBalance    decimal.Decimal `db:"running_balance"`

	// Joined from ledger_entries on listing queries.
	EntryDate        time.Time `db:"entry_date"`
	EntryDescription string    `db:"entry_description"`
	EntrySourceType  string    `db:"entry_source_type"`
	AuditFields
}
