package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceDocument is the source_documents row shape.
type SourceDocument struct {
	SourceID          string          `db:"source_id"`
	WorkplaceID       string          `db:"workplace_id"`
	Kind              string          `db:"kind"`
	Description       string          `db:"description"`
	Amount            decimal.Decimal `db:"amount"`
	CurrencyCode      string          `db:"currency_code"`
	Category          string          `db:"category"`
	Paid              bool            `db:"paid"`
	ExternalAccountID *string         `db:"external_account_id"` // Nullable
	DocumentDate      time.Time       `db:"document_date"`
	LedgerEntryID     *string         `db:"ledger_entry_id"` // Nullable
	AuditFields
}
