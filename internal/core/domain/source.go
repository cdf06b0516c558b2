package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind distinguishes the two normalized business-record kinds the
// binding layer posts entries for.
type SourceKind string

const (
	SourceKindExpense SourceKind = "expense"
	SourceKindIncome  SourceKind = "income"
)

// SourceDocument is the normalized projection of an expense or income record
// that the ledger consumes. The owning CRUD module persists the returned
// LedgerEntryID back here so updates and deletions can locate the entry to
// reverse.
type SourceDocument struct {
	SourceID          string          `json:"sourceID"` // Primary Key (UUID)
	WorkplaceID       string          `json:"workplaceID"`
	Kind              SourceKind      `json:"kind"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	CurrencyCode      string          `json:"currencyCode"`
	Category          string          `json:"category"`
	Paid              bool            `json:"paid"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	DocumentDate      time.Time       `json:"documentDate"`
	LedgerEntryID     *string         `json:"ledgerEntryID,omitempty"`
	AuditFields
}

// SourcePatch carries the fields of a source-document update. Nil means
// "unchanged". ExternalAccountID uses a double pointer so the patch can
// distinguish "unchanged" from "cleared".
type SourcePatch struct {
	Description       *string
	Amount            *decimal.Decimal
	CurrencyCode      *string
	Category          *string
	Paid              *bool
	ExternalAccountID **string
	DocumentDate      *time.Time
}

// Apply merges the patch into a copy of doc and returns it.
func (p SourcePatch) Apply(doc SourceDocument) SourceDocument {
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.Amount != nil {
		doc.Amount = *p.Amount
	}
	if p.CurrencyCode != nil {
		doc.CurrencyCode = *p.CurrencyCode
	}
	if p.Category != nil {
		doc.Category = *p.Category
	}
	if p.Paid != nil {
		doc.Paid = *p.Paid
	}
	if p.ExternalAccountID != nil {
		doc.ExternalAccountID = *p.ExternalAccountID
	}
	if p.DocumentDate != nil {
		doc.DocumentDate = *p.DocumentDate
	}
	return doc
}

// TouchesLedger reports whether the patch changes any ledger-relevant field
// relative to doc: amount, currency, external account, category, paid status
// or date. Edits to anything else are no-ops for the ledger.
func (p SourcePatch) TouchesLedger(doc SourceDocument) bool {
	if p.Amount != nil && !p.Amount.Equal(doc.Amount) {
		return true
	}
	if p.CurrencyCode != nil && *p.CurrencyCode != doc.CurrencyCode {
		return true
	}
	if p.Category != nil && *p.Category != doc.Category {
		return true
	}
	if p.Paid != nil && *p.Paid != doc.Paid {
		return true
	}
	if p.DocumentDate != nil && !p.DocumentDate.Equal(doc.DocumentDate) {
		return true
	}
	if p.ExternalAccountID != nil {
		prev, next := doc.ExternalAccountID, *p.ExternalAccountID
		switch {
		case prev == nil && next != nil, prev != nil && next == nil:
			return true
		case prev != nil && next != nil && *prev != *next:
			return true
		}
	}
	return false
}
