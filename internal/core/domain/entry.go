package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType identifies the kind of business event a ledger entry was posted for.
type SourceType string

const (
	SourceExpense        SourceType = "expense"
	SourceIncome         SourceType = "income"
	SourceAccountOpening SourceType = "account-opening"
	SourceReversal       SourceType = "reversal"
	SourceManual         SourceType = "manual"
)

// LedgerEntry is one balanced, dated, described transaction composed of one or
// more lines. Entries are immutable once posted; corrections go through the
// reversal engine, never in-place edits.
type LedgerEntry struct {
	EntryID         string          `json:"entryID"`     // Primary Key (UUID)
	WorkplaceID     string          `json:"workplaceID"` // Tenant scope (Not Null)
	EntryDate       time.Time       `json:"entryDate"`
	Description     string          `json:"description"`
	CurrencyCode    string          `json:"currencyCode"`
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	TotalCredit     decimal.Decimal `json:"totalCredit"`
	SourceID        string          `json:"sourceID,omitempty"`
	SourceType      SourceType      `json:"sourceType"`
	IsReversal      bool            `json:"isReversal"`
	ReversesEntryID *string         `json:"reversesEntryID,omitempty"` // Set on reversal entries only
	Reversed        bool            `json:"reversed"`
	ReversalEntryID *string         `json:"reversalEntryID,omitempty"` // Set once this entry has been reversed
	ReversedAt      *time.Time      `json:"reversedAt,omitempty"`
	Lines           []EntryLine     `json:"lines,omitempty"`
	AuditFields
}

// EntryLine is a single line within a ledger entry, affecting one account.
// Exactly one of Debit/Credit is expected to be non-zero; both fields are
// present for symmetry. When ExternalAccountID is set the line also adjusts
// that financial account's current balance.
type EntryLine struct {
	LineID            string          `json:"lineID"`  // Primary Key (UUID)
	EntryID           string          `json:"entryID"` // FK -> LedgerEntry (Not Null)
	AccountID         string          `json:"accountID"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	CurrencyCode      string          `json:"currencyCode"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	Metadata          string          `json:"metadata,omitempty"` // Free-form annotation (vendor, category)
	RunningBalance    decimal.Decimal `json:"runningBalance"`     // Account balance after this line, set at persistence time

	// Populated from the parent entry on joined reads.
	EntryDate        time.Time  `json:"entryDate,omitempty"`
	EntryDescription string     `json:"entryDescription,omitempty"`
	EntrySourceType  SourceType `json:"entrySourceType,omitempty"`
	AuditFields
}

// Delta returns the signed balance effect of the line for an account with the
// given normal balance: debit-normal accounts grow by debit − credit,
// credit-normal accounts by credit − debit.
func (l EntryLine) Delta(nb NormalBalance) decimal.Decimal {
	if nb == DebitNormal {
		return l.Debit.Sub(l.Credit)
	}
	return l.Credit.Sub(l.Debit)
}

// ExternalDelta is the effect of the line on a linked financial account's
// current balance, independent of any normal-balance convention.
func (l EntryLine) ExternalDelta() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// BalanceChange accumulates the per-account effect of one entry: the signed
// balance delta plus the raw debit and credit totals.
type BalanceChange struct {
	Balance decimal.Decimal
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Add folds another change into c.
func (c BalanceChange) Add(o BalanceChange) BalanceChange {
	return BalanceChange{
		Balance: c.Balance.Add(o.Balance),
		Debit:   c.Debit.Add(o.Debit),
		Credit:  c.Credit.Add(o.Credit),
	}
}
