package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingOutcome is the two-part result of a binding-layer operation: the
// business record may be saved even when the ledger posting failed. Callers
// decide whether to retry or leave the gap for a later repair pass.
type PostingOutcome struct {
	RecordSaved  bool  `json:"recordSaved"`
	LedgerPosted bool  `json:"ledgerPosted"`
	LedgerError  error `json:"-"`
}

// ItemError records one failed item of a batch operation.
type ItemError struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// ProgressFunc is invoked by batch repair operations after each processed
// item. Errors contains all item failures collected so far.
type ProgressFunc func(processed, total, updated int, errs []ItemError)

// RepairOptions controls batch repair operations.
type RepairOptions struct {
	DryRun     bool
	BatchSize  int
	OnProgress ProgressFunc
}

// RecalcOptions controls a full balance recalculation run.
type RecalcOptions struct {
	DryRun bool
}

// AccountRecalc is the recalculation result for one external account.
type AccountRecalc struct {
	ExternalAccountID string          `json:"externalAccountID"`
	Name              string          `json:"name"`
	Before            decimal.Decimal `json:"before"`
	After             decimal.Decimal `json:"after"`
	EntryCount        int             `json:"entryCount"`
	DebitTotal        decimal.Decimal `json:"debitTotal"`
	CreditTotal       decimal.Decimal `json:"creditTotal"`
	Updated           bool            `json:"updated"`
}

// RecalcReport summarizes a RecalculateBalances run.
type RecalcReport struct {
	DryRun       bool            `json:"dryRun"`
	Accounts     []AccountRecalc `json:"accounts"`
	UpdatedCount int             `json:"updatedCount"`
	RanAt        time.Time       `json:"ranAt"`
}

// AccountDiscrepancy compares an external account's expected balance,
// re-aggregated from paid source documents, with its stored balance.
type AccountDiscrepancy struct {
	ExternalAccountID string          `json:"externalAccountID"`
	Name              string          `json:"name"`
	Expected          decimal.Decimal `json:"expected"`
	Stored            decimal.Decimal `json:"stored"`
	Discrepancy       decimal.Decimal `json:"discrepancy"`
	SourceCount       int             `json:"sourceCount"`
}

// DiscrepancyReport is the read-only output of AnalyzeDiscrepancies.
type DiscrepancyReport struct {
	Accounts               []AccountDiscrepancy `json:"accounts"`
	AccountsWithDrift      int                  `json:"accountsWithDrift"`
	PaidSourcesMissingLink int                  `json:"paidSourcesMissingLink"`
	GeneratedAt            time.Time            `json:"generatedAt"`
}

// DiagnosisSource is one contributing source document in a diagnosis trace.
type DiagnosisSource struct {
	SourceID      string          `json:"sourceID"`
	Kind          SourceKind      `json:"kind"`
	DocumentDate  time.Time       `json:"documentDate"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	SignedAmount  decimal.Decimal `json:"signedAmount"` // +income, −expense
	LedgerEntryID *string         `json:"ledgerEntryID,omitempty"`
}

// DiagnosisLine is one contributing ledger line in a diagnosis trace.
type DiagnosisLine struct {
	EntryID     string          `json:"entryID"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Delta       decimal.Decimal `json:"delta"`
}

// AccountDiagnosis is the full drift trace for one external account: every
// contributing source, every contributing ledger line, and the three pairwise
// discrepancies between the independently computed totals.
type AccountDiagnosis struct {
	ExternalAccountID string            `json:"externalAccountID"`
	Name              string            `json:"name"`
	StoredBalance     decimal.Decimal   `json:"storedBalance"`
	SourceTotal       decimal.Decimal   `json:"sourceTotal"`
	LedgerTotal       decimal.Decimal   `json:"ledgerTotal"`
	Sources           []DiagnosisSource `json:"sources"`
	Lines             []DiagnosisLine   `json:"lines"`
	SourceVsLedger    decimal.Decimal   `json:"sourceVsLedger"`
	LedgerVsStored    decimal.Decimal   `json:"ledgerVsStored"`
	SourceVsStored    decimal.Decimal   `json:"sourceVsStored"`
}

// BatchReport summarizes a batch repair run. Item failures never abort the
// run; they are collected in Errors.
type BatchReport struct {
	DryRun    bool        `json:"dryRun"`
	Processed int         `json:"processed"`
	Total     int         `json:"total"`
	Updated   int         `json:"updated"`
	Errors    []ItemError `json:"errors"`
}
