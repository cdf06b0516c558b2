package dto

import (
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecalculateRequest controls a balance recalculation run.
type RecalculateRequest struct {
	DryRun bool `json:"dryRun"`
}

// RepairRequest controls a batch repair run.
type RepairRequest struct {
	DryRun    bool `json:"dryRun"`
	BatchSize int  `json:"batchSize"`
}

// RepairLinksRequest controls a missing-link repair run. The default external
// account is assigned to every paid source document found without one.
type RepairLinksRequest struct {
	DefaultExternalAccountID string `json:"defaultExternalAccountID" binding:"required"`
	DryRun                   bool   `json:"dryRun"`
	BatchSize                int    `json:"batchSize"`
}

// AccountRecalcResponse reports the recalculation result for one account.
type AccountRecalcResponse struct {
	ExternalAccountID string          `json:"externalAccountID"`
	Name              string          `json:"name"`
	Before            decimal.Decimal `json:"before"`
	After             decimal.Decimal `json:"after"`
	EntryCount        int             `json:"entryCount"`
	DebitTotal        decimal.Decimal `json:"debitTotal"`
	CreditTotal       decimal.Decimal `json:"creditTotal"`
	Updated           bool            `json:"updated"`
}

// RecalcReportResponse summarizes a recalculation run.
type RecalcReportResponse struct {
	DryRun       bool                    `json:"dryRun"`
	Accounts     []AccountRecalcResponse `json:"accounts"`
	UpdatedCount int                     `json:"updatedCount"`
	RanAt        time.Time               `json:"ranAt"`
}

// AccountDiscrepancyResponse reports stored-vs-expected drift for one account.
type AccountDiscrepancyResponse struct {
	ExternalAccountID string          `json:"externalAccountID"`
	Name              string          `json:"name"`
	Expected          decimal.Decimal `json:"expected"`
	Stored            decimal.Decimal `json:"stored"`
	Discrepancy       decimal.Decimal `json:"discrepancy"`
	SourceCount       int             `json:"sourceCount"`
}

// DiscrepancyReportResponse summarizes a read-only consistency scan.
type DiscrepancyReportResponse struct {
	Accounts               []AccountDiscrepancyResponse `json:"accounts"`
	AccountsWithDrift      int                          `json:"accountsWithDrift"`
	PaidSourcesMissingLink int                          `json:"paidSourcesMissingLink"`
	GeneratedAt            time.Time                    `json:"generatedAt"`
}

// DiagnosisSourceResponse is one source document in an account diagnosis.
type DiagnosisSourceResponse struct {
	SourceID      string          `json:"sourceID"`
	Kind          string          `json:"kind"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	SignedAmount  decimal.Decimal `json:"signedAmount"`
	Date          time.Time       `json:"date"`
	LedgerEntryID *string         `json:"ledgerEntryID,omitempty"`
}

// DiagnosisLineResponse is one ledger line in an account diagnosis.
type DiagnosisLineResponse struct {
	EntryID     string          `json:"entryID"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Delta       decimal.Decimal `json:"delta"`
}

// AccountDiagnosisResponse details the three-way comparison for one account.
type AccountDiagnosisResponse struct {
	ExternalAccountID string                    `json:"externalAccountID"`
	Name              string                    `json:"name"`
	StoredBalance     decimal.Decimal           `json:"storedBalance"`
	SourceTotal       decimal.Decimal           `json:"sourceTotal"`
	LedgerTotal       decimal.Decimal           `json:"ledgerTotal"`
	SourceVsLedger    decimal.Decimal           `json:"sourceVsLedger"`
	LedgerVsStored    decimal.Decimal           `json:"ledgerVsStored"`
	SourceVsStored    decimal.Decimal           `json:"sourceVsStored"`
	Sources           []DiagnosisSourceResponse `json:"sources"`
	Lines             []DiagnosisLineResponse   `json:"lines"`
}

// ItemErrorResponse reports a per-item failure inside a batch run.
type ItemErrorResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchReportResponse summarizes a batch repair run.
type BatchReportResponse struct {
	DryRun    bool                `json:"dryRun"`
	Processed int                 `json:"processed"`
	Total     int                 `json:"total"`
	Updated   int                 `json:"updated"`
	Errors    []ItemErrorResponse `json:"errors"`
}

// ToRecalcReportResponse converts a domain.RecalcReport.
func ToRecalcReportResponse(r *domain.RecalcReport) RecalcReportResponse {
	accounts := make([]AccountRecalcResponse, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		accounts = append(accounts, AccountRecalcResponse{
			ExternalAccountID: a.ExternalAccountID,
			Name:              a.Name,
			Before:            a.Before,
			After:             a.After,
			EntryCount:        a.EntryCount,
			DebitTotal:        a.DebitTotal,
			CreditTotal:       a.CreditTotal,
			Updated:           a.Updated,
		})
	}
	return RecalcReportResponse{
		DryRun:       r.DryRun,
		Accounts:     accounts,
		UpdatedCount: r.UpdatedCount,
		RanAt:        r.RanAt,
	}
}

// ToDiscrepancyReportResponse converts a domain.DiscrepancyReport.
func ToDiscrepancyReportResponse(r *domain.DiscrepancyReport) DiscrepancyReportResponse {
	accounts := make([]AccountDiscrepancyResponse, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		accounts = append(accounts, AccountDiscrepancyResponse{
			ExternalAccountID: a.ExternalAccountID,
			Name:              a.Name,
			Expected:          a.Expected,
			Stored:            a.Stored,
			Discrepancy:       a.Discrepancy,
			SourceCount:       a.SourceCount,
		})
	}
	return DiscrepancyReportResponse{
		Accounts:               accounts,
		AccountsWithDrift:      r.AccountsWithDrift,
		PaidSourcesMissingLink: r.PaidSourcesMissingLink,
		GeneratedAt:            r.GeneratedAt,
	}
}

// ToAccountDiagnosisResponse converts a domain.AccountDiagnosis.
func ToAccountDiagnosisResponse(d *domain.AccountDiagnosis) AccountDiagnosisResponse {
	sources := make([]DiagnosisSourceResponse, 0, len(d.Sources))
	for _, s := range d.Sources {
		sources = append(sources, DiagnosisSourceResponse{
			SourceID:      s.SourceID,
			Kind:          string(s.Kind),
			Description:   s.Description,
			Amount:        s.Amount,
			SignedAmount:  s.SignedAmount,
			Date:          s.DocumentDate,
			LedgerEntryID: s.LedgerEntryID,
		})
	}
	lines := make([]DiagnosisLineResponse, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, DiagnosisLineResponse{
			EntryID:     l.EntryID,
			EntryDate:   l.EntryDate,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Delta:       l.Delta,
		})
	}
	return AccountDiagnosisResponse{
		ExternalAccountID: d.ExternalAccountID,
		Name:              d.Name,
		StoredBalance:     d.StoredBalance,
		SourceTotal:       d.SourceTotal,
		LedgerTotal:       d.LedgerTotal,
		SourceVsLedger:    d.SourceVsLedger,
		LedgerVsStored:    d.LedgerVsStored,
		SourceVsStored:    d.SourceVsStored,
		Sources:           sources,
		Lines:             lines,
	}
}

// ToBatchReportResponse converts a domain.BatchReport.
func ToBatchReportResponse(r *domain.BatchReport) BatchReportResponse {
	errs := make([]ItemErrorResponse, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, ItemErrorResponse{ID: e.ID, Error: e.Err})
	}
	return BatchReportResponse{
		DryRun:    r.DryRun,
		Processed: r.Processed,
		Total:     r.Total,
		Updated:   r.Updated,
		Errors:    errs,
	}
}
