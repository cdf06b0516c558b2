package dto

import (
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryLineRequest is one line of a manual entry request. Exactly one of
// Debit/Credit should be non-zero.
type CreateEntryLineRequest struct {
	AccountID         string          `json:"accountID" binding:"required"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	Metadata          string          `json:"metadata,omitempty"`
}

// CreateEntryRequest defines the data needed to post a manual ledger entry.
type CreateEntryRequest struct {
	Date         time.Time                `json:"date" binding:"required"`
	Description  string                   `json:"description" binding:"required"`
	CurrencyCode string                   `json:"currencyCode" binding:"required,len=3"`
	Lines        []CreateEntryLineRequest `json:"lines" binding:"required,min=1,dive"`
	SourceID     string                   `json:"sourceID,omitempty"`
	SourceType   domain.SourceType        `json:"sourceType,omitempty"`
}

// ReverseEntryRequest carries the reason recorded with a reversal.
type ReverseEntryRequest struct {
	Reason string `json:"reason,omitempty"`
}

// EntryLineResponse defines the data returned for one entry line.
type EntryLineResponse struct {
	LineID            string          `json:"lineID"`
	AccountID         string          `json:"accountID"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	Metadata          string          `json:"metadata,omitempty"`
	RunningBalance    decimal.Decimal `json:"runningBalance"`
	EntryID           string          `json:"entryID,omitempty"`
	EntryDate         *time.Time      `json:"entryDate,omitempty"`
	EntryDescription  string          `json:"entryDescription,omitempty"`
}

// EntryResponse defines the data returned for a ledger entry.
type EntryResponse struct {
	EntryID         string              `json:"entryID"`
	Date            time.Time           `json:"date"`
	Description     string              `json:"description"`
	CurrencyCode    string              `json:"currencyCode"`
	TotalDebit      decimal.Decimal     `json:"totalDebit"`
	TotalCredit     decimal.Decimal     `json:"totalCredit"`
	SourceID        string              `json:"sourceID,omitempty"`
	SourceType      string              `json:"sourceType"`
	IsReversal      bool                `json:"isReversal"`
	ReversesEntryID *string             `json:"reversesEntryID,omitempty"`
	Reversed        bool                `json:"reversed"`
	ReversalEntryID *string             `json:"reversalEntryID,omitempty"`
	Lines           []EntryLineResponse `json:"lines,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	CreatedBy       string              `json:"createdBy"`
}

// ListEntriesParams holds the query parameters for listing entries.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
	IncludeLines     bool    `form:"includeLines"`
}

// ListEntriesResponse is the paginated entry listing payload.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ListLinesParams holds the query parameters for listing account lines.
type ListLinesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListLinesResponse is the paginated line listing payload.
type ListLinesResponse struct {
	Lines     []EntryLineResponse `json:"lines"`
	NextToken *string             `json:"nextToken,omitempty"`
}

// ToEntryLineResponse converts a domain.EntryLine to EntryLineResponse.
func ToEntryLineResponse(l *domain.EntryLine) EntryLineResponse {
	resp := EntryLineResponse{
		LineID:            l.LineID,
		AccountID:         l.AccountID,
		Debit:             l.Debit,
		Credit:            l.Credit,
		ExternalAccountID: l.ExternalAccountID,
		Metadata:          l.Metadata,
		RunningBalance:    l.RunningBalance,
		EntryID:           l.EntryID,
		EntryDescription:  l.EntryDescription,
	}
	if !l.EntryDate.IsZero() {
		d := l.EntryDate
		resp.EntryDate = &d
	}
	return resp
}

// ToEntryLineResponses converts a slice of domain lines.
func ToEntryLineResponses(lines []domain.EntryLine) []EntryLineResponse {
	responses := make([]EntryLineResponse, len(lines))
	for i := range lines {
		responses[i] = ToEntryLineResponse(&lines[i])
	}
	return responses
}

// ToEntryResponse converts a domain.LedgerEntry to EntryResponse.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:         e.EntryID,
		Date:            e.EntryDate,
		Description:     e.Description,
		CurrencyCode:    e.CurrencyCode,
		TotalDebit:      e.TotalDebit,
		TotalCredit:     e.TotalCredit,
		SourceID:        e.SourceID,
		SourceType:      string(e.SourceType),
		IsReversal:      e.IsReversal,
		ReversesEntryID: e.ReversesEntryID,
		Reversed:        e.Reversed,
		ReversalEntryID: e.ReversalEntryID,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
	if len(e.Lines) > 0 {
		resp.Lines = ToEntryLineResponses(e.Lines)
	}
	return resp
}
