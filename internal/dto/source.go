package dto

import (
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSourceRequest defines the normalized business-event data for posting
// an expense or income record to the ledger.
type CreateSourceRequest struct {
	Kind              domain.SourceKind `json:"kind" binding:"required,oneof=expense income"`
	Description       string            `json:"description" binding:"required"`
	Amount            decimal.Decimal   `json:"amount" binding:"required"`
	CurrencyCode      string            `json:"currencyCode" binding:"required,len=3"`
	Category          string            `json:"category" binding:"required"`
	Paid              bool              `json:"paid"`
	ExternalAccountID *string           `json:"externalAccountID,omitempty"`
	Date              time.Time         `json:"date" binding:"required"`
}

// UpdateSourceRequest defines the updatable fields of a source document. Nil
// pointers mean "unchanged"; ExternalAccountID distinguishes "unchanged"
// (absent) from "cleared" (null) via ClearExternalAccount.
type UpdateSourceRequest struct {
	Description          *string          `json:"description,omitempty"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	CurrencyCode         *string          `json:"currencyCode,omitempty"`
	Category             *string          `json:"category,omitempty"`
	Paid                 *bool            `json:"paid,omitempty"`
	ExternalAccountID    *string          `json:"externalAccountID,omitempty"`
	ClearExternalAccount bool             `json:"clearExternalAccount,omitempty"`
	Date                 *time.Time       `json:"date,omitempty"`
}

// ToSourcePatch converts the request into a domain patch.
func (r UpdateSourceRequest) ToSourcePatch() domain.SourcePatch {
	patch := domain.SourcePatch{
		Description:  r.Description,
		Amount:       r.Amount,
		CurrencyCode: r.CurrencyCode,
		Category:     r.Category,
		Paid:         r.Paid,
		DocumentDate: r.Date,
	}
	if r.ClearExternalAccount {
		var cleared *string
		patch.ExternalAccountID = &cleared
	} else if r.ExternalAccountID != nil {
		patch.ExternalAccountID = &r.ExternalAccountID
	}
	return patch
}

// SourceResponse defines the data returned for a source document.
type SourceResponse struct {
	SourceID          string          `json:"sourceID"`
	Kind              string          `json:"kind"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	CurrencyCode      string          `json:"currencyCode"`
	Category          string          `json:"category"`
	Paid              bool            `json:"paid"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"`
	Date              time.Time       `json:"date"`
	LedgerEntryID     *string         `json:"ledgerEntryID,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastUpdatedAt     time.Time       `json:"lastUpdatedAt"`
}

// PostingOutcomeResponse mirrors domain.PostingOutcome for API consumers.
type PostingOutcomeResponse struct {
	RecordSaved  bool   `json:"recordSaved"`
	LedgerPosted bool   `json:"ledgerPosted"`
	LedgerError  string `json:"ledgerError,omitempty"`
}

// SourcePostingResponse combines the saved record with the posting outcome.
type SourcePostingResponse struct {
	Source  SourceResponse         `json:"source"`
	Outcome PostingOutcomeResponse `json:"outcome"`
}

// ToSourceResponse converts a domain.SourceDocument to SourceResponse.
func ToSourceResponse(s *domain.SourceDocument) SourceResponse {
	return SourceResponse{
		SourceID:          s.SourceID,
		Kind:              string(s.Kind),
		Description:       s.Description,
		Amount:            s.Amount,
		CurrencyCode:      s.CurrencyCode,
		Category:          s.Category,
		Paid:              s.Paid,
		ExternalAccountID: s.ExternalAccountID,
		Date:              s.DocumentDate,
		LedgerEntryID:     s.LedgerEntryID,
		CreatedAt:         s.CreatedAt,
		LastUpdatedAt:     s.LastUpdatedAt,
	}
}

// ToPostingOutcomeResponse converts a domain.PostingOutcome.
func ToPostingOutcomeResponse(o domain.PostingOutcome) PostingOutcomeResponse {
	resp := PostingOutcomeResponse{
		RecordSaved:  o.RecordSaved,
		LedgerPosted: o.LedgerPosted,
	}
	if o.LedgerError != nil {
		resp.LedgerError = o.LedgerError.Error()
	}
	return resp
}
