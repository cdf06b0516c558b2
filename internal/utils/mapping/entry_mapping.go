package mapping

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry header to its row shape.
// Lines are persisted separately.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:         d.EntryID,
		WorkplaceID:     d.WorkplaceID,
		EntryDate:       d.EntryDate,
		Description:     d.Description,
		CurrencyCode:    d.CurrencyCode,
		TotalDebit:      d.TotalDebit,
		TotalCredit:     d.TotalCredit,
		SourceID:        d.SourceID,
		SourceType:      string(d.SourceType),
		IsReversal:      d.IsReversal,
		ReversesEntryID: d.ReversesEntryID,
		Reversed:        d.Reversed,
		ReversalEntryID: d.ReversalEntryID,
		ReversedAt:      d.ReversedAt,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a row to the domain representation.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:         m.EntryID,
		WorkplaceID:     m.WorkplaceID,
		EntryDate:       m.EntryDate,
		Description:     m.Description,
		CurrencyCode:    m.CurrencyCode,
		TotalDebit:      m.TotalDebit,
		TotalCredit:     m.TotalCredit,
		SourceID:        m.SourceID,
		SourceType:      domain.SourceType(m.SourceType),
		IsReversal:      m.IsReversal,
		ReversesEntryID: m.ReversesEntryID,
		Reversed:        m.Reversed,
		ReversalEntryID: m.ReversalEntryID,
		ReversedAt:      m.ReversedAt,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelEntryLine converts a domain EntryLine to its row shape.
func ToModelEntryLine(d domain.EntryLine) models.EntryLine {
	return models.EntryLine{
		LineID:            d.LineID,
		EntryID:           d.EntryID,
		AccountID:         d.AccountID,
		Debit:             d.Debit,
		Credit:            d.Credit,
		CurrencyCode:      d.CurrencyCode,
		ExternalAccountID: d.ExternalAccountID,
		Metadata:          d.Metadata,
		RunningBalance:    d.RunningBalance,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntryLine converts a row to the domain representation.
func ToDomainEntryLine(m models.EntryLine) domain.EntryLine {
	return domain.EntryLine{
		LineID:            m.LineID,
		EntryID:           m.EntryID,
		AccountID:         m.AccountID,
		Debit:             m.Debit,
		Credit:            m.Credit,
		CurrencyCode:      m.CurrencyCode,
		ExternalAccountID: m.ExternalAccountID,
		Metadata:          m.Metadata,
		RunningBalance:    m.RunningBalance,
		EntryDate:         m.EntryDate,
		EntryDescription:  m.EntryDescription,
		EntrySourceType:   domain.SourceType(m.EntrySourceType),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainEntryLineSlice converts a slice of rows.
func ToDomainEntryLineSlice(ms []models.EntryLine) []domain.EntryLine {
	ds := make([]domain.EntryLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEntryLine(m)
	}
	return ds
}
