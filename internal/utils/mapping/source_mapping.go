package mapping

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/models"
)

// ToModelSourceDocument converts a domain SourceDocument to its row shape.
func ToModelSourceDocument(d domain.SourceDocument) models.SourceDocument {
	return models.SourceDocument{
		SourceID:          d.SourceID,
		WorkplaceID:       d.WorkplaceID,
		Kind:              string(d.Kind),
		Description:       d.Description,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		Category:          d.Category,
		Paid:              d.Paid,
		ExternalAccountID: d.ExternalAccountID,
		DocumentDate:      d.DocumentDate,
		LedgerEntryID:     d.LedgerEntryID,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSourceDocument converts a row to the domain representation.
func ToDomainSourceDocument(m models.SourceDocument) domain.SourceDocument {
	return domain.SourceDocument{
		SourceID:          m.SourceID,
		WorkplaceID:       m.WorkplaceID,
		Kind:              domain.SourceKind(m.Kind),
		Description:       m.Description,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		Category:          m.Category,
		Paid:              m.Paid,
		ExternalAccountID: m.ExternalAccountID,
		DocumentDate:      m.DocumentDate,
		LedgerEntryID:     m.LedgerEntryID,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
