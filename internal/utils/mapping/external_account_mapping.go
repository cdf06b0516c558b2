package mapping

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/models"
)

// ToModelExternalAccount converts a domain ExternalAccount to its row shape.
func ToModelExternalAccount(d domain.ExternalAccount) models.ExternalAccount {
	return models.ExternalAccount{
		ExternalAccountID: d.ExternalAccountID,
		WorkplaceID:       d.WorkplaceID,
		Name:              d.Name,
		CurrencyCode:      d.CurrencyCode,
		CurrentBalance:    d.CurrentBalance,
		LedgerAccountID:   d.LedgerAccountID,
		IsActive:          d.IsActive,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExternalAccount converts a row to the domain representation.
func ToDomainExternalAccount(m models.ExternalAccount) domain.ExternalAccount {
	return domain.ExternalAccount{
		ExternalAccountID: m.ExternalAccountID,
		WorkplaceID:       m.WorkplaceID,
		Name:              m.Name,
		CurrencyCode:      m.CurrencyCode,
		CurrentBalance:    m.CurrentBalance,
		LedgerAccountID:   m.LedgerAccountID,
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
