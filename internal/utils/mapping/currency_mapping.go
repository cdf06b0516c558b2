package mapping

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/models"
)

// ToDomainCurrency converts a row to the domain representation.
func ToDomainCurrency(m models.Currency) domain.Currency {
	return domain.Currency{
		CurrencyCode: m.CurrencyCode,
		Symbol:       m.Symbol,
		Name:         m.Name,
		Precision:    m.Precision,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelCurrency converts a domain Currency to its row shape.
func ToModelCurrency(d domain.Currency) models.Currency {
	return models.Currency{
		CurrencyCode: d.CurrencyCode,
		Symbol:       d.Symbol,
		Name:         d.Name,
		Precision:    d.Precision,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}
