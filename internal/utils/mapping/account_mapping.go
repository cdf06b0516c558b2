package mapping

import (
	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/models"
)

// ToModelLedgerAccount converts a domain LedgerAccount to its row shape.
func ToModelLedgerAccount(d domain.LedgerAccount) models.LedgerAccount {
	return models.LedgerAccount{
		AccountID:         d.AccountID,
		WorkplaceID:       d.WorkplaceID,
		Code:              d.Code,
		Name:              d.Name,
		AccountType:       models.AccountType(d.AccountType),
		NormalBalance:     models.NormalBalance(d.NormalBalance),
		CurrencyCode:      d.CurrencyCode,
		Balance:           d.Balance,
		DebitTotal:        d.DebitTotal,
		CreditTotal:       d.CreditTotal,
		IsSystem:          d.IsSystem,
		IsActive:          d.IsActive,
		ExternalAccountID: d.ExternalAccountID,
		Category:          d.Category,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerAccount converts a row to the domain representation.
func ToDomainLedgerAccount(m models.LedgerAccount) domain.LedgerAccount {
	return domain.LedgerAccount{
		AccountID:         m.AccountID,
		WorkplaceID:       m.WorkplaceID,
		Code:              m.Code,
		Name:              m.Name,
		AccountType:       domain.AccountType(m.AccountType),
		NormalBalance:     domain.NormalBalance(m.NormalBalance),
		CurrencyCode:      m.CurrencyCode,
		Balance:           m.Balance,
		DebitTotal:        m.DebitTotal,
		CreditTotal:       m.CreditTotal,
		IsSystem:          m.IsSystem,
		IsActive:          m.IsActive,
		ExternalAccountID: m.ExternalAccountID,
		Category:          m.Category,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
