package domain_test

import (
	"testing"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccountType_NormalBalance(t *testing.T) {
	tests := []struct {
		accountType domain.AccountType
		want        domain.NormalBalance
	}{
		{domain.Asset, domain.DebitNormal},
		{domain.Expense, domain.DebitNormal},
		{domain.CostOfGoods, domain.DebitNormal},
		{domain.Liability, domain.CreditNormal},
		{domain.Equity, domain.CreditNormal},
		{domain.Revenue, domain.CreditNormal},
	}
	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.accountType.NormalBalance())
		})
	}
}

func TestEntryLine_Delta(t *testing.T) {
	tests := []struct {
		name string
		line domain.EntryLine
		nb   domain.NormalBalance
		want string
	}{
		{
			name: "debit to debit-normal account increases balance",
			line: domain.EntryLine{Debit: dec("50.00"), Credit: decimal.Zero},
			nb:   domain.DebitNormal,
			want: "50",
		},
		{
			name: "credit to debit-normal account decreases balance",
			line: domain.EntryLine{Debit: decimal.Zero, Credit: dec("50.00")},
			nb:   domain.DebitNormal,
			want: "-50",
		},
		{
			name: "credit to credit-normal account increases balance",
			line: domain.EntryLine{Debit: decimal.Zero, Credit: dec("30.00")},
			nb:   domain.CreditNormal,
			want: "30",
		},
		{
			name: "debit to credit-normal account decreases balance",
			line: domain.EntryLine{Debit: dec("30.00"), Credit: decimal.Zero},
			nb:   domain.CreditNormal,
			want: "-30",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(tt.line.Delta(tt.nb)),
				"got %s", tt.line.Delta(tt.nb))
		})
	}
}

func TestEntryLine_ExternalDelta(t *testing.T) {
	debit := domain.EntryLine{Debit: dec("20.00"), Credit: decimal.Zero}
	credit := domain.EntryLine{Debit: decimal.Zero, Credit: dec("20.00")}

	assert.True(t, dec("20").Equal(debit.ExternalDelta()))
	assert.True(t, dec("-20").Equal(credit.ExternalDelta()))
}

func TestSourcePatch_TouchesLedger(t *testing.T) {
	acctA := "acct-a"
	acctB := "acct-b"
	doc := domain.SourceDocument{
		Amount:            dec("50.00"),
		CurrencyCode:      "USD",
		Category:          "travel",
		Paid:              true,
		ExternalAccountID: &acctA,
	}

	amount := dec("80.00")
	sameAmount := dec("50.00")
	descr := "new words"
	var cleared *string

	tests := []struct {
		name  string
		patch domain.SourcePatch
		want  bool
	}{
		{"amount change", domain.SourcePatch{Amount: &amount}, true},
		{"same amount", domain.SourcePatch{Amount: &sameAmount}, false},
		{"description only", domain.SourcePatch{Description: &descr}, false},
		{"account swap", domain.SourcePatch{ExternalAccountID: ptrTo(&acctB)}, true},
		{"account cleared", domain.SourcePatch{ExternalAccountID: &cleared}, true},
		{"account unchanged", domain.SourcePatch{ExternalAccountID: ptrTo(&acctA)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.patch.TouchesLedger(doc))
		})
	}
}

func TestSourcePatch_Apply(t *testing.T) {
	doc := domain.SourceDocument{Amount: dec("10.00"), Category: "software", Paid: false}
	amount := dec("25.00")
	paid := true

	merged := domain.SourcePatch{Amount: &amount, Paid: &paid}.Apply(doc)

	assert.True(t, amount.Equal(merged.Amount))
	assert.True(t, merged.Paid)
	assert.Equal(t, "software", merged.Category)
	// original untouched
	assert.False(t, doc.Paid)
}

func ptrTo[T any](v T) *T {
	return &v
}
