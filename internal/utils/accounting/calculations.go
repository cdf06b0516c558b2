package accounting

import (
	"fmt"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the absolute rounding slack allowed between an entry's
// debit and credit totals. Amounts are rounded to two decimal places before
// summation, so totals can drift by at most one cent per side.
var BalanceTolerance = decimal.RequireFromString("0.02")

// RoundAmount normalizes a monetary amount to two decimal places.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// EntryTotals sums the rounded debit and credit sides of a line set.
func EntryTotals(lines []domain.EntryLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(RoundAmount(line.Debit))
		totalCredit = totalCredit.Add(RoundAmount(line.Credit))
	}
	return totalDebit, totalCredit
}

// ValidateEntryBalance checks the double-entry invariant for a line set:
// at least one line, no negative amounts, and debit and credit totals that
// agree within BalanceTolerance.
func ValidateEntryBalance(lines []domain.EntryLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("entry must have at least one line")
	}

	for _, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line amounts must not be negative for account %s", line.AccountID)
		}
	}

	totalDebit, totalCredit := EntryTotals(lines)
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(BalanceTolerance) {
		return fmt.Errorf("entry does not balance: debits %s, credits %s", totalDebit.String(), totalCredit.String())
	}
	return nil
}

// ComputeBalanceChanges folds a line set into per-account balance changes,
// signed according to each account's normal balance. Every referenced account
// must be present in accounts.
func ComputeBalanceChanges(lines []domain.EntryLine, accounts map[string]domain.LedgerAccount) (map[string]domain.BalanceChange, error) {
	changes := make(map[string]domain.BalanceChange, len(accounts))
	for _, line := range lines {
		acc, ok := accounts[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account %s not resolved for balance calculation", line.AccountID)
		}
		change := domain.BalanceChange{
			Balance: line.Delta(acc.NormalBalance),
			Debit:   RoundAmount(line.Debit),
			Credit:  RoundAmount(line.Credit),
		}
		changes[line.AccountID] = changes[line.AccountID].Add(change)
	}
	return changes, nil
}

// ComputeExternalDeltas nets the (debit − credit) effect of a line set per
// linked external financial account. Lines without an external link are
// skipped.
func ComputeExternalDeltas(lines []domain.EntryLine) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	for _, line := range lines {
		if line.ExternalAccountID == nil {
			continue
		}
		id := *line.ExternalAccountID
		deltas[id] = deltas[id].Add(line.ExternalDelta())
	}
	return deltas
}
