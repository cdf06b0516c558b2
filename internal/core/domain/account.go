package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of a ledger account.
type AccountType string

const (
	Asset       AccountType = "ASSET"
	Liability   AccountType = "LIABILITY"
	Equity      AccountType = "EQUITY"
	Revenue     AccountType = "REVENUE"
	Expense     AccountType = "EXPENSE"
	CostOfGoods AccountType = "COST_OF_GOODS"
)

// NormalBalance is the side on which an account type's balance naturally increases.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// NormalBalance derives the normal balance side for an account type.
// Asset, expense and cost-of-goods accounts grow with debits; liability,
// equity and revenue accounts grow with credits.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case Asset, Expense, CostOfGoods:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense, CostOfGoods:
		return true
	}
	return false
}

// LedgerAccount is one account in the chart of accounts. Balance, DebitTotal
// and CreditTotal are maintained eagerly by the entry engine; Balance always
// equals the signed net of all non-reversed entry lines touching the account,
// signed according to NormalBalance.
type LedgerAccount struct {
	AccountID         string          `json:"accountID"`   // Primary Key (UUID)
	WorkplaceID       string          `json:"workplaceID"` // Tenant scope (Not Null)
	Code              string          `json:"code"`        // Unique numeric code within the workplace, ranged by type
	Name              string          `json:"name"`
	AccountType       AccountType     `json:"accountType"`
	NormalBalance     NormalBalance   `json:"normalBalance"` // Derived from AccountType but stored explicitly
	CurrencyCode      string          `json:"currencyCode"`
	Balance           decimal.Decimal `json:"balance"`
	DebitTotal        decimal.Decimal `json:"debitTotal"`
	CreditTotal       decimal.Decimal `json:"creditTotal"`
	IsSystem          bool            `json:"isSystem"` // Seeded account, cannot be archived
	IsActive          bool            `json:"isActive"`
	ExternalAccountID *string         `json:"externalAccountID,omitempty"` // Back-reference to the mirrored financial account
	Category          string          `json:"category,omitempty"`          // Set on auto-provisioned category accounts
	AuditFields
}

// SystemAccountSpec describes one of the fixed accounts seeded into every
// workplace's chart of accounts.
type SystemAccountSpec struct {
	Key         string // stable lookup key, e.g. "cash", "accounts-payable"
	Code        string
	Name        string
	AccountType AccountType
}

// System account keys. The registry seeds one account per key per workplace.
const (
	SystemCash                 = "cash"
	SystemAccountsReceivable   = "accounts-receivable"
	SystemAccountsPayable      = "accounts-payable"
	SystemOpeningBalanceEquity = "opening-balance-equity"
	SystemDefaultRevenue       = "default-revenue"
	SystemDefaultExpense       = "default-operating-expense"
	SystemDefaultCostOfGoods   = "default-cost-of-goods"
)

// SystemAccounts is the fixed seed set. Codes sit below the auto-provisioning
// bands so generated accounts never collide with them.
var SystemAccounts = []SystemAccountSpec{
	{Key: SystemCash, Code: "1000", Name: "Cash", AccountType: Asset},
	{Key: SystemAccountsReceivable, Code: "1100", Name: "Accounts Receivable", AccountType: Asset},
	{Key: SystemAccountsPayable, Code: "2000", Name: "Accounts Payable", AccountType: Liability},
	{Key: SystemOpeningBalanceEquity, Code: "3000", Name: "Opening Balance Equity", AccountType: Equity},
	{Key: SystemDefaultRevenue, Code: "4000", Name: "Revenue", AccountType: Revenue},
	{Key: SystemDefaultExpense, Code: "5000", Name: "Operating Expenses", AccountType: Expense},
	{Key: SystemDefaultCostOfGoods, Code: "5600", Name: "Cost of Goods Sold", AccountType: CostOfGoods},
}

// CodeBandStart returns the first code of the auto-provisioning band for an
// account type. The expense band intentionally starts above the seeded
// defaults of that type.
func CodeBandStart(t AccountType) int {
	switch t {
	case Asset:
		return 1200
	case Liability:
		return 2100
	case Equity:
		return 3100
	case Revenue:
		return 4100
	case Expense:
		return 5100
	case CostOfGoods:
		return 5700
	default:
		return 9000
	}
}
