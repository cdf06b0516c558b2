package domain

// Currency represents a currency accepted by the ledger.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // ISO 4217 code, Primary Key
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int    `json:"precision"`
	AuditFields
}
