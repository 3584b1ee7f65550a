package domain

import "github.com/shopspring/decimal"

// Statement is a monthly balance snapshot for an account. At most one exists
// per (account, month, year); the canonical display order is (year, month)
// descending. The previous statement is a logical back-link resolved by query,
// not a stored foreign key.
type Statement struct {
	StatementID int64           `json:"statementID"`
	AccountID   int64           `json:"accountID"`
	Month       int             `json:"month"` // 1-12
	Year        int             `json:"year"`
	EndBalance  decimal.Decimal `json:"endBalance"`
	GainLoss    decimal.Decimal `json:"gainLoss"`
	PerfFee     decimal.Decimal `json:"perfFee"`
	FmFee       decimal.Decimal `json:"fmFee"`
	Percentage  decimal.Decimal `json:"percentage"`
	AuditFields
}

// Period returns the statement's period ordinal for chronology comparisons.
func (s Statement) Period() int {
	return PeriodIndex(s.Year, s.Month)
}
