package domain

import (
	"github.com/shopspring/decimal"
)

// EmailStatus tracks whether an account's email address can receive mail.
type EmailStatus string

const (
	EmailActive  EmailStatus = "active"
	EmailClosed  EmailStatus = "closed"
	EmailPending EmailStatus = "pending"
)

// Account represents a client account within the fund.
// OpeningBalance, OpeningMonth and OpeningYear are immutable after creation:
// they anchor all balance reconciliation for months with no prior statement.
type Account struct {
	AccountID      int64           `json:"accountID"`
	AccountNumber  string          `json:"accountNumber"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	OpeningMonth   int             `json:"openingMonth"` // 1-12
	OpeningYear    int             `json:"openingYear"`
	ManagerID      string          `json:"managerID"` // fund manager reference
	Email          string          `json:"email"`
	EmailStatus    EmailStatus     `json:"emailStatus"`
	DefaultBankRef string          `json:"defaultBankRef"` // preferred bank record for transfers
	Closed         bool            `json:"closed"`
	AuditFields
}

// IsOpeningPeriod reports whether the given month/year is the account's opening anchor.
func (a Account) IsOpeningPeriod(month, year int) bool {
	return a.OpeningMonth == month && a.OpeningYear == year
}

// CanReceiveEmail reports whether the account should be included in email delivery.
// Closed accounts and accounts with a closed or pending address are skipped.
func (a Account) CanReceiveEmail() bool {
	return !a.Closed && a.Email != "" && a.EmailStatus == EmailActive
}
