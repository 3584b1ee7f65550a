package dto

import (
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the payload for opening a client account.
// The opening balance and period become the immutable reconciliation anchor.
type CreateAccountRequest struct {
	AccountNumber  string          `json:"accountNumber" binding:"required"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	OpeningMonth   int             `json:"openingMonth" binding:"required,month"`
	OpeningYear    int             `json:"openingYear" binding:"required,min=1970"`
	ManagerID      string          `json:"managerID"`
	Email          string          `json:"email" binding:"omitempty,email"`
	DefaultBankRef string          `json:"defaultBankRef"`
}

// UpdateAccountRequest updates mutable account fields. The opening anchor is
// deliberately absent.
type UpdateAccountRequest struct {
	ManagerID      *string `json:"managerID"`
	Email          *string `json:"email" binding:"omitempty,email"`
	EmailStatus    *string `json:"emailStatus" binding:"omitempty,oneof=active closed pending"`
	DefaultBankRef *string `json:"defaultBankRef"`
	Closed         *bool   `json:"closed"`
}

// AccountResponse is the API shape of a client account.
type AccountResponse struct {
	AccountID      int64           `json:"accountID"`
	AccountNumber  string          `json:"accountNumber"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	OpeningMonth   int             `json:"openingMonth"`
	OpeningYear    int             `json:"openingYear"`
	ManagerID      string          `json:"managerID,omitempty"`
	Email          string          `json:"email,omitempty"`
	EmailStatus    string          `json:"emailStatus"`
	Closed         bool            `json:"closed"`
}

// ToAccountResponse converts a domain.Account to its API shape.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      a.AccountID,
		AccountNumber:  a.AccountNumber,
		OpeningBalance: a.OpeningBalance,
		OpeningMonth:   a.OpeningMonth,
		OpeningYear:    a.OpeningYear,
		ManagerID:      a.ManagerID,
		Email:          a.Email,
		EmailStatus:    string(a.EmailStatus),
		Closed:         a.Closed,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// BalanceResponse is the reconciliation view for one account and month.
// Available distinguishes "no derivable balance" from a zero balance.
type BalanceResponse struct {
	AccountID      int64            `json:"accountID"`
	Month          int              `json:"month"`
	Year           int              `json:"year"`
	Available      bool             `json:"available"`
	StartBalance   *decimal.Decimal `json:"startBalance,omitempty"`
	PendingBalance *decimal.Decimal `json:"pendingBalance,omitempty"`
	HasStatement   bool             `json:"hasStatement"`
	ReconError     *decimal.Decimal `json:"reconciliationError,omitempty"`
	Reconciled     bool             `json:"reconciled"`
}
