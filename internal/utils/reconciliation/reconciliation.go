// Package reconciliation computes running and pending balances for an account
// from its statements, posted operations and in-flight transfer requests.
// All arithmetic is exact decimal; binary floating point would produce false
// reconciliation mismatches inside the tolerance band.
package reconciliation

import (
	"errors"
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when a start balance cannot be derived: there is
// no prior statement and the requested month is not the account's opening
// month. Callers must display this distinctly from a zero balance.
var ErrUnavailable = errors.New("start balance unavailable")

// DefaultTolerance is the band within which a recomputed balance is considered
// reconciled with the recorded statement. One cent, empirically chosen.
var DefaultTolerance = decimal.RequireFromString("0.01")

// StartBalance returns the balance an account carries into the given month:
// the end balance of the latest statement strictly before it, or the opening
// balance when the month is the account's opening anchor.
func StartBalance(acct domain.Account, statements []domain.Statement, month, year int) (decimal.Decimal, error) {
	target := domain.PeriodIndex(year, month)

	var prior *domain.Statement
	for i := range statements {
		s := &statements[i]
		if s.AccountID != acct.AccountID || s.Period() >= target {
			continue
		}
		if prior == nil || s.Period() > prior.Period() {
			prior = s
		}
	}
	if prior != nil {
		return prior.EndBalance, nil
	}
	if acct.IsOpeningPeriod(month, year) {
		return acct.OpeningBalance, nil
	}
	return decimal.Zero, ErrUnavailable
}

// GainLoss returns the recorded gain/loss for the given month, or zero when no
// statement exists for it yet.
func GainLoss(statements []domain.Statement, accountID int64, month, year int) decimal.Decimal {
	for _, s := range statements {
		if s.AccountID == accountID && s.Month == month && s.Year == year {
			return s.GainLoss
		}
	}
	return decimal.Zero
}

// PendingBalance projects the account balance for the month after applying the
// request under evaluation: start balance, plus every other pending or
// recurring request, plus the month's posted (non-deleted) operations that do
// not already belong to the evaluated request, plus the month's gain/loss,
// plus the evaluated request's own amount.
func PendingBalance(
	acct domain.Account,
	statements []domain.Statement,
	operations []domain.Operation,
	otherRequests []domain.TransferRequest,
	req domain.TransferRequest,
	month, year int,
) (decimal.Decimal, error) {
	balance, err := StartBalance(acct, statements, month, year)
	if err != nil {
		return decimal.Zero, err
	}

	for _, other := range otherRequests {
		if other.RequestID == req.RequestID || other.AccountID != acct.AccountID {
			continue
		}
		if other.Status != domain.StatusPending && other.Status != domain.StatusRecurring {
			continue
		}
		balance = balance.Add(other.Amount)
	}

	for _, op := range operations {
		if op.Deleted || op.AccountID != acct.AccountID {
			continue
		}
		if op.Month != month || op.Year != year {
			continue
		}
		if op.RequestID == req.RequestID {
			continue
		}
		balance = balance.Add(op.Amount)
	}

	balance = balance.Add(GainLoss(statements, acct.AccountID, month, year))
	return balance.Add(req.Amount), nil
}

// ReconciliationError is the discrepancy between the recorded end balance and
// the recomputed pending balance. Only meaningful once a statement exists for
// the month.
func ReconciliationError(stmt domain.Statement, pendingBalance decimal.Decimal) decimal.Decimal {
	return stmt.EndBalance.Sub(pendingBalance)
}

// IsReconciled reports whether the discrepancy falls inside the tolerance band.
func IsReconciled(stmt domain.Statement, pendingBalance, tolerance decimal.Decimal) bool {
	return ReconciliationError(stmt, pendingBalance).Abs().LessThan(tolerance)
}

// ValidateDebit rejects a debit request that would drive the pending balance
// negative. This is a blocking condition: callers must surface it before any
// mutation, never silently accept it.
func ValidateDebit(req domain.TransferRequest, pendingBalance decimal.Decimal) error {
	if req.Type() != domain.Debit {
		return nil
	}
	if pendingBalance.IsNegative() {
		return fmt.Errorf("%w: balance would go negative (pending %s)", apperrors.ErrValidation, pendingBalance.StringFixed(2))
	}
	return nil
}

// Summary is the per-account, per-month reconciliation view surfaced to staff.
type Summary struct {
	AccountID      int64           `json:"accountID"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	StartBalance   decimal.Decimal `json:"startBalance"`
	PendingBalance decimal.Decimal `json:"pendingBalance"`
	HasStatement   bool            `json:"hasStatement"`
	ReconError     decimal.Decimal `json:"reconciliationError"`
	Reconciled     bool            `json:"reconciled"`
}

// Summarize computes the full reconciliation view for one account and month.
// The zero-valued request stands in for "no request under evaluation".
func Summarize(
	acct domain.Account,
	statements []domain.Statement,
	operations []domain.Operation,
	requests []domain.TransferRequest,
	month, year int,
	tolerance decimal.Decimal,
) (Summary, error) {
	start, err := StartBalance(acct, statements, month, year)
	if err != nil {
		return Summary{}, err
	}
	pending, err := PendingBalance(acct, statements, operations, requests, domain.TransferRequest{}, month, year)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		AccountID:      acct.AccountID,
		Month:          month,
		Year:           year,
		StartBalance:   start,
		PendingBalance: pending,
		Reconciled:     true,
	}
	for _, s := range statements {
		if s.AccountID == acct.AccountID && s.Month == month && s.Year == year {
			out.HasStatement = true
			out.ReconError = ReconciliationError(s, pending)
			out.Reconciled = IsReconciled(s, pending, tolerance)
			break
		}
	}
	return out, nil
}
