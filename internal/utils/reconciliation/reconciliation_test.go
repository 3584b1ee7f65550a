package reconciliation

import (
	"testing"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testAccount() domain.Account {
	return domain.Account{
		AccountID:      1,
		OpeningBalance: dec("1000"),
		OpeningMonth:   1,
		OpeningYear:    2020,
	}
}

func TestStartBalance_OpeningMonthUsesOpeningBalance(t *testing.T) {
	got, err := StartBalance(testAccount(), nil, 1, 2020)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1000")))
}

func TestStartBalance_PriorStatementWins(t *testing.T) {
	statements := []domain.Statement{
		{AccountID: 1, Month: 1, Year: 2020, EndBalance: dec("1100")},
		{AccountID: 1, Month: 2, Year: 2020, EndBalance: dec("1200")},
	}
	got, err := StartBalance(testAccount(), statements, 3, 2020)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1200")), "latest prior statement end balance expected")
}

func TestStartBalance_UnavailableWhenNoAnchor(t *testing.T) {
	_, err := StartBalance(testAccount(), nil, 5, 2020)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStartBalance_IgnoresOtherAccounts(t *testing.T) {
	statements := []domain.Statement{
		{AccountID: 99, Month: 1, Year: 2020, EndBalance: dec("5000")},
	}
	_, err := StartBalance(testAccount(), statements, 2, 2020)
	assert.ErrorIs(t, err, ErrUnavailable)
}

// Account with openingBalance=1000 in Jan-2020, a pending -200 debit and
// nothing else: pending balance is 800 and the post is accepted.
func TestPendingBalance_DebitAccepted(t *testing.T) {
	req := domain.TransferRequest{RequestID: 10, AccountID: 1, Amount: dec("-200"), Status: domain.StatusPending}

	pending, err := PendingBalance(testAccount(), nil, nil, nil, req, 1, 2020)
	require.NoError(t, err)
	assert.True(t, pending.Equal(dec("800")))
	assert.NoError(t, ValidateDebit(req, pending))
}

// Same account, -1200 debit: pending balance is -200 and the post is rejected.
func TestPendingBalance_DebitRejectedWhenNegative(t *testing.T) {
	req := domain.TransferRequest{RequestID: 10, AccountID: 1, Amount: dec("-1200"), Status: domain.StatusPending}

	pending, err := PendingBalance(testAccount(), nil, nil, nil, req, 1, 2020)
	require.NoError(t, err)
	assert.True(t, pending.Equal(dec("-200")))

	err = ValidateDebit(req, pending)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "balance would go negative")
}

func TestPendingBalance_CreditNeverRejected(t *testing.T) {
	req := domain.TransferRequest{RequestID: 10, AccountID: 1, Amount: dec("500")}
	assert.NoError(t, ValidateDebit(req, dec("-100")))
}

func TestPendingBalance_SumsOtherRequestsAndOperations(t *testing.T) {
	req := domain.TransferRequest{RequestID: 10, AccountID: 1, Amount: dec("-100"), Status: domain.StatusPending}
	others := []domain.TransferRequest{
		{RequestID: 11, AccountID: 1, Amount: dec("-50"), Status: domain.StatusPending},
		{RequestID: 12, AccountID: 1, Amount: dec("300"), Status: domain.StatusRecurring},
		{RequestID: 13, AccountID: 1, Amount: dec("-999"), Status: domain.StatusDeclined}, // terminal, ignored
		{RequestID: 10, AccountID: 1, Amount: dec("-100"), Status: domain.StatusPending},  // self, ignored
	}
	ops := []domain.Operation{
		{OperationID: 1, AccountID: 1, RequestID: 20, Amount: dec("-25"), Month: 1, Year: 2020},
		{OperationID: 2, AccountID: 1, RequestID: 21, Amount: dec("-75"), Month: 2, Year: 2020}, // other month
		{OperationID: 3, AccountID: 1, RequestID: 22, Amount: dec("-40"), Month: 1, Year: 2020, Deleted: true},
		{OperationID: 4, AccountID: 1, RequestID: 10, Amount: dec("-100"), Month: 1, Year: 2020}, // own op excluded
	}

	// 1000 - 50 + 300 - 25 - 100 = 1125
	pending, err := PendingBalance(testAccount(), nil, ops, others, req, 1, 2020)
	require.NoError(t, err)
	assert.True(t, pending.Equal(dec("1125")), "got %s", pending)
}

func TestPendingBalance_IncludesGainLossOfTheMonth(t *testing.T) {
	statements := []domain.Statement{
		{AccountID: 1, Month: 1, Year: 2020, EndBalance: dec("1010"), GainLoss: dec("10")},
	}
	req := domain.TransferRequest{RequestID: 10, AccountID: 1, Amount: dec("0")}

	pending, err := PendingBalance(testAccount(), statements, nil, nil, req, 1, 2020)
	require.NoError(t, err)
	assert.True(t, pending.Equal(dec("1010")))
}

// endBalance=500 recorded, recomputed pending 498.99: error 1.01 exceeds the
// one-cent tolerance and the month is flagged as not reconciled.
func TestReconciliationError_ToleranceBand(t *testing.T) {
	stmt := domain.Statement{AccountID: 1, Month: 2, Year: 2020, EndBalance: dec("500")}

	diff := ReconciliationError(stmt, dec("498.99"))
	assert.True(t, diff.Equal(dec("1.01")))
	assert.False(t, IsReconciled(stmt, dec("498.99"), DefaultTolerance))

	// inside the band
	assert.True(t, IsReconciled(stmt, dec("499.995"), DefaultTolerance))
	// exactly at the band edge counts as not reconciled
	assert.False(t, IsReconciled(stmt, dec("499.99"), DefaultTolerance))
}

func TestSummarize(t *testing.T) {
	statements := []domain.Statement{
		{AccountID: 1, Month: 1, Year: 2020, EndBalance: dec("1000"), GainLoss: dec("0")},
	}
	sum, err := Summarize(testAccount(), statements, nil, nil, 1, 2020, DefaultTolerance)
	require.NoError(t, err)
	assert.True(t, sum.HasStatement)
	assert.True(t, sum.Reconciled)
	assert.True(t, sum.StartBalance.Equal(dec("1000")))
	assert.True(t, sum.PendingBalance.Equal(dec("1000")))

	_, err = Summarize(testAccount(), nil, nil, nil, 7, 2021, DefaultTolerance)
	assert.ErrorIs(t, err, ErrUnavailable)
}
