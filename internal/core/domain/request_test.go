package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransferRequest_TypeDerivedFromAmountSign(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   TransferType
	}{
		{"positive amount is a credit", "250.00", Credit},
		{"negative amount is a debit", "-250.00", Debit},
		{"zero amount is treated as credit", "0", Credit},
		{"small negative fraction is a debit", "-0.01", Debit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TransferRequest{Amount: decimal.RequireFromString(tt.amount)}
			assert.Equal(t, tt.want, r.Type())
		})
	}
}

func TestTransferRequest_BankEnding(t *testing.T) {
	assert.Equal(t, "6789", TransferRequest{BankAccountRef: "123456789"}.BankEnding())
	assert.Equal(t, "123", TransferRequest{BankAccountRef: "123"}.BankEnding())
	assert.Equal(t, "", TransferRequest{}.BankEnding())
}

func TestOperation_TypeDerivedFromAmountSign(t *testing.T) {
	assert.Equal(t, Debit, Operation{Amount: decimal.RequireFromString("-10")}.Type())
	assert.Equal(t, Credit, Operation{Amount: decimal.RequireFromString("10")}.Type())
}

func TestStatement_PeriodOrdering(t *testing.T) {
	jan := Statement{Month: 1, Year: 2020}
	dec := Statement{Month: 12, Year: 2019}
	assert.Greater(t, jan.Period(), dec.Period())
	assert.Equal(t, jan.Period(), dec.Period()+1)
}
