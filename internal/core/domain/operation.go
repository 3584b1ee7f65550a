package domain

import "github.com/shopspring/decimal"

// Operation is a posted ledger line for one effective month, tied back to the
// transfer request that produced it. Recurring requests accumulate one
// operation per posted period.
type Operation struct {
	OperationID      int64           `json:"operationID"`
	AccountID        int64           `json:"accountID"`
	RequestID        int64           `json:"requestID"`
	Amount           decimal.Decimal `json:"amount"` // signed, same convention as TransferRequest
	Month            int             `json:"month"`  // effective month, 1-12
	Year             int             `json:"year"`
	Day              int             `json:"day"`
	WireConfirmation string          `json:"wireConfirmation"`
	Deleted          bool            `json:"deleted"`
	AuditFields
}

// Type derives the transfer type from the amount sign.
func (o Operation) Type() TransferType {
	if o.Amount.IsNegative() {
		return Debit
	}
	return Credit
}
