package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferType indicates whether a transfer moves money into or out of the fund.
type TransferType string

const (
	Credit TransferType = "CREDIT"
	Debit  TransferType = "DEBIT"
)

// RequestStatus is the lifecycle state of a transfer request.
// Values are wire-stable.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRecurring RequestStatus = "recurring"
	StatusDeleted   RequestStatus = "deleted"
	StatusDeclined  RequestStatus = "declined"
	StatusVoided    RequestStatus = "voided"
)

// ValidRequestStatus reports whether s is a member of the closed status set.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRecurring, StatusDeleted, StatusDeclined, StatusVoided:
		return true
	}
	return false
}

// TransferRequest is a client-initiated transfer intent awaiting posting.
// The transfer type is never stored: it is derived from the amount sign so the
// two can never desynchronize.
type TransferRequest struct {
	RequestID      int64           `json:"requestID"`
	AccountID      int64           `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"` // signed: positive=credit, negative=debit
	Status         RequestStatus   `json:"status"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	BankAccountRef string          `json:"bankAccountRef"`
	EffectiveMonth int             `json:"effectiveMonth"` // set when posted or made recurring
	EffectiveYear  int             `json:"effectiveYear"`
	AuditFields
}

// Type derives the transfer type from the amount sign.
func (r TransferRequest) Type() TransferType {
	if r.Amount.IsNegative() {
		return Debit
	}
	return Credit
}

// BankEnding returns the trailing digits of the bank reference for display,
// or an empty string when no reference is set.
func (r TransferRequest) BankEnding() string {
	const n = 4
	if len(r.BankAccountRef) <= n {
		return r.BankAccountRef
	}
	return r.BankAccountRef[len(r.BankAccountRef)-n:]
}

// RequestBundle groups a request with its paperwork and posted ledger lines.
// Controller operations return the full bundle so callers never have to
// re-assemble related aggregates.
type RequestBundle struct {
	Request    TransferRequest `json:"request"`
	Document   *Document       `json:"document,omitempty"`
	Operations []Operation     `json:"operations,omitempty"`
}
