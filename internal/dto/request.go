package dto

import (
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRequestRequest is the payload for submitting a new transfer request.
// Amount is signed: positive credits, negative debits.
type CreateRequestRequest struct {
	AccountID      int64           `json:"accountID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	BankAccountRef string          `json:"bankAccountRef"`
	SubmittedAt    *time.Time      `json:"submittedAt"` // defaults to now
}

// PostRequestParams carries the effective period and wire details for posting.
type PostRequestParams struct {
	Month            int    `json:"month" binding:"required,month"`
	Year             int    `json:"year" binding:"required,min=1970"`
	Day              int    `json:"day" binding:"omitempty,min=1,max=31"`
	BankAccountRef   string `json:"bankAccountRef"`
	WireConfirmation string `json:"wireConfirmation"`
	SendEmail        bool   `json:"sendEmail"`
}

// MakeRecurringParams sets the effective period for a recurring debit.
type MakeRecurringParams struct {
	Month int `json:"month" binding:"required,month"`
	Year  int `json:"year" binding:"required,min=1970"`
}

// CancelRequestParams controls notification on cancel.
type CancelRequestParams struct {
	SendEmail bool `json:"sendEmail"`
}

// RegisterDocumentParams controls notification on paperwork registration.
type RegisterDocumentParams struct {
	SendEmail bool `json:"sendEmail"`
}

// DeleteOperationsRequest lists the operations to soft-delete. Admin only.
type DeleteOperationsRequest struct {
	OperationIDs []int64 `json:"operationIDs" binding:"required,min=1"`
}

// ManualEditRequest is the admin escape hatch: direct overwrite of request
// and/or document fields, bypassing the automatic transition table. Only
// non-nil fields are diffed and persisted.
type ManualEditRequest struct {
	Status         *string          `json:"status"`
	Amount         *decimal.Decimal `json:"amount"`
	BankAccountRef *string          `json:"bankAccountRef"`
	DocumentStage  *string          `json:"documentStage"`
	DocumentStatus *string          `json:"documentStatus"`
	DocumentLink   *string          `json:"documentLink"`
}

// RequestResponse is the API shape of a transfer request.
type RequestResponse struct {
	RequestID      int64           `json:"requestID"`
	AccountID      int64           `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"` // derived: CREDIT or DEBIT
	Status         string          `json:"status"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	BankAccountRef string          `json:"bankAccountRef"`
	EffectiveMonth int             `json:"effectiveMonth,omitempty"`
	EffectiveYear  int             `json:"effectiveYear,omitempty"`
	CreatedBy      string          `json:"createdBy"`
}

// OperationResponse is the API shape of a posted ledger line.
type OperationResponse struct {
	OperationID      int64           `json:"operationID"`
	AccountID        int64           `json:"accountID"`
	RequestID        int64           `json:"requestID"`
	Amount           decimal.Decimal `json:"amount"`
	Type             string          `json:"type"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	Day              int             `json:"day"`
	WireConfirmation string          `json:"wireConfirmation,omitempty"`
	Deleted          bool            `json:"deleted"`
}

// DocumentResponse is the API shape of a paperwork record.
type DocumentResponse struct {
	DocumentID   int64     `json:"documentID"`
	RequestID    int64     `json:"requestID"`
	AccountID    int64     `json:"accountID"`
	Stage        string    `json:"stage"`
	Status       string    `json:"status"`
	DocumentLink string    `json:"documentLink,omitempty"`
	SendBy       time.Time `json:"sendBy"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// RequestBundleResponse groups a request with its document and operations.
type RequestBundleResponse struct {
	Request    RequestResponse     `json:"request"`
	Document   *DocumentResponse   `json:"document,omitempty"`
	Operations []OperationResponse `json:"operations,omitempty"`
}

// ListRequestsResponse is a cursor-paginated page of requests.
type ListRequestsResponse struct {
	Requests  []RequestResponse `json:"requests"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToRequestResponse converts a domain.TransferRequest to its API shape.
func ToRequestResponse(r *domain.TransferRequest) RequestResponse {
	return RequestResponse{
		RequestID:      r.RequestID,
		AccountID:      r.AccountID,
		Amount:         r.Amount,
		Type:           string(r.Type()),
		Status:         string(r.Status),
		SubmittedAt:    r.SubmittedAt,
		BankAccountRef: r.BankAccountRef,
		EffectiveMonth: r.EffectiveMonth,
		EffectiveYear:  r.EffectiveYear,
		CreatedBy:      r.CreatedBy,
	}
}

// ToRequestResponses converts a slice of requests.
func ToRequestResponses(requests []domain.TransferRequest) []RequestResponse {
	out := make([]RequestResponse, len(requests))
	for i := range requests {
		out[i] = ToRequestResponse(&requests[i])
	}
	return out
}

// ToOperationResponse converts a domain.Operation to its API shape.
func ToOperationResponse(o *domain.Operation) OperationResponse {
	return OperationResponse{
		OperationID:      o.OperationID,
		AccountID:        o.AccountID,
		RequestID:        o.RequestID,
		Amount:           o.Amount,
		Type:             string(o.Type()),
		Month:            o.Month,
		Year:             o.Year,
		Day:              o.Day,
		WireConfirmation: o.WireConfirmation,
		Deleted:          o.Deleted,
	}
}

// ToDocumentResponse converts a domain.Document to its API shape.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   d.DocumentID,
		RequestID:    d.RequestID,
		AccountID:    d.AccountID,
		Stage:        string(d.Stage),
		Status:       d.Status,
		DocumentLink: d.DocumentLink,
		SendBy:       d.SendBy,
		LastUpdated:  d.LastUpdatedAt,
	}
}

// ToRequestBundleResponse converts a domain.RequestBundle to its API shape.
func ToRequestBundleResponse(b *domain.RequestBundle) RequestBundleResponse {
	out := RequestBundleResponse{
		Request: ToRequestResponse(&b.Request),
	}
	if b.Document != nil {
		doc := ToDocumentResponse(b.Document)
		out.Document = &doc
	}
	if len(b.Operations) > 0 {
		out.Operations = make([]OperationResponse, len(b.Operations))
		for i := range b.Operations {
			out.Operations[i] = ToOperationResponse(&b.Operations[i])
		}
	}
	return out
}
