package services

import (
	"context"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
)

// RequestReaderSvc defines read operations for transfer requests.
type RequestReaderSvc interface {
	// GetRequest retrieves a request with its document and operations.
	GetRequest(ctx context.Context, requestID int64) (*domain.RequestBundle, error)

	// ListRequests retrieves a cursor-paginated page of an account's requests.
	ListRequests(ctx context.Context, accountID int64, limit int, nextToken *string) ([]domain.TransferRequest, *string, error)
}

// RequestLifecycleSvc defines the state-changing controller operations.
// Every operation returns the updated bundle or an error; there is no silent
// failure path. Operations are idempotent by request ID plus desired
// end-state, and reject concurrent mutation of the same request with ErrBusy.
type RequestLifecycleSvc interface {
	// CreateRequest registers a new pending transfer request.
	CreateRequest(ctx context.Context, req dto.CreateRequestRequest, userID string) (*domain.TransferRequest, error)

	// PostRequest posts the transfer: creates an operation for the effective
	// month, moves the document per the transition table, and rejects debits
	// that would drive the pending balance negative.
	PostRequest(ctx context.Context, requestID int64, params dto.PostRequestParams, userID string) (*domain.RequestBundle, error)

	// CancelRequest declines a pending request or voids a recurring one.
	CancelRequest(ctx context.Context, requestID int64, params dto.CancelRequestParams, userID string) (*domain.RequestBundle, error)

	// MakeRecurring switches a pending or approved debit to recurring.
	MakeRecurring(ctx context.Context, requestID int64, params dto.MakeRecurringParams, userID string) (*domain.RequestBundle, error)

	// RegisterDocument creates the paperwork record; no-op if one exists.
	RegisterDocument(ctx context.Context, requestID int64, params dto.RegisterDocumentParams, userID string) (*domain.RequestBundle, error)

	// UnregisterDocument deletes the paperwork record; the request is unaffected.
	UnregisterDocument(ctx context.Context, requestID int64, userID string) (*domain.RequestBundle, error)

	// DeleteOperations soft-deletes the listed operations, reverts the request
	// status and forces the document into review. Admin only.
	DeleteOperations(ctx context.Context, requestID int64, operationIDs []int64, userID string) (*domain.RequestBundle, error)

	// ManualEdit directly overwrites request/document fields, bypassing the
	// automatic transition table. Admin only.
	ManualEdit(ctx context.Context, requestID int64, req dto.ManualEditRequest, userID string) (*domain.RequestBundle, error)
}

// RequestSvcFacade combines all request-related service interfaces.
type RequestSvcFacade interface {
	RequestReaderSvc
	RequestLifecycleSvc
}
