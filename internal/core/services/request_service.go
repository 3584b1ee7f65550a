package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/email"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/docflow"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
)

// requestServiceImpl implements the RequestSvcFacade interface. It is the
// single entry point for lifecycle transitions: every operation that changes a
// request's status also moves its document through the transition table in the
// same repository transaction.
type requestServiceImpl struct {
	BaseService
	requestRepo   portsrepo.RequestRepositoryFacade
	operationRepo portsrepo.OperationRepositoryFacade
	documentRepo  portsrepo.DocumentRepositoryFacade
	accountRepo   portsrepo.AccountRepositoryFacade
	statementRepo portsrepo.StatementRepositoryFacade
	userRepo      portsrepo.UserRepositoryFacade
	emailSender   email.Sender

	// inFlight rejects concurrent mutation of the same request. The data
	// store is last-write-wins; this guard is what keeps a double-submit from
	// applying a delta twice.
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// RequestServiceOption is a functional option for configuring the request service.
type RequestServiceOption func(*requestServiceImpl)

// WithEmailSender sets the outbound notification sender.
func WithEmailSender(sender email.Sender) RequestServiceOption {
	return func(s *requestServiceImpl) {
		s.emailSender = sender
	}
}

// NewRequestService creates the request lifecycle service.
func NewRequestService(
	requestRepo portsrepo.RequestRepositoryFacade,
	operationRepo portsrepo.OperationRepositoryFacade,
	documentRepo portsrepo.DocumentRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	statementRepo portsrepo.StatementRepositoryFacade,
	userRepo portsrepo.UserRepositoryFacade,
	options ...RequestServiceOption,
) portssvc.RequestSvcFacade {
	svc := &requestServiceImpl{
		requestRepo:   requestRepo,
		operationRepo: operationRepo,
		documentRepo:  documentRepo,
		accountRepo:   accountRepo,
		statementRepo: statementRepo,
		userRepo:      userRepo,
		emailSender:   email.NopSender{},
		inFlight:      make(map[int64]struct{}),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.RequestSvcFacade = (*requestServiceImpl)(nil)

// acquire marks the request as busy, rejecting concurrent mutation.
func (s *requestServiceImpl) acquire(requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[requestID]; busy {
		return fmt.Errorf("request %d is being modified: %w", requestID, apperrors.ErrBusy)
	}
	s.inFlight[requestID] = struct{}{}
	return nil
}

func (s *requestServiceImpl) release(requestID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, requestID)
}

// authorizeAdmin verifies the calling staff user carries the admin role.
func (s *requestServiceImpl) authorizeAdmin(ctx context.Context, userID string) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("unknown user %q: %w", userID, apperrors.ErrForbidden)
	}
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("unknown user %q: %w", userID, apperrors.ErrForbidden)
		}
		return err
	}
	if user.Role != domain.RoleAdmin || user.Disabled {
		return fmt.Errorf("admin role required: %w", apperrors.ErrForbidden)
	}
	return nil
}

func (s *requestServiceImpl) CreateRequest(ctx context.Context, req dto.CreateRequestRequest, userID string) (*domain.TransferRequest, error) {
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("amount must be non-zero: %w", apperrors.ErrValidation)
	}
	if _, err := s.accountRepo.FindAccountByID(ctx, req.AccountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	submittedAt := now
	if req.SubmittedAt != nil {
		submittedAt = req.SubmittedAt.UTC()
	}

	request := domain.TransferRequest{
		AccountID:      req.AccountID,
		Amount:         req.Amount,
		Status:         domain.StatusPending,
		SubmittedAt:    submittedAt,
		BankAccountRef: req.BankAccountRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	id, err := s.requestRepo.CreateRequest(ctx, request)
	if err != nil {
		s.LogError(ctx, err, "Failed to create transfer request", slog.Int64("account_id", req.AccountID))
		return nil, err
	}
	request.RequestID = id

	s.LogInfo(ctx, "Transfer request created",
		slog.Int64("request_id", id),
		slog.Int64("account_id", req.AccountID),
		slog.String("type", string(request.Type())))
	return &request, nil
}

func (s *requestServiceImpl) GetRequest(ctx context.Context, requestID int64) (*domain.RequestBundle, error) {
	return s.loadBundle(ctx, requestID)
}

func (s *requestServiceImpl) ListRequests(ctx context.Context, accountID int64, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.requestRepo.ListRequestsByAccount(ctx, accountID, limit, nextToken)
}

// PostRequest posts a transfer for its effective month: validates the bank
// reference and (for debits) the projected balance, creates the operation,
// and moves the document per the transition table.
func (s *requestServiceImpl) PostRequest(ctx context.Context, requestID int64, params dto.PostRequestParams, userID string) (*domain.RequestBundle, error) {
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.StatusPending && request.Status != domain.StatusRecurring {
		return nil, fmt.Errorf("request is %s, only pending or recurring requests can be posted: %w", request.Status, apperrors.ErrValidation)
	}

	// At most one live operation per request and period. Re-posting the same
	// month must not accrue a second one.
	existing, err := s.operationRepo.ListOperationsByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for _, op := range existing {
		if !op.Deleted && op.Month == params.Month && op.Year == params.Year {
			return nil, fmt.Errorf("request already posted for %d/%d: %w", params.Month, params.Year, apperrors.ErrValidation)
		}
	}

	account, err := s.accountRepo.FindAccountByID(ctx, request.AccountID)
	if err != nil {
		return nil, err
	}

	// Resolve the bank reference: explicit, then the request's own, then the
	// account's preferred bank record.
	bankRef := params.BankAccountRef
	if bankRef == "" {
		bankRef = request.BankAccountRef
	}
	if bankRef == "" {
		bankRef = account.DefaultBankRef
	}
	if bankRef == "" {
		return nil, fmt.Errorf("no bank account on request or account: %w", apperrors.ErrValidation)
	}

	if err := s.validatePendingBalance(ctx, *account, *request, params.Month, params.Year); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	day := params.Day
	if day == 0 {
		day = now.Day()
	}

	operation := domain.Operation{
		AccountID:        request.AccountID,
		RequestID:        request.RequestID,
		Amount:           request.Amount,
		Month:            params.Month,
		Year:             params.Year,
		Day:              day,
		WireConfirmation: params.WireConfirmation,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	// A recurring request stays recurring and just accrues another period's
	// operation; a pending one is approved.
	newStatus := domain.StatusApproved
	if request.Status == domain.StatusRecurring {
		newStatus = domain.StatusRecurring
	}

	request.Status = newStatus
	request.BankAccountRef = bankRef
	request.EffectiveMonth = params.Month
	request.EffectiveYear = params.Year
	request.LastUpdatedAt = now
	request.LastUpdatedBy = userID

	document := s.transitionDocument(ctx, request, docflow.Event{Status: newStatus, Type: request.Type()}, params.WireConfirmation, userID, now)

	if err := s.requestRepo.ApplyTransition(ctx, *request, document, []domain.Operation{operation}, nil); err != nil {
		s.LogError(ctx, err, "Failed to post transfer request", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Transfer request posted",
		slog.Int64("request_id", requestID),
		slog.Int("month", params.Month),
		slog.Int("year", params.Year))

	if params.SendEmail {
		s.notify(ctx, *account, "Transfer posted",
			fmt.Sprintf("Your %s of %s was posted for %d/%d.",
				transferNoun(request.Type()), request.Amount.Abs().StringFixed(2), params.Month, params.Year))
	}

	return s.loadBundle(ctx, requestID)
}

// CancelRequest declines a pending request or voids a recurring one, and
// cancels its paperwork.
func (s *requestServiceImpl) CancelRequest(ctx context.Context, requestID int64, params dto.CancelRequestParams, userID string) (*domain.RequestBundle, error) {
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var newStatus domain.RequestStatus
	switch request.Status {
	case domain.StatusPending:
		newStatus = domain.StatusDeclined
	case domain.StatusRecurring:
		newStatus = domain.StatusVoided
	default:
		return nil, fmt.Errorf("request is %s, only pending or recurring requests can be cancelled: %w", request.Status, apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	request.Status = newStatus
	request.LastUpdatedAt = now
	request.LastUpdatedBy = userID

	document := s.transitionDocument(ctx, request, docflow.Event{Status: newStatus, Type: request.Type()}, "", userID, now)

	if err := s.requestRepo.ApplyTransition(ctx, *request, document, nil, nil); err != nil {
		s.LogError(ctx, err, "Failed to cancel transfer request", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Transfer request cancelled",
		slog.Int64("request_id", requestID),
		slog.String("status", string(newStatus)))

	if params.SendEmail {
		if account, accErr := s.accountRepo.FindAccountByID(ctx, request.AccountID); accErr == nil {
			s.notify(ctx, *account, "Transfer cancelled",
				fmt.Sprintf("Your %s request of %s was cancelled.",
					transferNoun(request.Type()), request.Amount.Abs().StringFixed(2)))
		}
	}

	return s.loadBundle(ctx, requestID)
}

// MakeRecurring switches a pending or approved debit to recurring with an
// effective period. Later periods each post a new operation off this request.
func (s *requestServiceImpl) MakeRecurring(ctx context.Context, requestID int64, params dto.MakeRecurringParams, userID string) (*domain.RequestBundle, error) {
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Type() != domain.Debit {
		return nil, fmt.Errorf("only debit requests can recur: %w", apperrors.ErrValidation)
	}
	if request.Status != domain.StatusPending && request.Status != domain.StatusApproved {
		return nil, fmt.Errorf("request is %s, only pending or approved requests can be made recurring: %w", request.Status, apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	request.Status = domain.StatusRecurring
	request.EffectiveMonth = params.Month
	request.EffectiveYear = params.Year
	request.LastUpdatedAt = now
	request.LastUpdatedBy = userID

	document := s.transitionDocument(ctx, request, docflow.Event{Status: domain.StatusRecurring, Type: request.Type()}, "", userID, now)

	if err := s.requestRepo.ApplyTransition(ctx, *request, document, nil, nil); err != nil {
		s.LogError(ctx, err, "Failed to make request recurring", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Transfer request made recurring", slog.Int64("request_id", requestID))
	return s.loadBundle(ctx, requestID)
}

// RegisterDocument creates the paperwork record for a request. Idempotent: if
// one already exists it is returned unchanged.
func (s *requestServiceImpl) RegisterDocument(ctx context.Context, requestID int64, params dto.RegisterDocumentParams, userID string) (*domain.RequestBundle, error) {
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	existing, err := s.documentRepo.FindDocumentByRequestID(ctx, requestID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return s.loadBundle(ctx, requestID)
	}

	now := time.Now().UTC()
	stage := docflow.InitialStage(request.Type())
	document := domain.Document{
		RequestID: requestID,
		AccountID: request.AccountID,
		Stage:     stage,
		Status:    docflow.StatusText(stage, request.Type(), request.BankEnding(), ""),
		SendBy:    request.SubmittedAt.AddDate(0, 1, 0),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if _, err := s.documentRepo.CreateDocument(ctx, document); err != nil {
		s.LogError(ctx, err, "Failed to register document", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Document registered",
		slog.Int64("request_id", requestID),
		slog.String("stage", string(stage)))

	if params.SendEmail {
		if account, accErr := s.accountRepo.FindAccountByID(ctx, request.AccountID); accErr == nil {
			s.notify(ctx, *account, "Paperwork required",
				fmt.Sprintf("Paperwork for your %s request is due by %s.",
					transferNoun(request.Type()), document.SendBy.Format("2 Jan 2006")))
		}
	}

	return s.loadBundle(ctx, requestID)
}

// UnregisterDocument deletes the paperwork record; the request is unaffected.
func (s *requestServiceImpl) UnregisterDocument(ctx context.Context, requestID int64, userID string) (*domain.RequestBundle, error) {
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	document, err := s.documentRepo.FindDocumentByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.documentRepo.DeleteDocument(ctx, document.DocumentID); err != nil {
		s.LogError(ctx, err, "Failed to unregister document", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Document unregistered", slog.Int64("request_id", requestID))
	return s.loadBundle(ctx, requestID)
}

// DeleteOperations soft-deletes posted operations for a request, reverts the
// request to recurring (if it was) or pending, and forces the document into
// review with its status recomputed without account-ending context.
func (s *requestServiceImpl) DeleteOperations(ctx context.Context, requestID int64, operationIDs []int64, userID string) (*domain.RequestBundle, error) {
	if err := s.authorizeAdmin(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	owned, err := s.operationRepo.ListOperationsByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	ownedIDs := make(map[int64]struct{}, len(owned))
	for _, op := range owned {
		ownedIDs[op.OperationID] = struct{}{}
	}
	for _, id := range operationIDs {
		if _, ok := ownedIDs[id]; !ok {
			return nil, fmt.Errorf("operation %d does not belong to request %d: %w", id, requestID, apperrors.ErrValidation)
		}
	}

	now := time.Now().UTC()
	if request.Status != domain.StatusRecurring {
		request.Status = domain.StatusPending
	}
	request.LastUpdatedAt = now
	request.LastUpdatedBy = userID

	document := s.transitionDocument(ctx, request, docflow.Event{Status: request.Status, Type: request.Type(), OperationsDeleted: true}, "", userID, now)

	if err := s.requestRepo.ApplyTransition(ctx, *request, document, nil, operationIDs); err != nil {
		s.LogError(ctx, err, "Failed to delete operations", slog.Int64("request_id", requestID))
		return nil, err
	}

	s.LogInfo(ctx, "Operations deleted",
		slog.Int64("request_id", requestID),
		slog.Int("count", len(operationIDs)),
		slog.String("reverted_status", string(request.Status)))
	return s.loadBundle(ctx, requestID)
}

// ManualEdit is the admin escape hatch: it overwrites request and/or document
// fields directly, bypassing the transition table. Only changed aggregates are
// persisted.
func (s *requestServiceImpl) ManualEdit(ctx context.Context, requestID int64, req dto.ManualEditRequest, userID string) (*domain.RequestBundle, error) {
	if err := s.authorizeAdmin(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.acquire(requestID); err != nil {
		return nil, err
	}
	defer s.release(requestID)

	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	requestChanged := false

	if req.Status != nil {
		status := domain.RequestStatus(*req.Status)
		if !domain.ValidRequestStatus(status) {
			return nil, fmt.Errorf("unknown request status %q: %w", *req.Status, apperrors.ErrValidation)
		}
		if status != request.Status {
			request.Status = status
			requestChanged = true
		}
	}
	if req.Amount != nil && !req.Amount.Equal(request.Amount) {
		if req.Amount.IsZero() {
			return nil, fmt.Errorf("amount must be non-zero: %w", apperrors.ErrValidation)
		}
		request.Amount = *req.Amount
		requestChanged = true
	}
	if req.BankAccountRef != nil && *req.BankAccountRef != request.BankAccountRef {
		request.BankAccountRef = *req.BankAccountRef
		requestChanged = true
	}

	if requestChanged {
		request.LastUpdatedAt = now
		request.LastUpdatedBy = userID
		if err := s.requestRepo.UpdateRequest(ctx, *request); err != nil {
			s.LogError(ctx, err, "Failed to update request", slog.Int64("request_id", requestID))
			return nil, err
		}
	}

	if req.DocumentStage != nil || req.DocumentStatus != nil || req.DocumentLink != nil {
		document, docErr := s.documentRepo.FindDocumentByRequestID(ctx, requestID)
		if docErr != nil {
			return nil, docErr
		}
		documentChanged := false
		if req.DocumentStage != nil {
			stage := domain.DocumentStage(*req.DocumentStage)
			if !domain.ValidDocumentStage(stage) {
				return nil, fmt.Errorf("unknown document stage %q: %w", *req.DocumentStage, apperrors.ErrValidation)
			}
			if stage != document.Stage {
				document.Stage = stage
				documentChanged = true
			}
		}
		if req.DocumentStatus != nil && *req.DocumentStatus != document.Status {
			document.Status = *req.DocumentStatus
			documentChanged = true
		}
		if req.DocumentLink != nil && *req.DocumentLink != document.DocumentLink {
			document.DocumentLink = *req.DocumentLink
			documentChanged = true
		}
		if documentChanged {
			document.LastUpdatedAt = now
			document.LastUpdatedBy = userID
			if err := s.documentRepo.UpdateDocument(ctx, *document); err != nil {
				s.LogError(ctx, err, "Failed to update document", slog.Int64("request_id", requestID))
				return nil, err
			}
		}
	}

	s.LogInfo(ctx, "Request manually edited",
		slog.Int64("request_id", requestID),
		slog.Bool("request_changed", requestChanged))
	return s.loadBundle(ctx, requestID)
}

// validatePendingBalance rejects a debit that would drive the month's pending
// balance negative. When no start balance is derivable the check is skipped:
// the balance view reports "unavailable" and staff post at their discretion.
func (s *requestServiceImpl) validatePendingBalance(ctx context.Context, account domain.Account, request domain.TransferRequest, month, year int) error {
	if request.Type() != domain.Debit {
		return nil
	}

	statements, err := s.statementRepo.ListStatementsByAccount(ctx, account.AccountID)
	if err != nil {
		return err
	}
	operations, err := s.operationRepo.ListOperationsByAccount(ctx, account.AccountID, month, year)
	if err != nil {
		return err
	}
	open, err := s.requestRepo.ListOpenRequestsByAccount(ctx, account.AccountID)
	if err != nil {
		return err
	}

	pending, err := reconciliation.PendingBalance(account, statements, operations, open, request, month, year)
	if err != nil {
		if errors.Is(err, reconciliation.ErrUnavailable) {
			s.LogWarn(ctx, "Start balance unavailable, skipping debit validation",
				slog.Int64("account_id", account.AccountID),
				slog.Int("month", month), slog.Int("year", year))
			return nil
		}
		return err
	}
	return reconciliation.ValidateDebit(request, pending)
}

// transitionDocument runs the stage table against the request's document, if
// one exists, and returns the updated document (or nil when there is none).
func (s *requestServiceImpl) transitionDocument(ctx context.Context, request *domain.TransferRequest, ev docflow.Event, wireConfirmation, userID string, now time.Time) *domain.Document {
	document, err := s.documentRepo.FindDocumentByRequestID(ctx, request.RequestID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load document for transition", slog.Int64("request_id", request.RequestID))
		}
		return nil
	}

	bankEnding := request.BankEnding()
	if ev.OperationsDeleted {
		// Review status is recomputed with no account-ending context.
		bankEnding = ""
	}

	document.Stage = docflow.NextStage(document.Stage, ev)
	document.Status = docflow.StatusText(document.Stage, ev.Type, bankEnding, wireConfirmation)
	document.LastUpdatedAt = now
	document.LastUpdatedBy = userID
	return document
}

func (s *requestServiceImpl) loadBundle(ctx context.Context, requestID int64) (*domain.RequestBundle, error) {
	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	bundle := &domain.RequestBundle{Request: *request}

	document, err := s.documentRepo.FindDocumentByRequestID(ctx, requestID)
	if err == nil {
		bundle.Document = document
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	operations, err := s.operationRepo.ListOperationsByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	bundle.Operations = operations
	return bundle, nil
}

// notify sends a notification email. Failures are logged, never propagated:
// the state change already happened and must not be reversed.
func (s *requestServiceImpl) notify(ctx context.Context, account domain.Account, subject, body string) {
	if !account.CanReceiveEmail() {
		return
	}
	msg := email.Message{To: account.Email, Subject: subject, Body: body}
	if err := s.emailSender.Send(ctx, msg); err != nil {
		s.LogError(ctx, err, "Failed to send notification email",
			slog.Int64("account_id", account.AccountID),
			slog.String("subject", subject))
	}
}

func transferNoun(t domain.TransferType) string {
	if t == domain.Debit {
		return "withdrawal"
	}
	return "deposit"
}
