package services

import (
	"context"
	"testing"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type requestServiceFixture struct {
	requestRepo   *MockRequestRepository
	operationRepo *MockOperationRepository
	documentRepo  *MockDocumentRepository
	accountRepo   *MockAccountRepository
	statementRepo *MockStatementRepository
	userRepo      *MockUserRepository
	sender        *recordingSender
	svc           *requestServiceImpl
}

func newRequestServiceFixture() *requestServiceFixture {
	f := &requestServiceFixture{
		requestRepo:   new(MockRequestRepository),
		operationRepo: new(MockOperationRepository),
		documentRepo:  new(MockDocumentRepository),
		accountRepo:   new(MockAccountRepository),
		statementRepo: new(MockStatementRepository),
		userRepo:      new(MockUserRepository),
		sender:        &recordingSender{},
	}
	svc := NewRequestService(
		f.requestRepo, f.operationRepo, f.documentRepo,
		f.accountRepo, f.statementRepo, f.userRepo,
		WithEmailSender(f.sender),
	)
	f.svc = svc.(*requestServiceImpl)
	return f
}

func testAccount() *domain.Account {
	return &domain.Account{
		AccountID:      7,
		AccountNumber:  "FP-1007",
		OpeningBalance: decimal.NewFromInt(1000),
		OpeningMonth:   1,
		OpeningYear:    2025,
		Email:          "client@example.com",
		EmailStatus:    domain.EmailActive,
		DefaultBankRef: "CHK-00456789",
	}
}

func pendingRequest(amount string) *domain.TransferRequest {
	return &domain.TransferRequest{
		RequestID:      42,
		AccountID:      7,
		Amount:         decimal.RequireFromString(amount),
		Status:         domain.StatusPending,
		SubmittedAt:    time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		BankAccountRef: "CHK-00456789",
	}
}

func TestCreateRequest(t *testing.T) {
	t.Run("creates a pending request", func(t *testing.T) {
		f := newRequestServiceFixture()
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.requestRepo.On("CreateRequest", mock.Anything, mock.Anything).Return(int64(42), nil)

		got, err := f.svc.CreateRequest(context.Background(), dto.CreateRequestRequest{
			AccountID: 7,
			Amount:    decimal.NewFromInt(-250),
		}, "1")

		require.NoError(t, err)
		assert.Equal(t, int64(42), got.RequestID)
		assert.Equal(t, domain.StatusPending, got.Status)
		assert.Equal(t, domain.Debit, got.Type())
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		f := newRequestServiceFixture()

		_, err := f.svc.CreateRequest(context.Background(), dto.CreateRequestRequest{
			AccountID: 7,
			Amount:    decimal.Zero,
		}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestPostRequest(t *testing.T) {
	t.Run("approves a pending credit and records the operation", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")
		document := &domain.Document{DocumentID: 3, RequestID: 42, Stage: domain.StageWaiting}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(document, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		var applied struct {
			request    domain.TransferRequest
			document   *domain.Document
			operations []domain.Operation
		}
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				applied.request = args.Get(1).(domain.TransferRequest)
				applied.document = args.Get(2).(*domain.Document)
				applied.operations = args.Get(3).([]domain.Operation)
			}).
			Return(nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{
			Month: 2, Year: 2025, Day: 14, WireConfirmation: "WX-881",
		}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, applied.request.Status)
		require.Len(t, applied.operations, 1)
		assert.Equal(t, 2, applied.operations[0].Month)
		assert.Equal(t, 2025, applied.operations[0].Year)
		assert.True(t, applied.operations[0].Amount.Equal(decimal.NewFromInt(500)))
		require.NotNil(t, applied.document)
		assert.Equal(t, domain.StageReceived, applied.document.Stage)
		assert.Equal(t, "Funds received from account ending 6789", applied.document.Status)
	})

	t.Run("recurring request stays recurring", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-100")
		request.Status = domain.StatusRecurring

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.statementRepo.On("ListStatementsByAccount", mock.Anything, int64(7)).Return([]domain.Statement{}, nil)
		f.operationRepo.On("ListOperationsByAccount", mock.Anything, int64(7), 2, 2025).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ListOpenRequestsByAccount", mock.Anything, int64(7)).Return([]domain.TransferRequest{*request}, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		var appliedStatus domain.RequestStatus
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				appliedStatus = args.Get(1).(domain.TransferRequest).Status
			}).
			Return(nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusRecurring, appliedStatus)
	})

	t.Run("rejects when no bank reference is resolvable", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")
		request.BankAccountRef = ""
		account := testAccount()
		account.DefaultBankRef = ""

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(account, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.ErrorContains(t, err, "bank account")
	})

	t.Run("rejects a second post for the same period", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-100")
		request.Status = domain.StatusRecurring
		posted := domain.Operation{
			OperationID: 9, AccountID: 7, RequestID: 42,
			Amount: decimal.NewFromInt(-100), Month: 2, Year: 2025,
		}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{posted}, nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.ErrorContains(t, err, "already posted")
		f.requestRepo.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a soft-deleted operation does not block re-posting its period", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-100")
		request.Status = domain.StatusRecurring
		deleted := domain.Operation{
			OperationID: 9, AccountID: 7, RequestID: 42,
			Amount: decimal.NewFromInt(-100), Month: 2, Year: 2025, Deleted: true,
		}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.statementRepo.On("ListStatementsByAccount", mock.Anything, int64(7)).Return([]domain.Statement{}, nil)
		f.operationRepo.On("ListOperationsByAccount", mock.Anything, int64(7), 2, 2025).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ListOpenRequestsByAccount", mock.Anything, int64(7)).Return([]domain.TransferRequest{*request}, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{deleted}, nil)
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		require.NoError(t, err)
	})

	t.Run("rejects a debit that drives the balance negative", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-1200")
		prior := domain.Statement{AccountID: 7, Month: 1, Year: 2025, EndBalance: decimal.NewFromInt(1000)}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.statementRepo.On("ListStatementsByAccount", mock.Anything, int64(7)).Return([]domain.Statement{prior}, nil)
		f.operationRepo.On("ListOperationsByAccount", mock.Anything, int64(7), 2, 2025).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ListOpenRequestsByAccount", mock.Anything, int64(7)).Return([]domain.TransferRequest{*request}, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.ErrorContains(t, err, "negative")
		f.requestRepo.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepts a covered debit", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-200")
		prior := domain.Statement{AccountID: 7, Month: 1, Year: 2025, EndBalance: decimal.NewFromInt(1000)}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.statementRepo.On("ListStatementsByAccount", mock.Anything, int64(7)).Return([]domain.Statement{prior}, nil)
		f.operationRepo.On("ListOperationsByAccount", mock.Anything, int64(7), 2, 2025).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ListOpenRequestsByAccount", mock.Anything, int64(7)).Return([]domain.TransferRequest{*request}, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{Month: 2, Year: 2025}, "1")

		require.NoError(t, err)
	})

	t.Run("sends a notification when asked", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.accountRepo.On("FindAccountByID", mock.Anything, int64(7)).Return(testAccount(), nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.PostRequest(context.Background(), 42, dto.PostRequestParams{
			Month: 2, Year: 2025, SendEmail: true,
		}, "1")

		require.NoError(t, err)
		assert.Equal(t, 1, f.sender.sentCount())
	})
}

func TestCancelRequest(t *testing.T) {
	cases := []struct {
		name       string
		current    domain.RequestStatus
		wantStatus domain.RequestStatus
		wantErr    bool
	}{
		{"pending becomes declined", domain.StatusPending, domain.StatusDeclined, false},
		{"recurring becomes voided", domain.StatusRecurring, domain.StatusVoided, false},
		{"approved cannot be cancelled", domain.StatusApproved, "", true},
		{"declined cannot be cancelled again", domain.StatusDeclined, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRequestServiceFixture()
			request := pendingRequest("500")
			request.Status = tc.current

			f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
			f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
			f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

			var appliedStatus domain.RequestStatus
			f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					appliedStatus = args.Get(1).(domain.TransferRequest).Status
				}).
				Return(nil)

			_, err := f.svc.CancelRequest(context.Background(), 42, dto.CancelRequestParams{}, "1")

			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, appliedStatus)
		})
	}

	t.Run("cancels paperwork with the request", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-300")
		document := &domain.Document{DocumentID: 3, RequestID: 42, Stage: domain.StageClient}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(document, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		var appliedDocument *domain.Document
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				appliedDocument = args.Get(2).(*domain.Document)
			}).
			Return(nil)

		_, err := f.svc.CancelRequest(context.Background(), 42, dto.CancelRequestParams{}, "1")

		require.NoError(t, err)
		require.NotNil(t, appliedDocument)
		assert.Equal(t, domain.StageCancelled, appliedDocument.Stage)
		assert.Equal(t, "Transfer cancelled", appliedDocument.Status)
	})
}

func TestMakeRecurring(t *testing.T) {
	t.Run("switches a pending debit to recurring", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-150")

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		var applied domain.TransferRequest
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				applied = args.Get(1).(domain.TransferRequest)
			}).
			Return(nil)

		_, err := f.svc.MakeRecurring(context.Background(), 42, dto.MakeRecurringParams{Month: 3, Year: 2025}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusRecurring, applied.Status)
		assert.Equal(t, 3, applied.EffectiveMonth)
		assert.Equal(t, 2025, applied.EffectiveYear)
	})

	t.Run("rejects credits", func(t *testing.T) {
		f := newRequestServiceFixture()
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(pendingRequest("150"), nil)

		_, err := f.svc.MakeRecurring(context.Background(), 42, dto.MakeRecurringParams{Month: 3, Year: 2025}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestRegisterDocument(t *testing.T) {
	t.Run("credit paperwork starts waiting for instruction", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound).Once()

		var created domain.Document
		f.documentRepo.On("CreateDocument", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(domain.Document)
			}).
			Return(int64(3), nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(&created, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		_, err := f.svc.RegisterDocument(context.Background(), 42, dto.RegisterDocumentParams{}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StageWaiting, created.Stage)
		assert.Equal(t, request.SubmittedAt.AddDate(0, 1, 0), created.SendBy)
	})

	t.Run("debit paperwork starts ready", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-500")

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound).Once()

		var created domain.Document
		f.documentRepo.On("CreateDocument", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(domain.Document)
			}).
			Return(int64(3), nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(&created, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		_, err := f.svc.RegisterDocument(context.Background(), 42, dto.RegisterDocumentParams{}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StageReady, created.Stage)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newRequestServiceFixture()
		existing := &domain.Document{DocumentID: 3, RequestID: 42, Stage: domain.StageClient}

		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(pendingRequest("500"), nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(existing, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		bundle, err := f.svc.RegisterDocument(context.Background(), 42, dto.RegisterDocumentParams{}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StageClient, bundle.Document.Stage)
		f.documentRepo.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
	})
}

func TestDeleteOperations(t *testing.T) {
	admin := &domain.User{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	staff := &domain.User{UserID: 2, Username: "staff", Role: domain.RoleStaff}

	t.Run("requires admin role", func(t *testing.T) {
		f := newRequestServiceFixture()
		f.userRepo.On("FindUserByID", mock.Anything, int64(2)).Return(staff, nil)

		_, err := f.svc.DeleteOperations(context.Background(), 42, []int64{9}, "2")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("rejects operations from another request", func(t *testing.T) {
		f := newRequestServiceFixture()
		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(pendingRequest("500"), nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{{OperationID: 9}}, nil)

		_, err := f.svc.DeleteOperations(context.Background(), 42, []int64{9, 77}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("reverts an approved request to pending and reopens review", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")
		request.Status = domain.StatusApproved
		document := &domain.Document{DocumentID: 3, RequestID: 42, Stage: domain.StageReceived}

		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{{OperationID: 9}}, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(document, nil)

		var applied struct {
			request   domain.TransferRequest
			document  *domain.Document
			deleteIDs []int64
		}
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				applied.request = args.Get(1).(domain.TransferRequest)
				applied.document = args.Get(2).(*domain.Document)
				applied.deleteIDs = args.Get(4).([]int64)
			}).
			Return(nil)

		_, err := f.svc.DeleteOperations(context.Background(), 42, []int64{9}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, applied.request.Status)
		assert.Equal(t, []int64{9}, applied.deleteIDs)
		require.NotNil(t, applied.document)
		assert.Equal(t, domain.StageReview, applied.document.Stage)
		assert.Equal(t, "Operations under review", applied.document.Status)
	})

	t.Run("keeps a recurring request recurring", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("-500")
		request.Status = domain.StatusRecurring

		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{{OperationID: 9}}, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)

		var appliedStatus domain.RequestStatus
		f.requestRepo.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				appliedStatus = args.Get(1).(domain.TransferRequest).Status
			}).
			Return(nil)

		_, err := f.svc.DeleteOperations(context.Background(), 42, []int64{9}, "1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusRecurring, appliedStatus)
	})
}

func TestManualEdit(t *testing.T) {
	admin := &domain.User{UserID: 1, Username: "admin", Role: domain.RoleAdmin}

	t.Run("persists only changed aggregates", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")
		newStatus := string(domain.StatusApproved)

		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.requestRepo.On("UpdateRequest", mock.Anything, mock.Anything).Return(nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		_, err := f.svc.ManualEdit(context.Background(), 42, dto.ManualEditRequest{Status: &newStatus}, "1")

		require.NoError(t, err)
		f.requestRepo.AssertCalled(t, "UpdateRequest", mock.Anything, mock.Anything)
		f.documentRepo.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything)
	})

	t.Run("no-op edit writes nothing", func(t *testing.T) {
		f := newRequestServiceFixture()
		request := pendingRequest("500")

		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(request, nil)
		f.documentRepo.On("FindDocumentByRequestID", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound)
		f.operationRepo.On("ListOperationsByRequest", mock.Anything, int64(42)).Return([]domain.Operation{}, nil)

		same := string(domain.StatusPending)
		_, err := f.svc.ManualEdit(context.Background(), 42, dto.ManualEditRequest{Status: &same}, "1")

		require.NoError(t, err)
		f.requestRepo.AssertNotCalled(t, "UpdateRequest", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		f := newRequestServiceFixture()
		bad := "sideways"

		f.userRepo.On("FindUserByID", mock.Anything, int64(1)).Return(admin, nil)
		f.requestRepo.On("FindRequestByID", mock.Anything, int64(42)).Return(pendingRequest("500"), nil)

		_, err := f.svc.ManualEdit(context.Background(), 42, dto.ManualEditRequest{Status: &bad}, "1")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestRequestInFlightGuard(t *testing.T) {
	f := newRequestServiceFixture()

	require.NoError(t, f.svc.acquire(42))
	err := f.svc.acquire(42)
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	f.svc.release(42)
	assert.NoError(t, f.svc.acquire(42))
}
