package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RequestService ---
type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) CreateRequest(ctx context.Context, req dto.CreateRequestRequest, userID string) (*domain.TransferRequest, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferRequest), args.Error(1)
}
func (m *MockRequestService) GetRequest(ctx context.Context, requestID int64) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) ListRequests(ctx context.Context, accountID int64, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	var requests []domain.TransferRequest
	if args.Get(0) != nil {
		requests = args.Get(0).([]domain.TransferRequest)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return requests, token, args.Error(2)
}
func (m *MockRequestService) PostRequest(ctx context.Context, requestID int64, params dto.PostRequestParams, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, params, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) CancelRequest(ctx context.Context, requestID int64, params dto.CancelRequestParams, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, params, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) MakeRecurring(ctx context.Context, requestID int64, params dto.MakeRecurringParams, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, params, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) RegisterDocument(ctx context.Context, requestID int64, params dto.RegisterDocumentParams, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, params, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) UnregisterDocument(ctx context.Context, requestID int64, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) DeleteOperations(ctx context.Context, requestID int64, operationIDs []int64, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, operationIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}
func (m *MockRequestService) ManualEdit(ctx context.Context, requestID int64, req dto.ManualEditRequest, userID string) (*domain.RequestBundle, error) {
	args := m.Called(ctx, requestID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestBundle), args.Error(1)
}

var _ portssvc.RequestSvcFacade = (*MockRequestService)(nil)

// --- Test Suite ---
type RequestHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockRequestService *MockRequestService
	jwtSecret          string
}

func (suite *RequestHandlerTestSuite) generateTestToken(userID, role string) string {
	claims := middleware.StaffClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fbo-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *RequestHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
			m := fl.Field().Int()
			return m >= 1 && m <= 12
		})
	}
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockRequestService = new(MockRequestService)

	v1 := suite.router.Group("/api/v1")
	registerRequestRoutes(v1, suite.mockRequestService)
}

func (suite *RequestHandlerTestSuite) doJSON(method, url, userID, role string, body any) *httptest.ResponseRecorder {
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, url, payload)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID, role))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *RequestHandlerTestSuite) TestGetRequest_Success() {
	bundle := &domain.RequestBundle{
		Request: domain.TransferRequest{
			RequestID:   42,
			AccountID:   7,
			Amount:      decimal.NewFromInt(-250),
			Status:      domain.StatusPending,
			SubmittedAt: time.Now().UTC(),
		},
	}
	suite.mockRequestService.On("GetRequest", mock.Anything, int64(42)).Return(bundle, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/requests/42", "1", "staff", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.RequestBundleResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(42), resp.Request.RequestID)
	suite.Equal(string(domain.Debit), resp.Request.Type)
	suite.mockRequestService.AssertExpectations(suite.T())
}

func (suite *RequestHandlerTestSuite) TestGetRequest_NotFound() {
	suite.mockRequestService.On("GetRequest", mock.Anything, int64(99)).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/requests/99", "1", "staff", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RequestHandlerTestSuite) TestPostRequest_Busy() {
	suite.mockRequestService.On("PostRequest", mock.Anything, int64(42), mock.Anything, "1").
		Return(nil, apperrors.ErrBusy).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/requests/42/post", "1", "staff",
		dto.PostRequestParams{Month: 2, Year: 2025})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *RequestHandlerTestSuite) TestPostRequest_InvalidBody() {
	w := suite.doJSON(http.MethodPost, "/api/v1/requests/42/post", "1", "staff",
		map[string]any{"month": 13, "year": 2025})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRequestService.AssertNotCalled(suite.T(), "PostRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RequestHandlerTestSuite) TestDeleteOperations_ForbiddenForStaff() {
	w := suite.doJSON(http.MethodPost, "/api/v1/requests/42/operations/delete", "2", "staff",
		dto.DeleteOperationsRequest{OperationIDs: []int64{9}})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockRequestService.AssertNotCalled(suite.T(), "DeleteOperations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RequestHandlerTestSuite) TestDeleteOperations_AdminAllowed() {
	bundle := &domain.RequestBundle{
		Request: domain.TransferRequest{RequestID: 42, AccountID: 7, Status: domain.StatusPending},
	}
	suite.mockRequestService.On("DeleteOperations", mock.Anything, int64(42), []int64{9}, "1").
		Return(bundle, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/requests/42/operations/delete", "1", "admin",
		dto.DeleteOperationsRequest{OperationIDs: []int64{9}})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRequestService.AssertExpectations(suite.T())
}

func (suite *RequestHandlerTestSuite) TestUnauthenticatedRejected() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/requests/42", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestRequestHandler(t *testing.T) {
	suite.Run(t, new(RequestHandlerTestSuite))
}
