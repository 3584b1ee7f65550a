package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
)

// accountHandler handles HTTP requests related to client accounts.
type accountHandler struct {
	accountService   portssvc.AccountSvcFacade
	requestService   portssvc.RequestSvcFacade
	statementService portssvc.StatementSvcFacade
}

// registerAccountRoutes registers all account-related routes.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountSvcFacade, rs portssvc.RequestSvcFacade, ss portssvc.StatementSvcFacade) {
	h := &accountHandler{accountService: as, requestService: rs, statementService: ss}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.PUT("/:id", h.updateAccount)
		accounts.GET("/:id/balance", h.getBalance)
		accounts.GET("/:id/requests", h.listRequests)
		accounts.GET("/:id/statements", h.listStatements)
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// createAccount godoc
// @Summary Open a client account
// @Description Creates a client account with its opening balance anchor
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Account number already exists"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List client accounts
// @Tags accounts
// @Produce  json
// @Param   includeClosed query bool false "Include closed accounts"
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	includeClosed := c.Query("includeClosed") == "true"
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), includeClosed)
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponses(accounts))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path int true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// updateAccount godoc
// @Summary Update an account
// @Description Updates mutable account fields; the opening anchor cannot change
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   id path int true "Account ID"
// @Param   account body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), accountID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getBalance godoc
// @Summary Reconciliation view for one account and month
// @Description Returns the pending balance and statement reconciliation for the period. When no start balance is derivable the view is flagged unavailable rather than reported as zero.
// @Tags accounts
// @Produce  json
// @Param   id path int true "Account ID"
// @Param   month query int true "Month (1-12)"
// @Param   year query int true "Year"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	month, errM := strconv.Atoi(c.Query("month"))
	year, errY := strconv.Atoi(c.Query("year"))
	if errM != nil || errY != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month and year query parameters are required"})
		return
	}

	summary, err := h.accountService.GetBalance(c.Request.Context(), accountID, month, year)
	if err != nil {
		if errors.Is(err, reconciliation.ErrUnavailable) {
			c.JSON(http.StatusOK, dto.BalanceResponse{
				AccountID: accountID,
				Month:     month,
				Year:      year,
				Available: false,
			})
			return
		}
		respondError(c, logger, err, "Failed to compute balance")
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID:      summary.AccountID,
		Month:          summary.Month,
		Year:           summary.Year,
		Available:      true,
		StartBalance:   &summary.StartBalance,
		PendingBalance: &summary.PendingBalance,
		HasStatement:   summary.HasStatement,
		ReconError:     &summary.ReconError,
		Reconciled:     summary.Reconciled,
	})
}

// listRequests godoc
// @Summary List transfer requests for an account
// @Description Cursor-paginated, newest first
// @Tags accounts
// @Produce  json
// @Param   id path int true "Account ID"
// @Param   limit query int false "Page size (default 25, max 100)"
// @Param   nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListRequestsResponse
// @Security BearerAuth
// @Router /accounts/{id}/requests [get]
func (h *accountHandler) listRequests(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	requests, token, err := h.requestService.ListRequests(c.Request.Context(), accountID, limit, nextToken)
	if err != nil {
		respondError(c, logger, err, "Failed to list requests")
		return
	}
	c.JSON(http.StatusOK, dto.ListRequestsResponse{
		Requests:  dto.ToRequestResponses(requests),
		NextToken: token,
	})
}

// listStatements godoc
// @Summary List statements for an account
// @Description Newest period first
// @Tags accounts
// @Produce  json
// @Param   id path int true "Account ID"
// @Success 200 {array} dto.StatementResponse
// @Security BearerAuth
// @Router /accounts/{id}/statements [get]
func (h *accountHandler) listStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	statements, err := h.statementService.ListStatements(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to list statements")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponses(statements))
}
