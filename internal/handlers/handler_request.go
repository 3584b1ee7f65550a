package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
)

// requestHandler handles HTTP requests for the transfer request lifecycle.
type requestHandler struct {
	requestService portssvc.RequestSvcFacade
}

// registerRequestRoutes registers all transfer-request routes. Operation
// deletion and manual edits are admin only.
func registerRequestRoutes(rg *gin.RouterGroup, rs portssvc.RequestSvcFacade) {
	h := &requestHandler{requestService: rs}

	requests := rg.Group("/requests")
	{
		requests.POST("", h.createRequest)
		requests.GET("/:id", h.getRequest)
		requests.POST("/:id/post", h.postRequest)
		requests.POST("/:id/cancel", h.cancelRequest)
		requests.POST("/:id/recurring", h.makeRecurring)
		requests.POST("/:id/document", h.registerDocument)
		requests.DELETE("/:id/document", h.unregisterDocument)

		admin := requests.Group("", middleware.RequireAdmin())
		{
			admin.POST("/:id/operations/delete", h.deleteOperations)
			admin.PUT("/:id", h.manualEdit)
		}
	}
}

func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// createRequest godoc
// @Summary Submit a transfer request
// @Description Creates a pending request. Amount is signed: positive for deposits, negative for withdrawals.
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateRequestRequest true "Request details"
// @Success 201 {object} dto.RequestResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /requests [post]
func (h *requestHandler) createRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	request, err := h.requestService.CreateRequest(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create transfer request")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRequestResponse(request))
}

// getRequest godoc
// @Summary Get a request with its document and operations
// @Tags requests
// @Produce  json
// @Param   id path int true "Request ID"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 404 {object} map[string]string "Request not found"
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *requestHandler) getRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	bundle, err := h.requestService.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve request")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// postRequest godoc
// @Summary Post a request for its effective month
// @Description Approves a pending request (or re-posts a recurring one), records the operation and advances the paperwork. Debits are rejected when they would drive the month's pending balance negative.
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   params body dto.PostRequestParams true "Posting parameters"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 400 {object} map[string]string "Invalid state or insufficient balance"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Request is being modified"
// @Security BearerAuth
// @Router /requests/{id}/post [post]
func (h *requestHandler) postRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var params dto.PostRequestParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.PostRequest(c.Request.Context(), requestID, params, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post request")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// cancelRequest godoc
// @Summary Cancel a request
// @Description Declines a pending request or voids a recurring one; the paperwork is cancelled with it
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   params body dto.CancelRequestParams false "Cancellation options"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 400 {object} map[string]string "Request is not cancellable"
// @Failure 404 {object} map[string]string "Request not found"
// @Security BearerAuth
// @Router /requests/{id}/cancel [post]
func (h *requestHandler) cancelRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var params dto.CancelRequestParams
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.CancelRequest(c.Request.Context(), requestID, params, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel request")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// makeRecurring godoc
// @Summary Switch a debit request to recurring
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   params body dto.MakeRecurringParams true "Effective period"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 400 {object} map[string]string "Only pending or approved debits can recur"
// @Failure 404 {object} map[string]string "Request not found"
// @Security BearerAuth
// @Router /requests/{id}/recurring [post]
func (h *requestHandler) makeRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var params dto.MakeRecurringParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.MakeRecurring(c.Request.Context(), requestID, params, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to make request recurring")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// registerDocument godoc
// @Summary Register paperwork for a request
// @Description Creates the paperwork record in its initial stage. Idempotent: an existing record is returned unchanged.
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   params body dto.RegisterDocumentParams false "Registration options"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 404 {object} map[string]string "Request not found"
// @Security BearerAuth
// @Router /requests/{id}/document [post]
func (h *requestHandler) registerDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var params dto.RegisterDocumentParams
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.RegisterDocument(c.Request.Context(), requestID, params, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to register document")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// unregisterDocument godoc
// @Summary Remove the paperwork record from a request
// @Tags requests
// @Produce  json
// @Param   id path int true "Request ID"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 404 {object} map[string]string "Request or document not found"
// @Security BearerAuth
// @Router /requests/{id}/document [delete]
func (h *requestHandler) unregisterDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.UnregisterDocument(c.Request.Context(), requestID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to unregister document")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// deleteOperations godoc
// @Summary Soft-delete posted operations (admin)
// @Description Removes operations from the ledger view, reverts the request and puts the paperwork under review
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   operations body dto.DeleteOperationsRequest true "Operations to delete"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 400 {object} map[string]string "Operations do not belong to the request"
// @Failure 403 {object} map[string]string "Admin role required"
// @Security BearerAuth
// @Router /requests/{id}/operations/delete [post]
func (h *requestHandler) deleteOperations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DeleteOperationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.DeleteOperations(c.Request.Context(), requestID, req.OperationIDs, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to delete operations")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}

// manualEdit godoc
// @Summary Manually edit a request or its document (admin)
// @Description Direct field overwrite bypassing the automatic transitions. Only supplied fields are changed.
// @Tags requests
// @Accept  json
// @Produce  json
// @Param   id path int true "Request ID"
// @Param   edit body dto.ManualEditRequest true "Fields to overwrite"
// @Success 200 {object} dto.RequestBundleResponse
// @Failure 400 {object} map[string]string "Unknown status or stage"
// @Failure 403 {object} map[string]string "Admin role required"
// @Security BearerAuth
// @Router /requests/{id} [put]
func (h *requestHandler) manualEdit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ManualEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bundle, err := h.requestService.ManualEdit(c.Request.Context(), requestID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to edit request")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestBundleResponse(bundle))
}
