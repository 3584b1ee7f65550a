package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
)

// statementHandler handles the statement batch endpoints.
type statementHandler struct {
	statementService portssvc.StatementSvcFacade
}

// registerStatementRoutes registers statement batch routes.
func registerStatementRoutes(rg *gin.RouterGroup, ss portssvc.StatementSvcFacade) {
	h := &statementHandler{statementService: ss}

	statements := rg.Group("/statements")
	{
		statements.POST("/generate", h.generateStatements)
		statements.GET("/generate/status", h.batchStatus)
	}
}

// generateStatements godoc
// @Summary Run the month-end statement batch
// @Description Generates statements for the selected accounts and optionally emails them, streaming progress as server-sent events. Only one batch runs at a time. Closing the connection cancels the batch between accounts.
// @Tags statements
// @Accept  json
// @Produce  text/event-stream
// @Param   batch body dto.GenerateStatementsRequest true "Batch parameters"
// @Success 200 {object} dto.ProgressEvent "Ordered progress event stream"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "A batch is already running"
// @Security BearerAuth
// @Router /statements/generate [post]
func (h *statementHandler) generateStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.GenerateStatementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	events, err := h.statementService.GenerateStatements(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to start statement batch")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		ev, open := <-events
		if !open {
			return false
		}
		c.SSEvent(string(ev.Type), ev)
		return true
	})
}

// batchStatus godoc
// @Summary Whether a statement batch is currently running
// @Tags statements
// @Produce  json
// @Success 200 {object} map[string]bool
// @Security BearerAuth
// @Router /statements/generate/status [get]
func (h *statementHandler) batchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.statementService.Running()})
}
