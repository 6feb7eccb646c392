package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/api_gateway/middleware"
	"github.com/statement-reconciliation/internal/api_gateway/service"
	"github.com/statement-reconciliation/internal/domain/shared"
)

// StatementHandler handles HTTP requests for statement intake
type StatementHandler struct {
	statementService service.StatementService
	logger           *slog.Logger
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(logger *slog.Logger, statementService service.StatementService) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		logger:           logger,
	}
}

// Submit accepts a normalized statement batch for asynchronous ingestion
func (h *StatementHandler) Submit(c *gin.Context) {
	var req SubmitStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountRef, err := uuid.Parse(req.AccountRef)
	if err != nil {
		h.logger.Error("Invalid account reference", "account_ref", req.AccountRef, "error", err)
		RespondBadRequest(c, "Invalid account reference")
		return
	}

	movements := make([]shared.NormalizedMovement, 0, len(req.Movements))
	for _, m := range req.Movements {
		var direction shared.Direction
		switch m.Direction {
		case "DEBIT":
			direction = shared.DirectionDebit
		case "CREDIT":
			direction = shared.DirectionCredit
		default:
			h.logger.Error("Invalid movement direction", "direction", m.Direction)
			RespondBadRequest(c, "Invalid movement direction: "+m.Direction)
			return
		}
		movements = append(movements, shared.NormalizedMovement{
			ExternalDocRef: m.ExternalDocRef,
			Date:           m.Date,
			Description:    m.Description,
			Amount:         m.Amount,
			Direction:      direction,
		})
	}

	batch := &shared.StatementBatch{
		AccountRef:    accountRef,
		Source:        req.Source,
		CorrelationID: middleware.GetCorrelationID(c),
		Movements:     movements,
	}

	batchID, err := h.statementService.SubmitStatement(c.Request.Context(), batch)
	if err != nil {
		h.logger.Error("Failed to submit statement batch", "account_ref", req.AccountRef, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"batch_id":       batchID,
		"movement_count": len(batch.Movements),
		"status":         "ACCEPTED",
	})
}
