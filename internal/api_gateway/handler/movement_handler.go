package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/api_gateway/service"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
)

// MovementHandler handles HTTP requests for movement and obligation queries
type MovementHandler struct {
	movementService   service.MovementService
	obligationService service.ObligationService
	logger            *slog.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(logger *slog.Logger, movementService service.MovementService, obligationService service.ObligationService) *MovementHandler {
	return &MovementHandler{
		movementService:   movementService,
		obligationService: obligationService,
		logger:            logger,
	}
}

// GetByID retrieves movement details by its ID, returns 404 if not found
func (h *MovementHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid movement ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid movement ID")
		return
	}

	mov, err := h.movementService.GetMovementByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get movement", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if mov == nil {
		RespondNotFound(c, "Movement not found")
		return
	}

	RespondOK(c, mapMovementToResponse(mov))
}

// GetByAccountRef retrieves paginated movement history for an account
func (h *MovementHandler) GetByAccountRef(c *gin.Context) {
	refParam := c.Param("ref")
	accountRef, err := uuid.Parse(refParam)
	if err != nil {
		h.logger.Error("Invalid account reference", "account_ref", refParam, "error", err)
		RespondBadRequest(c, "Invalid account reference")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	movements, total, err := h.movementService.GetMovementsByAccountRef(
		c.Request.Context(),
		accountRef,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get movements", "account_ref", refParam, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []MovementResponse
	for _, mov := range movements {
		responses = append(responses, mapMovementToResponse(mov))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// GetAuditTrail retrieves the paginated audit trail of a movement, newest first
func (h *MovementHandler) GetAuditTrail(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid movement ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid movement ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.movementService.GetAuditTrail(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get audit trail", "movement_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []AuditEntryResponse
	for _, entry := range entries {
		responses = append(responses, mapAuditEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// ListObligations returns the obligations still open for matching
func (h *MovementHandler) ListObligations(c *gin.Context) {
	obligations, err := h.obligationService.ListOpenObligations(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list open obligations", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ObligationResponse, 0, len(obligations))
	for _, obl := range obligations {
		responses = append(responses, mapObligationToResponse(obl))
	}

	RespondOK(c, responses)
}

// mapMovementToResponse maps a movement to its response DTO
func mapMovementToResponse(mov *movement.Movement) MovementResponse {
	response := MovementResponse{
		ID:             mov.ID.String(),
		AccountRef:     mov.AccountRef.String(),
		Date:           mov.Date.Format(time.RFC3339),
		Description:    mov.Description,
		Amount:         mov.Amount.String(),
		Direction:      string(mov.Direction),
		ExternalDocRef: mov.ExternalDocRef,
		Status:         string(mov.Status),
		MatchScore:     mov.MatchScore,
		Version:        mov.Version,
		CreatedAt:      mov.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      mov.UpdatedAt.Format(time.RFC3339),
	}

	if mov.LinkedObligationID != nil {
		response.LinkedObligationID = mov.LinkedObligationID.String()
	}

	return response
}

// mapObligationToResponse maps an obligation to its response DTO
func mapObligationToResponse(obl *obligation.Obligation) ObligationResponse {
	return ObligationResponse{
		ID:           obl.ID.String(),
		DueDate:      obl.DueDate.Format(time.RFC3339),
		CreditorName: obl.CreditorName,
		Amount:       obl.Amount.String(),
		Description:  obl.Description,
		CreatedAt:    obl.CreatedAt.Format(time.RFC3339),
	}
}

// mapAuditEntryToResponse maps an audit entry to its response DTO
func mapAuditEntryToResponse(entry *audit.Entry) AuditEntryResponse {
	response := AuditEntryResponse{
		EventID:       entry.EventID.String(),
		MovementID:    entry.MovementID.String(),
		AccountRef:    entry.AccountRef.String(),
		Action:        string(entry.Action),
		Score:         entry.Score,
		SkipCategory:  string(entry.SkipCategory),
		SkipReason:    entry.SkipReason,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}

	if entry.ObligationID != nil {
		response.ObligationID = entry.ObligationID.String()
	}

	return response
}
