package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/api_gateway/middleware"
	"github.com/statement-reconciliation/internal/api_gateway/service"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/matching"
)

// ReconciliationHandler handles HTTP requests for candidate generation and
// reconciliation state transitions
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// GenerateCandidates scores an account's unmatched debits against open
// obligations and returns the ranked candidates plus any skipped records
func (h *ReconciliationHandler) GenerateCandidates(c *gin.Context) {
	refParam := c.Param("ref")
	accountRef, err := uuid.Parse(refParam)
	if err != nil {
		h.logger.Error("Invalid account reference", "account_ref", refParam, "error", err)
		RespondBadRequest(c, "Invalid account reference")
		return
	}

	candidates, skipped, err := h.reconciliationService.GenerateCandidates(c.Request.Context(), accountRef)
	if err != nil {
		h.logger.Error("Failed to generate candidates", "account_ref", refParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapCandidatesToResponse(candidates, skipped))
}

// Propose records a suggested link between a movement and an obligation
func (h *ReconciliationHandler) Propose(c *gin.Context) {
	movementID, ok := h.movementID(c)
	if !ok {
		return
	}

	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	obligationID, err := uuid.Parse(req.ObligationID)
	if err != nil {
		RespondBadRequest(c, "Invalid obligation ID")
		return
	}

	mov, err := h.reconciliationService.Propose(c.Request.Context(), movementID, obligationID, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondTransitionError(c, "propose", movementID, err)
		return
	}

	RespondOK(c, mapMovementToResponse(mov))
}

// Accept confirms a link, from a suggestion or as a manual link
func (h *ReconciliationHandler) Accept(c *gin.Context) {
	movementID, ok := h.movementID(c)
	if !ok {
		return
	}

	// The body is optional: accepting a SUGGESTED movement needs no
	// obligation_id, so an empty body binds as an empty request.
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var obligationID *uuid.UUID
	if req.ObligationID != "" {
		id, err := uuid.Parse(req.ObligationID)
		if err != nil {
			RespondBadRequest(c, "Invalid obligation ID")
			return
		}
		obligationID = &id
	}

	mov, err := h.reconciliationService.Accept(c.Request.Context(), movementID, obligationID, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondTransitionError(c, "accept", movementID, err)
		return
	}

	RespondOK(c, mapMovementToResponse(mov))
}

// Reject dismisses a suggestion, returning the movement to unmatched
func (h *ReconciliationHandler) Reject(c *gin.Context) {
	movementID, ok := h.movementID(c)
	if !ok {
		return
	}

	mov, err := h.reconciliationService.Reject(c.Request.Context(), movementID, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondTransitionError(c, "reject", movementID, err)
		return
	}

	RespondOK(c, mapMovementToResponse(mov))
}

// Unlink reverses a confirmed link, returning the movement to unmatched
func (h *ReconciliationHandler) Unlink(c *gin.Context) {
	movementID, ok := h.movementID(c)
	if !ok {
		return
	}

	mov, err := h.reconciliationService.Unlink(c.Request.Context(), movementID, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondTransitionError(c, "unlink", movementID, err)
		return
	}

	RespondOK(c, mapMovementToResponse(mov))
}

func (h *ReconciliationHandler) movementID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid movement ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid movement ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondTransitionError maps transition failures to HTTP statuses: an
// illegal state transition is a conflict, missing resources are 404s,
// anything else is a server error.
func (h *ReconciliationHandler) respondTransitionError(c *gin.Context, operation string, movementID uuid.UUID, err error) {
	var invalidTransition movement.ErrInvalidTransition
	if errors.As(err, &invalidTransition) {
		RespondConflict(c, invalidTransition.Error())
		return
	}

	var movementNotFound movement.ErrMovementNotFound
	if errors.As(err, &movementNotFound) {
		RespondNotFound(c, "Movement not found")
		return
	}

	var obligationNotFound obligation.ErrObligationNotFound
	if errors.As(err, &obligationNotFound) {
		RespondNotFound(c, "Obligation not found")
		return
	}

	if errors.Is(err, movement.ErrObligationIDRequired) {
		RespondBadRequest(c, err.Error())
		return
	}

	h.logger.Error("Reconciliation transition failed",
		"operation", operation,
		"movement_id", movementID.String(),
		"error", err,
	)
	RespondInternalError(c)
}

// mapCandidatesToResponse maps generation output to the response DTO
func mapCandidatesToResponse(candidates []matching.Candidate, skipped []matching.SkippedRecord) CandidateListResponse {
	response := CandidateListResponse{
		Candidates: make([]CandidateResponse, 0, len(candidates)),
	}

	for _, cand := range candidates {
		response.Candidates = append(response.Candidates, CandidateResponse{
			MovementID:   cand.MovementID.String(),
			ObligationID: cand.ObligationID.String(),
			Score:        cand.Score,
			Reasons:      cand.Reasons,
		})
	}

	for _, skip := range skipped {
		item := SkippedRecordResponse{Reason: skip.Reason}
		if skip.MovementID != uuid.Nil {
			item.MovementID = skip.MovementID.String()
		}
		if skip.ObligationID != uuid.Nil {
			item.ObligationID = skip.ObligationID.String()
		}
		response.Skipped = append(response.Skipped, item)
	}

	return response
}
