package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
)

// MovementServiceImpl implements the MovementService interface
type MovementServiceImpl struct {
	movementRepo movement.Repository
	auditRepo    audit.Repository
	logger       *slog.Logger
}

// NewMovementService creates a new movement query service
func NewMovementService(logger *slog.Logger, movementRepo movement.Repository, auditRepo audit.Repository) MovementService {
	return &MovementServiceImpl{
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// GetMovementByID retrieves a movement by its ID. Returns nil if not found
func (s *MovementServiceImpl) GetMovementByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	res, err := s.movementRepo.GetByID(ctx, id)
	if err != nil {
		var notFound movement.ErrMovementNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Movement not found", "movement_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get movement by ID", "movement_id", id.String(), "error", err)
		return nil, err
	}
	return res, nil
}

// GetMovementsByAccountRef retrieves a paginated list of movements for an account.
// Returns movements, total count, and any error.
func (s *MovementServiceImpl) GetMovementsByAccountRef(ctx context.Context, accountRef uuid.UUID, page, perPage int) ([]*movement.Movement, int64, error) {
	offset := (page - 1) * perPage

	movements, err := s.movementRepo.GetByAccountRef(ctx, accountRef, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.movementRepo.CountByAccountRef(ctx, accountRef)
	if err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// GetAuditTrail retrieves the paginated audit trail of a movement, newest first
func (s *MovementServiceImpl) GetAuditTrail(ctx context.Context, movementID uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.auditRepo.GetByMovementID(ctx, movementID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByMovementID(ctx, movementID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ObligationServiceImpl implements the ObligationService interface
type ObligationServiceImpl struct {
	obligationRepo obligation.Repository
}

// NewObligationService creates a new obligation query service
func NewObligationService(obligationRepo obligation.Repository) ObligationService {
	return &ObligationServiceImpl{
		obligationRepo: obligationRepo,
	}
}

// ListOpenObligations returns obligations still available for matching
func (s *ObligationServiceImpl) ListOpenObligations(ctx context.Context) ([]*obligation.Obligation, error) {
	return s.obligationRepo.ListOpen(ctx)
}
