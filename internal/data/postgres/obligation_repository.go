package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/platform/persistence"
)

// ObligationRepository implements the obligation.Repository interface for PostgreSQL.
// Obligations are owned by the payables subsystem; this repository only reads them.
type ObligationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewObligationRepository creates a new PostgreSQL obligation repository
func NewObligationRepository(logger *slog.Logger, db *persistence.PostgresDB) obligation.Repository {
	return &ObligationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves an obligation by its ID
func (r *ObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	query := `
		SELECT id, due_date, creditor_name, amount, description, created_at
		FROM obligations
		WHERE id = $1
	`

	var obl obligation.Obligation
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&obl.ID,
		&obl.DueDate,
		&obl.CreditorName,
		&obl.Amount,
		&obl.Description,
		&obl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, obligation.ErrObligationNotFound{ObligationID: id}
		}
		r.logger.Error("Failed to get obligation", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}

	return &obl, nil
}

// ListOpen returns obligations not currently linked by any confirmed movement.
// These are the obligations the candidate generator scores against.
func (r *ObligationRepository) ListOpen(ctx context.Context) ([]*obligation.Obligation, error) {
	query := `
		SELECT o.id, o.due_date, o.creditor_name, o.amount, o.description, o.created_at
		FROM obligations o
		WHERE NOT EXISTS (
			SELECT 1 FROM movements m
			WHERE m.linked_obligation_id = o.id AND m.status = 'CONFIRMED'
		)
		ORDER BY o.due_date, o.id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list open obligations", "error", err)
		return nil, fmt.Errorf("failed to list open obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*obligation.Obligation
	for rows.Next() {
		var obl obligation.Obligation
		err := rows.Scan(
			&obl.ID,
			&obl.DueDate,
			&obl.CreditorName,
			&obl.Amount,
			&obl.Description,
			&obl.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, &obl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate obligations: %w", err)
	}

	return obligations, nil
}
