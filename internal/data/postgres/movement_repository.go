// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the reconciliation engine.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// MovementRepository implements the movement.Repository interface for PostgreSQL
type MovementRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewMovementRepository(logger *slog.Logger, db *persistence.PostgresDB) movement.Repository {
	return &MovementRepository{
		querier: db.Pool(), // Initialize with the pool
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls. The returned repository will use the provided
// transaction for all database operations.
func (r *MovementRepository) WithTx(tx pgx.Tx) movement.Repository {
	return &MovementRepository{
		querier: tx, // Use the transaction
		logger:  r.logger,
	}
}

// Create stores a new movement. A unique index on (account_ref, external_doc_ref)
// guards against re-ingesting the same bank document; that violation is mapped
// to ErrDuplicateMovement so callers can treat it as a dedupe skip.
func (r *MovementRepository) Create(ctx context.Context, mov *movement.Movement) error {
	query := `
		INSERT INTO movements (id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		mov.ID,
		mov.AccountRef,
		mov.Date,
		mov.Description,
		mov.Amount,
		mov.Direction,
		mov.ExternalDocRef,
		mov.Status,
		mov.LinkedObligationID,
		mov.MatchScore,
		mov.Version,
		mov.CreatedAt,
		mov.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return movement.ErrDuplicateMovement{AccountRef: mov.AccountRef, ExternalDocRef: mov.ExternalDocRef}
		}
		r.logger.Error("Failed to create movement", "error", err)
		return fmt.Errorf("failed to create movement: %w", err)
	}

	return nil
}

// GetByID retrieves a movement by its ID
func (r *MovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := `
		SELECT id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at
		FROM movements
		WHERE id = $1
	`

	mov, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, movement.ErrMovementNotFound{MovementID: id}
		}
		r.logger.Error("Failed to get movement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}

	return mov, nil
}

// GetByExternalDocRef retrieves a movement by its bank document reference within
// an account. Returns nil, nil when no movement carries the reference.
func (r *MovementRepository) GetByExternalDocRef(ctx context.Context, accountRef uuid.UUID, externalDocRef string) (*movement.Movement, error) {
	query := `
		SELECT id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at
		FROM movements
		WHERE account_ref = $1 AND external_doc_ref = $2
	`

	mov, err := r.scanRow(r.querier.QueryRow(ctx, query, accountRef, externalDocRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No movement with this document reference yet
		}
		r.logger.Error("Failed to get movement by document reference", "accountRef", accountRef.String(), "externalDocRef", externalDocRef, "error", err)
		return nil, fmt.Errorf("failed to get movement by document reference: %w", err)
	}

	return mov, nil
}

// GetByAccountRef retrieves movements for an account, newest first, with pagination
func (r *MovementRepository) GetByAccountRef(ctx context.Context, accountRef uuid.UUID, limit, offset int) ([]*movement.Movement, error) {
	query := `
		SELECT id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at
		FROM movements
		WHERE account_ref = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountRef, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list movements", "accountRef", accountRef.String(), "error", err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// CountByAccountRef returns the total movement count for an account
func (r *MovementRepository) CountByAccountRef(ctx context.Context, accountRef uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM movements WHERE account_ref = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountRef).Scan(&count); err != nil {
		r.logger.Error("Failed to count movements", "accountRef", accountRef.String(), "error", err)
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}

	return count, nil
}

// ListUnmatchedDebits returns the movements eligible for candidate generation:
// direction DEBIT, status UNMATCHED. Ordering is stable so repeated generation
// runs see the same input sequence.
func (r *MovementRepository) ListUnmatchedDebits(ctx context.Context, accountRef uuid.UUID) ([]*movement.Movement, error) {
	query := `
		SELECT id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at
		FROM movements
		WHERE account_ref = $1 AND direction = 'DEBIT' AND status = 'UNMATCHED'
		ORDER BY id
	`

	rows, err := r.querier.Query(ctx, query, accountRef)
	if err != nil {
		r.logger.Error("Failed to list unmatched debits", "accountRef", accountRef.String(), "error", err)
		return nil, fmt.Errorf("failed to list unmatched debits: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// Update persists the reconciliation state of a movement using optimistic locking.
// Returns ErrConcurrentModification if the movement was modified between read and update.
func (r *MovementRepository) Update(ctx context.Context, mov *movement.Movement) error {
	query := `
		UPDATE movements
		SET status = $1, linked_obligation_id = $2, match_score = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7
	`

	result, err := r.querier.Exec(ctx, query,
		mov.Status,
		mov.LinkedObligationID,
		mov.MatchScore,
		mov.Version,
		mov.UpdatedAt,
		mov.ID,
		mov.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update movement", "id", mov.ID.String(), "error", err)
		return fmt.Errorf("failed to update movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return movement.ErrConcurrentModification{MovementID: mov.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the movement and returns its current state.
// This should be used within a transaction when applying reconciliation transitions,
// so racing operations serialize and the loser observes the post-transition state.
func (r *MovementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := `
		SELECT id, account_ref, date, description, amount, direction, external_doc_ref,
			status, linked_obligation_id, match_score, version, created_at, updated_at
		FROM movements
		WHERE id = $1
		FOR UPDATE
	`

	mov, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, movement.ErrMovementNotFound{MovementID: id}
		}
		r.logger.Error("Failed to lock movement for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock movement for update: %w", err)
	}

	return mov, nil
}

func (r *MovementRepository) scanRow(row pgx.Row) (*movement.Movement, error) {
	var mov movement.Movement
	err := row.Scan(
		&mov.ID,
		&mov.AccountRef,
		&mov.Date,
		&mov.Description,
		&mov.Amount,
		&mov.Direction,
		&mov.ExternalDocRef,
		&mov.Status,
		&mov.LinkedObligationID,
		&mov.MatchScore,
		&mov.Version,
		&mov.CreatedAt,
		&mov.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mov, nil
}

func (r *MovementRepository) scanRows(rows pgx.Rows) ([]*movement.Movement, error) {
	var movements []*movement.Movement
	for rows.Next() {
		mov, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, mov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movements: %w", err)
	}
	return movements, nil
}
