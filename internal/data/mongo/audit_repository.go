// Package mongo provides the MongoDB implementation of the audit trail
// repository. Every reconciliation transition and ingestion diagnostic is
// recorded as an append-only document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/statement-reconciliation/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "reconciliation_audit"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new audit entry after checking for duplicates.
// Returns ErrDuplicateEntry if an entry with the same event ID exists, which
// makes audit writes idempotent across retried transitions.
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	existingEntry, err := r.getByEventID(ctx, entry.EventID)
	var notFound audit.ErrEntryNotFound
	if err != nil && !errors.As(err, &notFound) {
		r.logger.Error("Failed to check for existing audit entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing audit entry: %w", err)
	}

	if existingEntry != nil {
		return audit.ErrDuplicateEntry{EventID: entry.EventID}
	}

	_, err = collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to create audit entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// getByEventID retrieves an audit entry by its event ID.
// Returns ErrEntryNotFound if no entry exists for the given event.
func (r *AuditRepository) getByEventID(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"event_id": eventID}
	var entry audit.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get audit entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return &entry, nil
}

// GetByMovementID retrieves paginated audit entries for a movement.
// Results are sorted by creation time in descending order (newest first).
func (r *AuditRepository) GetByMovementID(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"movement_id": movementID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries",
			"movement_id", movementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries",
			"movement_id", movementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// CountByMovementID counts the total number of audit entries for a movement
func (r *AuditRepository) CountByMovementID(ctx context.Context, movementID uuid.UUID) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"movement_id": movementID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count audit entries",
			"movement_id", movementID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
