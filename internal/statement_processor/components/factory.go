package components

import (
	"log/slog"

	"github.com/statement-reconciliation/internal/config"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/outbox"
	"github.com/statement-reconciliation/internal/matching"
	"github.com/statement-reconciliation/internal/platform/persistence"
	"github.com/statement-reconciliation/internal/statement_processor/service"
)

// CreateIngestionService creates a new IngestionService with all its dependencies.
func CreateIngestionService(
	pgDB *persistence.PostgresDB,
	movementRepo movement.Repository,
	obligationRepo obligation.Repository,
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.IngestionService {
	recorder := NewMovementRecorder(movementRepo, logger)
	suggester := NewMatchSuggester(movementRepo, obligationRepo, outboxRepo, matching.Config{MinScore: cfg.Matching.MinScore}, logger)
	auditRecorder := NewAuditRecorder(auditRepo, logger)

	baseService := service.NewIngestionService(
		pgDB,
		recorder,
		suggester,
		auditRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolIngestionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool ingestion service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
