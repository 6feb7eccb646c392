package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/statement-reconciliation/internal/api_gateway/handler"
	"github.com/statement-reconciliation/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	statementHandler *handler.StatementHandler,
	movementHandler *handler.MovementHandler,
	reconciliationHandler *handler.ReconciliationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Statement intake
		statements := v1.Group("/statements")
		{
			statements.POST("", statementHandler.Submit)
		}

		// Movement queries and reconciliation transitions
		movements := v1.Group("/movements")
		{
			movements.GET("/:id", movementHandler.GetByID)
			movements.GET("/:id/audit", movementHandler.GetAuditTrail)
			movements.POST("/:id/propose", reconciliationHandler.Propose)
			movements.POST("/:id/accept", reconciliationHandler.Accept)
			movements.POST("/:id/reject", reconciliationHandler.Reject)
			movements.POST("/:id/unlink", reconciliationHandler.Unlink)
		}

		// Account-scoped views
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:ref/movements", movementHandler.GetByAccountRef)
			accounts.GET("/:ref/candidates", reconciliationHandler.GenerateCandidates)
		}

		// Open obligations available for matching
		obligations := v1.Group("/obligations")
		{
			obligations.GET("", movementHandler.ListObligations)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
