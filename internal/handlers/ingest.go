package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"inboxia/internal/models"
	"inboxia/internal/queue"
)

// EventPublisher dispatches work to the broker
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// IngestHandler queues an ingestion run for one account. The worker does
// the sync; this endpoint only acknowledges the dispatch.
// @Summary Trigger account ingestion
// @Tags ingest
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "Account to sync"
// @Success 202 {object} models.IngestResponse
// @Router /ingest [post]
func IngestHandler(producer EventPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.IngestRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.IngestResponse{Error: "Invalid request body"})
		}
		if req.AccountID <= 0 {
			return c.JSON(http.StatusBadRequest, models.IngestResponse{Error: "account_id is required"})
		}

		event := queue.NewAccountIngestEvent(req.AccountID)
		if err := producer.Publish(queue.RoutingKeyAccountIngest, event); err != nil {
			return c.JSON(http.StatusInternalServerError, models.IngestResponse{Error: fmt.Sprintf("Failed to queue ingestion: %v", err)})
		}

		return c.JSON(http.StatusAccepted, models.IngestResponse{Status: "queued"})
	}
}
