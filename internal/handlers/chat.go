package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"inboxia/internal/metrics"
	"inboxia/internal/models"
	"inboxia/internal/provider"
	"inboxia/internal/retrieval"
)

// ContextRetriever fetches ranked fragments for a query
type ContextRetriever interface {
	Retrieve(ctx context.Context, accountID int, query string, selectedThreadID *int) ([]retrieval.Fragment, error)
}

// ChatHandler answers a question from retrieved message context
// @Summary Ask a question about your mail
// @Description Retrieves relevant message fragments, builds a grounded prompt and returns the generated answer with citations
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Query"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.ChatResponse
// @Router /chat [post]
func ChatHandler(retriever ContextRetriever, p provider.Provider) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ChatRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		}
		if req.AccountID <= 0 {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{Error: "account_id is required"})
		}
		if req.Query == "" {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{Error: "query cannot be empty"})
		}

		ctx := c.Request().Context()
		fragments, err := retriever.Retrieve(ctx, req.AccountID, req.Query, req.SelectedThreadID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ChatResponse{Error: fmt.Sprintf("Retrieval failed: %v", err)})
		}

		prompt, citations := retrieval.BuildPrompt(req.Query, fragments)
		answer, err := p.Chat(ctx, prompt)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ChatResponse{Error: fmt.Sprintf("Generation failed: %v", err)})
		}

		metrics.ChatQueries.Inc()
		return c.JSON(http.StatusOK, models.ChatResponse{
			Answer:    answer,
			Citations: citations,
		})
	}
}
