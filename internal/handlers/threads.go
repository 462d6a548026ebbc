package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"inboxia/internal/cache"
	"inboxia/internal/models"
	"inboxia/internal/store"
)

// threadListTTL bounds staleness of the cached thread list
const threadListTTL = 30 * time.Second

// ThreadsHandler lists an account's threads, most recently active first.
// Results are cached briefly since the list is hit on every mailbox view.
// @Summary List threads
// @Tags threads
// @Produce json
// @Param id path int true "Account id"
// @Param folder_id query int false "Restrict to threads with messages in one folder"
// @Success 200 {array} models.ThreadOut
// @Router /accounts/{id}/threads [get]
func ThreadsHandler(threads *store.ThreadStore, threadCache *cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		accountID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid account id"})
		}

		var folderID *int
		cacheKey := fmt.Sprintf("threads:%d", accountID)
		if raw := c.QueryParam("folder_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid folder_id"})
			}
			folderID = &id
			cacheKey = fmt.Sprintf("threads:%d:%d", accountID, id)
		}

		if cached, ok := threadCache.Get(cacheKey); ok {
			return c.JSON(http.StatusOK, cached)
		}

		list, err := threads.List(c.Request().Context(), accountID, folderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list threads: %v", err)})
		}

		out := make([]models.ThreadOut, 0, len(list))
		for _, t := range list {
			out = append(out, models.ThreadOut{
				ID:          t.ID,
				SubjectNorm: t.SubjectNorm,
				LastDate:    t.LastDate,
			})
		}

		threadCache.Set(cacheKey, out, threadListTTL)
		return c.JSON(http.StatusOK, out)
	}
}

// ThreadMessagesHandler returns one thread's messages in sent order
// @Summary Get thread messages
// @Tags threads
// @Produce json
// @Param id path int true "Thread id"
// @Success 200 {object} models.ThreadMessagesOut
// @Router /threads/{id}/messages [get]
func ThreadMessagesHandler(messages *store.MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		threadID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid thread id"})
		}

		list, err := messages.ListByThread(c.Request().Context(), threadID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to load thread: %v", err)})
		}

		return c.JSON(http.StatusOK, models.ThreadMessagesOut{
			ThreadID: threadID,
			Messages: list,
		})
	}
}
