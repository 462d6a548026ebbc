package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"inboxia/internal/models"
	"inboxia/internal/store"
)

// AccountsHandler lists the configured mail accounts
// @Summary List mail accounts
// @Tags mailbox
// @Produce json
// @Success 200 {array} models.MailAccount
// @Router /accounts [get]
func AccountsHandler(accounts *store.AccountStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := accounts.List(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list accounts: %v", err)})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// FoldersHandler lists the folders of one account
// @Summary List folders
// @Tags mailbox
// @Produce json
// @Param id path int true "Account id"
// @Success 200 {array} models.Folder
// @Router /accounts/{id}/folders [get]
func FoldersHandler(folders *store.FolderStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		accountID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid account id"})
		}

		list, err := folders.ListByAccount(c.Request().Context(), accountID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list folders: %v", err)})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// MessagesHandler lists messages of one account, newest first
// @Summary List messages
// @Tags mailbox
// @Produce json
// @Param id path int true "Account id"
// @Param folder_id query int false "Restrict to one folder"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Message
// @Router /accounts/{id}/messages [get]
func MessagesHandler(messages *store.MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		accountID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid account id"})
		}

		var folderID *int
		if raw := c.QueryParam("folder_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid folder_id"})
			}
			folderID = &id
		}

		limit := intQueryParam(c, "limit", 50)
		offset := intQueryParam(c, "offset", 0)

		list, err := messages.List(c.Request().Context(), accountID, folderID, limit, offset)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list messages: %v", err)})
		}
		return c.JSON(http.StatusOK, list)
	}
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
