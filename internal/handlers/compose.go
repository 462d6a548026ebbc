package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"inboxia/internal/compose"
	"inboxia/internal/models"
)

// DraftHandler asks the provider for an email draft
// @Summary Draft an email
// @Tags compose
// @Accept json
// @Produce json
// @Param request body models.DraftRequest true "Draft instructions"
// @Success 200 {object} models.DraftResponse
// @Router /compose/draft [post]
func DraftHandler(composeService *compose.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DraftRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.DraftResponse{Error: "Invalid request body"})
		}
		if req.Instructions == "" {
			return c.JSON(http.StatusBadRequest, models.DraftResponse{Error: "instructions are required"})
		}

		subject, body, err := composeService.Draft(c.Request().Context(), req.To, req.SubjectHint, req.Instructions)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.DraftResponse{Error: fmt.Sprintf("Failed to draft email: %v", err)})
		}

		return c.JSON(http.StatusOK, models.DraftResponse{Subject: subject, Body: body})
	}
}

// SendHandler sends an email and stores the sent copy
// @Summary Send an email
// @Tags compose
// @Accept json
// @Produce json
// @Param request body models.SendRequest true "Message to send"
// @Success 200 {object} models.SendResponse
// @Router /compose/send [post]
func SendHandler(composeService *compose.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SendRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.SendResponse{Error: "Invalid request body"})
		}
		if req.AccountID <= 0 || len(req.To) == 0 {
			return c.JSON(http.StatusBadRequest, models.SendResponse{Error: "account_id and to are required"})
		}

		msg, err := composeService.Send(c.Request().Context(), req.AccountID, req.To, req.Subject, req.Body)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.SendResponse{Error: fmt.Sprintf("Failed to send email: %v", err)})
		}

		return c.JSON(http.StatusOK, models.SendResponse{MessageID: msg.ID})
	}
}
