package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inboxia/internal/auth"
	"inboxia/internal/models"
)

// LoginHandler issues a bearer token for valid credentials
// @Summary Log in
// @Description Exchanges email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.LoginResponse
// @Router /auth/login [post]
func LoginHandler(authService *auth.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.LoginResponse{Error: "Invalid request body"})
		}
		if req.Email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, models.LoginResponse{Error: "Email and password are required"})
		}

		token, err := authService.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.LoginResponse{Error: "Invalid credentials"})
		}

		userID, err := authService.ValidateToken(token)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.LoginResponse{Error: "Failed to issue token"})
		}

		return c.JSON(http.StatusOK, models.LoginResponse{
			UserID: userID,
			Email:  req.Email,
			Token:  token,
		})
	}
}
