package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inboxia/internal/models"
)

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func TestLoginAndValidate(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	users := &fakeUsers{user: &models.User{ID: 42, Email: "alice@example.com", PasswordHash: hash}}
	s := New(users, "test-signing-key")

	token, err := s.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestLoginFailures(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	users := &fakeUsers{user: &models.User{ID: 1, Email: "alice@example.com", PasswordHash: hash}}
	s := New(users, "test-signing-key")

	_, err = s.Login(context.Background(), "alice@example.com", "wrong")
	assert.EqualError(t, err, "invalid credentials")

	_, err = s.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.EqualError(t, err, "invalid credentials", "unknown email fails the same way as a wrong password")
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := New(&fakeUsers{}, "test-signing-key")
	other := New(&fakeUsers{}, "different-key")

	token, err := other.IssueToken(1)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	s := New(&fakeUsers{}, "test-signing-key")
	token, err := s.IssueToken(7)
	require.NoError(t, err)

	e := echo.New()
	handler := s.Middleware()(func(c echo.Context) error {
		id, ok := UserID(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, map[string]int{"user_id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	err = handler(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "7")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	err = handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
