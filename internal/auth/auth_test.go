package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/ticket-service/internal/domain"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)

	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleHOD)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, domain.RoleHOD, claims.Role)
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	other := NewTokenManager("other", 15)
	foreign, _, err := other.GenerateToken("user-1", domain.RoleStudent)
	require.NoError(t, err)

	tm := NewTokenManager("secret", 15)
	_, err = tm.ParseToken(foreign)
	assert.Error(t, err)

	expiredManager := &TokenManager{secret: []byte("secret"), ttl: -time.Minute}
	expired, _, err := expiredManager.GenerateToken("user-1", domain.RoleStudent)
	require.NoError(t, err)
	_, err = tm.ParseToken(expired)
	assert.Error(t, err)
}

type stubUsers map[string]domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func newTestApp(tm *TokenManager, users UserLoader, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return errors.New("no user in context")
		}
		return c.SendString(user.ID)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	users := stubUsers{
		"student-1": {ID: "student-1", Role: domain.RoleStudent, Active: true},
		"hod-1":     {ID: "hod-1", Role: domain.RoleHOD, Active: true},
		"gone-1":    {ID: "gone-1", Role: domain.RoleStudent, Active: false},
	}
	tokenFor := func(id string) string {
		token, _, err := tm.GenerateToken(id, "")
		require.NoError(t, err)
		return "Bearer " + token
	}

	tests := []struct {
		name   string
		header string
		guards []fiber.Handler
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", nil, http.StatusUnauthorized},
		{"unknown user", tokenFor("nobody"), nil, http.StatusUnauthorized},
		{"inactive user", tokenFor("gone-1"), nil, http.StatusUnauthorized},
		{"valid", tokenFor("student-1"), nil, http.StatusOK},
		{"handler guard rejects student", tokenFor("student-1"), []fiber.Handler{RequireHandler()}, http.StatusForbidden},
		{"handler guard admits hod", tokenFor("hod-1"), []fiber.Handler{RequireHandler()}, http.StatusOK},
		{"role guard", tokenFor("hod-1"), []fiber.Handler{RequireRole(domain.RoleCampusAdmin)}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tm, users, tt.guards...)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
