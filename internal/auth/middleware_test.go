package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (s *stubUserRepo) Create(context.Context, *domain.User) error { return nil }
func (s *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) RecordLogin(context.Context, string, time.Time) error { return nil }

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
}

func setupMiddleware(active bool, role domain.Role) (*Middleware, string) {
	tokens := NewTokenManager("test-secret", 60)
	repo := &stubUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Name: "Ravi Kumar", Email: "ravi@example.com", Role: role, Active: active},
	}}
	token, _, _ := tokens.GenerateToken("user-1", role)
	return NewMiddleware(tokens, repo), token
}

func identityEcho(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return c.SendString("anonymous")
	}
	return c.SendString(identity.UserID)
}

func TestHandle_ValidToken(t *testing.T) {
	mw, token := setupMiddleware(true, domain.RoleCitizen)
	app := newTestApp()
	app.Get("/", mw.Handle, identityEcho)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandle_Rejections(t *testing.T) {
	mw, _ := setupMiddleware(true, domain.RoleCitizen)
	app := newTestApp()
	app.Get("/", mw.Handle, identityEcho)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestHandle_DeactivatedUser(t *testing.T) {
	mw, token := setupMiddleware(false, domain.RoleCitizen)
	app := newTestApp()
	app.Get("/", mw.Handle, identityEcho)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleOptional(t *testing.T) {
	mw, token := setupMiddleware(true, domain.RoleCitizen)
	app := newTestApp()
	app.Get("/", mw.HandleOptional, identityEcho)

	// no header passes through anonymously
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// a valid token resolves the identity
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// a present but invalid token is still rejected
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	mw, token := setupMiddleware(true, domain.RoleStaff)
	app := newTestApp()
	app.Get("/staff", mw.Handle, RequireRole(domain.RoleStaff, domain.RoleAdmin), identityEcho)
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), identityEcho)
	app.Get("/open", RequireRole(), identityEcho)

	req := httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// RequireRole without Handle sees no identity at all
	resp, err = app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
