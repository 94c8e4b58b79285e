package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	sessions := services.NewSessionService("test-secret", time.Hour)
	token, err := sessions.Issue("64f1b2a3c4d5e6f708192a3b", models.RoleUser)
	require.NoError(t, err)

	handler := Auth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, "64f1b2a3c4d5e6f708192a3b", session.UserID)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := services.NewSessionService("test-secret", -time.Minute).Issue("64f1b2a3c4d5e6f708192a3b", models.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: expired})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(okHandler())

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithSession(req.Context(), &services.Session{UserID: "id", Role: models.RoleAdmin})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithSession(req.Context(), &services.Session{UserID: "id", Role: models.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireSubscriber(t *testing.T) {
	users := store.NewMemoryUserStore()
	ctx := context.Background()

	subscriber := &models.User{FullName: "Sub", Email: "sub@x.com", Password: "h", Role: models.RoleUser,
		Subscription: models.Subscription{ID: "sub_1", Status: models.SubscriptionActive}}
	require.NoError(t, users.Create(ctx, subscriber))

	free := &models.User{FullName: "Free", Email: "free@x.com", Password: "h", Role: models.RoleUser}
	require.NoError(t, users.Create(ctx, free))

	admin := &models.User{FullName: "Admin", Email: "admin@x.com", Password: "h", Role: models.RoleAdmin}
	require.NoError(t, users.Create(ctx, admin))

	handler := RequireSubscriber(users)(okHandler())

	serve := func(u *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		reqCtx := WithSession(req.Context(), &services.Session{UserID: u.ID.Hex(), Role: u.Role})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(reqCtx))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(subscriber).Code)
	assert.Equal(t, http.StatusOK, serve(admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(free).Code)

	// Cancellation takes effect immediately, before the session expires.
	require.NoError(t, users.SetSubscriptionStatus(ctx, subscriber.ID.Hex(), models.SubscriptionCancelled))
	assert.Equal(t, http.StatusForbidden, serve(subscriber).Code)
}
