package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fixify/pkg/auth"
	"fixify/pkg/config"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context, *readpref.ReadPref) error { return f.err }

type meHandler struct{ log *logger.Logger }

func (h meHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/auth/me", middleware.RequireAuth(h.log, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, _ := auth.IdentityFromContext(r.Context())
		_ = httputil.WriteSuccess(w, map[string]string{"id": id.UserID})
	}))
}

func newTestApp(t *testing.T) (*Application, *auth.TokenIssuer) {
	t.Helper()
	cfg := config.NewDefault()
	tokens := auth.NewTokenIssuer(auth.Config{
		JWTSecret: "test-secret-test-secret-test-secret",
		JWTTTL:    time.Hour,
		JWTIssuer: "fixify",
	})

	a := NewApplication(cfg)
	a.SetApp(meHandler{log: cfg.Log}, tokens)
	t.Cleanup(func() {
		a.rateLimiter.Stop()
		a.idempotencyStore.Stop()
	})
	return a, tokens
}

func TestApplication_Routes(t *testing.T) {
	a, tokens := newTestApp(t)
	h := a.Handler()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	})

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Not authorized, no token")
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.Issue(auth.Identity{UserID: "507f1f77bcf86cd799439011", Role: "customer"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "507f1f77bcf86cd799439011")
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestApplication_ShutdownHooksRunInOrder(t *testing.T) {
	a, _ := newTestApp(t)
	var order []string
	a.OnShutdown(func(context.Context) error { order = append(order, "dispatcher"); return nil })
	a.OnShutdown(func(context.Context) error { order = append(order, "producer"); return errors.New("closed") })

	a.gracefulShutdown()

	assert.Equal(t, []string{"dispatcher", "producer"}, order)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{name: "database up", wantCode: http.StatusOK, wantBody: `{"status":"ready","database":"ok"}`},
		{name: "database down", pingErr: errors.New("no reachable servers"), wantCode: http.StatusServiceUnavailable, wantBody: `{"status":"unavailable","database":"error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(fakePinger{err: tt.pingErr}, logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
