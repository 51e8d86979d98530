package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fixify/internal/admin/service"
	"fixify/pkg/auth"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/logger"
	"fixify/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAdminService struct {
	lastQuery service.ListQuery
	lastLimit int
}

func (m *mockAdminService) Stats(context.Context) (*model.PlatformStats, error) {
	return &model.PlatformStats{TotalUsers: 3, TotalRevenue: 150}, nil
}

func (m *mockAdminService) Activity(context.Context) ([]*model.ActivityItem, error) {
	return []*model.ActivityItem{{Type: model.ActivityUser}}, nil
}

func (m *mockAdminService) Users(_ context.Context, q service.ListQuery, limit int, _ int64) ([]*model.User, int64, error) {
	m.lastQuery, m.lastLimit = q, limit
	if q.Filter == "bad" {
		return nil, 0, apperrors.InvalidInput("Invalid user filter: bad")
	}
	return []*model.User{{ID: "u1"}}, 1, nil
}

func (m *mockAdminService) Providers(_ context.Context, q service.ListQuery, limit int, _ int64) ([]*model.User, int64, error) {
	m.lastQuery, m.lastLimit = q, limit
	return []*model.User{}, 0, nil
}

func (m *mockAdminService) VerifyProvider(_ context.Context, id string) (*model.User, error) {
	if id != "p1" {
		return nil, apperrors.NotFound("Provider")
	}
	return &model.User{ID: id, Role: model.RoleProvider, ProviderInfo: &model.ProviderInfo{Verified: true}}, nil
}

func (m *mockAdminService) Bookings(_ context.Context, q service.ListQuery, limit int, _ int64) ([]*model.BookingView, int64, error) {
	m.lastQuery, m.lastLimit = q, limit
	return []*model.BookingView{}, 0, nil
}

func (m *mockAdminService) Reviews(_ context.Context, q service.ListQuery, limit int, _ int64) ([]*model.ReviewView, int64, error) {
	m.lastQuery, m.lastLimit = q, limit
	return []*model.ReviewView{}, 0, nil
}

func (m *mockAdminService) ModerateReview(_ context.Context, id string, mod *model.ReviewModeration) (*model.ReviewView, error) {
	return &model.ReviewView{Review: &model.Review{ID: id, Status: mod.Status}}, nil
}

func call(svc *mockAdminService, role, method, path, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewAdminHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "x", Role: role}))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/stats"},
		{http.MethodGet, "/api/v1/admin/activity"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodGet, "/api/v1/admin/providers"},
		{http.MethodPut, "/api/v1/admin/providers/p1/verify"},
		{http.MethodGet, "/api/v1/admin/bookings"},
		{http.MethodGet, "/api/v1/admin/reviews"},
		{http.MethodPut, "/api/v1/admin/reviews/r1/status"},
	}

	for _, rt := range routes {
		if rec := call(&mockAdminService{}, "", rt.method, rt.path, "{}"); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s anonymous: expected 401, got %d", rt.method, rt.path, rec.Code)
		}
		if rec := call(&mockAdminService{}, "provider", rt.method, rt.path, "{}"); rec.Code != http.StatusForbidden {
			t.Errorf("%s %s provider: expected 403, got %d", rt.method, rt.path, rec.Code)
		}
	}
}

func TestStats(t *testing.T) {
	rec := call(&mockAdminService{}, "admin", http.MethodGet, "/api/v1/admin/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data model.PlatformStats `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.TotalUsers != 3 || resp.Data.TotalRevenue != 150 {
		t.Errorf("unexpected stats %+v", resp.Data)
	}
}

func TestUsers_PassesFilterAndSearch(t *testing.T) {
	svc := &mockAdminService{}
	rec := call(svc, "admin", http.MethodGet, "/api/v1/admin/users?filter=customers&search=maria&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastQuery.Filter != "customers" || svc.lastQuery.Search != "maria" || svc.lastLimit != 5 {
		t.Errorf("unexpected query %+v limit %d", svc.lastQuery, svc.lastLimit)
	}

	rec = call(svc, "admin", http.MethodGet, "/api/v1/admin/users?filter=bad", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestVerifyProvider(t *testing.T) {
	rec := call(&mockAdminService{}, "admin", http.MethodPut, "/api/v1/admin/providers/p1/verify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Provider verified successfully") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = call(&mockAdminService{}, "admin", http.MethodPut, "/api/v1/admin/providers/c1/verify", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestModerateReview(t *testing.T) {
	rec := call(&mockAdminService{}, "admin", http.MethodPut, "/api/v1/admin/reviews/r1/status", `{"status":"flagged"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"flagged"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
