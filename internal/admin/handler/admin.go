package handler

import (
	"net/http"

	"fixify/internal/admin/service"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"
	"fixify/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(service service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

func listQuery(r *http.Request) service.ListQuery {
	q := r.URL.Query()
	return service.ListQuery{Filter: q.Get("filter"), Search: q.Get("search")}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}
	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items, err := h.service.Activity(r.Context())
	if err != nil {
		h.writeError(w, "Activity", err)
		return
	}
	if err := httputil.WriteSuccess(w, items); err != nil {
		h.log.Error("failed to write success response", "handler", "Activity", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Users", err)
		return
	}

	users, total, err := h.service.Users(r.Context(), listQuery(r), limit, offset)
	if err != nil {
		h.writeError(w, "Users", err)
		return
	}
	if err := httputil.WritePaginated(w, users, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Users", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) Providers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Providers", err)
		return
	}

	providers, total, err := h.service.Providers(r.Context(), listQuery(r), limit, offset)
	if err != nil {
		h.writeError(w, "Providers", err)
		return
	}
	if err := httputil.WritePaginated(w, providers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Providers", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) VerifyProvider(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider, err := h.service.VerifyProvider(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "VerifyProvider", err)
		return
	}
	if err := httputil.WriteMessage(w, "Provider verified successfully", provider); err != nil {
		h.log.Error("failed to write message response", "handler", "VerifyProvider", "operation", "WriteMessage", "error", err)
	}
}

func (h *AdminHandler) Bookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Bookings", err)
		return
	}

	bookings, total, err := h.service.Bookings(r.Context(), listQuery(r), limit, offset)
	if err != nil {
		h.writeError(w, "Bookings", err)
		return
	}
	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Bookings", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) Reviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Reviews", err)
		return
	}

	reviews, total, err := h.service.Reviews(r.Context(), listQuery(r), limit, offset)
	if err != nil {
		h.writeError(w, "Reviews", err)
		return
	}
	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Reviews", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) ModerateReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var m model.ReviewModeration
	if err := httputil.DecodeJSON(r, &m); err != nil {
		h.writeError(w, "ModerateReview", err)
		return
	}

	review, err := h.service.ModerateReview(r.Context(), ps.ByName("id"), &m)
	if err != nil {
		h.writeError(w, "ModerateReview", err)
		return
	}
	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "ModerateReview", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// RegisterRoutes mounts every admin endpoint behind the admin role.
func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	admin := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.log, next, string(model.RoleAdmin))
	}

	router.GET("/api/v1/admin/stats", admin(h.Stats))
	router.GET("/api/v1/admin/activity", admin(h.Activity))
	router.GET("/api/v1/admin/users", admin(h.Users))
	router.GET("/api/v1/admin/providers", admin(h.Providers))
	router.PUT("/api/v1/admin/providers/:id/verify", admin(h.VerifyProvider))
	router.GET("/api/v1/admin/bookings", admin(h.Bookings))
	router.GET("/api/v1/admin/reviews", admin(h.Reviews))
	router.PUT("/api/v1/admin/reviews/:id/status", admin(h.ModerateReview))
}
