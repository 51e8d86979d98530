package handler

import (
	"net/http"

	"fixify/internal/reviews/service"
	"fixify/pkg/auth"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"
	"fixify/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	review, err := h.service.Create(r.Context(), id.UserID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) ProviderReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ProviderReviews", err)
		return
	}

	viewer, _ := auth.IdentityFromContext(r.Context())
	status := model.ReviewStatus(r.URL.Query().Get("status"))
	reviews, total, err := h.service.ProviderReviews(r.Context(), viewer, ps.ByName("providerId"), status, limit, offset)
	if err != nil {
		h.writeError(w, "ProviderReviews", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ProviderReviews", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var reply model.ReviewReply
	if err := httputil.DecodeJSON(r, &reply); err != nil {
		h.writeError(w, "Respond", err)
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	review, err := h.service.Respond(r.Context(), id.UserID, ps.ByName("id"), &reply)
	if err != nil {
		h.writeError(w, "Respond", err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Respond", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	reviews, total, err := h.service.List(r.Context(), model.ReviewStatus(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var m model.ReviewModeration
	if err := httputil.DecodeJSON(r, &m); err != nil {
		h.writeError(w, "Moderate", err)
		return
	}

	review, err := h.service.Moderate(r.Context(), ps.ByName("id"), &m)
	if err != nil {
		h.writeError(w, "Moderate", err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Moderate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	admin := string(model.RoleAdmin)

	router.POST("/api/v1/reviews", middleware.RequireAuth(h.log, h.Create))
	router.GET("/api/v1/reviews", middleware.RequireRole(h.log, h.List, admin))
	router.GET("/api/v1/reviews/provider/:providerId", h.ProviderReviews)
	router.PUT("/api/v1/reviews/:id/response", middleware.RequireRole(h.log, h.Respond, string(model.RoleProvider)))
	router.PUT("/api/v1/reviews/:id/status", middleware.RequireRole(h.log, h.Moderate, admin))
}
