package handler

import (
	"net/http"
	"strconv"

	"fixify/internal/providers/service"
	"fixify/pkg/auth"
	apperrors "fixify/pkg/errors"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"
	"fixify/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	q := model.ProviderQuery{
		Category:    query.Get("category"),
		ServiceArea: query.Get("serviceArea"),
		Sort:        query.Get("sort"),
	}
	if query.Get("verified") == "true" {
		verified := true
		q.Verified = &verified
	}
	if raw := query.Get("minRating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("minRating must be a number")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		q.MinRating = &rating
	}

	providers, err := h.service.List(r.Context(), q)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, providers); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ProfileUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	provider, err := h.service.Update(r.Context(), id.UserID, ps.ByName("id"), &update)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers", h.List)
	router.GET("/api/v1/providers/:id", h.GetByID)
	router.PUT("/api/v1/providers/:id", middleware.RequireRole(h.log, h.Update, string(model.RoleProvider)))
}
