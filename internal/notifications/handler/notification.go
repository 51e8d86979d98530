package handler

import (
	"net/http"

	"fixify/internal/notifications/service"
	"fixify/pkg/auth"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log,
	}
}

func userID(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.UserID
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	unread := httputil.QueryBool(r, "unread")

	notifications, total, err := h.service.List(r.Context(), userID(r), unread != nil && *unread, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, notifications, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	count, err := h.service.UnreadCount(r.Context(), userID(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UnreadCount", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"unread_count": count}); err != nil {
		h.log.Error("failed to write success response", "handler", "UnreadCount", "operation", "WriteSuccess", "error", err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.MarkRead(r.Context(), userID(r), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkRead", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteMessage(w, "Notification marked as read", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "MarkRead", "operation", "WriteMessage", "error", err)
	}
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := h.service.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkAllRead", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteMessage(w, "All notifications marked as read", map[string]int64{"updated": n}); err != nil {
		h.log.Error("failed to write message response", "handler", "MarkAllRead", "operation", "WriteMessage", "error", err)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications", middleware.RequireAuth(h.log, h.List))
	router.GET("/api/v1/notifications/unread-count", middleware.RequireAuth(h.log, h.UnreadCount))
	router.PUT("/api/v1/notifications/:id/read", middleware.RequireAuth(h.log, h.MarkRead))
	router.PUT("/api/v1/notifications/:id", middleware.RequireAuth(h.log, h.bulk))
}

// bulk serves PUT /api/v1/notifications/read-all. httprouter cannot hold a
// static segment beside the :id wildcard, so the action name arrives as :id.
func (h *NotificationHandler) bulk(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "read-all" {
		h.MarkAllRead(w, r, ps)
		return
	}
	http.NotFound(w, r)
}
