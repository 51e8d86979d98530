package handler

import (
	"net/http"

	"fixify/internal/messages/service"
	"fixify/pkg/auth"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"fixify/pkg/middleware"
	"fixify/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// conversationsSegment shares the :otherUserId position in the router tree.
const conversationsSegment = "conversations"

type MessageHandler struct {
	service service.MessageService
	log     *logger.Logger
}

func NewMessageHandler(service service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log,
	}
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, _ := auth.IdentityFromContext(r.Context())

	conversations, err := h.service.Conversations(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, "Conversations", err)
		return
	}

	if err := httputil.WriteSuccess(w, conversations); err != nil {
		h.log.Error("failed to write success response", "handler", "Conversations", "operation", "WriteSuccess", "error", err)
	}
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("otherUserId") == conversationsSegment {
		h.Conversations(w, r, ps)
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	messages, err := h.service.Thread(r.Context(), id.UserID, ps.ByName("otherUserId"))
	if err != nil {
		h.writeError(w, "Thread", err)
		return
	}

	if err := httputil.WriteSuccess(w, messages); err != nil {
		h.log.Error("failed to write success response", "handler", "Thread", "operation", "WriteSuccess", "error", err)
	}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.MessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Send", err)
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	msg, err := h.service.Send(r.Context(), id.UserID, ps.ByName("otherUserId"), &req)
	if err != nil {
		h.writeError(w, "Send", err)
		return
	}

	if err := httputil.WriteCreated(w, msg); err != nil {
		h.log.Error("failed to write created response", "handler", "Send", "operation", "WriteCreated", "error", err)
	}
}

func (h *MessageHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *MessageHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/messages/:otherUserId", middleware.RequireAuth(h.log, h.Thread))
	router.POST("/api/v1/messages/:otherUserId", middleware.RequireAuth(h.log, h.Send))
}
