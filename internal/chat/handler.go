package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/shared/server/respond"
)

// Handler exposes chat endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts chat routes on the given group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/chat", h.turn)
	r.GET("/chat/history", h.history)
}

type turnRequest struct {
	Message string `json:"message"`
}

func (h *Handler) turn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "request body must be JSON with a 'message' field", nil)
		return
	}

	msg, err := h.svc.HandleTurn(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		case errors.Is(err, ErrModelUnavailable):
			respond.Error(c, http.StatusBadGateway, "model_unavailable", "the configured model is unavailable; check LLM_MODEL", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "chat_failed", "failed to produce a reply", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, msg)
}

func (h *Handler) history(c *gin.Context) {
	msgs, err := h.svc.History(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "history_failed", "failed to load chat history", nil)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	respond.JSON(c, http.StatusOK, msgs)
}
