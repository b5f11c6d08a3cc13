package issues

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/shared/server/respond"
)

// Handler exposes issue endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an issue handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts issue routes on the given group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/issues", h.list)
	r.POST("/issues", h.create)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "list_failed", "failed to list issues", nil)
		return
	}
	if items == nil {
		items = []Issue{}
	}
	respond.JSON(c, http.StatusOK, items)
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Department  string `json:"department"`
	Assignee    string `json:"assignee"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "request body must be JSON", nil)
		return
	}

	issue, err := h.svc.Create(c.Request.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Department:  req.Department,
		Assignee:    req.Assignee,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "create_failed", "failed to create issue", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, issue)
}
