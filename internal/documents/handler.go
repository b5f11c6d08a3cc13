package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/shared/server/respond"
)

// Handler exposes document endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a document handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts document routes on the given group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/documents", h.upload)
	r.GET("/documents", h.list)
	r.DELETE("/documents/:id", h.remove)
	r.POST("/documents/:id/reingest", h.reingest)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "multipart field 'document' is required", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	doc, err := h.svc.Upload(c.Request.Context(), UploadInput{
		FileName:     fileHeader.Filename,
		DeclaredMIME: fileHeader.Header.Get("Content-Type"),
		DocType:      c.PostForm("type"),
		RequestID:    c.GetString("requestId"),
		Data:         f,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "upload_failed", "failed to ingest document", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, toUploadResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "list_failed", "failed to list documents", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toListItems(docs))
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "delete_failed", "failed to delete document", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reingest(c *gin.Context) {
	doc, err := h.svc.Reingest(c.Request.Context(), c.Param("id"), c.GetString("requestId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "reingest_failed", "failed to reingest document", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toUploadResponse(doc))
}
