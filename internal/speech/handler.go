package speech

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/shared/metrics"
	"opsdesk-backend/internal/shared/server/respond"
)

// Handler exposes the speech synthesis endpoint.
type Handler struct {
	synth Synthesizer
}

// NewHandler creates a speech handler. synth may be nil when synthesis is
// not configured; the endpoint then reports it as unavailable.
func NewHandler(synth Synthesizer) *Handler {
	return &Handler{synth: synth}
}

// RegisterRoutes mounts speech routes on the given group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/speech", h.synthesize)
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

func (h *Handler) synthesize(c *gin.Context) {
	if h.synth == nil {
		respond.Error(c, http.StatusServiceUnavailable, "speech_unconfigured", "speech synthesis is not configured", nil)
		return
	}

	var req synthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "request body must be JSON with a non-empty 'text' field", nil)
		return
	}

	audio, mimeType, err := h.synth.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		metrics.IncSynthesisFailed()
		if errors.Is(err, ErrNotConfigured) {
			respond.Error(c, http.StatusServiceUnavailable, "speech_unconfigured", "speech synthesis is not configured", nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "speech_failed", "speech synthesis failed", nil)
		return
	}

	metrics.IncSynthesis()
	c.Data(http.StatusOK, mimeType, audio)
}
