package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/chat"
	"opsdesk-backend/internal/documents"
	"opsdesk-backend/internal/issues"
	"opsdesk-backend/internal/shared/config"
	"opsdesk-backend/internal/shared/metrics"
	"opsdesk-backend/internal/shared/server/middleware"
	"opsdesk-backend/internal/shared/server/respond"
	"opsdesk-backend/internal/speech"
	"opsdesk-backend/internal/voice"
)

// RouterDeps carries the handlers the router mounts. Nil handlers are
// skipped, which keeps partial wiring (worker binary, tests) cheap.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	IssuesHandler    *issues.Handler
	ChatHandler      *chat.Handler
	SpeechHandler    *speech.Handler
	VoiceHandler     *voice.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.IssuesHandler != nil {
		deps.IssuesHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.SpeechHandler != nil {
		deps.SpeechHandler.RegisterRoutes(api)
	}
	if deps.VoiceHandler != nil {
		deps.VoiceHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
