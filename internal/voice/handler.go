package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"opsdesk-backend/internal/chat"
	"opsdesk-backend/internal/shared/telemetry"
	"opsdesk-backend/internal/speech"
)

// Client-to-server control event types.
const (
	eventStartSession = "start-voice-session"
	eventVoiceEnd     = "voice-end"
)

// Server-to-client event types.
const (
	eventVoiceResponse = "voice-response"
	eventError         = "error"
)

const turnTimeout = 2 * time.Minute

// Handler runs the voice websocket. Control events arrive as JSON text
// frames; audio arrives as binary frames between start and end events.
type Handler struct {
	manager  *Manager
	chat     *chat.Service
	synth    speech.Synthesizer
	upgrader websocket.Upgrader
}

// NewHandler creates the voice handler. synth may be nil; responses are then
// text-only.
func NewHandler(manager *Manager, chatSvc *chat.Service, synth speech.Synthesizer) *Handler {
	return &Handler{
		manager: manager,
		chat:    chatSvc,
		synth:   synth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client runs on a different origin in dev; the API
			// carries no credentials, so origin checks add nothing here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/voice", h.serve)
}

type controlEvent struct {
	Type     string `json:"type"`
	MimeType string `json:"mimeType,omitempty"`
}

type responseEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Audio     string `json:"audio,omitempty"`
	AudioMime string `json:"audioMime,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (h *Handler) serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		telemetry.Warn("voice.upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	session := h.manager.Register(connID)
	defer h.manager.Unregister(connID)

	telemetry.Info("voice.connected", map[string]any{
		"conn_id":       connID,
		"live_sessions": h.manager.Count(),
	})

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				telemetry.Warn("voice.read_failed", map[string]any{"conn_id": connID, "error": err.Error()})
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := session.Append(payload); err != nil {
				// Dropped chunk; the outcome is reported on voice-end.
				telemetry.Warn("voice.chunk_dropped", map[string]any{
					"conn_id": connID,
					"reason":  err.Error(),
				})
			}
		case websocket.TextMessage:
			h.handleControl(c.Request.Context(), conn, connID, session, payload)
		}
	}
}

func (h *Handler) handleControl(ctx context.Context, conn *websocket.Conn, connID string, session *Session, payload []byte) {
	var event controlEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeEvent(conn, responseEvent{Type: eventError, Message: "control events must be JSON"})
		return
	}

	switch event.Type {
	case eventStartSession:
		mime := event.MimeType
		if mime == "" {
			mime = "audio/webm"
		}
		session.Start(mime)
	case eventVoiceEnd:
		h.finishTurn(ctx, conn, connID, session)
	default:
		writeEvent(conn, responseEvent{Type: eventError, Message: "unknown event type"})
	}
}

func (h *Handler) finishTurn(ctx context.Context, conn *websocket.Conn, connID string, session *Session) {
	audio, mime, err := session.End()
	if errors.Is(err, ErrNoAudio) {
		// End without audio is a no-op, not a protocol error.
		return
	}
	if err != nil {
		writeEvent(conn, responseEvent{Type: eventError, Message: "recording too large, try a shorter question"})
		return
	}

	turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	text, err := h.chat.HandleVoiceTurn(turnCtx, audio, mime)
	if err != nil {
		telemetry.Error("voice.turn_failed", map[string]any{"conn_id": connID, "error": err.Error()})
		writeEvent(conn, responseEvent{Type: eventError, Message: "could not process the question"})
		return
	}

	resp := responseEvent{Type: eventVoiceResponse, Text: text}
	if h.synth != nil {
		spoken, spokenMime, synthErr := h.synth.Synthesize(turnCtx, text)
		if synthErr != nil {
			// Text still goes out; the client falls back to showing it.
			telemetry.Warn("voice.synthesis_failed", map[string]any{
				"conn_id": connID,
				"error":   synthErr.Error(),
			})
		} else {
			resp.Audio = base64.StdEncoding.EncodeToString(spoken)
			resp.AudioMime = spokenMime
		}
	}
	writeEvent(conn, resp)
}

func writeEvent(conn *websocket.Conn, event responseEvent) {
	if err := conn.WriteJSON(event); err != nil {
		telemetry.Warn("voice.write_failed", map[string]any{"error": err.Error()})
	}
}
