package voice

import (
	"errors"
	"sync"
)

var (
	// ErrNoAudio indicates an end event with nothing buffered.
	ErrNoAudio = errors.New("no audio buffered")
	// ErrNotRecording indicates audio arrived outside a recording window.
	ErrNotRecording = errors.New("no active recording")
	// ErrBufferOverflow indicates the session exceeded its audio cap.
	ErrBufferOverflow = errors.New("audio buffer overflow")
)

// Session buffers one connection's spoken turn. States move idle ->
// recording -> idle; End always returns the session to idle with the
// buffer cleared, whatever the outcome.
type Session struct {
	mu        sync.Mutex
	maxBytes  int64
	recording bool
	overflow  bool
	mimeType  string
	buf       []byte
}

// Start opens a recording window. Starting over an active recording
// discards the partial buffer.
func (s *Session) Start(mimeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = true
	s.overflow = false
	s.mimeType = mimeType
	s.buf = s.buf[:0]
}

// Append adds an audio chunk. Chunks outside a recording window are
// rejected; once the cap is hit the rest of the turn is dropped and the
// overflow is reported at End.
func (s *Session) Append(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return ErrNotRecording
	}
	if s.overflow {
		return ErrBufferOverflow
	}
	if int64(len(s.buf))+int64(len(chunk)) > s.maxBytes {
		s.overflow = true
		return ErrBufferOverflow
	}
	s.buf = append(s.buf, chunk...)
	return nil
}

// End closes the recording window and hands back the buffered audio. The
// buffer is cleared unconditionally: a failed turn must not leak into the
// next one.
func (s *Session) End() (audio []byte, mimeType string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		s.recording = false
		s.overflow = false
		s.buf = nil
		s.mimeType = ""
	}()

	if !s.recording {
		return nil, "", ErrNoAudio
	}
	if s.overflow {
		return nil, "", ErrBufferOverflow
	}
	if len(s.buf) == 0 {
		return nil, "", ErrNoAudio
	}

	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, s.mimeType, nil
}

// Manager tracks live voice sessions by connection id.
type Manager struct {
	mu       sync.Mutex
	maxBytes int64
	sessions map[string]*Session
}

// NewManager creates a manager enforcing the given per-session audio cap.
func NewManager(maxBytes int64) *Manager {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Manager{
		maxBytes: maxBytes,
		sessions: make(map[string]*Session),
	}
}

// Register creates and tracks a session for a connection.
func (m *Manager) Register(connID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{maxBytes: m.maxBytes}
	m.sessions[connID] = s
	return s
}

// Unregister drops a connection's session.
func (m *Manager) Unregister(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, connID)
}

// Count reports live sessions, for health and logging.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
