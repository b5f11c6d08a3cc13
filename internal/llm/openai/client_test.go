package openai

import "testing"

func TestAudioFormat(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want string
	}{
		{name: "webm", mime: "audio/webm", want: "webm"},
		{name: "webm with codec", mime: "audio/webm;codecs=opus", want: "webm"},
		{name: "mp3", mime: "audio/mpeg", want: "mp3"},
		{name: "wav", mime: "audio/x-wav", want: "wav"},
		{name: "ogg", mime: "audio/ogg", want: "ogg"},
		{name: "empty", mime: "", want: "wav"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := audioFormat(tt.mime); got != tt.want {
				t.Fatalf("audioFormat(%q) = %q, want %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestIsModelNotFound(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		want    bool
	}{
		{name: "explicit code", code: "model_not_found", message: "", want: true},
		{name: "message only", code: "", message: "The model `gpt-9` does not exist", want: true},
		{name: "other error", code: "rate_limit_exceeded", message: "slow down", want: false},
		{name: "empty", code: "", message: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isModelNotFound(tt.code, tt.message); got != tt.want {
				t.Fatalf("isModelNotFound(%q, %q) = %v, want %v", tt.code, tt.message, got, tt.want)
			}
		})
	}
}
