package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsdesk-backend/internal/issues"
	"opsdesk-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:            "0",
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "none",
	}
}

func buildApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chat_turns_total") {
		t.Fatalf("expected counters in metrics output")
	}
}

func TestUploadAndListDocuments(t *testing.T) {
	app := buildApp(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", "handover.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("night shift handover: compressor 2 is running hot"))
	writer.WriteField("type", "handover")
	writer.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID       string `json:"id"`
		FileName string `json:"filename"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.FileName != "handover.txt" || created.Status != "Extracted" {
		t.Fatalf("unexpected upload response %+v", created)
	}

	listRec := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	app.Router.ServeHTTP(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	var items []struct {
		ID       string `json:"id"`
		FileName string `json:"filename"`
		DocType  string `json:"type"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].ID != created.ID || items[0].DocType != "handover" {
		t.Fatalf("unexpected list %+v", items)
	}
}

func TestUploadWithoutFileIs400(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected standardized error body, got %q", rec.Body.String())
	}
}

func TestDeleteUnknownDocumentIs404(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/nope", nil)
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChatWithoutModelIs502AndKeepsUserMessage(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"what is on fire?"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 with placeholder model, got %d", rec.Code)
	}

	histRec := httptest.NewRecorder()
	histReq := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
	app.Router.ServeHTTP(histRec, histReq)

	var msgs []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(histRec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Fatalf("expected only the user message, got %+v", msgs)
	}
}

func TestChatEmptyMessageIs400(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIssuesListStartsEmpty(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/issues", nil)
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestCreateIssueForcesOpenStatus(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/issues",
		strings.NewReader(`{"title":"Dock door jammed","priority":"critical","department":"Facilities"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var issue struct {
		Status   string `json:"status"`
		Priority string `json:"priority"`
		Assignee string `json:"assignee"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issue); err != nil {
		t.Fatalf("decode issue: %v", err)
	}
	if issue.Status != "Open" {
		t.Fatalf("new issues must be Open, got %q", issue.Status)
	}
	if issue.Priority != "Critical" || issue.Assignee != "Unassigned" {
		t.Fatalf("unexpected defaults %+v", issue)
	}
}

func TestSpeechUnconfiguredIs503(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without TTS config, got %d", rec.Code)
	}
}

type cannedLLM struct {
	reply string
}

func (c cannedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return c.reply, nil
}

func (c cannedLLM) CompleteAudio(ctx context.Context, instruction string, audio []byte, mimeType string) (string, error) {
	return c.reply, nil
}

func TestUploadEventuallyExtractsIssues(t *testing.T) {
	app := buildApp(t)

	// Swap the model for a canned reply and run the in-process dispatcher,
	// as the API binary does when no queue is configured.
	app.IssueExtractor = issues.NewExtractor(cannedLLM{
		reply: `[{"title": "Final payment due", "description": "Payment deadline Jan 15.", "severity": "High"}]`,
	}, app.IssuesRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.Dispatcher.Start(ctx)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("document", "invoice.txt")
	part.Write([]byte("Final payment due by Jan 15"))
	writer.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	// Extraction is fire-and-forget; poll until the issue lands.
	deadline := time.Now().Add(3 * time.Second)
	for {
		listRec := httptest.NewRecorder()
		listReq := httptest.NewRequest(http.MethodGet, "/api/v1/issues", nil)
		app.Router.ServeHTTP(listRec, listReq)

		var items []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
			Priority    string `json:"priority"`
		}
		if err := json.Unmarshal(listRec.Body.Bytes(), &items); err != nil {
			t.Fatalf("decode issues: %v", err)
		}
		if len(items) > 0 {
			if !strings.Contains(items[0].Description, "Jan 15") {
				t.Fatalf("expected description referencing Jan 15, got %+v", items[0])
			}
			if items[0].Status != "Open" || items[0].Priority != "Critical" {
				t.Fatalf("unexpected issue fields %+v", items[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("issue was never extracted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRequestIDHeaderPresent(t *testing.T) {
	app := buildApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	app.Router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header on responses")
	}
}
