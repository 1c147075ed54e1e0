package handlers_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shiva7919/sample-python-app/handlers"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := handlers.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handlers.RequestIDFrom(r.Context())
	}))

	w := do(t, h, http.MethodGet, "/")
	got := w.Header().Get(handlers.RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("X-Request-ID = %q, not a UUID: %v", got, err)
	}
	if seen != got {
		t.Errorf("context id = %q, header id = %q", seen, got)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := handlers.RequestID(handlers.NewRouter(handlers.New()))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(handlers.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get(handlers.RequestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
	assertBody(t, w, handlers.Greeting)
}

// captureLogs routes the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogging_RecordsUnmatchedRequests(t *testing.T) {
	buf := captureLogs(t)
	h := handlers.RequestID(handlers.Logging(handlers.NewRouter(handlers.New())))

	assertStatus(t, do(t, h, http.MethodPost, "/"), http.StatusMethodNotAllowed)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v\nlog: %s", err, buf.String())
	}
	if entry["method"] != http.MethodPost {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["status"] != float64(http.StatusMethodNotAllowed) {
		t.Errorf("status = %v, want 405", entry["status"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id is empty")
	}
}

func TestLogging_CountsBytes(t *testing.T) {
	buf := captureLogs(t)
	h := handlers.Logging(handlers.NewRouter(handlers.New()))

	assertStatus(t, do(t, h, http.MethodGet, "/"), http.StatusOK)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v\nlog: %s", err, buf.String())
	}
	if entry["bytes"] != float64(len(handlers.Greeting)) {
		t.Errorf("bytes = %v, want %d", entry["bytes"], len(handlers.Greeting))
	}
}

func TestHello_DoesNotLog(t *testing.T) {
	buf := captureLogs(t)
	h := handlers.New()

	assertStatus(t, do(t, http.HandlerFunc(h.Hello), http.MethodGet, "/"), http.StatusOK)
	if buf.Len() != 0 {
		t.Errorf("handler logged: %s", buf.String())
	}
}
