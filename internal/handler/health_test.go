package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/contact-directory/internal/handler"
)

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealthz(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %s", contentType)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %s", body["status"])
	}
}

func TestHandleHealth_Counts(t *testing.T) {
	env := newTestEnv(t, handler.Options{})

	env.do(t, http.MethodPost, "/api/auth/register", "", credentials("a", "pw"))
	env.do(t, http.MethodPost, "/api/auth/register", "", credentials("b", "pw"))
	env.do(t, http.MethodPost, "/api/auth/login", "", credentials("a", "pw"))

	resp, body := env.do(t, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "OK" {
		t.Fatalf("expected status OK, got %v", body["status"])
	}
	if body["users_count"] != float64(2) {
		t.Fatalf("expected users_count 2, got %v", body["users_count"])
	}
	if body["sessions_count"] != float64(3) {
		t.Fatalf("expected sessions_count 3, got %v", body["sessions_count"])
	}
	if ts, _ := body["timestamp"].(string); ts == "" {
		t.Fatal("expected timestamp")
	}
}
