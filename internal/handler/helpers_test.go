package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msomdec/contact-directory/internal/handler"
	"github.com/msomdec/contact-directory/internal/repository/memory"
	"github.com/msomdec/contact-directory/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	auth      *service.AuthService
	directory *service.DirectoryService
	srv       *httptest.Server
}

func newTestServices(t *testing.T) (*service.AuthService, *service.DirectoryService) {
	t.Helper()
	users := memory.New().Users()
	identity := service.NewIdentityService(users, 4)
	sessions := service.NewSessionService(identity, testJWTSecret)
	return service.NewAuthService(identity, sessions), service.NewDirectoryService(users)
}

func newTestEnv(t *testing.T, opts handler.Options) *testEnv {
	t.Helper()
	auth, directory := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, directory, opts)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return &testEnv{auth: auth, directory: directory, srv: srv}
}

// do sends a request with an optional JSON body and bearer token and decodes
// the JSON response.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, e.srv.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp, out
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}
