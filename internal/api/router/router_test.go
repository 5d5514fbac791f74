package router

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/queue"
	"quickchat-backend/internal/websocket"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	queueManager := queue.NewRequestQueueManager(10, 2)
	t.Cleanup(queueManager.Shutdown)

	hub := websocket.NewHub(websocket.HubConfig{})
	go hub.Run()
	t.Cleanup(hub.Stop)

	wsHandler := websocket.NewHandler(hub, func(token string) (string, error) {
		if token == "" {
			return "", websocket.ErrMissingToken
		}
		return "", errors.New("bad token")
	}, websocket.HandlerConfig{AllowedOrigins: []string{"http://localhost:5173"}})

	server := api.NewAPIServer(":0", []string{"http://localhost:5173"}, queueManager,
		api.Dependencies{WSHandler: wsHandler},
		UtilsRoutes("/api"),
		UserRoutes("/api"),
		MessageRoutes("/api"),
		WebsocketRoutes("/api/ws/v1"),
	)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestUtilityRoutes(t *testing.T) {
	ts := newServer(t)

	for _, path := range []string{"/api/status", "/api/health"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "chat_app_http_requests_total") {
		t.Fatal("expected http request metrics")
	}
	if !strings.Contains(string(body), `path="/api/status"`) {
		t.Fatal("expected route pattern label")
	}
}

func TestPreflightIsAnsweredBeforeRouting(t *testing.T) {
	ts := newServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/auth/signup", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newServer(t)

	for _, target := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/check"},
		{http.MethodGet, "/api/messages/users"},
		{http.MethodPost, "/api/messages/send/someone"},
		{http.MethodGet, "/api/ws/v1/connect"},
	} {
		req, _ := http.NewRequest(target.method, ts.URL+target.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", target.method, target.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s, got %d", target.method, target.path, resp.StatusCode)
		}
	}
}
