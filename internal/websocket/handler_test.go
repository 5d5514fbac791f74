package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, cfg HubConfig) (*httptest.Server, *Hub) {
	t.Helper()

	hub := NewHub(cfg)
	go hub.Run()

	authenticate := func(token string) (string, error) {
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
	h := NewHandler(hub, authenticate, HandlerConfig{AllowedOrigins: []string{"http://allowed.test"}})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Connect(w, r); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}))

	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, token string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", token, err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string, match func(Event) bool) Event {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		if ev.Type == eventType && (match == nil || match(ev)) {
			return ev
		}
	}
}

func presenceIs(want ...string) func(Event) bool {
	return func(ev Event) bool {
		var users []string
		if err := json.Unmarshal(ev.Payload, &users); err != nil {
			return false
		}
		return reflect.DeepEqual(users, want)
	}
}

func TestHandlerPresenceAndSignaling(t *testing.T) {
	srv, _ := newTestServer(t, HubConfig{})

	alice := dial(t, srv, "alice", nil)
	readUntil(t, alice, EventOnlineUsersChanged, presenceIs("alice"))

	bob := dial(t, srv, "bob", nil)
	readUntil(t, alice, EventOnlineUsersChanged, presenceIs("alice", "bob"))
	readUntil(t, bob, EventOnlineUsersChanged, presenceIs("alice", "bob"))

	initiate, err := NewEvent(EventCallInitiate, CallInitiatePayload{
		TargetUserID: "bob",
		Offer:        json.RawMessage(`{"sdp":"offer"}`),
		CallerName:   "Alice",
	})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := alice.WriteJSON(initiate); err != nil {
		t.Fatalf("write initiate: %v", err)
	}

	ev := readUntil(t, bob, EventIncomingCall, nil)
	var call IncomingCallPayload
	if err := json.Unmarshal(ev.Payload, &call); err != nil {
		t.Fatalf("decode incoming-call: %v", err)
	}
	if call.CallerID != "alice" || string(call.Offer) != `{"sdp":"offer"}` {
		t.Fatalf("unexpected incoming-call %#v", call)
	}

	bob.Close()
	readUntil(t, alice, EventOnlineUsersChanged, presenceIs("alice"))
}

func TestHandlerRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, HubConfig{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %#v", resp)
	}
}

func TestHandlerChecksOrigin(t *testing.T) {
	srv, _ := newTestServer(t, HubConfig{})

	allowed := http.Header{}
	allowed.Set("Origin", "http://ALLOWED.test")
	dial(t, srv, "alice", allowed)

	blocked := http.Header{}
	blocked.Set("Origin", "http://evil.test")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=bob"
	if _, _, err := websocket.DefaultDialer.Dial(url, blocked); err == nil {
		t.Fatal("expected disallowed origin to be rejected")
	}
}

func TestHandshakeTokenSources(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?token=q", nil)
	r.Header.Set("Authorization", "Bearer h")
	if got := HandshakeToken(r); got != "q" {
		t.Fatalf("expected query token, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("token", "t")
	if got := HandshakeToken(r); got != "t" {
		t.Fatalf("expected token header, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer h")
	if got := HandshakeToken(r); got != "h" {
		t.Fatalf("expected bearer token, got %q", got)
	}
}
