package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrMissingToken = errors.New("websocket: missing token")

// Authenticator resolves a handshake token to a user id.
type Authenticator func(token string) (string, error)

type HandlerConfig struct {
	AllowedOrigins []string
	SendBuffer     int
	ReadLimit      int64
}

type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	authenticate Authenticator
	sendBuffer   int
	readLimit    int64
}

func NewHandler(hub *Hub, authenticate Authenticator, cfg HandlerConfig) *Handler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 512 * 1024
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		authenticate: authenticate,
		sendBuffer:   cfg.SendBuffer,
		readLimit:    cfg.ReadLimit,
	}
}

// Connect authenticates the handshake, upgrades the connection and registers
// the new client with the hub.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) error {
	userID, err := h.authenticate(HandshakeToken(r))
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Warn().Err(err).Str("user_id", userID).Msg("Websocket upgrade failed")
		return nil
	}

	cl := newWSClient(conn, userID, h.sendBuffer, h.readLimit)
	h.hub.Register(cl)

	go cl.keepAlive()
	go cl.writePump()
	go cl.readPump(h.hub)

	log.Debug().Str("user_id", userID).Str("transport_id", cl.id).Msg("Websocket connected")
	return nil
}

// HandshakeToken reads the token from the query string, falling back to the
// token and Authorization headers.
func HandshakeToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	if token := strings.TrimSpace(r.Header.Get("token")); token != "" {
		return token
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from the configured origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	allowAll := false
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
			continue
		}
		set[strings.ToLower(origin)] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(parsed.Scheme)+"://"+strings.ToLower(parsed.Host)]
		if !ok {
			log.Warn().Str("origin", origin).Msg("Blocked websocket connection from disallowed origin")
		}
		return ok
	}
}
