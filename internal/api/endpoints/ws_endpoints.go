package endpoints

import (
	"net/http"

	"quickchat-backend/internal/websocket"
)

type WebsocketEndpoints interface {
	Connect(http.ResponseWriter, *http.Request) error
}

type websocketEndpoints struct {
	handler *websocket.Handler
}

func NewWebsocketEndpoints(handler *websocket.Handler) WebsocketEndpoints {
	return &websocketEndpoints{handler: handler}
}

// Connect upgrades an authenticated request. A missing or invalid token is
// rejected before the upgrade.
func (h *websocketEndpoints) Connect(w http.ResponseWriter, r *http.Request) error {
	if err := h.handler.Connect(w, r); err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Not Authorized. Login Again",
			ErrorLog:   err,
		}
	}
	return nil
}
