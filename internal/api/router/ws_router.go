package router

import (
	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/endpoints"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// WebsocketRoutes mounts the signaling socket. It is skipped when the server
// has no websocket handler.
func WebsocketRoutes(prefix string) api.RouteRegistrar {
	return func(r chi.Router, s *api.APIServer) {
		if s.Handler() == nil {
			log.Warn().Msg("Websocket handler not configured, skipping websocket routes")
			return
		}
		e := endpoints.NewWebsocketEndpoints(s.Handler())
		r.Get(prefix+"/connect", s.MakeHTTPHandleFunc(e.Connect))
	}
}
