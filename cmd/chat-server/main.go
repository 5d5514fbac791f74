package main

import (
	"context"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/router"
	"quickchat-backend/internal/app"
	"quickchat-backend/internal/queue"

	"github.com/rs/zerolog/log"
)

// chat-server serves REST and websocket traffic from one process. Message
// notifications go straight to the in-process hub.
func main() {
	cfg, _, err := app.Init()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := app.SignalContext()
	defer stop()

	deps, err := app.Dependencies(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init dependencies")
	}

	hub, wsHandler := app.NewWebsocket(cfg)
	deps.WSHandler = wsHandler
	deps.Notifier = hub

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers)

	server := api.NewAPIServer(
		cfg.Addr,
		cfg.AllowedOrigins,
		queueManager,
		deps,
		router.UtilsRoutes("/api"),
		router.UserRoutes("/api"),
		router.MessageRoutes("/api"),
		router.WebsocketRoutes("/api/ws/v1"),
	)

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}

	hub.Stop()
	queueManager.Shutdown()
	log.Info().Msg("Server exited")
}
