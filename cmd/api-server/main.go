package main

import (
	"context"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/router"
	"quickchat-backend/internal/app"
	"quickchat-backend/internal/queue"
	"quickchat-backend/internal/websocket"

	"github.com/rs/zerolog/log"
)

// api-server serves the REST surface only and publishes message
// notifications to redis for the websocket servers.
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

	chatRedis := app.NewRedisClient(cfg.ChatRedisURL, cfg.ChatRedisPass)
	if chatRedis == nil {
		log.Warn().Msg("CHAT_REDIS_URL not set, realtime notifications are disabled")
	} else {
		if err := app.PingRedis(ctx, chatRedis); err != nil {
			log.Fatal().Err(err).Msg("Chat redis unreachable")
		}
		defer chatRedis.Close()
		deps.Notifier = websocket.NewRedisPublisher(chatRedis, cfg.NotifyChannel)
	}

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers)

	server := api.NewAPIServer(
		cfg.Addr,
		cfg.AllowedOrigins,
		queueManager,
		deps,
		router.UtilsRoutes("/api"),
		router.UserRoutes("/api"),
		router.MessageRoutes("/api"),
	)

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}

	queueManager.Shutdown()
	log.Info().Msg("Server exited")
}
