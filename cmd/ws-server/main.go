package main

import (
	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/router"
	"quickchat-backend/internal/app"
	"quickchat-backend/internal/queue"
	"quickchat-backend/internal/websocket"

	"github.com/rs/zerolog/log"
)

// ws-server owns the presence registry and signaling relay. Message
// notifications published by api-server arrive over redis.
func main() {
	cfg, _, err := app.Init()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := app.SignalContext()
	defer stop()

	hub, wsHandler := app.NewWebsocket(cfg)

	chatRedis := app.NewRedisClient(cfg.ChatRedisURL, cfg.ChatRedisPass)
	if chatRedis == nil {
		log.Warn().Msg("CHAT_REDIS_URL not set, message notifications will not be relayed")
	} else {
		defer chatRedis.Close()
		subscriber := websocket.NewRedisSubscriber(chatRedis, cfg.NotifyChannel, hub)
		go func() {
			if err := subscriber.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Notification subscriber stopped")
			}
		}()
	}

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers)

	server := api.NewAPIServer(
		cfg.WSAddr,
		cfg.AllowedOrigins,
		queueManager,
		api.Dependencies{WSHandler: wsHandler, Notifier: hub},
		router.UtilsRoutes("/api/ws/v1"),
		router.WebsocketRoutes("/api/ws/v1"),
	)

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}

	hub.Stop()
	queueManager.Shutdown()
	log.Info().Msg("Server exited")
}
