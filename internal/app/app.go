// Package app wires configuration into the shared runtime pieces the binaries
// start from.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/config"
	"quickchat-backend/internal/database"
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/logging"
	"quickchat-backend/internal/mailer"
	"quickchat-backend/internal/upload"
	"quickchat-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const redisPingTimeout = 3 * time.Second

// Init loads the configuration, sets up logging and installs the token
// signing secret. The returned redis client backs refresh tokens and may be
// nil when AUTH_REDIS_URL is unset.
func Init() (config.Config, *redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	authRedis := NewRedisClient(cfg.AuthRedisURL, cfg.AuthRedisPass)
	if authRedis == nil {
		log.Warn().Msg("AUTH_REDIS_URL not set, only access tokens will be issued")
	}
	internaljwt.Configure(cfg.UserSecret, cfg.AccessTokenTTL, authRedis)

	return cfg, authRedis, nil
}

// NewRedisClient returns nil when addr is empty.
func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func PingRedis(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// Dependencies builds the store, mailer and uploader used by the REST routes.
func Dependencies(ctx context.Context, cfg config.Config) (api.Dependencies, error) {
	awsCfg, err := database.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("load aws config: %w", err)
	}

	deps := api.Dependencies{
		DB:       &database.Database{Client: database.NewDynamoDBClient(awsCfg, cfg.AWS.DynamoDBEndpoint)},
		Mailer:   mailer.New(cfg.SMTP),
		Uploader: upload.Disabled{},
	}

	if cfg.S3Bucket != "" {
		deps.Uploader = upload.NewS3Uploader(awsCfg, cfg.S3Bucket, cfg.S3PublicURL)
	} else {
		log.Warn().Msg("S3_BUCKET not set, image uploads are disabled")
	}
	return deps, nil
}

// NewWebsocket starts a hub and returns it with its upgrade handler. Callers
// stop the hub on shutdown.
func NewWebsocket(cfg config.Config) (*websocket.Hub, *websocket.Handler) {
	hub := websocket.NewHub(websocket.HubConfig{
		CallEndOnDisconnect: cfg.CallEndOnDisconnect,
		QueueSize:           cfg.QueueSize,
	})
	go hub.Run()

	handler := websocket.NewHandler(hub, internaljwt.UserIDFromToken, websocket.HandlerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.WSSendBuffer,
		ReadLimit:      cfg.WSReadLimit,
	})
	return hub, handler
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
