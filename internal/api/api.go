package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quickchat-backend/internal/api/middleware"
	"quickchat-backend/internal/database"
	"quickchat-backend/internal/mailer"
	"quickchat-backend/internal/queue"
	"quickchat-backend/internal/upload"
	"quickchat-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type RouteRegistrar func(r chi.Router, s *APIServer)

// Dependencies are handed to route registrars. Nil members disable the
// routes or features that need them.
type Dependencies struct {
	DB        *database.Database
	WSHandler *websocket.Handler
	Mailer    mailer.Sender
	Uploader  upload.Uploader
	Notifier  websocket.Notifier
}

type APIServer struct {
	listenAddr          string
	allowedOrigins      []string
	requestQueueManager *queue.RequestQueueManager
	deps                Dependencies
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
}

func NewAPIServer(listenAddr string, allowedOrigins []string, rqm *queue.RequestQueueManager, deps Dependencies, registrars ...RouteRegistrar) *APIServer {
	if deps.Mailer == nil {
		deps.Mailer = mailer.LogSender{}
	}
	if deps.Uploader == nil {
		deps.Uploader = upload.Disabled{}
	}
	if deps.Notifier == nil {
		deps.Notifier = websocket.NopNotifier{}
	}

	return &APIServer{
		listenAddr:          listenAddr,
		allowedOrigins:      allowedOrigins,
		requestQueueManager: rqm,
		deps:                deps,
		routeRegistrars:     registrars,
		metrics:             newMetrics(listenAddr, rqm),
	}
}

// Router builds the full handler tree: metrics and access logging around CORS
// and every registered route.
func (s *APIServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Handler(middleware.Logging()))
	r.Use(middleware.Handler(middleware.CORS(s.corsConfig())))

	for _, reg := range s.routeRegistrars {
		reg(r, s)
	}

	r.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(r)
}

// Run serves until ctx is cancelled, then drains connections.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.listenAddr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("addr", s.listenAddr).Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (s *APIServer) Database() *database.Database {
	return s.deps.DB
}

func (s *APIServer) Handler() *websocket.Handler {
	return s.deps.WSHandler
}

func (s *APIServer) Mailer() mailer.Sender {
	return s.deps.Mailer
}

func (s *APIServer) Uploader() upload.Uploader {
	return s.deps.Uploader
}

func (s *APIServer) Notifier() websocket.Notifier {
	return s.deps.Notifier
}

func (s *APIServer) corsConfig() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "OPTIONS", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization", "token"},
		AllowCredentials: true,
	}
}
