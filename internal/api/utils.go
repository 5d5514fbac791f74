package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"quickchat-backend/internal/api/middleware"
	"quickchat-backend/internal/queue"

	"github.com/rs/zerolog/log"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs f on the request queue and renders returned errors
// as {"message": ...}. authMiddleware wraps the queued handler.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, authMiddleware ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		s.requestQueueManager.EnqueueJob(queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		})

		if err := <-errc; err != nil {
			writeError(w, r, err)
		}
	}

	return middleware.Chain(baseHandler, authMiddleware...)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		log.Error().Err(err).Str("method", r.Method).Str("uri", r.URL.RequestURI()).Msg("Unhandled error")
		WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
		return
	}

	event := log.Debug()
	if httpErr.StatusCode >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(httpErr.ErrorLog).
		Int("status", httpErr.StatusCode).
		Str("method", r.Method).
		Str("uri", r.URL.RequestURI()).
		Msg(httpErr.Message)

	WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
}
