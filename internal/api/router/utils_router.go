package router

import (
	"context"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/endpoints"

	"github.com/go-chi/chi/v5"
)

func UtilsRoutes(prefix string) api.RouteRegistrar {
	return func(r chi.Router, s *api.APIServer) {
		checks := map[string]endpoints.HealthCheck{}
		if db := s.Database(); db != nil {
			checks["dynamodb"] = func(ctx context.Context) error {
				_, err := db.Client.ListTables(ctx)
				return err
			}
		}

		utilsEndpoints := endpoints.NewUtilsEndpoints(checks)
		r.Get(prefix+"/status", s.MakeHTTPHandleFunc(utilsEndpoints.Status))
		r.Get(prefix+"/health", s.MakeHTTPHandleFunc(utilsEndpoints.Health))
	}
}
