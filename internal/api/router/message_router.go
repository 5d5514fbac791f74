package router

import (
	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/endpoints"
	"quickchat-backend/internal/api/middleware"
	messagesvc "quickchat-backend/internal/service/message"

	"github.com/go-chi/chi/v5"
)

func MessageRoutes(prefix string) api.RouteRegistrar {
	return func(r chi.Router, s *api.APIServer) {
		service := messagesvc.New(s.Database(), s.Uploader())
		registerMessageRoutes(r, s, prefix, endpoints.NewMessageEndpoints(service, s.Notifier()))
	}
}

func registerMessageRoutes(r chi.Router, s *api.APIServer, prefix string, e endpoints.MessageEndpoints) {
	r.Route(prefix+"/messages", func(r chi.Router) {
		r.Get("/users", s.MakeHTTPHandleFunc(e.Sidebar, middleware.ValidateUserJWT))
		r.Put("/mark/{id}", s.MakeHTTPHandleFunc(e.MarkSeen, middleware.ValidateUserJWT))
		r.Post("/send/{id}", s.MakeHTTPHandleFunc(e.Send, middleware.ValidateUserJWT))
		r.Delete("/delete/{id}", s.MakeHTTPHandleFunc(e.Delete, middleware.ValidateUserJWT))
		r.Get("/{id}", s.MakeHTTPHandleFunc(e.Conversation, middleware.ValidateUserJWT))
	})
}
