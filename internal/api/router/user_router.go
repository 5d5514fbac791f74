package router

import (
	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/endpoints"
	"quickchat-backend/internal/api/middleware"
	usersvc "quickchat-backend/internal/service/user"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(prefix string) api.RouteRegistrar {
	return func(r chi.Router, s *api.APIServer) {
		service := usersvc.New(s.Database(), s.Mailer(), s.Uploader())
		registerUserRoutes(r, s, prefix, endpoints.NewUserEndpoints(service))
	}
}

func registerUserRoutes(r chi.Router, s *api.APIServer, prefix string, e endpoints.UserEndpoints) {
	r.Route(prefix+"/auth", func(r chi.Router) {
		r.Post("/signup", s.MakeHTTPHandleFunc(e.Signup))
		r.Post("/login", s.MakeHTTPHandleFunc(e.Login))
		r.Post("/refresh", s.MakeHTTPHandleFunc(e.Refresh))
		r.Post("/logout", s.MakeHTTPHandleFunc(e.Logout))
		r.Post("/send-reset-otp", s.MakeHTTPHandleFunc(e.SendResetOTP))
		r.Post("/reset-password", s.MakeHTTPHandleFunc(e.ResetPassword))

		r.Get("/check", s.MakeHTTPHandleFunc(e.Check, middleware.ValidateUserJWT))
		r.Put("/update-profile", s.MakeHTTPHandleFunc(e.UpdateProfile, middleware.ValidateUserJWT))
		r.Delete("/delete-profile", s.MakeHTTPHandleFunc(e.DeleteProfile, middleware.ValidateUserJWT))
		r.Post("/send-verify-otp", s.MakeHTTPHandleFunc(e.SendVerifyOTP, middleware.ValidateUserJWT))
		r.Post("/verify-account", s.MakeHTTPHandleFunc(e.VerifyAccount, middleware.ValidateUserJWT))
	})
}
