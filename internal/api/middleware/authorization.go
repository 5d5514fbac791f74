package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	internaljwt "quickchat-backend/internal/jwt"
)

type identityKey struct{}

const unauthorizedMessage = "Not Authorized. Login Again"

// RequestToken returns the access token from the Authorization header, with
// or without the Bearer prefix, or from the token header.
func RequestToken(r *http.Request) string {
	if token := internaljwt.BearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return r.Header.Get("token")
}

func ValidateJWTMiddleware(role internaljwt.Role) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := RequestToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := internaljwt.ParseToken(token, role)
			if err != nil {
				unauthorized(w)
				return
			}

			userID, _ := claims["id"].(string)
			email, _ := claims["email"].(string)
			if userID == "" {
				unauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), internaljwt.Identity{UserID: userID, Email: email})
			next(w, r.WithContext(ctx))
		}
	}
}

var ValidateUserJWT = ValidateJWTMiddleware(internaljwt.RoleUser)

func WithIdentity(ctx context.Context, identity internaljwt.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by ValidateJWTMiddleware.
func IdentityFromContext(ctx context.Context) (internaljwt.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(internaljwt.Identity)
	return identity, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": unauthorizedMessage})
}
