package middleware

import "net/http"

type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain applies middlewares so that the first one is the outermost.
func Chain(f http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}
	return f
}

// Handler adapts m to the func(http.Handler) http.Handler form routers use.
func Handler(m Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m(next.ServeHTTP)
	}
}
