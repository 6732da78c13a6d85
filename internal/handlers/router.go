package handlers

import (
	"net/http"

	"github.com/gt-platform/gtauth/internal/handlers/middleware"
	"github.com/gt-platform/gtauth/internal/handlers/render"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts all routes. The gate middleware runs on every request
// and attaches caller identity; RequireUser guards the protected routes.
// Outer middlewares (request logging, CORS) are passed in by the caller
// and wrap everything including the gate.
func NewRouter(
	auth *AuthHandler,
	oauth *OAuthHandler,
	person *PersonHandler,
	user *UserHandler,
	gate func(http.Handler) http.Handler,
	outer ...func(http.Handler) http.Handler,
) http.Handler {
	authMux := http.NewServeMux()
	authMux.Handle("/", auth.Handler())
	if oauth != nil {
		authMux.HandleFunc("GET /social/google/authorize", oauth.Authorize)
		authMux.HandleFunc("GET /social/google/callback", oauth.Callback)
	}

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", authMux))
	root.Handle("POST /api/person/create", middleware.RequireUser(http.HandlerFunc(person.Create)))
	root.Handle("GET /api/user/me", middleware.RequireUser(http.HandlerFunc(user.Me)))
	root.HandleFunc("GET /health", handleHealth)

	mds := append(append([]func(http.Handler) http.Handler{}, outer...), gate)
	return chain(root, mds...)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	type HealthResponse struct {
		Status string `json:"status"`
	}

	render.JSON(w, HealthResponse{Status: "ok"})
}
