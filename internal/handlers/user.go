package handlers

import (
	"net/http"

	"github.com/gt-platform/gtauth/internal/handlers/authctx"
	"github.com/gt-platform/gtauth/internal/handlers/render"
)

type UserHandler struct{}

func NewUser() *UserHandler {
	return &UserHandler{}
}

// Me returns the authenticated caller identity. The route is mounted
// behind RequireUser, so a missing identity here is a wiring bug.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	type MeResponse struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	identity, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	render.JSON(w, MeResponse{
		Email: identity.Email,
		Role:  identity.Role.String(),
	})
}
