package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/handlers/middleware"
	"github.com/gt-platform/gtauth/internal/handlers/render"
	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/service/social"
)

type authService interface {
	// Register local user
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, email string, password string, name string) (models.TokenPair, error)

	// Login with email and password
	// Has to return apperrors.ErrAuthenticationFailed on any credential failure
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Rotate a refresh token into a new pair
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the access token and optionally the refresh token
	Logout(ctx context.Context, accessToken string, refreshToken string) error

	// Verify a provider identity token and issue a pair
	SocialLogin(ctx context.Context, provider string, identityToken string) (models.TokenPair, error)

	// Issue a pair for an identity already verified by the OAuth flow
	LoginWithIdentity(ctx context.Context, provider string, identity social.Identity) (models.TokenPair, error)

	// Configured token lifetimes
	TokenTTLs() (access time.Duration, refresh time.Duration)
}

// TokenPairResponse is the wire shape of every successful auth call
type TokenPairResponse struct {
	AccessToken           string `json:"accessToken"`
	RefreshToken          string `json:"refreshToken"`
	TokenType             string `json:"tokenType"`
	AccessTokenExpiresIn  int64  `json:"accessTokenExpiresIn"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn"`
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(s authService, l logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNoOp()
	}
	return &AuthHandler{authService: s, logger: l}
}

// Handler routes shown relative to the /auth prefix
func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("POST /social/{provider}", h.socialLogin)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"max=100"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Register(r.Context(), data.Email, data.Password, data.Name)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, h.pairResponse(pair))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		h.unauthorized(w, "login rejected", err)
		return
	}

	render.JSON(w, h.pairResponse(pair))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refresh, ok := middleware.BearerToken(r)
	if !ok {
		render.ServiceError(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), refresh)
	if err != nil {
		h.unauthorized(w, "refresh rejected", err)
		return
	}

	render.JSON(w, h.pairResponse(pair))
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := middleware.BearerToken(r)
	if !ok {
		render.ServiceError(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	// refresh token in the body is optional; a missing or malformed body
	// just means there is nothing extra to revoke
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := h.authService.Logout(r.Context(), accessToken, body.RefreshToken); err != nil {
		h.unauthorized(w, "logout rejected", err)
		return
	}

	render.Status(w, http.StatusOK)
}

func (h *AuthHandler) socialLogin(w http.ResponseWriter, r *http.Request) {
	type SocialLoginRequest struct {
		IDToken string `json:"idToken" validate:"required"`
	}

	provider := r.PathValue("provider")

	data, err := render.BindAndValidate[SocialLoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.SocialLogin(r.Context(), provider, data.IDToken)
	if err != nil {
		h.unauthorized(w, "social login rejected", err)
		return
	}

	render.JSON(w, h.pairResponse(pair))
}

// unauthorized maps every auth failure, including revocation store
// outages (fail closed), to one uniform 401. Internal logs keep the
// distinction; the wire must not.
func (h *AuthHandler) unauthorized(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		h.logger.Error(msg, "error", err.Error())
	default:
		h.logger.Debug(msg, "error", err.Error())
	}

	render.ServiceError(w, "Authentication failed", http.StatusUnauthorized)
}

func (h *AuthHandler) pairResponse(pair models.TokenPair) TokenPairResponse {
	accessTTL, refreshTTL := h.authService.TokenTTLs()

	return TokenPairResponse{
		AccessToken:           pair.Access.Value,
		RefreshToken:          pair.Refresh.Value,
		TokenType:             "Bearer",
		AccessTokenExpiresIn:  int64(accessTTL.Seconds()),
		RefreshTokenExpiresIn: int64(refreshTTL.Seconds()),
	}
}
