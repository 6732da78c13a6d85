package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/gt-platform/gtauth/internal/handlers/render"
	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/service/social"
)

const (
	oauthStateCookie = "oauthstate"
	oauthStateTTL    = 10 * time.Minute
)

type oauthFlow interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (social.Identity, error)
}

// OAuthHandler drives the browser-redirect social login: consent page
// redirect, callback with code exchange, and a final redirect to the
// configured frontend URL carrying the issued tokens
type OAuthHandler struct {
	flow        oauthFlow
	authService authService
	successURL  string
	failureURL  string
	logger      logger.Logger
}

func NewOAuth(flow oauthFlow, s authService, successURL string, failureURL string, l logger.Logger) *OAuthHandler {
	if l == nil {
		l = logger.NewNoOp()
	}
	return &OAuthHandler{
		flow:        flow,
		authService: s,
		successURL:  successURL,
		failureURL:  failureURL,
		logger:      l,
	}
}

func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		h.logger.Error("can't generate oauth state", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/social/google/callback",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.flow.AuthorizeURL(state), http.StatusFound)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		h.redirectFailure(w, r, "invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectFailure(w, r, "authorization code missing")
		return
	}

	identity, err := h.flow.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Debug("oauth code exchange rejected", "error", err.Error())
		h.redirectFailure(w, r, "authentication failed")
		return
	}

	pair, err := h.authService.LoginWithIdentity(r.Context(), "google", identity)
	if err != nil {
		h.logger.Error("oauth login failed", "error", err.Error())
		h.redirectFailure(w, r, "authentication failed")
		return
	}

	target, err := url.Parse(h.successURL)
	if err != nil {
		h.logger.Error("invalid oauth success URL", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	query := target.Query()
	query.Set("accessToken", pair.Access.Value)
	query.Set("refreshToken", pair.Refresh.Value)
	target.RawQuery = query.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *OAuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	target, err := url.Parse(h.failureURL)
	if err != nil {
		render.ServiceError(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	query := target.Query()
	query.Set("error", reason)
	target.RawQuery = query.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}
