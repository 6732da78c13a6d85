package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gt-platform/gtauth/internal/apperrors"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleFlow drives the browser-redirect OAuth flow: authorize URL,
// code exchange and userinfo fetch. The ID-token path (GoogleVerifier)
// stays independent of it.
type GoogleFlow struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

type GoogleFlowConfig struct {
	ClientID     string
	ClientSecret string

	// Callback URL registered with the provider
	RedirectURL string

	// Overrides for tests
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

func NewGoogleFlow(cfg GoogleFlowConfig) (*GoogleFlow, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google client credentials must not be empty")
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleFlow{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}, nil
}

// AuthorizeURL returns the provider consent page URL for the given
// anti-CSRF state
func (f *GoogleFlow) AuthorizeURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades an authorization code for the provider identity
func (f *GoogleFlow) ExchangeCode(ctx context.Context, code string) (Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	oauthToken, err := f.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: code exchange failed: %w", apperrors.ErrAuthenticationFailed, err)
	}

	return f.fetchUserInfo(ctx, oauthToken)
}

func (f *GoogleFlow) fetchUserInfo(ctx context.Context, oauthToken *oauth2.Token) (Identity, error) {
	client := f.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("error while building userinfo request. Err: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: userinfo: %w", apperrors.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: userinfo request failed (status %d)", apperrors.ErrAuthenticationFailed, resp.StatusCode)
	}

	var payload struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("%w: can't decode userinfo response: %w", apperrors.ErrAuthenticationFailed, err)
	}

	if payload.Email == "" {
		return Identity{}, fmt.Errorf("%w: userinfo carries no email", apperrors.ErrAuthenticationFailed)
	}

	return Identity{
		Email:   payload.Email,
		Name:    payload.Name,
		Picture: payload.Picture,
	}, nil
}
