package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gt-platform/gtauth/internal/apperrors"
)

const (
	googleProviderName = "google"

	// Google's tokeninfo endpoint validates the ID token signature
	// against Google's current key set and returns its claims
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// GoogleVerifier validates Google ID tokens through the tokeninfo
// endpoint and checks the audience against the configured client ID
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
}

var _ Verifier = (*GoogleVerifier)(nil)

type GoogleConfig struct {
	// OAuth client ID the ID token must be issued for
	ClientID string

	// Overrides for tests
	TokenInfoURL string
	HTTPClient   *http.Client
}

func NewGoogleVerifier(cfg GoogleConfig) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client ID must not be empty")
	}

	tokenInfoURL := cfg.TokenInfoURL
	if tokenInfoURL == "" {
		tokenInfoURL = googleTokenInfoURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleVerifier{
		clientID:     cfg.ClientID,
		tokenInfoURL: tokenInfoURL,
		httpClient:   httpClient,
	}, nil
}

func (v *GoogleVerifier) Provider() string {
	return googleProviderName
}

func (v *GoogleVerifier) Verify(ctx context.Context, identityToken string) (Identity, error) {
	if identityToken == "" {
		return Identity{}, fmt.Errorf("%w: empty identity token", apperrors.ErrAuthenticationFailed)
	}

	query := url.Values{"id_token": {identityToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.tokenInfoURL+"?"+query.Encode(), nil)
	if err != nil {
		return Identity{}, fmt.Errorf("error while building tokeninfo request. Err: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: tokeninfo: %w", apperrors.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	// tokeninfo answers non-200 for any token it can't verify
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: google rejected identity token (status %d)", apperrors.ErrAuthenticationFailed, resp.StatusCode)
	}

	var payload struct {
		Aud     string `json:"aud"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("%w: can't decode tokeninfo response: %w", apperrors.ErrAuthenticationFailed, err)
	}

	if payload.Aud != v.clientID {
		return Identity{}, fmt.Errorf("%w: identity token issued for different audience", apperrors.ErrAuthenticationFailed)
	}
	if payload.Email == "" {
		return Identity{}, fmt.Errorf("%w: identity token carries no email", apperrors.ErrAuthenticationFailed)
	}

	return Identity{
		Email:   payload.Email,
		Name:    payload.Name,
		Picture: payload.Picture,
	}, nil
}
