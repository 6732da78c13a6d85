package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/models"
)

const defaultSigningMethod = "HS256"

// Kind distinguishes access tokens from refresh tokens. The kind is
// embedded in the signed payload ('use' claim) so a leaked access token
// can never be replayed on the refresh endpoint.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims decoded from a verified token
type Claims struct {
	Subject   string
	Role      models.Role // set for access tokens only
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RemainingTTL returns how long the token stays valid from 'now',
// clamped to zero for already expired tokens.
func (c Claims) RemainingTTL(now time.Time) time.Duration {
	ttl := c.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

type signedClaims struct {
	jwt.RegisteredClaims

	// Role claim. Present on access tokens, omitted on refresh tokens to
	// minimize the blast radius of a leaked refresh token.
	Roles string `json:"roles,omitempty"`

	// Token kind: "access" or "refresh"
	Use string `json:"use"`
}

// Codec signs and verifies self-contained bearer tokens
type Codec struct {
	key Key
	alg jwt.SigningMethod

	// Clock seam, used by expiry checks. Defaults to time.Now.
	now func() time.Time
}

func NewCodec(key Key) *Codec {
	return &Codec{
		key: key,
		alg: jwt.GetSigningMethod(defaultSigningMethod),
		now: time.Now,
	}
}

// WithClock replaces the codec clock. Intended for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue signs a new token. Timestamps are truncated to whole seconds: TTL
// math across the service is defined in seconds and callers must not rely
// on sub-second precision. The jti claim makes signatures unique even for
// tokens issued within the same second for the same subject.
func (c *Codec) Issue(subject string, role models.Role, ttl time.Duration, kind Kind) (models.IssuedToken, error) {
	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Use: string(kind),
	}
	if kind == KindAccess {
		claims.Roles = role.String()
	}

	signed, err := jwt.NewWithClaims(c.alg, claims).SignedString(c.key.Bytes())
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Decode verifies the signature and expiry of tokenString and returns its
// claims. The signature check runs before any claim validation, so a
// forged token always surfaces as ErrTokenInvalid no matter what expiry
// it carries. Tokens of the wrong kind or with unknown role values are
// ErrTokenMalformed.
func (c *Codec) Decode(tokenString string, kind Kind) (Claims, error) {
	parsed := &signedClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		parsed,
		func(t *jwt.Token) (any, error) { return c.key.Bytes(), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	if parsed.Use != string(kind) {
		return Claims{}, fmt.Errorf("%w: expected %s token, got %q", apperrors.ErrTokenMalformed, kind, parsed.Use)
	}
	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("%w: subject is empty", apperrors.ErrTokenMalformed)
	}

	claims := Claims{
		Subject:   parsed.Subject,
		Kind:      kind,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}

	switch kind {
	case KindAccess:
		role, err := models.ParseRole(parsed.Roles)
		if err != nil {
			return Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
		}
		claims.Role = role
	case KindRefresh:
		if parsed.Roles != "" {
			return Claims{}, fmt.Errorf("%w: refresh token must not carry a role claim", apperrors.ErrTokenMalformed)
		}
	}

	return claims, nil
}
