package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
	"github.com/gt-platform/gtauth/internal/revocation"
	"github.com/gt-platform/gtauth/internal/service/social"
	"github.com/gt-platform/gtauth/internal/token"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

type Config struct {
	// Access and refresh token lifetimes
	// If not set defaults are used
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Hasher used for password logins
	// If not set BcryptHasher is used
	Hasher PasswordHasher
}

// Identity of an authenticated caller, attached to request context by the
// authentication gate
type Identity struct {
	Email string
	Role  models.Role
}

// Service orchestrates the token lifecycle: login, refresh with
// single-use rotation, logout and social login
type Service struct {
	codec    *token.Codec
	revoked  revocation.Store
	verifier *Verifier
	users    repository.UserRepo
	social   map[string]social.Verifier

	accessTTL  time.Duration
	refreshTTL time.Duration

	now    func() time.Time
	logger logger.Logger
}

func NewService(
	cfg Config,
	codec *token.Codec,
	revoked revocation.Store,
	users repository.UserRepo,
	socialVerifiers []social.Verifier,
	l logger.Logger,
) (*Service, error) {
	if codec == nil || revoked == nil || users == nil {
		return nil, errors.New("codec, revocation store and user repo must not be nil")
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTokenTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTokenTTL, defaultRefreshTokenTTL)

	verifier, err := NewVerifier(cfg.Hasher, users)
	if err != nil {
		return nil, fmt.Errorf("error while creating credential verifier. Err: %w", err)
	}

	byProvider := make(map[string]social.Verifier, len(socialVerifiers))
	for _, v := range socialVerifiers {
		byProvider[v.Provider()] = v
	}

	return &Service{
		codec:      codec,
		revoked:    revoked,
		verifier:   verifier,
		users:      users,
		social:     byProvider,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
		logger:     l,
	}, nil
}

// TokenTTLs returns the configured lifetimes, used to fill the
// 'expires in' fields of auth responses
func (s *Service) TokenTTLs() (access time.Duration, refresh time.Duration) {
	return s.accessTTL, s.refreshTTL
}

// Register creates a local user and returns its first token pair
func (s *Service) Register(ctx context.Context, email string, password string, name string) (models.TokenPair, error) {
	hash, err := s.verifier.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.issuePair(user.Email, user.Role)
}

// Login verifies credentials and issues a fresh access+refresh pair.
// Always fails with apperrors.ErrAuthenticationFailed on bad credentials,
// never hinting whether the email exists.
func (s *Service) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.issuePair(user.Email, user.Role)
}

// Refresh rotates a refresh token: the old token buys exactly one new
// pair and is blacklisted for its remaining lifetime afterwards. The new
// pair is constructed before the old token is revoked, so there is no
// window with zero valid refresh tokens.
func (s *Service) Refresh(ctx context.Context, oldRefresh string) (models.TokenPair, error) {
	claims, err := s.codec.Decode(oldRefresh, token.KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, oldRefresh)
	if err != nil {
		// fail closed: unknown blacklist state means the token can't be trusted
		return models.TokenPair{}, err
	}
	if revoked {
		return models.TokenPair{}, apperrors.ErrTokenRevoked
	}

	// refresh tokens carry no role claim; the persisted user is the
	// source of truth for authority
	user, err := s.users.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.TokenPair{}, apperrors.ErrAuthenticationFailed
		}
		return models.TokenPair{}, err
	}

	pair, err := s.issuePair(user.Email, user.Role)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.revoked.Revoke(ctx, oldRefresh, claims.RemainingTTL(s.now())); err != nil {
		// the already issued pair stays alive: an accepted, bounded-risk
		// window; the caller still must not get an unrotated token back
		s.logger.Error("failed to revoke rotated refresh token", "error", err.Error())
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout blacklists the access token for its remaining lifetime; a
// supplied refresh token is revoked too when it verifies on its own.
// Garbage access tokens fail with a token error; revoking an already
// blacklisted token is a silent success.
func (s *Service) Logout(ctx context.Context, accessToken string, refreshToken string) error {
	claims, err := s.codec.Decode(accessToken, token.KindAccess)
	if err != nil {
		return err
	}

	if err := s.revoked.Revoke(ctx, accessToken, claims.RemainingTTL(s.now())); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}

	refreshClaims, err := s.codec.Decode(refreshToken, token.KindRefresh)
	if err != nil {
		// invalid refresh token supplied on logout is not worth failing
		// the whole operation: the access token is already dead
		s.logger.Warn("logout: supplied refresh token not revocable", "error", err.Error())
		return nil
	}

	return s.revoked.Revoke(ctx, refreshToken, refreshClaims.RemainingTTL(s.now()))
}

// SocialLogin verifies a provider identity token, upserts the user record
// and issues a token pair with the user's persisted role
func (s *Service) SocialLogin(ctx context.Context, provider string, identityToken string) (models.TokenPair, error) {
	verifier, ok := s.social[provider]
	if !ok {
		s.logger.Warn("social login with unsupported provider", "provider", provider)
		return models.TokenPair{}, apperrors.ErrAuthenticationFailed
	}

	identity, err := verifier.Verify(ctx, identityToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.LoginWithIdentity(ctx, provider, identity)
}

// LoginWithIdentity upserts the user for an already verified provider
// identity and issues a token pair. Exposed for the OAuth redirect flow,
// which verifies identities through the code exchange instead of an ID
// token.
func (s *Service) LoginWithIdentity(ctx context.Context, provider string, identity social.Identity) (models.TokenPair, error) {
	if identity.Email == "" {
		return models.TokenPair{}, apperrors.ErrAuthenticationFailed
	}

	user, err := s.users.UpsertSocialUser(ctx, repository.UpsertSocialUserParams{
		Email:    identity.Email,
		Name:     identity.Name,
		Picture:  identity.Picture,
		Provider: provider,
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.issuePair(user.Email, user.Role)
}

// Authenticate validates an access token (signature, expiry, revocation)
// and returns the caller identity. Used by the authentication gate on
// every protected request.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.codec.Decode(accessToken, token.KindAccess)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, accessToken)
	if err != nil {
		return Identity{}, err
	}
	if revoked {
		return Identity{}, apperrors.ErrTokenRevoked
	}

	return Identity{Email: claims.Subject, Role: claims.Role}, nil
}

func (s *Service) issuePair(email string, role models.Role) (models.TokenPair, error) {
	access, err := s.codec.Issue(email, role, s.accessTTL, token.KindAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.codec.Issue(email, role, s.refreshTTL, token.KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
