package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
	"github.com/gt-platform/gtauth/internal/revocation"
	"github.com/gt-platform/gtauth/internal/service/social"
	"github.com/gt-platform/gtauth/internal/token"
)

const testSecret = "test-secret-key-0123456789abcdef"

// fakeUserRepo keeps users in a map keyed by email. Good enough to drive
// the service without a database.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, arg repository.CreateUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[arg.Email]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	hash := arg.PasswordHash
	user := models.User{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		Email:        arg.Email,
		Name:         arg.Name,
		PasswordHash: &hash,
		Provider:     "local",
		Role:         arg.Role,
	}
	r.users[arg.Email] = user
	return user, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) UpsertSocialUser(_ context.Context, arg repository.UpsertSocialUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[arg.Email]
	if !ok {
		user = models.User{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			Email:     arg.Email,
			Provider:  arg.Provider,
			Role:      models.RoleUser,
		}
	}
	user.Name = arg.Name
	user.Picture = arg.Picture
	user.UpdatedAt = time.Now()
	r.users[arg.Email] = user
	return user, nil
}

// brokenStore fails every call the way an unreachable redis would
type brokenStore struct{}

func (brokenStore) Revoke(context.Context, string, time.Duration) error {
	return apperrors.ErrStoreUnavailable
}

func (brokenStore) IsRevoked(context.Context, string) (bool, error) {
	return false, apperrors.ErrStoreUnavailable
}

// staticVerifier returns a fixed identity for one exact token value
type staticVerifier struct {
	provider string
	token    string
	identity social.Identity
}

func (v staticVerifier) Provider() string { return v.provider }

func (v staticVerifier) Verify(_ context.Context, identityToken string) (social.Identity, error) {
	if identityToken != v.token {
		return social.Identity{}, apperrors.ErrAuthenticationFailed
	}
	return v.identity, nil
}

type testEnv struct {
	service *Service
	users   *fakeUserRepo
	revoked revocation.Store
}

func newTestService(t *testing.T, cfg Config, opts ...func(*testEnv)) *testEnv {
	t.Helper()

	key, err := token.NewKey(testSecret)
	require.NoError(t, err)

	memStore := revocation.NewMemoryStore()
	t.Cleanup(memStore.Close)

	env := &testEnv{
		users:   newFakeUserRepo(),
		revoked: memStore,
	}
	for _, opt := range opts {
		opt(env)
	}

	env.service, err = NewService(cfg, token.NewCodec(key), env.revoked, env.users, []social.Verifier{
		staticVerifier{
			provider: "google",
			token:    "good-google-token",
			identity: social.Identity{Email: "social@example.com", Name: "Social User", Picture: "https://example.com/p.png"},
		},
	}, nil)
	require.NoError(t, err, "auth service should be created without errors")

	return env
}

func Test_Service_New(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		env := newTestService(t, Config{})

		access, refresh := env.service.TokenTTLs()
		require.Equal(t, defaultAccessTokenTTL, access)
		require.Equal(t, defaultRefreshTokenTTL, refresh)
	})

	t.Run("nil dependencies rejected", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil, nil, nil, nil)

		require.Error(t, err)
	})
}

func Test_Service_RegisterLogin(t *testing.T) {
	t.Parallel()

	t.Run("register issues pair", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")

		require.NoError(t, err)
		require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
		require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
	})

	t.Run("register duplicate email", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Register(t.Context(), "user@example.com", "other-pwd", "User")

		require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
	})

	t.Run("login ok", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		pair, err := env.service.Login(t.Context(), "user@example.com", "pwd12345")

		require.NoError(t, err)

		identity, err := env.service.Authenticate(t.Context(), pair.Access.Value)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", identity.Email, "token subject should be the email")
		assert.Equal(t, models.RoleUser, identity.Role)
	})

	t.Run("wrong password and unknown user fail alike", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, errWrongPwd := env.service.Login(t.Context(), "user@example.com", "bad-password")
		_, errNoUser := env.service.Login(t.Context(), "ghost@example.com", "bad-password")

		require.ErrorIs(t, errWrongPwd, apperrors.ErrAuthenticationFailed)
		require.ErrorIs(t, errNoUser, apperrors.ErrAuthenticationFailed)
		assert.Equal(t, errWrongPwd.Error(), errNoUser.Error(), "failure reason must not leak through the error")
	})
}

func Test_Service_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotation returns new pair", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		newPair, err := env.service.Refresh(t.Context(), pair.Refresh.Value)

		require.NoError(t, err)
		require.NotEmpty(t, newPair.Access.Value)
		require.NotEqual(t, pair.Refresh.Value, newPair.Refresh.Value, "refresh token should rotate")
	})

	t.Run("refresh token is single use", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Refresh.Value)
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Refresh.Value)

		require.ErrorIs(t, err, apperrors.ErrTokenRevoked, "second use of the same refresh token must fail")
	})

	t.Run("rotated pair stays valid", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		newPair, err := env.service.Refresh(t.Context(), pair.Refresh.Value)
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), newPair.Refresh.Value)
		require.NoError(t, err, "the pair issued by rotation should itself refresh fine")
	})

	t.Run("access token rejected on refresh", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Access.Value)

		require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
	})

	t.Run("role comes from the user record", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		// promote the user after the pair was issued
		env.users.mu.Lock()
		user := env.users.users["user@example.com"]
		user.Role = models.RoleAdmin
		env.users.users["user@example.com"] = user
		env.users.mu.Unlock()

		newPair, err := env.service.Refresh(t.Context(), pair.Refresh.Value)
		require.NoError(t, err)

		identity, err := env.service.Authenticate(t.Context(), newPair.Access.Value)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, identity.Role, "rotated access token should carry the persisted role")
	})

	t.Run("store outage fails closed", func(t *testing.T) {
		env := newTestService(t, Config{}, func(e *testEnv) { e.revoked = brokenStore{} })

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Refresh.Value)

		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable, "unknown blacklist state must reject the refresh")
	})
}

func Test_Service_Logout(t *testing.T) {
	t.Parallel()

	t.Run("access token dies", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		err = env.service.Logout(t.Context(), pair.Access.Value, "")
		require.NoError(t, err)

		_, err = env.service.Authenticate(t.Context(), pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("refresh token dies too when supplied", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		err = env.service.Logout(t.Context(), pair.Access.Value, pair.Refresh.Value)
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("refresh token survives when not supplied", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		err = env.service.Logout(t.Context(), pair.Access.Value, "")
		require.NoError(t, err)

		_, err = env.service.Refresh(t.Context(), pair.Refresh.Value)
		require.NoError(t, err, "logout without refresh token must not touch it")
	})

	t.Run("invalid supplied refresh token is ignored", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		err = env.service.Logout(t.Context(), pair.Access.Value, "garbage")

		require.NoError(t, err, "a bad refresh token should not fail the logout")
	})

	t.Run("double logout is fine", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		require.NoError(t, env.service.Logout(t.Context(), pair.Access.Value, ""))
		require.NoError(t, env.service.Logout(t.Context(), pair.Access.Value, ""), "revoking a revoked token is a no-op")
	})

	t.Run("garbage access token", func(t *testing.T) {
		env := newTestService(t, Config{})

		err := env.service.Logout(t.Context(), "garbage", "")

		require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
	})
}

func Test_Service_SocialLogin(t *testing.T) {
	t.Parallel()

	t.Run("creates user and issues pair", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.SocialLogin(t.Context(), "google", "good-google-token")

		require.NoError(t, err)
		require.NotEmpty(t, pair.Access.Value)

		user, err := env.users.GetUserByEmail(t.Context(), "social@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Social User", user.Name)
		assert.Equal(t, "https://example.com/p.png", user.Picture)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Nil(t, user.PasswordHash, "social account should have no password hash")
	})

	t.Run("existing user keeps role, refreshes profile", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.SocialLogin(t.Context(), "google", "good-google-token")
		require.NoError(t, err)

		env.users.mu.Lock()
		user := env.users.users["social@example.com"]
		user.Role = models.RoleAdmin
		env.users.users["social@example.com"] = user
		env.users.mu.Unlock()

		pair, err := env.service.SocialLogin(t.Context(), "google", "good-google-token")
		require.NoError(t, err)

		identity, err := env.service.Authenticate(t.Context(), pair.Access.Value)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, identity.Role, "upsert must not reset the role")
	})

	t.Run("unknown provider", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.SocialLogin(t.Context(), "facebook", "good-google-token")

		require.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})

	t.Run("bad identity token", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.SocialLogin(t.Context(), "google", "forged-token")

		require.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})

	t.Run("identity without email", func(t *testing.T) {
		env := newTestService(t, Config{})

		_, err := env.service.LoginWithIdentity(t.Context(), "google", social.Identity{Name: "No Email"})

		require.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})
}

func Test_Service_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid access token", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		identity, err := env.service.Authenticate(t.Context(), pair.Access.Value)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", identity.Email)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		env := newTestService(t, Config{})

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Authenticate(t.Context(), pair.Refresh.Value)

		require.ErrorIs(t, err, apperrors.ErrTokenMalformed, "refresh token must not authenticate requests")
	})

	t.Run("store outage fails closed", func(t *testing.T) {
		env := newTestService(t, Config{}, func(e *testEnv) { e.revoked = brokenStore{} })

		pair, err := env.service.Register(t.Context(), "user@example.com", "pwd12345", "User")
		require.NoError(t, err)

		_, err = env.service.Authenticate(t.Context(), pair.Access.Value)

		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})
}
