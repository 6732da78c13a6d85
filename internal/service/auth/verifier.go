package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
)

// Verifier validates email/password pairs against stored hashes.
//
// Every failure path returns the same apperrors.ErrAuthenticationFailed:
// callers and clients never learn whether the email exists, the password
// was wrong, or the account is social-only.
type Verifier struct {
	hasher PasswordHasher
	users  repository.UserRepo

	// compared when no stored hash is available, so the time spent on a
	// miss matches the time spent on a hash mismatch
	dummyHash string
}

func NewVerifier(hasher PasswordHasher, users repository.UserRepo) (*Verifier, error) {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if users == nil {
		return nil, errors.New("user repo must not be nil")
	}

	dummyHash, err := hasher.Hash("gtauth.verifier.dummy")
	if err != nil {
		return nil, fmt.Errorf("error while preparing dummy hash. Err: %w", err)
	}

	return &Verifier{
		hasher:    hasher,
		users:     users,
		dummyHash: dummyHash,
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, email string, password string) (models.User, error) {
	user, err := v.users.GetUserByEmail(ctx, email)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = v.hasher.Compare(v.dummyHash, password)
		return models.User{}, apperrors.ErrAuthenticationFailed
	case err != nil:
		// store outage: reject, do not fall through to a comparison
		// against empty data
		return models.User{}, err
	}

	if user.PasswordHash == nil {
		_ = v.hasher.Compare(v.dummyHash, password)
		return models.User{}, apperrors.ErrAuthenticationFailed
	}

	if err := v.hasher.Compare(*user.PasswordHash, password); err != nil {
		return models.User{}, apperrors.ErrAuthenticationFailed
	}

	return user, nil
}
