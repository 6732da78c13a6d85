package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (email, name, password_hash, provider, role)
VALUES ($1, $2, $3, 'local', $4)
RETURNING id, created_at, updated_at, email, name, password_hash, picture, provider, role
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, arg.Email, arg.Name, arg.PasswordHash, arg.Role.String())
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, fmt.Errorf("repo error: %w", apperrors.ErrUserAlreadyExists)
		}
		return user, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return user, nil
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, updated_at, email, name, password_hash, picture, provider, role
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}
}

const upsertSocialUser = `-- name: UpsertSocialUser
INSERT INTO users (email, name, picture, provider, role)
VALUES ($1, $2, $3, $4, 'USER')
ON CONFLICT (email) DO UPDATE
SET name = EXCLUDED.name, picture = EXCLUDED.picture, updated_at = now()
RETURNING id, created_at, updated_at, email, name, password_hash, picture, provider, role
`

func (r *UserRepo) UpsertSocialUser(ctx context.Context, arg repository.UpsertSocialUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, upsertSocialUser, arg.Email, arg.Name, arg.Picture, arg.Provider)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	if err != nil {
		return user, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return user, nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	var role string

	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &u.Name, &u.PasswordHash, &u.Picture, &u.Provider, &role)
	if err != nil {
		return u, err
	}

	u.Role, err = models.ParseRole(role)
	return u, err
}
