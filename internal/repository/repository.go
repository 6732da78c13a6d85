package repository

import (
	"context"

	"github.com/gt-platform/gtauth/internal/models"
)

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         models.Role
}

type UpsertSocialUserParams struct {
	Email    string
	Name     string
	Picture  string
	Provider string
}

type CreatePersonParams struct {
	Name     string
	Phone    string
	Birth    string
	Gender   string
	Address1 string
	Address2 string
}

// User repository interface
type UserRepo interface {
	// Create local user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Create-if-absent keyed by email, else update name and picture.
	// Used by social login; never touches password hash or role of an
	// existing user.
	UpsertSocialUser(ctx context.Context, arg UpsertSocialUserParams) (models.User, error)
}

// Person repository interface
type PersonRepo interface {
	// Create person record. Create-only: the resource has no update or
	// delete operations.
	CreatePerson(ctx context.Context, arg CreatePersonParams) (models.Person, error)
}

type Storage interface {
	User() UserRepo
	Person() PersonRepo
}
