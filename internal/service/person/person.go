// Package person implements the create-only Person resource
package person

import (
	"context"
	"errors"

	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
)

type Service struct {
	persons repository.PersonRepo
}

func NewService(persons repository.PersonRepo) (*Service, error) {
	if persons == nil {
		return nil, errors.New("person repo must not be nil")
	}
	return &Service{persons: persons}, nil
}

func (s *Service) Create(ctx context.Context, arg repository.CreatePersonParams) (models.Person, error) {
	return s.persons.CreatePerson(ctx, arg)
}
