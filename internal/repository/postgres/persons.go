package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gt-platform/gtauth/internal/apperrors"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
)

type PersonRepo struct {
	DB DBTX
}

const createPerson = `-- name: CreatePerson
INSERT INTO persons (name, phone, birth, gender, address1, address2)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, name, phone, birth, gender, address1, address2
`

func (r *PersonRepo) CreatePerson(ctx context.Context, arg repository.CreatePersonParams) (models.Person, error) {
	rows, _ := r.DB.Query(ctx, createPerson, arg.Name, arg.Phone, arg.Birth, arg.Gender, arg.Address1, arg.Address2)
	person, err := pgx.CollectOneRow(rows, rowToPerson)
	if err != nil {
		return person, fmt.Errorf("%w: %w", apperrors.ErrPersonNotSaved, err)
	}

	return person, nil
}

func rowToPerson(row pgx.CollectableRow) (models.Person, error) {
	var p models.Person
	err := row.Scan(&p.ID, &p.CreatedAt, &p.Name, &p.Phone, &p.Birth, &p.Gender, &p.Address1, &p.Address2)
	return p, err
}
