package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gt-platform/gtauth/internal/repository"
	"github.com/gt-platform/gtauth/internal/testutil"
)

func Test_PersonRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepo := func(t *testing.T, testFunc func(r *PersonRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			testFunc(&PersonRepo{DB: tx})
		})
	}

	t.Run("create person ok", func(t *testing.T) {
		withRepo(t, func(r *PersonRepo) {
			person, err := r.CreatePerson(t.Context(), repository.CreatePersonParams{
				Name:     "John Smith",
				Phone:    "555-0100",
				Birth:    "1990-01-01",
				Gender:   "male",
				Address1: "1 Main St",
				Address2: "Apt 2",
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, person.ID)
			assert.Equal(t, "John Smith", person.Name)
			assert.Equal(t, "555-0100", person.Phone)
			assert.Equal(t, "Apt 2", person.Address2)
			assert.WithinDuration(t, time.Now(), person.CreatedAt, time.Second)
		})
	})

	t.Run("optional fields default to empty", func(t *testing.T) {
		withRepo(t, func(r *PersonRepo) {
			person, err := r.CreatePerson(t.Context(), repository.CreatePersonParams{Name: "Jane Smith"})

			require.NoError(t, err)
			assert.Equal(t, "Jane Smith", person.Name)
			assert.Empty(t, person.Phone)
			assert.Empty(t, person.Birth)
		})
	})
}
