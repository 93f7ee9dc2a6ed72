package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/testutil"
)

func TestEmployers(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, tx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(tx, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	t.Run("CreateEmployer", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
				employer, err := storage.Employer().CreateEmployer(t.Context(), "acme")

				require.NoError(t, err, "employer has to be created ok")
				require.NotEqual(t, uuid.Nil, employer.ID)
				require.WithinDuration(t, time.Now(), employer.CreatedAt, time.Second)
				require.Equal(t, "acme", employer.Name)
				require.Equal(t, models.EmployerStatusPendingOnboarding, employer.Status)
				require.Nil(t, employer.ArchivedAt)
			})
		})

		t.Run("create twice", func(t *testing.T) {
			withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
				_, err := storage.Employer().CreateEmployer(t.Context(), "acme")
				require.NoError(t, err)

				_, err = storage.Employer().CreateEmployer(t.Context(), "acme")

				require.ErrorIs(t, err, apperrors.ErrEmployerAlreadyExists, "should return well known error")
			})
		})
	})

	t.Run("GetEmployer", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			employer, err := storage.Employer().CreateEmployer(t.Context(), "acme")
			require.NoError(t, err)

			t.Run("get ok", func(t *testing.T) {
				got, err := storage.Employer().GetEmployer(t.Context(), employer.ID)

				require.NoError(t, err)
				require.Equal(t, employer.ID, got.ID)
			})

			t.Run("not found", func(t *testing.T) {
				_, err := storage.Employer().GetEmployer(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrEmployerNotFound)
			})
		})
	})

	t.Run("SetStatus", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			employer, err := storage.Employer().CreateEmployer(t.Context(), "acme")
			require.NoError(t, err)

			got, err := storage.Employer().SetStatus(t.Context(), employer.ID, models.EmployerStatusActive)

			require.NoError(t, err)
			require.Equal(t, models.EmployerStatusActive, got.Status)
		})
	})

	t.Run("Archive", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			employer, err := storage.Employer().CreateEmployer(t.Context(), "acme")
			require.NoError(t, err)

			got, err := storage.Employer().Archive(t.Context(), employer.ID)

			require.NoError(t, err)
			require.Equal(t, models.EmployerStatusArchived, got.Status)
			require.NotNil(t, got.ArchivedAt, "archive must stamp archived_at")
		})
	})
}
