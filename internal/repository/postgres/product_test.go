package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/testutil"
)

func TestProducts(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, tx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(tx, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	product := models.Product{
		ID:              "pkg-premium",
		Name:            "Premium package",
		Credits:         decimal.NewFromInt(25),
		RepeatMode:      models.RepeatModeOnce,
		DurationDays:    365,
		Availability:    []string{models.AvailabilityPackage},
		IncludedUpsells: []string{"upsell-highlight"},
		Tag:             "",
	}

	t.Run("UpsertProduct", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			created, err := storage.Product().UpsertProduct(t.Context(), product)

			require.NoError(t, err, "product has to be created ok")
			require.Equal(t, product.ID, created.ID)
			require.True(t, created.Credits.Equal(decimal.NewFromInt(25)))
			require.Equal(t, []string{"upsell-highlight"}, created.IncludedUpsells)

			// Sync runs repeatedly: the second upsert replaces the row
			updated := product
			updated.Credits = decimal.NewFromInt(30)
			got, err := storage.Product().UpsertProduct(t.Context(), updated)

			require.NoError(t, err)
			require.True(t, got.Credits.Equal(decimal.NewFromInt(30)))
		})
	})

	t.Run("GetProduct", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			_, err := storage.Product().UpsertProduct(t.Context(), product)
			require.NoError(t, err)

			t.Run("get ok", func(t *testing.T) {
				got, err := storage.Product().GetProduct(t.Context(), product.ID)

				require.NoError(t, err)
				require.Equal(t, product.ID, got.ID)
			})

			t.Run("not found", func(t *testing.T) {
				_, err := storage.Product().GetProduct(t.Context(), "missing")

				require.ErrorIs(t, err, apperrors.ErrProductNotFound)
			})
		})
	})

	t.Run("ListProducts", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			second := product
			second.ID = "upsell-social"
			second.Availability = []string{models.AvailabilityBoostOption}

			for _, p := range []models.Product{product, second} {
				_, err := storage.Product().UpsertProduct(t.Context(), p)
				require.NoError(t, err)
			}

			list, err := storage.Product().ListProducts(t.Context())

			require.NoError(t, err)
			require.Len(t, list, 2)
			require.Equal(t, "pkg-premium", list[0].ID, "ordered by id")
		})
	})
}
