package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
)

type ProductRepo struct {
	DB DBTX
}

const upsertProduct = `-- name: UpsertProduct
INSERT INTO products (id, name, credits, repeat_mode, duration_days, availability, included_upsells, tag)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
	credits = EXCLUDED.credits,
	repeat_mode = EXCLUDED.repeat_mode,
	duration_days = EXCLUDED.duration_days,
	availability = EXCLUDED.availability,
	included_upsells = EXCLUDED.included_upsells,
	tag = EXCLUDED.tag
RETURNING id, name, credits, repeat_mode, duration_days, availability, included_upsells, tag
`

func (r *ProductRepo) UpsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	rows, _ := r.DB.Query(ctx, upsertProduct,
		p.ID, p.Name, p.Credits, p.RepeatMode, p.DurationDays, p.Availability, p.IncludedUpsells, p.Tag,
	)
	p, err := pgx.CollectOneRow(rows, rowToProduct)
	if err != nil {
		return p, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

const getProduct = `-- name: GetProduct
SELECT id, name, credits, repeat_mode, duration_days, availability, included_upsells, tag FROM products
WHERE id = $1
`

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (models.Product, error) {
	rows, _ := r.DB.Query(ctx, getProduct, id)
	p, err := pgx.CollectOneRow(rows, rowToProduct)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrProductNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

const listProducts = `-- name: ListProducts
SELECT id, name, credits, repeat_mode, duration_days, availability, included_upsells, tag FROM products
ORDER BY id
`

func (r *ProductRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, _ := r.DB.Query(ctx, listProducts)
	products, err := pgx.CollectRows(rows, rowToProduct)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return products, nil
}

func rowToProduct(row pgx.CollectableRow) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Credits, &p.RepeatMode, &p.DurationDays, &p.Availability, &p.IncludedUpsells, &p.Tag)
	return p, err
}
