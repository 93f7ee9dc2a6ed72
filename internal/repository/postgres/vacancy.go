package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
)

type VacancyRepo struct {
	DB DBTX
}

const createVacancy = `-- name: CreateVacancy
INSERT INTO vacancies (id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync
`

func (r *VacancyRepo) CreateVacancy(ctx context.Context, v models.Vacancy) (models.Vacancy, error) {
	now := time.Now()

	// Vacancy with defaults
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.ModifiedAt = now
	if v.Status == "" {
		v.Status = models.VacancyStatusConcept
	}
	if v.SelectedUpsells == nil {
		v.SelectedUpsells = []string{}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}

	rows, _ := r.DB.Query(ctx, createVacancy,
		v.ID, v.CreatedAt, v.ModifiedAt, v.EmployerID, v.Title, v.Status, v.PackageID,
		v.SelectedUpsells, v.FirstPublishedAt, v.ClosingDate, v.Tags, v.NeedsSync,
	)
	v, err := pgx.CollectOneRow(rows, rowToVacancy)
	if err != nil {
		return v, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

const getVacancy = `-- name: GetVacancy
SELECT id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync
FROM vacancies
WHERE id = $1
`

func (r *VacancyRepo) GetVacancy(ctx context.Context, id uuid.UUID) (models.Vacancy, error) {
	rows, _ := r.DB.Query(ctx, getVacancy, id)
	v, err := pgx.CollectOneRow(rows, rowToVacancy)

	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, pgx.ErrNoRows):
		return v, apperrors.ErrVacancyNotFound
	default:
		return v, fmt.Errorf("db error: %w", err)
	}
}

const listVacancies = `-- name: ListVacancies
SELECT id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync
FROM vacancies
WHERE employer_id = $1
ORDER BY created_at DESC, id DESC
`

func (r *VacancyRepo) ListVacancies(ctx context.Context, employerID uuid.UUID) ([]models.Vacancy, error) {
	rows, _ := r.DB.Query(ctx, listVacancies, employerID)
	vacancies, err := pgx.CollectRows(rows, rowToVacancy)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return vacancies, nil
}

// needs_sync is forced true in the same statement as the mutation it
// advertises, so the CMS sync can never miss a change
const updateVacancy = `-- name: UpdateVacancy
UPDATE vacancies
SET modified_at = $2,
	title = $3,
	status = $4,
	package_id = $5,
	selected_upsells = $6,
	first_published_at = $7,
	closing_date = $8,
	tags = $9,
	needs_sync = true
WHERE id = $1
RETURNING id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync
`

func (r *VacancyRepo) UpdateVacancy(ctx context.Context, v models.Vacancy) (models.Vacancy, error) {
	rows, _ := r.DB.Query(ctx, updateVacancy,
		v.ID, time.Now(), v.Title, v.Status, v.PackageID,
		v.SelectedUpsells, v.FirstPublishedAt, v.ClosingDate, v.Tags,
	)
	v, err := pgx.CollectOneRow(rows, rowToVacancy)

	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, pgx.ErrNoRows):
		return v, apperrors.ErrVacancyNotFound
	default:
		return v, fmt.Errorf("db error: %w", err)
	}
}

const markExpired = `-- name: MarkExpired
UPDATE vacancies
SET status = $1, modified_at = $2, needs_sync = true
WHERE status = $3 AND closing_date IS NOT NULL AND closing_date <= $2
RETURNING id, created_at, modified_at, employer_id, title, status, package_id, selected_upsells, first_published_at, closing_date, tags, needs_sync
`

func (r *VacancyRepo) MarkExpired(ctx context.Context, now time.Time) ([]models.Vacancy, error) {
	rows, _ := r.DB.Query(ctx, markExpired, models.VacancyStatusExpired, now, models.VacancyStatusPublished)
	vacancies, err := pgx.CollectRows(rows, rowToVacancy)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return vacancies, nil
}

func rowToVacancy(row pgx.CollectableRow) (models.Vacancy, error) {
	var v models.Vacancy
	err := row.Scan(
		&v.ID, &v.CreatedAt, &v.ModifiedAt, &v.EmployerID, &v.Title, &v.Status, &v.PackageID,
		&v.SelectedUpsells, &v.FirstPublishedAt, &v.ClosingDate, &v.Tags, &v.NeedsSync,
	)
	return v, err
}
