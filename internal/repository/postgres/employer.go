package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
)

type EmployerRepo struct {
	DB DBTX
}

const createEmployer = `-- name: CreateEmployer
INSERT INTO employers (id, created_at, name, status)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, name, status, archived_at
`

func (r *EmployerRepo) CreateEmployer(ctx context.Context, name string) (models.Employer, error) {
	rows, _ := r.DB.Query(ctx, createEmployer, uuid.New(), time.Now(), name, models.EmployerStatusPendingOnboarding)
	e, err := pgx.CollectOneRow(rows, rowToEmployer)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return e, apperrors.ErrEmployerAlreadyExists
		}

		return e, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

const getEmployer = `-- name: GetEmployer
SELECT id, created_at, name, status, archived_at FROM employers
WHERE id = $1
`

func (r *EmployerRepo) GetEmployer(ctx context.Context, id uuid.UUID) (models.Employer, error) {
	rows, _ := r.DB.Query(ctx, getEmployer, id)
	e, err := pgx.CollectOneRow(rows, rowToEmployer)

	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, pgx.ErrNoRows):
		return e, apperrors.ErrEmployerNotFound
	default:
		return e, fmt.Errorf("db error: %w", err)
	}
}

const setEmployerStatus = `-- name: SetEmployerStatus
UPDATE employers
SET status = $2
WHERE id = $1
RETURNING id, created_at, name, status, archived_at
`

func (r *EmployerRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Employer, error) {
	rows, _ := r.DB.Query(ctx, setEmployerStatus, id, status)
	e, err := pgx.CollectOneRow(rows, rowToEmployer)

	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, pgx.ErrNoRows):
		return e, apperrors.ErrEmployerNotFound
	default:
		return e, fmt.Errorf("db error: %w", err)
	}
}

const archiveEmployer = `-- name: ArchiveEmployer
UPDATE employers
SET status = $2, archived_at = $3
WHERE id = $1
RETURNING id, created_at, name, status, archived_at
`

func (r *EmployerRepo) Archive(ctx context.Context, id uuid.UUID) (models.Employer, error) {
	rows, _ := r.DB.Query(ctx, archiveEmployer, id, models.EmployerStatusArchived, time.Now())
	e, err := pgx.CollectOneRow(rows, rowToEmployer)

	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, pgx.ErrNoRows):
		return e, apperrors.ErrEmployerNotFound
	default:
		return e, fmt.Errorf("db error: %w", err)
	}
}

func rowToEmployer(row pgx.CollectableRow) (models.Employer, error) {
	var e models.Employer
	err := row.Scan(&e.ID, &e.CreatedAt, &e.Name, &e.Status, &e.ArchivedAt)
	return e, err
}
