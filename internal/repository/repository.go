package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wervio/wervio/internal/models"
)

// Employer repository interface
type EmployerRepo interface {
	// Create employer in 'pending_onboarding' status
	// If an employer with the name exists already has to return apperrors.ErrEmployerAlreadyExists
	CreateEmployer(ctx context.Context, name string) (models.Employer, error)

	// Get employer by its id
	// If employer not found must return apperrors.ErrEmployerNotFound
	GetEmployer(ctx context.Context, id uuid.UUID) (models.Employer, error)

	// Set employer status ('pending_onboarding' -> 'active')
	SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Employer, error)

	// Soft-archive: employers are never hard-deleted
	Archive(ctx context.Context, id uuid.UUID) (models.Employer, error)
}

// Product repository interface.
// The catalog is managed externally; UpsertProduct exists for the catalog
// sync only, the application itself reads.
type ProductRepo interface {
	UpsertProduct(ctx context.Context, p models.Product) (models.Product, error)

	// If product not found must return apperrors.ErrProductNotFound
	GetProduct(ctx context.Context, id string) (models.Product, error)

	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Transaction repository interface. The log is append-only: no update except
// the status transition, no delete.
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// Newest first
	ListTransactions(ctx context.Context, employerID uuid.UUID) ([]models.Transaction, error)

	// Transition status 'from' -> 'to' only; if the row is not in 'from'
	// must return apperrors.ErrTransactionNotOpen
	SetStatus(ctx context.Context, id uuid.UUID, from string, to string) (models.Transaction, error)

	// Serialize wallet writes for one employer for the rest of the current
	// db transaction. Must be called inside InTx before any balance check.
	LockWallet(ctx context.Context, employerID uuid.UUID) error

	// Employers that own paid purchase bundles expired before 'now', for
	// the expiration sweeper
	ListEmployersWithExpiredBundles(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Vacancy repository interface
type VacancyRepo interface {
	CreateVacancy(ctx context.Context, v models.Vacancy) (models.Vacancy, error)

	// If vacancy not found must return apperrors.ErrVacancyNotFound
	GetVacancy(ctx context.Context, id uuid.UUID) (models.Vacancy, error)

	// Newest first
	ListVacancies(ctx context.Context, employerID uuid.UUID) ([]models.Vacancy, error)

	// Full-row update; bumps modified_at and must flip needs_sync in the
	// same write as the mutation it advertises
	UpdateVacancy(ctx context.Context, v models.Vacancy) (models.Vacancy, error)

	// Expire published vacancies whose closing date passed; returns the
	// expired rows
	MarkExpired(ctx context.Context, now time.Time) ([]models.Vacancy, error)
}

type Storage interface {
	Employer() EmployerRepo
	Product() ProductRepo
	Transaction() TransactionRepo
	Vacancy() VacancyRepo

	// Run fn within a db transaction. Commit if fn returns nil, rollback otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
