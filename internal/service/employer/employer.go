package employer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
)

type EmployerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *EmployerService {
	return &EmployerService{storage: storage}
}

// Register creates the tenant account in 'pending_onboarding'. The
// onboarding wizard itself lives in the frontend; this is the record it
// writes to at step 2.
func (s *EmployerService) Register(ctx context.Context, name string) (models.Employer, error) {
	employer, err := s.storage.Employer().CreateEmployer(ctx, name)
	if err != nil {
		return employer, fmt.Errorf("can't create employer. Err: %w", err)
	}

	return employer, nil
}

// Activate marks onboarding as completed
func (s *EmployerService) Activate(ctx context.Context, id uuid.UUID) (models.Employer, error) {
	return s.storage.Employer().SetStatus(ctx, id, models.EmployerStatusActive)
}

// Archive soft-archives the account. Employers are never hard-deleted, the
// transaction log must survive an account restart.
func (s *EmployerService) Archive(ctx context.Context, id uuid.UUID) (models.Employer, error) {
	return s.storage.Employer().Archive(ctx, id)
}

func (s *EmployerService) Get(ctx context.Context, id uuid.UUID) (models.Employer, error) {
	return s.storage.Employer().GetEmployer(ctx, id)
}
