// Package vacancy drives the vacancy lifecycle: concept ->
// wacht_op_goedkeuring -> gepubliceerd -> verlopen / gedepubliceerd.
// Publishing is the credit-consuming transition and goes through the same
// locked-transaction path as a boost checkout.
package vacancy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/service/ledger"
)

// Tag shown on the public site while a vacancy is freshly published
const TagNew = "NIEUW"

type VacancyService struct {
	storage repository.Storage
	logger  logger.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewService(storage repository.Storage, l logger.Logger) *VacancyService {
	return &VacancyService{
		storage: storage,
		logger:  l,
		now:     time.Now,
	}
}

// Create makes a concept vacancy on the given package. Nothing is charged
// yet: the package cost is spent on publication.
func (s *VacancyService) Create(ctx context.Context, employerID uuid.UUID, title string, packageID string) (models.Vacancy, error) {
	var vacancy models.Vacancy

	employer, err := s.storage.Employer().GetEmployer(ctx, employerID)
	if err != nil {
		return vacancy, err
	}
	if employer.Status == models.EmployerStatusArchived {
		return vacancy, apperrors.ErrEmployerArchived
	}

	pkg, err := s.storage.Product().GetProduct(ctx, packageID)
	if err != nil {
		return vacancy, err
	}
	if !pkg.IsPackage() {
		return vacancy, apperrors.ErrProductNotPackage
	}

	return s.storage.Vacancy().CreateVacancy(ctx, models.Vacancy{
		EmployerID: employerID,
		Title:      title,
		Status:     models.VacancyStatusConcept,
		PackageID:  packageID,
		NeedsSync:  true,
	})
}

// Submit hands a concept vacancy over for approval
func (s *VacancyService) Submit(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error) {
	return s.transition(ctx, employerID, vacancyID, models.VacancyStatusConcept, models.VacancyStatusPending)
}

// Publish approves a pending vacancy, charges the package cost and opens the
// listing window. first_published_at is stamped once and never moves, since
// the extension window is anchored on it.
func (s *VacancyService) Publish(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, models.Balance, error) {
	var (
		vacancy models.Vacancy
		balance models.Balance
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := storage.Transaction().LockWallet(ctx, employerID); err != nil {
			return err
		}

		v, err := storage.Vacancy().GetVacancy(ctx, vacancyID)
		if err != nil {
			return err
		}
		if v.EmployerID != employerID {
			return apperrors.ErrVacancyWrongEmployer
		}
		if v.Status != models.VacancyStatusPending {
			return apperrors.ErrVacancyWrongStatus
		}

		pkg, err := storage.Product().GetProduct(ctx, v.PackageID)
		if err != nil {
			return err
		}

		txs, err := storage.Transaction().ListTransactions(ctx, employerID)
		if err != nil {
			return fmt.Errorf("can't list transactions. Err: %w", err)
		}

		now := s.now()
		balance = ledger.ComputeBalance(employerID, txs, now)
		if !ledger.CanAfford(balance, pkg.Credits) {
			return apperrors.ErrBalanceInsufficient
		}

		spend, err := storage.Transaction().CreateTransaction(ctx, models.Transaction{
			CreatedAt:  now,
			EmployerID: employerID,
			Type:       models.TransactionTypeSpend,
			Status:     models.TransactionStatusPaid,
			Credits:    pkg.Credits,
			ProductIDs: []string{pkg.ID},
			VacancyID:  &v.ID,
		})
		if err != nil {
			return fmt.Errorf("can't record spend. Err: %w", err)
		}

		v.Status = models.VacancyStatusPublished
		if v.FirstPublishedAt == nil {
			firstPublished := now
			v.FirstPublishedAt = &firstPublished
		}
		days := pkg.DurationDays
		if days <= 0 || days > models.MaxListingDays {
			days = models.MaxListingDays
		}
		closing := now.AddDate(0, 0, days)
		v.ClosingDate = &closing
		v.Tags = lo.Uniq(append(v.Tags, TagNew))

		vacancy, err = storage.Vacancy().UpdateVacancy(ctx, v)
		if err != nil {
			return fmt.Errorf("can't update vacancy. Err: %w", err)
		}

		balance = ledger.ComputeBalance(employerID, append(txs, spend), now)
		return nil
	})
	if err != nil {
		return models.Vacancy{}, models.Balance{}, err
	}

	s.logger.Info("Vacancy published",
		"employer_id", employerID,
		"vacancy_id", vacancyID,
		"package_id", vacancy.PackageID,
		"closing_date", vacancy.ClosingDate,
	)

	return vacancy, balance, nil
}

// Unpublish takes a published vacancy offline. Spent credits stay spent.
func (s *VacancyService) Unpublish(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error) {
	return s.transition(ctx, employerID, vacancyID, models.VacancyStatusPublished, models.VacancyStatusUnpublished)
}

func (s *VacancyService) Get(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error) {
	vacancy, err := s.storage.Vacancy().GetVacancy(ctx, vacancyID)
	if err != nil {
		return vacancy, err
	}
	if vacancy.EmployerID != employerID {
		return models.Vacancy{}, apperrors.ErrVacancyWrongEmployer
	}

	return vacancy, nil
}

func (s *VacancyService) List(ctx context.Context, employerID uuid.UUID) ([]models.Vacancy, error) {
	return s.storage.Vacancy().ListVacancies(ctx, employerID)
}

func (s *VacancyService) transition(ctx context.Context, employerID, vacancyID uuid.UUID, from string, to string) (models.Vacancy, error) {
	var vacancy models.Vacancy

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		v, err := storage.Vacancy().GetVacancy(ctx, vacancyID)
		if err != nil {
			return err
		}
		if v.EmployerID != employerID {
			return apperrors.ErrVacancyWrongEmployer
		}
		if v.Status != from {
			return apperrors.ErrVacancyWrongStatus
		}

		v.Status = to
		vacancy, err = storage.Vacancy().UpdateVacancy(ctx, v)
		return err
	})
	if err != nil {
		return models.Vacancy{}, err
	}

	return vacancy, nil
}
