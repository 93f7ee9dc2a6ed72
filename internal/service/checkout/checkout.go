// Package checkout applies a boost purchase against one vacancy: eligibility
// and affordability checks, the spend entries and the vacancy mutation, all
// inside a single database transaction.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/service/catalog"
	"github.com/wervio/wervio/internal/service/ledger"
)

type CheckoutService struct {
	storage repository.Storage
	logger  logger.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewService(storage repository.Storage, l logger.Logger) *CheckoutService {
	return &CheckoutService{
		storage: storage,
		logger:  l,
		now:     time.Now,
	}
}

// BoostResult is what the UI needs to reflect a checkout immediately
type BoostResult struct {
	Balance models.Balance
	Vacancy models.Vacancy
	Spends  []models.Transaction
}

// AvailableUpsells resolves which upsells the employer can currently buy for
// the vacancy.
func (s *CheckoutService) AvailableUpsells(ctx context.Context, employerID, vacancyID uuid.UUID) ([]catalog.Option, error) {
	vacancy, err := s.storage.Vacancy().GetVacancy(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	if vacancy.EmployerID != employerID {
		return nil, apperrors.ErrVacancyWrongEmployer
	}

	products, err := s.storage.Product().ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list products. Err: %w", err)
	}

	txs, err := s.storage.Transaction().ListTransactions(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("can't list transactions. Err: %w", err)
	}

	return catalog.ResolveUpsells(products, vacancy, txs, s.now()), nil
}

// Boost purchases the selected upsells for the vacancy, all-or-nothing.
//
// The whole operation runs inside one db transaction that starts by taking
// the per-employer wallet lock, so two concurrent checkouts against the same
// wallet serialize: the second one re-reads the log after the first
// committed and fails the affordability check instead of overdrawing.
//
// One spend entry is written per purchased product (not one aggregate entry)
// so renewable windows and refunds stay trackable per product.
func (s *CheckoutService) Boost(ctx context.Context, employerID, vacancyID uuid.UUID, selectedIDs []string, newClosingDate *time.Time) (BoostResult, error) {
	var result BoostResult

	if len(selectedIDs) == 0 {
		return result, apperrors.ErrNothingSelected
	}
	// A selection is a set: the same product cannot be bought twice in one checkout
	selectedIDs = lo.Uniq(selectedIDs)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := storage.Transaction().LockWallet(ctx, employerID); err != nil {
			return err
		}

		vacancy, err := storage.Vacancy().GetVacancy(ctx, vacancyID)
		if err != nil {
			return err
		}
		if vacancy.EmployerID != employerID {
			return apperrors.ErrVacancyWrongEmployer
		}

		products, err := storage.Product().ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("can't list products. Err: %w", err)
		}

		txs, err := storage.Transaction().ListTransactions(ctx, employerID)
		if err != nil {
			return fmt.Errorf("can't list transactions. Err: %w", err)
		}

		now := s.now()
		options := catalog.ResolveUpsells(products, vacancy, txs, now)

		selection, err := validateSelection(options, vacancy, selectedIDs, newClosingDate)
		if err != nil {
			return err
		}

		// Affordability comes after eligibility so the UI can distinguish
		// 'pick another date' from 'buy more credits'
		balance := ledger.ComputeBalance(employerID, txs, now)
		if !ledger.CanAfford(balance, selection.cost) {
			return apperrors.ErrBalanceInsufficient
		}

		for _, opt := range selection.options {
			spend, err := storage.Transaction().CreateTransaction(ctx, models.Transaction{
				CreatedAt:  now,
				EmployerID: employerID,
				Type:       models.TransactionTypeSpend,
				Status:     models.TransactionStatusPaid,
				Credits:    opt.Product.Credits,
				ProductIDs: []string{opt.Product.ID},
				VacancyID:  &vacancy.ID,
			})
			if err != nil {
				return fmt.Errorf("can't record spend. Err: %w", err)
			}
			result.Spends = append(result.Spends, spend)
		}

		vacancy = applySelection(vacancy, selection, newClosingDate)
		vacancy, err = storage.Vacancy().UpdateVacancy(ctx, vacancy)
		if err != nil {
			return fmt.Errorf("can't update vacancy. Err: %w", err)
		}

		result.Vacancy = vacancy
		result.Balance = ledger.ComputeBalance(employerID, append(txs, result.Spends...), now)
		return nil
	})
	if err != nil {
		return BoostResult{}, err
	}

	s.logger.Info("Boost applied",
		"employer_id", employerID,
		"vacancy_id", vacancyID,
		"products", selectedIDs,
		"available", result.Balance.Available,
	)

	return result, nil
}

// selection is a validated set of upsells to buy
type selection struct {
	options   []catalog.Option
	extension *catalog.Option
	cost      decimal.Decimal
}

func validateSelection(options []catalog.Option, vacancy models.Vacancy, selectedIDs []string, newClosingDate *time.Time) (selection, error) {
	var sel selection

	byID := lo.SliceToMap(options, func(o catalog.Option) (string, catalog.Option) {
		return o.Product.ID, o
	})

	for _, id := range selectedIDs {
		opt, ok := byID[id]
		if !ok {
			return sel, &apperrors.EligibilityError{ProductID: id, Reason: apperrors.ErrUpsellNotEligible}
		}

		if opt.Product.RepeatMode == models.RepeatModeUntilMax {
			// Only one product may move the closing date in a checkout
			if sel.extension != nil {
				return sel, &apperrors.EligibilityError{ProductID: id, Reason: apperrors.ErrMultipleExtensions}
			}
			ext := opt
			sel.extension = &ext
		}
		sel.options = append(sel.options, opt)
		sel.cost = sel.cost.Add(opt.Product.Credits)
	}

	// Republishing a verlopen vacancy mandates a new closing date, whatever
	// else was selected
	if vacancy.Status == models.VacancyStatusExpired && sel.extension == nil {
		return sel, apperrors.ErrClosingDateRequired
	}

	switch {
	case sel.extension != nil && newClosingDate == nil:
		return sel, &apperrors.EligibilityError{ProductID: sel.extension.Product.ID, Reason: apperrors.ErrClosingDateRequired}
	case sel.extension != nil && !sel.extension.Window.Contains(*newClosingDate):
		return sel, &apperrors.EligibilityError{ProductID: sel.extension.Product.ID, Reason: apperrors.ErrClosingDateOutOfRange}
	case sel.extension == nil && newClosingDate != nil:
		return sel, apperrors.ErrClosingDateUnexpected
	}

	return sel, nil
}

func applySelection(vacancy models.Vacancy, sel selection, newClosingDate *time.Time) models.Vacancy {
	for _, opt := range sel.options {
		if opt.Product.RepeatMode == models.RepeatModeUntilMax {
			continue
		}
		vacancy.SelectedUpsells = lo.Uniq(append(vacancy.SelectedUpsells, opt.Product.ID))
		if opt.Product.Tag != "" {
			vacancy.Tags = lo.Uniq(append(vacancy.Tags, opt.Product.Tag))
		}
	}

	if sel.extension != nil {
		closing := *newClosingDate
		vacancy.ClosingDate = &closing
		if vacancy.Status == models.VacancyStatusExpired {
			vacancy.Status = models.VacancyStatusPublished
		}
	}

	return vacancy
}
