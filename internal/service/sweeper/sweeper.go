// Package sweeper is the background process behind the ledger's lazy
// expiration and the vacancy closing dates. Reads stay correct without it;
// the sweeper only makes the log catch up with what reads already assume.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/service/ledger"
)

const (
	defaultSweepInterval = 5 * time.Minute
	maxRetries           = 3
)

type Sweeper struct {
	interval time.Duration
	storage  repository.Storage
	logger   logger.Logger

	// now is swappable in tests
	now func() time.Time
}

func New(storage repository.Storage, l logger.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		interval: interval,
		storage:  storage,
		logger:   l,
		now:      time.Now,
	}
}

// Run sweeps on a ticker until the context is cancelled. Returned channel
// closes when the loop has fully stopped.
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				policy := backoff.WithContext(
					backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries),
					ctx,
				)
				err := backoff.Retry(func() error { return s.Sweep(ctx) }, policy)
				if err != nil {
					// Leave it for the next tick: expired credits are
					// already unavailable at read time
					s.logger.Error("Sweep failed", "error", err)
				}
			}
		}
	}()

	return idleStopped
}

// Sweep runs one full pass: expire overdue vacancies, then write the
// compensating expiration entries for expired credit bundles. Both steps are
// idempotent, re-running after a partial failure is safe.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if err := s.expireVacancies(ctx); err != nil {
		return err
	}

	return s.expireCredits(ctx)
}

func (s *Sweeper) expireVacancies(ctx context.Context) error {
	expired, err := s.storage.Vacancy().MarkExpired(ctx, s.now())
	if err != nil {
		return fmt.Errorf("can't expire vacancies. Err: %w", err)
	}

	for _, v := range expired {
		s.logger.Info("Vacancy expired", "vacancy_id", v.ID, "employer_id", v.EmployerID, "closing_date", v.ClosingDate)
	}

	return nil
}

// expireCredits writes one 'expiration' entry per expired bundle remainder,
// per employer under the wallet lock so it cannot race a checkout reading
// the same log.
func (s *Sweeper) expireCredits(ctx context.Context) error {
	now := s.now()

	employers, err := s.storage.Transaction().ListEmployersWithExpiredBundles(ctx, now)
	if err != nil {
		return fmt.Errorf("can't list employers with expired bundles. Err: %w", err)
	}

	for _, employerID := range employers {
		err := s.storage.InTx(ctx, func(storage repository.Storage) error {
			if err := storage.Transaction().LockWallet(ctx, employerID); err != nil {
				return err
			}

			txs, err := storage.Transaction().ListTransactions(ctx, employerID)
			if err != nil {
				return err
			}

			for _, remainder := range ledger.ExpiredRemainders(employerID, txs, now) {
				refID := remainder.TransactionID
				_, err := storage.Transaction().CreateTransaction(ctx, models.Transaction{
					CreatedAt:        now,
					EmployerID:       employerID,
					Type:             models.TransactionTypeExpiration,
					Status:           models.TransactionStatusPaid,
					Credits:          remainder.Credits,
					RefTransactionID: &refID,
				})
				if err != nil {
					return err
				}

				s.logger.Info("Credits expired",
					"employer_id", employerID,
					"bundle_id", remainder.TransactionID,
					"credits", remainder.Credits,
					"expired_at", remainder.ExpiredAt,
				)
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("can't expire credits for employer %s. Err: %w", employerID, err)
		}
	}

	return nil
}
