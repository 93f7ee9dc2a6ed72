package wallet

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/repository/postgres"
	"github.com/wervio/wervio/internal/service/employer"
	"github.com/wervio/wervio/internal/testutil"
)

func TestWallet(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	bundle := models.Product{
		ID:           "bundle-50",
		Name:         "50 credits",
		Credits:      decimal.NewFromInt(50),
		RepeatMode:   models.RepeatModeUnlimited,
		DurationDays: 365,
		Availability: []string{models.AvailabilityCreditBundle},
	}
	pkg := models.Product{
		ID:           "pkg-standard",
		Name:         "Standard",
		Credits:      decimal.NewFromInt(10),
		RepeatMode:   models.RepeatModeOnce,
		DurationDays: 60,
		Availability: []string{models.AvailabilityPackage},
	}

	withTx := func(t *testing.T, fn func(s *WalletService, storage repository.Storage, e models.Employer)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			service := NewService(storage)
			service.now = func() time.Time { return now }

			for _, p := range []models.Product{bundle, pkg} {
				_, err := storage.Product().UpsertProduct(t.Context(), p)
				require.NoError(t, err)
			}

			employerService := employer.NewService(storage)
			e, err := employerService.Register(t.Context(), "acme")
			require.NoError(t, err)
			e, err = employerService.Activate(t.Context(), e.ID)
			require.NoError(t, err)

			fn(service, storage, e)
		})
	}

	t.Run("PurchaseCredits", func(t *testing.T) {
		t.Run("purchase opens unpaid", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				purchase, err := s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")

				require.NoError(t, err)
				require.Equal(t, models.TransactionTypePurchase, purchase.Type)
				require.Equal(t, models.TransactionStatusOpen, purchase.Status)
				require.True(t, purchase.Credits.Equal(decimal.NewFromInt(50)))
				require.Equal(t, "INV-100", purchase.InvoiceRef)
				require.NotNil(t, purchase.ExpiresAt, "bundle validity window must be stamped")
				require.True(t, purchase.ExpiresAt.Equal(now.AddDate(0, 0, 365)))

				// Credits are not available until the invoice is paid
				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.IsZero(), "open purchase must not grant credits")
			})
		})

		t.Run("only bundles purchasable", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				_, err := s.PurchaseCredits(t.Context(), e.ID, "pkg-standard", "INV-100")

				require.ErrorIs(t, err, apperrors.ErrProductNotBundle)
			})
		})

		t.Run("unknown product", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				_, err := s.PurchaseCredits(t.Context(), e.ID, "missing", "INV-100")

				require.ErrorIs(t, err, apperrors.ErrProductNotFound)
			})
		})

		t.Run("archived employer rejected", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				_, err := storage.Employer().Archive(t.Context(), e.ID)
				require.NoError(t, err)

				_, err = s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")

				require.ErrorIs(t, err, apperrors.ErrEmployerArchived)
			})
		})
	})

	t.Run("ConfirmPayment", func(t *testing.T) {
		t.Run("confirm grants credits", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				purchase, err := s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")
				require.NoError(t, err)

				confirmed, err := s.ConfirmPayment(t.Context(), purchase.ID)

				require.NoError(t, err)
				require.Equal(t, models.TransactionStatusPaid, confirmed.Status)

				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.Equal(decimal.NewFromInt(50)))
				require.True(t, balance.TotalPurchased.Equal(decimal.NewFromInt(50)))
			})
		})

		t.Run("second webhook delivery rejected", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				purchase, err := s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")
				require.NoError(t, err)
				_, err = s.ConfirmPayment(t.Context(), purchase.ID)
				require.NoError(t, err)

				_, err = s.ConfirmPayment(t.Context(), purchase.ID)

				require.ErrorIs(t, err, apperrors.ErrTransactionNotOpen)
			})
		})

		t.Run("failed payment grants nothing", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				purchase, err := s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")
				require.NoError(t, err)

				failed, err := s.FailPayment(t.Context(), purchase.ID)

				require.NoError(t, err)
				require.Equal(t, models.TransactionStatusFailed, failed.Status)

				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.IsZero())
			})
		})
	})

	t.Run("Adjust", func(t *testing.T) {
		t.Run("positive adjustment", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				adjustment, err := s.Adjust(t.Context(), e.ID, decimal.NewFromInt(15))

				require.NoError(t, err)
				require.Equal(t, models.TransactionTypeAdjustment, adjustment.Type)

				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.Equal(decimal.NewFromInt(15)))
				require.True(t, balance.TotalPurchased.Equal(decimal.NewFromInt(15)))
			})
		})

		t.Run("negative adjustment needs cover", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				_, err := s.Adjust(t.Context(), e.ID, decimal.NewFromInt(15))
				require.NoError(t, err)

				_, err = s.Adjust(t.Context(), e.ID, decimal.NewFromInt(-10))
				require.NoError(t, err)

				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.Equal(decimal.NewFromInt(5)))

				_, err = s.Adjust(t.Context(), e.ID, decimal.NewFromInt(-10))
				require.ErrorIs(t, err, apperrors.ErrBalanceInsufficient, "adjustment must not overdraw the wallet")
			})
		})
	})

	t.Run("Refund", func(t *testing.T) {
		paidSpend := func(t *testing.T, storage repository.Storage, e models.Employer) models.Transaction {
			spend, err := storage.Transaction().CreateTransaction(t.Context(), models.Transaction{
				CreatedAt:  now.Add(-time.Hour),
				EmployerID: e.ID,
				Type:       models.TransactionTypeSpend,
				Status:     models.TransactionStatusPaid,
				Credits:    decimal.NewFromInt(10),
				ProductIDs: []string{"pkg-standard"},
			})
			require.NoError(t, err)
			return spend
		}

		t.Run("refund returns credits", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				_, err := s.Adjust(t.Context(), e.ID, decimal.NewFromInt(20))
				require.NoError(t, err)
				spend := paidSpend(t, storage, e)

				refund, err := s.Refund(t.Context(), spend.ID)

				require.NoError(t, err)
				require.Equal(t, models.TransactionTypeRefund, refund.Type)
				require.NotNil(t, refund.RefTransactionID)
				require.Equal(t, spend.ID, *refund.RefTransactionID)

				balance, err := s.GetBalance(t.Context(), e.ID)
				require.NoError(t, err)
				require.True(t, balance.Available.Equal(decimal.NewFromInt(20)), "refund must return the spent credits")
			})
		})

		t.Run("only paid spends refundable", func(t *testing.T) {
			withTx(t, func(s *WalletService, storage repository.Storage, e models.Employer) {
				purchase, err := s.PurchaseCredits(t.Context(), e.ID, "bundle-50", "INV-100")
				require.NoError(t, err)

				_, err = s.Refund(t.Context(), purchase.ID)

				require.ErrorIs(t, err, apperrors.ErrTransactionNotRefundable)
			})
		})
	})
}
