package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wervio/wervio/internal/models"
)

func TestComputeBalance(t *testing.T) {
	t.Parallel()

	employerID := uuid.New()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	// Shorthand for building log entries with increasing timestamps
	at := func(day int) time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	}
	tx := func(txType string, status string, credits int64, createdAt time.Time) models.Transaction {
		return models.Transaction{
			ID:         uuid.New(),
			CreatedAt:  createdAt,
			EmployerID: employerID,
			Type:       txType,
			Status:     status,
			Credits:    decimal.NewFromInt(credits),
		}
	}

	t.Run("empty log", func(t *testing.T) {
		b := ComputeBalance(employerID, nil, now)

		require.True(t, b.Available.IsZero(), "empty log should give zero available")
		require.True(t, b.TotalPurchased.IsZero())
		require.True(t, b.TotalSpent.IsZero())
	})

	t.Run("purchases and spends", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 100, at(0)),
			tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 30, at(1)),
			tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 15, at(2)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.Equal(decimal.NewFromInt(55)), "available should be 100-30-15, got %s", b.Available)
		require.True(t, b.TotalPurchased.Equal(decimal.NewFromInt(100)))
		require.True(t, b.TotalSpent.Equal(decimal.NewFromInt(45)))
	})

	t.Run("open purchase grants nothing", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusOpen, 100, at(0)),
			tx(models.TransactionTypePurchase, models.TransactionStatusFailed, 50, at(1)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.IsZero(), "unpaid purchases should not grant credits")
		require.True(t, b.TotalPurchased.IsZero())
	})

	t.Run("failed spend not counted", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 100, at(0)),
			tx(models.TransactionTypeSpend, models.TransactionStatusFailed, 40, at(1)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.Equal(decimal.NewFromInt(100)))
	})

	t.Run("signed adjustments", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 50, at(0)),
			tx(models.TransactionTypeAdjustment, models.TransactionStatusPaid, 20, at(1)),
			tx(models.TransactionTypeAdjustment, models.TransactionStatusPaid, -10, at(2)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.Equal(decimal.NewFromInt(60)))
		require.True(t, b.TotalPurchased.Equal(decimal.NewFromInt(70)), "positive adjustments count as purchased")
		require.True(t, b.TotalSpent.Equal(decimal.NewFromInt(10)), "negative adjustments count as spent")
	})

	t.Run("refund returns credits", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 50, at(0)),
			tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 30, at(1)),
			tx(models.TransactionTypeRefund, models.TransactionStatusPaid, 30, at(2)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.Equal(decimal.NewFromInt(50)), "refund should restore the spend")
		require.True(t, b.TotalSpent.IsZero(), "refund nets out the spend")
	})

	t.Run("refund without a matching spend", func(t *testing.T) {
		// Goodwill credits granted as a refund: nothing was spent, so spent
		// must stay at zero rather than go negative
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 50, at(0)),
			tx(models.TransactionTypeRefund, models.TransactionStatusPaid, 30, at(1)),
		}

		b := ComputeBalance(employerID, txs, now)

		require.True(t, b.Available.Equal(decimal.NewFromInt(80)))
		require.True(t, b.TotalSpent.IsZero(), "spent must never go negative, got %s", b.TotalSpent)
		require.True(t, b.TotalPurchased.Equal(decimal.NewFromInt(50)), "refunds are not purchases")
	})

	t.Run("other employer entries ignored", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 100, at(0)),
			tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 30, at(1)),
		}
		before := ComputeBalance(employerID, txs, now)

		other := tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 999, at(2))
		other.EmployerID = uuid.New()
		txs = append(txs, other)

		after := ComputeBalance(employerID, txs, now)

		require.True(t, before.Available.Equal(after.Available), "foreign entries must not change the result")
		require.True(t, before.TotalPurchased.Equal(after.TotalPurchased))
	})

	t.Run("pure function", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 100, at(0)),
			tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 30, at(1)),
		}

		first := ComputeBalance(employerID, txs, now)
		second := ComputeBalance(employerID, txs, now)

		require.True(t, first.Available.Equal(second.Available), "same input must give same output")
		require.True(t, first.TotalSpent.Equal(second.TotalSpent))
	})

	t.Run("input order does not matter", func(t *testing.T) {
		a := tx(models.TransactionTypePurchase, models.TransactionStatusPaid, 100, at(0))
		b := tx(models.TransactionTypeSpend, models.TransactionStatusPaid, 30, at(1))

		balanceAB := ComputeBalance(employerID, []models.Transaction{a, b}, now)
		balanceBA := ComputeBalance(employerID, []models.Transaction{b, a}, now)

		require.True(t, balanceAB.Available.Equal(balanceBA.Available), "fold replays by creation time, not slice order")
	})
}

func TestLazyExpiration(t *testing.T) {
	t.Parallel()

	employerID := uuid.New()

	bundle := func(credits int64, createdAt, expiresAt time.Time) models.Transaction {
		return models.Transaction{
			ID:         uuid.New(),
			CreatedAt:  createdAt,
			EmployerID: employerID,
			Type:       models.TransactionTypePurchase,
			Status:     models.TransactionStatusPaid,
			Credits:    decimal.NewFromInt(credits),
			ExpiresAt:  &expiresAt,
		}
	}
	spend := func(credits int64, createdAt time.Time) models.Transaction {
		return models.Transaction{
			ID:         uuid.New(),
			CreatedAt:  createdAt,
			EmployerID: employerID,
			Type:       models.TransactionTypeSpend,
			Status:     models.TransactionStatusPaid,
			Credits:    decimal.NewFromInt(credits),
		}
	}

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	jun1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("expired remainder unavailable at read time", func(t *testing.T) {
		// 100 credits valid until March, 40 spent in time. No expiration
		// entry written yet: the 60 left must still be unavailable in June.
		txs := []models.Transaction{
			bundle(100, jan1, mar1),
			spend(40, jan1.AddDate(0, 0, 10)),
		}

		b := ComputeBalance(employerID, txs, jun1)

		require.True(t, b.Available.IsZero(), "expired remainder must be excluded, got %s", b.Available)
		require.True(t, b.TotalSpent.Equal(decimal.NewFromInt(100)), "expiration counts as spent")
	})

	t.Run("not expired before the deadline", func(t *testing.T) {
		txs := []models.Transaction{
			bundle(100, jan1, mar1),
			spend(40, jan1.AddDate(0, 0, 10)),
		}

		b := ComputeBalance(employerID, txs, mar1.AddDate(0, 0, -1))

		require.True(t, b.Available.Equal(decimal.NewFromInt(60)))
	})

	t.Run("spends after expiry hit the next bundle", func(t *testing.T) {
		// Expired bundle must not absorb a spend made after its deadline
		txs := []models.Transaction{
			bundle(100, jan1, mar1),
			bundle(50, jan1.AddDate(0, 0, 1), jun1.AddDate(1, 0, 0)),
			spend(20, mar1.AddDate(0, 0, 5)),
		}

		b := ComputeBalance(employerID, txs, jun1)

		require.True(t, b.Available.Equal(decimal.NewFromInt(30)), "20 must come from the live bundle, got %s", b.Available)
	})

	t.Run("remainders reported for the sweeper", func(t *testing.T) {
		expiredBundle := bundle(100, jan1, mar1)
		txs := []models.Transaction{
			expiredBundle,
			spend(40, jan1.AddDate(0, 0, 10)),
		}

		remainders := ExpiredRemainders(employerID, txs, jun1)

		require.Len(t, remainders, 1)
		require.Equal(t, expiredBundle.ID, remainders[0].TransactionID)
		require.True(t, remainders[0].Credits.Equal(decimal.NewFromInt(60)))
		require.Equal(t, mar1, remainders[0].ExpiredAt)
	})

	t.Run("explicit expiration entry not double counted", func(t *testing.T) {
		expiredBundle := bundle(100, jan1, mar1)
		refID := expiredBundle.ID
		txs := []models.Transaction{
			expiredBundle,
			spend(40, jan1.AddDate(0, 0, 10)),
			{
				ID:               uuid.New(),
				CreatedAt:        mar1.AddDate(0, 0, 1),
				EmployerID:       employerID,
				Type:             models.TransactionTypeExpiration,
				Status:           models.TransactionStatusPaid,
				Credits:          decimal.NewFromInt(60),
				RefTransactionID: &refID,
			},
		}

		b := ComputeBalance(employerID, txs, jun1)
		require.True(t, b.Available.IsZero())
		require.True(t, b.TotalSpent.Equal(decimal.NewFromInt(100)), "sweeper entry and lazy read must not stack, got %s", b.TotalSpent)

		remainders := ExpiredRemainders(employerID, txs, jun1)
		require.Empty(t, remainders, "compensated bundle needs no further sweeping")
	})
}

func TestCanAfford(t *testing.T) {
	t.Parallel()

	balance := models.Balance{Available: decimal.NewFromInt(20)}

	require.True(t, CanAfford(balance, decimal.NewFromInt(20)), "exact balance is affordable")
	require.True(t, CanAfford(balance, decimal.NewFromInt(5)))
	require.False(t, CanAfford(balance, decimal.NewFromInt(21)))
}
