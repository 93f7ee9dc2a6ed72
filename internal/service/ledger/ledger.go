// Package ledger derives an employer's credit balance from the append-only
// transaction log. The log is the single source of truth: the balance is
// recomputed on every read and never persisted.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wervio/wervio/internal/models"
)

// ExpiredRemainder is the unconsumed part of an expired credit bundle that
// has no compensating 'expiration' transaction yet. The ledger already treats
// it as unavailable at read time; the sweeper uses this to eventually write
// the compensating entry.
type ExpiredRemainder struct {
	TransactionID uuid.UUID
	EmployerID    uuid.UUID
	Credits       decimal.Decimal
	ExpiredAt     time.Time
}

// lot is a batch of granted credits being consumed FIFO
type lot struct {
	txID      uuid.UUID
	remaining decimal.Decimal
	expiresAt *time.Time
	live      bool
}

type foldResult struct {
	purchased decimal.Decimal
	spent     decimal.Decimal
	available decimal.Decimal
	expired   []ExpiredRemainder
}

// ComputeBalance folds the transaction log into a balance. It is a pure
// function of (employerID, transactions, now): transactions of other
// employers are ignored and no entry is counted twice.
//
// Counting rules:
//   - purchase grants credits once paid; open, failed and refunded
//     purchases grant nothing
//   - spend and expiration consume credits unless failed
//   - adjustment is signed: positive grants, negative consumes
//   - refund returns credits to the available pool (returned credits
//     themselves never expire) and reduces TotalSpent, never below zero
//
// Spends consume grant lots oldest-first. A lot past its expiry stops being
// consumable the moment it expires, so the unconsumed remainder of an
// expired bundle is excluded from Available even before the sweeper writes
// the compensating expiration entry (lazy expiration).
func ComputeBalance(employerID uuid.UUID, transactions []models.Transaction, now time.Time) models.Balance {
	r := fold(employerID, transactions, now)

	return models.Balance{
		Available:      r.available,
		TotalPurchased: r.purchased,
		TotalSpent:     r.spent,
	}
}

// CanAfford reports whether a cost can be spent without driving the
// available balance negative.
func CanAfford(balance models.Balance, cost decimal.Decimal) bool {
	return balance.Available.Sub(cost).Sign() >= 0
}

// ExpiredRemainders lists expired bundle remainders still lacking a
// compensating expiration transaction.
func ExpiredRemainders(employerID uuid.UUID, transactions []models.Transaction, now time.Time) []ExpiredRemainder {
	return fold(employerID, transactions, now).expired
}

func fold(employerID uuid.UUID, transactions []models.Transaction, now time.Time) foldResult {
	// Replay entries in the order they were created. ID breaks creation-time
	// ties so the fold stays deterministic.
	txs := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.EmployerID == employerID {
			txs = append(txs, t)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].ID.String() < txs[j].ID.String()
	})

	f := &folder{lots: map[uuid.UUID]*lot{}}

	for _, t := range txs {
		switch t.Type {
		case models.TransactionTypePurchase:
			if t.Status != models.TransactionStatusPaid {
				continue
			}
			f.grant(t.ID, t.Credits, t.ExpiresAt)
			f.purchased = f.purchased.Add(t.Credits)

		case models.TransactionTypeAdjustment:
			if t.Status != models.TransactionStatusPaid {
				continue
			}
			if t.Credits.Sign() >= 0 {
				f.grant(t.ID, t.Credits, t.ExpiresAt)
				f.purchased = f.purchased.Add(t.Credits)
			} else {
				f.consume(t.Credits.Neg(), t.CreatedAt)
				f.spent = f.spent.Add(t.Credits.Neg())
			}

		case models.TransactionTypeSpend:
			if t.Status == models.TransactionStatusFailed {
				continue
			}
			f.consume(t.Credits, t.CreatedAt)
			f.spent = f.spent.Add(t.Credits)

		case models.TransactionTypeRefund:
			if t.Credits.Sign() >= 0 {
				f.grant(t.ID, t.Credits, nil)
				// A refund reverses spending; it can never reverse more than
				// was spent
				f.spent = decimal.Max(decimal.Zero, f.spent.Sub(t.Credits))
			} else {
				f.consume(t.Credits.Neg(), t.CreatedAt)
				f.spent = f.spent.Add(t.Credits.Neg())
			}

		case models.TransactionTypeExpiration:
			f.expire(t)
			f.spent = f.spent.Add(t.Credits)
		}
	}

	f.expireLots(now)

	available := decimal.Zero.Sub(f.overdraft)
	var expired []ExpiredRemainder
	for _, id := range f.order {
		l := f.lots[id]
		if l.remaining.Sign() <= 0 {
			continue
		}
		if l.live {
			available = available.Add(l.remaining)
			continue
		}
		// Lazily expired remainders count as spent just like the
		// compensating entry the sweeper will write for them
		f.spent = f.spent.Add(l.remaining)
		expired = append(expired, ExpiredRemainder{
			TransactionID: l.txID,
			EmployerID:    employerID,
			Credits:       l.remaining,
			ExpiredAt:     *l.expiresAt,
		})
	}

	return foldResult{purchased: f.purchased, spent: f.spent, available: available, expired: expired}
}

type folder struct {
	lots      map[uuid.UUID]*lot
	order     []uuid.UUID // lot IDs in grant order
	purchased decimal.Decimal
	spent     decimal.Decimal
	overdraft decimal.Decimal
}

func (f *folder) grant(txID uuid.UUID, credits decimal.Decimal, expiresAt *time.Time) {
	f.lots[txID] = &lot{txID: txID, remaining: credits, expiresAt: expiresAt, live: true}
	f.order = append(f.order, txID)
}

// consume takes credits FIFO from lots still consumable at time at.
// Anything not covered is tracked as overdraft; histories produced by the
// checkout path never reach that.
func (f *folder) consume(credits decimal.Decimal, at time.Time) {
	f.expireLots(at)

	left := credits
	for _, id := range f.order {
		if left.Sign() <= 0 {
			break
		}
		l := f.lots[id]
		if !l.live || l.remaining.Sign() <= 0 {
			continue
		}
		take := decimal.Min(l.remaining, left)
		l.remaining = l.remaining.Sub(take)
		left = left.Sub(take)
	}

	if left.Sign() > 0 {
		f.overdraft = f.overdraft.Add(left)
	}
}

// expire applies an explicit expiration entry to the bundle it references,
// so the sweeper-written compensation and the lazy read-time exclusion never
// count the same credits twice.
func (f *folder) expire(t models.Transaction) {
	if t.RefTransactionID != nil {
		if l, ok := f.lots[*t.RefTransactionID]; ok {
			l.remaining = decimal.Max(decimal.Zero, l.remaining.Sub(t.Credits))
			return
		}
	}

	// No reference: fall back to consuming like a spend
	f.consume(t.Credits, t.CreatedAt)
}

func (f *folder) expireLots(at time.Time) {
	for _, id := range f.order {
		l := f.lots[id]
		if l.live && l.expiresAt != nil && !l.expiresAt.After(at) {
			l.live = false
		}
	}
}
