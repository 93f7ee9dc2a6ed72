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

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, employer_id, type, status, credits, product_ids, vacancy_id, expires_at, ref_transaction_id, invoice_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at, employer_id, type, status, credits, product_ids, vacancy_id, expires_at, ref_transaction_id, invoice_ref
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	// Transaction with defaults
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.ProductIDs == nil {
		t.ProductIDs = []string{}
	}

	rows, _ := r.DB.Query(ctx, createTransaction,
		t.ID, t.CreatedAt, t.EmployerID, t.Type, t.Status, t.Credits,
		t.ProductIDs, t.VacancyID, t.ExpiresAt, t.RefTransactionID, t.InvoiceRef,
	)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return t, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

const getTransaction = `-- name: GetTransaction
SELECT id, created_at, employer_id, type, status, credits, product_ids, vacancy_id, expires_at, ref_transaction_id, invoice_ref
FROM transactions
WHERE id = $1
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, apperrors.ErrTransactionNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const listTransactions = `-- name: ListTransactions
SELECT id, created_at, employer_id, type, status, credits, product_ids, vacancy_id, expires_at, ref_transaction_id, invoice_ref
FROM transactions
WHERE employer_id = $1
ORDER BY created_at DESC, id DESC
`

func (r *TransactionRepo) ListTransactions(ctx context.Context, employerID uuid.UUID) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, employerID)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

// The log is append-only: the only permitted mutation is a guarded status
// transition, enforced by the WHERE clause
const setTransactionStatus = `-- name: SetTransactionStatus
UPDATE transactions
SET status = $3
WHERE id = $1 AND status = $2
RETURNING id, created_at, employer_id, type, status, credits, product_ids, vacancy_id, expires_at, ref_transaction_id, invoice_ref
`

func (r *TransactionRepo) SetStatus(ctx context.Context, id uuid.UUID, from string, to string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, setTransactionStatus, id, from, to)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Distinguish a missing row from a row in the wrong status
		if _, getErr := r.GetTransaction(ctx, id); getErr != nil {
			return t, getErr
		}
		return t, apperrors.ErrTransactionNotOpen
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

// LockWallet serializes checkouts per employer. Concurrent requests for the
// same wallet queue on the advisory lock, so the balance re-check inside the
// db transaction always sees every committed spend. Released automatically
// at commit/rollback.
const lockWallet = `-- name: LockWallet
SELECT pg_advisory_xact_lock(hashtextextended('wallet:' || $1::text, 0))
`

func (r *TransactionRepo) LockWallet(ctx context.Context, employerID uuid.UUID) error {
	if _, err := r.DB.Exec(ctx, lockWallet, employerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const listEmployersWithExpiredBundles = `-- name: ListEmployersWithExpiredBundles
SELECT DISTINCT employer_id FROM transactions
WHERE type = 'purchase' AND status = 'paid' AND expires_at IS NOT NULL AND expires_at <= $1
`

func (r *TransactionRepo) ListEmployersWithExpiredBundles(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, _ := r.DB.Query(ctx, listEmployersWithExpiredBundles, now)
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.EmployerID, &t.Type, &t.Status, &t.Credits,
		&t.ProductIDs, &t.VacancyID, &t.ExpiresAt, &t.RefTransactionID, &t.InvoiceRef,
	)
	return t, err
}
