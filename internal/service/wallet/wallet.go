// Package wallet is the billing surface around the credit ledger: balance
// reads, billing history, credit bundle purchases and the payment webhook
// status transitions.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/repository"
	"github.com/wervio/wervio/internal/service/ledger"
)

type WalletService struct {
	storage repository.Storage

	// now is swappable in tests
	now func() time.Time
}

func NewService(storage repository.Storage) *WalletService {
	return &WalletService{
		storage: storage,
		now:     time.Now,
	}
}

// GetBalance recomputes the balance from the transaction log. The derived
// value is never persisted, so there is no stored counter to drift.
func (s *WalletService) GetBalance(ctx context.Context, employerID uuid.UUID) (models.Balance, error) {
	var balance models.Balance

	if _, err := s.storage.Employer().GetEmployer(ctx, employerID); err != nil {
		return balance, err
	}

	txs, err := s.storage.Transaction().ListTransactions(ctx, employerID)
	if err != nil {
		return balance, fmt.Errorf("can't list transactions. Err: %w", err)
	}

	return ledger.ComputeBalance(employerID, txs, s.now()), nil
}

func (s *WalletService) ListTransactions(ctx context.Context, employerID uuid.UUID) ([]models.Transaction, error) {
	return s.storage.Transaction().ListTransactions(ctx, employerID)
}

// PurchaseCredits records an 'open' purchase of a credit bundle. Credits are
// granted only once the invoicing webhook confirms payment and the entry
// transitions to 'paid'.
func (s *WalletService) PurchaseCredits(ctx context.Context, employerID uuid.UUID, productID string, invoiceRef string) (models.Transaction, error) {
	var purchase models.Transaction

	employer, err := s.storage.Employer().GetEmployer(ctx, employerID)
	if err != nil {
		return purchase, err
	}
	if employer.Status == models.EmployerStatusArchived {
		return purchase, apperrors.ErrEmployerArchived
	}

	product, err := s.storage.Product().GetProduct(ctx, productID)
	if err != nil {
		return purchase, err
	}
	if !product.HasAvailability(models.AvailabilityCreditBundle) {
		return purchase, apperrors.ErrProductNotBundle
	}

	now := s.now()
	purchase = models.Transaction{
		CreatedAt:  now,
		EmployerID: employerID,
		Type:       models.TransactionTypePurchase,
		Status:     models.TransactionStatusOpen,
		Credits:    product.Credits,
		ProductIDs: []string{product.ID},
		InvoiceRef: invoiceRef,
	}
	if product.DurationDays > 0 {
		expiresAt := now.AddDate(0, 0, product.DurationDays)
		purchase.ExpiresAt = &expiresAt
	}

	return s.storage.Transaction().CreateTransaction(ctx, purchase)
}

// ConfirmPayment transitions an open purchase to paid, making its credits
// available. Idempotency relies on the guarded transition: a second webhook
// delivery gets apperrors.ErrTransactionNotOpen.
func (s *WalletService) ConfirmPayment(ctx context.Context, transactionID uuid.UUID) (models.Transaction, error) {
	return s.storage.Transaction().SetStatus(ctx, transactionID, models.TransactionStatusOpen, models.TransactionStatusPaid)
}

// FailPayment transitions an open purchase to failed
func (s *WalletService) FailPayment(ctx context.Context, transactionID uuid.UUID) (models.Transaction, error) {
	return s.storage.Transaction().SetStatus(ctx, transactionID, models.TransactionStatusOpen, models.TransactionStatusFailed)
}

// Adjust appends a signed manual adjustment. Takes the wallet lock so a
// negative adjustment cannot race a checkout into a negative balance.
func (s *WalletService) Adjust(ctx context.Context, employerID uuid.UUID, credits decimal.Decimal) (models.Transaction, error) {
	var adjustment models.Transaction

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := storage.Transaction().LockWallet(ctx, employerID); err != nil {
			return err
		}

		if credits.Sign() < 0 {
			txs, err := storage.Transaction().ListTransactions(ctx, employerID)
			if err != nil {
				return fmt.Errorf("can't list transactions. Err: %w", err)
			}
			balance := ledger.ComputeBalance(employerID, txs, s.now())
			if !ledger.CanAfford(balance, credits.Neg()) {
				return apperrors.ErrBalanceInsufficient
			}
		}

		var err error
		adjustment, err = storage.Transaction().CreateTransaction(ctx, models.Transaction{
			CreatedAt:  s.now(),
			EmployerID: employerID,
			Type:       models.TransactionTypeAdjustment,
			Status:     models.TransactionStatusPaid,
			Credits:    credits,
		})
		return err
	})

	return adjustment, err
}

// Refund compensates a paid spend with an append-only refund entry pointing
// back at it. The spend row itself stays untouched.
func (s *WalletService) Refund(ctx context.Context, spendID uuid.UUID) (models.Transaction, error) {
	var refund models.Transaction

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		spend, err := storage.Transaction().GetTransaction(ctx, spendID)
		if err != nil {
			return err
		}
		if spend.Type != models.TransactionTypeSpend || spend.Status != models.TransactionStatusPaid {
			return apperrors.ErrTransactionNotRefundable
		}

		refund, err = storage.Transaction().CreateTransaction(ctx, models.Transaction{
			CreatedAt:        s.now(),
			EmployerID:       spend.EmployerID,
			Type:             models.TransactionTypeRefund,
			Status:           models.TransactionStatusPaid,
			Credits:          spend.Credits,
			ProductIDs:       spend.ProductIDs,
			VacancyID:        spend.VacancyID,
			RefTransactionID: &spend.ID,
		})
		return err
	})

	return refund, err
}
