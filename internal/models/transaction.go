package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypePurchase   = "purchase"
	TransactionTypeSpend      = "spend"
	TransactionTypeRefund     = "refund"
	TransactionTypeAdjustment = "adjustment"
	TransactionTypeExpiration = "expiration"
)

const (
	TransactionStatusOpen     = "open"
	TransactionStatusPaid     = "paid"
	TransactionStatusFailed   = "failed"
	TransactionStatusRefunded = "refunded"
)

// Transaction is an append-only ledger entry. Rows are never updated after
// creation except for the status transition 'open' -> 'paid'/'failed' and
// 'paid' -> 'refunded'.
type Transaction struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	EmployerID uuid.UUID
	Type       string
	Status     string

	// Credits is signed for 'adjustment' and 'refund' entries and positive
	// for every other type.
	Credits decimal.Decimal

	// Products this entry paid for. One element for spends (one spend row
	// per purchased product), usually one for purchases (the credit bundle).
	ProductIDs []string

	// Set on spend entries only
	VacancyID *uuid.UUID

	// Purchase bundles may expire; nil means the credits never expire
	ExpiresAt *time.Time

	// Refund and expiration entries point back at the entry they compensate
	RefTransactionID *uuid.UUID

	// External invoice number, set on purchases billed through the invoicing API
	InvoiceRef string
}
