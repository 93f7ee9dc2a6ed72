package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmployerAlreadyExists = errors.New("employer already exists")
	ErrEmployerNotFound      = errors.New("employer not found")
	ErrEmployerArchived      = errors.New("employer is archived")

	ErrProductNotFound   = errors.New("product not found")
	ErrProductNotPackage = errors.New("product is not a vacancy package")
	ErrProductNotBundle  = errors.New("product is not a credit bundle")

	ErrVacancyNotFound      = errors.New("vacancy not found")
	ErrVacancyWrongEmployer = errors.New("vacancy belongs to different employer")
	ErrVacancyWrongStatus   = errors.New("vacancy status does not allow this transition")

	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrTransactionNotOpen       = errors.New("transaction is not open")
	ErrTransactionNotRefundable = errors.New("transaction is not a refundable spend")

	// Affordability is reported separately from validation so the UI can
	// offer a 'buy more credits' action
	ErrBalanceInsufficient = errors.New("insufficient credit balance")

	ErrNothingSelected       = errors.New("no upsells selected")
	ErrUpsellNotEligible     = errors.New("upsell not eligible for this vacancy")
	ErrMultipleExtensions    = errors.New("more than one extension upsell selected")
	ErrClosingDateRequired   = errors.New("new closing date required")
	ErrClosingDateOutOfRange = errors.New("closing date outside allowed window")
	ErrClosingDateUnexpected = errors.New("closing date given without extension upsell")
)

// EligibilityError wraps an eligibility rejection with the product that
// caused it, so the caller can tell which selection was invalid.
type EligibilityError struct {
	ProductID string
	Reason    error
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("product %q: %s", e.ProductID, e.Reason)
}

func (e *EligibilityError) Unwrap() error {
	return e.Reason
}
