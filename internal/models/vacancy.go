package models

import (
	"time"

	"github.com/google/uuid"
)

// Vacancy statuses. Kept as the Dutch strings the external catalog and the
// public site use, so sync stays a plain field copy.
const (
	VacancyStatusConcept     = "concept"
	VacancyStatusPending     = "wacht_op_goedkeuring"
	VacancyStatusPublished   = "gepubliceerd"
	VacancyStatusExpired     = "verlopen"
	VacancyStatusUnpublished = "gedepubliceerd"
)

type Vacancy struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	ModifiedAt time.Time
	EmployerID uuid.UUID
	Title      string
	Status     string

	PackageID string

	// Upsell product IDs bought as add-ons (extension purchases are tracked
	// in the ledger only, they are not add-ons that stay attached)
	SelectedUpsells []string

	// Set once, on the first transition to 'gepubliceerd'
	FirstPublishedAt *time.Time

	ClosingDate *time.Time

	// Display tags shown on the public site, e.g. "NIEUW", "UITGELICHT"
	Tags []string

	// Flipped true in the same write as any mutation; cleared by the
	// out-of-process CMS sync after it propagated the change
	NeedsSync bool
}

func (v Vacancy) OwnsUpsell(productID string) bool {
	for _, id := range v.SelectedUpsells {
		if id == productID {
			return true
		}
	}
	return false
}
