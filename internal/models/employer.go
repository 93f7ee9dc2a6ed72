package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EmployerStatusPendingOnboarding = "pending_onboarding"
	EmployerStatusActive            = "active"
	EmployerStatusArchived          = "archived"
)

type Employer struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Name       string
	Status     string
	ArchivedAt *time.Time
}
