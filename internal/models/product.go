package models

import (
	"github.com/shopspring/decimal"
)

const (
	RepeatModeOnce      = "once"
	RepeatModeUnlimited = "unlimited"
	RepeatModeRenewable = "renewable"
	RepeatModeUntilMax  = "until_max"
)

// Availability tags, mirroring the external catalog
const (
	AvailabilityPackage      = "package"
	AvailabilityBoostOption  = "boost-option"
	AvailabilityCreditBundle = "credit-bundle"
)

// Maximum total listing duration in days. Packages with this base duration
// are 'premium': their vacancies never need (or allow) an extension.
const MaxListingDays = 365

// Product is a catalog entry replicated from the external catalog.
// Read-only for the application, written only by the catalog sync.
type Product struct {
	ID   string
	Name string

	// Cost in credits for packages and upsells; granted credits for bundles
	Credits decimal.Decimal

	RepeatMode string

	// Listing duration for packages, renewal window for renewable upsells,
	// credit validity window for bundles. Zero means not applicable.
	DurationDays int

	Availability []string

	// Upsell product IDs a package bundles in at no extra cost
	IncludedUpsells []string

	// Display tag applied to the vacancy while the upsell is active, e.g. "UITGELICHT"
	Tag string
}

func (p Product) HasAvailability(tag string) bool {
	for _, t := range p.Availability {
		if t == tag {
			return true
		}
	}
	return false
}

func (p Product) IsPackage() bool {
	return p.HasAvailability(AvailabilityPackage)
}

// Premium packages run for the full listing year and cannot be extended.
func (p Product) IsPremium() bool {
	return p.IsPackage() && p.DurationDays >= MaxListingDays
}
