// Package catalog decides which upsells are purchasable for a vacancy and
// under what constraints. Pure functions over (products, vacancy,
// transactions, now): no I/O, so every repeat-mode rule is unit-testable.
package catalog

import (
	"time"

	"github.com/samber/lo"

	"github.com/wervio/wervio/internal/models"
)

// DateWindow is the allowed range for a new closing date, both ends inclusive.
type DateWindow struct {
	Min time.Time
	Max time.Time
}

func (w DateWindow) Contains(date time.Time) bool {
	return !date.Before(w.Min) && !date.After(w.Max)
}

// Option is one purchasable upsell with its per-product constraints.
type Option struct {
	Product models.Product

	// Required flags the extension on a 'verlopen' vacancy: republishing
	// mandates picking a new closing date
	Required bool

	// Current expiry of a running renewable window, nil when not running
	ExpiresAt *time.Time

	// Allowed closing date range for extension options
	Window *DateWindow
}

// ResolveUpsells returns the upsells currently purchasable for the vacancy.
//
// Eligibility per repeat mode:
//   - once: only while not already owned (directly or through the package)
//   - unlimited: always
//   - renewable: always; each purchase restarts a window of DurationDays,
//     the most recent spend for the product determines the current expiry
//   - until_max: only while a valid extension window exists
func ResolveUpsells(products []models.Product, vacancy models.Vacancy, transactions []models.Transaction, now time.Time) []Option {
	pkg, pkgFound := findProduct(products, vacancy.PackageID)

	options := make([]Option, 0, len(products))
	for _, p := range products {
		if !p.HasAvailability(models.AvailabilityBoostOption) {
			continue
		}

		owned := vacancy.OwnsUpsell(p.ID) || (pkgFound && lo.Contains(pkg.IncludedUpsells, p.ID))

		switch p.RepeatMode {
		case models.RepeatModeOnce:
			if owned {
				continue
			}
			options = append(options, Option{Product: p})

		case models.RepeatModeUnlimited:
			options = append(options, Option{Product: p})

		case models.RepeatModeRenewable:
			options = append(options, Option{
				Product:   p,
				ExpiresAt: renewableExpiry(p, vacancy, transactions),
			})

		case models.RepeatModeUntilMax:
			if !pkgFound {
				continue
			}
			window, ok := ExtensionWindow(pkg, vacancy, now)
			if !ok {
				continue
			}
			options = append(options, Option{
				Product:  p,
				Required: vacancy.Status == models.VacancyStatusExpired,
				Window:   &window,
			})
		}
	}

	return options
}

// ExtensionWindow computes the allowed closing date range for an extension:
// from the day after the current closing date (never before today) up to the
// publication anniversary. Premium packages already run the full listing
// year, so they have no window. Without a first publication date no range
// can be computed and the extension is simply not offered.
func ExtensionWindow(pkg models.Product, vacancy models.Vacancy, now time.Time) (DateWindow, bool) {
	if pkg.IsPremium() || vacancy.FirstPublishedAt == nil {
		return DateWindow{}, false
	}

	min := toDate(now)
	if vacancy.ClosingDate != nil {
		if next := toDate(*vacancy.ClosingDate).AddDate(0, 0, 1); next.After(min) {
			min = next
		}
	}

	max := toDate(*vacancy.FirstPublishedAt).AddDate(0, 0, models.MaxListingDays)

	if !max.After(min) {
		// no room left to extend
		return DateWindow{}, false
	}

	return DateWindow{Min: min, Max: max}, true
}

// renewableExpiry returns when the currently running window of a renewable
// upsell ends, based on the most recent spend for this vacancy and product.
func renewableExpiry(p models.Product, vacancy models.Vacancy, transactions []models.Transaction) *time.Time {
	var last *time.Time
	for _, t := range transactions {
		if t.Type != models.TransactionTypeSpend || t.Status == models.TransactionStatusFailed {
			continue
		}
		if t.VacancyID == nil || *t.VacancyID != vacancy.ID {
			continue
		}
		if !lo.Contains(t.ProductIDs, p.ID) {
			continue
		}
		if last == nil || t.CreatedAt.After(*last) {
			created := t.CreatedAt
			last = &created
		}
	}

	if last == nil {
		return nil
	}

	expiry := last.AddDate(0, 0, p.DurationDays)
	return &expiry
}

func findProduct(products []models.Product, id string) (models.Product, bool) {
	return lo.Find(products, func(p models.Product) bool { return p.ID == id })
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
