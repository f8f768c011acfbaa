// Package alerting decides which alerts a user sees and owns the alert lifecycle.
package alerting

import (
	"slices"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

// ResolveVisibleAlerts returns the alerts visible to user, preserving input order.
// It does not look at Active or ExpiresAt; callers pass the active set.
func ResolveVisibleAlerts(user models.User, alerts []models.Alert) []models.Alert {
	visible := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if IsVisibleTo(a.TargetRegions, user.Location) {
			visible = append(visible, a)
		}
	}
	return visible
}

// IsVisibleTo reports whether regions cover loc. The three region sets are OR'd:
// a match on any one of them is enough.
func IsVisibleTo(regions models.TargetRegions, loc models.Location) bool {
	if regions.IsGlobal() {
		return true
	}
	if len(regions.States) > 0 && slices.Contains(regions.States, loc.State) {
		return true
	}
	if len(regions.Districts) > 0 && slices.Contains(regions.Districts, loc.District) {
		return true
	}
	if len(regions.Cities) > 0 && loc.City != "" && slices.Contains(regions.Cities, loc.City) {
		return true
	}
	return false
}
