package geo

import (
	"math"

	"crosswalk.app/api/internal/model"
)

// Threshold returns the reading distance in meters for a range class.
// Anywhere is unbounded. ok is false for a class outside the policy.
func Threshold(rc model.RangeClass) (meters float64, ok bool) {
	switch rc {
	case model.RangeClose:
		return 15, true
	case model.RangeFar:
		return 100, true
	case model.RangeAnywhere:
		return math.Inf(1), true
	default:
		return 0, false
	}
}

// IsVisible reports whether a drop of class rc may be read from distanceMeters away.
// Authors always see their own drops. The boundary is inclusive, and a class
// outside the policy is readable only by its author.
func IsVisible(rc model.RangeClass, distanceMeters float64, isOwner bool) bool {
	if isOwner {
		return true
	}
	threshold, ok := Threshold(rc)
	if !ok {
		return false
	}
	return distanceMeters <= threshold
}
