package geo

import "crosswalk.app/api/internal/model"

// HiddenMessagePlaceholder replaces a drop's text when the viewer is out of range.
const HiddenMessagePlaceholder = "Get closer to read..."

// Visibility is the display decision for one drop and one viewer.
type Visibility struct {
	DistanceMeters *float64
	Readable       bool
	DisplayMessage string
}

// Annotate decides what a viewer at viewer (nil when unknown) is shown for drop.
//
// This is a display hint only. Callers still return the full drop, message included,
// to any authenticated user; clients rely on Readable to mask content.
func Annotate(viewer *Point, viewerID int64, drop *model.Drop) Visibility {
	isOwner := drop.UserID == viewerID

	if viewer == nil {
		readable := isOwner || drop.Range == model.RangeAnywhere
		return visibility(nil, readable, drop.Message)
	}

	d := Distance(viewer.Lat, viewer.Lng, drop.Latitude, drop.Longitude)
	return visibility(&d, IsVisible(drop.Range, d, isOwner), drop.Message)
}

func visibility(distance *float64, readable bool, message string) Visibility {
	v := Visibility{DistanceMeters: distance, Readable: readable, DisplayMessage: message}
	if !readable {
		v.DisplayMessage = HiddenMessagePlaceholder
	}
	return v
}
