package dto

import (
	"time"

	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/service"
)

type ListDropsQuery struct {
	Lat    *float64 `form:"lat" binding:"omitempty,latitude"`
	Lng    *float64 `form:"lng" binding:"omitempty,longitude"`
	Radius float64  `form:"radius" binding:"omitempty,gt=0"`
}

// Coordinates are optional on single-drop reads; they only affect the annotation.
type ViewerQuery struct {
	Lat *float64 `form:"lat" binding:"omitempty,latitude"`
	Lng *float64 `form:"lng" binding:"omitempty,longitude"`
}

type CreateDropRequest struct {
	Message   string     `json:"message" binding:"required"`
	Latitude  *float64   `json:"latitude" binding:"required"`
	Longitude *float64   `json:"longitude" binding:"required"`
	Range     string     `json:"range" binding:"omitempty,rangeclass"`
	Effect    string     `json:"effect" binding:"omitempty,effect"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r CreateDropRequest) Input() service.CreateDropInput {
	return service.CreateDropInput{
		Message:   r.Message,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Range:     model.RangeClass(r.Range),
		Effect:    model.Effect(r.Effect),
		ExpiresAt: r.ExpiresAt,
	}
}

type HighfiveResponse struct {
	Success bool `json:"success"`
	*service.HighfiveStatus
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
