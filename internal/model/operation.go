package model

import "time"

// Operation is a catalog entry for a single garage service operation.
// Reference data, read-only to the booking engine.
type Operation struct {
	Base
	Name            string  `db:"name" json:"name"`
	Description     string  `db:"description" json:"description"`
	DurationMinutes int     `db:"duration_minutes" json:"duration_minutes"`
	Price           float64 `db:"price" json:"price"`
}

// Duration returns the operation duration as a time.Duration.
func (o *Operation) Duration() time.Duration {
	return time.Duration(o.DurationMinutes) * time.Minute
}

type CreateOperationRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Price           float64 `json:"price" binding:"gte=0"`
}

type UpdateOperationRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gt=0"`
	Price           *float64 `json:"price" binding:"omitempty,gte=0"`
}
