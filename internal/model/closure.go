package model

import "time"

// Closure marks a calendar date on which the whole garage is closed.
// No availability is offered and no booking is accepted for closed dates.
type Closure struct {
	Base
	Date   time.Time `db:"date" json:"date"`
	Reason string    `db:"reason" json:"reason"`
}

type CreateClosureRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}
