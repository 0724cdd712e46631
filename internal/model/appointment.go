package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Appointment is a committed booking occupying one bay for its whole span.
// Appointments are created once and never updated.
type Appointment struct {
	Base
	Date       time.Time  `db:"date" json:"date"`
	StartTime  time.Time  `db:"start_time" json:"start_time"`
	EndTime    time.Time  `db:"end_time" json:"end_time"`
	CustomerID uuid.UUID  `db:"customer_id" json:"customer_id"`
	BayID      uuid.UUID  `db:"bay_id" json:"bay_id"`
	Segments   []*Segment `db:"-" json:"segments"`
}

// Segment is one operation's time allocation to one staff member within an
// appointment. Segments of one appointment are contiguous, non-overlapping
// and their union equals [appointment start, appointment end).
type Segment struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	OperationID   uuid.UUID `db:"operation_id" json:"operation_id"`
	StaffID       uuid.UUID `db:"staff_id" json:"staff_id"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
}

// Slot returns the segment interval as a TimeSlot.
func (s *Segment) Slot() TimeSlot {
	return TimeSlot{Start: s.StartTime, End: s.EndTime}
}

// BookingRequest is the write-path input. OperationIDs keep caller order;
// segments are chained in exactly that order.
type BookingRequest struct {
	Date         string   `json:"date" binding:"required"`
	StartTime    string   `json:"start_time" binding:"required,clocktime"`
	EndTime      string   `json:"end_time" binding:"required,clocktime"`
	CustomerID   string   `json:"customer_id" binding:"required,uuid"`
	OperationIDs []string `json:"operation_ids" binding:"required,min=1,dive,uuid"`
}

// Confirmation is returned on a successful booking.
type Confirmation struct {
	Customer    *Customer    `json:"customer"`
	Appointment *Appointment `json:"appointment"`
	Segments    []*Segment   `json:"segments"`
}

// ResourceKind discriminates overlap queries over committed state.
type ResourceKind string

const (
	ResourceStaff ResourceKind = "staff"
	ResourceBay   ResourceKind = "bay"
)
