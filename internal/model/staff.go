package model

import (
	"time"

	"github.com/google/uuid"
)

type StaffRole string

const (
	StaffRoleMechanic StaffRole = "mechanic"
	StaffRoleAdvisor  StaffRole = "advisor"
)

// StaffMember is a garage employee who can be assigned to appointment segments.
type StaffMember struct {
	Base
	Name string    `db:"name" json:"name"`
	Role StaffRole `db:"role" json:"role"`
}

// WorkingWindow is a recurring weekly interval during which a staff member may
// be assigned work. A staff member may have several disjoint windows per
// weekday. Start and End are "HH:MM" wall-clock strings, Start < End.
type WorkingWindow struct {
	Base
	StaffID   uuid.UUID `db:"staff_id" json:"staff_id"`
	Weekday   int       `db:"weekday" json:"weekday"` // 0=Sunday .. 6=Saturday
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
}

// Range materializes the window on a concrete date.
func (w *WorkingWindow) Range(date time.Time) (start, end time.Time, err error) {
	start, err = CombineDateClock(date, w.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = CombineDateClock(date, w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Covers reports whether the window fully contains [start, end) on the given date.
func (w *WorkingWindow) Covers(date time.Time, start, end time.Time) bool {
	ws, we, err := w.Range(date)
	if err != nil {
		return false
	}
	return !start.Before(ws) && !end.After(we)
}

// TimeOff is a single-day staff absence. Absent staff are excluded from
// segment assignment for the overlapping interval.
type TimeOff struct {
	Base
	StaffID   uuid.UUID `db:"staff_id" json:"staff_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
}

type CreateStaffRequest struct {
	Name string    `json:"name" binding:"required"`
	Role StaffRole `json:"role" binding:"required,oneof=mechanic advisor"`
}

type CreateWorkingWindowRequest struct {
	Weekday   int    `json:"weekday" binding:"gte=0,lte=6"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
}

type CreateTimeOffRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
	Reason    string `json:"reason"`
}
