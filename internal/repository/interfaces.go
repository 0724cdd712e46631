package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
)

// Conflict sentinels returned by SaveAppointment when the in-transaction
// re-check finds the bay or a staff member already claimed. They surface a
// lost race with a concurrent booking.
var (
	ErrBayConflict   = errors.New("bay already occupied for requested window")
	ErrStaffConflict = errors.New("staff member already booked for requested window")
)

// All repository interfaces in one file
type (
	// OperationRepository manages the service operation catalog.
	OperationRepository interface {
		Create(ctx context.Context, op *model.Operation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Operation, error)
		Update(ctx context.Context, op *model.Operation) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Operation, error)
		FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Operation, error)
	}

	// StaffRepository manages staff members, their recurring working windows
	// and single-day absences.
	StaffRepository interface {
		Create(ctx context.Context, staff *model.StaffMember) error
		Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.StaffMember, error)
		CreateWorkingWindow(ctx context.Context, window *model.WorkingWindow) error
		DeleteWorkingWindow(ctx context.Context, id uuid.UUID) error
		ListWorkingWindows(ctx context.Context, staffID uuid.UUID) ([]*model.WorkingWindow, error)
		FindWorkingWindowsByWeekday(ctx context.Context, weekday int) ([]*model.WorkingWindow, error)
		CreateTimeOff(ctx context.Context, timeOff *model.TimeOff) error
		ListTimeOff(ctx context.Context, staffID uuid.UUID) ([]*model.TimeOff, error)
		FindTimeOffByDate(ctx context.Context, date time.Time) ([]*model.TimeOff, error)
	}

	BayRepository interface {
		Create(ctx context.Context, bay *model.Bay) error
		Get(ctx context.Context, id uuid.UUID) (*model.Bay, error)
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Bay, error)
		// FindFreeBays returns bays with no committed overlapping appointment
		// on the date, ordered by id ascending so allocation is deterministic.
		FindFreeBays(ctx context.Context, date time.Time, start, end time.Time) ([]*model.Bay, error)
	}

	CustomerRepository interface {
		Create(ctx context.Context, customer *model.Customer) error
		Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
		Update(ctx context.Context, customer *model.Customer) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Customer, error)
	}

	ClosureRepository interface {
		Create(ctx context.Context, closure *model.Closure) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Closure, error)
		// FindByDate returns nil when the garage is open on the date.
		FindByDate(ctx context.Context, date time.Time) (*model.Closure, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListByDate(ctx context.Context, date time.Time) ([]*model.Appointment, error)
		// OverlapExists reports whether committed state holds an interval for
		// the resource overlapping [start, end) on the date. Staff overlap is
		// checked against segments, bay overlap against appointments.
		OverlapExists(ctx context.Context, kind model.ResourceKind, resourceID uuid.UUID, date time.Time, start, end time.Time) (bool, error)
		// SaveAppointment persists the appointment, its segments and the
		// outbox event as one serializable transaction, re-checking bay and
		// staff exclusion inside the transaction. Returns ErrBayConflict or
		// ErrStaffConflict when a concurrent booking won the resources.
		SaveAppointment(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
