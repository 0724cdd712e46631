package booking

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
	"github.com/jwalitptl/garage-api/pkg/errors"
	"github.com/jwalitptl/garage-api/pkg/metrics"
)

// AvailabilityService is the slice of the availability service the booking
// path depends on.
type AvailabilityService interface {
	ValidateDate(date time.Time) error
	ResolveOperations(ctx context.Context, operationIDs []uuid.UUID) ([]*model.Operation, error)
	StaffWindowAvailable(ctx context.Context, date time.Time, start, end time.Time) (bool, error)
	InvalidateDate(date time.Time)
}

// Service runs the booking transaction: validation, bay allocation, segment
// sequencing, atomic persistence and cache invalidation. Any failure before
// the commit aborts the whole operation with nothing persisted.
type Service struct {
	appointmentRepo repository.AppointmentRepository
	customerRepo    repository.CustomerRepository
	bayRepo         repository.BayRepository
	staffRepo       repository.StaffRepository
	closureRepo     repository.ClosureRepository
	availability    AvailabilityService
	metrics         *metrics.Metrics
}

func NewService(
	appointmentRepo repository.AppointmentRepository,
	customerRepo repository.CustomerRepository,
	bayRepo repository.BayRepository,
	staffRepo repository.StaffRepository,
	closureRepo repository.ClosureRepository,
	availability AvailabilityService,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		customerRepo:    customerRepo,
		bayRepo:         bayRepo,
		staffRepo:       staffRepo,
		closureRepo:     closureRepo,
		availability:    availability,
		metrics:         m,
	}
}

// Book books an appointment for the date and window, allocating one free bay
// and one qualified staff member per operation segment. Booking is not
// idempotent: resubmitting after a transient failure may create a duplicate.
func (s *Service) Book(ctx context.Context, date time.Time, start, end time.Time, customerID uuid.UUID, operationIDs []uuid.UUID) (*model.Confirmation, error) {
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.BookingLatency)
		defer timer.ObserveDuration()
	}

	confirmation, err := s.book(ctx, date, start, end, customerID, operationIDs)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BookingsTotal.Inc()
	}
	return confirmation, nil
}

func (s *Service) book(ctx context.Context, date time.Time, start, end time.Time, customerID uuid.UUID, operationIDs []uuid.UUID) (*model.Confirmation, error) {
	if len(operationIDs) == 0 {
		return nil, errors.New(errors.ErrBadRequest, "at least one operation is required")
	}
	if !start.Before(end) {
		return nil, errors.New(errors.ErrBadRequest, "start time must be before end time")
	}
	if err := s.availability.ValidateDate(date); err != nil {
		return nil, err
	}

	closure, err := s.closureRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check closures: %w", err)
	}
	if closure != nil {
		return nil, errors.New(errors.ErrGarageClosed,
			fmt.Sprintf("garage is closed on %s: %s", date.Format(model.DateLayout), closure.Reason))
	}

	open, err := s.availability.StaffWindowAvailable(ctx, date, start, end)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, errors.New(errors.ErrNoMechanicAvailable,
			"no mechanic working hours cover the requested window")
	}

	bay, err := s.allocateBay(ctx, date, start, end)
	if err != nil {
		return nil, err
	}

	operations, err := s.availability.ResolveOperations(ctx, operationIDs)
	if err != nil {
		return nil, err
	}
	if total := operationsSpan(operations); !start.Add(total).Equal(end) {
		return nil, errors.New(errors.ErrImpossibleDuration,
			fmt.Sprintf("operations need %s, requested window is %s", total, end.Sub(start)))
	}

	customer, err := s.customerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnknownCustomer,
			fmt.Sprintf("customer %s not found", customerID), err)
	}

	segments, err := s.sequenceSegments(ctx, date, start, operations)
	if err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		CustomerID: customer.ID,
		BayID:      bay.ID,
		Segments:   segments,
	}

	event, err := bookingCreatedEvent(appointment, customer)
	if err != nil {
		return nil, err
	}

	if err := s.appointmentRepo.SaveAppointment(ctx, appointment, event); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrBayConflict):
			return nil, errors.Wrap(errors.ErrNoBayAvailable, "bay was claimed by a concurrent booking", err)
		case stderrors.Is(err, repository.ErrStaffConflict):
			return nil, errors.Wrap(errors.ErrNoStaffAvailable, "staff was claimed by a concurrent booking", err)
		default:
			return nil, fmt.Errorf("failed to persist booking: %w", err)
		}
	}

	s.availability.InvalidateDate(date)

	return &model.Confirmation{
		Customer:    customer,
		Appointment: appointment,
		Segments:    segments,
	}, nil
}

// GetAppointment loads a committed appointment with its staff segments.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewNotFound("appointment", err)
	}
	return appointment, nil
}

// ListAppointments returns the committed appointments on the date.
func (s *Service) ListAppointments(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	appointments, err := s.appointmentRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// allocateBay picks the first free bay by ascending id so allocation is
// deterministic.
func (s *Service) allocateBay(ctx context.Context, date time.Time, start, end time.Time) (*model.Bay, error) {
	bays, err := s.bayRepo.FindFreeBays(ctx, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find free bays: %w", err)
	}
	if len(bays) == 0 {
		return nil, errors.New(errors.ErrNoBayAvailable, "no service bay free for the requested window")
	}
	return bays[0], nil
}

func (s *Service) sequenceSegments(ctx context.Context, date time.Time, start time.Time, operations []*model.Operation) ([]*model.Segment, error) {
	windows, err := s.staffRepo.FindWorkingWindowsByWeekday(ctx, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load working windows: %w", err)
	}

	timeOffs, err := s.staffRepo.FindTimeOffByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff time off: %w", err)
	}
	absences := make(map[uuid.UUID][]model.TimeSlot)
	for _, timeOff := range timeOffs {
		offStart, err := model.CombineDateClock(date, timeOff.StartTime)
		if err != nil {
			continue
		}
		offEnd, err := model.CombineDateClock(date, timeOff.EndTime)
		if err != nil {
			continue
		}
		absences[timeOff.StaffID] = append(absences[timeOff.StaffID], model.TimeSlot{Start: offStart, End: offEnd})
	}

	q := &sequencer{
		date:    date,
		windows: windows,
		timeOff: absences,
		conflict: func(ctx context.Context, staffID uuid.UUID, segStart, segEnd time.Time) (bool, error) {
			return s.appointmentRepo.OverlapExists(ctx, model.ResourceStaff, staffID, date, segStart, segEnd)
		},
	}
	return q.sequence(ctx, operations, start)
}

func (s *Service) countFailure(err error) {
	if s.metrics == nil {
		return
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		s.metrics.BookingFailures.WithLabelValues(fmt.Sprintf("%d", appErr.Code)).Inc()
		return
	}
	s.metrics.BookingFailures.WithLabelValues("internal").Inc()
}

func operationsSpan(operations []*model.Operation) time.Duration {
	var total time.Duration
	for _, op := range operations {
		total += op.Duration()
	}
	return total
}

func bookingCreatedEvent(appointment *model.Appointment, customer *model.Customer) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"date":        appointment.Date.Format(model.DateLayout),
		"start_time":  appointment.StartTime,
		"end_time":    appointment.EndTime,
		"customer_id": customer.ID,
		"bay_id":      appointment.BayID,
		"segments":    len(appointment.Segments),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking event: %w", err)
	}
	return &model.OutboxEvent{
		EventType: model.EventBookingCreated,
		Payload:   payload,
	}, nil
}
