package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
	"github.com/jwalitptl/garage-api/pkg/errors"
)

// memoryStore is an in-memory AppointmentRepository with the same exclusion
// guarantee as the SQL implementation: the conflict re-check and the insert
// happen under one lock, so concurrent bookings cannot both win a resource.
type memoryStore struct {
	mu           sync.Mutex
	appointments []*model.Appointment
	events       []*model.OutboxEvent
}

func (m *memoryStore) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appt := range m.appointments {
		if appt.ID == id {
			return appt, nil
		}
	}
	return nil, fmt.Errorf("appointment %s not found", id)
}

func (m *memoryStore) ListByDate(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*model.Appointment
	for _, appt := range m.appointments {
		if appt.Date.Equal(date) {
			matched = append(matched, appt)
		}
	}
	return matched, nil
}

func (m *memoryStore) OverlapExists(ctx context.Context, kind model.ResourceKind, resourceID uuid.UUID, date time.Time, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlapLocked(kind, resourceID, start, end), nil
}

func (m *memoryStore) overlapLocked(kind model.ResourceKind, resourceID uuid.UUID, start, end time.Time) bool {
	slot := model.TimeSlot{Start: start, End: end}
	for _, appt := range m.appointments {
		switch kind {
		case model.ResourceBay:
			if appt.BayID == resourceID && slot.Overlaps(model.TimeSlot{Start: appt.StartTime, End: appt.EndTime}) {
				return true
			}
		case model.ResourceStaff:
			for _, seg := range appt.Segments {
				if seg.StaffID == resourceID && slot.Overlaps(seg.Slot()) {
					return true
				}
			}
		}
	}
	return false
}

func (m *memoryStore) SaveAppointment(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.overlapLocked(model.ResourceBay, appointment.BayID, appointment.StartTime, appointment.EndTime) {
		return repository.ErrBayConflict
	}
	for _, seg := range appointment.Segments {
		if m.overlapLocked(model.ResourceStaff, seg.StaffID, seg.StartTime, seg.EndTime) {
			return repository.ErrStaffConflict
		}
	}

	appointment.ID = uuid.New()
	for _, seg := range appointment.Segments {
		seg.ID = uuid.New()
		seg.AppointmentID = appointment.ID
	}
	m.appointments = append(m.appointments, appointment)
	m.events = append(m.events, event)
	return nil
}

type stubBayRepo struct {
	bays  []*model.Bay
	store *memoryStore
}

func (r *stubBayRepo) Create(ctx context.Context, bay *model.Bay) error { return nil }
func (r *stubBayRepo) Get(ctx context.Context, id uuid.UUID) (*model.Bay, error) {
	return nil, nil
}
func (r *stubBayRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *stubBayRepo) List(ctx context.Context) ([]*model.Bay, error) { return r.bays, nil }
func (r *stubBayRepo) FindFreeBays(ctx context.Context, date time.Time, start, end time.Time) ([]*model.Bay, error) {
	var free []*model.Bay
	for _, bay := range r.bays {
		busy, err := r.store.OverlapExists(ctx, model.ResourceBay, bay.ID, date, start, end)
		if err != nil {
			return nil, err
		}
		if !busy {
			free = append(free, bay)
		}
	}
	return free, nil
}

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func (r *stubCustomerRepo) Create(ctx context.Context, customer *model.Customer) error { return nil }
func (r *stubCustomerRepo) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer not found")
	}
	return customer, nil
}
func (r *stubCustomerRepo) Update(ctx context.Context, customer *model.Customer) error { return nil }
func (r *stubCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error             { return nil }
func (r *stubCustomerRepo) List(ctx context.Context) ([]*model.Customer, error)        { return nil, nil }

type stubStaffRepo struct {
	windows  []*model.WorkingWindow
	timeOffs []*model.TimeOff
}

func (r *stubStaffRepo) Create(ctx context.Context, staff *model.StaffMember) error { return nil }
func (r *stubStaffRepo) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return nil, nil
}
func (r *stubStaffRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *stubStaffRepo) List(ctx context.Context) ([]*model.StaffMember, error) {
	return nil, nil
}
func (r *stubStaffRepo) CreateWorkingWindow(ctx context.Context, window *model.WorkingWindow) error {
	return nil
}
func (r *stubStaffRepo) DeleteWorkingWindow(ctx context.Context, id uuid.UUID) error { return nil }
func (r *stubStaffRepo) ListWorkingWindows(ctx context.Context, staffID uuid.UUID) ([]*model.WorkingWindow, error) {
	return r.windows, nil
}
func (r *stubStaffRepo) FindWorkingWindowsByWeekday(ctx context.Context, weekday int) ([]*model.WorkingWindow, error) {
	var matched []*model.WorkingWindow
	for _, w := range r.windows {
		if w.Weekday == weekday {
			matched = append(matched, w)
		}
	}
	return matched, nil
}
func (r *stubStaffRepo) CreateTimeOff(ctx context.Context, timeOff *model.TimeOff) error { return nil }
func (r *stubStaffRepo) ListTimeOff(ctx context.Context, staffID uuid.UUID) ([]*model.TimeOff, error) {
	return r.timeOffs, nil
}
func (r *stubStaffRepo) FindTimeOffByDate(ctx context.Context, date time.Time) ([]*model.TimeOff, error) {
	return r.timeOffs, nil
}

type stubClosureRepo struct {
	closures map[string]*model.Closure
}

func (r *stubClosureRepo) Create(ctx context.Context, closure *model.Closure) error { return nil }
func (r *stubClosureRepo) Delete(ctx context.Context, id uuid.UUID) error           { return nil }
func (r *stubClosureRepo) List(ctx context.Context) ([]*model.Closure, error)       { return nil, nil }
func (r *stubClosureRepo) FindByDate(ctx context.Context, date time.Time) (*model.Closure, error) {
	return r.closures[date.Format(model.DateLayout)], nil
}

type stubAvailability struct {
	mu          sync.Mutex
	operations  map[uuid.UUID]*model.Operation
	open        bool
	dateErr     error
	invalidated []string
}

func (a *stubAvailability) ValidateDate(date time.Time) error { return a.dateErr }

func (a *stubAvailability) ResolveOperations(ctx context.Context, operationIDs []uuid.UUID) ([]*model.Operation, error) {
	operations := make([]*model.Operation, 0, len(operationIDs))
	for _, id := range operationIDs {
		op, ok := a.operations[id]
		if !ok {
			return nil, errors.New(errors.ErrUnknownOperation, fmt.Sprintf("operation %s not found", id))
		}
		operations = append(operations, op)
	}
	return operations, nil
}

func (a *stubAvailability) StaffWindowAvailable(ctx context.Context, date time.Time, start, end time.Time) (bool, error) {
	return a.open, nil
}

func (a *stubAvailability) InvalidateDate(date time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidated = append(a.invalidated, date.Format(model.DateLayout))
}

type fixture struct {
	svc          *Service
	store        *memoryStore
	availability *stubAvailability
	customer     *model.Customer
	bay          *model.Bay
	staffID      uuid.UUID
	longOp       *model.Operation
	shortOp      *model.Operation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	longOp := &model.Operation{Name: "brake service", DurationMinutes: 60}
	longOp.ID = uuid.New()
	shortOp := &model.Operation{Name: "tire rotation", DurationMinutes: 30}
	shortOp.ID = uuid.New()

	customer := &model.Customer{Name: "Ada Martin", Email: "ada@example.com"}
	customer.ID = uuid.New()

	bay := &model.Bay{Name: "Bay 1"}
	bay.ID = uuid.New()

	staffID := uuid.New()

	store := &memoryStore{}
	availability := &stubAvailability{
		operations: map[uuid.UUID]*model.Operation{longOp.ID: longOp, shortOp.ID: shortOp},
		open:       true,
	}

	svc := NewService(
		store,
		&stubCustomerRepo{customers: map[uuid.UUID]*model.Customer{customer.ID: customer}},
		&stubBayRepo{bays: []*model.Bay{bay}, store: store},
		&stubStaffRepo{windows: []*model.WorkingWindow{window(staffID, "08:00", "16:00")}},
		&stubClosureRepo{closures: map[string]*model.Closure{}},
		availability,
		nil,
	)

	return &fixture{
		svc:          svc,
		store:        store,
		availability: availability,
		customer:     customer,
		bay:          bay,
		staffID:      staffID,
		longOp:       longOp,
		shortOp:      shortOp,
	}
}

func TestBookPartitionsWindowIntoSegments(t *testing.T) {
	f := newFixture(t)

	confirmation, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "10:00"),
		f.customer.ID, []uuid.UUID{f.longOp.ID, f.shortOp.ID})
	require.NoError(t, err)

	assert.Equal(t, f.customer, confirmation.Customer)
	assert.Equal(t, f.bay.ID, confirmation.Appointment.BayID)
	require.Len(t, confirmation.Segments, 2)

	assert.Equal(t, clock(t, "08:30"), confirmation.Segments[0].StartTime)
	assert.Equal(t, clock(t, "09:30"), confirmation.Segments[0].EndTime)
	assert.Equal(t, f.longOp.ID, confirmation.Segments[0].OperationID)
	assert.Equal(t, clock(t, "09:30"), confirmation.Segments[1].StartTime)
	assert.Equal(t, clock(t, "10:00"), confirmation.Segments[1].EndTime)
	assert.Equal(t, f.shortOp.ID, confirmation.Segments[1].OperationID)

	require.Len(t, f.store.events, 1)
	assert.Equal(t, model.EventBookingCreated, f.store.events[0].EventType)

	assert.Equal(t, []string{seqDate.Format(model.DateLayout)}, f.availability.invalidated)
}

func TestBookEmptyOperations(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "10:00"), f.customer.ID, nil)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestBookStartNotBeforeEnd(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "10:00"), clock(t, "08:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestBookInvalidDate(t *testing.T) {
	f := newFixture(t)
	f.availability.dateErr = errors.New(errors.ErrInvalidDateRange, "date cannot be in the past")

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrInvalidDateRange))
}

func TestBookGarageClosed(t *testing.T) {
	f := newFixture(t)
	closureRepo := &stubClosureRepo{closures: map[string]*model.Closure{
		seqDate.Format(model.DateLayout): {Date: seqDate, Reason: "inventory day"},
	}}
	f.svc.closureRepo = closureRepo

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrGarageClosed))
}

func TestBookOutsideWorkingHours(t *testing.T) {
	f := newFixture(t)
	f.availability.open = false

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrNoMechanicAvailable))
}

func TestBookNoBayAvailable(t *testing.T) {
	f := newFixture(t)
	f.svc.bayRepo = &stubBayRepo{bays: nil, store: f.store}

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrNoBayAvailable))
}

func TestBookUnknownOperation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{uuid.New()})
	assert.True(t, errors.Is(err, errors.ErrUnknownOperation))
}

func TestBookImpossibleDuration(t *testing.T) {
	f := newFixture(t)

	// 60+30 minutes of work cannot fill a two hour window.
	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:00"), clock(t, "10:00"),
		f.customer.ID, []uuid.UUID{f.longOp.ID, f.shortOp.ID})
	assert.True(t, errors.Is(err, errors.ErrImpossibleDuration))
}

func TestBookUnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), uuid.New(), []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrUnknownCustomer))
}

func TestBookSecondBookingSameWindowRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	assert.True(t, errors.Is(err, errors.ErrNoBayAvailable))
	assert.Len(t, f.store.appointments, 1)
}

func TestGetAppointmentReturnsSegments(t *testing.T) {
	f := newFixture(t)

	confirmation, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "10:00"),
		f.customer.ID, []uuid.UUID{f.longOp.ID, f.shortOp.ID})
	require.NoError(t, err)

	appointment, err := f.svc.GetAppointment(context.Background(), confirmation.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmation.Appointment.ID, appointment.ID)
	assert.Equal(t, f.bay.ID, appointment.BayID)
	require.Len(t, appointment.Segments, 2)
	assert.Equal(t, f.longOp.ID, appointment.Segments[0].OperationID)
}

func TestGetAppointmentUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetAppointment(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListAppointmentsFiltersByDate(t *testing.T) {
	f := newFixture(t)

	confirmation, err := f.svc.Book(context.Background(), seqDate,
		clock(t, "08:30"), clock(t, "09:30"), f.customer.ID, []uuid.UUID{f.longOp.ID})
	require.NoError(t, err)

	booked, err := f.svc.ListAppointments(context.Background(), seqDate)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, confirmation.Appointment.ID, booked[0].ID)

	other, err := f.svc.ListAppointments(context.Background(), seqDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBookConcurrentSameWindowSingleWinner(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	results := make(chan error, attempts)
	start := clock(t, "08:30")
	end := clock(t, "09:30")

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), seqDate,
				start, end, f.customer.ID, []uuid.UUID{f.longOp.ID})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		if err == nil {
			won++
			continue
		}
		lost++
		conflict := errors.Is(err, errors.ErrNoBayAvailable) ||
			errors.Is(err, errors.ErrNoStaffAvailable)
		assert.True(t, conflict, "unexpected error: %v", err)
	}

	assert.Equal(t, 1, won, "exactly one concurrent booking must win")
	assert.Equal(t, attempts-1, lost)
	assert.Len(t, f.store.appointments, 1)
}
