package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/pkg/errors"
)

type fakeOperationRepo struct {
	operations map[uuid.UUID]*model.Operation
	findCalls  int
}

func (f *fakeOperationRepo) Create(ctx context.Context, op *model.Operation) error { return nil }
func (f *fakeOperationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	return f.operations[id], nil
}
func (f *fakeOperationRepo) Update(ctx context.Context, op *model.Operation) error { return nil }
func (f *fakeOperationRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (f *fakeOperationRepo) List(ctx context.Context) ([]*model.Operation, error)  { return nil, nil }
func (f *fakeOperationRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Operation, error) {
	f.findCalls++
	var found []*model.Operation
	for _, id := range ids {
		if op, ok := f.operations[id]; ok {
			found = append(found, op)
		}
	}
	return found, nil
}

type fakeStaffRepo struct {
	windows      []*model.WorkingWindow
	weekdayCalls int
}

func (f *fakeStaffRepo) Create(ctx context.Context, staff *model.StaffMember) error { return nil }
func (f *fakeStaffRepo) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return nil, nil
}
func (f *fakeStaffRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeStaffRepo) List(ctx context.Context) ([]*model.StaffMember, error) {
	return nil, nil
}
func (f *fakeStaffRepo) CreateWorkingWindow(ctx context.Context, window *model.WorkingWindow) error {
	return nil
}
func (f *fakeStaffRepo) DeleteWorkingWindow(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeStaffRepo) ListWorkingWindows(ctx context.Context, staffID uuid.UUID) ([]*model.WorkingWindow, error) {
	return nil, nil
}
func (f *fakeStaffRepo) FindWorkingWindowsByWeekday(ctx context.Context, weekday int) ([]*model.WorkingWindow, error) {
	f.weekdayCalls++
	var matched []*model.WorkingWindow
	for _, w := range f.windows {
		if w.Weekday == weekday {
			matched = append(matched, w)
		}
	}
	return matched, nil
}
func (f *fakeStaffRepo) CreateTimeOff(ctx context.Context, timeOff *model.TimeOff) error { return nil }
func (f *fakeStaffRepo) ListTimeOff(ctx context.Context, staffID uuid.UUID) ([]*model.TimeOff, error) {
	return nil, nil
}
func (f *fakeStaffRepo) FindTimeOffByDate(ctx context.Context, date time.Time) ([]*model.TimeOff, error) {
	return nil, nil
}

type fakeClosureRepo struct {
	closures map[string]*model.Closure
}

func (f *fakeClosureRepo) Create(ctx context.Context, closure *model.Closure) error { return nil }
func (f *fakeClosureRepo) Delete(ctx context.Context, id uuid.UUID) error           { return nil }
func (f *fakeClosureRepo) List(ctx context.Context) ([]*model.Closure, error)       { return nil, nil }
func (f *fakeClosureRepo) FindByDate(ctx context.Context, date time.Time) (*model.Closure, error) {
	return f.closures[date.Format(model.DateLayout)], nil
}

func newOperation(name string, minutes int) *model.Operation {
	op := &model.Operation{Name: name, DurationMinutes: minutes}
	op.ID = uuid.New()
	return op
}

// Monday within the default booking horizon of the fixed test clock.
var testDate = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func newTestService(ops []*model.Operation, windows []*model.WorkingWindow, closures map[string]*model.Closure) (*Service, *fakeOperationRepo, *fakeStaffRepo) {
	opRepo := &fakeOperationRepo{operations: make(map[uuid.UUID]*model.Operation)}
	for _, op := range ops {
		opRepo.operations[op.ID] = op
	}
	staffRepo := &fakeStaffRepo{windows: windows}
	closureRepo := &fakeClosureRepo{closures: closures}
	if closureRepo.closures == nil {
		closureRepo.closures = make(map[string]*model.Closure)
	}

	svc := NewService(opRepo, staffRepo, closureRepo, NewCache(), nil, 0)
	svc.now = func() time.Time { return testDate }
	return svc, opRepo, staffRepo
}

func TestFindAvailableSlotsSingleOperation(t *testing.T) {
	op := newOperation("oil change", 60)
	staffID := uuid.New()
	windows := []*model.WorkingWindow{
		{StaffID: staffID, Weekday: int(testDate.Weekday()), StartTime: "08:00", EndTime: "12:00"},
	}
	svc, _, _ := newTestService([]*model.Operation{op}, windows, nil)

	slots, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	require.Len(t, slots, 4)

	for i, wantClock := range []string{"08:00", "09:00", "10:00", "11:00"} {
		start, err := model.CombineDateClock(testDate, wantClock)
		require.NoError(t, err)
		assert.Equal(t, start, slots[i].Start)
		assert.Equal(t, start.Add(time.Hour), slots[i].End)
	}
}

func TestFindAvailableSlotsChainedOperations(t *testing.T) {
	long := newOperation("brake service", 60)
	short := newOperation("tire rotation", 30)
	windows := []*model.WorkingWindow{
		{StaffID: uuid.New(), Weekday: int(testDate.Weekday()), StartTime: "08:00", EndTime: "10:00"},
	}
	svc, _, _ := newTestService([]*model.Operation{long, short}, windows, nil)

	// Step is the shortest duration (30m); only starts where both operations
	// fit back-to-back before 10:00 qualify.
	slots, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{long.ID, short.ID})
	require.NoError(t, err)
	require.Len(t, slots, 2)

	first, _ := model.CombineDateClock(testDate, "08:00")
	second, _ := model.CombineDateClock(testDate, "08:30")
	assert.Equal(t, first, slots[0].Start)
	assert.Equal(t, first.Add(90*time.Minute), slots[0].End)
	assert.Equal(t, second, slots[1].Start)
}

func TestFindAvailableSlotsNoOperations(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	_, err := svc.FindAvailableSlots(context.Background(), testDate, nil)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestFindAvailableSlotsUnknownOperation(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	_, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{uuid.New()})
	assert.True(t, errors.Is(err, errors.ErrUnknownOperation))
}

func TestFindAvailableSlotsGarageClosed(t *testing.T) {
	op := newOperation("oil change", 60)
	closures := map[string]*model.Closure{
		testDate.Format(model.DateLayout): {Date: testDate, Reason: "public holiday"},
	}
	svc, _, _ := newTestService([]*model.Operation{op}, nil, closures)

	_, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	assert.True(t, errors.Is(err, errors.ErrGarageClosed))
}

func TestValidateDateHorizon(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	assert.NoError(t, svc.ValidateDate(testDate))
	assert.NoError(t, svc.ValidateDate(testDate.AddDate(0, 0, DefaultMaxAdvanceDays)))

	err := svc.ValidateDate(testDate.AddDate(0, 0, -1))
	assert.True(t, errors.Is(err, errors.ErrInvalidDateRange))

	err = svc.ValidateDate(testDate.AddDate(0, 0, DefaultMaxAdvanceDays+1))
	assert.True(t, errors.Is(err, errors.ErrInvalidDateRange))
}

func TestFindAvailableSlotsUsesCache(t *testing.T) {
	op := newOperation("oil change", 60)
	windows := []*model.WorkingWindow{
		{StaffID: uuid.New(), Weekday: int(testDate.Weekday()), StartTime: "08:00", EndTime: "12:00"},
	}
	svc, opRepo, staffRepo := newTestService([]*model.Operation{op}, windows, nil)

	first, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, opRepo.findCalls)
	assert.Equal(t, 1, staffRepo.weekdayCalls)

	second, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, opRepo.findCalls, "cached read must not hit the repositories")
	assert.Equal(t, 1, staffRepo.weekdayCalls)

	svc.InvalidateDate(testDate)

	_, err = svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, opRepo.findCalls, "invalidation must force a recompute")
}

func TestFindAvailableSlotsIdempotentReads(t *testing.T) {
	op := newOperation("oil change", 60)
	windows := []*model.WorkingWindow{
		{StaffID: uuid.New(), Weekday: int(testDate.Weekday()), StartTime: "08:00", EndTime: "12:00"},
	}
	svc, _, _ := newTestService([]*model.Operation{op}, windows, nil)

	first, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	second, err := svc.FindAvailableSlots(context.Background(), testDate, []uuid.UUID{op.ID})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
