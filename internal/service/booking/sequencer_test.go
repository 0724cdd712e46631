package booking

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

var seqDate = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func clock(t *testing.T, value string) time.Time {
	t.Helper()
	at, err := model.CombineDateClock(seqDate, value)
	require.NoError(t, err)
	return at
}

func window(staffID uuid.UUID, start, end string) *model.WorkingWindow {
	return &model.WorkingWindow{
		StaffID:   staffID,
		Weekday:   int(seqDate.Weekday()),
		StartTime: start,
		EndTime:   end,
	}
}

func noConflict(ctx context.Context, staffID uuid.UUID, start, end time.Time) (bool, error) {
	return false, nil
}

func TestSequenceChainsOperations(t *testing.T) {
	staffID := uuid.New()
	q := &sequencer{
		date:     seqDate,
		windows:  []*model.WorkingWindow{window(staffID, "08:00", "16:00")},
		timeOff:  map[uuid.UUID][]model.TimeSlot{},
		conflict: noConflict,
	}

	ops := []*model.Operation{
		{Name: "brake service", DurationMinutes: 60},
		{Name: "tire rotation", DurationMinutes: 30},
	}

	segments, err := q.sequence(context.Background(), ops, clock(t, "08:30"))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, clock(t, "08:30"), segments[0].StartTime)
	assert.Equal(t, clock(t, "09:30"), segments[0].EndTime)
	assert.Equal(t, clock(t, "09:30"), segments[1].StartTime)
	assert.Equal(t, clock(t, "10:00"), segments[1].EndTime)

	// Contiguous segments never overlap, so one staff member may take both.
	assert.Equal(t, staffID, segments[0].StaffID)
	assert.Equal(t, staffID, segments[1].StaffID)
}

func TestPickStaffSkipsIntervalClaimedEarlierInPass(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	q := &sequencer{
		date: seqDate,
		windows: []*model.WorkingWindow{
			window(first, "08:00", "16:00"),
			window(second, "08:00", "16:00"),
		},
		timeOff:  map[uuid.UUID][]model.TimeSlot{},
		conflict: noConflict,
	}

	// The fold only ever claims contiguous intervals, which never overlap;
	// hand pickStaff an already-claimed overlapping interval directly.
	claimed := map[uuid.UUID][]model.TimeSlot{
		first: {{Start: clock(t, "09:00"), End: clock(t, "10:00")}},
	}

	staffID, err := q.pickStaff(context.Background(), claimed, clock(t, "09:30"), clock(t, "10:30"))
	require.NoError(t, err)
	assert.Equal(t, second, staffID)

	// A claim that merely touches the segment boundary does not exclude.
	staffID, err = q.pickStaff(context.Background(), claimed, clock(t, "10:00"), clock(t, "11:00"))
	require.NoError(t, err)
	assert.Equal(t, first, staffID)
}

func TestSequenceSkipsAbsentStaff(t *testing.T) {
	absent := uuid.New()
	present := uuid.New()
	q := &sequencer{
		date: seqDate,
		windows: []*model.WorkingWindow{
			window(absent, "08:00", "16:00"),
			window(present, "08:00", "16:00"),
		},
		timeOff: map[uuid.UUID][]model.TimeSlot{
			absent: {{Start: clock(t, "09:00"), End: clock(t, "12:00")}},
		},
		conflict: noConflict,
	}

	ops := []*model.Operation{{Name: "oil change", DurationMinutes: 60}}

	segments, err := q.sequence(context.Background(), ops, clock(t, "09:00"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, present, segments[0].StaffID)
}

func TestSequenceSkipsCommittedConflicts(t *testing.T) {
	busy := uuid.New()
	free := uuid.New()
	q := &sequencer{
		date: seqDate,
		windows: []*model.WorkingWindow{
			window(busy, "08:00", "16:00"),
			window(free, "08:00", "16:00"),
		},
		timeOff: map[uuid.UUID][]model.TimeSlot{},
		conflict: func(ctx context.Context, staffID uuid.UUID, start, end time.Time) (bool, error) {
			return staffID == busy, nil
		},
	}

	ops := []*model.Operation{{Name: "oil change", DurationMinutes: 60}}

	segments, err := q.sequence(context.Background(), ops, clock(t, "09:00"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, free, segments[0].StaffID)
}

func TestSequenceFailsWhenWindowTooShort(t *testing.T) {
	staffID := uuid.New()
	q := &sequencer{
		date:     seqDate,
		windows:  []*model.WorkingWindow{window(staffID, "08:00", "10:00")},
		timeOff:  map[uuid.UUID][]model.TimeSlot{},
		conflict: noConflict,
	}

	// Second segment runs past the window end.
	ops := []*model.Operation{
		{Name: "brake service", DurationMinutes: 60},
		{Name: "alignment", DurationMinutes: 60},
	}

	_, err := q.sequence(context.Background(), ops, clock(t, "09:00"))
	assert.True(t, errors.Is(err, errors.ErrNoStaffAvailable))
}

func TestSequenceFailsWithNoWindows(t *testing.T) {
	q := &sequencer{
		date:     seqDate,
		windows:  nil,
		timeOff:  map[uuid.UUID][]model.TimeSlot{},
		conflict: noConflict,
	}

	ops := []*model.Operation{{Name: "oil change", DurationMinutes: 60}}

	_, err := q.sequence(context.Background(), ops, clock(t, "09:00"))
	assert.True(t, errors.Is(err, errors.ErrNoStaffAvailable))
}
