package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/pkg/errors"
)

// sequencer chains an ordered list of operations into contiguous segments and
// assigns a qualified staff member to each. It is built once per booking pass
// from a snapshot of the day's working windows and absences; committed
// conflicts are checked through the conflict callback at assignment time.
type sequencer struct {
	date     time.Time
	windows  []*model.WorkingWindow
	timeOff  map[uuid.UUID][]model.TimeSlot
	conflict func(ctx context.Context, staffID uuid.UUID, start, end time.Time) (bool, error)
}

// sequence folds the operations into segments: the cursor starts at the
// requested start and advances by each operation's duration. Operations are
// never reordered. Per-staff intervals claimed earlier in the same pass are
// excluded from candidate selection, so one appointment can never assign the
// same staff member to two of its own overlapping segments.
func (q *sequencer) sequence(ctx context.Context, operations []*model.Operation, start time.Time) ([]*model.Segment, error) {
	segments := make([]*model.Segment, 0, len(operations))
	claimed := make(map[uuid.UUID][]model.TimeSlot)

	cursor := start
	for _, op := range operations {
		segmentEnd := cursor.Add(op.Duration())

		staffID, err := q.pickStaff(ctx, claimed, cursor, segmentEnd)
		if err != nil {
			return nil, err
		}
		if staffID == uuid.Nil {
			return nil, errors.New(errors.ErrNoStaffAvailable,
				fmt.Sprintf("no staff available for operation %q at %s", op.Name, cursor.Format(model.ClockLayout)))
		}

		segments = append(segments, &model.Segment{
			OperationID: op.ID,
			StaffID:     staffID,
			StartTime:   cursor,
			EndTime:     segmentEnd,
		})
		claimed[staffID] = append(claimed[staffID], model.TimeSlot{Start: cursor, End: segmentEnd})
		cursor = segmentEnd
	}

	return segments, nil
}

// pickStaff returns the first qualified candidate in the stable window order
// (staff id, then window start): the working window must cover the whole
// segment, the staff member must not be absent, must hold no committed
// conflicting segment, and must not have claimed an overlapping interval
// earlier in this pass. uuid.Nil means no candidate qualified.
func (q *sequencer) pickStaff(ctx context.Context, claimed map[uuid.UUID][]model.TimeSlot, start, end time.Time) (uuid.UUID, error) {
	segment := model.TimeSlot{Start: start, End: end}
	seen := make(map[uuid.UUID]bool)

	for _, window := range q.windows {
		if seen[window.StaffID] {
			continue
		}
		if !window.Covers(q.date, start, end) {
			continue
		}
		seen[window.StaffID] = true

		if overlapsAny(segment, q.timeOff[window.StaffID]) {
			continue
		}
		if overlapsAny(segment, claimed[window.StaffID]) {
			continue
		}

		busy, err := q.conflict(ctx, window.StaffID, start, end)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to check staff conflicts: %w", err)
		}
		if busy {
			continue
		}

		return window.StaffID, nil
	}
	return uuid.Nil, nil
}

func overlapsAny(slot model.TimeSlot, others []model.TimeSlot) bool {
	for _, other := range others {
		if slot.Overlaps(other) {
			return true
		}
	}
	return false
}
