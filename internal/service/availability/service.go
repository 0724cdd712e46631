package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
	"github.com/jwalitptl/garage-api/pkg/errors"
	"github.com/jwalitptl/garage-api/pkg/metrics"
)

// DefaultMaxAdvanceDays bounds how far ahead availability may be queried and
// bookings accepted.
const DefaultMaxAdvanceDays = 14

// Service computes candidate time windows for a date and operation set from
// staff working hours. Results are advisory: no resources are held, committed
// appointments are not consulted, and a booking call re-validates everything.
type Service struct {
	operationRepo  repository.OperationRepository
	staffRepo      repository.StaffRepository
	closureRepo    repository.ClosureRepository
	cache          *Cache
	metrics        *metrics.Metrics
	maxAdvanceDays int
	now            func() time.Time
}

func NewService(
	operationRepo repository.OperationRepository,
	staffRepo repository.StaffRepository,
	closureRepo repository.ClosureRepository,
	cache *Cache,
	m *metrics.Metrics,
	maxAdvanceDays int,
) *Service {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = DefaultMaxAdvanceDays
	}
	return &Service{
		operationRepo:  operationRepo,
		staffRepo:      staffRepo,
		closureRepo:    closureRepo,
		cache:          cache,
		metrics:        m,
		maxAdvanceDays: maxAdvanceDays,
		now:            time.Now,
	}
}

// ValidateDate checks the booking horizon: not before today, not after
// today plus the configured advance limit.
func (s *Service) ValidateDate(date time.Time) error {
	today := model.DateOnly(s.now())
	maxDate := today.AddDate(0, 0, s.maxAdvanceDays)

	if date.Before(today) {
		return errors.New(errors.ErrInvalidDateRange, "date cannot be in the past")
	}
	if date.After(maxDate) {
		return errors.New(errors.ErrInvalidDateRange,
			fmt.Sprintf("date cannot be more than %d days in advance", s.maxAdvanceDays))
	}
	return nil
}

// FindAvailableSlots returns candidate windows for the date and operation set,
// ordered per staff member and then chronologically. Results are memoized per
// date and operation set until a booking for the date evicts them.
func (s *Service) FindAvailableSlots(ctx context.Context, date time.Time, operationIDs []uuid.UUID) ([]model.TimeSlot, error) {
	if len(operationIDs) == 0 {
		return nil, errors.New(errors.ErrBadRequest, "at least one operation is required")
	}
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}

	dateKey := date.Format(model.DateLayout)
	if slots, ok := s.cache.Get(dateKey, operationIDs); ok {
		if s.metrics != nil {
			s.metrics.AvailabilityCacheHits.Inc()
		}
		return slots, nil
	}
	if s.metrics != nil {
		s.metrics.AvailabilityCacheMisses.Inc()
	}

	closure, err := s.closureRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check closures: %w", err)
	}
	if closure != nil {
		return nil, errors.New(errors.ErrGarageClosed,
			fmt.Sprintf("garage is closed on %s: %s", dateKey, closure.Reason))
	}

	operations, err := s.ResolveOperations(ctx, operationIDs)
	if err != nil {
		return nil, err
	}

	windows, err := s.staffRepo.FindWorkingWindowsByWeekday(ctx, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load working windows: %w", err)
	}

	step := minDuration(operations)
	slots := make([]model.TimeSlot, 0)
	for _, window := range windows {
		slots = append(slots, slotsForWindow(window, date, operations, step)...)
	}

	s.cache.Set(dateKey, operationIDs, slots)
	return slots, nil
}

// ResolveOperations loads the requested operations preserving caller order.
// Any id that does not resolve fails the whole request.
func (s *Service) ResolveOperations(ctx context.Context, operationIDs []uuid.UUID) ([]*model.Operation, error) {
	found, err := s.operationRepo.FindByIDs(ctx, operationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Operation, len(found))
	for _, op := range found {
		byID[op.ID] = op
	}

	operations := make([]*model.Operation, 0, len(operationIDs))
	for _, id := range operationIDs {
		op, ok := byID[id]
		if !ok {
			return nil, errors.New(errors.ErrUnknownOperation,
				fmt.Sprintf("operation %s not found", id))
		}
		operations = append(operations, op)
	}
	return operations, nil
}

// StaffWindowAvailable is the coarse pre-check used by the booking path: true
// iff any working window on the date's weekday overlaps [start, end). Existing
// bookings are deliberately ignored here.
func (s *Service) StaffWindowAvailable(ctx context.Context, date time.Time, start, end time.Time) (bool, error) {
	windows, err := s.staffRepo.FindWorkingWindowsByWeekday(ctx, int(date.Weekday()))
	if err != nil {
		return false, fmt.Errorf("failed to load working windows: %w", err)
	}

	requested := model.TimeSlot{Start: start, End: end}
	for _, window := range windows {
		ws, we, err := window.Range(date)
		if err != nil {
			continue
		}
		if requested.Overlaps(model.TimeSlot{Start: ws, End: we}) {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateDate evicts cached availability for the date. Called by the
// booking service after a successful commit.
func (s *Service) InvalidateDate(date time.Time) {
	s.cache.InvalidateDate(date.Format(model.DateLayout))
}

// slotsForWindow walks the window in steps of the shortest operation duration
// and records every start from which all requested operations fit
// back-to-back before the window closes.
func slotsForWindow(window *model.WorkingWindow, date time.Time, operations []*model.Operation, step time.Duration) []model.TimeSlot {
	ws, we, err := window.Range(date)
	if err != nil {
		return nil
	}

	var slots []model.TimeSlot
	for start := ws; !start.Add(step).After(we); start = start.Add(step) {
		end := start
		feasible := true
		for _, op := range operations {
			end = end.Add(op.Duration())
			if end.After(we) {
				feasible = false
				break
			}
		}
		if feasible {
			slots = append(slots, model.TimeSlot{Start: start, End: end})
		}
	}
	return slots
}

func minDuration(operations []*model.Operation) time.Duration {
	min := operations[0].Duration()
	for _, op := range operations[1:] {
		if d := op.Duration(); d < min {
			min = d
		}
	}
	return min
}
