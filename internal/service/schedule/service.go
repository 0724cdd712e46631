package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
	"github.com/jwalitptl/garage-api/pkg/errors"
)

// AvailabilityInvalidator evicts cached slot computations for a date whose
// scheduling inputs changed.
type AvailabilityInvalidator interface {
	InvalidateDate(date time.Time)
}

// Service manages staff members, their working windows, absences and
// garage-wide closures. All reference data feeding the booking engine.
type Service struct {
	staffRepo    repository.StaffRepository
	bayRepo      repository.BayRepository
	closureRepo  repository.ClosureRepository
	availability AvailabilityInvalidator
}

func NewService(staffRepo repository.StaffRepository, bayRepo repository.BayRepository, closureRepo repository.ClosureRepository, availability AvailabilityInvalidator) *Service {
	return &Service{
		staffRepo:    staffRepo,
		bayRepo:      bayRepo,
		closureRepo:  closureRepo,
		availability: availability,
	}
}

func (s *Service) CreateStaff(ctx context.Context, req *model.CreateStaffRequest) (*model.StaffMember, error) {
	staff := &model.StaffMember{
		Name: req.Name,
		Role: req.Role,
	}
	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	return staff, nil
}

func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	staff, err := s.staffRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return staff, nil
}

func (s *Service) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return s.staffRepo.Delete(ctx, id)
}

func (s *Service) ListStaff(ctx context.Context) ([]*model.StaffMember, error) {
	staff, err := s.staffRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	return staff, nil
}

// AddWorkingWindow attaches a recurring weekly window to a staff member.
// Start must precede end; both are wall-clock "HH:MM" strings.
func (s *Service) AddWorkingWindow(ctx context.Context, staffID uuid.UUID, req *model.CreateWorkingWindowRequest) (*model.WorkingWindow, error) {
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, errors.BadRequest("invalid start time", err)
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return nil, errors.BadRequest("invalid end time", err)
	}
	if !start.Before(end) {
		return nil, errors.New(errors.ErrBadRequest, "window start must be before window end")
	}

	if _, err := s.staffRepo.Get(ctx, staffID); err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}

	window := &model.WorkingWindow{
		StaffID:   staffID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.staffRepo.CreateWorkingWindow(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to create working window: %w", err)
	}
	return window, nil
}

func (s *Service) RemoveWorkingWindow(ctx context.Context, id uuid.UUID) error {
	return s.staffRepo.DeleteWorkingWindow(ctx, id)
}

func (s *Service) ListWorkingWindows(ctx context.Context, staffID uuid.UUID) ([]*model.WorkingWindow, error) {
	windows, err := s.staffRepo.ListWorkingWindows(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list working windows: %w", err)
	}
	return windows, nil
}

func (s *Service) AddTimeOff(ctx context.Context, staffID uuid.UUID, req *model.CreateTimeOffRequest) (*model.TimeOff, error) {
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, errors.BadRequest("invalid date", err)
	}

	if _, err := s.staffRepo.Get(ctx, staffID); err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}

	timeOff := &model.TimeOff{
		StaffID:   staffID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}
	if err := s.staffRepo.CreateTimeOff(ctx, timeOff); err != nil {
		return nil, fmt.Errorf("failed to create time off: %w", err)
	}
	// Cached slots for the date assumed the staff member was present.
	s.availability.InvalidateDate(date)
	return timeOff, nil
}

func (s *Service) ListTimeOff(ctx context.Context, staffID uuid.UUID) ([]*model.TimeOff, error) {
	timeOffs, err := s.staffRepo.ListTimeOff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time off: %w", err)
	}
	return timeOffs, nil
}

func (s *Service) CreateBay(ctx context.Context, req *model.CreateBayRequest) (*model.Bay, error) {
	bay := &model.Bay{Name: req.Name}
	if err := s.bayRepo.Create(ctx, bay); err != nil {
		return nil, fmt.Errorf("failed to create bay: %w", err)
	}
	return bay, nil
}

func (s *Service) DeleteBay(ctx context.Context, id uuid.UUID) error {
	return s.bayRepo.Delete(ctx, id)
}

func (s *Service) ListBays(ctx context.Context) ([]*model.Bay, error) {
	bays, err := s.bayRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bays: %w", err)
	}
	return bays, nil
}

func (s *Service) CreateClosure(ctx context.Context, req *model.CreateClosureRequest) (*model.Closure, error) {
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, errors.BadRequest("invalid date", err)
	}

	closure := &model.Closure{
		Date:   date,
		Reason: req.Reason,
	}
	if err := s.closureRepo.Create(ctx, closure); err != nil {
		return nil, fmt.Errorf("failed to create closure: %w", err)
	}
	// Slots cached before the closure existed would still offer the date.
	s.availability.InvalidateDate(date)
	return closure, nil
}

func (s *Service) DeleteClosure(ctx context.Context, id uuid.UUID) error {
	return s.closureRepo.Delete(ctx, id)
}

func (s *Service) ListClosures(ctx context.Context) ([]*model.Closure, error) {
	closures, err := s.closureRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}
	return closures, nil
}
