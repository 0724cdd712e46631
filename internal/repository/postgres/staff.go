package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
)

func (r *staffRepository) Create(ctx context.Context, staff *model.StaffMember) error {
	query := `
		INSERT INTO staff_members (id, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	staff.ID = uuid.New()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		staff.ID,
		staff.Name,
		staff.Role,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := `
		SELECT id, name, role, created_at, updated_at
		FROM staff_members
		WHERE id = $1
	`
	var staff model.StaffMember
	err := r.db.GetContext(ctx, &staff, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM staff_members
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("staff member not found")
	}

	return nil
}

func (r *staffRepository) List(ctx context.Context) ([]*model.StaffMember, error) {
	query := `
		SELECT id, name, role, created_at, updated_at
		FROM staff_members
		ORDER BY name ASC
	`
	var staff []*model.StaffMember
	err := r.db.SelectContext(ctx, &staff, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	return staff, nil
}

func (r *staffRepository) CreateWorkingWindow(ctx context.Context, window *model.WorkingWindow) error {
	query := `
		INSERT INTO working_windows (id, staff_id, weekday, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	window.ID = uuid.New()
	window.CreatedAt = time.Now()
	window.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		window.ID,
		window.StaffID,
		window.Weekday,
		window.StartTime,
		window.EndTime,
		window.CreatedAt,
		window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create working window: %w", err)
	}
	return nil
}

func (r *staffRepository) DeleteWorkingWindow(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM working_windows
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete working window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("working window not found")
	}

	return nil
}

func (r *staffRepository) ListWorkingWindows(ctx context.Context, staffID uuid.UUID) ([]*model.WorkingWindow, error) {
	query := `
		SELECT id, staff_id, weekday, start_time, end_time, created_at, updated_at
		FROM working_windows
		WHERE staff_id = $1
		ORDER BY weekday ASC, start_time ASC
	`
	var windows []*model.WorkingWindow
	err := r.db.SelectContext(ctx, &windows, query, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list working windows: %w", err)
	}
	return windows, nil
}

// FindWorkingWindowsByWeekday orders by staff id then start time so both the
// availability calculator and the sequencer see candidates in a stable order.
func (r *staffRepository) FindWorkingWindowsByWeekday(ctx context.Context, weekday int) ([]*model.WorkingWindow, error) {
	query := `
		SELECT id, staff_id, weekday, start_time, end_time, created_at, updated_at
		FROM working_windows
		WHERE weekday = $1
		ORDER BY staff_id ASC, start_time ASC
	`
	var windows []*model.WorkingWindow
	err := r.db.SelectContext(ctx, &windows, query, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to find working windows: %w", err)
	}
	return windows, nil
}

func (r *staffRepository) CreateTimeOff(ctx context.Context, timeOff *model.TimeOff) error {
	query := `
		INSERT INTO staff_time_offs (id, staff_id, date, start_time, end_time, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	timeOff.ID = uuid.New()
	timeOff.CreatedAt = time.Now()
	timeOff.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		timeOff.ID,
		timeOff.StaffID,
		timeOff.Date,
		timeOff.StartTime,
		timeOff.EndTime,
		timeOff.Reason,
		timeOff.CreatedAt,
		timeOff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create time off: %w", err)
	}
	return nil
}

func (r *staffRepository) ListTimeOff(ctx context.Context, staffID uuid.UUID) ([]*model.TimeOff, error) {
	query := `
		SELECT id, staff_id, date, start_time, end_time, reason, created_at, updated_at
		FROM staff_time_offs
		WHERE staff_id = $1
		ORDER BY date ASC, start_time ASC
	`
	var timeOffs []*model.TimeOff
	err := r.db.SelectContext(ctx, &timeOffs, query, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time off: %w", err)
	}
	return timeOffs, nil
}

func (r *staffRepository) FindTimeOffByDate(ctx context.Context, date time.Time) ([]*model.TimeOff, error) {
	query := `
		SELECT id, staff_id, date, start_time, end_time, reason, created_at, updated_at
		FROM staff_time_offs
		WHERE date = $1
		ORDER BY staff_id ASC, start_time ASC
	`
	var timeOffs []*model.TimeOff
	err := r.db.SelectContext(ctx, &timeOffs, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find time off: %w", err)
	}
	return timeOffs, nil
}
