package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
)

const bayOverlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM appointments
		WHERE bay_id = $1
		AND date = $2
		AND start_time < $4
		AND end_time > $3
	)
`

const staffOverlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM appointment_segments s
		JOIN appointments a ON a.id = s.appointment_id
		WHERE s.staff_id = $1
		AND a.date = $2
		AND s.start_time < $4
		AND s.end_time > $3
	)
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, date, start_time, end_time, customer_id, bay_id, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	segmentsQuery := `
		SELECT id, appointment_id, operation_id, staff_id, start_time, end_time, created_at, updated_at
		FROM appointment_segments
		WHERE appointment_id = $1
		ORDER BY start_time ASC
	`
	err = r.db.SelectContext(ctx, &appointment.Segments, segmentsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment segments: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByDate(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, date, start_time, end_time, customer_id, bay_id, created_at, updated_at
		FROM appointments
		WHERE date = $1
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// OverlapExists is the single committed-state overlap check shared by the
// staff and bay paths. Intervals are half-open so touching endpoints never
// conflict.
func (r *appointmentRepository) OverlapExists(ctx context.Context, kind model.ResourceKind, resourceID uuid.UUID, date time.Time, start, end time.Time) (bool, error) {
	var query string
	switch kind {
	case model.ResourceBay:
		query = bayOverlapQuery
	case model.ResourceStaff:
		query = staffOverlapQuery
	default:
		return false, fmt.Errorf("unknown resource kind: %s", kind)
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, resourceID, date, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return exists, nil
}

// SaveAppointment writes the appointment, its segments and the outbox event in
// one serializable transaction. Bay and staff exclusion are re-checked inside
// the transaction so two concurrent bookings cannot both claim the same
// resource for overlapping windows: the loser rolls back with a conflict
// sentinel and nothing is persisted.
func (r *appointmentRepository) SaveAppointment(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bayBusy bool
	err = tx.GetContext(ctx, &bayBusy, bayOverlapQuery,
		appointment.BayID, appointment.Date, appointment.StartTime, appointment.EndTime)
	if err != nil {
		return fmt.Errorf("failed to re-check bay: %w", err)
	}
	if bayBusy {
		return repository.ErrBayConflict
	}

	for _, segment := range appointment.Segments {
		var staffBusy bool
		err = tx.GetContext(ctx, &staffBusy, staffOverlapQuery,
			segment.StaffID, appointment.Date, segment.StartTime, segment.EndTime)
		if err != nil {
			return fmt.Errorf("failed to re-check staff: %w", err)
		}
		if staffBusy {
			return repository.ErrStaffConflict
		}
	}

	now := time.Now()
	appointment.ID = uuid.New()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (id, date, start_time, end_time, customer_id, bay_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		appointment.ID,
		appointment.Date,
		appointment.StartTime,
		appointment.EndTime,
		appointment.CustomerID,
		appointment.BayID,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	for _, segment := range appointment.Segments {
		segment.ID = uuid.New()
		segment.AppointmentID = appointment.ID
		segment.CreatedAt = now
		segment.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointment_segments (id, appointment_id, operation_id, staff_id, start_time, end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			segment.ID,
			segment.AppointmentID,
			segment.OperationID,
			segment.StaffID,
			segment.StartTime,
			segment.EndTime,
			segment.CreatedAt,
			segment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
	}

	if event != nil {
		event.ID = uuid.New()
		event.Status = string(model.OutboxStatusPending)
		event.CreatedAt = now
		event.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			event.ID,
			event.EventType,
			event.Payload,
			event.Status,
			event.CreatedAt,
			event.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}
