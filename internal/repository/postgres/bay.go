package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
)

func (r *bayRepository) Create(ctx context.Context, bay *model.Bay) error {
	query := `
		INSERT INTO bays (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	bay.ID = uuid.New()
	bay.CreatedAt = time.Now()
	bay.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		bay.ID,
		bay.Name,
		bay.CreatedAt,
		bay.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bay: %w", err)
	}
	return nil
}

func (r *bayRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bay, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM bays
		WHERE id = $1
	`
	var bay model.Bay
	err := r.db.GetContext(ctx, &bay, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bay: %w", err)
	}
	return &bay, nil
}

func (r *bayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM bays
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete bay: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("bay not found")
	}

	return nil
}

func (r *bayRepository) List(ctx context.Context) ([]*model.Bay, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM bays
		ORDER BY id ASC
	`
	var bays []*model.Bay
	err := r.db.SelectContext(ctx, &bays, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bays: %w", err)
	}
	return bays, nil
}

// FindFreeBays returns bays without a committed overlapping appointment on the
// date, ordered by id ascending. Intervals are half-open: an appointment ending
// exactly at start does not block the bay.
func (r *bayRepository) FindFreeBays(ctx context.Context, date time.Time, start, end time.Time) ([]*model.Bay, error) {
	query := `
		SELECT b.id, b.name, b.created_at, b.updated_at
		FROM bays b
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.bay_id = b.id
			AND a.date = $1
			AND a.start_time < $3
			AND a.end_time > $2
		)
		ORDER BY b.id ASC
	`
	var bays []*model.Bay
	err := r.db.SelectContext(ctx, &bays, query, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find free bays: %w", err)
	}
	return bays, nil
}
