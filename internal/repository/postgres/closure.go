package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
)

func (r *closureRepository) Create(ctx context.Context, closure *model.Closure) error {
	query := `
		INSERT INTO garage_closures (id, date, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	closure.ID = uuid.New()
	closure.CreatedAt = time.Now()
	closure.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		closure.ID,
		closure.Date,
		closure.Reason,
		closure.CreatedAt,
		closure.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create closure: %w", err)
	}
	return nil
}

func (r *closureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM garage_closures
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete closure: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("closure not found")
	}

	return nil
}

func (r *closureRepository) List(ctx context.Context) ([]*model.Closure, error) {
	query := `
		SELECT id, date, reason, created_at, updated_at
		FROM garage_closures
		ORDER BY date ASC
	`
	var closures []*model.Closure
	err := r.db.SelectContext(ctx, &closures, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}
	return closures, nil
}

func (r *closureRepository) FindByDate(ctx context.Context, date time.Time) (*model.Closure, error) {
	query := `
		SELECT id, date, reason, created_at, updated_at
		FROM garage_closures
		WHERE date = $1
	`
	var closure model.Closure
	err := r.db.GetContext(ctx, &closure, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find closure: %w", err)
	}
	return &closure, nil
}
