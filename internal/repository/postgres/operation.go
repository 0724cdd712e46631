package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/garage-api/internal/model"
)

func (r *operationRepository) Create(ctx context.Context, op *model.Operation) error {
	query := `
		INSERT INTO operations (
			id, name, description, duration_minutes, price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	op.ID = uuid.New()
	op.CreatedAt = time.Now()
	op.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		op.ID,
		op.Name,
		op.Description,
		op.DurationMinutes,
		op.Price,
		op.CreatedAt,
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (r *operationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	query := `
		SELECT id, name, description, duration_minutes, price, created_at, updated_at
		FROM operations
		WHERE id = $1
	`
	var op model.Operation
	err := r.db.GetContext(ctx, &op, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return &op, nil
}

func (r *operationRepository) Update(ctx context.Context, op *model.Operation) error {
	query := `
		UPDATE operations
		SET name = $1, description = $2, duration_minutes = $3, price = $4, updated_at = $5
		WHERE id = $6
	`
	op.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		op.Name,
		op.Description,
		op.DurationMinutes,
		op.Price,
		op.UpdatedAt,
		op.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operation not found")
	}

	return nil
}

func (r *operationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM operations
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operation not found")
	}

	return nil
}

func (r *operationRepository) List(ctx context.Context) ([]*model.Operation, error) {
	query := `
		SELECT id, name, description, duration_minutes, price, created_at, updated_at
		FROM operations
		ORDER BY name ASC
	`
	var operations []*model.Operation
	err := r.db.SelectContext(ctx, &operations, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return operations, nil
}

func (r *operationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Operation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, name, description, duration_minutes, price, created_at, updated_at
		FROM operations
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build operations query: %w", err)
	}

	var operations []*model.Operation
	err = r.db.SelectContext(ctx, &operations, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find operations: %w", err)
	}
	return operations, nil
}
