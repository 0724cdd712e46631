package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/repository"
)

// Service manages the operation catalog. Reference data only; the booking
// engine reads it and never writes it.
type Service struct {
	repo repository.OperationRepository
}

func NewService(repo repository.OperationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateOperation(ctx context.Context, req *model.CreateOperationRequest) (*model.Operation, error) {
	op := &model.Operation{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	}
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}
	return op, nil
}

func (s *Service) GetOperation(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

func (s *Service) UpdateOperation(ctx context.Context, id uuid.UUID, req *model.UpdateOperationRequest) (*model.Operation, error) {
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	if req.Name != nil {
		op.Name = *req.Name
	}
	if req.Description != nil {
		op.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		op.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		op.Price = *req.Price
	}

	if err := s.repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to update operation: %w", err)
	}
	return op, nil
}

func (s *Service) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListOperations(ctx context.Context) ([]*model.Operation, error) {
	operations, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return operations, nil
}
