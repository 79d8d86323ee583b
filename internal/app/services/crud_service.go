package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// Crud is the operation set every domain service exposes for its entity.
type Crud[T any, ID comparable] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id ID) (*T, error)
	Save(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	DeleteByID(ctx context.Context, id ID) error
	FindAllPage(ctx context.Context, page, size int) (*models.Page[T], error)
}

// CrudService implements Crud on top of any CrudRepository. Domain services
// embed it and override only what their resource does differently.
type CrudService[T any, ID comparable] struct {
	repo     repositories.CrudRepository[T, ID]
	resource string
}

// NewCrudService creates a CrudService; resource names the entity in errors.
func NewCrudService[T any, ID comparable](repo repositories.CrudRepository[T, ID], resource string) *CrudService[T, ID] {
	return &CrudService[T, ID]{repo: repo, resource: resource}
}

// FindAll returns every stored entity
func (s *CrudService[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving %ss: %w", s.resource, err)
	}
	return items, nil
}

// FindByID returns the entity or an error wrapping ErrResourceNotFound.
func (s *CrudService[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving %s %v: %w", s.resource, id, err)
	}
	if item == nil {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %v not found", s.resource, id))
	}
	return item, nil
}

// Save validates and persists the entity, inserting it when its id is zero.
func (s *CrudService[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	if err := validation.Struct(entity); err != nil {
		return nil, err
	}
	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrResourceAlreadyExists, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error saving %s: %w", s.resource, err)
	}
	return saved, nil
}

// Update is Save for an entity that already has an id. Last write wins.
func (s *CrudService[T, ID]) Update(ctx context.Context, entity *T) (*T, error) {
	return s.Save(ctx, entity)
}

// DeleteByID removes the entity; deleting a missing id succeeds.
func (s *CrudService[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("error deleting %s %v: %w", s.resource, id, err)
	}
	return nil
}

// FindAllPage returns one zero-based page ordered by id.
func (s *CrudService[T, ID]) FindAllPage(ctx context.Context, page, size int) (*models.Page[T], error) {
	req, err := helpers.NewPageRequest(page, size)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.FindAllPage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error retrieving %s page: %w", s.resource, err)
	}
	return models.NewPage(items, total, req), nil
}

// searchPage validates paging and runs a filtered page query.
func searchPage[T any](ctx context.Context, resource string, page, size int,
	query func(context.Context, models.PageRequest) ([]T, int64, error)) (*models.Page[T], error) {
	req, err := helpers.NewPageRequest(page, size)
	if err != nil {
		return nil, err
	}
	items, total, err := query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error searching %ss: %w", resource, err)
	}
	return models.NewPage(items, total, req), nil
}
