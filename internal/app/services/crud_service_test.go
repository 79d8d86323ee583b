package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func newCourseCrud() *CrudService[models.Course, int64] {
	return NewCrudService[models.Course, int64](newFakeCourseRepo(), "course")
}

func TestCrudServiceSaveThenFindByID(t *testing.T) {
	svc := newCourseCrud()
	ctx := context.Background()

	saved, err := svc.Save(ctx, &models.Course{Name: "Math", Description: "Mathematics Course"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected generated id")
	}

	got, err := svc.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Name != "Math" || got.Description != "Mathematics Course" {
		t.Fatalf("unexpected course %+v", got)
	}
}

func TestCrudServiceSaveRejectsInvalidEntity(t *testing.T) {
	svc := newCourseCrud()
	_, err := svc.Save(context.Background(), &models.Course{Name: ""})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 1 || ve.Fields[0].Field != "name" {
		t.Fatalf("expected a single error on name, got %v", err)
	}
}

func TestCrudServiceFindByIDMissing(t *testing.T) {
	svc := newCourseCrud()
	_, err := svc.FindByID(context.Background(), 42)
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type nilFindRepo struct {
	*memRepo[models.Course]
}

func (nilFindRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	return nil, nil
}

func TestCrudServiceFindByIDNeverReturnsNilWithoutError(t *testing.T) {
	svc := NewCrudService[models.Course, int64](nilFindRepo{newFakeCourseRepo().memRepo}, "course")
	got, err := svc.FindByID(context.Background(), 1)
	if got != nil || !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("expected not found, got %v / %v", got, err)
	}
}

func TestCrudServiceDeleteByIDIsIdempotent(t *testing.T) {
	svc := newCourseCrud()
	ctx := context.Background()

	saved, err := svc.Save(ctx, &models.Course{Name: "Physics"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.DeleteByID(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, err := svc.FindByID(ctx, saved.ID); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteByID(ctx, saved.ID); err != nil {
		t.Fatalf("second DeleteByID should succeed, got %v", err)
	}
	if err := svc.DeleteByID(ctx, 999); err != nil {
		t.Fatalf("deleting unknown id should succeed, got %v", err)
	}
}

func TestCrudServiceUpdateReplacesFields(t *testing.T) {
	svc := newCourseCrud()
	ctx := context.Background()

	saved, _ := svc.Save(ctx, &models.Course{Name: "Chem"})
	saved.Description = "Chemistry"
	if _, err := svc.Update(ctx, saved); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := svc.FindByID(ctx, saved.ID)
	if got.Description != "Chemistry" {
		t.Fatalf("expected updated description, got %q", got.Description)
	}

	if _, err := svc.Update(ctx, &models.Course{ID: 77, Name: "Ghost"}); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("expected not found updating unknown id, got %v", err)
	}
}

func TestCrudServiceFindAllPage(t *testing.T) {
	svc := newCourseCrud()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if _, err := svc.Save(ctx, &models.Course{Name: name}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantErr   bool
		wantLen   int
		wantPages int
		wantLast  bool
	}{
		{name: "first page", page: 0, size: 2, wantLen: 2, wantPages: 3},
		{name: "last partial page", page: 2, size: 2, wantLen: 1, wantPages: 3, wantLast: true},
		{name: "past the end", page: 5, size: 2, wantLen: 0, wantPages: 3, wantLast: true},
		{name: "single page", page: 0, size: 100, wantLen: 5, wantPages: 1, wantLast: true},
		{name: "negative page", page: -1, size: 2, wantErr: true},
		{name: "zero size", page: 0, size: 0, wantErr: true},
		{name: "negative size", page: 0, size: -3, wantErr: true},
		{name: "size above limit", page: 0, size: 101, wantErr: true},
		{name: "largest addressable page", page: math.MaxInt/2 - 1, size: 2, wantLen: 0, wantPages: 3, wantLast: true},
		{name: "offset overflow", page: math.MaxInt / 100, size: 100, wantErr: true},
		{name: "max page", page: math.MaxInt, size: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := svc.FindAllPage(ctx, tc.page, tc.size)
			if tc.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidArgument) {
					t.Fatalf("expected invalid argument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindAllPage: %v", err)
			}
			if len(p.Content) != tc.wantLen || len(p.Content) > tc.size {
				t.Fatalf("expected %d elements, got %d", tc.wantLen, len(p.Content))
			}
			if p.TotalElements != 5 {
				t.Fatalf("expected totalElements 5, got %d", p.TotalElements)
			}
			if p.TotalPages != tc.wantPages {
				t.Fatalf("expected %d pages, got %d", tc.wantPages, p.TotalPages)
			}
			if p.Last != tc.wantLast {
				t.Fatalf("expected last=%v, got %v", tc.wantLast, p.Last)
			}
		})
	}
}
