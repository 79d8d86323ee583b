package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

type mockAnswerRepo struct {
	findAllFn              func(ctx context.Context) ([]models.Answer, error)
	findByIDFn             func(ctx context.Context, id string) (*models.Answer, error)
	saveFn                 func(ctx context.Context, a *models.Answer) (*models.Answer, error)
	deleteByIDFn           func(ctx context.Context, id string) error
	findAllPageFn          func(ctx context.Context, req models.PageRequest) ([]models.Answer, int64, error)
	saveAllFn              func(ctx context.Context, answers []models.Answer) ([]models.Answer, error)
	findByStudentAndExamFn func(ctx context.Context, studentID, examID int64) ([]models.Answer, error)
	findByStudentFn        func(ctx context.Context, studentID int64) ([]models.Answer, error)
	findExamIDsFn          func(ctx context.Context, studentID int64) ([]int64, error)
}

func (m *mockAnswerRepo) FindAll(ctx context.Context) ([]models.Answer, error) {
	if m.findAllFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.findAllFn(ctx)
}

func (m *mockAnswerRepo) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	if m.findByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.findByIDFn(ctx, id)
}

func (m *mockAnswerRepo) Save(ctx context.Context, a *models.Answer) (*models.Answer, error) {
	if m.saveFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.saveFn(ctx, a)
}

func (m *mockAnswerRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteByIDFn(ctx, id)
}

func (m *mockAnswerRepo) FindAllPage(ctx context.Context, req models.PageRequest) ([]models.Answer, int64, error) {
	if m.findAllPageFn == nil {
		return nil, 0, errors.New("not implemented")
	}
	return m.findAllPageFn(ctx, req)
}

func (m *mockAnswerRepo) SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	if m.saveAllFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.saveAllFn(ctx, answers)
}

func (m *mockAnswerRepo) FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error) {
	if m.findByStudentAndExamFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.findByStudentAndExamFn(ctx, studentID, examID)
}

func (m *mockAnswerRepo) FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error) {
	if m.findByStudentFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.findByStudentFn(ctx, studentID)
}

func (m *mockAnswerRepo) FindExamIDsByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	if m.findExamIDsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.findExamIDsFn(ctx, studentID)
}

func TestAnswerSaveAllAssignsIDs(t *testing.T) {
	repo := &mockAnswerRepo{
		saveAllFn: func(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
			out := make([]models.Answer, len(answers))
			for i, a := range answers {
				a.ID = fmt.Sprintf("id-%d", i)
				out[i] = a
			}
			return out, nil
		},
	}
	svc := NewAnswerService(repo)

	saved, err := svc.SaveAll(context.Background(), []models.Answer{
		{ID: "client-supplied", Text: "4", StudentID: 1, QuestionID: 1, ExamID: 1},
		{Text: "Paris", StudentID: 1, QuestionID: 2, ExamID: 1},
	})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if len(saved) != 2 || saved[0].ID != "id-0" || saved[1].Text != "Paris" {
		t.Fatalf("unexpected answers %+v", saved)
	}
}

func TestAnswerSaveAllRejectsWholeBatch(t *testing.T) {
	repo := &mockAnswerRepo{
		saveAllFn: func(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
			t.Fatal("nothing should be stored when one answer is invalid")
			return nil, nil
		},
	}
	svc := NewAnswerService(repo)

	_, err := svc.SaveAll(context.Background(), []models.Answer{
		{Text: "ok", StudentID: 1, QuestionID: 1, ExamID: 1},
		{Text: "", StudentID: 1, QuestionID: 2, ExamID: 1},
	})
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "[1].text" {
		t.Fatalf("unexpected fields %+v", ve.Fields)
	}
}

func TestAnswerUpdateTextOnlyChangesText(t *testing.T) {
	stored := models.Answer{ID: "a1", Text: "old", StudentID: 1, QuestionID: 2, ExamID: 3}
	var written *models.Answer
	repo := &mockAnswerRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Answer, error) {
			a := stored
			return &a, nil
		},
		saveFn: func(ctx context.Context, a *models.Answer) (*models.Answer, error) {
			written = a
			return a, nil
		},
	}
	svc := NewAnswerService(repo)

	got, err := svc.UpdateText(context.Background(), "a1", "new")
	if err != nil {
		t.Fatalf("UpdateText: %v", err)
	}
	want := stored
	want.Text = "new"
	if !reflect.DeepEqual(*got, want) || !reflect.DeepEqual(*written, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if _, err := svc.UpdateText(context.Background(), "a1", "  "); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected validation error for blank text, got %v", err)
	}
}

func TestAnswerDeleteMissingIsNotFound(t *testing.T) {
	deleted := false
	repo := &mockAnswerRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Answer, error) {
			return nil, apperrors.NewResourceNotFoundError("answer not found")
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewAnswerService(repo)

	if err := svc.DeleteByID(context.Background(), "nope"); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if deleted {
		t.Fatal("repository delete should not run for a missing answer")
	}
}

func TestAnswerFindExamIDsAnsweredByStudent(t *testing.T) {
	repo := &mockAnswerRepo{
		findExamIDsFn: func(ctx context.Context, studentID int64) ([]int64, error) {
			return []int64{2, 5}, nil
		},
	}
	svc := NewAnswerService(repo)

	ids, err := svc.FindExamIDsAnsweredByStudent(context.Background(), 1)
	if err != nil || !reflect.DeepEqual(ids, []int64{2, 5}) {
		t.Fatalf("unexpected result %v / %v", ids, err)
	}
}
