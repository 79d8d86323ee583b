package services

import (
	"context"
	"fmt"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// ExamRepository is the storage exam-service needs.
type ExamRepository interface {
	repositories.CrudRepository[models.Exam, int64]
	FindByName(ctx context.Context, text string) ([]models.Exam, error)
	SearchByNamePage(ctx context.Context, text string, req models.PageRequest) ([]models.Exam, int64, error)
	FindAllSubjects(ctx context.Context) ([]models.Subject, error)
	FindSubjectByID(ctx context.Context, id int64) (*models.Subject, error)
	FindExamIDsByQuestionIDs(ctx context.Context, questionIDs []int64) ([]int64, error)
}

// ExamService defines the operations of exam-service
type ExamService interface {
	Crud[models.Exam, int64]
	UpdateExam(ctx context.Context, id int64, input *models.Exam) (*models.Exam, error)
	FindByName(ctx context.Context, text string) ([]models.Exam, error)
	SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Exam], error)
	FindAllSubjects(ctx context.Context) ([]models.Subject, error)
	FindExamIDsByQuestionIDs(ctx context.Context, questionIDs []int64) ([]int64, error)
}

type examServiceImpl struct {
	*CrudService[models.Exam, int64]
	repo ExamRepository
}

// NewExamService creates a new exam service instance
func NewExamService(repo ExamRepository) ExamService {
	return &examServiceImpl{
		CrudService: NewCrudService[models.Exam, int64](repo, "exam"),
		repo:        repo,
	}
}

// Save checks the referenced subject before persisting.
func (s *examServiceImpl) Save(ctx context.Context, exam *models.Exam) (*models.Exam, error) {
	if exam == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	if err := validation.Struct(exam); err != nil {
		return nil, err
	}
	if exam.SubjectFather != nil {
		subject, err := s.repo.FindSubjectByID(ctx, exam.SubjectFather.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, apperrors.NewValidationError(apperrors.FieldError{
					Field:   "subjectFather.id",
					Message: fmt.Sprintf("subject %d does not exist", exam.SubjectFather.ID),
				})
			}
			return nil, fmt.Errorf("error checking subject: %w", err)
		}
		exam.SubjectFather = subject
	}
	return s.CrudService.Save(ctx, exam)
}

func (s *examServiceImpl) Update(ctx context.Context, exam *models.Exam) (*models.Exam, error) {
	return s.Save(ctx, exam)
}

// UpdateExam replaces name, subject and questions of an existing exam.
// Stored questions missing from input are deleted.
func (s *examServiceImpl) UpdateExam(ctx context.Context, id int64, input *models.Exam) (*models.Exam, error) {
	if input == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	if _, err := s.CrudService.FindByID(ctx, id); err != nil {
		return nil, err
	}
	exam := &models.Exam{
		ID:            id,
		Name:          input.Name,
		SubjectFather: input.SubjectFather,
		Questions:     input.Questions,
	}
	if exam.Questions == nil {
		exam.Questions = []models.Question{}
	}
	return s.Save(ctx, exam)
}

// FindByName lists exams whose name contains text, ignoring case.
func (s *examServiceImpl) FindByName(ctx context.Context, text string) ([]models.Exam, error) {
	exams, err := s.repo.FindByName(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error filtering exams: %w", err)
	}
	return exams, nil
}

func (s *examServiceImpl) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Exam], error) {
	return searchPage(ctx, "exam", page, size, func(ctx context.Context, req models.PageRequest) ([]models.Exam, int64, error) {
		return s.repo.SearchByNamePage(ctx, text, req)
	})
}

func (s *examServiceImpl) FindAllSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.FindAllSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	return subjects, nil
}

// FindExamIDsByQuestionIDs returns the exams owning any of the questions.
func (s *examServiceImpl) FindExamIDsByQuestionIDs(ctx context.Context, questionIDs []int64) ([]int64, error) {
	if len(questionIDs) == 0 {
		return []int64{}, nil
	}
	ids, err := s.repo.FindExamIDsByQuestionIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("error resolving exams by questions: %w", err)
	}
	return ids, nil
}
