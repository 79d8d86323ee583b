package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// AnswerRepository is the storage answer-service needs.
type AnswerRepository interface {
	repositories.CrudRepository[models.Answer, string]
	SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error)
	FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error)
	FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error)
	FindExamIDsByStudent(ctx context.Context, studentID int64) ([]int64, error)
}

// AnswerService defines the operations of answer-service
type AnswerService interface {
	Crud[models.Answer, string]
	SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error)
	UpdateText(ctx context.Context, id, text string) (*models.Answer, error)
	FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error)
	FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error)
	FindExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error)
}

type answerServiceImpl struct {
	*CrudService[models.Answer, string]
	repo AnswerRepository
}

// NewAnswerService creates a new answer service instance
func NewAnswerService(repo AnswerRepository) AnswerService {
	return &answerServiceImpl{
		CrudService: NewCrudService[models.Answer, string](repo, "answer"),
		repo:        repo,
	}
}

// SaveAll validates every answer before inserting any of them.
func (s *answerServiceImpl) SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	var fields []apperrors.FieldError
	for i := range answers {
		answers[i].ID = ""
		if err := validation.Struct(&answers[i]); err != nil {
			var ve *apperrors.ValidationError
			if errors.As(err, &ve) {
				for _, f := range ve.Fields {
					fields = append(fields, apperrors.FieldError{
						Field:   fmt.Sprintf("[%d].%s", i, f.Field),
						Message: f.Message,
					})
				}
				continue
			}
			return nil, err
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields...)
	}

	saved, err := s.repo.SaveAll(ctx, answers)
	if err != nil {
		return nil, fmt.Errorf("error saving answers: %w", err)
	}
	logger.Info().Int("count", len(saved)).Msg("Answers stored")
	return saved, nil
}

// UpdateText replaces the text of an existing answer; nothing else changes.
func (s *answerServiceImpl) UpdateText(ctx context.Context, id, text string) (*models.Answer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "text", Message: "must not be empty"})
	}
	answer, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	answer.Text = text
	return s.Save(ctx, answer)
}

// DeleteByID reports a missing answer as not found.
func (s *answerServiceImpl) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.CrudService.DeleteByID(ctx, id)
}

func (s *answerServiceImpl) FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error) {
	answers, err := s.repo.FindByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving answers of student %d for exam %d: %w", studentID, examID, err)
	}
	return answers, nil
}

func (s *answerServiceImpl) FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error) {
	answers, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving answers of student %d: %w", studentID, err)
	}
	return answers, nil
}

// FindExamIDsAnsweredByStudent lists, ascending and without duplicates, the
// exams in which the student recorded at least one answer.
func (s *answerServiceImpl) FindExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	ids, err := s.repo.FindExamIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving answered exams of student %d: %w", studentID, err)
	}
	return ids, nil
}
