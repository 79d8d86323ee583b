package services

import (
	"context"
	"fmt"
	"io"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/filestorage"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// StudentRepository is the storage student-service needs.
type StudentRepository interface {
	repositories.CrudRepository[models.Student, int64]
	FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error)
	SearchByFullName(ctx context.Context, text string) ([]models.Student, error)
	SearchByFullNamePage(ctx context.Context, text string, req models.PageRequest) ([]models.Student, int64, error)
	FindImage(ctx context.Context, id int64) ([]byte, error)
	DeleteWithOutbox(ctx context.Context, id int64) (*models.StudentDeletion, error)
}

// StudentService defines the operations of student-service
type StudentService interface {
	Crud[models.Student, int64]
	FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error)
	FindByFullName(ctx context.Context, text string) ([]models.Student, error)
	SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Student], error)
	UpdateStudent(ctx context.Context, id int64, input *models.Student) (*models.Student, error)
	CreateWithImage(ctx context.Context, input *models.Student, image io.Reader) (*models.Student, error)
	UpdateWithImage(ctx context.Context, id int64, input *models.Student, image io.Reader) (*models.Student, error)
	FindImage(ctx context.Context, id int64) ([]byte, error)
}

type studentServiceImpl struct {
	*CrudService[models.Student, int64]
	repo  StudentRepository
	relay *CascadeRelay
}

// NewStudentService creates a new student service instance. Deletions are
// handed to relay for delivery to course-service.
func NewStudentService(repo StudentRepository, relay *CascadeRelay) StudentService {
	return &studentServiceImpl{
		CrudService: NewCrudService[models.Student, int64](repo, "student"),
		repo:        repo,
		relay:       relay,
	}
}

// FindAllByIDs returns the known students among ids.
func (s *studentServiceImpl) FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	students, err := s.repo.FindAllByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students by ids: %w", err)
	}
	return students, nil
}

// FindByFullName matches text against "name lastName", ignoring case.
func (s *studentServiceImpl) FindByFullName(ctx context.Context, text string) ([]models.Student, error) {
	students, err := s.repo.SearchByFullName(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error filtering students: %w", err)
	}
	return students, nil
}

func (s *studentServiceImpl) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Student], error) {
	return searchPage(ctx, "student", page, size, func(ctx context.Context, req models.PageRequest) ([]models.Student, int64, error) {
		return s.repo.SearchByFullNamePage(ctx, text, req)
	})
}

// UpdateStudent replaces name, last name and email. The image is kept.
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, id int64, input *models.Student) (*models.Student, error) {
	return s.update(ctx, id, input, nil)
}

// CreateWithImage stores a new student together with a normalised picture.
func (s *studentServiceImpl) CreateWithImage(ctx context.Context, input *models.Student, image io.Reader) (*models.Student, error) {
	if input == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	data, err := filestorage.NormalizeImage(image)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		Name:     input.Name,
		LastName: input.LastName,
		Email:    input.Email,
		Image:    data,
	}
	return s.Save(ctx, student)
}

// UpdateWithImage is UpdateStudent that also replaces the picture.
func (s *studentServiceImpl) UpdateWithImage(ctx context.Context, id int64, input *models.Student, image io.Reader) (*models.Student, error) {
	data, err := filestorage.NormalizeImage(image)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, input, data)
}

func (s *studentServiceImpl) update(ctx context.Context, id int64, input *models.Student, image []byte) (*models.Student, error) {
	if input == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	student, err := s.CrudService.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	student.Name = input.Name
	student.LastName = input.LastName
	student.Email = input.Email
	student.Image = image
	return s.Save(ctx, student)
}

// FindImage returns the stored JPEG of a student.
func (s *studentServiceImpl) FindImage(ctx context.Context, id int64) ([]byte, error) {
	image, err := s.repo.FindImage(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving image of student %d: %w", id, err)
	}
	return image, nil
}

// DeleteByID removes the student and queues the course cascade in the same
// transaction. Delivery is attempted right away; a failed attempt stays
// queued for the relay and does not fail the request.
func (s *studentServiceImpl) DeleteByID(ctx context.Context, id int64) error {
	event, err := s.repo.DeleteWithOutbox(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting student %d: %w", id, err)
	}
	if event == nil {
		return nil
	}
	logger.Info().Int64("studentID", id).Int64("eventID", event.ID).Msg("Student deleted, cascade queued")
	if s.relay != nil {
		s.relay.Deliver(ctx, *event)
	}
	return nil
}
