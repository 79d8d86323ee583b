package services

import (
	"context"
	"fmt"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// CourseRepository is the storage course-service needs.
type CourseRepository interface {
	repositories.CrudRepository[models.Course, int64]
	FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error)
	SearchByNameOrDescription(ctx context.Context, text string, req models.PageRequest) ([]models.Course, int64, error)
	DeleteCourseStudentsByStudentID(ctx context.Context, studentID int64) (int64, error)
	UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Course, error)
	AddCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error)
	RemoveCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error)
	AddCourseExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)
	RemoveCourseExams(ctx context.Context, id int64, examIDs []int64) (*models.Course, error)
}

// StudentDirectory resolves student ids to full records.
type StudentDirectory interface {
	GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error)
}

// AnswerDirectory reports which exams a student has answered.
type AnswerDirectory interface {
	GetExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error)
}

// CourseService defines the operations of course-service
type CourseService interface {
	Crud[models.Course, int64]
	UpdateCourse(ctx context.Context, id int64, input *models.Course) (*models.Course, error)
	AssignStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error)
	RemoveStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error)
	AssignExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)
	RemoveExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)
	SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Course], error)
	FindAllPageWithStudents(ctx context.Context, page, size int) (*models.Page[models.Course], error)
	FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error)
	RemoveStudentFromAllCourses(ctx context.Context, studentID int64) error
}

type courseServiceImpl struct {
	*CrudService[models.Course, int64]
	repo     CourseRepository
	students StudentDirectory
	answers  AnswerDirectory
}

// NewCourseService creates a new course service instance
func NewCourseService(repo CourseRepository, students StudentDirectory, answers AnswerDirectory) CourseService {
	return &courseServiceImpl{
		CrudService: NewCrudService[models.Course, int64](repo, "course"),
		repo:        repo,
		students:    students,
		answers:     answers,
	}
}

// FindByID returns the course with its roster resolved by student-service.
func (s *courseServiceImpl) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.CrudService.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveRosters(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// SearchPage pages through courses whose name or description contains text.
func (s *courseServiceImpl) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Course], error) {
	return searchPage(ctx, "course", page, size, func(ctx context.Context, req models.PageRequest) ([]models.Course, int64, error) {
		return s.repo.SearchByNameOrDescription(ctx, text, req)
	})
}

// FindAllPageWithStudents resolves the rosters of a whole page with one
// student-service call.
func (s *courseServiceImpl) FindAllPageWithStudents(ctx context.Context, page, size int) (*models.Page[models.Course], error) {
	p, err := s.CrudService.FindAllPage(ctx, page, size)
	if err != nil {
		return nil, err
	}
	courses := make([]*models.Course, 0, len(p.Content))
	for i := range p.Content {
		courses = append(courses, &p.Content[i])
	}
	if err := s.resolveRosters(ctx, courses); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveRosters fetches every referenced student in a single call and
// fills each roster in association order. Ids unknown to student-service
// are left out.
func (s *courseServiceImpl) resolveRosters(ctx context.Context, courses []*models.Course) error {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, c := range courses {
		for _, id := range c.StudentIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[int64]models.Student, len(ids))
	if len(ids) > 0 {
		students, err := s.students.GetStudentsByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("error resolving course students: %w", err)
		}
		for _, st := range students {
			byID[st.ID] = st
		}
	}

	for _, c := range courses {
		c.Students = make([]models.Student, 0, len(c.CourseStudents))
		for _, id := range c.StudentIDs() {
			if st, ok := byID[id]; ok {
				c.Students = append(c.Students, st)
			}
		}
	}
	return nil
}

// UpdateCourse replaces name and description and keeps associations.
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id int64, input *models.Course) (*models.Course, error) {
	if input == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: "must not be empty"})
	}
	details := models.Course{ID: id, Name: input.Name, Description: input.Description}
	if err := validation.Struct(&details); err != nil {
		return nil, err
	}
	course, err := s.repo.UpdateDetails(ctx, id, details.Name, details.Description)
	return s.applyChange(id, course, err)
}

// AssignStudents adds the students that are not yet associated. Only the
// listed rows are written, so concurrent changes to other students survive.
func (s *courseServiceImpl) AssignStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error) {
	ids, err := studentIDs(students)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.AddCourseStudents(ctx, id, ids)
	return s.applyChange(id, course, err)
}

// RemoveStudents drops the listed students from the course.
func (s *courseServiceImpl) RemoveStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error) {
	ids, err := studentIDs(students)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.RemoveCourseStudents(ctx, id, ids)
	return s.applyChange(id, course, err)
}

// AssignExams links the exams that are not yet linked.
func (s *courseServiceImpl) AssignExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	if err := requirePositiveIDs(len(exams), func(i int) int64 { return exams[i].ID }); err != nil {
		return nil, err
	}
	unique := make([]models.Exam, 0, len(exams))
	seen := map[int64]struct{}{}
	for _, e := range exams {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		unique = append(unique, models.Exam{ID: e.ID, Name: e.Name})
	}
	course, err := s.repo.AddCourseExams(ctx, id, unique)
	return s.applyChange(id, course, err)
}

// RemoveExams unlinks the listed exams.
func (s *courseServiceImpl) RemoveExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	if err := requirePositiveIDs(len(exams), func(i int) int64 { return exams[i].ID }); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(exams))
	for _, e := range exams {
		ids = append(ids, e.ID)
	}
	course, err := s.repo.RemoveCourseExams(ctx, id, uniqueIDs(ids))
	return s.applyChange(id, course, err)
}

func (s *courseServiceImpl) applyChange(id int64, course *models.Course, err error) (*models.Course, error) {
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating course %d: %w", id, err)
	}
	return course, nil
}

// FindByStudentID returns the student's course with each exam flagged as
// replied when answer-service holds an answer of the student for it.
func (s *courseServiceImpl) FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error) {
	course, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving course of student %d: %w", studentID, err)
	}

	answered, err := s.answers.GetExamIDsAnsweredByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error resolving answered exams: %w", err)
	}
	course.MarkRepliedExams(answered)
	return course, nil
}

// RemoveStudentFromAllCourses drops every association of the student.
// Running it again for the same student is a no-op.
func (s *courseServiceImpl) RemoveStudentFromAllCourses(ctx context.Context, studentID int64) error {
	removed, err := s.repo.DeleteCourseStudentsByStudentID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("error removing student %d from courses: %w", studentID, err)
	}
	logger.Info().Int64("studentID", studentID).Int64("removed", removed).Msg("Student removed from courses")
	return nil
}

func studentIDs(students []models.Student) ([]int64, error) {
	if err := requirePositiveIDs(len(students), func(i int) int64 { return students[i].ID }); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return uniqueIDs(ids), nil
}

// uniqueIDs keeps the first occurrence of every id.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requirePositiveIDs(n int, idAt func(int) int64) error {
	var fields []apperrors.FieldError
	for i := 0; i < n; i++ {
		if idAt(i) <= 0 {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("[%d].id", i),
				Message: "must be greater than 0",
			})
		}
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields...)
	}
	return nil
}
