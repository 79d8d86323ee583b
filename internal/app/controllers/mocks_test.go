package controllers

import (
	"context"
	"errors"
	"io"

	"github.com/yigit/classroom/internal/app/models"
)

var errNotImplemented = errors.New("not implemented")

type mockCrud[T any, ID comparable] struct {
	FindAllFn     func(ctx context.Context) ([]T, error)
	FindByIDFn    func(ctx context.Context, id ID) (*T, error)
	SaveFn        func(ctx context.Context, entity *T) (*T, error)
	DeleteByIDFn  func(ctx context.Context, id ID) error
	FindAllPageFn func(ctx context.Context, page, size int) (*models.Page[T], error)
}

func (m *mockCrud[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	if m.FindAllFn == nil {
		return nil, errNotImplemented
	}
	return m.FindAllFn(ctx)
}

func (m *mockCrud[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	if m.FindByIDFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByIDFn(ctx, id)
}

func (m *mockCrud[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if m.SaveFn == nil {
		return nil, errNotImplemented
	}
	return m.SaveFn(ctx, entity)
}

func (m *mockCrud[T, ID]) Update(ctx context.Context, entity *T) (*T, error) {
	return m.Save(ctx, entity)
}

func (m *mockCrud[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	if m.DeleteByIDFn == nil {
		return errNotImplemented
	}
	return m.DeleteByIDFn(ctx, id)
}

func (m *mockCrud[T, ID]) FindAllPage(ctx context.Context, page, size int) (*models.Page[T], error) {
	if m.FindAllPageFn == nil {
		return nil, errNotImplemented
	}
	return m.FindAllPageFn(ctx, page, size)
}

type mockAnswerService struct {
	mockCrud[models.Answer, string]
	SaveAllFn              func(ctx context.Context, answers []models.Answer) ([]models.Answer, error)
	UpdateTextFn           func(ctx context.Context, id, text string) (*models.Answer, error)
	FindByStudentAndExamFn func(ctx context.Context, studentID, examID int64) ([]models.Answer, error)
	FindByStudentFn        func(ctx context.Context, studentID int64) ([]models.Answer, error)
	FindExamIDsFn          func(ctx context.Context, studentID int64) ([]int64, error)
}

func (m *mockAnswerService) SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	if m.SaveAllFn == nil {
		return nil, errNotImplemented
	}
	return m.SaveAllFn(ctx, answers)
}

func (m *mockAnswerService) UpdateText(ctx context.Context, id, text string) (*models.Answer, error) {
	if m.UpdateTextFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateTextFn(ctx, id, text)
}

func (m *mockAnswerService) FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error) {
	if m.FindByStudentAndExamFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByStudentAndExamFn(ctx, studentID, examID)
}

func (m *mockAnswerService) FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error) {
	if m.FindByStudentFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByStudentFn(ctx, studentID)
}

func (m *mockAnswerService) FindExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	if m.FindExamIDsFn == nil {
		return nil, errNotImplemented
	}
	return m.FindExamIDsFn(ctx, studentID)
}

type mockCourseService struct {
	mockCrud[models.Course, int64]
	UpdateCourseFn            func(ctx context.Context, id int64, input *models.Course) (*models.Course, error)
	AssignStudentsFn          func(ctx context.Context, id int64, students []models.Student) (*models.Course, error)
	RemoveStudentsFn          func(ctx context.Context, id int64, students []models.Student) (*models.Course, error)
	AssignExamsFn             func(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)
	RemoveExamsFn             func(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)
	SearchPageFn              func(ctx context.Context, text string, page, size int) (*models.Page[models.Course], error)
	FindAllPageWithStudentsFn func(ctx context.Context, page, size int) (*models.Page[models.Course], error)
	FindByStudentIDFn         func(ctx context.Context, studentID int64) (*models.Course, error)
	RemoveStudentFn           func(ctx context.Context, studentID int64) error
}

func (m *mockCourseService) UpdateCourse(ctx context.Context, id int64, input *models.Course) (*models.Course, error) {
	if m.UpdateCourseFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateCourseFn(ctx, id, input)
}

func (m *mockCourseService) AssignStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error) {
	if m.AssignStudentsFn == nil {
		return nil, errNotImplemented
	}
	return m.AssignStudentsFn(ctx, id, students)
}

func (m *mockCourseService) RemoveStudents(ctx context.Context, id int64, students []models.Student) (*models.Course, error) {
	if m.RemoveStudentsFn == nil {
		return nil, errNotImplemented
	}
	return m.RemoveStudentsFn(ctx, id, students)
}

func (m *mockCourseService) AssignExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	if m.AssignExamsFn == nil {
		return nil, errNotImplemented
	}
	return m.AssignExamsFn(ctx, id, exams)
}

func (m *mockCourseService) RemoveExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	if m.RemoveExamsFn == nil {
		return nil, errNotImplemented
	}
	return m.RemoveExamsFn(ctx, id, exams)
}

func (m *mockCourseService) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Course], error) {
	if m.SearchPageFn == nil {
		return nil, errNotImplemented
	}
	return m.SearchPageFn(ctx, text, page, size)
}

func (m *mockCourseService) FindAllPageWithStudents(ctx context.Context, page, size int) (*models.Page[models.Course], error) {
	if m.FindAllPageWithStudentsFn == nil {
		return nil, errNotImplemented
	}
	return m.FindAllPageWithStudentsFn(ctx, page, size)
}

func (m *mockCourseService) FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error) {
	if m.FindByStudentIDFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByStudentIDFn(ctx, studentID)
}

func (m *mockCourseService) RemoveStudentFromAllCourses(ctx context.Context, studentID int64) error {
	if m.RemoveStudentFn == nil {
		return errNotImplemented
	}
	return m.RemoveStudentFn(ctx, studentID)
}

type mockExamService struct {
	mockCrud[models.Exam, int64]
	UpdateExamFn      func(ctx context.Context, id int64, input *models.Exam) (*models.Exam, error)
	FindByNameFn      func(ctx context.Context, text string) ([]models.Exam, error)
	SearchPageFn      func(ctx context.Context, text string, page, size int) (*models.Page[models.Exam], error)
	FindAllSubjectsFn func(ctx context.Context) ([]models.Subject, error)
	FindExamIDsFn     func(ctx context.Context, questionIDs []int64) ([]int64, error)
}

func (m *mockExamService) UpdateExam(ctx context.Context, id int64, input *models.Exam) (*models.Exam, error) {
	if m.UpdateExamFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateExamFn(ctx, id, input)
}

func (m *mockExamService) FindByName(ctx context.Context, text string) ([]models.Exam, error) {
	if m.FindByNameFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByNameFn(ctx, text)
}

func (m *mockExamService) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Exam], error) {
	if m.SearchPageFn == nil {
		return nil, errNotImplemented
	}
	return m.SearchPageFn(ctx, text, page, size)
}

func (m *mockExamService) FindAllSubjects(ctx context.Context) ([]models.Subject, error) {
	if m.FindAllSubjectsFn == nil {
		return nil, errNotImplemented
	}
	return m.FindAllSubjectsFn(ctx)
}

func (m *mockExamService) FindExamIDsByQuestionIDs(ctx context.Context, questionIDs []int64) ([]int64, error) {
	if m.FindExamIDsFn == nil {
		return nil, errNotImplemented
	}
	return m.FindExamIDsFn(ctx, questionIDs)
}

type mockStudentService struct {
	mockCrud[models.Student, int64]
	FindAllByIDsFn    func(ctx context.Context, ids []int64) ([]models.Student, error)
	FindByFullNameFn  func(ctx context.Context, text string) ([]models.Student, error)
	SearchPageFn      func(ctx context.Context, text string, page, size int) (*models.Page[models.Student], error)
	UpdateStudentFn   func(ctx context.Context, id int64, input *models.Student) (*models.Student, error)
	CreateWithImageFn func(ctx context.Context, input *models.Student, image io.Reader) (*models.Student, error)
	UpdateWithImageFn func(ctx context.Context, id int64, input *models.Student, image io.Reader) (*models.Student, error)
	FindImageFn       func(ctx context.Context, id int64) ([]byte, error)
}

func (m *mockStudentService) FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	if m.FindAllByIDsFn == nil {
		return nil, errNotImplemented
	}
	return m.FindAllByIDsFn(ctx, ids)
}

func (m *mockStudentService) FindByFullName(ctx context.Context, text string) ([]models.Student, error) {
	if m.FindByFullNameFn == nil {
		return nil, errNotImplemented
	}
	return m.FindByFullNameFn(ctx, text)
}

func (m *mockStudentService) SearchPage(ctx context.Context, text string, page, size int) (*models.Page[models.Student], error) {
	if m.SearchPageFn == nil {
		return nil, errNotImplemented
	}
	return m.SearchPageFn(ctx, text, page, size)
}

func (m *mockStudentService) UpdateStudent(ctx context.Context, id int64, input *models.Student) (*models.Student, error) {
	if m.UpdateStudentFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateStudentFn(ctx, id, input)
}

func (m *mockStudentService) CreateWithImage(ctx context.Context, input *models.Student, image io.Reader) (*models.Student, error) {
	if m.CreateWithImageFn == nil {
		return nil, errNotImplemented
	}
	return m.CreateWithImageFn(ctx, input, image)
}

func (m *mockStudentService) UpdateWithImage(ctx context.Context, id int64, input *models.Student, image io.Reader) (*models.Student, error) {
	if m.UpdateWithImageFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateWithImageFn(ctx, id, input, image)
}

func (m *mockStudentService) FindImage(ctx context.Context, id int64) ([]byte, error) {
	if m.FindImageFn == nil {
		return nil, errNotImplemented
	}
	return m.FindImageFn(ctx, id)
}
