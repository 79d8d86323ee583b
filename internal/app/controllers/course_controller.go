package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// CourseController handles course-related operations
type CourseController struct {
	*CrudController[models.Course, int64]
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{
		CrudController: NewCrudController[models.Course, int64](courseService, Int64ID),
		courseService:  courseService,
	}
}

// UpdateCourse replaces name and description.
func (h *CourseController) UpdateCourse(ctx *gin.Context) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var input models.Course
	if !middleware.BindJSON(ctx, &input) {
		return
	}

	course, err := h.courseService.UpdateCourse(ctx.Request.Context(), id, &input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, course)
}

// AssignStudents adds the students in the body to the course.
func (h *CourseController) AssignStudents(ctx *gin.Context) {
	h.withStudents(ctx, h.courseService.AssignStudents, http.StatusCreated)
}

// RemoveStudents drops the students in the body and returns the course.
func (h *CourseController) RemoveStudents(ctx *gin.Context) {
	h.withStudents(ctx, h.courseService.RemoveStudents, http.StatusCreated)
}

// DeleteStudents drops the students in the body and answers 204.
func (h *CourseController) DeleteStudents(ctx *gin.Context) {
	h.withStudents(ctx, h.courseService.RemoveStudents, http.StatusNoContent)
}

// AssignExams links the exams in the body to the course.
func (h *CourseController) AssignExams(ctx *gin.Context) {
	h.withExams(ctx, h.courseService.AssignExams)
}

// RemoveExams unlinks the exams in the body from the course.
func (h *CourseController) RemoveExams(ctx *gin.Context) {
	h.withExams(ctx, h.courseService.RemoveExams)
}

type courseStudentsFn func(ctx context.Context, id int64, students []models.Student) (*models.Course, error)

type courseExamsFn func(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error)

func (h *CourseController) withStudents(ctx *gin.Context, fn courseStudentsFn, status int) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var students []models.Student
	if !middleware.BindJSON(ctx, &students) {
		return
	}

	course, err := fn(ctx.Request.Context(), id, students)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if status == http.StatusNoContent {
		ctx.Status(status)
		return
	}
	ctx.JSON(status, course)
}

func (h *CourseController) withExams(ctx *gin.Context, fn courseExamsFn) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var exams []models.Exam
	if !middleware.BindJSON(ctx, &exams) {
		return
	}

	course, err := fn(ctx.Request.Context(), id, exams)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, course)
}

// SearchPage matches text against name or description.
func (h *CourseController) SearchPage(ctx *gin.Context) {
	page, size, err := helpers.ParsePagePathParams(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := h.courseService.SearchPage(ctx.Request.Context(), ctx.Param("text"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// FindAllPageWithStudents returns a page with full student rosters.
func (h *CourseController) FindAllPageWithStudents(ctx *gin.Context) {
	page, size, err := helpers.ParsePagePathParams(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := h.courseService.FindAllPageWithStudents(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// FindByStudent returns the student's course with answered exams flagged.
func (h *CourseController) FindByStudent(ctx *gin.Context) {
	studentID, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	course, err := h.courseService.FindByStudentID(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, course)
}

// RemoveStudentFromAllCourses is called by student-service after a student
// is deleted. It answers 204 even when the student had no course.
func (h *CourseController) RemoveStudentFromAllCourses(ctx *gin.Context) {
	studentID, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := h.courseService.RemoveStudentFromAllCourses(ctx.Request.Context(), studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Register mounts the shared routes plus the course specific ones.
func (h *CourseController) Register(group *gin.RouterGroup) {
	h.CrudController.Register(group)
	group.GET("/page/:page/:size/with-students", h.FindAllPageWithStudents)
	group.GET("/page/:page/:size/:text", h.SearchPage)
	group.GET("/student/:id", h.FindByStudent)
	group.PUT("/:id/course", h.UpdateCourse)
	group.PUT("/:id/assign-student", h.AssignStudents)
	group.PUT("/:id/delete-student", h.RemoveStudents)
	group.DELETE("/:id/delete-student", h.DeleteStudents)
	group.PUT("/:id/assign-exam", h.AssignExams)
	group.PUT("/:id/delete-exam", h.RemoveExams)
	group.DELETE("/delete-student/:id", h.RemoveStudentFromAllCourses)
}
