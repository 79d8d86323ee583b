package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// ExamController handles exam-related operations
type ExamController struct {
	*CrudController[models.Exam, int64]
	examService services.ExamService
}

// NewExamController creates a new ExamController
func NewExamController(examService services.ExamService) *ExamController {
	return &ExamController{
		CrudController: NewCrudController[models.Exam, int64](examService, Int64ID),
		examService:    examService,
	}
}

// UpdateExam replaces name, subject and questions of an exam.
func (h *ExamController) UpdateExam(ctx *gin.Context) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var input models.Exam
	if !middleware.BindJSON(ctx, &input) {
		return
	}

	exam, err := h.examService.UpdateExam(ctx.Request.Context(), id, &input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, exam)
}

// FindByName lists exams whose name contains :text.
func (h *ExamController) FindByName(ctx *gin.Context) {
	exams, err := h.examService.FindByName(ctx.Request.Context(), ctx.Param("text"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// SearchPage is the paginated form of FindByName.
func (h *ExamController) SearchPage(ctx *gin.Context) {
	page, size, err := helpers.ParsePagePathParams(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := h.examService.SearchPage(ctx.Request.Context(), ctx.Param("text"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// FindAllSubjects lists every subject.
func (h *ExamController) FindAllSubjects(ctx *gin.Context) {
	subjects, err := h.examService.FindAllSubjects(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, subjects)
}

// FindExamIDsByQuestionIDs resolves ?questionIds= to the owning exam ids.
func (h *ExamController) FindExamIDsByQuestionIDs(ctx *gin.Context) {
	questionIDs, err := helpers.ParseInt64List(ctx, "questionIds")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ids, err := h.examService.FindExamIDsByQuestionIDs(ctx.Request.Context(), questionIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ids)
}

// Register mounts the shared routes plus the exam specific ones.
func (h *ExamController) Register(group *gin.RouterGroup) {
	h.CrudController.Register(group)
	group.GET("/page/:page/:size/:text", h.SearchPage)
	group.GET("/filter/:text", h.FindByName)
	group.GET("/subjects", h.FindAllSubjects)
	group.GET("/answered-by-exam", h.FindExamIDsByQuestionIDs)
	group.PUT("/:id/exam", h.UpdateExam)
}
