package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// AnswerController handles answer-related operations
type AnswerController struct {
	*CrudController[models.Answer, string]
	answerService services.AnswerService
}

// NewAnswerController creates a new AnswerController
func NewAnswerController(answerService services.AnswerService) *AnswerController {
	return &AnswerController{
		CrudController: NewCrudController[models.Answer, string](answerService, StringID),
		answerService:  answerService,
	}
}

// CreateAll stores a batch of answers. POST /answers takes and returns an array.
func (h *AnswerController) CreateAll(ctx *gin.Context) {
	var answers []models.Answer
	if !middleware.BindJSON(ctx, &answers) {
		return
	}

	saved, err := h.answerService.SaveAll(ctx.Request.Context(), answers)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, saved)
}

// UpdateText replaces the text of one answer.
func (h *AnswerController) UpdateText(ctx *gin.Context) {
	id, err := StringID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateAnswerRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	answer, err := h.answerService.UpdateText(ctx.Request.Context(), id, req.Text)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, answer)
}

// FindByStudentAndExam lists one student's answers to one exam.
func (h *AnswerController) FindByStudentAndExam(ctx *gin.Context) {
	studentID, err := helpers.ParseInt64Param(ctx, "sid")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	examID, err := helpers.ParseInt64Param(ctx, "eid")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	answers, err := h.answerService.FindByStudentAndExam(ctx.Request.Context(), studentID, examID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, answers)
}

// FindByStudent lists every answer of a student.
func (h *AnswerController) FindByStudent(ctx *gin.Context) {
	studentID, err := helpers.ParseInt64Param(ctx, "sid")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	answers, err := h.answerService.FindByStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, answers)
}

// FindExamsReplied returns the ids of the exams a student has answered.
func (h *AnswerController) FindExamsReplied(ctx *gin.Context) {
	studentID, err := helpers.ParseInt64Param(ctx, "sid")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ids, err := h.answerService.FindExamIDsAnsweredByStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ids)
}

// Register mounts the answer routes. POST takes an array here.
func (h *AnswerController) Register(group *gin.RouterGroup) {
	group.GET("", h.FindAll)
	group.GET("/:id", h.FindByID)
	group.POST("", h.CreateAll)
	group.PUT("/:id", h.UpdateText)
	group.DELETE("/:id", h.Delete)
	group.GET("/page/:page/:size", h.FindAllPage)
	group.GET("/student/:sid", h.FindByStudent)
	group.GET("/student/:sid/exam/:eid", h.FindByStudentAndExam)
	group.GET("/student/:sid/exams-replied", h.FindExamsReplied)
}
