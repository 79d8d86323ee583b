package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/controllers"
	"github.com/yigit/classroom/internal/app/models/dto"
)

// Controllers holds the controllers of the running service. Nil entries are
// not mounted, so each binary only serves its own resource.
type Controllers struct {
	Answer  *controllers.AnswerController
	Course  *controllers.CourseController
	Exam    *controllers.ExamController
	Student *controllers.StudentController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "pong"})
	})

	if c.Answer != nil {
		c.Answer.Register(router.Group("/answers"))
	}
	if c.Course != nil {
		c.Course.Register(router.Group("/courses"))
	}
	if c.Exam != nil {
		c.Exam.Register(router.Group("/exams"))
	}
	if c.Student != nil {
		c.Student.Register(router.Group("/students"))
	}
}
