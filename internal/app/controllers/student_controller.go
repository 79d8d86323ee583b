package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/filestorage"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

const imageFormField = "file"

// StudentController handles student-related operations
type StudentController struct {
	*CrudController[models.Student, int64]
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		CrudController: NewCrudController[models.Student, int64](studentService, Int64ID),
		studentService: studentService,
	}
}

// FindByIDs serves GET /students/students-by-course?ids=...
// Unknown ids are skipped.
func (h *StudentController) FindByIDs(ctx *gin.Context) {
	ids, err := helpers.ParseInt64List(ctx, "ids")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	students, err := h.studentService.FindAllByIDs(ctx.Request.Context(), ids)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, students)
}

// FindByFullName lists students whose "name lastName" contains :text.
func (h *StudentController) FindByFullName(ctx *gin.Context) {
	students, err := h.studentService.FindByFullName(ctx.Request.Context(), ctx.Param("text"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, students)
}

// SearchPage is the paginated form of FindByFullName.
func (h *StudentController) SearchPage(ctx *gin.Context) {
	page, size, err := helpers.ParsePagePathParams(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := h.studentService.SearchPage(ctx.Request.Context(), ctx.Param("text"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// UpdateStudent updates the text fields and keeps any stored image.
func (h *StudentController) UpdateStudent(ctx *gin.Context) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var input models.Student
	if !middleware.BindJSON(ctx, &input) {
		return
	}

	student, err := h.studentService.UpdateStudent(ctx.Request.Context(), id, &input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}

// CreateWithImage creates a student from a multipart form carrying an image.
func (h *StudentController) CreateWithImage(ctx *gin.Context) {
	var input models.Student
	if !middleware.BindForm(ctx, &input) {
		return
	}

	file, err := openImageUpload(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	student, err := h.studentService.CreateWithImage(ctx.Request.Context(), &input, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}

// UpdateWithImage updates a student and replaces its image.
func (h *StudentController) UpdateWithImage(ctx *gin.Context) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var input models.Student
	if !middleware.BindForm(ctx, &input) {
		return
	}

	file, err := openImageUpload(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	student, err := h.studentService.UpdateWithImage(ctx.Request.Context(), id, &input, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}

// GetImage serves the stored JPEG.
func (h *StudentController) GetImage(ctx *gin.Context) {
	id, err := Int64ID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	image, err := h.studentService.FindImage(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "image/jpeg", image)
}

func openImageUpload(ctx *gin.Context) (multipart.File, error) {
	fileHeader, err := ctx.FormFile(imageFormField)
	if err != nil {
		// missing part or a body that is not multipart
		fileHeader = nil
	}
	return filestorage.OpenUpload(fileHeader)
}

// Register mounts the shared routes plus the student specific ones.
func (h *StudentController) Register(group *gin.RouterGroup) {
	h.CrudController.Register(group)
	group.GET("/students-by-course", h.FindByIDs)
	group.GET("/filter/:text", h.FindByFullName)
	group.GET("/page/:page/:size/:text", h.SearchPage)
	group.GET("/:id/uploads/image", h.GetImage)
	group.PUT("/:id/update", h.UpdateStudent)
	group.PUT("/:id/update-with-image", h.UpdateWithImage)
	group.POST("/create-with-image", h.CreateWithImage)
}
