package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// IDParser reads the :id path parameter of a resource.
type IDParser[ID comparable] func(c *gin.Context) (ID, error)

// Int64ID parses numeric ids used by the relational services.
func Int64ID(c *gin.Context) (int64, error) {
	return helpers.ParseInt64Param(c, "id")
}

// StringID accepts any non-blank id, e.g. a Mongo ObjectID hex string.
func StringID(c *gin.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", apperrors.NewInvalidArgumentError("id must not be empty")
	}
	return id, nil
}

// CrudController serves the routes every resource shares.
type CrudController[T any, ID comparable] struct {
	service services.Crud[T, ID]
	parseID IDParser[ID]
}

// NewCrudController creates a new CrudController
func NewCrudController[T any, ID comparable](service services.Crud[T, ID], parseID IDParser[ID]) *CrudController[T, ID] {
	return &CrudController[T, ID]{
		service: service,
		parseID: parseID,
	}
}

// FindAll handles GET ""
func (h *CrudController[T, ID]) FindAll(ctx *gin.Context) {
	items, err := h.service.FindAll(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// FindByID handles GET "/:id"
func (h *CrudController[T, ID]) FindByID(ctx *gin.Context) {
	id, err := h.parseID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	item, err := h.service.FindByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// Create handles POST ""
func (h *CrudController[T, ID]) Create(ctx *gin.Context) {
	var entity T
	if !middleware.BindJSON(ctx, &entity) {
		return
	}

	saved, err := h.service.Save(ctx.Request.Context(), &entity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, saved)
}

// Delete handles DELETE "/:id". The service decides whether a missing
// entity is an error.
func (h *CrudController[T, ID]) Delete(ctx *gin.Context) {
	id, err := h.parseID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := h.service.DeleteByID(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// FindAllPage handles GET "/page/:page/:size"
func (h *CrudController[T, ID]) FindAllPage(ctx *gin.Context) {
	page, size, err := helpers.ParsePagePathParams(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := h.service.FindAllPage(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Register mounts the shared routes on group.
func (h *CrudController[T, ID]) Register(group *gin.RouterGroup) {
	group.GET("", h.FindAll)
	group.GET("/:id", h.FindByID)
	group.POST("", h.Create)
	group.DELETE("/:id", h.Delete)
	group.GET("/page/:page/:size", h.FindAllPage)
}
