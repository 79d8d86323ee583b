package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

const (
	// MaxPageSize bounds a single page so one request cannot pull a whole table.
	MaxPageSize = 100
)

// NewPageRequest validates a zero-based page index and a page size.
func NewPageRequest(page, size int) (models.PageRequest, error) {
	if page < 0 {
		return models.PageRequest{}, apperrors.NewInvalidArgumentError("page must be >= 0, got %d", page)
	}
	if size <= 0 {
		return models.PageRequest{}, apperrors.NewInvalidArgumentError("size must be > 0, got %d", size)
	}
	if size > MaxPageSize {
		return models.PageRequest{}, apperrors.NewInvalidArgumentError("size must be <= %d, got %d", MaxPageSize, size)
	}
	if page > math.MaxInt/size-1 {
		return models.PageRequest{}, apperrors.NewInvalidArgumentError("page %d is out of range for size %d", page, size)
	}
	return models.PageRequest{Page: page, Size: size}, nil
}

// ParsePagePathParams reads the :page and :size path parameters.
// Non-numeric values are reported as invalid arguments.
func ParsePagePathParams(c *gin.Context) (page, size int, err error) {
	page, err = strconv.Atoi(c.Param("page"))
	if err != nil {
		return 0, 0, apperrors.NewInvalidArgumentError("page must be a number")
	}
	size, err = strconv.Atoi(c.Param("size"))
	if err != nil {
		return 0, 0, apperrors.NewInvalidArgumentError("size must be a number")
	}
	return page, size, nil
}
