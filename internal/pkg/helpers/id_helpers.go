package helpers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// ParseInt64Param reads a positive numeric path parameter.
func ParseInt64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidArgumentError("%s must be a positive number", name)
	}
	return id, nil
}

// ParseInt64List accepts both repeated (?ids=1&ids=2) and comma separated
// (?ids=1,2) query values. Blank entries are skipped.
func ParseInt64List(c *gin.Context, name string) ([]int64, error) {
	out := []int64{}
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, apperrors.NewInvalidArgumentError("%s contains a non-numeric value %q", name, part)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
