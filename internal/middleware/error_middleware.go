package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// HandleAPIError writes the response for err. It is the only place where
// errors are mapped to HTTP statuses.
func HandleAPIError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validationErr *apperrors.ValidationError
	var downstreamErr *apperrors.DownstreamError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorList(validationErr.Fields))
	case errors.As(err, &downstreamErr):
		logger.Error().Err(err).Str("requestId", GetRequestID(c)).Msg("Downstream call failed")
		writeError(c, http.StatusBadGateway,
			dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, downstreamErr.Service+" is unavailable"))
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, []dto.ErrorDetail{
			*dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()),
		})
	case apperrors.Is(err, apperrors.ErrInvalidArgument, apperrors.ErrBadRequest):
		writeError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidArgument, err.Error()))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		writeError(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error()))
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		writeError(c, http.StatusConflict,
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists").WithField("email"))
	case apperrors.Is(err, apperrors.ErrResourceAlreadyExists, apperrors.ErrConflict):
		writeError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error()))
	default:
		logger.Error().Err(err).Str("requestId", GetRequestID(c)).Msg("Unhandled error")
		writeError(c, http.StatusInternalServerError,
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical))
	}
}

func writeError(c *gin.Context, status int, detail *dto.ErrorDetail) {
	resp := dto.NewErrorResponse(detail)
	resp.RequestID = GetRequestID(c)
	c.JSON(status, resp)
}
