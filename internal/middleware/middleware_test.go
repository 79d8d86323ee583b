package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMintsAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var fromCtx string
	r.GET("/x", func(c *gin.Context) {
		fromCtx = helpers.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	minted := w.Header().Get(helpers.RequestIDHeader)
	if minted == "" || minted != fromCtx {
		t.Fatalf("expected minted id in header and context, got %q / %q", minted, fromCtx)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(helpers.RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(helpers.RequestIDHeader); got != "abc" || fromCtx != "abc" {
		t.Fatalf("expected caller id reused, got %q / %q", got, fromCtx)
	}
}

func TestRequestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.New(&buf)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q", buf.String())
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/x" || entry["level"] != "warn" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", w.Code, w.Header())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Expose-Headers") == "" {
		t.Fatalf("unexpected simple response %d %v", w.Code, w.Header())
	}
}

func TestHandleAPIErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.NewValidationError(apperrors.FieldError{Field: "name", Message: "must not be empty"}), http.StatusBadRequest},
		{"invalid image", apperrors.ErrInvalidImage, http.StatusBadRequest},
		{"invalid argument", apperrors.NewInvalidArgumentError("size must be > 0"), http.StatusBadRequest},
		{"not found", fmt.Errorf("loading: %w", apperrors.ErrStudentNotFound), http.StatusNotFound},
		{"email conflict", apperrors.ErrEmailAlreadyExists, http.StatusConflict},
		{"downstream", &apperrors.DownstreamError{Service: "student-service", StatusCode: 503, Err: errors.New("x")}, http.StatusBadGateway},
		{"downstream not found", &apperrors.DownstreamError{Service: "course-service", StatusCode: 404, Err: apperrors.ErrResourceNotFound}, http.StatusBadGateway},
		{"timeout", &apperrors.DownstreamError{Service: "answer-service", Err: context.DeadlineExceeded}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			HandleAPIError(c, tc.err)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestHandleAPIErrorValidationBodyIsFieldList(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	HandleAPIError(c, apperrors.NewValidationError(
		apperrors.FieldError{Field: "name", Message: "must not be empty"},
		apperrors.FieldError{Field: "email", Message: "must be a valid email address"},
	))

	var body []dto.ErrorDetail
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 || body[0].Field != "name" || body[1].Code != dto.ErrorCodeValidationFailed {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHandleAPIErrorDownstreamCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, &apperrors.DownstreamError{Service: "student-service", Err: errors.New("refused")})

	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == nil || body.Error.Code != dto.ErrorCodeExternalServiceError {
		t.Fatalf("expected SRV_003, got %+v", body.Error)
	}
}
