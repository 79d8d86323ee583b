package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

func testOptions() Options {
	return Options{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond}
}

func TestStudentClientSendsIDsAndRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/students/students-by-course" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query()["ids"]; !reflect.DeepEqual(got, []string{"1", "2"}) {
			t.Errorf("unexpected ids %v", got)
		}
		if got := r.Header.Get(helpers.RequestIDHeader); got != "req-123" {
			t.Errorf("expected request id propagated, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ada"},{"id":2,"name":"Alan"}]`))
	}))
	defer srv.Close()

	c := NewStudentClient(srv.URL, testOptions())
	ctx := helpers.WithRequestID(context.Background(), "req-123")
	students, err := c.GetStudentsByIDs(ctx, []int64{1, 2})
	if err != nil {
		t.Fatalf("GetStudentsByIDs: %v", err)
	}
	if len(students) != 2 || students[1].Name != "Alan" {
		t.Fatalf("unexpected students %+v", students)
	}
}

func TestStudentClientEmptyInputSkipsCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	students, err := NewStudentClient(srv.URL, testOptions()).GetStudentsByIDs(context.Background(), nil)
	if err != nil || students == nil || len(students) != 0 {
		t.Fatalf("expected empty result, got %v / %v", students, err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("no request expected for an empty id list")
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[4,2]`))
	}))
	defer srv.Close()

	ids, err := NewAnswerClient(srv.URL, testOptions()).GetExamIDsAnsweredByStudent(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{4, 2}) {
		t.Fatalf("unexpected ids %v", ids)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAnswerClient(srv.URL, testOptions()).GetExamIDsAnsweredByStudent(context.Background(), 9)
	var de *apperrors.DownstreamError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownstreamError, got %v", err)
	}
	if de.StatusCode != http.StatusBadGateway || de.Service != "answer-service" {
		t.Fatalf("unexpected error %+v", de)
	}
	if !errors.Is(err, apperrors.ErrDownstreamUnavailable) {
		t.Fatal("expected ErrDownstreamUnavailable in chain")
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 1 call plus 2 retries, got %d", calls)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewCourseClient(srv.URL, testOptions()).DeleteCourseStudent(context.Background(), 3)
	if !errors.Is(err, apperrors.ErrResourceNotFound) || !errors.Is(err, apperrors.ErrDownstreamUnavailable) {
		t.Fatalf("expected downstream not found, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestClientAppliesPerCallTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	opts := Options{Timeout: 20 * time.Millisecond, MaxRetries: 0}
	start := time.Now()
	err := NewCourseClient(srv.URL, opts).DeleteCourseStudent(context.Background(), 3)
	var de *apperrors.DownstreamError
	if !errors.As(err, &de) || de.StatusCode != 0 {
		t.Fatalf("expected transport DownstreamError, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout was not applied")
	}
}

func TestCourseClientDeleteSucceedsOnNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/courses/delete-student/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewCourseClient(srv.URL+"/", testOptions()).DeleteCourseStudent(context.Background(), 3); err != nil {
		t.Fatalf("DeleteCourseStudent: %v", err)
	}
}
