package clients

import (
	"context"
	"fmt"
	"net/http"
)

// CourseClient calls course-service.
type CourseClient struct {
	client *Client
}

// NewCourseClient creates a CourseClient for baseURL.
func NewCourseClient(baseURL string, opts Options) *CourseClient {
	return &CourseClient{client: New("course-service", baseURL, opts)}
}

// DeleteCourseStudent removes the student from every course. The call is
// idempotent on the receiving side.
func (c *CourseClient) DeleteCourseStudent(ctx context.Context, studentID int64) error {
	path := fmt.Sprintf("/courses/delete-student/%d", studentID)
	return c.client.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}
