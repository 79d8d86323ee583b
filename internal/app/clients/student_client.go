package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yigit/classroom/internal/app/models"
)

// StudentClient calls student-service.
type StudentClient struct {
	client *Client
}

// NewStudentClient creates a StudentClient for baseURL.
func NewStudentClient(baseURL string, opts Options) *StudentClient {
	return &StudentClient{client: New("student-service", baseURL, opts)}
}

// GetStudentsByIDs resolves ids with a single list-valued call.
func (c *StudentClient) GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	students := []models.Student{}
	if len(ids) == 0 {
		return students, nil
	}
	query := url.Values{}
	for _, id := range ids {
		query.Add("ids", strconv.FormatInt(id, 10))
	}
	if err := c.client.Do(ctx, http.MethodGet, "/students/students-by-course", query, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}
