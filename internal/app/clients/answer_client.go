package clients

import (
	"context"
	"fmt"
	"net/http"
)

// AnswerClient calls answer-service.
type AnswerClient struct {
	client *Client
}

// NewAnswerClient creates an AnswerClient for baseURL.
func NewAnswerClient(baseURL string, opts Options) *AnswerClient {
	return &AnswerClient{client: New("answer-service", baseURL, opts)}
}

// GetExamIDsAnsweredByStudent returns the exams the student answered.
func (c *AnswerClient) GetExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	ids := []int64{}
	path := fmt.Sprintf("/answers/student/%d/exams-replied", studentID)
	if err := c.client.Do(ctx, http.MethodGet, path, nil, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
