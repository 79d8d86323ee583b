package dto

// UpdateAnswerRequest is the body of PUT /answers/:id. Only text is applied.
type UpdateAnswerRequest struct {
	Text string `json:"text"`
}
