package models

// Answer is a student's reply to one question of an exam.
// Student, question and exam are referenced by id only.
type Answer struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	Text       string `json:"text" bson:"text" validate:"required"`
	StudentID  int64  `json:"studentId" bson:"studentId" validate:"required,gt=0"`
	QuestionID int64  `json:"questionId" bson:"questionId" validate:"required,gt=0"`
	ExamID     int64  `json:"examId" bson:"examId" validate:"required,gt=0"`
}
