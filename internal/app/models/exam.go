package models

import "time"

// Subject groups exams; exams reference it, they do not own it.
type Subject struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`
}

// Exam owns its questions: they are created, replaced and deleted with it.
type Exam struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Name            string     `json:"name" gorm:"size:30;not null" validate:"required,min=4,max=30"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	SubjectFatherID *int64     `json:"-"`
	SubjectFather   *Subject   `json:"subjectFather,omitempty" gorm:"foreignKey:SubjectFatherID;constraint:OnDelete:SET NULL"`
	Questions       []Question `json:"questions" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" validate:"dive"`
	// Replied is set by course-service for the requesting student.
	Replied bool `json:"replied" gorm:"-"`
}

// Question belongs to exactly one exam.
type Question struct {
	ID     int64  `json:"id" gorm:"primaryKey"`
	Text   string `json:"text" gorm:"not null" validate:"required"`
	ExamID int64  `json:"-" gorm:"index;not null"`
}
