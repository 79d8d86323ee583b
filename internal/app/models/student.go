package models

import "time"

// Student is the source of truth for people enrolled in courses.
// Image holds the normalised JPEG bytes and is never serialised.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" form:"name" validate:"required,max=100"`
	LastName  string    `json:"lastName" form:"lastName" validate:"required,max=100"`
	Email     string    `json:"email" form:"email" validate:"required,email,max=255"`
	CreatedAt time.Time `json:"createdAt"`
	HasImage  bool      `json:"hasImage"`
	Image     []byte    `json:"-"`
}
