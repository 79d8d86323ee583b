package models

import "time"

// StudentDeletion is an outbox entry recording that a student was removed
// and course-service still has to drop the student's memberships.
type StudentDeletion struct {
	ID          int64
	StudentID   int64
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}
