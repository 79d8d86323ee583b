package models

import "time"

// Course owns its student associations and references exams by id.
// Students is only set when the roster was resolved by student-service.
type Course struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name" validate:"required,max=100"`
	Description    string          `json:"description" validate:"max=255"`
	CreatedAt      time.Time       `json:"createdAt"`
	CourseStudents []CourseStudent `json:"courseStudents"`
	Students       []Student       `json:"students,omitempty"`
	Exams          []Exam          `json:"exams"`
}

// CourseStudent links a student id to its single owning course.
type CourseStudent struct {
	ID        int64 `json:"id"`
	StudentID int64 `json:"studentId"`
	CourseID  int64 `json:"-"`
}

// StudentIDs lists the ids of every associated student in association order.
func (c *Course) StudentIDs() []int64 {
	ids := make([]int64, 0, len(c.CourseStudents))
	for _, cs := range c.CourseStudents {
		ids = append(ids, cs.StudentID)
	}
	return ids
}

// AddStudent associates a student; it reports false when already present.
func (c *Course) AddStudent(studentID int64) bool {
	for _, cs := range c.CourseStudents {
		if cs.StudentID == studentID {
			return false
		}
	}
	c.CourseStudents = append(c.CourseStudents, CourseStudent{StudentID: studentID, CourseID: c.ID})
	return true
}

// RemoveStudent drops the association for studentID if present.
func (c *Course) RemoveStudent(studentID int64) bool {
	for i, cs := range c.CourseStudents {
		if cs.StudentID == studentID {
			c.CourseStudents = append(c.CourseStudents[:i], c.CourseStudents[i+1:]...)
			return true
		}
	}
	return false
}

// AddExam links an exam; it reports false when already linked.
func (c *Course) AddExam(exam Exam) bool {
	for _, e := range c.Exams {
		if e.ID == exam.ID {
			return false
		}
	}
	c.Exams = append(c.Exams, Exam{ID: exam.ID, Name: exam.Name})
	return true
}

// RemoveExam unlinks the exam with the given id if present.
func (c *Course) RemoveExam(examID int64) bool {
	for i, e := range c.Exams {
		if e.ID == examID {
			c.Exams = append(c.Exams[:i], c.Exams[i+1:]...)
			return true
		}
	}
	return false
}

// MarkRepliedExams flags every exam whose id is in answered.
func (c *Course) MarkRepliedExams(answered []int64) {
	set := make(map[int64]struct{}, len(answered))
	for _, id := range answered {
		set[id] = struct{}{}
	}
	for i := range c.Exams {
		_, ok := set[c.Exams[i].ID]
		c.Exams[i].Replied = ok
	}
}
