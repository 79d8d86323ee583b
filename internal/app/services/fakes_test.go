package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// memRepo is an in-memory CrudRepository keyed by int64 ids.
type memRepo[T any] struct {
	mu    sync.Mutex
	items map[int64]T
	next  int64
	getID func(*T) int64
	setID func(*T, int64)
	clone func(T) T
}

func newMemRepo[T any](getID func(*T) int64, setID func(*T, int64), clone func(T) T) *memRepo[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &memRepo[T]{items: map[int64]T{}, getID: getID, setID: setID, clone: clone}
}

func (r *memRepo[T]) sorted() []T {
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.clone(r.items[id]))
	}
	return out
}

func (r *memRepo[T]) FindAll(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), nil
}

func (r *memRepo[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("not found")
	}
	c := r.clone(v)
	return &c, nil
}

func (r *memRepo[T]) Save(ctx context.Context, entity *T) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.getID(entity)
	if id == 0 {
		r.next++
		id = r.next
		r.setID(entity, id)
	} else if _, ok := r.items[id]; !ok {
		return nil, apperrors.NewResourceNotFoundError("not found")
	}
	r.items[id] = r.clone(*entity)
	c := r.clone(*entity)
	return &c, nil
}

func (r *memRepo[T]) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memRepo[T]) FindAllPage(ctx context.Context, req models.PageRequest) ([]T, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	start := int(req.Offset())
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func cloneCourse(c models.Course) models.Course {
	c.CourseStudents = append([]models.CourseStudent{}, c.CourseStudents...)
	c.Exams = append([]models.Exam{}, c.Exams...)
	c.Students = nil
	return c
}

// fakeCourseRepo adds the course-specific queries on top of memRepo.
type fakeCourseRepo struct {
	*memRepo[models.Course]
	findByStudentIDFn func(ctx context.Context, studentID int64) (*models.Course, error)
	searchFn          func(ctx context.Context, text string, req models.PageRequest) ([]models.Course, int64, error)
	// beforeChangeFn runs before an association change is applied.
	beforeChangeFn func(ctx context.Context, id int64)
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{memRepo: newMemRepo(
		func(c *models.Course) int64 { return c.ID },
		func(c *models.Course, id int64) { c.ID = id },
		cloneCourse,
	)}
}

func (r *fakeCourseRepo) FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error) {
	if r.findByStudentIDFn != nil {
		return r.findByStudentIDFn(ctx, studentID)
	}
	for _, c := range r.sorted() {
		for _, id := range c.StudentIDs() {
			if id == studentID {
				return &c, nil
			}
		}
	}
	return nil, apperrors.NewResourceNotFoundError("course not found")
}

func (r *fakeCourseRepo) SearchByNameOrDescription(ctx context.Context, text string, req models.PageRequest) ([]models.Course, int64, error) {
	if r.searchFn == nil {
		return nil, 0, errors.New("not implemented")
	}
	return r.searchFn(ctx, text, req)
}

func (r *fakeCourseRepo) DeleteCourseStudentsByStudentID(ctx context.Context, studentID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, c := range r.items {
		if c.RemoveStudent(studentID) {
			removed++
			r.items[id] = c
		}
	}
	return removed, nil
}

// change applies fn to the stored course in place, like a row-level update.
func (r *fakeCourseRepo) change(ctx context.Context, id int64, fn func(c *models.Course)) (*models.Course, error) {
	if r.beforeChangeFn != nil {
		r.beforeChangeFn(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("course not found")
	}
	fn(&c)
	r.items[id] = c
	out := cloneCourse(c)
	return &out, nil
}

func (r *fakeCourseRepo) UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Course, error) {
	return r.change(ctx, id, func(c *models.Course) {
		c.Name = name
		c.Description = description
	})
}

func (r *fakeCourseRepo) AddCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error) {
	return r.change(ctx, id, func(c *models.Course) {
		for _, sid := range studentIDs {
			c.AddStudent(sid)
		}
	})
}

func (r *fakeCourseRepo) RemoveCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error) {
	return r.change(ctx, id, func(c *models.Course) {
		for _, sid := range studentIDs {
			c.RemoveStudent(sid)
		}
	})
}

func (r *fakeCourseRepo) AddCourseExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	return r.change(ctx, id, func(c *models.Course) {
		for _, e := range exams {
			c.AddExam(e)
		}
	})
}

func (r *fakeCourseRepo) RemoveCourseExams(ctx context.Context, id int64, examIDs []int64) (*models.Course, error) {
	return r.change(ctx, id, func(c *models.Course) {
		for _, eid := range examIDs {
			c.RemoveExam(eid)
		}
	})
}

type mockStudentDirectory struct {
	calls              int
	getStudentsByIDsFn func(ctx context.Context, ids []int64) ([]models.Student, error)
}

func (m *mockStudentDirectory) GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	m.calls++
	if m.getStudentsByIDsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getStudentsByIDsFn(ctx, ids)
}

type mockAnswerDirectory struct {
	calls int
	getFn func(ctx context.Context, studentID int64) ([]int64, error)
}

func (m *mockAnswerDirectory) GetExamIDsAnsweredByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	m.calls++
	if m.getFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getFn(ctx, studentID)
}

// fakeStudentRepo records deletions the way the outbox-backed repository does.
type fakeStudentRepo struct {
	*memRepo[models.Student]
	images map[int64][]byte
	outbox *fakeOutbox
}

func newFakeStudentRepo(outbox *fakeOutbox) *fakeStudentRepo {
	return &fakeStudentRepo{
		memRepo: newMemRepo(
			func(s *models.Student) int64 { return s.ID },
			func(s *models.Student, id int64) { s.ID = id },
			nil,
		),
		images: map[int64][]byte{},
		outbox: outbox,
	}
}

func (r *fakeStudentRepo) Save(ctx context.Context, s *models.Student) (*models.Student, error) {
	for _, existing := range r.sorted() {
		if existing.Email == s.Email && existing.ID != s.ID {
			return nil, apperrors.ErrEmailAlreadyExists
		}
	}
	image := s.Image
	s.Image = nil
	saved, err := r.memRepo.Save(ctx, s)
	if err != nil {
		return nil, err
	}
	if image != nil {
		r.images[saved.ID] = image
	}
	saved.HasImage = len(r.images[saved.ID]) > 0
	return saved, nil
}

func (r *fakeStudentRepo) FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Student{}
	for _, s := range r.sorted() {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) SearchByFullName(ctx context.Context, text string) ([]models.Student, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeStudentRepo) SearchByFullNamePage(ctx context.Context, text string, req models.PageRequest) ([]models.Student, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeStudentRepo) FindImage(ctx context.Context, id int64) ([]byte, error) {
	if _, err := r.memRepo.FindByID(ctx, id); err != nil {
		return nil, apperrors.ErrStudentNotFound
	}
	img, ok := r.images[id]
	if !ok {
		return nil, apperrors.ErrStudentImageNotFound
	}
	return img, nil
}

func (r *fakeStudentRepo) DeleteWithOutbox(ctx context.Context, id int64) (*models.StudentDeletion, error) {
	if _, err := r.memRepo.FindByID(ctx, id); err != nil {
		return nil, nil
	}
	if err := r.memRepo.DeleteByID(ctx, id); err != nil {
		return nil, err
	}
	delete(r.images, id)
	return r.outbox.enqueue(id), nil
}

type fakeOutbox struct {
	mu     sync.Mutex
	next   int64
	events map[int64]*models.StudentDeletion
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{events: map[int64]*models.StudentDeletion{}}
}

func (o *fakeOutbox) enqueue(studentID int64) *models.StudentDeletion {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	e := &models.StudentDeletion{ID: o.next, StudentID: studentID}
	o.events[e.ID] = e
	c := *e
	return &c
}

func (o *fakeOutbox) FindPending(ctx context.Context, limit int) ([]models.StudentDeletion, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := []models.StudentDeletion{}
	for id := int64(1); id <= o.next && len(out) < limit; id++ {
		if e, ok := o.events[id]; ok && e.DeliveredAt == nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (o *fakeOutbox) MarkDelivered(ctx context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.events[id]
	if !ok {
		return errors.New("unknown event")
	}
	now := e.CreatedAt
	e.DeliveredAt = &now
	e.Attempts++
	return nil
}

func (o *fakeOutbox) MarkFailed(ctx context.Context, id int64, cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.events[id]
	if !ok {
		return errors.New("unknown event")
	}
	e.Attempts++
	e.LastError = cause.Error()
	return nil
}

func (o *fakeOutbox) get(id int64) models.StudentDeletion {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *o.events[id]
}

type mockCourseNotifier struct {
	mu       sync.Mutex
	calls    []int64
	deleteFn func(ctx context.Context, studentID int64) error
}

func (m *mockCourseNotifier) DeleteCourseStudent(ctx context.Context, studentID int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, studentID)
	m.mu.Unlock()
	if m.deleteFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteFn(ctx, studentID)
}
