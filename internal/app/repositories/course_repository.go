package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// ErrCourseNotFound is returned when a course id does not exist.
var ErrCourseNotFound = fmt.Errorf("course %w", apperrors.ErrResourceNotFound)

var courseColumns = []string{"c.id", "c.name", "c.description", "c.created_at"}

// CourseRepository handles course database operations
type CourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		sb: newStatementBuilder(),
	}
}

// FindAll retrieves all courses with their associations
func (r *CourseRepository) FindAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		courses, err = r.selectCourses(ctx, tx, r.sb.Select(courseColumns...).From("courses c").OrderBy("c.id ASC"))
		if err != nil {
			return err
		}
		return r.loadAssociations(ctx, tx, courses)
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// FindByID retrieves a course by ID
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	var course *models.Course
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		course, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// FindByStudentID returns the first course (lowest id) the student belongs to.
func (r *CourseRepository) FindByStudentID(ctx context.Context, studentID int64) (*models.Course, error) {
	var course *models.Course
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		courses, err := r.selectCourses(ctx, tx, r.sb.Select(courseColumns...).
			From("courses c").
			Join("course_students cs ON cs.course_id = c.id").
			Where(squirrel.Eq{"cs.student_id": studentID}).
			OrderBy("c.id ASC").
			Limit(1))
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			return fmt.Errorf("no course for student %d: %w", studentID, ErrCourseNotFound)
		}
		if err := r.loadAssociations(ctx, tx, courses); err != nil {
			return err
		}
		course = &courses[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// FindAllPage retrieves one page of courses ordered by id
func (r *CourseRepository) FindAllPage(ctx context.Context, req models.PageRequest) ([]models.Course, int64, error) {
	return r.page(ctx, nil, req)
}

// SearchByNameOrDescription pages through courses whose name or description
// contains text, ignoring case.
func (r *CourseRepository) SearchByNameOrDescription(ctx context.Context, text string, req models.PageRequest) ([]models.Course, int64, error) {
	pattern := containsPattern(text)
	return r.page(ctx, squirrel.Or{
		squirrel.ILike{"c.name": pattern},
		squirrel.ILike{"c.description": pattern},
	}, req)
}

func (r *CourseRepository) page(ctx context.Context, where squirrel.Sqlizer, req models.PageRequest) ([]models.Course, int64, error) {
	countQuery := r.sb.Select("COUNT(*)").From("courses c")
	selectQuery := r.sb.Select(courseColumns...).From("courses c").
		OrderBy("c.id ASC").
		Limit(uint64(req.Size)).
		Offset(req.Offset())
	if where != nil {
		countQuery = countQuery.Where(where)
		selectQuery = selectQuery.Where(where)
	}

	var (
		courses []models.Course
		total   int64
	)
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		countSQL, countArgs, err := countQuery.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build count courses query: %w", err)
		}
		if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			logger.Error().Err(err).Msg("Error counting courses")
			return fmt.Errorf("error counting courses: %w", err)
		}

		courses, err = r.selectCourses(ctx, tx, selectQuery)
		if err != nil {
			return err
		}
		return r.loadAssociations(ctx, tx, courses)
	})
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// Save inserts a course when its id is zero and replaces it otherwise,
// synchronising student and exam associations in the same transaction.
func (r *CourseRepository) Save(ctx context.Context, course *models.Course) (*models.Course, error) {
	var saved *models.Course
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id := course.ID
		if id == 0 {
			sql, args, err := r.sb.Insert("courses").
				Columns("name", "description").
				Values(course.Name, course.Description).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build create course query: %w", err)
			}
			if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
				logger.Error().Err(err).Msg("Error executing create course query")
				return fmt.Errorf("error creating course: %w", err)
			}
		} else {
			sql, args, err := r.sb.Update("courses").
				SetMap(map[string]interface{}{
					"name":        course.Name,
					"description": course.Description,
				}).
				Where(squirrel.Eq{"id": id}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build update course query: %w", err)
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				logger.Error().Err(err).Int64("courseID", id).Msg("Error executing update course query")
				return fmt.Errorf("error updating course: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrCourseNotFound
			}
		}

		if err := r.syncStudents(ctx, tx, id, course.StudentIDs()); err != nil {
			return err
		}
		if err := r.syncExams(ctx, tx, id, course.Exams); err != nil {
			return err
		}

		var err error
		saved, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateDetails changes name and description and leaves associations alone.
func (r *CourseRepository) UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Course, error) {
	return r.modify(ctx, id, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Update("courses").
			SetMap(map[string]interface{}{
				"name":        name,
				"description": description,
			}).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update course query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Int64("courseID", id).Msg("Error executing update course query")
			return fmt.Errorf("error updating course: %w", err)
		}
		return nil
	})
}

// AddCourseStudents associates the given students; existing rows are kept.
func (r *CourseRepository) AddCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error) {
	return r.modify(ctx, id, func(ctx context.Context, tx pgx.Tx) error {
		return r.insertStudents(ctx, tx, id, studentIDs)
	})
}

// RemoveCourseStudents deletes only the associations of the given students.
func (r *CourseRepository) RemoveCourseStudents(ctx context.Context, id int64, studentIDs []int64) (*models.Course, error) {
	return r.modify(ctx, id, func(ctx context.Context, tx pgx.Tx) error {
		if len(studentIDs) == 0 {
			return nil
		}
		sql, args, err := r.sb.Delete("course_students").
			Where(squirrel.Eq{"course_id": id}).
			Where(squirrel.Eq{"student_id": studentIDs}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build remove course students query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error removing course students: %w", err)
		}
		return nil
	})
}

// AddCourseExams links the given exams, refreshing a stored name when a new
// one is supplied.
func (r *CourseRepository) AddCourseExams(ctx context.Context, id int64, exams []models.Exam) (*models.Course, error) {
	return r.modify(ctx, id, func(ctx context.Context, tx pgx.Tx) error {
		return r.insertExams(ctx, tx, id, exams)
	})
}

// RemoveCourseExams unlinks only the given exams.
func (r *CourseRepository) RemoveCourseExams(ctx context.Context, id int64, examIDs []int64) (*models.Course, error) {
	return r.modify(ctx, id, func(ctx context.Context, tx pgx.Tx) error {
		if len(examIDs) == 0 {
			return nil
		}
		sql, args, err := r.sb.Delete("course_exams").
			Where(squirrel.Eq{"course_id": id}).
			Where(squirrel.Eq{"exam_id": examIDs}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build remove course exams query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error removing course exams: %w", err)
		}
		return nil
	})
}

// modify locks the course row, applies change and returns the course as
// stored afterwards.
func (r *CourseRepository) modify(ctx context.Context, id int64, change func(context.Context, pgx.Tx) error) (*models.Course, error) {
	var saved *models.Course
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Select("id").
			From("courses").
			Where(squirrel.Eq{"id": id}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build lock course query: %w", err)
		}
		var locked int64
		if err := tx.QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("error locking course %d: %w", id, err)
		}

		if err := change(ctx, tx); err != nil {
			return err
		}
		saved, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteByID deletes a course; associations go with it through ON DELETE CASCADE.
func (r *CourseRepository) DeleteByID(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}
	return nil
}

// DeleteCourseStudentsByStudentID removes the student from every course and
// reports how many associations were removed.
func (r *CourseRepository) DeleteCourseStudentsByStudentID(ctx context.Context, studentID int64) (int64, error) {
	sql, args, err := r.sb.Delete("course_students").Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete course students query: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error deleting course students")
		return 0, fmt.Errorf("error deleting course students: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *CourseRepository) findByID(ctx context.Context, q querier, id int64) (*models.Course, error) {
	courses, err := r.selectCourses(ctx, q, r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": id}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, ErrCourseNotFound
	}
	if err := r.loadAssociations(ctx, q, courses); err != nil {
		return nil, err
	}
	return &courses[0], nil
}

func (r *CourseRepository) selectCourses(ctx context.Context, q querier, query squirrel.SelectBuilder) ([]models.Course, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select courses query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing select courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		c.CourseStudents = []models.CourseStudent{}
		c.Exams = []models.Exam{}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// loadAssociations fills students and exams for every course with two queries.
func (r *CourseRepository) loadAssociations(ctx context.Context, q querier, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	index := make(map[int64]*models.Course, len(courses))
	ids := make([]int64, 0, len(courses))
	for i := range courses {
		index[courses[i].ID] = &courses[i]
		ids = append(ids, courses[i].ID)
	}

	sql, args, err := r.sb.Select("id", "course_id", "student_id").
		From("course_students").
		Where(squirrel.Eq{"course_id": ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build select course students query: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error querying course students: %w", err)
	}
	for rows.Next() {
		var cs models.CourseStudent
		if err := rows.Scan(&cs.ID, &cs.CourseID, &cs.StudentID); err != nil {
			rows.Close()
			return fmt.Errorf("error scanning course student row: %w", err)
		}
		if c, ok := index[cs.CourseID]; ok {
			c.CourseStudents = append(c.CourseStudents, cs)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating course student rows: %w", err)
	}

	sql, args, err = r.sb.Select("course_id", "exam_id", "exam_name").
		From("course_exams").
		Where(squirrel.Eq{"course_id": ids}).
		OrderBy("linked_at ASC", "exam_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build select course exams query: %w", err)
	}
	rows, err = q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error querying course exams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			courseID int64
			exam     models.Exam
		)
		if err := rows.Scan(&courseID, &exam.ID, &exam.Name); err != nil {
			return fmt.Errorf("error scanning course exam row: %w", err)
		}
		if c, ok := index[courseID]; ok {
			c.Exams = append(c.Exams, exam)
		}
	}
	return rows.Err()
}

func (r *CourseRepository) syncStudents(ctx context.Context, tx pgx.Tx, courseID int64, studentIDs []int64) error {
	sql, args, err := r.sb.Delete("course_students").
		Where(squirrel.Eq{"course_id": courseID}).
		Where(squirrel.NotEq{"student_id": studentIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prune course students query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error pruning course students: %w", err)
	}
	return r.insertStudents(ctx, tx, courseID, studentIDs)
}

func (r *CourseRepository) insertStudents(ctx context.Context, tx pgx.Tx, courseID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	insert := r.sb.Insert("course_students").Columns("course_id", "student_id")
	for _, sid := range studentIDs {
		insert = insert.Values(courseID, sid)
	}
	sql, args, err := insert.Suffix("ON CONFLICT (course_id, student_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert course students query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error inserting course students: %w", err)
	}
	return nil
}

func (r *CourseRepository) syncExams(ctx context.Context, tx pgx.Tx, courseID int64, exams []models.Exam) error {
	examIDs := make([]int64, 0, len(exams))
	for _, e := range exams {
		examIDs = append(examIDs, e.ID)
	}

	sql, args, err := r.sb.Delete("course_exams").
		Where(squirrel.Eq{"course_id": courseID}).
		Where(squirrel.NotEq{"exam_id": examIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prune course exams query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error pruning course exams: %w", err)
	}
	return r.insertExams(ctx, tx, courseID, exams)
}

func (r *CourseRepository) insertExams(ctx context.Context, tx pgx.Tx, courseID int64, exams []models.Exam) error {
	if len(exams) == 0 {
		return nil
	}
	insert := r.sb.Insert("course_exams").Columns("course_id", "exam_id", "exam_name")
	for _, e := range exams {
		insert = insert.Values(courseID, e.ID, e.Name)
	}
	sql, args, err := insert.
		Suffix("ON CONFLICT (course_id, exam_id) DO UPDATE SET exam_name = CASE WHEN EXCLUDED.exam_name <> '' THEN EXCLUDED.exam_name ELSE course_exams.exam_name END").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert course exams query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error inserting course exams: %w", err)
	}
	return nil
}
