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
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

const studentEmailConstraint = "students_email_key"

var studentColumns = []string{"id", "name", "last_name", "email", "created_at", "image IS NOT NULL AS has_image"}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *db.PostgresDB) *StudentRepository {
	return &StudentRepository{
		db: database,
		sb: newStatementBuilder(),
	}
}

// FindAll retrieves all students ordered by id
func (r *StudentRepository) FindAll(ctx context.Context) ([]models.Student, error) {
	return r.selectStudents(ctx, r.db.Pool, r.sb.Select(studentColumns...).From("students").OrderBy("id ASC"))
}

// FindByID retrieves a student by ID
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	students, err := r.selectStudents(ctx, r.db.Pool, r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": id}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, apperrors.ErrStudentNotFound
	}
	return &students[0], nil
}

// FindAllByIDs returns the students whose ids are listed. Unknown ids are
// skipped and the result is ordered by id.
func (r *StudentRepository) FindAllByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	return r.selectStudents(ctx, r.db.Pool, r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC"))
}

// SearchByFullName lists students whose "name lastName" contains text.
func (r *StudentRepository) SearchByFullName(ctx context.Context, text string) ([]models.Student, error) {
	return r.selectStudents(ctx, r.db.Pool, r.sb.Select(studentColumns...).
		From("students").
		Where(fullNameMatches(text)).
		OrderBy("id ASC"))
}

// FindAllPage retrieves one page of students ordered by id
func (r *StudentRepository) FindAllPage(ctx context.Context, req models.PageRequest) ([]models.Student, int64, error) {
	return r.page(ctx, nil, req)
}

// SearchByFullNamePage is the paginated form of SearchByFullName.
func (r *StudentRepository) SearchByFullNamePage(ctx context.Context, text string, req models.PageRequest) ([]models.Student, int64, error) {
	return r.page(ctx, fullNameMatches(text), req)
}

func fullNameMatches(text string) squirrel.Sqlizer {
	return squirrel.Expr("(name || ' ' || last_name) ILIKE ?", containsPattern(text))
}

func (r *StudentRepository) page(ctx context.Context, where squirrel.Sqlizer, req models.PageRequest) ([]models.Student, int64, error) {
	countQuery := r.sb.Select("COUNT(*)").From("students")
	selectQuery := r.sb.Select(studentColumns...).From("students").
		OrderBy("id ASC").
		Limit(uint64(req.Size)).
		Offset(req.Offset())
	if where != nil {
		countQuery = countQuery.Where(where)
		selectQuery = selectQuery.Where(where)
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	students, err := r.selectStudents(ctx, r.db.Pool, selectQuery)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// Save inserts a student when its id is zero and updates it otherwise.
// A nil Image on update keeps the stored picture.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) (*models.Student, error) {
	var (
		sql  string
		args []interface{}
		err  error
	)
	if student.ID == 0 {
		sql, args, err = r.sb.Insert("students").
			Columns("name", "last_name", "email", "image").
			Values(student.Name, student.LastName, student.Email, student.Image).
			Suffix("RETURNING " + joinColumns(studentColumns)).
			ToSql()
	} else {
		sql, args, err = r.sb.Update("students").
			SetMap(map[string]interface{}{
				"name":      student.Name,
				"last_name": student.LastName,
				"email":     student.Email,
				"image":     squirrel.Expr("COALESCE(?, image)", student.Image),
			}).
			Where(squirrel.Eq{"id": student.ID}).
			Suffix("RETURNING " + joinColumns(studentColumns)).
			ToSql()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build save student query: %w", err)
	}

	var saved models.Student
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&saved.ID, &saved.Name, &saved.LastName, &saved.Email, &saved.CreatedAt, &saved.HasImage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, studentEmailConstraint) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Int64("studentID", student.ID).Msg("Error saving student")
		return nil, fmt.Errorf("error saving student: %w", err)
	}
	return &saved, nil
}

// DeleteByID deletes a student without recording a cascade.
func (r *StudentRepository) DeleteByID(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}
	return nil
}

// DeleteWithOutbox deletes the student and, in the same transaction, queues
// a deletion event for course-service. It returns the queued event, or nil
// when the student did not exist.
func (r *StudentRepository) DeleteWithOutbox(ctx context.Context, id int64) (*models.StudentDeletion, error) {
	var event *models.StudentDeletion
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete student query: %w", err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error deleting student: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		sql, args, err = r.sb.Insert("student_deletion_outbox").
			Columns("student_id").
			Values(id).
			Suffix("RETURNING id, student_id, attempts, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build outbox insert query: %w", err)
		}
		var e models.StudentDeletion
		if err := tx.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.StudentID, &e.Attempts, &e.CreatedAt); err != nil {
			return fmt.Errorf("error queueing student deletion: %w", err)
		}
		event = &e
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error deleting student")
		return nil, err
	}
	return event, nil
}

// FindImage returns the stored JPEG bytes of a student.
func (r *StudentRepository) FindImage(ctx context.Context, id int64) ([]byte, error) {
	sql, args, err := r.sb.Select("image").From("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select image query: %w", err)
	}
	var image []byte
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&image); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error loading student image: %w", err)
	}
	if len(image) == 0 {
		return nil, apperrors.ErrStudentImageNotFound
	}
	return image, nil
}

func (r *StudentRepository) selectStudents(ctx context.Context, q querier, query squirrel.SelectBuilder) ([]models.Student, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select students query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing select students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.LastName, &s.Email, &s.CreatedAt, &s.HasImage); err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}
