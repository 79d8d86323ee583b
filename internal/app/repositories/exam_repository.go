package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
	"gorm.io/gorm"
)

var (
	// ErrExamNotFound is returned when an exam id does not exist.
	ErrExamNotFound = fmt.Errorf("exam %w", apperrors.ErrResourceNotFound)
	// ErrSubjectNotFound is returned when a subject id does not exist.
	ErrSubjectNotFound = fmt.Errorf("subject %w", apperrors.ErrResourceNotFound)
)

// ExamRepository persists exams, their questions and subjects through gorm.
type ExamRepository struct {
	db *gorm.DB
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(gdb *gorm.DB) *ExamRepository {
	return &ExamRepository{db: gdb}
}

func (r *ExamRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("SubjectFather").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id ASC") })
}

// FindAll retrieves all exams with questions and subject
func (r *ExamRepository) FindAll(ctx context.Context) ([]models.Exam, error) {
	exams := []models.Exam{}
	if err := r.withAssociations(ctx).Order("id ASC").Find(&exams).Error; err != nil {
		logger.Error().Err(err).Msg("Error loading exams")
		return nil, fmt.Errorf("error loading exams: %w", err)
	}
	return exams, nil
}

// FindByID retrieves an exam by ID
func (r *ExamRepository) FindByID(ctx context.Context, id int64) (*models.Exam, error) {
	return r.findByID(r.withAssociations(ctx), id)
}

func (r *ExamRepository) findByID(tx *gorm.DB, id int64) (*models.Exam, error) {
	var exam models.Exam
	if err := tx.First(&exam, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("error loading exam %d: %w", id, err)
	}
	return &exam, nil
}

// FindAllPage retrieves one page of exams ordered by id
func (r *ExamRepository) FindAllPage(ctx context.Context, req models.PageRequest) ([]models.Exam, int64, error) {
	return r.page(ctx, nil, req)
}

// FindByName lists exams whose name contains text, ignoring case.
func (r *ExamRepository) FindByName(ctx context.Context, text string) ([]models.Exam, error) {
	exams := []models.Exam{}
	err := r.withAssociations(ctx).
		Where("name ILIKE ?", containsPattern(text)).
		Order("id ASC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("error filtering exams: %w", err)
	}
	return exams, nil
}

// SearchByNamePage is the paginated form of FindByName.
func (r *ExamRepository) SearchByNamePage(ctx context.Context, text string, req models.PageRequest) ([]models.Exam, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("name ILIKE ?", containsPattern(text))
	}, req)
}

func (r *ExamRepository) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, req models.PageRequest) ([]models.Exam, int64, error) {
	countQuery := r.db.WithContext(ctx).Model(&models.Exam{})
	listQuery := r.withAssociations(ctx)
	if scope != nil {
		countQuery = countQuery.Scopes(scope)
		listQuery = listQuery.Scopes(scope)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		logger.Error().Err(err).Msg("Error counting exams")
		return nil, 0, fmt.Errorf("error counting exams: %w", err)
	}

	exams := []models.Exam{}
	err := listQuery.Order("id ASC").
		Offset(int(req.Offset())).
		Limit(req.Size).
		Find(&exams).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error loading exam page: %w", err)
	}
	return exams, total, nil
}

// Save creates an exam with its questions when the id is zero. Otherwise it
// updates the exam and makes its question set equal to exam.Questions:
// questions carrying an id are updated, the rest are created and any stored
// question left out is deleted.
func (r *ExamRepository) Save(ctx context.Context, exam *models.Exam) (*models.Exam, error) {
	if exam.SubjectFather != nil {
		id := exam.SubjectFather.ID
		exam.SubjectFatherID = &id
	} else {
		exam.SubjectFatherID = nil
	}

	var saved *models.Exam
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if exam.ID == 0 {
			for i := range exam.Questions {
				exam.Questions[i].ID = 0
			}
			if err := tx.Omit("SubjectFather").Create(exam).Error; err != nil {
				return fmt.Errorf("error creating exam: %w", err)
			}
		} else {
			if _, err := r.findByID(tx, exam.ID); err != nil {
				return err
			}
			err := tx.Model(&models.Exam{ID: exam.ID}).
				Select("name", "subject_father_id").
				Updates(map[string]interface{}{
					"name":              exam.Name,
					"subject_father_id": exam.SubjectFatherID,
				}).Error
			if err != nil {
				return fmt.Errorf("error updating exam: %w", err)
			}
			if err := r.replaceQuestions(tx, exam.ID, exam.Questions); err != nil {
				return err
			}
		}

		var err error
		saved, err = r.findByID(tx.Preload("SubjectFather").
			Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id ASC") }), exam.ID)
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			logger.Error().Err(err).Int64("examID", exam.ID).Msg("Error saving exam")
		}
		return nil, err
	}
	return saved, nil
}

func (r *ExamRepository) replaceQuestions(tx *gorm.DB, examID int64, questions []models.Question) error {
	keep := make([]int64, 0, len(questions))
	for _, q := range questions {
		if q.ID != 0 {
			keep = append(keep, q.ID)
		}
	}

	prune := tx.Where("exam_id = ?", examID)
	if len(keep) > 0 {
		prune = prune.Where("id NOT IN ?", keep)
	}
	if err := prune.Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("error pruning questions: %w", err)
	}

	for _, q := range questions {
		q.ExamID = examID
		if q.ID == 0 {
			if err := tx.Create(&q).Error; err != nil {
				return fmt.Errorf("error creating question: %w", err)
			}
			continue
		}
		res := tx.Model(&models.Question{}).
			Where("id = ? AND exam_id = ?", q.ID, examID).
			Update("text", q.Text)
		if res.Error != nil {
			return fmt.Errorf("error updating question %d: %w", q.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// The id belongs to another exam or no longer exists.
			q.ID = 0
			if err := tx.Create(&q).Error; err != nil {
				return fmt.Errorf("error creating question: %w", err)
			}
		}
	}
	return nil
}

// DeleteByID deletes an exam; its questions are removed by the foreign key.
func (r *ExamRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		logger.Error().Err(err).Int64("examID", id).Msg("Error deleting exam")
		return fmt.Errorf("error deleting exam: %w", err)
	}
	return nil
}

// FindAllSubjects lists every subject ordered by name.
func (r *ExamRepository) FindAllSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects := []models.Subject{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("error loading subjects: %w", err)
	}
	return subjects, nil
}

// FindSubjectByID retrieves a subject by ID
func (r *ExamRepository) FindSubjectByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error loading subject %d: %w", id, err)
	}
	return &subject, nil
}

// EnsureSubject returns the subject with the given name, creating it if needed.
func (r *ExamRepository) EnsureSubject(ctx context.Context, name string) (*models.Subject, error) {
	subject := models.Subject{Name: name}
	if err := r.db.WithContext(ctx).Where(models.Subject{Name: name}).FirstOrCreate(&subject).Error; err != nil {
		return nil, fmt.Errorf("error ensuring subject %q: %w", name, err)
	}
	return &subject, nil
}

// FindExamIDsByQuestionIDs returns the distinct ids of the exams owning the
// given questions, in ascending order.
func (r *ExamRepository) FindExamIDsByQuestionIDs(ctx context.Context, questionIDs []int64) ([]int64, error) {
	ids := []int64{}
	if len(questionIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", questionIDs).
		Distinct("exam_id").
		Order("exam_id ASC").
		Pluck("exam_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("error resolving exams by questions: %w", err)
	}
	return ids, nil
}

// AutoMigrate creates or updates the exam schema.
func (r *ExamRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Subject{}, &models.Exam{}, &models.Question{})
}
