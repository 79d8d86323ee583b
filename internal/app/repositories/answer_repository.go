package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const answersCollection = "answers"

// ErrAnswerNotFound is returned when an answer id does not exist.
var ErrAnswerNotFound = fmt.Errorf("answer %w", apperrors.ErrResourceNotFound)

// AnswerRepository stores answers as documents keyed by a hex string id.
type AnswerRepository struct {
	coll *mongo.Collection
}

// NewAnswerRepository creates a new AnswerRepository
func NewAnswerRepository(mdb *db.MongoDB) *AnswerRepository {
	return &AnswerRepository{coll: mdb.Database.Collection(answersCollection)}
}

// EnsureIndexes creates the lookup indexes used by the student queries.
func (r *AnswerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "studentId", Value: 1}}},
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "examId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create answer indexes: %w", err)
	}
	return nil
}

func byID() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

// FindAll retrieves every answer
func (r *AnswerRepository) FindAll(ctx context.Context) ([]models.Answer, error) {
	return r.find(ctx, bson.D{}, byID())
}

// FindByID retrieves an answer by ID
func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	var answer models.Answer
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&answer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAnswerNotFound
		}
		logger.Error().Err(err).Str("answerID", id).Msg("Error loading answer")
		return nil, fmt.Errorf("error loading answer: %w", err)
	}
	return &answer, nil
}

// FindAllPage retrieves one page of answers ordered by id
func (r *AnswerRepository) FindAllPage(ctx context.Context, req models.PageRequest) ([]models.Answer, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("error counting answers: %w", err)
	}
	answers, err := r.find(ctx, bson.D{}, byID().
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.Size)))
	if err != nil {
		return nil, 0, err
	}
	return answers, total, nil
}

// Save inserts an answer without id and replaces an existing one otherwise.
func (r *AnswerRepository) Save(ctx context.Context, answer *models.Answer) (*models.Answer, error) {
	doc := *answer
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			logger.Error().Err(err).Msg("Error inserting answer")
			return nil, fmt.Errorf("error inserting answer: %w", err)
		}
		return &doc, nil
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		logger.Error().Err(err).Str("answerID", doc.ID).Msg("Error replacing answer")
		return nil, fmt.Errorf("error replacing answer: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrAnswerNotFound
	}
	return &doc, nil
}

// SaveAll inserts a batch of new answers and returns them with ids assigned,
// in input order.
func (r *AnswerRepository) SaveAll(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	saved := make([]models.Answer, len(answers))
	if len(answers) == 0 {
		return saved, nil
	}
	docs := make([]interface{}, len(answers))
	for i, a := range answers {
		a.ID = primitive.NewObjectID().Hex()
		saved[i] = a
		docs[i] = a
	}
	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		logger.Error().Err(err).Int("count", len(docs)).Msg("Error inserting answers")
		return nil, fmt.Errorf("error inserting answers: %w", err)
	}
	return saved, nil
}

// DeleteByID removes an answer; a missing id is not an error.
func (r *AnswerRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		logger.Error().Err(err).Str("answerID", id).Msg("Error deleting answer")
		return fmt.Errorf("error deleting answer: %w", err)
	}
	return nil
}

// FindByStudentAndExam lists the answers a student gave in one exam.
func (r *AnswerRepository) FindByStudentAndExam(ctx context.Context, studentID, examID int64) ([]models.Answer, error) {
	return r.find(ctx, bson.M{"studentId": studentID, "examId": examID}, byID())
}

// FindByStudent lists every answer of a student.
func (r *AnswerRepository) FindByStudent(ctx context.Context, studentID int64) ([]models.Answer, error) {
	return r.find(ctx, bson.M{"studentId": studentID}, byID())
}

// FindExamIDsByStudent returns the distinct exam ids a student answered,
// ascending.
func (r *AnswerRepository) FindExamIDsByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	values, err := r.coll.Distinct(ctx, "examId", bson.M{"studentId": studentID})
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error listing answered exams")
		return nil, fmt.Errorf("error listing answered exams: %w", err)
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int64:
			ids = append(ids, n)
		case int32:
			ids = append(ids, int64(n))
		case float64:
			ids = append(ids, int64(n))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *AnswerRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Answer, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying answers")
		return nil, fmt.Errorf("error querying answers: %w", err)
	}
	answers := []models.Answer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, fmt.Errorf("error decoding answers: %w", err)
	}
	return answers, nil
}
