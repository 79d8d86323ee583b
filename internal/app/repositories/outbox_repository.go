package repositories

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/logger"
)

const maxOutboxErrorLength = 500

// OutboxRepository reads and settles queued student deletions.
type OutboxRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(database *db.PostgresDB) *OutboxRepository {
	return &OutboxRepository{
		db: database,
		sb: newStatementBuilder(),
	}
}

// FindPending returns up to limit undelivered events, oldest first.
func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]models.StudentDeletion, error) {
	sql, args, err := r.sb.Select("id", "student_id", "attempts", "COALESCE(last_error, '')", "created_at").
		From("student_deletion_outbox").
		Where(squirrel.Eq{"delivered_at": nil}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending outbox query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying pending student deletions")
		return nil, fmt.Errorf("error querying outbox: %w", err)
	}
	defer rows.Close()

	events := []models.StudentDeletion{}
	for rows.Next() {
		var e models.StudentDeletion
		if err := rows.Scan(&e.ID, &e.StudentID, &e.Attempts, &e.LastError, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning outbox row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}
	return events, nil
}

// MarkDelivered settles an event so it is never sent again.
func (r *OutboxRepository) MarkDelivered(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("student_deletion_outbox").
		Set("delivered_at", squirrel.Expr("now()")).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark delivered query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error marking outbox entry %d delivered: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, cause error) error {
	msg := truncateUTF8(cause.Error(), maxOutboxErrorLength)
	sql, args, err := r.sb.Update("student_deletion_outbox").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", msg).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark failed query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error recording outbox failure %d: %w", id, err)
	}
	return nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
