package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/classroom/internal/app/models"
)

// CrudRepository is the storage contract shared by every entity family.
// FindByID reports a missing id with an error wrapping
// apperrors.ErrResourceNotFound; DeleteByID treats a missing id as success.
type CrudRepository[T any, ID comparable] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id ID) (*T, error)
	Save(ctx context.Context, entity *T) (*T, error)
	DeleteByID(ctx context.Context, id ID) error
	FindAllPage(ctx context.Context, req models.PageRequest) ([]T, int64, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into an ILIKE pattern matching it as a
// literal substring.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(text)) + "%"
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
