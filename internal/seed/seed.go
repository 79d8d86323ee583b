package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/app/models"
)

// DefaultSubjects are created on the first start of exam-service.
var DefaultSubjects = []string{"Mathematics", "Physics", "Chemistry", "History", "Literature"}

// SubjectStore creates a subject unless one with the same name exists.
type SubjectStore interface {
	EnsureSubject(ctx context.Context, name string) (*models.Subject, error)
}

// CreateDefaultSubjects makes sure every default subject exists. It keeps
// going after a failure and returns all errors joined.
func CreateDefaultSubjects(ctx context.Context, store SubjectStore, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default subjects...")
	var finalErr error
	for _, name := range DefaultSubjects {
		subject, err := store.EnsureSubject(ctx, name)
		if err != nil {
			lgr.Error().Err(err).Str("subject", name).Msg("Error creating default subject")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Debug().Str("subject", subject.Name).Int64("id", subject.ID).Msg("Subject ready")
	}
	return finalErr
}
