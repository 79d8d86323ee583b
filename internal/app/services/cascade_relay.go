package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// OutboxRepository gives access to queued student deletions.
type OutboxRepository interface {
	FindPending(ctx context.Context, limit int) ([]models.StudentDeletion, error)
	MarkDelivered(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause error) error
}

// CourseNotifier tells course-service that a student is gone.
type CourseNotifier interface {
	DeleteCourseStudent(ctx context.Context, studentID int64) error
}

// CascadeRelay delivers queued student deletions to course-service at least
// once. Deliver is used right after a delete; Run sweeps whatever is still
// pending on a fixed interval.
type CascadeRelay struct {
	outbox    OutboxRepository
	courses   CourseNotifier
	interval  time.Duration
	batchSize int

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewCascadeRelay creates a relay sweeping every interval in batches.
func NewCascadeRelay(outbox OutboxRepository, courses CourseNotifier, interval time.Duration, batchSize int) *CascadeRelay {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &CascadeRelay{
		outbox:    outbox,
		courses:   courses,
		interval:  interval,
		batchSize: batchSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Deliver sends one event and settles its outbox row. It reports whether
// course-service acknowledged the event.
func (r *CascadeRelay) Deliver(ctx context.Context, event models.StudentDeletion) bool {
	if err := r.courses.DeleteCourseStudent(ctx, event.StudentID); err != nil {
		logger.Warn().Err(err).
			Int64("eventID", event.ID).
			Int64("studentID", event.StudentID).
			Int("attempts", event.Attempts+1).
			Msg("Cascade delivery failed, will retry")
		if markErr := r.outbox.MarkFailed(ctx, event.ID, err); markErr != nil {
			logger.Error().Err(markErr).Int64("eventID", event.ID).Msg("Failed to record cascade failure")
		}
		return false
	}
	if err := r.outbox.MarkDelivered(ctx, event.ID); err != nil {
		// The event will be sent again; course-service handles duplicates.
		logger.Error().Err(err).Int64("eventID", event.ID).Msg("Failed to mark cascade delivered")
		return true
	}
	logger.Debug().Int64("eventID", event.ID).Int64("studentID", event.StudentID).Msg("Cascade delivered")
	return true
}

// Sweep attempts every pending event once, oldest first, and returns how
// many were delivered.
func (r *CascadeRelay) Sweep(ctx context.Context) (int, error) {
	events, err := r.outbox.FindPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, e := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if r.Deliver(ctx, e) {
			delivered++
		}
	}
	if len(events) > 0 {
		logger.Info().Int("pending", len(events)).Int("delivered", delivered).Msg("Cascade sweep finished")
	}
	return delivered, nil
}

// Run sweeps until ctx is cancelled or Stop is called.
func (r *CascadeRelay) Run(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", r.interval).Int("batchSize", r.batchSize).Msg("Cascade relay started")
	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Cascade sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends Run and waits for the current sweep to finish or ctx to expire.
func (r *CascadeRelay) Stop(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.stop) })
	if !r.started.Load() {
		return
	}
	select {
	case <-r.done:
	case <-ctx.Done():
	}
}
