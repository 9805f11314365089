package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/events"
	"github.com/talentdeck/talentdeck/pkg/models"
)

// ScopeKind selects what a polling session watches.
type ScopeKind string

const (
	ScopeJob     ScopeKind = "job"
	ScopeProject ScopeKind = "project"
)

// Scope identifies one polling session: a single job or every job of a
// project. Sessions over overlapping scopes are independent caches and may
// transiently disagree.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func (s Scope) Key() string {
	return string(s.Kind) + ":" + s.ID
}

type fetchFunc func(ctx context.Context) ([]*models.Job, error)

// Session polls one scope on a fixed interval until its stop predicate
// fires or a fetch fails. The loop is a single goroutine, so at most one
// fetch is ever in flight; an interval tick that would overlap an
// outstanding fetch is coalesced away, never run concurrently.
type Session struct {
	scope    Scope
	interval time.Duration
	fetch    fetchFunc
	cache    *Cache
	bus      eventbus.EventPublisher
	logger   *slog.Logger

	cancel     context.CancelFunc
	cancelled  atomic.Bool
	stopOnce   sync.Once
	notifyOnce sync.Once
	done       chan struct{}
	onStop     func(*Session)
}

func newSession(scope Scope, interval time.Duration, fetch fetchFunc, cache *Cache,
	bus eventbus.EventPublisher, logger *slog.Logger, onStop func(*Session),
) *Session {
	return &Session{
		scope:    scope,
		interval: interval,
		fetch:    fetch,
		cache:    cache,
		bus:      bus,
		logger:   logger.With("scope", scope.Key()),
		done:     make(chan struct{}),
		onStop:   onStop,
	}
}

// Scope returns the session's scope.
func (s *Session) Scope() Scope {
	return s.scope
}

// Done is closed once the session has fully stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels the session. Idempotent; a fetch already in flight is not
// aborted server-side, but its result is discarded, never merged.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancelled.Store(true)

		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Session) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.onStop(s)
	defer s.Stop()

	// First poll immediately so the view is warm before the first tick.
	if !s.poll(ctx) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.poll(ctx) {
				return
			}
		}
	}
}

// poll runs one fetch-merge-evaluate cycle and reports whether polling
// should continue.
func (s *Session) poll(ctx context.Context) bool {
	jobs, err := s.fetch(ctx)

	// A response that lands after cancellation is stale: drop it before
	// it can overwrite newer state.
	if s.cancelled.Load() {
		return false
	}

	if err != nil {
		// Fail-stop: no backoff, no silent retry. The operator re-opens
		// the view or re-creates the job to recover.
		s.logger.ErrorContext(ctx, "Polling fetch failed, stopping session", "error", err)
		s.publish(ctx, events.JobPollFailed{
			BaseEvent: events.NewBaseEvent(events.JobPollFailedEvent),
			Scope:     s.scope.Key(),
			Error:     err.Error(),
		})

		return false
	}

	s.cache.ApplyJobs(jobs)

	// Stop predicate, evaluated on the merged state: continue iff any
	// task in scope is still pending or processing.
	if anyActive(jobs) {
		return true
	}

	s.notifyFinished(ctx, jobs)

	return false
}

func (s *Session) notifyFinished(ctx context.Context, jobs []*models.Job) {
	s.notifyOnce.Do(func() {
		completed, failed := 0, 0

		for _, job := range jobs {
			for _, task := range job.Tasks {
				switch task.Status {
				case models.TaskStatusCompleted:
					completed++
				case models.TaskStatusFailed:
					failed++
				}
			}
		}

		s.logger.InfoContext(ctx, "All tasks finished", "completed", completed, "failed", failed)
		s.publish(ctx, events.JobTasksFinished{
			BaseEvent:      events.NewBaseEvent(events.JobTasksFinishedEvent),
			Scope:          s.scope.Key(),
			CompletedCount: completed,
			FailedCount:    failed,
		})
	})
}

func (s *Session) publish(ctx context.Context, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, s.scope.Key(), event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func anyActive(jobs []*models.Job) bool {
	for _, job := range jobs {
		if job.HasActiveTasks() {
			return true
		}
	}

	return false
}
