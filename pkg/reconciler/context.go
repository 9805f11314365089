// Package reconciler keeps a local cache of job and task state eventually
// consistent with the execution backend through periodic polling, at
// bounded cost and with a clean stop condition.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/runner"
)

// DefaultInterval is the poll period between fetches of a scope.
const DefaultInterval = 5 * time.Second

// ErrDisposed is returned when starting a session on a disposed context.
var ErrDisposed = errors.New("reconciler context is disposed")

// Context owns the cache and every polling session. Callers hold it
// explicitly and drive its start/stop/dispose lifecycle; there is no
// ambient global state.
type Context struct {
	runner   runner.Client
	bus      eventbus.EventPublisher
	logger   *slog.Logger
	interval time.Duration
	cache    *Cache

	mu       sync.Mutex
	sessions map[string]*Session
	disposed bool
}

// Option configures a Context.
type Option func(*Context)

// WithInterval overrides the poll interval.
func WithInterval(interval time.Duration) Option {
	return func(rc *Context) {
		rc.interval = interval
	}
}

func NewContext(client runner.Client, bus eventbus.EventPublisher, logger *slog.Logger, opts ...Option) *Context {
	rc := &Context{
		runner:   client,
		bus:      bus,
		logger:   logger.With("module", "reconciler"),
		interval: DefaultInterval,
		cache:    NewCache(),
		sessions: make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(rc)
	}

	return rc
}

// Cache returns the shared job/task cache.
func (rc *Context) Cache() *Cache {
	return rc.cache
}

// StartJobSession begins polling a single job. Starting a scope that is
// already being polled returns the existing session.
func (rc *Context) StartJobSession(ctx context.Context, jobID string) (*Session, error) {
	scope := Scope{Kind: ScopeJob, ID: jobID}

	return rc.startSession(ctx, scope, func(ctx context.Context) ([]*models.Job, error) {
		job, err := rc.runner.JobByID(ctx, jobID)
		if err != nil {
			return nil, err
		}

		return []*models.Job{job}, nil
	})
}

// StartProjectSession begins polling every job of a project.
func (rc *Context) StartProjectSession(ctx context.Context, projectID string) (*Session, error) {
	scope := Scope{Kind: ScopeProject, ID: projectID}

	return rc.startSession(ctx, scope, func(ctx context.Context) ([]*models.Job, error) {
		return rc.runner.JobsByProject(ctx, projectID)
	})
}

func (rc *Context) startSession(ctx context.Context, scope Scope, fetch fetchFunc) (*Session, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.disposed {
		return nil, ErrDisposed
	}

	if existing, ok := rc.sessions[scope.Key()]; ok {
		return existing, nil
	}

	session := newSession(scope, rc.interval, fetch, rc.cache, rc.bus, rc.logger, rc.removeSession)
	rc.sessions[scope.Key()] = session
	session.start(ctx)

	return session, nil
}

func (rc *Context) removeSession(s *Session) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if current, ok := rc.sessions[s.scope.Key()]; ok && current == s {
		delete(rc.sessions, s.scope.Key())
	}
}

// StopSession cancels the session for a scope, if one is running.
// Idempotent.
func (rc *Context) StopSession(scope Scope) {
	rc.mu.Lock()
	session := rc.sessions[scope.Key()]
	rc.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

// ActiveSessions returns the keys of every running session.
func (rc *Context) ActiveSessions() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	keys := make([]string, 0, len(rc.sessions))
	for key := range rc.sessions {
		keys = append(keys, key)
	}

	return keys
}

// Dispose stops every session and rejects further starts. Safe to call
// more than once.
func (rc *Context) Dispose() {
	rc.mu.Lock()
	rc.disposed = true

	sessions := make([]*Session, 0, len(rc.sessions))
	for _, s := range rc.sessions {
		sessions = append(sessions, s)
	}
	rc.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
		<-s.Done()
	}
}
