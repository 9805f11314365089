// Package report orchestrates report-artifact generation from completed
// task results. The backend does all the work in one opaque remote call;
// the coordinator layers a staged display progress on top of it.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/events"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/runner"
)

var (
	// ErrNoTasks is returned when Generate is called without task ids.
	ErrNoTasks = errors.New("report needs at least one task")

	// ErrTaskNotEligible is returned when a referenced task is unknown or
	// not completed. Checked before any remote call.
	ErrTaskNotEligible = errors.New("task is not eligible for reporting")
)

// Stage is one named display stage. The sequence is fixed; it mirrors
// what the backend does server-side but is advanced by a local clock, not
// by real progress signals (the backend reports only the final outcome).
type Stage string

const (
	StageCopyTemplate     Stage = "copy_template"
	StageAggregateResults Stage = "aggregate_results"
	StageWriteRows        Stage = "write_rows"
	StageSetPermissions   Stage = "set_permissions"
)

// Stages returns the display sequence in order.
func Stages() []Stage {
	return []Stage{StageCopyTemplate, StageAggregateResults, StageWriteRows, StageSetPermissions}
}

type StageStatus string

const (
	StagePending  StageStatus = "pending"
	StageRunning  StageStatus = "running"
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
)

// Progress is the display state of one stage.
type Progress struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
}

// Handle tracks one in-flight generation. The display track advances on a
// timer; the authoritative track is the remote response, which reconciles
// every remaining stage to complete the instant it arrives. The staged
// view is a UX simulation, not a progress measurement.
type Handle struct {
	ID         string
	TemplateID string

	mu       sync.Mutex
	stages   []Stage
	advanced int
	finished bool
	artifact *runner.ReportArtifact
	err      error
	done     chan struct{}
}

func newHandle(templateID string) *Handle {
	return &Handle{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		stages:     Stages(),
		done:       make(chan struct{}),
	}
}

// Done is closed when the authoritative result has arrived.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Snapshot returns the current display state of every stage.
func (h *Handle) Snapshot() []Progress {
	h.mu.Lock()
	defer h.mu.Unlock()

	progress := make([]Progress, len(h.stages))

	for i, stage := range h.stages {
		status := StagePending

		switch {
		case h.finished && h.err != nil:
			// Atomic failure: completed display stages stay, the running
			// one flips to failed, the rest never started.
			if i < h.advanced {
				status = StageComplete
			} else if i == h.advanced {
				status = StageFailed
			}
		case h.finished || i < h.advanced:
			status = StageComplete
		case i == h.advanced:
			status = StageRunning
		}

		progress[i] = Progress{Stage: stage, Status: status}
	}

	return progress
}

// Result returns the artifact or error; only valid after Done is closed.
func (h *Handle) Result() (*runner.ReportArtifact, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.artifact, h.err
}

// advance moves the display track forward one stage. The final stage is
// never completed by the timer: only the real response finishes it.
func (h *Handle) advance() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished || h.advanced >= len(h.stages)-1 {
		return false
	}

	h.advanced++

	return true
}

func (h *Handle) complete(artifact *runner.ReportArtifact, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished {
		return
	}

	h.finished = true
	h.artifact = artifact
	h.err = err
	close(h.done)
}

// DefaultStageInterval is how often the display track advances while the
// remote call is outstanding.
const DefaultStageInterval = time.Second

// Coordinator validates eligibility and runs generations.
type Coordinator struct {
	runner        runner.Client
	cache         *reconciler.Cache
	bus           eventbus.EventPublisher
	logger        *slog.Logger
	stageInterval time.Duration

	mu      sync.Mutex
	handles map[string]*Handle
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithStageInterval overrides the display-stage advance period.
func WithStageInterval(interval time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.stageInterval = interval
	}
}

func NewCoordinator(client runner.Client, cache *reconciler.Cache, bus eventbus.EventPublisher,
	logger *slog.Logger, opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		runner:        client,
		cache:         cache,
		bus:           bus,
		logger:        logger.With("module", "report"),
		stageInterval: DefaultStageInterval,
		handles:       make(map[string]*Handle),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Generate starts one report generation. Every referenced task must be
// completed; the whole operation fails atomically, no partial artifact is
// ever exposed.
func (c *Coordinator) Generate(ctx context.Context, templateID string, taskIDs []string, destinationHint string) (*Handle, error) {
	if len(taskIDs) == 0 {
		return nil, ErrNoTasks
	}

	for _, taskID := range taskIDs {
		task := c.cache.TaskByID(taskID)
		if task == nil {
			return nil, fmt.Errorf("%w: %s is unknown", ErrTaskNotEligible, taskID)
		}

		if task.Status != models.TaskStatusCompleted {
			return nil, fmt.Errorf("%w: %s is %s", ErrTaskNotEligible, taskID, task.Status)
		}
	}

	handle := newHandle(templateID)

	c.mu.Lock()
	c.handles[handle.ID] = handle
	c.mu.Unlock()

	// The generation outlives the caller's request.
	go c.advanceLoop(handle)
	go c.execute(context.WithoutCancel(ctx), handle, runner.ReportRequest{
		TemplateID:      templateID,
		TaskIDs:         taskIDs,
		DestinationHint: destinationHint,
	})

	return handle, nil
}

// HandleByID returns a running or finished handle, or nil.
func (c *Coordinator) HandleByID(id string) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.handles[id]
}

func (c *Coordinator) advanceLoop(handle *Handle) {
	ticker := time.NewTicker(c.stageInterval)
	defer ticker.Stop()

	for {
		select {
		case <-handle.Done():
			return
		case <-ticker.C:
			if !handle.advance() {
				return
			}
		}
	}
}

func (c *Coordinator) execute(ctx context.Context, handle *Handle, req runner.ReportRequest) {
	artifact, err := c.runner.GenerateReport(ctx, req)
	handle.complete(artifact, err)

	if err != nil {
		c.logger.ErrorContext(ctx, "Report generation failed", "template_id", req.TemplateID, "error", err)
		c.publish(ctx, handle.ID, events.ReportFailed{
			BaseEvent:  events.NewBaseEvent(events.ReportFailedEvent),
			ReportID:   handle.ID,
			TemplateID: req.TemplateID,
			Error:      err.Error(),
		})

		return
	}

	c.logger.InfoContext(ctx, "Report generated", "template_id", req.TemplateID, "file_name", artifact.FileName)
	c.publish(ctx, handle.ID, events.ReportGenerated{
		BaseEvent:   events.NewBaseEvent(events.ReportGeneratedEvent),
		ReportID:    handle.ID,
		TemplateID:  req.TemplateID,
		ArtifactURL: artifact.ArtifactURL,
		FileName:    artifact.FileName,
	})
}

func (c *Coordinator) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.bus == nil {
		return
	}

	if err := c.bus.Publish(ctx, key, event); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
