package report

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
)

// ScheduledReport describes a recurring generation. Each firing collects
// the completed tasks of the project at that moment; a firing with no
// completed tasks is skipped, not failed.
type ScheduledReport struct {
	TemplateID      string
	ProjectID       string
	DestinationHint string
}

// Scheduler runs recurring report generations on cron expressions.
type Scheduler struct {
	cron        *cron.Cron
	coordinator *Coordinator
	cache       *reconciler.Cache
	logger      *slog.Logger
}

func NewScheduler(coordinator *Coordinator, cache *reconciler.Cache, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		coordinator: coordinator,
		cache:       cache,
		logger:      logger.With("module", "report_scheduler"),
	}
}

// Add registers a recurring report. The expression uses six fields, with
// seconds.
func (s *Scheduler) Add(expression string, report ScheduledReport) (cron.EntryID, error) {
	return s.cron.AddFunc(expression, func() {
		s.fire(report)
	})
}

// Remove unregisters a recurring report.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; firings already in flight run to completion.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) fire(report ScheduledReport) {
	ctx := context.Background()

	var taskIDs []string

	for _, job := range s.cache.Jobs() {
		if job.ProjectID != report.ProjectID {
			continue
		}

		for _, task := range job.Tasks {
			if task.Status == models.TaskStatusCompleted {
				taskIDs = append(taskIDs, task.ID)
			}
		}
	}

	if len(taskIDs) == 0 {
		s.logger.Info("Skipping scheduled report, no completed tasks",
			"template_id", report.TemplateID, "project_id", report.ProjectID)

		return
	}

	handle, err := s.coordinator.Generate(ctx, report.TemplateID, taskIDs, report.DestinationHint)
	if err != nil {
		s.logger.Error("Scheduled report rejected", "template_id", report.TemplateID, "error", err)

		return
	}

	<-handle.Done()

	if _, err := handle.Result(); err != nil {
		s.logger.Error("Scheduled report failed", "template_id", report.TemplateID, "error", err)
	}
}
