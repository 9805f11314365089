package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/runner"
)

var errTaskUnknown = fmt.Errorf("task not tracked: %w", runner.ErrNotFound)

// Job exposes job and task mutations. The backend stays the sole state
// authority: the service never writes status transitions into the local
// cache, it only marks mutations in flight so the UI can grey out a row
// until the next poll confirms the new state.
type Job struct {
	runner runner.Client
	cache  *reconciler.Cache
	logger *slog.Logger
}

func NewJob(client runner.Client, cache *reconciler.Cache, logger *slog.Logger) *Job {
	return &Job{
		runner: client,
		cache:  cache,
		logger: logger.With("module", "job_service"),
	}
}

// Jobs returns the cached view of every tracked job.
func (j *Job) Jobs() []*models.Job {
	return j.cache.Jobs()
}

// ByID returns the cached job, falling back to a direct fetch for jobs
// not yet tracked by any polling session.
func (j *Job) ByID(ctx context.Context, jobID string) (*models.Job, error) {
	if job := j.cache.JobByID(jobID); job != nil {
		return job, nil
	}

	job, err := j.runner.JobByID(ctx, jobID)

	return job, serviceError("fetching job", jobID, err)
}

// Complete marks a job reviewed. Requires operator confirmation.
func (j *Job) Complete(ctx context.Context, jobID string, confirmed bool) error {
	if !confirmed {
		return serviceError("completing job", jobID, ErrNotConfirmed)
	}

	if err := j.runner.CompleteJob(ctx, jobID); err != nil {
		return serviceError("completing job", jobID, err)
	}

	j.logger.InfoContext(ctx, "Job completed", "job_id", jobID)

	return nil
}

// Delete removes a job. The backend rejects it while any task remains;
// that rejection is surfaced unchanged.
func (j *Job) Delete(ctx context.Context, jobID string, confirmed bool) error {
	if !confirmed {
		return serviceError("deleting job", jobID, ErrNotConfirmed)
	}

	if err := j.runner.DeleteJob(ctx, jobID); err != nil {
		return serviceError("deleting job", jobID, err)
	}

	j.cache.Remove(jobID)
	j.logger.InfoContext(ctx, "Job deleted", "job_id", jobID)

	return nil
}

// RerunTask resets a task back to pending. Only failed and completed
// tasks qualify; anything mid-flight is rejected before the remote call.
func (j *Job) RerunTask(ctx context.Context, taskID string, confirmed bool) error {
	if !confirmed {
		return serviceError("rerunning task", taskID, ErrNotConfirmed)
	}

	task := j.cache.TaskByID(taskID)
	if task == nil {
		return serviceError("rerunning task", taskID, errTaskUnknown)
	}

	if !task.CanRerun() {
		return serviceError("rerunning task", taskID,
			fmt.Errorf("%w: status is %s", ErrRerunNotAllowed, task.Status))
	}

	if j.cache.MutationInFlight(taskID) {
		return serviceError("rerunning task", taskID, ErrMutationInFlight)
	}

	j.cache.MarkMutationInFlight(taskID)

	if err := j.runner.RerunTask(ctx, taskID); err != nil {
		j.cache.ClearMutationInFlight(taskID)

		return serviceError("rerunning task", taskID, err)
	}

	j.logger.InfoContext(ctx, "Task rerun requested", "task_id", taskID)

	return nil
}

// DeleteTask removes a task from its parent job.
func (j *Job) DeleteTask(ctx context.Context, taskID string, confirmed bool) error {
	if !confirmed {
		return serviceError("deleting task", taskID, ErrNotConfirmed)
	}

	if j.cache.TaskByID(taskID) == nil {
		return serviceError("deleting task", taskID, errTaskUnknown)
	}

	if j.cache.MutationInFlight(taskID) {
		return serviceError("deleting task", taskID, ErrMutationInFlight)
	}

	j.cache.MarkMutationInFlight(taskID)

	if err := j.runner.DeleteTask(ctx, taskID); err != nil {
		j.cache.ClearMutationInFlight(taskID)

		return serviceError("deleting task", taskID, err)
	}

	j.logger.InfoContext(ctx, "Task deleted", "task_id", taskID)

	return nil
}
