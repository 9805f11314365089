package models

import "time"

// JobStatus is the lifecycle state of a dispatched batch.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	// JobStatusAwaitingReview means every task finished but an operator has
	// not yet accepted the results. It is operator-driven, not derived.
	JobStatusAwaitingReview JobStatus = "awaiting_review"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
)

// Job is one dispatched batch of automation work: a workflow snapshot plus
// one task per target. Shape is immutable after creation; only Status and
// the child tasks change, and only on the runner's authority.
type Job struct {
	ID           string    `json:"id"`
	WorkflowID   string    `json:"workflow_id"`
	WorkflowName string    `json:"workflow_name"`
	ProjectID    string    `json:"project_id,omitempty"`
	Status       JobStatus `json:"status"`
	Tasks        []*Task   `json:"tasks"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskByID returns the child task with the given id, or nil.
func (j *Job) TaskByID(id string) *Task {
	for _, t := range j.Tasks {
		if t.ID == id {
			return t
		}
	}

	return nil
}

// HasActiveTasks reports whether any task is still pending or processing.
func (j *Job) HasActiveTasks() bool {
	for _, t := range j.Tasks {
		if !t.Status.Terminal() {
			return true
		}
	}

	return false
}

// TaskStatus is the lifecycle state of a single unit of work.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is final absent an explicit rerun.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is the state and result of running a workflow once against one
// target. Tasks are created exactly once by the runner at job creation;
// a rerun resets an existing task back to pending, it never creates a new
// one. All transitions are observed from the runner, never predicted.
type Task struct {
	ID            string      `json:"id"`
	JobID         string      `json:"job_id"`
	CorrelationID string      `json:"correlation_id"`
	Status        TaskStatus  `json:"status"`
	Result        *TaskResult `json:"result,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
}

// CanRerun reports whether a client-initiated rerun is legal. Reruns are
// allowed from failed and from completed (manual re-execution of a
// successful task), never while the runner still owns the task.
func (t *Task) CanRerun() bool {
	return t.Status == TaskStatusFailed || t.Status == TaskStatusCompleted
}

// TaskResult holds what a completed run extracted. Both collections may be
// empty: a task can complete with nothing to show.
type TaskResult struct {
	Screenshots []Screenshot      `json:"screenshots,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// Screenshot is one captured image reference.
type Screenshot struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
