// Package events defines event types for job and report lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the bus topic all lifecycle events are published on.
const Topic = "talentdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Job lifecycle events.
	JobCreatedEvent       EventType = "job.created"
	JobTasksFinishedEvent EventType = "job.tasks_finished"
	JobPollFailedEvent    EventType = "job.poll_failed"

	// Report lifecycle events.
	ReportGeneratedEvent EventType = "report.generated"
	ReportFailedEvent    EventType = "report.failed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// JobCreated is published after the runner acknowledges a new job.
type JobCreated struct {
	BaseEvent

	JobID      string `json:"job_id"`
	WorkflowID string `json:"workflow_id"`
	ProjectID  string `json:"project_id,omitempty"`
	TargetSize int    `json:"target_size"`
}

func (e JobCreated) GetType() EventType {
	return JobCreatedEvent
}

// JobTasksFinished is published exactly once per polling session when its
// stop predicate fires: no task in scope is pending or processing anymore.
type JobTasksFinished struct {
	BaseEvent

	Scope          string `json:"scope"`
	CompletedCount int    `json:"completed_count"`
	FailedCount    int    `json:"failed_count"`
}

func (e JobTasksFinished) GetType() EventType {
	return JobTasksFinishedEvent
}

// JobPollFailed is published when a polling session fail-stops on a fetch
// error. The session is already cancelled; recovery is the operator's call.
type JobPollFailed struct {
	BaseEvent

	Scope string `json:"scope"`
	Error string `json:"error"`
}

func (e JobPollFailed) GetType() EventType {
	return JobPollFailedEvent
}

// ReportGenerated is published when a report artifact has been produced.
type ReportGenerated struct {
	BaseEvent

	ReportID    string `json:"report_id"`
	TemplateID  string `json:"template_id"`
	ArtifactURL string `json:"artifact_url"`
	FileName    string `json:"file_name"`
}

func (e ReportGenerated) GetType() EventType {
	return ReportGeneratedEvent
}

// ReportFailed is published when report generation fails. The operation is
// atomic: no partial artifact exists.
type ReportFailed struct {
	BaseEvent

	ReportID   string `json:"report_id"`
	TemplateID string `json:"template_id"`
	Error      string `json:"error"`
}

func (e ReportFailed) GetType() EventType {
	return ReportFailedEvent
}
