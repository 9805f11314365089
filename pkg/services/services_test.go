package services_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/persistence/file"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/services"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

func validDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name: "Profile capture",
		Type: "roster",
		Steps: []*models.StepInstance{
			{Kind: models.ActionNavigate, FieldValues: map[string]string{"url": "https://example.com"}},
		},
	}
}

func TestWorkflowCreateAndList(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc := services.NewWorkflow(p, workflow.NewStore(), slog.Default())

	created, err := svc.Create(context.Background(), validDefinition())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	listed, err := svc.List(context.Background(), services.ListWorkflowsRequest{})
	require.NoError(t, err)
	require.Len(t, listed.Workflows, 1)
	assert.Equal(t, created.ID, listed.Workflows[0].ID)
	assert.Equal(t, 1, listed.TotalCount)
	assert.False(t, listed.HasNextPage)
}

func TestWorkflowListPagination(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc := services.NewWorkflow(p, workflow.NewStore(), slog.Default())

	for range 3 {
		_, err := svc.Create(context.Background(), validDefinition())
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), services.ListWorkflowsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Workflows, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasNextPage)

	rest, err := svc.List(context.Background(), services.ListWorkflowsRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Workflows, 1)
	assert.False(t, rest.HasNextPage)
}

func TestWorkflowCreateRejectsInvalidSteps(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc := services.NewWorkflow(p, workflow.NewStore(), slog.Default())

	def := validDefinition()
	def.Steps[0].FieldValues = nil // url missing

	_, err := svc.Create(context.Background(), def)
	require.ErrorIs(t, err, services.ErrWorkflowInvalid)

	listed, err := svc.List(context.Background(), services.ListWorkflowsRequest{})
	require.NoError(t, err)
	assert.Empty(t, listed.Workflows, "invalid definitions are never persisted")
}

func TestWorkflowUpdateKeepsIdentity(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc := services.NewWorkflow(p, workflow.NewStore(), slog.Default())

	created, err := svc.Create(context.Background(), validDefinition())
	require.NoError(t, err)

	replacement := validDefinition()
	replacement.Name = "Profile capture v2"

	updated, err := svc.Update(context.Background(), created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Profile capture v2", updated.Name)
}

func TestWorkflowUpdateUnknownID(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc := services.NewWorkflow(p, workflow.NewStore(), slog.Default())

	_, err := svc.Update(context.Background(), "missing", validDefinition())
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func validTemplate() *models.MappingTemplate {
	return &models.MappingTemplate{
		Name:              "Roster export",
		PrimaryCollection: "talents",
		FieldMapping:      map[string]string{"full_name": "A", "profile_url": "B"},
	}
}

func TestTemplateCreate(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc, err := services.NewTemplate(p, slog.Default())
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), validTemplate())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	loaded, err := svc.ByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roster export", loaded.Name)
}

func TestTemplateValidation(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	svc, err := services.NewTemplate(p, slog.Default())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*models.MappingTemplate)
	}{
		{"short name", func(m *models.MappingTemplate) { m.Name = "ab" }},
		{"empty collection", func(m *models.MappingTemplate) { m.PrimaryCollection = "" }},
		{"empty mapping", func(m *models.MappingTemplate) { m.FieldMapping = map[string]string{} }},
		{"blank column", func(m *models.MappingTemplate) { m.FieldMapping = map[string]string{"full_name": ""} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			template := validTemplate()
			tc.mutate(template)

			_, err := svc.Create(context.Background(), template)
			require.ErrorIs(t, err, services.ErrTemplateInvalid)
		})
	}
}

type mutationRecorder struct {
	runner.Client

	mu     sync.Mutex
	calls  []string
	errOn  string
	errVal error
}

func (r *mutationRecorder) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)

	if call == r.errOn {
		return r.errVal
	}

	return nil
}

func (r *mutationRecorder) CompleteJob(_ context.Context, jobID string) error {
	return r.record("complete:" + jobID)
}

func (r *mutationRecorder) DeleteJob(_ context.Context, jobID string) error {
	return r.record("delete-job:" + jobID)
}

func (r *mutationRecorder) RerunTask(_ context.Context, taskID string) error {
	return r.record("rerun:" + taskID)
}

func (r *mutationRecorder) DeleteTask(_ context.Context, taskID string) error {
	return r.record("delete-task:" + taskID)
}

func (r *mutationRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

func jobCache(statuses map[string]models.TaskStatus) *reconciler.Cache {
	job := &models.Job{ID: "job-1", Status: models.JobStatusProcessing}
	for id, status := range statuses {
		job.Tasks = append(job.Tasks, &models.Task{ID: id, JobID: job.ID, Status: status})
	}

	cache := reconciler.NewCache()
	cache.ApplyJobs([]*models.Job{job})

	return cache
}

func TestJobMutationsRequireConfirmation(t *testing.T) {
	client := &mutationRecorder{}
	cache := jobCache(map[string]models.TaskStatus{"task-1": models.TaskStatusFailed})
	svc := services.NewJob(client, cache, slog.Default())
	ctx := context.Background()

	require.ErrorIs(t, svc.Complete(ctx, "job-1", false), services.ErrNotConfirmed)
	require.ErrorIs(t, svc.Delete(ctx, "job-1", false), services.ErrNotConfirmed)
	require.ErrorIs(t, svc.RerunTask(ctx, "task-1", false), services.ErrNotConfirmed)
	require.ErrorIs(t, svc.DeleteTask(ctx, "task-1", false), services.ErrNotConfirmed)
	assert.Empty(t, client.recorded(), "unconfirmed operations never reach the backend")
}

func TestRerunTaskLifecycleGate(t *testing.T) {
	tests := []struct {
		status  models.TaskStatus
		allowed bool
	}{
		{models.TaskStatusPending, false},
		{models.TaskStatusProcessing, false},
		{models.TaskStatusCompleted, true},
		{models.TaskStatusFailed, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			client := &mutationRecorder{}
			cache := jobCache(map[string]models.TaskStatus{"task-1": tc.status})
			svc := services.NewJob(client, cache, slog.Default())

			err := svc.RerunTask(context.Background(), "task-1", true)

			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, []string{"rerun:task-1"}, client.recorded())
				assert.True(t, cache.MutationInFlight("task-1"))
			} else {
				require.ErrorIs(t, err, services.ErrRerunNotAllowed)
				assert.Empty(t, client.recorded())
			}
		})
	}
}

func TestRerunTaskClearsMarkerOnFailure(t *testing.T) {
	client := &mutationRecorder{errOn: "rerun:task-1", errVal: errors.New("backend unavailable")}
	cache := jobCache(map[string]models.TaskStatus{"task-1": models.TaskStatusFailed})
	svc := services.NewJob(client, cache, slog.Default())

	err := svc.RerunTask(context.Background(), "task-1", true)
	require.Error(t, err)
	assert.False(t, cache.MutationInFlight("task-1"))
}

func TestRerunTaskRejectsSecondMutation(t *testing.T) {
	client := &mutationRecorder{}
	cache := jobCache(map[string]models.TaskStatus{"task-1": models.TaskStatusFailed})
	svc := services.NewJob(client, cache, slog.Default())
	ctx := context.Background()

	require.NoError(t, svc.RerunTask(ctx, "task-1", true))
	require.ErrorIs(t, svc.RerunTask(ctx, "task-1", true), services.ErrMutationInFlight)
	assert.Len(t, client.recorded(), 1)
}

func TestDeleteJobSurfacesHasTasks(t *testing.T) {
	client := &mutationRecorder{errOn: "delete-job:job-1", errVal: runner.ErrJobHasTasks}
	cache := jobCache(map[string]models.TaskStatus{"task-1": models.TaskStatusCompleted})
	svc := services.NewJob(client, cache, slog.Default())

	err := svc.Delete(context.Background(), "job-1", true)
	require.ErrorIs(t, err, runner.ErrJobHasTasks)
	assert.NotNil(t, cache.JobByID("job-1"), "rejected delete leaves the cache untouched")
}

func TestDeleteJobRemovesFromCache(t *testing.T) {
	client := &mutationRecorder{}
	cache := jobCache(map[string]models.TaskStatus{})
	svc := services.NewJob(client, cache, slog.Default())

	require.NoError(t, svc.Delete(context.Background(), "job-1", true))
	assert.Nil(t, cache.JobByID("job-1"))
}
