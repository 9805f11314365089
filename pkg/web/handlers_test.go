package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdeck/talentdeck/pkg/aggregate"
	"github.com/talentdeck/talentdeck/pkg/dispatch"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence/file"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/report"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/services"
	"github.com/talentdeck/talentdeck/pkg/web"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

// stubRunner satisfies the whole backend contract with canned data so the
// HTTP surface can be exercised without a live backend.
type stubRunner struct {
	mu    sync.Mutex
	jobs  map[string]*models.Job
	calls []string
}

func newStubRunner() *stubRunner {
	return &stubRunner{jobs: map[string]*models.Job{}}
}

func (s *stubRunner) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)
}

func (s *stubRunner) CreateJob(_ context.Context, req runner.CreateJobRequest) (string, error) {
	s.record("create")

	s.mu.Lock()
	defer s.mu.Unlock()

	// The created job stays mid-flight so polling sessions keep running.
	s.jobs["job-1"] = &models.Job{
		ID:         "job-1",
		WorkflowID: req.WorkflowID,
		ProjectID:  req.ProjectID,
		Status:     models.JobStatusProcessing,
		Tasks:      []*models.Task{{ID: "task-live", JobID: "job-1", Status: models.TaskStatusProcessing}},
	}

	return "job-1", nil
}

func (s *stubRunner) JobByID(_ context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, runner.ErrNotFound
	}

	return job, nil
}

func (s *stubRunner) JobsByProject(_ context.Context, projectID string) ([]*models.Job, error) {
	return []*models.Job{{
		ID:        "job-" + projectID,
		ProjectID: projectID,
		Status:    models.JobStatusProcessing,
		Tasks:     []*models.Task{{ID: "task-" + projectID, Status: models.TaskStatusProcessing}},
	}}, nil
}

func (s *stubRunner) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *stubRunner) CompleteJob(_ context.Context, jobID string) error {
	s.record("complete:" + jobID)

	return nil
}

func (s *stubRunner) DeleteJob(_ context.Context, jobID string) error {
	s.record("delete:" + jobID)

	return nil
}

func (s *stubRunner) RerunTask(_ context.Context, taskID string) error {
	s.record("rerun:" + taskID)

	return nil
}

func (s *stubRunner) DeleteTask(_ context.Context, taskID string) error {
	s.record("delete-task:" + taskID)

	return nil
}

func (s *stubRunner) GenerateReport(_ context.Context, _ runner.ReportRequest) (*runner.ReportArtifact, error) {
	s.record("report")

	return &runner.ReportArtifact{ArtifactURL: "https://sheets.example/doc", FileName: "Export"}, nil
}

type testEnv struct {
	app    *fiber.App
	runner *stubRunner
	cache  *reconciler.Cache
	rc     *reconciler.Context
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.Default()
	p := file.NewPersistence(t.TempDir())
	store := workflow.NewStore()
	client := newStubRunner()

	rc := reconciler.NewContext(client, nil, logger, reconciler.WithInterval(5*time.Millisecond))
	t.Cleanup(rc.Dispose)

	cache := rc.Cache()

	templateService, err := services.NewTemplate(p, logger)
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(p, store, logger),
		templateService,
		services.NewJob(client, cache, logger),
		dispatch.NewDispatcher(p, store, client, nil, logger),
		report.NewCoordinator(client, cache, nil, logger, report.WithStageInterval(time.Millisecond)),
		aggregate.NewEngine(cache),
		rc,
		validator.New(),
	)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return &testEnv{app: app, runner: client, cache: cache, rc: rc}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func validWorkflowRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name: "Profile capture",
		Type: "roster",
		Steps: []*models.StepInstance{
			{Kind: models.ActionNavigate, FieldValues: map[string]string{"url": "https://example.com"}},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/workflows", validWorkflowRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var def models.WorkflowDefinition
	decodeBody(t, resp, &def)
	assert.NotEmpty(t, def.ID)
	assert.Equal(t, "Profile capture", def.Name)
}

func TestCreateWorkflowInvalidSteps(t *testing.T) {
	env := setupTestApp(t)

	req := validWorkflowRequest()
	req.Steps[0].FieldValues = nil

	resp := postJSON(t, env.app, "/workflows", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateWorkflowReportsOutcome(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/workflows/validate", web.ValidateWorkflowRequest{
		Name: "Check only",
		Steps: []*models.StepInstance{
			{Kind: models.ActionKind("teleport")},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.ValidateWorkflowResponse
	decodeBody(t, resp, &result)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Detail)
}

func TestGetStepCatalog(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/workflows/catalog", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Steps []models.StepDefinition `json:"steps"`
	}
	decodeBody(t, resp, &result)
	assert.Len(t, result.Steps, len(models.ActionKinds()))
}

func TestCreateJobStartsSession(t *testing.T) {
	env := setupTestApp(t)

	created := postJSON(t, env.app, "/workflows", validWorkflowRequest())
	var def models.WorkflowDefinition
	decodeBody(t, created, &def)

	resp := postJSON(t, env.app, "/jobs", web.CreateJobRequest{
		WorkflowID: def.ID,
		Targets:    []models.Target{{CorrelationID: "row-1"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var job web.CreateJobResponse
	decodeBody(t, resp, &job)
	assert.Equal(t, "job-1", job.JobID)

	assert.Contains(t, env.rc.ActiveSessions(), "job:job-1")
}

func TestCreateJobUnknownWorkflow(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/jobs", web.CreateJobRequest{
		WorkflowID: "missing",
		Targets:    []models.Target{{CorrelationID: "row-1"}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRerunTaskConfirmationGate(t *testing.T) {
	env := setupTestApp(t)
	env.cache.ApplyJobs([]*models.Job{{
		ID:     "job-1",
		Status: models.JobStatusProcessing,
		Tasks:  []*models.Task{{ID: "task-1", JobID: "job-1", Status: models.TaskStatusFailed}},
	}})

	resp := postJSON(t, env.app, "/tasks/task-1/rerun", web.ConfirmRequest{Confirmed: false})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, env.app, "/tasks/task-1/rerun", web.ConfirmRequest{Confirmed: true})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRerunTaskRejectsProcessing(t *testing.T) {
	env := setupTestApp(t)
	env.cache.ApplyJobs([]*models.Job{{
		ID:     "job-1",
		Status: models.JobStatusProcessing,
		Tasks:  []*models.Task{{ID: "task-1", JobID: "job-1", Status: models.TaskStatusProcessing}},
	}})

	resp := postJSON(t, env.app, "/tasks/task-1/rerun", web.ConfirmRequest{Confirmed: true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetStats(t *testing.T) {
	env := setupTestApp(t)
	env.cache.ApplyJobs([]*models.Job{
		{ID: "job-1", WorkflowID: "wf-1", Status: models.JobStatusCompleted},
		{ID: "job-2", WorkflowID: "wf-1", Status: models.JobStatusFailed},
	})

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/stats?group_by=workflow", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats web.StatsResponse
	decodeBody(t, resp, &stats)
	require.NotEmpty(t, stats.Groups)
	assert.Equal(t, aggregate.AllKey, stats.Groups[0].Key)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/stats?group_by=nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplateCRUD(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/templates", web.CreateTemplateRequest{
		Name:              "Roster export",
		PrimaryCollection: "talents",
		FieldMapping:      map[string]string{"full_name": "A"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var template models.MappingTemplate
	decodeBody(t, resp, &template)
	require.NotEmpty(t, template.ID)

	getResp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/templates/"+template.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	delReq := httptest.NewRequest(http.MethodDelete, "/templates/"+template.ID, nil)
	delResp, err := env.app.Test(delReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestGenerateReportFlow(t *testing.T) {
	env := setupTestApp(t)
	env.cache.ApplyJobs([]*models.Job{{
		ID:     "job-1",
		Status: models.JobStatusCompleted,
		Tasks:  []*models.Task{{ID: "task-1", JobID: "job-1", Status: models.TaskStatusCompleted}},
	}})

	created := postJSON(t, env.app, "/templates", web.CreateTemplateRequest{
		Name:              "Roster export",
		PrimaryCollection: "talents",
		FieldMapping:      map[string]string{"full_name": "A"},
	})
	var template models.MappingTemplate
	decodeBody(t, created, &template)

	resp := postJSON(t, env.app, "/reports", web.GenerateReportRequest{
		TemplateID: template.ID,
		TaskIDs:    []string{"task-1"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted web.GenerateReportResponse
	decodeBody(t, resp, &accepted)
	require.NotEmpty(t, accepted.ReportID)

	require.Eventually(t, func() bool {
		progResp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/reports/"+accepted.ReportID, nil))
		if err != nil {
			return false
		}

		var progress web.ReportProgressResponse
		decodeBody(t, progResp, &progress)

		return progress.Finished && progress.ArtifactURL != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGenerateReportIneligibleTask(t *testing.T) {
	env := setupTestApp(t)
	env.cache.ApplyJobs([]*models.Job{{
		ID:     "job-1",
		Status: models.JobStatusProcessing,
		Tasks:  []*models.Task{{ID: "task-1", JobID: "job-1", Status: models.TaskStatusProcessing}},
	}})

	created := postJSON(t, env.app, "/templates", web.CreateTemplateRequest{
		Name:              "Roster export",
		PrimaryCollection: "talents",
		FieldMapping:      map[string]string{"full_name": "A"},
	})
	var template models.MappingTemplate
	decodeBody(t, created, &template)

	resp := postJSON(t, env.app, "/reports", web.GenerateReportRequest{
		TemplateID: template.ID,
		TaskIDs:    []string{"task-1"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotContains(t, env.runner.recorded(), "report")
}

func TestWatchProjectSessions(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodPost, "/projects/proj-1/watch", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, env.rc.ActiveSessions(), "project:proj-1")

	resp, err = env.app.Test(httptest.NewRequest(http.MethodDelete, "/projects/proj-1/watch", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
