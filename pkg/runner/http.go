package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements Client over the backend's JSON HTTP API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("module", "runner"),
		tracer:     otel.Tracer("talentdeck.runner"),
	}
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

func (c *HTTPClient) CreateJob(ctx context.Context, req CreateJobRequest) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.create_job",
		attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID))
	defer span.End()

	var resp createJobResponse

	err := c.do(ctx, http.MethodPost, "/v1/jobs", req, &resp)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return resp.JobID, nil
}

type jobsResponse struct {
	Jobs []*models.Job `json:"jobs"`
}

func (c *HTTPClient) JobByID(ctx context.Context, jobID string) (*models.Job, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.job_by_id",
		attribute.String(otelhelper.JobIDKey, jobID))
	defer span.End()

	var resp jobsResponse

	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(jobID), nil, &resp)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if len(resp.Jobs) == 0 {
		return nil, ErrNotFound
	}

	return resp.Jobs[0], nil
}

func (c *HTTPClient) JobsByProject(ctx context.Context, projectID string) ([]*models.Job, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.jobs_by_project",
		attribute.String(otelhelper.ProjectIDKey, projectID))
	defer span.End()

	var resp jobsResponse

	err := c.do(ctx, http.MethodGet, "/v1/jobs?project_id="+url.QueryEscape(projectID), nil, &resp)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return resp.Jobs, nil
}

type jobActionRequest struct {
	Action string `json:"action"`
}

func (c *HTTPClient) CompleteJob(ctx context.Context, jobID string) error {
	return c.jobAction(ctx, jobID, "complete")
}

func (c *HTTPClient) DeleteJob(ctx context.Context, jobID string) error {
	return c.jobAction(ctx, jobID, "delete")
}

func (c *HTTPClient) jobAction(ctx context.Context, jobID, action string) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.job_"+action,
		attribute.String(otelhelper.JobIDKey, jobID))
	defer span.End()

	err := c.do(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/actions", jobActionRequest{Action: action}, nil)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (c *HTTPClient) RerunTask(ctx context.Context, taskID string) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.task_rerun",
		attribute.String(otelhelper.TaskIDKey, taskID))
	defer span.End()

	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/actions", jobActionRequest{Action: "rerun"}, nil)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (c *HTTPClient) DeleteTask(ctx context.Context, taskID string) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.task_delete",
		attribute.String(otelhelper.TaskIDKey, taskID))
	defer span.End()

	err := c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(taskID), nil, nil)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (c *HTTPClient) GenerateReport(ctx context.Context, req ReportRequest) (*ReportArtifact, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.generate_report",
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID))
	defer span.End()

	var artifact ReportArtifact

	err := c.do(ctx, http.MethodPost, "/v1/reports", req, &artifact)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return &artifact, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("runner request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WarnContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode runner response: %w", err)
	}

	return nil
}

type errorBody struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (c *HTTPClient) decodeError(resp *http.Response) error {
	var body errorBody

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil {
		_ = json.Unmarshal(data, &body)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Type: body.Type, Detail: body.Detail}

	switch {
	case body.Type == "job_has_tasks" || resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %w", ErrJobHasTasks, apiErr)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	default:
		return apiErr
	}
}
