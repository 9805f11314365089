package web

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/talentdeck/talentdeck/pkg/aggregate"
	"github.com/talentdeck/talentdeck/pkg/dispatch"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/report"
	"github.com/talentdeck/talentdeck/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	templateService *services.Template
	jobService      *services.Job
	dispatcher      *dispatch.Dispatcher
	coordinator     *report.Coordinator
	engine          *aggregate.Engine
	reconciler      *reconciler.Context
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	templateService *services.Template,
	jobService *services.Job,
	dispatcher *dispatch.Dispatcher,
	coordinator *report.Coordinator,
	engine *aggregate.Engine,
	rc *reconciler.Context,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		templateService: templateService,
		jobService:      jobService,
		dispatcher:      dispatcher,
		coordinator:     coordinator,
		engine:          engine,
		reconciler:      rc,
		validator:       validate,
	}
}

// RegisterRoutes mounts every endpoint on the given router group.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/workflows", h.GetWorkflows)
	router.Post("/workflows", h.CreateWorkflow)
	router.Post("/workflows/validate", h.ValidateWorkflow)
	router.Get("/workflows/catalog", h.GetStepCatalog)
	router.Get("/workflows/:id", h.GetWorkflow)
	router.Put("/workflows/:id", h.UpdateWorkflow)
	router.Delete("/workflows/:id", h.DeleteWorkflow)

	router.Get("/jobs", h.GetJobs)
	router.Post("/jobs", h.CreateJob)
	router.Get("/jobs/:id", h.GetJob)
	router.Post("/jobs/:id/complete", h.CompleteJob)
	router.Delete("/jobs/:id", h.DeleteJob)

	router.Post("/tasks/:id/rerun", h.RerunTask)
	router.Delete("/tasks/:id", h.DeleteTask)

	router.Get("/stats", h.GetStats)

	router.Get("/templates", h.GetTemplates)
	router.Post("/templates", h.CreateTemplate)
	router.Get("/templates/:id", h.GetTemplate)
	router.Put("/templates/:id", h.UpdateTemplate)
	router.Delete("/templates/:id", h.DeleteTemplate)

	router.Post("/reports", h.GenerateReport)
	router.Get("/reports/:id", h.GetReportProgress)

	router.Get("/sessions", h.GetSessions)
	router.Post("/projects/:id/watch", h.WatchProject)
	router.Delete("/projects/:id/watch", h.UnwatchProject)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req := services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid offset parameter")
		}

		req.Offset = offset
	}

	result, err := h.workflowService.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	def, err := h.workflowService.ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	def, err := h.workflowService.Create(c.Context(), &models.WorkflowDefinition{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Steps:       req.Steps,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(def)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	def, err := h.workflowService.Update(c.Context(), c.Params("id"), &models.WorkflowDefinition{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Steps:       req.Steps,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateWorkflow checks a definition without saving it. Validation
// failures are part of the response, not an error status.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var req ValidateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err := h.workflowService.Validate(&models.WorkflowDefinition{
		Name:  req.Name,
		Steps: req.Steps,
	})
	if err != nil {
		return c.JSON(ValidateWorkflowResponse{Valid: false, Detail: err.Error()})
	}

	return c.JSON(ValidateWorkflowResponse{Valid: true})
}

func (h *APIHandlers) GetStepCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"steps": h.workflowService.Catalog()})
}

func (h *APIHandlers) GetJobs(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"jobs": h.jobService.Jobs()})
}

func (h *APIHandlers) GetJob(c fiber.Ctx) error {
	job, err := h.jobService.ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(job)
}

// CreateJob dispatches a workflow and starts a polling session for the
// new job.
func (h *APIHandlers) CreateJob(c fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	handle, err := h.dispatcher.CreateJob(c.Context(), req.WorkflowID, req.Targets, req.ProjectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	// Sessions outlive the request.
	if _, err := h.reconciler.StartJobSession(context.WithoutCancel(c.Context()), handle.JobID); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateJobResponse{
		JobID:        handle.JobID,
		WorkflowID:   handle.WorkflowID,
		WorkflowName: handle.WorkflowName,
		TargetSize:   handle.TargetSize,
	})
}

func (h *APIHandlers) CompleteJob(c fiber.Ctx) error {
	confirmed, err := bindConfirmation(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.jobService.Complete(c.Context(), c.Params("id"), confirmed); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DeleteJob(c fiber.Ctx) error {
	confirmed, err := bindConfirmation(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.jobService.Delete(c.Context(), c.Params("id"), confirmed); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RerunTask(c fiber.Ctx) error {
	confirmed, err := bindConfirmation(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.jobService.RerunTask(c.Context(), c.Params("id"), confirmed); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DeleteTask(c fiber.Ctx) error {
	confirmed, err := bindConfirmation(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.jobService.DeleteTask(c.Context(), c.Params("id"), confirmed); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	dimension := aggregate.Dimension(c.Query("group_by", string(aggregate.ByWorkflow)))
	if dimension != aggregate.ByWorkflow && dimension != aggregate.ByProject {
		return badRequest(c, "group_by must be workflow or project")
	}

	return c.JSON(StatsResponse{
		Dimension: dimension,
		Groups:    h.engine.GroupBy(dimension),
	})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates, err := h.templateService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"templates": templates})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.templateService.ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.templateService.Create(c.Context(), &models.MappingTemplate{
		Name:              req.Name,
		PrimaryCollection: req.PrimaryCollection,
		FieldMapping:      req.FieldMapping,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) UpdateTemplate(c fiber.Ctx) error {
	var req CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.templateService.Update(c.Context(), c.Params("id"), &models.MappingTemplate{
		Name:              req.Name,
		PrimaryCollection: req.PrimaryCollection,
		FieldMapping:      req.FieldMapping,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	if err := h.templateService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GenerateReport(c fiber.Ctx) error {
	var req GenerateReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := h.templateService.ByID(c.Context(), req.TemplateID); err != nil {
		return handleServiceError(c, err)
	}

	handle, err := h.coordinator.Generate(c.Context(), req.TemplateID, req.TaskIDs, req.DestinationHint)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(GenerateReportResponse{ReportID: handle.ID})
}

func (h *APIHandlers) GetReportProgress(c fiber.Ctx) error {
	handle := h.coordinator.HandleByID(c.Params("id"))
	if handle == nil {
		return notFound(c, "report not found")
	}

	resp := ReportProgressResponse{
		ReportID: handle.ID,
		Stages:   handle.Snapshot(),
	}

	select {
	case <-handle.Done():
		resp.Finished = true

		artifact, err := handle.Result()
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.ArtifactURL = artifact.ArtifactURL
			resp.FileName = artifact.FileName
		}
	default:
	}

	return c.JSON(resp)
}

func (h *APIHandlers) GetSessions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sessions": h.reconciler.ActiveSessions()})
}

func (h *APIHandlers) WatchProject(c fiber.Ctx) error {
	if _, err := h.reconciler.StartProjectSession(context.WithoutCancel(c.Context()), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UnwatchProject(c fiber.Ctx) error {
	h.reconciler.StopSession(reconciler.Scope{Kind: reconciler.ScopeProject, ID: c.Params("id")})

	return c.SendStatus(fiber.StatusNoContent)
}

// bindConfirmation reads the optional confirmation body. A missing body
// counts as unconfirmed.
func bindConfirmation(c fiber.Ctx) (bool, error) {
	if len(c.Body()) == 0 {
		return false, nil
	}

	var req ConfirmRequest
	if err := c.Bind().JSON(&req); err != nil {
		return false, err
	}

	return req.Confirmed, nil
}
