package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/talentdeck/talentdeck/pkg/dispatch"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/report"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/services"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps domain errors onto problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsWorkflowNotFound(err),
		persistence.IsTemplateNotFound(err),
		runner.IsNotFound(err):
		return notFound(c, err.Error())

	case runner.IsJobHasTasks(err):
		return conflict(c, "job_has_tasks", "job still has tasks; delete or rerun them first")

	case errors.Is(err, services.ErrNotConfirmed):
		return conflict(c, "confirmation_required", err.Error())

	case errors.Is(err, services.ErrMutationInFlight):
		return conflict(c, "mutation_in_flight", err.Error())

	case errors.Is(err, services.ErrRerunNotAllowed),
		errors.Is(err, services.ErrWorkflowInvalid),
		errors.Is(err, services.ErrTemplateInvalid),
		errors.Is(err, dispatch.ErrEmptyTargetSet),
		errors.Is(err, dispatch.ErrDuplicateTarget),
		errors.Is(err, report.ErrNoTasks),
		errors.Is(err, report.ErrTaskNotEligible),
		workflow.IsValidationError(err):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}
