// Talentdeck is the operator CLI: validate workflow definitions, dispatch
// jobs, and generate reports against a running execution backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/talentdeck/talentdeck/pkg/log"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

func main() {
	logger := log.WithModule("cli")

	runnerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "runner-url",
			Usage:    "Base URL of the execution backend",
			Required: true,
			Sources:  cli.EnvVars("RUNNER_URL"),
		},
		&cli.StringFlag{
			Name:    "runner-token",
			Usage:   "Bearer token for the execution backend",
			Sources: cli.EnvVars("RUNNER_TOKEN"),
		},
	}

	command := &cli.Command{
		Name:                  "talentdeck",
		Usage:                 "Operate automation workflows, jobs, and reports",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Manage workflow definitions",
				Commands: []*cli.Command{
					{
						Name:      "validate",
						Usage:     "Validate a workflow definition file",
						ArgsUsage: "<definition.json>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							log.Setup(cmd.String("log-level"))

							return validateWorkflow(cmd.Args().First())
						},
					},
				},
			},
			{
				Name:    "job",
				Aliases: []string{"j"},
				Usage:   "Manage dispatched jobs",
				Commands: []*cli.Command{
					{
						Name:      "dispatch",
						Usage:     "Dispatch a workflow against a target batch",
						ArgsUsage: "<batch.json>",
						Flags: append([]cli.Flag{
							&cli.StringFlag{
								Name:     "workflow-id",
								Usage:    "Workflow definition to run",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "project-id",
								Usage: "Project to attach the job to",
							},
						}, runnerFlags...),
						Action: func(ctx context.Context, cmd *cli.Command) error {
							log.Setup(cmd.String("log-level"))

							return dispatchJob(ctx, cmd, logger)
						},
					},
				},
			},
			{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Generate report artifacts",
				Commands: []*cli.Command{
					{
						Name:      "generate",
						Usage:     "Generate a report from completed task ids",
						ArgsUsage: "<task-id> [task-id...]",
						Flags: append([]cli.Flag{
							&cli.StringFlag{
								Name:     "template-id",
								Usage:    "Mapping template to apply",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "destination",
								Usage: "Destination hint for the artifact",
							},
						}, runnerFlags...),
						Action: func(ctx context.Context, cmd *cli.Command) error {
							log.Setup(cmd.String("log-level"))

							return generateReport(ctx, cmd, logger)
						},
					},
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func validateWorkflow(path string) error {
	if path == "" {
		return fmt.Errorf("missing definition file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := workflow.NewStore().Validate(&def); err != nil {
		return fmt.Errorf("definition is invalid: %w", err)
	}

	fmt.Printf("%s: %d steps, valid\n", path, len(def.Steps))

	return nil
}

func dispatchJob(ctx context.Context, cmd *cli.Command, logger *slog.Logger) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("missing target batch file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var targets []models.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	client := runner.NewHTTPClient(cmd.String("runner-url"), cmd.String("runner-token"), logger)

	jobID, err := client.CreateJob(ctx, runner.CreateJobRequest{
		ProjectID:  cmd.String("project-id"),
		WorkflowID: cmd.String("workflow-id"),
		Targets:    targets,
	})
	if err != nil {
		return err
	}

	fmt.Printf("job %s created with %d targets\n", jobID, len(targets))

	return nil
}

func generateReport(ctx context.Context, cmd *cli.Command, logger *slog.Logger) error {
	taskIDs := cmd.Args().Slice()
	if len(taskIDs) == 0 {
		return fmt.Errorf("missing task id arguments")
	}

	client := runner.NewHTTPClient(cmd.String("runner-url"), cmd.String("runner-token"), logger)

	artifact, err := client.GenerateReport(ctx, runner.ReportRequest{
		TemplateID:      cmd.String("template-id"),
		TaskIDs:         taskIDs,
		DestinationHint: cmd.String("destination"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("report ready: %s (%s)\n", artifact.ArtifactURL, artifact.FileName)

	return nil
}
