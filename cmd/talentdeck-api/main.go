package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/talentdeck/talentdeck/pkg/cmd"
	"github.com/talentdeck/talentdeck/pkg/log"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/runner"
)

const defaultPort = 9101

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "talentdeck-api",
		Usage:                 "Operate automation workflows, jobs, and reports",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
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
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Job polling interval",
				Value:   reconciler.DefaultInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Talentdeck API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			client := runner.NewHTTPClient(
				command.String("runner-url"),
				command.String("runner-token"),
				logger,
			)

			rc := reconciler.NewContext(client, eventBus, logger,
				reconciler.WithInterval(command.Duration("poll-interval")))
			defer rc.Dispose()

			api, err := NewAPI(logger, persistence, client, eventBus, rc)
			if err != nil {
				return err
			}

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("API exited", "error", err)
		os.Exit(1)
	}
}
