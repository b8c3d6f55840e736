package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/careportal/cmd/app/commands"
	"github.com/allisson/careportal/internal/app"
	"github.com/allisson/careportal/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server and the outbox worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply or roll back database migrations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration sets",
				},
				&cli.IntFlag{
					Name:  "down",
					Usage: "Roll back this many migrations instead of applying pending ones",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), commands.MigrateOptions{
					Driver:           cfg.DBDriver,
					ConnectionString: cfg.DBConnectionString,
					Dir:              cmd.String("dir"),
					Steps:            -int(cmd.Int("down")),
				})
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Check the HMAC signature of every audit record in a time window",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Window start: YYYY-MM-DD, YYYY-MM-DD HH:MM:SS or RFC 3339",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "Window end, same formats; a bare date includes that day",
				},
				&cli.DurationFlag{
					Name:  "last",
					Value: 24 * time.Hour,
					Usage: "Window length ending now, used when --start-date is omitted",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				start, end := commands.VerifyWindow(
					cmd.String("start-date"), cmd.String("end-date"), cmd.Duration("last"), time.Now(),
				)

				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				auditLogUseCase, err := container.AuditLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					auditLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					start,
					end,
					cmd.String("format"),
				)
			},
		},
	}
}
