// Package main is the careportal binary: the API server plus the operator commands
// that run next to it (migrations, key generation, user bootstrap, audit verification).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var commands []*cli.Command
	commands = append(commands, getSystemCommands(version)...)
	commands = append(commands, getKeyCommands()...)
	commands = append(commands, getAuthCommands()...)

	cmd := &cli.Command{
		Name:     "careportal",
		Usage:    "Doctor directory and patient assessment portal",
		Version:  version,
		Commands: commands,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
