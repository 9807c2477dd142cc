package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/medassist/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "medassist",
		Usage:   "Chat with the clinical record service about patient histories",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./medassist.toml, then ~/.medassist.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` before reading the configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log.level (trace, debug, info, warn, error)",
			},
		},
		Before: cmd.Setup,
		Commands: []*cli.Command{
			cmd.ChatCommand(),
			cmd.UploadCommand(),
			cmd.HealthCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
