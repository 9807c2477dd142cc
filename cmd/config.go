package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/medassist/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "medassist.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: runConfigShow,
			},
			{
				Name:   "check",
				Usage:  "List MEDASSIST_ environment overrides",
				Action: runConfigCheck,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	w := c.App.Writer
	source := cfg.Source
	if source == "" {
		source = "(defaults and environment only)"
	}
	fmt.Fprintf(w, "# source: %s\n\n", source)
	fmt.Fprintln(w, "[api]")
	fmt.Fprintf(w, "base_url = %q\n", cfg.API.BaseURL)
	fmt.Fprintf(w, "chat_path = %q\n", cfg.API.ChatPath)
	fmt.Fprintf(w, "upload_path = %q\n", cfg.API.UploadPath)
	fmt.Fprintf(w, "health_path = %q\n", cfg.API.HealthPath)
	fmt.Fprintf(w, "timeout = %q\n\n", cfg.API.Timeout.String())
	fmt.Fprintln(w, "[ui]")
	fmt.Fprintf(w, "theme = %q\n", cfg.UI.Theme)
	fmt.Fprintf(w, "word_wrap = %d\n", cfg.UI.WordWrap)
	fmt.Fprintf(w, "markdown = %t\n\n", cfg.UI.Markdown)
	fmt.Fprintln(w, "[log]")
	fmt.Fprintf(w, "level = %q\n", cfg.Log.Level)
	fmt.Fprintf(w, "transcript_dir = %q\n", cfg.Log.TranscriptDir)
	return nil
}

func runConfigCheck(c *cli.Context) error {
	PrintEnvironmentCheck(c.App.Writer, CheckEnvironment())
	return nil
}
