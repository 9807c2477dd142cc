package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// HealthCommand returns the health command
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that the clinical record service is reachable",
		Action: runHealth,
	}
}

func runHealth(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result := newClient(cfg).Health(c.Context)
	if !result.OK() {
		return fmt.Errorf("%s", result.Message())
	}

	fmt.Fprintf(c.App.Writer, "%s%s: %s\n", cfg.API.BaseURL, cfg.API.HealthPath, result.Text)
	return nil
}
