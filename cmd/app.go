package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/medassist/internal/config"
	"github.com/medassist/internal/logging"
	"github.com/medassist/internal/render"
	"github.com/medassist/internal/session"
	"github.com/medassist/internal/transport"
	"github.com/medassist/internal/upload"
)

const configMetadataKey = "config"

// Setup is the app's Before hook: it loads the optional env file, the
// configuration and the logger, then keeps the configuration on the app.
func Setup(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if err := logging.Setup(level, c.App.ErrWriter); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configMetadataKey] = cfg

	log.Debug().Str("source", cfg.Source).Str("base_url", cfg.API.BaseURL).Msg("Configuration loaded")
	return nil
}

// loadedConfig returns the configuration installed by Setup, loading it on
// demand when a command runs without the hook.
func loadedConfig(c *cli.Context) (*config.Config, error) {
	if cfg, ok := c.App.Metadata[configMetadataKey].(*config.Config); ok {
		return cfg, nil
	}
	return config.LoadConfig(c.String("config"))
}

func newClient(cfg *config.Config) *transport.Client {
	return transport.NewClient(transport.Options{
		BaseURL:    cfg.API.BaseURL,
		ChatPath:   cfg.API.ChatPath,
		UploadPath: cfg.API.UploadPath,
		HealthPath: cfg.API.HealthPath,
		Timeout:    cfg.API.Timeout,
	})
}

// newSession wires a session against the configured service. The returned
// func closes the transcript, if any.
func newSession(cfg *config.Config) (*session.Session, func(), error) {
	client := newClient(cfg)

	var opts []session.Option
	closeFn := func() {}

	if cfg.Log.TranscriptDir != "" {
		sessionID := uuid.NewString()[:8]
		transcript, err := logging.StartTranscript(cfg.Log.TranscriptDir, sessionID)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", transcript.Path()).Msg("Writing session transcript")
		opts = append(opts, session.WithSink(transcript))
		closeFn = func() {
			if err := transcript.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close transcript")
			}
		}
	}

	return session.New(client, upload.NewCoordinator(client), opts...), closeFn, nil
}

func newRenderer(cfg *config.Config, plain bool) (*render.Renderer, error) {
	return render.New(render.Options{
		Theme:    render.ResolveTheme(cfg.UI.Theme, os.Getenv),
		WordWrap: cfg.UI.WordWrap,
		Markdown: cfg.UI.Markdown && !plain,
	})
}
