package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix of environment overrides. Sections are separated by
// a double underscore: MEDASSIST_API__BASE_URL sets api.base_url.
const EnvPrefix = "MEDASSIST_"

// Themes accepted by ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config represents the application configuration. It is loaded once at
// startup and passed by reference to whatever needs it.
type Config struct {
	API struct {
		BaseURL    string        `koanf:"base_url"`
		ChatPath   string        `koanf:"chat_path"`
		UploadPath string        `koanf:"upload_path"`
		HealthPath string        `koanf:"health_path"`
		Timeout    time.Duration `koanf:"timeout"`
	} `koanf:"api"`

	UI struct {
		Theme    string `koanf:"theme"`
		WordWrap int    `koanf:"word_wrap"`
		Markdown bool   `koanf:"markdown"`
	} `koanf:"ui"`

	Log struct {
		Level         string `koanf:"level"`
		TranscriptDir string `koanf:"transcript_dir"`
	} `koanf:"log"`

	// Source is the file the configuration was read from, if any.
	Source string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"api.base_url":       "http://127.0.0.1:5000",
		"api.chat_path":      "/api/chat",
		"api.upload_path":    "/api/upload",
		"api.health_path":    "/api/health",
		"api.timeout":        "0s",
		"ui.theme":           ThemeAuto,
		"ui.word_wrap":       100,
		"ui.markdown":        true,
		"log.level":          "info",
		"log.transcript_dir": "",
	}
}

// LoadConfig loads the configuration: defaults, then the TOML file, then
// environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	source := ""
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		source = configPath
	} else {
		defaultPaths := []string{"./medassist.toml", "$HOME/.medassist.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					source = path
					break
				}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.Source = source

	return &config, nil
}

// envKey maps MEDASSIST_API__BASE_URL to api.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# medassist configuration

[api]
base_url = "http://127.0.0.1:5000"
chat_path = "/api/chat"
upload_path = "/api/upload"
health_path = "/api/health"
# 0s leaves the deadline to the caller; e.g. "30s" bounds every request.
timeout = "0s"

[ui]
# auto, dark or light
theme = "auto"
word_wrap = 100
markdown = true

[log]
level = "info"
# directory for per-session transcripts; empty disables them
transcript_dir = ""
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	u, err := url.Parse(config.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", config.API.BaseURL)
	}

	for name, path := range map[string]string{
		"api.chat_path":   config.API.ChatPath,
		"api.upload_path": config.API.UploadPath,
		"api.health_path": config.API.HealthPath,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, path)
		}
	}

	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	switch config.UI.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("ui.theme must be one of auto, dark, light; got %q", config.UI.Theme)
	}

	if config.UI.WordWrap < 0 {
		return fmt.Errorf("ui.word_wrap must not be negative")
	}

	if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
