// Package config loads the process settings once at startup. Nothing else in
// the server reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort          = "3002"
	DefaultGitHubTimeout = 30 * time.Second
)

type Config struct {
	// GitHubToken is the bearer credential for the GitHub API. Empty disables
	// the GitHub-backed routes.
	GitHubToken string
	// GitHubUsername is the owner used for follow-up calls when GitHub's
	// create response does not report one.
	GitHubUsername string
	// GitHubAPIURL overrides https://api.github.com/, e.g. for Enterprise.
	GitHubAPIURL string
	// GitHubTimeout bounds every individual GitHub call.
	GitHubTimeout time.Duration

	Port string

	// DashboardUser and DashboardPassword enable basic auth when both are set.
	DashboardUser     string
	DashboardPassword string

	LogLevel  string
	LogFormat string
}

// HasGitHubToken reports whether GitHub-backed routes can work.
func (c *Config) HasGitHubToken() bool { return c.GitHubToken != "" }

// DashboardAuthEnabled reports whether basic auth guards the dashboard API.
func (c *Config) DashboardAuthEnabled() bool {
	return c.DashboardUser != "" && c.DashboardPassword != ""
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string { return ":" + c.Port }

// Load reads envFile (if present) into the environment and builds a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from an arbitrary variable lookup.
func FromLookup(getenv func(string) string) (*Config, error) {
	const errCtx = "loading config"

	cfg := &Config{
		GitHubToken:       strings.TrimSpace(getenv("GITHUB_TOKEN")),
		GitHubUsername:    strings.TrimSpace(getenv("GITHUB_USERNAME")),
		GitHubAPIURL:      strings.TrimSpace(getenv("GITHUB_API_URL")),
		GitHubTimeout:     DefaultGitHubTimeout,
		Port:              DefaultPort,
		DashboardUser:     getenv("DASHBOARD_USER"),
		DashboardPassword: getenv("DASHBOARD_PASSWORD"),
		LogLevel:          "info",
		LogFormat:         "json",
	}

	if v := getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("%s: invalid PORT %q", errCtx, v)
		}
		cfg.Port = v
	}

	if v := getenv("GITHUB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid GITHUB_TIMEOUT: %w", errCtx, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s: GITHUB_TIMEOUT must be positive", errCtx)
		}
		cfg.GitHubTimeout = d
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := getenv("LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(v); f {
		case "json", "console":
			cfg.LogFormat = f
		default:
			return nil, fmt.Errorf("%s: LOG_FORMAT must be json or console, got %q", errCtx, v)
		}
	}

	return cfg, nil
}
