// Package config loads dcg's runtime configuration: decision-mode
// overrides per severity, store paths, and budget/redaction settings.
// Defaults come from spec-mandated constants; a YAML file and then
// environment variables each override the previous layer, in that order,
// matching the override-layering idiom the teacher's config package uses
// for its own settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/redact"
)

// Config is the resolved runtime configuration for a single dcg process.
type Config struct {
	BudgetMS             int                               `yaml:"budget_ms"`
	DecisionModes        map[packs.Severity]packs.DecisionMode `yaml:"decision_modes"`
	RedactMode           redact.Mode                       `yaml:"redact_mode"`
	PendingExceptionsPath string                           `yaml:"pending_exceptions_path"`
	AllowOncePath        string                            `yaml:"allow_once_path"`
	AllowOnceSecret      string                            `yaml:"-"` // env-only, never persisted to a config file
	SystemAllowlistPath  string                            `yaml:"system_allowlist_path"`
	UserAllowlistPath    string                            `yaml:"user_allowlist_path"`
	ProjectAllowlistPath string                            `yaml:"project_allowlist_path"`
	ExternalPacksDir     string                            `yaml:"external_packs_dir"`
	TelemetryDBPath      string                            `yaml:"telemetry_db_path"`
	TelemetryDisabled    bool                              `yaml:"telemetry_disabled"`
	LogLevel             string                            `yaml:"log_level"`
}

// Budget returns BudgetMS as a time.Duration for the evaluator.
func (c Config) Budget() time.Duration {
	return time.Duration(c.BudgetMS) * time.Millisecond
}

// Default returns the built-in defaults, before any file or environment
// override is applied.
func Default() Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".dcg")
	return Config{
		BudgetMS:             50,
		RedactMode:           redact.ModePattern,
		PendingExceptionsPath: filepath.Join(stateDir, "pending_exceptions.jsonl"),
		AllowOncePath:        filepath.Join(stateDir, "allow_once.jsonl"),
		SystemAllowlistPath:  filepath.Join(stateDir, "allowlist.system.jsonl"),
		UserAllowlistPath:    filepath.Join(stateDir, "allowlist.user.jsonl"),
		ProjectAllowlistPath: filepath.Join(stateDir, "allowlist.project.jsonl"),
		ExternalPacksDir:     filepath.Join(stateDir, "packs.d"),
		TelemetryDBPath:      filepath.Join(stateDir, "telemetry.db"),
		LogLevel:             "info",
	}
}

// Load resolves Config from built-in defaults, an optional YAML file at
// path (skipped silently if it doesn't exist — a missing config file is
// the common case, not an error), and finally environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if yerr := yaml.Unmarshal(data, &cfg); yerr != nil {
				return cfg, yerr
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DCG_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BudgetMS = n
		}
	}
	if v := os.Getenv("DCG_PENDING_EXCEPTIONS_PATH"); v != "" {
		cfg.PendingExceptionsPath = v
	}
	if v := os.Getenv("DCG_ALLOW_ONCE_PATH"); v != "" {
		cfg.AllowOncePath = v
	}
	if v := os.Getenv("DCG_ALLOW_ONCE_SECRET"); v != "" {
		cfg.AllowOnceSecret = v
	}
	if v := os.Getenv("DCG_TELEMETRY_DB"); v != "" {
		cfg.TelemetryDBPath = v
	}
	if v := os.Getenv("DCG_TELEMETRY_DISABLED"); v != "" {
		cfg.TelemetryDisabled = v == "1" || v == "true"
	}
}
