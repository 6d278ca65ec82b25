// Package config provides configuration loading for the recipe engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Tier1EnvVar is the environment variable that gates the code-enforced
// Recipe Runner tier. Explicitly setting it to "0" disables Tier 1 even
// when a runner instance is available.
const Tier1EnvVar = "RECIPEFLOW_USE_TIER1"

// CIEnvVar marks the run as CI; IsCI reports it. No default in this
// package (timeouts, grace period) changes with it.
const CIEnvVar = "RECIPEFLOW_CI"

// NoTermPromptEnvVar names the variable for suppressing terminal prompts
// in spawned children. Nothing in this module reads it.
const NoTermPromptEnvVar = "RECIPEFLOW_NO_TERM_PROMPT"

// Config is the top-level engine configuration, loaded from TOML.
type Config struct {
	Engine EngineConfig `toml:"engine"`
}

// EngineConfig holds the tunables for the Subprocess Adapter, Agent
// Resolver, and Recipe Runner.
type EngineConfig struct {
	// RecipeDir is the default directory searched for recipe files by
	// `recipe list` and bare recipe names passed to `recipe run`.
	RecipeDir string `toml:"recipe_dir"`

	// AgentSearchRoots is the ordered list of directories the Agent
	// Resolver searches for `namespace:name` references.
	AgentSearchRoots []string `toml:"agent_search_roots"`

	// DefaultTimeoutSecs is used for subprocess steps that do not declare
	// their own timeout.
	DefaultTimeoutSecs float64 `toml:"default_timeout_secs"`

	// GraceSecs is the wall-clock grace period between a soft
	// termination signal and a hard kill. Spec caps this at 5s.
	GraceSecs float64 `toml:"grace_secs"`

	// LogDir is decoded from the config file; nothing in this module
	// reads it, so no log entries are written there.
	LogDir string `toml:"log_dir"`
}

// New returns a Config populated with sane defaults (grace <= 5s).
func New() *Config {
	return &Config{
		Engine: EngineConfig{
			RecipeDir:          "recipes",
			AgentSearchRoots:   []string{".workflow/agents"},
			DefaultTimeoutSecs: 120,
			GraceSecs:          5,
		},
	}
}

// Default is an alias for New.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file, starting from defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads recipeflow.toml from the current directory, falling
// back to defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, "recipeflow.toml")
	if _, statErr := os.Stat(path); statErr != nil {
		return New(), nil
	}
	return LoadFile(path)
}

// DefaultTimeout returns the configured default timeout as a duration.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Engine.DefaultTimeoutSecs * float64(time.Second))
}

// Grace returns the configured grace period as a duration, clamped to the
// spec's 5-second ceiling.
func (c *Config) Grace() time.Duration {
	secs := c.Engine.GraceSecs
	if secs <= 0 {
		secs = 5
	}
	if secs > 5 {
		secs = 5
	}
	return time.Duration(secs * float64(time.Second))
}

// Tier1Enabled reports whether Tier 1 (Recipe Runner) is enabled per the
// RECIPEFLOW_USE_TIER1 environment variable. Any value other than "0"
// counts as enabled, matching the source's is_recipe_runner_enabled.
func Tier1Enabled() bool {
	return os.Getenv(Tier1EnvVar) != "0"
}

// IsCI reports whether RECIPEFLOW_CI is set to 1, true or yes
// (case-insensitive).
func IsCI() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(CIEnvVar)))
	return v == "1" || v == "true" || v == "yes"
}

// NonInteractiveEnv returns environment variable assignments that
// suppress terminal prompts in common CLI tools (git, gh, etc.), for
// callers that want to harden a spawned child's environment.
func NonInteractiveEnv() []string {
	return []string{
		"GIT_TERMINAL_PROMPT=0",
		"GH_PROMPT_DISABLED=1",
		"CI=1",
	}
}
