// Package config loads bugbot configuration: built-in defaults,
// deep-merged with the user-level JSONC file, overridden by the
// repository's .bugbot.yml, overridden by environment variables (the
// usual source in CI).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// RepoFileName is the repository-level config file, next to the
// repo's workflow definitions in spirit: CI-facing knobs in YAML.
const RepoFileName = ".bugbot.yml"

// repoFile is the subset of Config a repository may set for itself.
type repoFile struct {
	MaxComments int      `yaml:"max_comments"`
	Verify      []string `yaml:"verify"`
	LLMModel    string   `yaml:"llm_model"`
	AgentCmd    string   `yaml:"agent_command"`
}

// Load reads and merges configuration. workDir is the checkout root
// where .bugbot.yml is looked up; empty means the current directory.
func Load(workDir string) (*Config, error) {
	cfg := DefaultConfig()

	if userDir, err := os.UserConfigDir(); err == nil {
		userPath := filepath.Join(userDir, "bugbot", "bugbot.jsonc")
		if userMap, err := loadJSONC(userPath); err == nil {
			if err := mergeIntoConfig(&cfg, userMap); err != nil {
				return nil, fmt.Errorf("merging user config: %w", err)
			}
		}
	}

	if workDir == "" {
		workDir = "."
	}
	if err := applyRepoFile(&cfg, filepath.Join(workDir, RepoFileName)); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// UserConfigPath returns the user-level JSONC config path.
func UserConfigPath() (string, error) {
	userDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(userDir, "bugbot", "bugbot.jsonc"), nil
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the
// source map over it, then unmarshals back.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}
	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}
	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// applyRepoFile overlays the repository's .bugbot.yml when present.
func applyRepoFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var rf repoFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if rf.MaxComments > 0 {
		cfg.Limits.MaxCommentsPerPass = rf.MaxComments
	}
	if len(rf.Verify) > 0 {
		cfg.Verify.Commands = rf.Verify
	}
	if rf.LLMModel != "" {
		cfg.LLM.Model = rf.LLMModel
	}
	if rf.AgentCmd != "" {
		cfg.Agent.Command = rf.AgentCmd
	}
	return nil
}

// applyEnvOverrides applies environment variables, the primary
// configuration source inside CI runs.
func applyEnvOverrides(cfg *Config) {
	if v := firstEnv("BUGBOT_GITHUB_TOKEN", "GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		if parts := strings.SplitN(v, "/", 2); len(parts) == 2 {
			cfg.GitHub.Owner = parts[0]
			cfg.GitHub.Repo = parts[1]
		}
	}
	if v := os.Getenv("BUGBOT_LLM_URL"); v != "" {
		cfg.LLM.URL = v
	}
	if v := os.Getenv("BUGBOT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("BUGBOT_AGENT_COMMAND"); v != "" {
		cfg.Agent.Command = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
