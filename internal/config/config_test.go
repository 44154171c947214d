package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so tests only see what
// they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BUGBOT_GITHUB_TOKEN", "GITHUB_TOKEN", "GITHUB_REPOSITORY",
		"BUGBOT_LLM_URL", "BUGBOT_LLM_MODEL", "BUGBOT_AGENT_COMMAND",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Limits.MaxCommentsPerPass)
	assert.Empty(t, cfg.GitHub.Token)
	assert.Empty(t, cfg.Verify.Commands)
}

func TestLoad_UserConfigMerges(t *testing.T) {
	clearEnv(t)
	userDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	require.NoError(t, os.MkdirAll(filepath.Join(userDir, "bugbot"), 0755))
	jsonc := `{
		// local endpoint
		"llm": {"url": "http://localhost:8080/v1", "model": "qwen"},
	}`
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "bugbot", "bugbot.jsonc"), []byte(jsonc), 0644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.URL)
	assert.Equal(t, "qwen", cfg.LLM.Model)
	// Unrelated defaults survive the merge.
	assert.Equal(t, 10, cfg.Limits.MaxCommentsPerPass)
}

func TestLoad_RepoFileOverlays(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	repoYAML := "max_comments: 5\nverify:\n  - go test ./...\n  - go vet ./...\nllm_model: gpt-4o\n"
	require.NoError(t, os.WriteFile(filepath.Join(workDir, RepoFileName), []byte(repoYAML), 0644))

	cfg, err := Load(workDir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Limits.MaxCommentsPerPass)
	assert.Equal(t, []string{"go test ./...", "go vet ./..."}, cfg.Verify.Commands)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoad_RepoFileParseErrorSurfaces(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, RepoFileName), []byte("max_comments: [not an int"), 0644))

	_, err := Load(workDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), RepoFileName)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, RepoFileName), []byte("llm_model: from-repo\n"), 0644))

	t.Setenv("BUGBOT_GITHUB_TOKEN", "tok-bugbot")
	t.Setenv("GITHUB_TOKEN", "tok-actions")
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("BUGBOT_LLM_MODEL", "from-env")
	t.Setenv("BUGBOT_AGENT_COMMAND", `claude -p`)

	cfg, err := Load(workDir)
	require.NoError(t, err)
	// BUGBOT_GITHUB_TOKEN wins over GITHUB_TOKEN.
	assert.Equal(t, "tok-bugbot", cfg.GitHub.Token)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "widgets", cfg.GitHub.Repo)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "claude -p", cfg.Agent.Command)
}

func TestLoad_GithubTokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "tok-actions")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "tok-actions", cfg.GitHub.Token)
}
