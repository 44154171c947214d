package config

// Config is the top-level bugbot configuration.
type Config struct {
	GitHub GitHubConfig `json:"github"`
	LLM    LLMConfig    `json:"llm"`
	Agent  AgentConfig  `json:"agent"`
	Limits LimitsConfig `json:"limits"`
	Verify VerifyConfig `json:"verify"`
}

// GitHubConfig identifies the repository and token. In CI these come
// from GITHUB_REPOSITORY and GITHUB_TOKEN.
type GitHubConfig struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Token string `json:"token"`
}

// LLMConfig points at an OpenAI-compatible completions endpoint.
// An empty model disables the fix-intent path.
type LLMConfig struct {
	URL   string `json:"url"`
	Model string `json:"model"`
}

// AgentConfig configures the workspace-editing build agent. An empty
// command disables autofix.
type AgentConfig struct {
	Command string `json:"command"`
}

// LimitsConfig bounds per-pass output.
type LimitsConfig struct {
	// MaxCommentsPerPass caps how many findings become individual
	// comments; the rest go to the overflow summary.
	MaxCommentsPerPass int `json:"max_comments_per_pass"`
}

// VerifyConfig lists the commands that must pass before an autofix
// commit. Commands run directly, never through a shell.
type VerifyConfig struct {
	Commands []string `json:"commands"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Limits: LimitsConfig{MaxCommentsPerPass: 10},
	}
}
