// Package cli defines the bugbot command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/bugbot/internal/config"
	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/logging"
)

var (
	verbose bool
	workDir string

	rootCmd = &cobra.Command{
		Use:   "bugbot",
		Short: "AI code-review bot: finding lifecycle and comment-state synchronization",
		Long: `Bugbot detects code problems via an LLM, persists their identity and
resolution state in ordinary GitHub comments, interprets human replies as fix
requests, and drives a build agent to apply and commit fixes.`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", ".", "Path to the checked-out repository")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads merged configuration for the current workdir.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newGitHub builds the GitHub client from config, validating the
// pieces CI must provide.
func newGitHub(cfg *config.Config) (*ghapi.GitHub, error) {
	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return nil, fmt.Errorf("repository not configured: set GITHUB_REPOSITORY or github.owner/github.repo")
	}
	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("no GitHub token: set GITHUB_TOKEN")
	}
	return ghapi.NewGitHub(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Token), nil
}
