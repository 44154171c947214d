package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// CommandRunner executes one subprocess and returns its stdout.
// Implemented by gitexec; injected here so agent runs are testable.
type CommandRunner interface {
	Run(ctx context.Context, dir string, argv []string, stdin string) (stdout string, err error)
}

// CLIAgent drives a workspace-editing agent CLI. The agent process
// runs inside the checkout, receives the fix prompt on stdin, and is
// expected to edit files in place; its stdout is the final report.
type CLIAgent struct {
	argv   []string
	runner CommandRunner
}

// NewCLIAgent creates a build agent from a pre-tokenized command line
// (e.g. ["claude", "-p"]).
func NewCLIAgent(argv []string, runner CommandRunner) *CLIAgent {
	return &CLIAgent{argv: argv, runner: runner}
}

func (a *CLIAgent) Run(ctx context.Context, workDir, prompt string) (string, error) {
	if len(a.argv) == 0 {
		return "", fmt.Errorf("build agent command not configured")
	}
	slog.Info("invoking build agent", "command", a.argv[0], "workDir", workDir, "promptLength", len(prompt))

	out, err := a.runner.Run(ctx, workDir, a.argv, prompt)
	if err != nil {
		return "", fmt.Errorf("build agent failed: %w", err)
	}
	report := strings.TrimSpace(out)
	if report == "" {
		return "", ErrEmptyResponse
	}
	return report, nil
}

// Verify CLIAgent implements BuildAgent at compile time.
var _ BuildAgent = (*CLIAgent)(nil)

// MockAgent is a test double for BuildAgent.
type MockAgent struct {
	Report  string
	Err     error
	Prompts []string
	Dirs    []string
}

func (m *MockAgent) Run(_ context.Context, workDir, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	m.Dirs = append(m.Dirs, workDir)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Report, nil
}

var _ BuildAgent = (*MockAgent)(nil)
