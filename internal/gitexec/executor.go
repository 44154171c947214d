package gitexec

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/alanmeadows/bugbot/internal/ghapi"
)

// commitMessage is the fixed message for autofix commits.
const commitMessage = "fix: bugbot autofix - resolve reported findings"

// Options configures one commit/push attempt.
type Options struct {
	// Branch is the branch to push to.
	Branch string
	// BranchOverride, when set, is fetched and checked out first —
	// the cross-surface case where an issue comment resolved to a PR
	// branch. Checkout failure is fatal for the run.
	BranchOverride string
	VerifyCommands []string
}

// Result reports the outcome. Committed is false when the working
// tree had no changes, which is a successful no-op pass.
type Result struct {
	Committed bool
}

// Executor verifies, commits, and pushes workspace changes.
type Executor struct {
	workDir string
	gh      ghapi.Client
	runner  Runner
}

// NewExecutor creates an Executor for the given checkout. The GitHub
// client supplies the git author identity for the token.
func NewExecutor(workDir string, gh ghapi.Client) *Executor {
	return &Executor{workDir: workDir, gh: gh}
}

// CommitAndPush runs the verify commands and, if the workspace
// changed, commits and pushes. All verify commands are validated
// before any subprocess is invoked; the first failing verify command
// aborts with no commit.
func (e *Executor) CommitAndPush(ctx context.Context, opts Options) (Result, error) {
	// Validate everything up front so a malicious command never
	// reaches exec, regardless of how earlier steps fare.
	argvs := make([][]string, 0, len(opts.VerifyCommands))
	for _, cmd := range opts.VerifyCommands {
		if err := ValidateVerifyCommand(cmd); err != nil {
			return Result{}, err
		}
		argv, err := TokenizeCommand(cmd)
		if err != nil {
			return Result{}, fmt.Errorf("invalid verify command %q: %w", cmd, err)
		}
		argvs = append(argvs, argv)
	}

	branch := opts.Branch
	if opts.BranchOverride != "" {
		if err := e.checkoutBranch(ctx, opts.BranchOverride); err != nil {
			return Result{}, err
		}
		branch = opts.BranchOverride
	}
	if branch == "" {
		return Result{}, fmt.Errorf("no branch to push to")
	}

	// Guard against a concurrent bugbot process sharing this
	// checkout; runs in other checkouts are not coordinated.
	lock := flock.New(filepath.Join(e.workDir, ".git", "bugbot.lock"))
	if err := lock.Lock(); err != nil {
		return Result{}, fmt.Errorf("locking workspace: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("failed to release workspace lock", "error", err)
		}
	}()

	for i, argv := range argvs {
		slog.Info("running verify command", "command", opts.VerifyCommands[i])
		if _, err := e.runner.Run(ctx, e.workDir, argv, ""); err != nil {
			return Result{}, fmt.Errorf("verify command %q failed: %w", opts.VerifyCommands[i], err)
		}
	}

	status, err := e.git(ctx, "status", "--short")
	if err != nil {
		return Result{}, fmt.Errorf("checking working tree: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		slog.Info("working tree clean, nothing to commit")
		return Result{Committed: false}, nil
	}

	login, email, err := e.gh.AuthenticatedUser(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolving git author: %w", err)
	}
	if _, err := e.git(ctx, "config", "user.name", login); err != nil {
		return Result{}, fmt.Errorf("configuring git author: %w", err)
	}
	if _, err := e.git(ctx, "config", "user.email", email); err != nil {
		return Result{}, fmt.Errorf("configuring git author email: %w", err)
	}
	if _, err := e.git(ctx, "add", "-A"); err != nil {
		return Result{}, fmt.Errorf("staging changes: %w", err)
	}
	if _, err := e.git(ctx, "commit", "-m", commitMessage); err != nil {
		return Result{}, fmt.Errorf("committing changes: %w", err)
	}
	if _, err := e.git(ctx, "push", "origin", branch); err != nil {
		return Result{}, fmt.Errorf("pushing to %s: %w", branch, err)
	}

	slog.Info("committed and pushed autofix", "branch", branch)
	return Result{Committed: true}, nil
}

func (e *Executor) checkoutBranch(ctx context.Context, branch string) error {
	if _, err := e.git(ctx, "fetch", "origin", branch); err != nil {
		return fmt.Errorf("fetching branch %s: %w", branch, err)
	}
	if _, err := e.git(ctx, "checkout", branch); err != nil {
		return fmt.Errorf("checking out branch %s: %w", branch, err)
	}
	return nil
}

func (e *Executor) git(ctx context.Context, args ...string) (string, error) {
	return e.runner.Run(ctx, e.workDir, append([]string{"git"}, args...), "")
}
