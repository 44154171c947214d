// Package autofix builds the fix prompt for targeted findings and
// delegates to the build agent, which edits the workspace directly.
package autofix

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanmeadows/bugbot/internal/llm"
	"github.com/alanmeadows/bugbot/internal/prompts"
	"github.com/alanmeadows/bugbot/internal/state"
)

// FixRequest identifies what to fix and where.
type FixRequest struct {
	TargetFindingIDs []string
	// Ctx lets callers reuse an already-loaded context. Optional.
	Ctx            *state.Context
	IssueNumber    int
	Repo           string
	Branch         string
	UserComment    string
	VerifyCommands []string
	WorkDir        string
}

// FixResult reports a completed agent run. The ids and context feed
// the commit and resolution steps.
type FixResult struct {
	TargetFindingIDs []string
	Ctx              *state.Context
	AgentReport      string
}

// Orchestrator drives the build agent for fix requests.
type Orchestrator struct {
	agent  llm.BuildAgent
	loader *state.Loader
}

// NewOrchestrator creates an Orchestrator. A nil agent disables
// autofix (every call becomes a silent no-op).
func NewOrchestrator(agent llm.BuildAgent, loader *state.Loader) *Orchestrator {
	return &Orchestrator{agent: agent, loader: loader}
}

// Run fixes the targeted findings. Missing configuration, an empty
// target list, or targets that are all already resolved return
// (nil, nil) — nothing to do. An agent run that produces no report
// is a failure.
func (o *Orchestrator) Run(ctx context.Context, req FixRequest) (*FixResult, error) {
	if len(req.TargetFindingIDs) == 0 {
		return nil, nil
	}
	if o.agent == nil {
		slog.Debug("autofix skipped: no build agent configured")
		return nil, nil
	}

	sctx := req.Ctx
	if sctx == nil {
		loaded, err := o.loader.Load(ctx, req.IssueNumber, req.Branch)
		if err != nil {
			return nil, fmt.Errorf("loading context: %w", err)
		}
		sctx = loaded
	}

	// The context may be newer than the caller's targets; drop
	// anything no longer unresolved.
	targets := intersectUnresolved(req.TargetFindingIDs, sctx)
	if len(targets) == 0 {
		slog.Info("autofix skipped: all targets already resolved", "requested", len(req.TargetFindingIDs))
		return nil, nil
	}

	prompt, err := buildFixPrompt(req, sctx, targets)
	if err != nil {
		return nil, fmt.Errorf("building fix prompt: %w", err)
	}

	report, err := o.agent.Run(ctx, req.WorkDir, prompt)
	if err != nil {
		return nil, fmt.Errorf("build agent run for %d finding(s): %w", len(targets), err)
	}

	slog.Info("build agent completed", "targets", len(targets), "reportLength", len(report))
	return &FixResult{
		TargetFindingIDs: targets,
		Ctx:              sctx,
		AgentReport:      report,
	}, nil
}

func intersectUnresolved(targets []string, sctx *state.Context) []string {
	unresolved := make(map[string]bool)
	for _, id := range sctx.UnresolvedIDs() {
		unresolved[id] = true
	}
	var out []string
	for _, id := range targets {
		if unresolved[id] {
			out = append(out, id)
		}
	}
	return out
}

type promptFinding struct {
	ID   string
	Body string
}

// buildFixPrompt renders the autofix template with the full truncated
// comment body of each target — everything the human reader saw.
func buildFixPrompt(req FixRequest, sctx *state.Context, targets []string) (string, error) {
	bodies := make(map[string]string, len(sctx.UnresolvedBodies))
	for _, fb := range sctx.UnresolvedBodies {
		bodies[fb.ID] = fb.Body
	}

	findings := make([]promptFinding, 0, len(targets))
	for _, id := range targets {
		body := bodies[id]
		if body == "" {
			body = "(no stored description)"
		}
		findings = append(findings, promptFinding{ID: id, Body: body})
	}

	prNumber := 0
	if sctx.PR != nil {
		prNumber = sctx.PR.Number
	}

	return prompts.Execute("autofix.md", map[string]any{
		"Repo":           req.Repo,
		"Branch":         req.Branch,
		"IssueNumber":    req.IssueNumber,
		"PRNumber":       prNumber,
		"Findings":       findings,
		"UserComment":    llm.SanitizeUserComment(req.UserComment),
		"VerifyCommands": req.VerifyCommands,
	})
}
