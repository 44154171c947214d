// Package intent classifies human replies: does this comment ask
// bugbot to fix one or more previously reported findings, and which
// ones?
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/llm"
	"github.com/alanmeadows/bugbot/internal/prompts"
	"github.com/alanmeadows/bugbot/internal/state"
)

// descriptionExcerptLen bounds per-finding description text in the
// intent prompt.
const descriptionExcerptLen = 300

// intentSchema is the strict response contract for the intent call.
var intentSchema = llm.Schema{
	Name: "fix_intent",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"is_fix_request": {"type": "boolean"},
			"target_finding_ids": {"type": "array", "items": {"type": "string"}},
			"is_do_request": {"type": "boolean"}
		},
		"required": ["is_fix_request", "target_finding_ids"],
		"additionalProperties": false
	}`),
}

type intentResponse struct {
	IsFixRequest     bool     `json:"is_fix_request"`
	TargetFindingIDs []string `json:"target_finding_ids"`
	IsDoRequest      bool     `json:"is_do_request"`
}

// Request carries one user reply to classify.
type Request struct {
	IssueNumber int
	CommentBody string
	// HeadBranch is empty for issue-comment events with no commit
	// branch; the detector then resolves one via an open PR that
	// references the issue.
	HeadBranch string
	// ParentBody is the comment being replied to, for PR thread
	// replies. Optional.
	ParentBody string
	// Ctx lets callers reuse an already-loaded context to avoid
	// redundant API calls. Optional.
	Ctx *state.Context
}

// Result is the detector's classification. A nil Result with a nil
// error means a precondition was not met and there is nothing to do.
type Result struct {
	IsFixRequest     bool
	IsDoRequest      bool
	TargetFindingIDs []string
	Ctx              *state.Context
	BranchOverride   string
}

// Detector asks the LLM whether a reply requests fixes.
type Detector struct {
	gh     ghapi.Client
	llm    llm.Client
	loader *state.Loader
	model  string
}

// NewDetector creates a Detector. A nil llm client or empty model
// disables detection (every call becomes a silent no-op).
func NewDetector(gh ghapi.Client, llmClient llm.Client, loader *state.Loader, model string) *Detector {
	return &Detector{gh: gh, llm: llmClient, loader: loader, model: model}
}

// Detect classifies one reply. Missing configuration, an unresolvable
// branch, or no unresolved findings all return (nil, nil) — these are
// deliberate no-ops, not errors.
func (d *Detector) Detect(ctx context.Context, req Request) (*Result, error) {
	if d.llm == nil || d.model == "" {
		slog.Debug("fix-intent detection skipped: no LLM configured")
		return nil, nil
	}
	if req.IssueNumber <= 0 || strings.TrimSpace(req.CommentBody) == "" {
		slog.Debug("fix-intent detection skipped: missing issue or comment", "issue", req.IssueNumber)
		return nil, nil
	}

	branch := req.HeadBranch
	var branchOverride string
	if branch == "" {
		prNum, ref, err := d.gh.FindOpenPRReferencingIssue(ctx, req.IssueNumber)
		if err != nil {
			return nil, fmt.Errorf("resolving branch for issue %d: %w", req.IssueNumber, err)
		}
		if prNum == 0 || ref == "" {
			slog.Debug("fix-intent detection skipped: no branch resolvable", "issue", req.IssueNumber)
			return nil, nil
		}
		branch = ref
		branchOverride = ref
	}

	sctx := req.Ctx
	if sctx == nil {
		loaded, err := d.loader.Load(ctx, req.IssueNumber, branch)
		if err != nil {
			return nil, fmt.Errorf("loading context: %w", err)
		}
		sctx = loaded
	}

	unresolved := sctx.UnresolvedIDs()
	if len(unresolved) == 0 {
		slog.Debug("fix-intent detection skipped: no unresolved findings", "issue", req.IssueNumber)
		return nil, nil
	}

	prompt, err := prompts.Execute("fix-intent.md", map[string]any{
		"UserComment":    llm.SanitizeUserComment(req.CommentBody),
		"ParentBody":     llm.SanitizeUserComment(req.ParentBody),
		"FindingsDigest": findingsDigest(sctx, unresolved),
	})
	if err != nil {
		return nil, fmt.Errorf("building fix-intent prompt: %w", err)
	}

	var resp intentResponse
	err = d.llm.CompleteJSON(ctx, llm.Request{Model: d.model, Prompt: prompt}, intentSchema, &resp)
	if errors.Is(err, llm.ErrEmptyResponse) {
		slog.Warn("fix-intent LLM returned no response, treating as not a fix request", "issue", req.IssueNumber)
		return &Result{Ctx: sctx, BranchOverride: branchOverride}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fix-intent classification: %w", err)
	}

	targets := filterKnownIDs(resp.TargetFindingIDs, unresolved)
	slog.Info("fix-intent classified",
		"issue", req.IssueNumber,
		"isFixRequest", resp.IsFixRequest,
		"isDoRequest", resp.IsDoRequest,
		"targets", len(targets))

	return &Result{
		IsFixRequest:     resp.IsFixRequest,
		IsDoRequest:      resp.IsDoRequest,
		TargetFindingIDs: targets,
		Ctx:              sctx,
		BranchOverride:   branchOverride,
	}, nil
}

// filterKnownIDs drops LLM-returned ids that are not actually
// unresolved — the model occasionally hallucinates targets. Response
// order is preserved.
func filterKnownIDs(targets, unresolved []string) []string {
	known := make(map[string]bool, len(unresolved))
	for _, id := range unresolved {
		known[id] = true
	}
	var out []string
	for _, id := range targets {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}

// locationPattern pulls the location line back out of a rendered
// comment body.
var locationPattern = regexp.MustCompile("(?m)^\\*\\*Location\\*\\*: `([^`]+)`")

// findingsDigest renders one compact line-group per unresolved
// finding: id, title, location when present, and a bounded
// description excerpt.
func findingsDigest(sctx *state.Context, unresolved []string) string {
	bodies := make(map[string]string, len(sctx.UnresolvedBodies))
	for _, fb := range sctx.UnresolvedBodies {
		bodies[fb.ID] = fb.Body
	}

	var sb strings.Builder
	for _, id := range unresolved {
		body := bodies[id]
		title := extractTitleOrID(body, id)
		fmt.Fprintf(&sb, "- id: %s\n  title: %s\n", id, title)
		if m := locationPattern.FindStringSubmatch(body); len(m) > 1 {
			fmt.Fprintf(&sb, "  location: %s\n", m[1])
		}
		if desc := descriptionExcerpt(body); desc != "" {
			fmt.Fprintf(&sb, "  description: %s\n", desc)
		}
	}
	return sb.String()
}

func extractTitleOrID(body, id string) string {
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "## "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return id
}

// descriptionExcerpt returns the first prose paragraph of a comment
// body, skipping the heading, bold metadata lines, and the marker.
func descriptionExcerpt(body string) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "",
			strings.HasPrefix(trimmed, "## "),
			strings.HasPrefix(trimmed, "**"),
			strings.HasPrefix(trimmed, "<!--"):
			continue
		}
		lines = append(lines, trimmed)
	}
	excerpt := strings.Join(lines, " ")
	if len(excerpt) > descriptionExcerptLen {
		cut := descriptionExcerptLen
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "…"
	}
	return excerpt
}
