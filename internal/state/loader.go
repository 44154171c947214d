package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/marker"
	"github.com/alanmeadows/bugbot/internal/prompts"
)

// Loader rebuilds a Context from GitHub comments.
type Loader struct {
	gh ghapi.Client
}

// NewLoader creates a Loader backed by the given GitHub client.
func NewLoader(gh ghapi.Client) *Loader {
	return &Loader{gh: gh}
}

// Load scans all issue comments and all review comments on open PRs
// for the head branch and reconstructs the finding state. An empty
// head branch returns an all-empty context without touching the API —
// no PR can be resolved, so every call would be wasted. API errors
// propagate unhandled; callers convert them at the use-case boundary.
func (l *Loader) Load(ctx context.Context, issueNumber int, headBranch string) (*Context, error) {
	sctx := &Context{Existing: make(map[string]*ExistingFinding)}
	if headBranch == "" {
		slog.Debug("no head branch, returning empty context", "issue", issueNumber)
		return sctx, nil
	}

	issueComments, err := l.gh.ListIssueComments(ctx, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("loading issue comments: %w", err)
	}
	sctx.IssueComments = issueComments
	for _, ic := range issueComments {
		for _, ref := range marker.Parse(ic.Body) {
			e := sctx.entry(ref.FindingID)
			e.IssueCommentID = ic.ID
			e.Resolved = ref.Resolved
		}
	}

	openPRs, err := l.gh.ListOpenPRsForBranch(ctx, headBranch)
	if err != nil {
		return nil, fmt.Errorf("resolving open PRs for branch %s: %w", headBranch, err)
	}
	sctx.OpenPRNumbers = openPRs

	for _, prNum := range openPRs {
		reviewComments, err := l.gh.ListReviewComments(ctx, prNum)
		if err != nil {
			return nil, fmt.Errorf("loading review comments for PR %d: %w", prNum, err)
		}
		for _, rc := range reviewComments {
			for _, ref := range marker.Parse(rc.Body) {
				e := sctx.entry(ref.FindingID)
				e.PRCommentID = rc.ID
				e.PRNumber = prNum
				e.Resolved = ref.Resolved
			}
		}
	}

	if block, err := l.buildPreviousFindingsBlock(sctx); err != nil {
		slog.Error("failed to render previous findings block", "error", err)
	} else {
		sctx.PreviousFindingsBlock = block
	}

	if len(openPRs) > 0 {
		pr, err := l.loadPRContext(ctx, openPRs[0])
		if err != nil {
			return nil, err
		}
		sctx.PR = pr
	}

	for _, id := range sctx.FindingOrder {
		e := sctx.Existing[id]
		if e.Resolved || e.IssueCommentID == 0 {
			continue
		}
		body := sctx.IssueCommentBody(e.IssueCommentID)
		if body == "" {
			continue
		}
		sctx.UnresolvedBodies = append(sctx.UnresolvedBodies, FindingBody{
			ID:   id,
			Body: Truncate(body, MaxBodyChars),
		})
	}

	slog.Debug("context loaded",
		"issue", issueNumber,
		"branch", headBranch,
		"findings", len(sctx.Existing),
		"unresolved", len(sctx.UnresolvedBodies),
		"openPRs", len(openPRs))

	return sctx, nil
}

// entry returns the record for an id, creating it on first sight.
func (c *Context) entry(id string) *ExistingFinding {
	if e, ok := c.Existing[id]; ok {
		return e
	}
	e := &ExistingFinding{}
	c.Existing[id] = e
	c.FindingOrder = append(c.FindingOrder, id)
	return e
}

type previousFinding struct {
	ID    string
	Title string
}

func (l *Loader) buildPreviousFindingsBlock(sctx *Context) (string, error) {
	var listed []previousFinding
	for _, id := range sctx.FindingOrder {
		e := sctx.Existing[id]
		if e.Resolved {
			continue
		}
		title := marker.ExtractTitle(sctx.IssueCommentBody(e.IssueCommentID))
		if title == "" {
			title = id
		}
		listed = append(listed, previousFinding{ID: id, Title: title})
	}
	if len(listed) == 0 {
		return "", nil
	}
	return prompts.Execute("previous-findings.md", map[string]any{"Findings": listed})
}

func (l *Loader) loadPRContext(ctx context.Context, prNumber int) (*PRContext, error) {
	sha, err := l.gh.GetPRHead(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("loading head SHA for PR %d: %w", prNumber, err)
	}
	files, err := l.gh.ListChangedFiles(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("loading changed files for PR %d: %w", prNumber, err)
	}
	pr := &PRContext{
		Number:        prNumber,
		HeadSHA:       sha,
		FirstDiffLine: make(map[string]int, len(files)),
	}
	for _, f := range files {
		pr.ChangedFiles = append(pr.ChangedFiles, f.Path)
		if f.FirstChangedLine > 0 {
			pr.FirstDiffLine[f.Path] = f.FirstChangedLine
		}
	}
	return pr, nil
}
