// Package publish creates and updates finding comments idempotently.
// Identity comes from the context snapshot: a finding whose id is
// already on a comment gets that comment edited in place, everything
// else gets a fresh comment. New PR-anchored comments for a pass are
// batched into a single review submission.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanmeadows/bugbot/internal/finding"
	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/marker"
	"github.com/alanmeadows/bugbot/internal/state"
)

// maxOverflowTitles caps how many overflow titles the summary comment
// lists before collapsing to "+N more".
const maxOverflowTitles = 15

// Publisher posts findings to issue and PR surfaces.
type Publisher struct {
	gh ghapi.Client
}

// NewPublisher creates a Publisher backed by the given GitHub client.
func NewPublisher(gh ghapi.Client) *Publisher {
	return &Publisher{gh: gh}
}

// Publish creates or updates one issue comment per finding, mirrors
// locatable findings onto the PR diff, and posts the overflow summary.
// Findings must already be deduplicated and limited. Per-finding API
// failures are logged and skipped so one bad comment cannot block the
// rest of the pass; the batched review submission error propagates.
func (p *Publisher) Publish(ctx context.Context, sctx *state.Context, issueNumber int, res finding.LimitResult) error {
	var drafts []ghapi.DraftComment

	for _, f := range res.ToPublish {
		body := marker.BuildCommentBody(f, false)

		existing := sctx.Existing[f.ID]
		if existing != nil && existing.IssueCommentID != 0 {
			if err := p.gh.UpdateIssueComment(ctx, existing.IssueCommentID, body); err != nil {
				slog.Error("failed to update finding comment", "findingID", f.ID, "commentID", existing.IssueCommentID, "error", err)
				continue
			}
			slog.Debug("updated finding comment", "findingID", f.ID, "commentID", existing.IssueCommentID)
		} else {
			created, err := p.gh.CreateIssueComment(ctx, issueNumber, body)
			if err != nil {
				slog.Error("failed to create finding comment", "findingID", f.ID, "error", err)
				continue
			}
			slog.Debug("created finding comment", "findingID", f.ID, "commentID", created.ID)
		}

		if draft, update := p.planPRComment(sctx, f, body, existing); update != 0 {
			if err := p.gh.UpdateReviewComment(ctx, update, body); err != nil {
				slog.Error("failed to update PR review comment", "findingID", f.ID, "commentID", update, "error", err)
			}
		} else if draft != nil {
			drafts = append(drafts, *draft)
		}
	}

	if len(drafts) > 0 {
		if err := p.gh.CreateReview(ctx, sctx.PR.Number, sctx.PR.HeadSHA, drafts); err != nil {
			return fmt.Errorf("submitting PR review with %d comments: %w", len(drafts), err)
		}
		slog.Info("submitted PR review", "pr", sctx.PR.Number, "comments", len(drafts))
	}

	if res.OverflowCount > 0 {
		if err := p.publishOverflow(ctx, issueNumber, res); err != nil {
			return err
		}
	}

	return nil
}

// planPRComment decides the PR surface action for one finding: a
// non-zero update id means edit that review comment in place, a
// non-nil draft means queue a new one. A finding with no usable file
// gets neither.
func (p *Publisher) planPRComment(sctx *state.Context, f finding.Finding, body string, existing *state.ExistingFinding) (*ghapi.DraftComment, int64) {
	if sctx.PR == nil {
		return nil, 0
	}

	file := strings.TrimSpace(f.File)
	if file == "" && len(sctx.PR.ChangedFiles) > 0 {
		file = sctx.PR.ChangedFiles[0]
	}
	if file == "" {
		return nil, 0
	}

	if existing != nil && existing.PRCommentID != 0 && existing.PRNumber == sctx.PR.Number {
		return nil, existing.PRCommentID
	}

	line := sctx.PR.FirstDiffLine[file]
	if line == 0 {
		line = f.Line
	}
	if line == 0 {
		line = 1
	}
	return &ghapi.DraftComment{Path: file, Line: line, Body: body}, 0
}

func (p *Publisher) publishOverflow(ctx context.Context, issueNumber int, res finding.LimitResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Additional findings\n\n%d more finding(s) were detected but not posted individually:\n\n", res.OverflowCount)

	titles := res.OverflowTitles
	extra := 0
	if len(titles) > maxOverflowTitles {
		extra = len(titles) - maxOverflowTitles
		titles = titles[:maxOverflowTitles]
	}
	for _, t := range titles {
		fmt.Fprintf(&sb, "- %s\n", t)
	}
	if extra > 0 {
		fmt.Fprintf(&sb, "- +%d more\n", extra)
	}

	if _, err := p.gh.CreateIssueComment(ctx, issueNumber, sb.String()); err != nil {
		return fmt.Errorf("posting overflow summary: %w", err)
	}
	slog.Info("posted overflow summary", "count", res.OverflowCount)
	return nil
}
