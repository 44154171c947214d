// Package resolve flips finding markers to resolved on every surface
// a finding lives on, and resolves the matching PR review threads.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/marker"
	"github.com/alanmeadows/bugbot/internal/state"
)

// Marker marks findings resolved.
type Marker struct {
	gh ghapi.Client
}

// NewMarker creates a Marker backed by the given GitHub client.
func NewMarker(gh ghapi.Client) *Marker {
	return &Marker{gh: gh}
}

// MarkResolved flips the marker of every reported finding to
// resolved. Matching is by exact id or sanitized id — the LLM
// sometimes returns ids it has re-sanitized itself, so the union of
// both is authoritative. Per-id failures (missing comments, API
// errors) are logged and skipped; one broken finding never blocks the
// rest.
func (m *Marker) MarkResolved(ctx context.Context, sctx *state.Context, reportedIDs []string) {
	if len(reportedIDs) == 0 {
		return
	}

	exact := make(map[string]bool, len(reportedIDs))
	sanitized := make(map[string]bool, len(reportedIDs))
	for _, id := range reportedIDs {
		exact[id] = true
		sanitized[marker.SanitizeFindingID(id)] = true
	}

	for _, id := range sctx.FindingOrder {
		e := sctx.Existing[id]
		if e.Resolved {
			continue
		}
		if !exact[id] && !sanitized[marker.SanitizeFindingID(id)] {
			continue
		}

		if e.IssueCommentID != 0 {
			m.resolveIssueComment(ctx, sctx, id, e.IssueCommentID)
		}
		if e.PRCommentID != 0 && e.PRNumber != 0 {
			m.resolvePRComment(ctx, id, e.PRNumber, e.PRCommentID)
		}
		e.Resolved = true
	}
}

// resolveIssueComment rewrites the marker in the finding's issue
// comment and appends the resolved note.
func (m *Marker) resolveIssueComment(ctx context.Context, sctx *state.Context, findingID string, commentID int64) {
	body := sctx.IssueCommentBody(commentID)
	if body == "" {
		slog.Error("issue comment for finding no longer exists", "findingID", findingID, "commentID", commentID)
		return
	}

	updated, replaced := marker.ReplaceInBody(body, findingID, true, "")
	if !replaced {
		slog.Error("marker missing from issue comment", "findingID", findingID, "commentID", commentID)
		return
	}
	if !strings.Contains(updated, marker.ResolvedNote) {
		updated = strings.TrimRight(updated, "\n") + "\n\n" + marker.ResolvedNote + "\n"
	}

	if err := m.gh.UpdateIssueComment(ctx, commentID, updated); err != nil {
		slog.Error("failed to mark issue comment resolved", "findingID", findingID, "commentID", commentID, "error", err)
		return
	}
	slog.Info("marked finding resolved", "findingID", findingID, "commentID", commentID)
}

// resolvePRComment re-fetches the PR's review comments (state may
// have moved since the context was loaded), rewrites the marker, and
// resolves the review thread. PR comments stay terse — no note.
func (m *Marker) resolvePRComment(ctx context.Context, findingID string, prNumber int, commentID int64) {
	comments, err := m.gh.ListReviewComments(ctx, prNumber)
	if err != nil {
		slog.Error("failed to re-fetch review comments", "findingID", findingID, "pr", prNumber, "error", err)
		return
	}

	var target *ghapi.ReviewComment
	for i := range comments {
		if comments[i].ID == commentID {
			target = &comments[i]
			break
		}
	}
	if target == nil {
		slog.Error("PR review comment for finding no longer exists", "findingID", findingID, "pr", prNumber, "commentID", commentID)
		return
	}

	updated, replaced := marker.ReplaceInBody(target.Body, findingID, true, "")
	if !replaced {
		slog.Error("marker missing from PR review comment", "findingID", findingID, "commentID", commentID)
		return
	}
	if err := m.gh.UpdateReviewComment(ctx, commentID, updated); err != nil {
		slog.Error("failed to mark PR comment resolved", "findingID", findingID, "commentID", commentID, "error", err)
		return
	}

	if target.NodeID != "" {
		if err := m.gh.ResolveReviewThreadForComment(ctx, prNumber, target.NodeID); err != nil {
			slog.Error("failed to resolve review thread", "findingID", findingID, "commentID", commentID, "error", err)
		}
	}
	slog.Info("marked PR finding resolved", "findingID", findingID, "pr", prNumber, "commentID", commentID)
}
