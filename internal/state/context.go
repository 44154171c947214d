// Package state reconstructs the finding lifecycle's durable state.
// There is no database: every invocation scans all issue comments and
// all PR review comments for the current branch, decodes the embedded
// markers, and rebuilds the full picture from scratch. Local caches
// are never trusted across invocations.
package state

import (
	"unicode/utf8"

	"github.com/alanmeadows/bugbot/internal/ghapi"
)

// MaxBodyChars caps comment bodies carried into prompts.
const MaxBodyChars = 12000

// ExistingFinding is the reconstructed record for one finding id.
// Zero values mean "no comment on that surface".
type ExistingFinding struct {
	IssueCommentID int64
	PRCommentID    int64
	PRNumber       int
	Resolved       bool
}

// PRContext describes the first open PR for the current branch.
type PRContext struct {
	Number        int
	HeadSHA       string
	ChangedFiles  []string
	FirstDiffLine map[string]int
}

// FindingBody pairs a finding id with its truncated comment body for
// prompting.
type FindingBody struct {
	ID   string
	Body string
}

// Context is a point-in-time snapshot of everything the lifecycle
// engine knows about prior findings.
type Context struct {
	// Existing maps finding id to its reconstructed record. When the
	// same id appears on multiple comments, the last comment in API
	// list order wins.
	Existing map[string]*ExistingFinding

	// FindingOrder lists finding ids in first-seen scan order, so
	// derived blocks render deterministically.
	FindingOrder []string

	IssueComments []ghapi.IssueComment
	OpenPRNumbers []int

	// PreviousFindingsBlock is prompt text listing unresolved prior
	// findings for the detection pass. Empty when there are none.
	PreviousFindingsBlock string

	// PR is nil when no open PR exists for the branch.
	PR *PRContext

	// UnresolvedBodies carries the truncated full comment body of
	// every unresolved finding with a known issue comment.
	UnresolvedBodies []FindingBody
}

// UnresolvedIDs returns the ids of all unresolved findings in scan
// order.
func (c *Context) UnresolvedIDs() []string {
	var ids []string
	for _, id := range c.FindingOrder {
		if e := c.Existing[id]; e != nil && !e.Resolved {
			ids = append(ids, id)
		}
	}
	return ids
}

// IssueCommentBody returns the body of the issue comment with the
// given id, or "".
func (c *Context) IssueCommentBody(commentID int64) string {
	for _, ic := range c.IssueComments {
		if ic.ID == commentID {
			return ic.Body
		}
	}
	return ""
}

// Truncate bounds a comment body for prompt embedding, appending a
// truncation marker when the limit is exceeded. The cut lands on a
// rune boundary so a multibyte character is never split.
func Truncate(body string, max int) string {
	if len(body) <= max {
		return body
	}
	for max > 0 && !utf8.RuneStart(body[max]) {
		max--
	}
	return body[:max] + "\n…(truncated)"
}
