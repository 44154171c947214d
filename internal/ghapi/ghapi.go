// Package ghapi wraps the GitHub REST and GraphQL APIs behind the
// narrow surface the finding lifecycle needs: comment CRUD on issues
// and pull requests, PR metadata, batched review submission, and
// review-thread resolution.
package ghapi

import "context"

// IssueComment is one general comment on an issue or PR.
type IssueComment struct {
	ID   int64
	Body string
}

// ReviewComment is one inline comment on a PR diff.
type ReviewComment struct {
	ID     int64
	NodeID string
	Body   string
	Path   string
	Line   int
}

// ChangedFile is one file touched by a PR, with the first line of its
// first diff hunk (0 when the patch is unavailable).
type ChangedFile struct {
	Path             string
	FirstChangedLine int
}

// DraftComment is a review comment queued for a single batched
// review submission.
type DraftComment struct {
	Path string
	Line int
	Body string
}

// Client abstracts the GitHub operations the lifecycle engine
// performs, for testability.
type Client interface {
	// ListIssueComments returns all comments on an issue, in API
	// list order, across all pages.
	ListIssueComments(ctx context.Context, issueNumber int) ([]IssueComment, error)

	// CreateIssueComment posts a new comment and returns it.
	CreateIssueComment(ctx context.Context, issueNumber int, body string) (*IssueComment, error)

	// UpdateIssueComment replaces the body of an existing comment.
	UpdateIssueComment(ctx context.Context, commentID int64, body string) error

	// ListOpenPRsForBranch returns the numbers of open PRs whose
	// head ref equals the given branch.
	ListOpenPRsForBranch(ctx context.Context, headBranch string) ([]int, error)

	// ListReviewComments returns all inline review comments on a PR.
	ListReviewComments(ctx context.Context, prNumber int) ([]ReviewComment, error)

	// UpdateReviewComment replaces the body of a review comment.
	UpdateReviewComment(ctx context.Context, commentID int64, body string) error

	// CreateReview submits one batched COMMENT review anchored at
	// the given head SHA.
	CreateReview(ctx context.Context, prNumber int, headSHA string, comments []DraftComment) error

	// GetPRHead returns the head SHA of a PR.
	GetPRHead(ctx context.Context, prNumber int) (string, error)

	// ListChangedFiles returns the files touched by a PR with their
	// first changed line.
	ListChangedFiles(ctx context.Context, prNumber int) ([]ChangedFile, error)

	// ResolveReviewThreadForComment resolves the review thread that
	// contains the given comment node id.
	ResolveReviewThreadForComment(ctx context.Context, prNumber int, commentNodeID string) error

	// AuthenticatedUser returns the token's login and an email
	// usable as a git author identity.
	AuthenticatedUser(ctx context.Context) (login, email string, err error)

	// FindOpenPRReferencingIssue returns the number and head branch
	// of the first open PR whose title or body references the issue,
	// or (0, "") when none does.
	FindOpenPRReferencingIssue(ctx context.Context, issueNumber int) (int, string, error)
}
