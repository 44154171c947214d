package ghapi

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// hunkHeader matches a unified-diff hunk header and captures the
// new-file start line.
var hunkHeader = regexp.MustCompile(`@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// issueRefPattern matches "#N" issue references in PR titles/bodies.
var issueRefPattern = regexp.MustCompile(`#(\d+)\b`)

// GitHub implements Client on top of go-github and githubv4.
type GitHub struct {
	client    *gh.Client
	gqlOnce   sync.Once
	gqlClient *githubv4.Client
	owner     string
	repo      string
	token     string
}

// NewGitHub creates a GitHub client for one owner/repo. The REST
// client carries go-github-ratelimit middleware; the GraphQL client
// is created lazily on first thread resolution.
func NewGitHub(owner, repo, token string) *GitHub {
	rateLimiter := github_ratelimit.NewClient(nil)
	client := gh.NewClient(rateLimiter).WithAuthToken(token)
	return &GitHub{
		client: client,
		owner:  owner,
		repo:   repo,
		token:  token,
	}
}

func (g *GitHub) ListIssueComments(ctx context.Context, issueNumber int) ([]IssueComment, error) {
	var comments []IssueComment
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, issueNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issue comments: %w", err)
		}
		for _, c := range page {
			comments = append(comments, IssueComment{
				ID:   c.GetID(),
				Body: c.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

func (g *GitHub) CreateIssueComment(ctx context.Context, issueNumber int, body string) (*IssueComment, error) {
	created, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, issueNumber, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create issue comment: %w", err)
	}
	return &IssueComment{ID: created.GetID(), Body: created.GetBody()}, nil
}

func (g *GitHub) UpdateIssueComment(ctx context.Context, commentID int64, body string) error {
	_, _, err := g.client.Issues.EditComment(ctx, g.owner, g.repo, commentID, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to update issue comment %d: %w", commentID, err)
	}
	return nil
}

func (g *GitHub) ListOpenPRsForBranch(ctx context.Context, headBranch string) ([]int, error) {
	var numbers []int
	opts := &gh.PullRequestListOptions{
		State:       "open",
		Head:        fmt.Sprintf("%s:%s", g.owner, headBranch),
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		prs, resp, err := g.client.PullRequests.List(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list open PRs for branch %s: %w", headBranch, err)
		}
		for _, pr := range prs {
			if pr.GetHead().GetRef() == headBranch {
				numbers = append(numbers, pr.GetNumber())
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return numbers, nil
}

func (g *GitHub) ListReviewComments(ctx context.Context, prNumber int) ([]ReviewComment, error) {
	var comments []ReviewComment
	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := g.client.PullRequests.ListComments(ctx, g.owner, g.repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments for PR %d: %w", prNumber, err)
		}
		for _, c := range page {
			comments = append(comments, ReviewComment{
				ID:     c.GetID(),
				NodeID: c.GetNodeID(),
				Body:   c.GetBody(),
				Path:   c.GetPath(),
				Line:   c.GetLine(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

func (g *GitHub) UpdateReviewComment(ctx context.Context, commentID int64, body string) error {
	_, _, err := g.client.PullRequests.EditComment(ctx, g.owner, g.repo, commentID, &gh.PullRequestComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to update review comment %d: %w", commentID, err)
	}
	return nil
}

// CreateReview submits all queued comments as a single COMMENT review
// to avoid secondary rate limits from per-comment posts.
func (g *GitHub) CreateReview(ctx context.Context, prNumber int, headSHA string, comments []DraftComment) error {
	if len(comments) == 0 {
		return nil
	}
	draft := make([]*gh.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		draft = append(draft, &gh.DraftReviewComment{
			Path: gh.Ptr(c.Path),
			Line: gh.Ptr(c.Line),
			Side: gh.Ptr("RIGHT"),
			Body: gh.Ptr(c.Body),
		})
	}
	_, _, err := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, prNumber, &gh.PullRequestReviewRequest{
		CommitID: gh.Ptr(headSHA),
		Event:    gh.Ptr("COMMENT"),
		Comments: draft,
	})
	if err != nil {
		return fmt.Errorf("failed to create review on PR %d: %w", prNumber, err)
	}
	return nil
}

func (g *GitHub) GetPRHead(ctx context.Context, prNumber int) (string, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, prNumber)
	if err != nil {
		return "", fmt.Errorf("failed to get PR %d: %w", prNumber, err)
	}
	sha := pr.GetHead().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("PR %d head SHA is empty", prNumber)
	}
	return sha, nil
}

func (g *GitHub) ListChangedFiles(ctx context.Context, prNumber int) ([]ChangedFile, error) {
	var files []ChangedFile
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := g.client.PullRequests.ListFiles(ctx, g.owner, g.repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list changed files for PR %d: %w", prNumber, err)
		}
		for _, f := range page {
			files = append(files, ChangedFile{
				Path:             f.GetFilename(),
				FirstChangedLine: firstChangedLine(f.GetPatch()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// firstChangedLine extracts the new-file start line of the first diff
// hunk in a patch. Returns 0 when the patch is empty or unparseable
// (binary files, very large diffs).
func firstChangedLine(patch string) int {
	m := hunkHeader.FindStringSubmatch(patch)
	if len(m) < 2 {
		return 0
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return line
}

// ResolveReviewThreadForComment resolves a thread via GraphQL. The
// REST API cannot resolve review threads, so the thread containing
// the comment is located by node id and then mutated.
func (g *GitHub) ResolveReviewThreadForComment(ctx context.Context, prNumber int, commentNodeID string) error {
	gql := g.getGraphQLClient(ctx)

	var query struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					Nodes []struct {
						ID         githubv4.ID
						IsResolved bool
						Comments   struct {
							Nodes []struct {
								ID githubv4.ID
							}
						} `graphql:"comments(first: 50)"`
					}
				} `graphql:"reviewThreads(first: 100)"`
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(g.owner),
		"name":   githubv4.String(g.repo),
		"number": githubv4.Int(prNumber),
	}
	if err := gql.Query(ctx, &query, vars); err != nil {
		return fmt.Errorf("failed to query review threads for PR %d: %w", prNumber, err)
	}

	var threadID githubv4.ID
	for _, thread := range query.Repository.PullRequest.ReviewThreads.Nodes {
		if thread.IsResolved {
			continue
		}
		for _, c := range thread.Comments.Nodes {
			if fmt.Sprint(c.ID) == commentNodeID {
				threadID = thread.ID
				break
			}
		}
		if threadID != nil {
			break
		}
	}
	if threadID == nil {
		return fmt.Errorf("no unresolved review thread contains comment %s", commentNodeID)
	}

	var mutation struct {
		ResolveReviewThread struct {
			Thread struct {
				IsResolved bool
			}
		} `graphql:"resolveReviewThread(input: $input)"`
	}
	input := githubv4.ResolveReviewThreadInput{
		ThreadID: threadID,
	}
	if err := gql.Mutate(ctx, &mutation, input, nil); err != nil {
		return fmt.Errorf("failed to resolve review thread: %w", err)
	}
	return nil
}

func (g *GitHub) AuthenticatedUser(ctx context.Context) (string, string, error) {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	login := user.GetLogin()
	email := user.GetEmail()
	if email == "" {
		// Most tokens hide the primary email; the noreply address
		// is always a valid commit identity.
		email = fmt.Sprintf("%s@users.noreply.github.com", login)
	}
	return login, email, nil
}

// FindOpenPRReferencingIssue scans open PRs for a "#N" reference to
// the issue in the PR title or body and returns the first match.
func (g *GitHub) FindOpenPRReferencingIssue(ctx context.Context, issueNumber int) (int, string, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		prs, resp, err := g.client.PullRequests.List(ctx, g.owner, g.repo, opts)
		if err != nil {
			return 0, "", fmt.Errorf("failed to list open PRs: %w", err)
		}
		for _, pr := range prs {
			if referencesIssue(pr.GetTitle(), issueNumber) || referencesIssue(pr.GetBody(), issueNumber) {
				return pr.GetNumber(), pr.GetHead().GetRef(), nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return 0, "", nil
}

func referencesIssue(text string, issueNumber int) bool {
	want := strconv.Itoa(issueNumber)
	for _, m := range issueRefPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == want {
			return true
		}
	}
	return false
}

// getGraphQLClient lazily creates the GitHub GraphQL client.
// Thread-safe via sync.Once.
func (g *GitHub) getGraphQLClient(ctx context.Context) *githubv4.Client {
	g.gqlOnce.Do(func() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token})
		httpClient := oauth2.NewClient(ctx, ts)
		g.gqlClient = githubv4.NewClient(httpClient)
	})
	return g.gqlClient
}

// ParseRepository splits an "owner/repo" slug, as provided by the
// GITHUB_REPOSITORY environment variable in Actions runs.
func ParseRepository(slug string) (owner, repo string, err error) {
	parts := strings.SplitN(slug, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository slug %q, want owner/repo", slug)
	}
	return parts[0], parts[1], nil
}

// Verify GitHub implements Client at compile time.
var _ Client = (*GitHub)(nil)
