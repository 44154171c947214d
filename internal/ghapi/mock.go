package ghapi

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a recording test double for Client. Zero value is usable;
// populate the slices/maps to serve canned data and set the Err
// fields to inject failures.
type Fake struct {
	mu sync.Mutex

	IssueComments   []IssueComment
	ReviewComments  map[int][]ReviewComment // prNumber -> comments
	OpenPRs         map[string][]int        // headBranch -> PR numbers
	HeadSHAs        map[int]string          // prNumber -> sha
	ChangedFiles    map[int][]ChangedFile   // prNumber -> files
	Login           string
	Email           string
	ReferencingPR   int
	ReferencingRef  string
	nextIssueCommID int64

	CreatedIssueComments []IssueComment
	UpdatedIssueComments map[int64]string
	UpdatedReviews       map[int64]string
	SubmittedReviews     []SubmittedReview
	ResolvedThreads      []string

	ListIssueErr    error
	CreateErr       error
	UpdateErr       error
	ReviewErr       error
	ResolveErr      error
	ListFilesErr    error
	ListReviewsErr  error
	ListBranchErr   error
	AuthUserErr     error
	FindPRErr       error
	UpdateReviewErr error
}

// SubmittedReview records one batched CreateReview call.
type SubmittedReview struct {
	PRNumber int
	HeadSHA  string
	Comments []DraftComment
}

func (f *Fake) ListIssueComments(_ context.Context, _ int) ([]IssueComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListIssueErr != nil {
		return nil, f.ListIssueErr
	}
	out := make([]IssueComment, len(f.IssueComments))
	copy(out, f.IssueComments)
	return out, nil
}

func (f *Fake) CreateIssueComment(_ context.Context, _ int, body string) (*IssueComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.nextIssueCommID++
	c := IssueComment{ID: 1000 + f.nextIssueCommID, Body: body}
	f.CreatedIssueComments = append(f.CreatedIssueComments, c)
	f.IssueComments = append(f.IssueComments, c)
	return &c, nil
}

func (f *Fake) UpdateIssueComment(_ context.Context, commentID int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if f.UpdatedIssueComments == nil {
		f.UpdatedIssueComments = make(map[int64]string)
	}
	f.UpdatedIssueComments[commentID] = body
	for i := range f.IssueComments {
		if f.IssueComments[i].ID == commentID {
			f.IssueComments[i].Body = body
			return nil
		}
	}
	return fmt.Errorf("issue comment %d not found", commentID)
}

func (f *Fake) ListOpenPRsForBranch(_ context.Context, headBranch string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListBranchErr != nil {
		return nil, f.ListBranchErr
	}
	return f.OpenPRs[headBranch], nil
}

func (f *Fake) ListReviewComments(_ context.Context, prNumber int) ([]ReviewComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListReviewsErr != nil {
		return nil, f.ListReviewsErr
	}
	return f.ReviewComments[prNumber], nil
}

func (f *Fake) UpdateReviewComment(_ context.Context, commentID int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateReviewErr != nil {
		return f.UpdateReviewErr
	}
	if f.UpdatedReviews == nil {
		f.UpdatedReviews = make(map[int64]string)
	}
	f.UpdatedReviews[commentID] = body
	for pr, comments := range f.ReviewComments {
		for i := range comments {
			if comments[i].ID == commentID {
				f.ReviewComments[pr][i].Body = body
				return nil
			}
		}
	}
	return fmt.Errorf("review comment %d not found", commentID)
}

func (f *Fake) CreateReview(_ context.Context, prNumber int, headSHA string, comments []DraftComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReviewErr != nil {
		return f.ReviewErr
	}
	f.SubmittedReviews = append(f.SubmittedReviews, SubmittedReview{
		PRNumber: prNumber,
		HeadSHA:  headSHA,
		Comments: comments,
	})
	return nil
}

func (f *Fake) GetPRHead(_ context.Context, prNumber int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.HeadSHAs[prNumber]
	if !ok {
		return "", fmt.Errorf("PR %d not found", prNumber)
	}
	return sha, nil
}

func (f *Fake) ListChangedFiles(_ context.Context, prNumber int) ([]ChangedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListFilesErr != nil {
		return nil, f.ListFilesErr
	}
	return f.ChangedFiles[prNumber], nil
}

func (f *Fake) ResolveReviewThreadForComment(_ context.Context, _ int, commentNodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ResolveErr != nil {
		return f.ResolveErr
	}
	f.ResolvedThreads = append(f.ResolvedThreads, commentNodeID)
	return nil
}

func (f *Fake) AuthenticatedUser(_ context.Context) (string, string, error) {
	if f.AuthUserErr != nil {
		return "", "", f.AuthUserErr
	}
	login := f.Login
	if login == "" {
		login = "bugbot"
	}
	email := f.Email
	if email == "" {
		email = login + "@users.noreply.github.com"
	}
	return login, email, nil
}

func (f *Fake) FindOpenPRReferencingIssue(_ context.Context, _ int) (int, string, error) {
	if f.FindPRErr != nil {
		return 0, "", f.FindPRErr
	}
	return f.ReferencingPR, f.ReferencingRef, nil
}

// Verify Fake implements Client at compile time.
var _ Client = (*Fake)(nil)
