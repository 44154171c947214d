package state

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanmeadows/bugbot/internal/ghapi"
	"github.com/alanmeadows/bugbot/internal/marker"
)

func findingComment(id int64, findingID, title string, resolved bool) ghapi.IssueComment {
	return ghapi.IssueComment{
		ID:   id,
		Body: "## " + title + "\n\ndetails\n\n" + marker.Build(findingID, resolved) + "\n",
	}
}

func TestLoad_EmptyBranchSkipsAPI(t *testing.T) {
	fake := &ghapi.Fake{
		// Any API call would fail loudly.
		ListIssueErr: errors.New("should not be called"),
	}
	loader := NewLoader(fake)

	sctx, err := loader.Load(context.Background(), 7, "")
	require.NoError(t, err)
	assert.Empty(t, sctx.Existing)
	assert.Empty(t, sctx.OpenPRNumbers)
	assert.Nil(t, sctx.PR)
	assert.Empty(t, sctx.PreviousFindingsBlock)
}

func TestLoad_ReconstructsFromIssueComments(t *testing.T) {
	fake := &ghapi.Fake{
		IssueComments: []ghapi.IssueComment{
			findingComment(100, "f1", "First finding", false),
			findingComment(101, "f2", "Second finding", true),
			{ID: 102, Body: "a human comment with no marker"},
		},
	}
	loader := NewLoader(fake)

	sctx, err := loader.Load(context.Background(), 7, "fix/branch")
	require.NoError(t, err)

	require.Len(t, sctx.Existing, 2)
	assert.Equal(t, int64(100), sctx.Existing["f1"].IssueCommentID)
	assert.False(t, sctx.Existing["f1"].Resolved)
	assert.Equal(t, int64(101), sctx.Existing["f2"].IssueCommentID)
	assert.True(t, sctx.Existing["f2"].Resolved)

	assert.Equal(t, []string{"f1"}, sctx.UnresolvedIDs())
	assert.Contains(t, sctx.PreviousFindingsBlock, "f1: First finding")
	assert.NotContains(t, sctx.PreviousFindingsBlock, "f2")
}

func TestLoad_LastCommentInListOrderWins(t *testing.T) {
	fake := &ghapi.Fake{
		IssueComments: []ghapi.IssueComment{
			findingComment(100, "f1", "Old copy", false),
			findingComment(200, "f1", "New copy", true),
		},
	}
	loader := NewLoader(fake)

	sctx, err := loader.Load(context.Background(), 7, "fix/branch")
	require.NoError(t, err)
	require.Len(t, sctx.Existing, 1)
	assert.Equal(t, int64(200), sctx.Existing["f1"].IssueCommentID)
	assert.True(t, sctx.Existing["f1"].Resolved)
}

func TestLoad_MergesPRCommentState(t *testing.T) {
	fake := &ghapi.Fake{
		IssueComments: []ghapi.IssueComment{
			findingComment(100, "f1", "Issue copy", false),
		},
		OpenPRs: map[string][]int{"fix/branch": {5}},
		ReviewComments: map[int][]ghapi.ReviewComment{
			5: {
				{ID: 900, NodeID: "PRRC_1", Path: "a.go", Line: 3,
					Body: marker.Build("f1", false)},
				{ID: 901, NodeID: "PRRC_2", Path: "b.go", Line: 9,
					Body: marker.Build("pr-only", false)},
			},
		},
		HeadSHAs: map[int]string{5: "abc123"},
		ChangedFiles: map[int][]ghapi.ChangedFile{
			5: {{Path: "a.go", FirstChangedLine: 3}, {Path: "b.go", FirstChangedLine: 9}},
		},
	}
	loader := NewLoader(fake)

	sctx, err := loader.Load(context.Background(), 7, "fix/branch")
	require.NoError(t, err)

	f1 := sctx.Existing["f1"]
	require.NotNil(t, f1)
	assert.Equal(t, int64(100), f1.IssueCommentID)
	assert.Equal(t, int64(900), f1.PRCommentID)
	assert.Equal(t, 5, f1.PRNumber)

	// The PR-only finding gets a fresh entry with no issue comment.
	prOnly := sctx.Existing["pr-only"]
	require.NotNil(t, prOnly)
	assert.Zero(t, prOnly.IssueCommentID)
	assert.Equal(t, int64(901), prOnly.PRCommentID)

	require.NotNil(t, sctx.PR)
	assert.Equal(t, 5, sctx.PR.Number)
	assert.Equal(t, "abc123", sctx.PR.HeadSHA)
	assert.Equal(t, []string{"a.go", "b.go"}, sctx.PR.ChangedFiles)
	assert.Equal(t, 3, sctx.PR.FirstDiffLine["a.go"])
}

func TestLoad_UnresolvedBodiesTruncated(t *testing.T) {
	huge := strings.Repeat("x", MaxBodyChars+500)
	fake := &ghapi.Fake{
		IssueComments: []ghapi.IssueComment{
			{ID: 100, Body: "## Big finding\n\n" + huge + "\n\n" + marker.Build("f1", false)},
		},
	}
	loader := NewLoader(fake)

	sctx, err := loader.Load(context.Background(), 7, "fix/branch")
	require.NoError(t, err)

	require.Len(t, sctx.UnresolvedBodies, 1)
	fb := sctx.UnresolvedBodies[0]
	assert.Equal(t, "f1", fb.ID)
	assert.LessOrEqual(t, len(fb.Body), MaxBodyChars+len("\n…(truncated)"))
	assert.True(t, strings.HasSuffix(fb.Body, "…(truncated)"))
}

func TestLoad_APIErrorPropagates(t *testing.T) {
	fake := &ghapi.Fake{ListIssueErr: errors.New("boom")}
	loader := NewLoader(fake)

	_, err := loader.Load(context.Background(), 7, "fix/branch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	got := Truncate(strings.Repeat("a", 10), 5)
	assert.Equal(t, "aaaaa\n…(truncated)", got)
}

func TestTruncate_NeverSplitsRunes(t *testing.T) {
	// "é" is 2 bytes; an odd byte limit would land mid-rune.
	got := Truncate(strings.Repeat("é", 10), 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "éé\n…(truncated)", got)
}
