package finding

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicate_KeepsFirstByLocation(t *testing.T) {
	in := []Finding{
		{ID: "x", File: "a.go", Line: 1},
		{ID: "y", File: "a.go", Line: 1},
	}
	out := Deduplicate(in)
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0].ID)
}

func TestDeduplicate_TitleFallback(t *testing.T) {
	longTitle := strings.Repeat("duplicate title ", 10) // > 80 chars
	in := []Finding{
		{ID: "a", Title: longTitle + "first variant"},
		{ID: "b", Title: longTitle + "second variant"},
		{ID: "c", Title: "Different title"},
	}
	out := Deduplicate(in)
	// The two long titles share their first 80 characters and collapse.
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestDeduplicate_MultibyteTitleKey(t *testing.T) {
	// Identical long multibyte titles still collapse to one finding.
	longTitle := strings.Repeat("é", 50) // 100 bytes
	in := []Finding{
		{ID: "a", Title: longTitle + "first"},
		{ID: "b", Title: longTitle + "second"},
	}
	out := Deduplicate(in)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)

	// A key boundary landing mid-rune walks back instead of
	// splitting the byte sequence.
	key := dedupeKey(Finding{Title: "x" + strings.Repeat("é", 50)})
	assert.True(t, utf8.ValidString(key))
}

func TestDeduplicate_TitleCaseInsensitive(t *testing.T) {
	in := []Finding{
		{ID: "a", Title: "Race Condition"},
		{ID: "b", Title: "race condition"},
	}
	out := Deduplicate(in)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestDeduplicate_LocationBeatsTitle(t *testing.T) {
	// Same title but distinct locations stay separate.
	in := []Finding{
		{ID: "a", Title: "Unchecked error", File: "a.go", Line: 10},
		{ID: "b", Title: "Unchecked error", File: "b.go", Line: 20},
	}
	assert.Len(t, Deduplicate(in), 2)
}

func TestDeduplicate_FileTrimmed(t *testing.T) {
	in := []Finding{
		{ID: "a", File: " a.go ", Line: 5},
		{ID: "b", File: "a.go", Line: 5},
	}
	assert.Len(t, Deduplicate(in), 1)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	in := []Finding{
		{ID: "a", File: "a.go", Line: 1},
		{ID: "b", File: "a.go", Line: 1},
		{ID: "c", Title: "t"},
		{ID: "d", Title: "T "},
	}
	once := Deduplicate(in)
	twice := Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}

func TestApplyCommentLimit_AtBoundary(t *testing.T) {
	in := []Finding{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	res := ApplyCommentLimit(in, 3)
	assert.Equal(t, in, res.ToPublish)
	assert.Zero(t, res.OverflowCount)
	assert.Empty(t, res.OverflowTitles)
}

func TestApplyCommentLimit_OneOver(t *testing.T) {
	in := []Finding{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
	}
	res := ApplyCommentLimit(in, 3)
	require.Len(t, res.ToPublish, 3)
	assert.Equal(t, 1, res.OverflowCount)
	assert.Equal(t, []string{"D"}, res.OverflowTitles)
}

func TestApplyCommentLimit_TitleFallsBackToID(t *testing.T) {
	in := []Finding{
		{ID: "a", Title: "A"},
		{ID: "no-title", Title: "  "},
	}
	res := ApplyCommentLimit(in, 1)
	assert.Equal(t, []string{"no-title"}, res.OverflowTitles)
}

func TestApplyCommentLimit_PreservesOrder(t *testing.T) {
	in := []Finding{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	res := ApplyCommentLimit(in, 2)
	assert.Equal(t, "1", res.ToPublish[0].ID)
	assert.Equal(t, "2", res.ToPublish[1].ID)
	assert.Equal(t, 3, res.OverflowCount)
}
