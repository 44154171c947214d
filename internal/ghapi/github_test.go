package ghapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstChangedLine(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  int
	}{
		{
			"simple hunk",
			"@@ -10,5 +12,6 @@ func main() {\n context\n+added\n",
			12,
		},
		{
			"single-line hunk omits counts",
			"@@ -1 +1 @@\n-old\n+new\n",
			1,
		},
		{
			"first of several hunks wins",
			"@@ -3,2 +5,2 @@\n ctx\n@@ -40,3 +44,3 @@\n ctx\n",
			5,
		},
		{"empty patch", "", 0},
		{"binary file has no patch", "Binary files differ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstChangedLine(tt.patch))
		})
	}
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := ParseRepository("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	// Repo names may themselves contain a slash-free dot etc; only the
	// first slash splits.
	owner, repo, err = ParseRepository("acme/widgets.go")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets.go", repo)

	for _, slug := range []string{"", "acme", "/widgets", "acme/"} {
		_, _, err := ParseRepository(slug)
		assert.Error(t, err, "slug %q", slug)
	}
}

func TestReferencesIssue(t *testing.T) {
	assert.True(t, referencesIssue("Fixes #42", 42))
	assert.True(t, referencesIssue("see #42, also #7", 7))
	assert.False(t, referencesIssue("Fixes #420", 42))
	assert.False(t, referencesIssue("no references here", 42))
	assert.False(t, referencesIssue("", 42))
}
