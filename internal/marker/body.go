package marker

import (
	"fmt"
	"strings"

	"github.com/alanmeadows/bugbot/internal/finding"
)

// ResolvedNote is appended to an issue comment when its finding is
// marked fixed. PR review comments stay terse and only get the
// marker flip.
const ResolvedNote = "✅ **Resolved** — this finding has been fixed."

// BuildCommentBody renders the full human-visible comment for a
// finding: title heading, optional severity/location/suggestion
// blocks, the resolved note when applicable, and the marker last.
func BuildCommentBody(f finding.Finding, resolved bool) string {
	var sb strings.Builder

	title := strings.TrimSpace(f.Title)
	if title == "" {
		title = f.ID
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)

	if f.Severity != "" {
		fmt.Fprintf(&sb, "**Severity**: %s\n\n", f.Severity)
	}
	if loc := formatLocation(f); loc != "" {
		fmt.Fprintf(&sb, "**Location**: `%s`\n\n", loc)
	}
	if f.Description != "" {
		sb.WriteString(strings.TrimSpace(f.Description))
		sb.WriteString("\n\n")
	}
	if f.Suggestion != "" {
		fmt.Fprintf(&sb, "**Suggested fix**: %s\n\n", strings.TrimSpace(f.Suggestion))
	}
	if resolved {
		sb.WriteString(ResolvedNote)
		sb.WriteString("\n\n")
	}

	sb.WriteString(Build(f.ID, resolved))
	sb.WriteString("\n")
	return sb.String()
}

func formatLocation(f finding.Finding) string {
	file := strings.TrimSpace(f.File)
	if file == "" {
		return ""
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", file, f.Line)
	}
	return file
}
