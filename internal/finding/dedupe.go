package finding

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// titleKeyLen bounds the title fallback key so near-identical long
// titles collapse to one finding.
const titleKeyLen = 80

// Deduplicate collapses near-duplicate findings from a single pass.
// Order-preserving, first occurrence wins. Findings with a location
// are keyed by file:line; the rest fall back to a truncated
// lowercase title key.
func Deduplicate(findings []Finding) []Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		key := dedupeKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func dedupeKey(f Finding) string {
	file := strings.TrimSpace(f.File)
	if file != "" || f.Line != 0 {
		return fmt.Sprintf("%s:%d", file, f.Line)
	}
	title := strings.ToLower(strings.TrimSpace(f.Title))
	if len(title) > titleKeyLen {
		cut := titleKeyLen
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return "title:" + title
}
