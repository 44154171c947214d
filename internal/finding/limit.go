package finding

import "strings"

// LimitResult splits a pass's findings into the ones that get
// individual comments and the overflow that is only summarized.
type LimitResult struct {
	ToPublish      []Finding
	OverflowCount  int
	OverflowTitles []string
}

// ApplyCommentLimit caps how many findings become individual comments.
// Input order is preserved; everything past max lands in the overflow
// summary. Overflow titles fall back to the finding id when empty.
func ApplyCommentLimit(findings []Finding, max int) LimitResult {
	if len(findings) <= max {
		return LimitResult{ToPublish: findings}
	}

	overflow := findings[max:]
	titles := make([]string, 0, len(overflow))
	for _, f := range overflow {
		title := strings.TrimSpace(f.Title)
		if title == "" {
			title = f.ID
		}
		titles = append(titles, title)
	}

	return LimitResult{
		ToPublish:      findings[:max],
		OverflowCount:  len(overflow),
		OverflowTitles: titles,
	}
}
