package llm

import (
	"strings"
	"unicode/utf8"
)

// maxUserCommentLen bounds user text before it is embedded in a
// prompt. Comment bodies on GitHub can reach 64k; anything past this
// adds noise, not signal.
const maxUserCommentLen = 8000

// SanitizeUserComment neutralizes user text before embedding it in a
// prompt: triple-quote runs are collapsed so the text cannot escape a
// quoted block, and the result is length-bounded and trimmed.
func SanitizeUserComment(s string) string {
	for strings.Contains(s, `"""`) {
		s = strings.ReplaceAll(s, `"""`, `""`)
	}
	s = strings.TrimSpace(s)
	if len(s) > maxUserCommentLen {
		cut := maxUserCommentLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "\n…(truncated)"
	}
	return s
}
