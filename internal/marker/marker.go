// Package marker encodes and decodes finding identity inside GitHub
// comment bodies. The marker is the only durable record the system
// has: an HTML comment carrying the finding id and its resolved flag,
// embedded in otherwise human-readable text. Everything here must
// degrade gracefully on malformed input — comment bodies are
// externally mutable and nothing guarantees a marker survives a
// human edit intact.
package marker

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Prefix identifies bugbot markers inside HTML comments.
const Prefix = "BUGBOT_FINDING"

// maxIDLen bounds finding ids. Ids come from the LLM and are
// untrusted; an unbounded id inside a compiled pattern is a ReDoS
// vector. The bound is applied during sanitization so the encoder and
// the per-id matcher always see the same id.
const maxIDLen = 256

// parsePattern tolerates extra whitespace around the prefix and keys
// but requires the quoted id and the literal boolean word.
var parsePattern = regexp.MustCompile(
	`<!--\s*` + Prefix + `\s+finding_id:"([^"]*)"\s+resolved:(true|false)\s*-->`)

// Ref is one decoded marker occurrence.
type Ref struct {
	FindingID string
	Resolved  bool
}

// SanitizeFindingID strips every sequence that could close the HTML
// comment early or open another one: "-->", "<!", "<", ">", double
// quotes, and all newline variants. The result is trimmed and capped
// at maxIDLen bytes (on a rune boundary), so it is safe to embed
// between the marker's quotes and inside a compiled pattern.
func SanitizeFindingID(id string) string {
	r := strings.NewReplacer(
		"-->", "",
		"<!", "",
		"<", "",
		">", "",
		`"`, "",
		"\r\n", "",
		"\n", "",
		"\r", "",
	)
	// A single pass can expose a new bad sequence (e.g. "--\n>"),
	// so replace until the output is stable.
	for {
		next := r.Replace(id)
		if next == id {
			break
		}
		id = next
	}
	id = strings.TrimSpace(id)
	if len(id) > maxIDLen {
		cut := maxIDLen
		for cut > 0 && !utf8.RuneStart(id[cut]) {
			cut--
		}
		id = strings.TrimSpace(id[:cut])
	}
	return id
}

// Build renders the canonical single-line marker for a finding.
func Build(id string, resolved bool) string {
	return fmt.Sprintf(`<!-- %s finding_id:"%s" resolved:%t -->`, Prefix, SanitizeFindingID(id), resolved)
}

// Parse returns every marker found in a comment body, in order.
// A body normally carries one, but nothing prevents more.
func Parse(body string) []Ref {
	matches := parsePattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Ref{
			FindingID: m[1],
			Resolved:  m[2] == "true",
		})
	}
	return refs
}

// RegexForFinding compiles a pattern matching only the marker for the
// given id, regardless of its resolved flag. Sanitization bounds the
// id and QuoteMeta escapes it before compilation, so the pattern
// matches exactly what Build emits.
func RegexForFinding(id string) (*regexp.Regexp, error) {
	pattern := `<!--\s*` + Prefix + `\s+finding_id:"` + regexp.QuoteMeta(SanitizeFindingID(id)) + `"\s+resolved:(?:true|false)\s*-->`
	return regexp.Compile(pattern)
}

// ReplaceInBody substitutes the marker for one finding in place. When
// replacement is empty the regenerated marker with the given resolved
// flag is used; otherwise the caller-supplied block is. Returns
// replaced=false (and logs) when no marker for the id is present —
// callers must check the flag rather than assume success.
func ReplaceInBody(body, id string, resolved bool, replacement string) (string, bool) {
	re, err := RegexForFinding(id)
	if err != nil {
		slog.Error("failed to build marker regex", "findingID", id, "error", err)
		return body, false
	}
	if !re.MatchString(body) {
		slog.Warn("marker not found in comment body", "findingID", id)
		return body, false
	}
	if replacement == "" {
		replacement = Build(id, resolved)
	}
	return re.ReplaceAllLiteralString(body, replacement), true
}

// ExtractTitle returns the text of the first markdown "##" heading
// line in a body, or an empty string.
func ExtractTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "## "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
