package llm

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON pulls a JSON object or array out of LLM output that may
// carry markdown fences or surrounding prose. Returns the input
// unchanged when no JSON-looking region is found.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	}

	startObj := strings.IndexByte(s, '{')
	startArr := strings.IndexByte(s, '[')

	start := -1
	isArray := false
	switch {
	case startObj >= 0 && startArr >= 0:
		if startArr < startObj {
			start = startArr
			isArray = true
		} else {
			start = startObj
		}
	case startObj >= 0:
		start = startObj
	case startArr >= 0:
		start = startArr
		isArray = true
	}
	if start < 0 {
		return s
	}

	var end int
	if isArray {
		end = strings.LastIndexByte(s, ']')
	} else {
		end = strings.LastIndexByte(s, '}')
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
