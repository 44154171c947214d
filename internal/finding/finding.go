// Package finding defines the detection-pass data model and the
// per-pass shaping policies (deduplication and comment limiting).
package finding

// Finding is a single reported problem from one detection pass.
// The ID is chosen by the LLM and must be treated as opaque,
// untrusted text; identity persistence lives entirely in comment
// markers, never in memory across passes.
type Finding struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// DetectionResult is the JSON contract for a detection LLM response.
type DetectionResult struct {
	Findings           []Finding `json:"findings"`
	ResolvedFindingIDs []string  `json:"resolved_finding_ids,omitempty"`
}
