// Package llm abstracts the two LLM invocation modes the lifecycle
// engine uses: schema-constrained/free-text completions against an
// OpenAI-compatible endpoint, and the workspace-editing build agent.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrEmptyResponse indicates the endpoint returned no usable text.
// Callers in the fix-intent path treat this as "not a fix request"
// rather than a hard failure.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Request is a single completion request.
type Request struct {
	Model  string
	System string
	Prompt string
}

// Schema names a strict JSON schema for constrained responses.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Client abstracts completion calls for testability.
type Client interface {
	// Complete sends a free-text prompt and returns the response text.
	Complete(ctx context.Context, req Request) (string, error)

	// CompleteJSON sends a prompt constrained to the given JSON
	// schema and unmarshals the response into out.
	CompleteJSON(ctx context.Context, req Request, schema Schema, out any) error
}

// BuildAgent is the invocation mode that edits the checked-out
// workspace directly rather than returning a diff. The returned text
// is the agent's final report; an empty report is a failure.
type BuildAgent interface {
	Run(ctx context.Context, workDir, prompt string) (string, error)
}
