// Package pipeline models the fix-request flow as an explicit chain
// of typed steps instead of nested conditionals: load context, detect
// intent, autofix, commit/push, mark resolved. Each step returns a
// tagged result so control flow between use cases is data.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Status tags a step outcome.
type Status int

const (
	// StatusSuccess means the step ran and the chain continues.
	StatusSuccess Status = iota
	// StatusFailure means the step failed and the chain stops.
	StatusFailure
	// StatusSkipped means a precondition was not met; the chain
	// stops without error — a deliberate no-op.
	StatusSkipped
)

// String returns the lowercase tag name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StepResult is one step's tagged outcome.
type StepResult struct {
	Name   string
	Status Status
	Detail string
	Err    error
}

// Step is one stage of the chain. Steps communicate through shared
// state captured in their closures; the result decides whether the
// runner continues.
type Step struct {
	Name string
	Run  func(ctx context.Context) StepResult
}

// Success builds a success result.
func Success(name, detail string) StepResult {
	return StepResult{Name: name, Status: StatusSuccess, Detail: detail}
}

// Failure builds a failure result.
func Failure(name string, err error) StepResult {
	return StepResult{Name: name, Status: StatusFailure, Err: err}
}

// Skip builds a skipped result.
func Skip(name, detail string) StepResult {
	return StepResult{Name: name, Status: StatusSkipped, Detail: detail}
}

// Run executes steps in order, stopping at the first failure or skip.
// All executed step results are returned, last one included, so
// callers can report exactly where the chain ended.
func Run(ctx context.Context, steps []Step) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		res := step.Run(ctx)
		res.Name = step.Name
		results = append(results, res)

		switch res.Status {
		case StatusFailure:
			slog.Error("pipeline step failed", "step", step.Name, "error", res.Err)
			return results
		case StatusSkipped:
			slog.Info("pipeline stopped", "step", step.Name, "reason", res.Detail)
			return results
		default:
			slog.Debug("pipeline step completed", "step", step.Name, "detail", res.Detail)
		}
	}
	return results
}

// Failed reports whether any result in the chain is a failure.
func Failed(results []StepResult) bool {
	for _, r := range results {
		if r.Status == StatusFailure {
			return true
		}
	}
	return false
}
