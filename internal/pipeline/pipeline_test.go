package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, res StepResult, ran *[]string) Step {
	return Step{Name: name, Run: func(context.Context) StepResult {
		*ran = append(*ran, name)
		return res
	}}
}

func TestRun_AllSuccess(t *testing.T) {
	var ran []string
	results := Run(context.Background(), []Step{
		step("a", Success("a", "done"), &ran),
		step("b", Success("b", ""), &ran),
	})

	assert.Equal(t, []string{"a", "b"}, ran)
	require.Len(t, results, 2)
	assert.False(t, Failed(results))
}

func TestRun_StopsOnFailure(t *testing.T) {
	var ran []string
	boom := fmt.Errorf("boom")
	results := Run(context.Background(), []Step{
		step("a", Success("a", ""), &ran),
		step("b", Failure("b", boom), &ran),
		step("c", Success("c", ""), &ran),
	})

	assert.Equal(t, []string{"a", "b"}, ran)
	require.Len(t, results, 2)
	assert.Equal(t, StatusFailure, results[1].Status)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.True(t, Failed(results))
}

func TestRun_StopsOnSkipWithoutError(t *testing.T) {
	var ran []string
	results := Run(context.Background(), []Step{
		step("a", Skip("a", "nothing to do"), &ran),
		step("b", Success("b", ""), &ran),
	})

	assert.Equal(t, []string{"a"}, ran)
	require.Len(t, results, 1)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "nothing to do", results[0].Detail)
	assert.False(t, Failed(results))
}

func TestRun_NameComesFromStep(t *testing.T) {
	var ran []string
	// The helper inside the closure names the result differently; the
	// runner stamps the step's own name.
	results := Run(context.Background(), []Step{
		step("outer", Success("inner", ""), &ran),
	})
	require.Len(t, results, 1)
	assert.Equal(t, "outer", results[0].Name)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failure", StatusFailure.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "status(7)", Status(7).String())
}
