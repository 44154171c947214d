package gitexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeCommand(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "go test ./...", []string{"go", "test", "./..."}},
		{"double quotes", `npm run -- "my script"`, []string{"npm", "run", "--", "my script"}},
		{"single quotes", `echo 'hello world'`, []string{"echo", "hello world"}},
		{"mixed", `sh -c 'a b' "c d"`, []string{"sh", "-c", "a b", "c d"}},
		{"extra spaces", "  go   build  ", []string{"go", "build"}},
		{"quoted empty", `cmd ""`, []string{"cmd", ""}},
		{"tabs", "go\ttest", []string{"go", "test"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TokenizeCommand(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTokenizeCommand_Errors(t *testing.T) {
	_, err := TokenizeCommand(`echo "unterminated`)
	assert.Error(t, err)

	_, err = TokenizeCommand("   ")
	assert.Error(t, err)
}

func TestValidateVerifyCommand(t *testing.T) {
	valid := []string{
		"go test ./...",
		"npm test",
		"make check",
		`pytest -k "not slow"`,
	}
	for _, cmd := range valid {
		assert.NoError(t, ValidateVerifyCommand(cmd), cmd)
	}

	invalid := []string{
		"npm test; rm -rf /",
		"make && make install",
		"go test | tee out.log",
		"cat < input",
		"echo $(whoami)",
		"echo `whoami`",
		"go test > /dev/null",
		"bash -c {foo}",
		"line\nbreak",
		"",
		"   ",
	}
	for _, cmd := range invalid {
		assert.Error(t, ValidateVerifyCommand(cmd), cmd)
	}
}

func TestRunner_CapturesStdout(t *testing.T) {
	out, err := Runner{}.Run(context.Background(), t.TempDir(), []string{"echo", "hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRunner_PassesStdin(t *testing.T) {
	out, err := Runner{}.Run(context.Background(), t.TempDir(), []string{"cat"}, "from stdin")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)
}

func TestRunner_ErrorIncludesStderr(t *testing.T) {
	_, err := Runner{}.Run(context.Background(), t.TempDir(), []string{"git", "not-a-command"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git")
}
