// Package gitexec runs verification commands and git operations in
// the checked-out workspace. Commands are executed directly, never
// through a shell, and verify commands from configuration are
// validated against shell metacharacters before anything runs.
package gitexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// shellMetaChars are rejected in verify commands. The commands are
// not shell-invoked, so any of these indicates either a mistake or an
// injection attempt via configuration.
const shellMetaChars = ";&|<>`$(){}"

// TokenizeCommand splits a command line into argv, respecting single-
// and double-quoted substrings. Quotes group; they do not nest.
func TokenizeCommand(s string) ([]string, error) {
	var argv []string
	var cur strings.Builder
	var quote rune
	inToken := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				argv = append(argv, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %s", s)
	}
	if inToken {
		argv = append(argv, cur.String())
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// ValidateVerifyCommand rejects commands carrying shell
// metacharacters or newlines.
func ValidateVerifyCommand(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("invalid verify command: empty")
	}
	if strings.ContainsAny(s, shellMetaChars+"\n\r") {
		return fmt.Errorf("invalid verify command %q: shell metacharacters are not allowed", s)
	}
	return nil
}

// Runner executes subprocesses in a working directory.
type Runner struct{}

// Run executes argv in dir with the given stdin and returns combined
// stdout. Stderr is folded into the error on failure.
func (Runner) Run(ctx context.Context, dir string, argv []string, stdin string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return stdout.String(), fmt.Errorf("%s: %w (%s)", argv[0], err, msg)
	}
	return stdout.String(), nil
}
