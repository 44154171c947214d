// Package prompts holds the embedded prompt templates for the
// fix-intent and autofix LLM calls.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed *.md
var builtinFS embed.FS

// Load returns the prompt template for the given name.
// Checks user override at ~/.config/bugbot/prompts/<name> first.
func Load(name string) (*template.Template, error) {
	configDir, err := os.UserConfigDir()
	if err == nil {
		userPath := filepath.Join(configDir, "bugbot", "prompts", name)
		if data, err := os.ReadFile(userPath); err == nil {
			return template.New(name).Parse(string(data))
		}
	}

	data, err := builtinFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("loading prompt template %s: %w", name, err)
	}
	return template.New(name).Parse(string(data))
}

// Execute loads a template and executes it with the given data.
func Execute(name string, data any) (string, error) {
	tmpl, err := Load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}

// List returns the names of all available prompt templates.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
