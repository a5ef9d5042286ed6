// Package prompts loads stage configurations and prompt templates from an
// editable JSON source, with an embedded default shipped in the binary.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

//go:embed prompts.json
var defaultPrompts []byte

// StageConfig drives a single generation stage. Loaded once per stage name
// at stage construction and immutable thereafter.
type StageConfig struct {
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int     `json:"max_tokens"`
	SystemPrompt        string  `json:"system_prompt"`
	UserMessageTemplate string  `json:"user_message_template"`
	ResponseFormat      string  `json:"response_format,omitempty"`
}

// ResponseFormatJSON marks a stage whose reply must parse as a JSON object.
const ResponseFormatJSON = "json_object"

// MissingError reports an absent stage name or prompt key.
type MissingError struct {
	Category string
	Key      string
}

func (e MissingError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("prompts: category %s not found", e.Category)
	}
	return fmt.Sprintf("prompts: prompt %s.%s not found", e.Category, e.Key)
}

// CorruptError reports a backing source that is not well-formed JSON.
type CorruptError struct {
	Path string
	Err  error
}

func (e CorruptError) Error() string {
	return fmt.Sprintf("prompts: invalid JSON in %s: %v", e.Path, e.Err)
}

func (e CorruptError) Unwrap() error { return e.Err }

type table struct {
	categories map[string]json.RawMessage
}

// Registry resolves stage configurations and prompt templates. Reload swaps
// the whole table atomically; concurrent readers observe either the old or
// the new table, never a mix.
type Registry struct {
	path    string
	current atomic.Pointer[table]
}

// New loads a registry from path. An empty path uses the embedded defaults.
func New(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the backing source and atomically replaces the in-memory
// table. On error the previous table stays in place.
func (r *Registry) Reload() error {
	raw := defaultPrompts
	source := "embedded prompts.json"
	if r.path != "" {
		b, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("prompts: read %s: %w", r.path, err)
		}
		raw = b
		source = r.path
	}
	var categories map[string]json.RawMessage
	if err := json.Unmarshal(raw, &categories); err != nil {
		return CorruptError{Path: source, Err: err}
	}
	r.current.Store(&table{categories: categories})
	return nil
}

// Config resolves the stage configuration for the named stage.
func (r *Registry) Config(stage string) (StageConfig, error) {
	t := r.current.Load()
	raw, ok := t.categories[stage]
	if !ok {
		return StageConfig{}, MissingError{Category: stage}
	}
	var cfg StageConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return StageConfig{}, CorruptError{Path: r.source(), Err: err}
	}
	return cfg, nil
}

// Prompt resolves a named template inside a category, e.g.
// ("templates", "soap_note_output").
func (r *Registry) Prompt(category, key string) (string, error) {
	t := r.current.Load()
	raw, ok := t.categories[category]
	if !ok {
		return "", MissingError{Category: category}
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", CorruptError{Path: r.source(), Err: err}
	}
	entry, ok := entries[key]
	if !ok {
		return "", MissingError{Category: category, Key: key}
	}
	var s string
	if err := json.Unmarshal(entry, &s); err != nil {
		return "", CorruptError{Path: r.source(), Err: err}
	}
	return s, nil
}

func (r *Registry) source() string {
	if r.path == "" {
		return "embedded prompts.json"
	}
	return r.path
}
