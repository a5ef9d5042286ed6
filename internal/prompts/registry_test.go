package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsLoad(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("load embedded defaults: %v", err)
	}
	for _, stage := range []string{
		"patient_data_extraction",
		"soap_note",
		"data_extraction",
		"lab_request_generation",
		"pharmacy_request_generation",
	} {
		cfg, err := r.Config(stage)
		if err != nil {
			t.Fatalf("config %s: %v", stage, err)
		}
		if cfg.Model == "" || cfg.SystemPrompt == "" || cfg.UserMessageTemplate == "" {
			t.Fatalf("config %s incomplete: %+v", stage, cfg)
		}
	}
	if cfg, _ := r.Config("soap_note"); cfg.ResponseFormat == ResponseFormatJSON {
		t.Fatal("soap_note must be a free-text stage")
	}
	if cfg, _ := r.Config("patient_data_extraction"); cfg.ResponseFormat != ResponseFormatJSON {
		t.Fatal("patient_data_extraction must demand JSON output")
	}
}

func TestConfigMissing(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = r.Config("nonexistent_stage")
	var missing MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingError, got %v", err)
	}
	if missing.Category != "nonexistent_stage" {
		t.Fatalf("wrong category: %+v", missing)
	}
}

func TestPromptLookup(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tmpl, err := r.Prompt("templates", "soap_note_output")
	if err != nil {
		t.Fatalf("prompt lookup: %v", err)
	}
	if tmpl == "" {
		t.Fatal("empty soap_note_output template")
	}
	if _, err := r.Prompt("templates", "missing_key"); err == nil {
		t.Fatal("expected error for missing prompt key")
	}
	var missing MissingError
	if _, err := r.Prompt("no_such_category", "x"); !errors.As(err, &missing) {
		t.Fatalf("expected MissingError for missing category, got %v", err)
	}
}

func TestCorruptSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(path)
	var corrupt CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
}

func TestReloadKeepsOldTableOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.json")
	good := []byte(`{"soap_note":{"model":"m","temperature":0.1,"max_tokens":10,"system_prompt":"s","user_message_template":"u"}}`)
	if err := os.WriteFile(path, good, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("expected reload failure on corrupt source")
	}
	cfg, err := r.Config("soap_note")
	if err != nil {
		t.Fatalf("old table lost after failed reload: %v", err)
	}
	if cfg.Model != "m" {
		t.Fatalf("unexpected config after failed reload: %+v", cfg)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.json")
	v1 := []byte(`{"soap_note":{"model":"m1","temperature":0,"max_tokens":1,"system_prompt":"s","user_message_template":"u"}}`)
	v2 := []byte(`{"soap_note":{"model":"m2","temperature":0,"max_tokens":1,"system_prompt":"s","user_message_template":"u"}}`)
	if err := os.WriteFile(path, v1, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := os.WriteFile(path, v2, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	cfg, err := r.Config("soap_note")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Model != "m2" {
		t.Fatalf("reload did not swap table: %+v", cfg)
	}
}

func TestInterpolate(t *testing.T) {
	got := Interpolate("A: {a}, B: {b}, missing: {c}", map[string]string{"a": "1", "b": "2"})
	want := "A: 1, B: 2, missing: {c}"
	if got != want {
		t.Fatalf("interpolate = %q, want %q", got, want)
	}
	if got := Interpolate("static", nil); got != "static" {
		t.Fatalf("interpolate with no vars = %q", got)
	}
}
