package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medflow/internal/genai"
)

const sampleTranscript = "Patient Michael Robert Chen seen today for chest pressure. " +
	"Plan: order a lipid panel and start nitroglycerin 0.4mg as needed."

func scriptedComplete(_ context.Context, req genai.Request) (string, error) {
	switch {
	case strings.HasPrefix(req.User, "Extract all patient information"):
		return `{"personal_info": {"full_name": "Michael Robert Chen"}}`, nil
	case strings.HasPrefix(req.User, "Generate a SOAP note"):
		return "SUBJECTIVE:\nchest pressure\nASSESSMENT:\npossible angina\nPLAN:\norder lipid panel", nil
	case strings.HasPrefix(req.User, "Extract structured clinical data"):
		return `{"assessment": {"primary_diagnosis": "angina"}}`, nil
	case strings.HasPrefix(req.User, "Generate a laboratory test request"):
		return `{"request_type": "laboratory_tests", "tests_requested": [{"test_name": "Lipid Panel"}]}`, nil
	case strings.HasPrefix(req.User, "Generate a pharmacy prescription request"):
		return `{"request_type": "prescriptions", "prescriptions": [{"medication": {"generic_name": "nitroglycerin"}}]}`, nil
	}
	return "", errors.New("unexpected message")
}

func withScriptedTransport(t *testing.T, complete genai.CompleteFunc) {
	t.Helper()
	prev := newComplete
	newComplete = func() (genai.CompleteFunc, error) { return complete, nil }
	t.Cleanup(func() { newComplete = prev })
}

func writeTranscript(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visit.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func TestCLIUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("no args: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "usage: medflow") {
		t.Fatalf("usage missing: %s", stderr.String())
	}
	stderr.Reset()
	if code := cli([]string{"bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("unknown command: code = %d", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "bogus"`) {
		t.Fatalf("stderr: %s", stderr.String())
	}
}

func TestProcessCommand(t *testing.T) {
	t.Setenv("MEDFLOW_STORAGE_DRIVER", "fs")
	t.Setenv("MEDFLOW_DATA_DIR", t.TempDir())
	withScriptedTransport(t, scriptedComplete)

	var stdout, stderr bytes.Buffer
	code := cli([]string{"process", writeTranscript(t, sampleTranscript)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"PATIENT INFORMATION",
		"SOAP NOTE",
		"possible angina",
		"LABORATORY TEST REQUISITION",
		"PHARMACY PRESCRIPTION REQUISITION",
		"saved visit visit_",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	stdout.Reset()
	if code := cli([]string{"patients"}, &stdout, &stderr); code != 0 {
		t.Fatalf("patients: code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Michael Robert Chen") {
		t.Fatalf("patients output: %s", stdout.String())
	}

	stdout.Reset()
	if code := cli([]string{"visits", "Michael Robert Chen"}, &stdout, &stderr); code != 0 {
		t.Fatalf("visits: code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "visit_") {
		t.Fatalf("visits output: %s", stdout.String())
	}
}

func TestProcessCommandArchivesRecording(t *testing.T) {
	t.Setenv("MEDFLOW_STORAGE_DRIVER", "memory")
	t.Setenv("MEDFLOW_AUDIO_DRIVER", "fs")
	t.Setenv("MEDFLOW_AUDIO_FS_ROOT", t.TempDir())
	withScriptedTransport(t, scriptedComplete)

	audio := filepath.Join(t.TempDir(), "encounter.webm")
	if err := os.WriteFile(audio, []byte("audio-bytes"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := cli([]string{"process", "-audio", audio, writeTranscript(t, sampleTranscript)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("code = %d, stderr: %s", code, stderr.String())
	}
	entries, err := os.ReadDir(os.Getenv("MEDFLOW_AUDIO_FS_ROOT"))
	if err != nil {
		t.Fatalf("read archive root: %v", err)
	}
	var found bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "recording_") && strings.HasSuffix(e.Name(), ".webm") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no archived recording under %s", os.Getenv("MEDFLOW_AUDIO_FS_ROOT"))
	}
}

func TestProcessCommandFailures(t *testing.T) {
	withScriptedTransport(t, scriptedComplete)

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"process"}, &stdout, &stderr); code != 1 {
		t.Fatalf("missing transcript: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "exactly one transcript") {
		t.Fatalf("stderr: %s", stderr.String())
	}

	stderr.Reset()
	if code := cli([]string{"process", writeTranscript(t, "  ")}, &stdout, &stderr); code != 1 {
		t.Fatalf("empty transcript: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "transcript is empty") {
		t.Fatalf("stderr: %s", stderr.String())
	}

	t.Setenv("MEDFLOW_STORAGE_DRIVER", "memory")
	failing := func(context.Context, genai.Request) (string, error) {
		return "", errors.New("service unavailable")
	}
	withScriptedTransport(t, failing)
	stderr.Reset()
	if code := cli([]string{"process", writeTranscript(t, sampleTranscript)}, &stdout, &stderr); code != 1 {
		t.Fatalf("pipeline failure: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "service unavailable") {
		t.Fatalf("stderr: %s", stderr.String())
	}
}

func TestVisitsUnknownPatient(t *testing.T) {
	t.Setenv("MEDFLOW_STORAGE_DRIVER", "memory")
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"visits", "Nobody"}, &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "no visits stored for Nobody") {
		t.Fatalf("stdout: %s", stdout.String())
	}
}
