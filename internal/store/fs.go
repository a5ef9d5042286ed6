package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultDataDir = "./patient_data"
	summaryFile    = "patient_summary.json"
)

// FSStore is the canonical driver: one directory per sanitized patient name
// holding visit_*.json files plus patient_summary.json, all 2-space indented
// JSON. Saves under one patient serialize behind a mutex; there is no
// cross-process locking.
type FSStore struct {
	root string
	opts options
	mu   sync.Mutex
}

// NewFSStore opens a filesystem store rooted at dir, creating it if needed.
// An empty dir falls back to ./patient_data.
func NewFSStore(dir string, opts ...Option) (*FSStore, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FSStore{root: dir, opts: buildOptions(opts)}, nil
}

// Root returns the configured data directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) SaveVisit(_ context.Context, visit Visit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, partition(visit.PatientName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create patient dir: %w", err)
	}

	now := s.opts.clock()
	id := visitID(now, s.opts.idSuffix())
	rec := newVisitRecord(visit, id, now)
	if err := writeIndentedJSON(filepath.Join(dir, id+".json"), rec); err != nil {
		return "", fmt.Errorf("write visit: %w", err)
	}

	summary, found, err := s.readSummary(dir)
	if err != nil {
		return "", err
	}
	summary = updatedSummary(summary, found, visit, rec["timestamp"].(string))
	if err := writeIndentedJSON(filepath.Join(dir, summaryFile), summary); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return id, nil
}

func (s *FSStore) Visits(_ context.Context, patientName string) ([]VisitRecord, error) {
	dir := filepath.Join(s.root, partition(patientName))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patient dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "visit_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	// visit ids embed the timestamp, so reverse-lexicographic is newest first
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	visits := make([]VisitRecord, 0, len(names))
	for _, name := range names {
		var rec VisitRecord
		if err := readJSON(filepath.Join(dir, name), &rec); err != nil {
			return nil, fmt.Errorf("read visit %s: %w", name, err)
		}
		visits = append(visits, rec)
	}
	return visits, nil
}

func (s *FSStore) Patients(_ context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var summary Summary
		err := readJSON(filepath.Join(s.root, entry.Name(), summaryFile), &summary)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read summary for %s: %w", entry.Name(), err)
		}
		summaries = append(summaries, summary)
	}
	sortSummariesDesc(summaries)
	return summaries, nil
}

func (s *FSStore) PatientSummary(_ context.Context, patientName string) (Summary, bool, error) {
	var summary Summary
	err := readJSON(filepath.Join(s.root, partition(patientName), summaryFile), &summary)
	if errors.Is(err, fs.ErrNotExist) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("read summary: %w", err)
	}
	return summary, true, nil
}

func (s *FSStore) UpdateVisit(_ context.Context, patientName, visitID string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, partition(patientName), visitID+".json")
	var rec VisitRecord
	err := readJSON(path, &rec)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read visit: %w", err)
	}
	mergeVisitFields(rec, fields, s.opts.clock())
	if err := writeIndentedJSON(path, rec); err != nil {
		return false, fmt.Errorf("write visit: %w", err)
	}
	return true, nil
}

// mergeVisitFields overlays updated fields onto a visit record and stamps
// last_modified. The visit id and timestamp are not updatable.
func mergeVisitFields(rec VisitRecord, fields map[string]any, now time.Time) {
	for k, v := range fields {
		if k == "visit_id" || k == "timestamp" {
			continue
		}
		rec[k] = v
	}
	rec["last_modified"] = now.Format(time.RFC3339)
}

func (s *FSStore) readSummary(dir string) (Summary, bool, error) {
	var summary Summary
	err := readJSON(filepath.Join(dir, summaryFile), &summary)
	if errors.Is(err, fs.ErrNotExist) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("read summary: %w", err)
	}
	return summary, true, nil
}

func writeIndentedJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
