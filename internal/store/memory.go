package store

import (
	"context"
	"sort"
	"sync"

	"medflow/pkg/document"
)

// MemoryStore keeps visits and summaries in process memory. It backs tests
// and is the state engine the snapshotting SQL drivers embed.
type MemoryStore struct {
	mu        sync.RWMutex
	visits    map[string][]VisitRecord
	summaries map[string]Summary
	opts      options
}

// Snapshot is the full exportable state of a MemoryStore, keyed by
// partition name.
type Snapshot struct {
	Visits    map[string][]VisitRecord `json:"visits"`
	Summaries map[string]Summary       `json:"summaries"`
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		visits:    map[string][]VisitRecord{},
		summaries: map[string]Summary{},
		opts:      buildOptions(opts),
	}
}

func (s *MemoryStore) SaveVisit(_ context.Context, visit Visit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := partition(visit.PatientName)
	now := s.opts.clock()
	id := visitID(now, s.opts.idSuffix())
	rec := newVisitRecord(visit, id, now)
	s.visits[key] = append(s.visits[key], rec)

	summary, found := s.summaries[key]
	s.summaries[key] = updatedSummary(summary, found, visit, rec["timestamp"].(string))
	return id, nil
}

func (s *MemoryStore) Visits(_ context.Context, patientName string) ([]VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.visits[partition(patientName)]
	visits := make([]VisitRecord, 0, len(stored))
	for _, rec := range stored {
		visits = append(visits, cloneRecord(rec))
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visitRecordID(visits[i]) > visitRecordID(visits[j])
	})
	if len(visits) == 0 {
		return nil, nil
	}
	return visits, nil
}

func (s *MemoryStore) Patients(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		summaries = append(summaries, cloneSummary(summary))
	}
	sortSummariesDesc(summaries)
	return summaries, nil
}

func (s *MemoryStore) PatientSummary(_ context.Context, patientName string) (Summary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, found := s.summaries[partition(patientName)]
	if !found {
		return Summary{}, false, nil
	}
	return cloneSummary(summary), true, nil
}

func (s *MemoryStore) UpdateVisit(_ context.Context, patientName, visitID string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.visits[partition(patientName)] {
		if visitRecordID(rec) == visitID {
			mergeVisitFields(rec, document.Clone(fields).(map[string]any), s.opts.clock())
			return true, nil
		}
	}
	return false, nil
}

// ExportState deep-copies the current state for external persistence.
func (s *MemoryStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		Visits:    make(map[string][]VisitRecord, len(s.visits)),
		Summaries: make(map[string]Summary, len(s.summaries)),
	}
	for key, records := range s.visits {
		copied := make([]VisitRecord, len(records))
		for i, rec := range records {
			copied[i] = cloneRecord(rec)
		}
		snapshot.Visits[key] = copied
	}
	for key, summary := range s.summaries {
		snapshot.Summaries[key] = cloneSummary(summary)
	}
	return snapshot
}

// ImportState replaces the store state with the snapshot.
func (s *MemoryStore) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visits = map[string][]VisitRecord{}
	for key, records := range snapshot.Visits {
		copied := make([]VisitRecord, len(records))
		for i, rec := range records {
			copied[i] = cloneRecord(rec)
		}
		s.visits[key] = copied
	}
	s.summaries = map[string]Summary{}
	for key, summary := range snapshot.Summaries {
		s.summaries[key] = cloneSummary(summary)
	}
}

func visitRecordID(rec VisitRecord) string {
	id, _ := rec["visit_id"].(string)
	return id
}

func cloneRecord(rec VisitRecord) VisitRecord {
	return document.Clone(rec).(map[string]any)
}

func cloneSummary(summary Summary) Summary {
	if summary.Demographics != nil {
		summary.Demographics = document.Clone(summary.Demographics).(map[string]any)
	}
	return summary
}
