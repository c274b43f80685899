// Package progress persists which items an archive run has finished.
//
// The store is a single JSON document rewritten after every processed item:
//
//	{
//	  "completed": [1, 2, 15],
//	  "failed": {
//	    "3": {"name": "...", "slug": "...", "reasons": ["templates incomplete: 2/3"],
//	          "lastAttempt": "...", "statusSnapshot": {"templates": {"total": 3, "achieved": 2}}}
//	  },
//	  "lastUpdated": "..."
//	}
//
// An id is in exactly one of completed or failed. Writes replace the file
// atomically, so a crash loses at most the update in flight.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/spf13/afero"

	ioutils "github.com/handiism/problem-archiver/internal/io"
	"github.com/handiism/problem-archiver/internal/model"
)

// FileName is the name of the progress file under the output root.
const FileName = "progress.json"

// Failure describes the last unsuccessful attempt at an item.
type Failure struct {
	Name           string                `json:"name"`
	Slug           string                `json:"slug"`
	Reasons        []string              `json:"reasons"`
	LastAttempt    time.Time             `json:"lastAttempt"`
	StatusSnapshot map[model.Kind]Counts `json:"statusSnapshot"`
}

// Counts is the per-kind part of a status snapshot.
type Counts struct {
	Total    int `json:"total"`
	Achieved int `json:"achieved"`
}

// Result is what the scheduler reports for one processed item.
type Result struct {
	Item      model.Item
	Succeeded bool
	Reasons   []string
	Outcomes  []model.Outcome
}

type document struct {
	Completed   []int           `json:"completed"`
	Failed      map[int]Failure `json:"failed"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Store is the durable record of item completion.
type Store struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu          sync.Mutex
	completed   map[int]struct{}
	failed      map[int]Failure
	lastUpdated time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store backed by root/progress.json on fs. Call
// Load to read existing state.
func NewStore(fs afero.Fs, root string, opts ...Option) *Store {
	s := &Store{
		fs:        fs,
		path:      filepath.Join(root, FileName),
		now:       time.Now,
		completed: make(map[int]struct{}),
		failed:    make(map[int]Failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the progress file.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory state with the file's content. A missing file
// leaves the store empty.
func (s *Store) Load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse progress %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed = make(map[int]struct{}, len(doc.Completed))
	for _, id := range doc.Completed {
		s.completed[id] = struct{}{}
	}
	s.failed = make(map[int]Failure, len(doc.Failed))
	for id, f := range doc.Failed {
		if _, done := s.completed[id]; done {
			continue
		}
		s.failed[id] = f
	}
	s.lastUpdated = doc.LastUpdated
	return nil
}

// IsCompleted reports whether id finished in an earlier run.
func (s *Store) IsCompleted(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[id]
	return ok
}

// Completed returns the completed ids in ascending order.
func (s *Store) Completed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedIDs()
}

// Failed returns a copy of the failure records.
func (s *Store) Failed() map[int]Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]Failure, len(s.failed))
	for id, f := range s.failed {
		out[id] = f
	}
	return out
}

// LastUpdated returns the time of the last persisted change.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Record merges one item's result and persists the store.
//
// A success moves the id into completed and drops any earlier failure. A
// failure replaces the id's failure record. Merge and write happen under the
// same lock so concurrent callers never interleave partial states.
func (s *Store) Record(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := r.Item.ID
	if r.Succeeded {
		s.completed[id] = struct{}{}
		delete(s.failed, id)
	} else {
		delete(s.completed, id)
		s.failed[id] = Failure{
			Name:           r.Item.Title,
			Slug:           r.Item.Slug,
			Reasons:        slices.Clone(r.Reasons),
			LastAttempt:    now,
			StatusSnapshot: snapshot(r.Outcomes),
		}
	}
	s.lastUpdated = now

	return s.persist()
}

// persist writes the current state. The caller holds s.mu.
func (s *Store) persist() error {
	doc := document{
		Completed:   s.completedIDs(),
		Failed:      s.failed,
		LastUpdated: s.lastUpdated,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := ioutils.WriteFileAtomic(s.fs, s.path, data); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}
	return nil
}

func (s *Store) completedIDs() []int {
	ids := make([]int, 0, len(s.completed))
	for id := range s.completed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func snapshot(outcomes []model.Outcome) map[model.Kind]Counts {
	out := make(map[model.Kind]Counts, len(outcomes))
	for _, o := range outcomes {
		out[o.Kind] = Counts{Total: o.Total, Achieved: o.Achieved}
	}
	return out
}
