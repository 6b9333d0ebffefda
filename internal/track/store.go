// Package track persists the set of downloads awaiting verification.
//
// Entries are keyed by a generated identifier and live in a JSON state
// file. Every operation is a get-modify-set under one lock with an
// atomic temp-then-rename write, so concurrent commands cannot tear
// the file. An entry exists from the moment a monitored URL is
// registered until its verification attempt ends; success, mismatch,
// and error all remove it, so an identifier is verified at most once.
package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sumwatch/sumwatch/internal/checksum"
)

// ErrNotFound is returned when no entry exists for an identifier.
var ErrNotFound = errors.New("download not tracked")

// Entry is one tracked download.
type Entry struct {
	ID        string              `json:"id"`
	SourceURL string              `json:"source_url"`
	Checksum  checksum.Descriptor `json:"checksum"`
	CreatedAt time.Time           `json:"created_at"`

	// Completed flips when the download reaches its terminal state.
	Completed bool `json:"completed"`

	// Path is the local file, once known.
	Path string `json:"path,omitempty"`
}

// state is the on-disk shape of the tracking file.
type state struct {
	Downloads map[string]Entry `json:"downloads"`
}

// Store reads and writes the tracking state file.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a store over the given state file path.
// The file is created lazily on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// load reads the state file; a missing file is an empty state.
// Caller must hold s.mu.
func (s *Store) load() (*state, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &state{Downloads: make(map[string]Entry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking state: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse tracking state: %w", err)
	}
	if st.Downloads == nil {
		st.Downloads = make(map[string]Entry)
	}
	return &st, nil
}

// save writes the state atomically: temp file, then rename.
// Caller must hold s.mu for writing.
func (s *Store) save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tracking state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// Add registers a download URL with its scraped checksum descriptor
// and returns the new entry.
func (s *Store) Add(sourceURL string, desc checksum.Descriptor) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:        uuid.NewString(),
		SourceURL: sourceURL,
		Checksum:  desc,
		CreatedAt: time.Now().UTC(),
	}
	st.Downloads[e.ID] = e

	if err := s.save(st); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Get returns the entry for an identifier.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := st.Downloads[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// List returns all entries ordered by creation time.
func (s *Store) List() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(st.Downloads))
	for _, e := range st.Downloads {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// MarkCompleted records a download's terminal state and, when given,
// its local path.
func (s *Store) MarkCompleted(id, path string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := st.Downloads[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.Completed = true
	if path != "" {
		e.Path = path
	}
	st.Downloads[id] = e

	if err := s.save(st); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Remove deletes the entry for an identifier. Removing an already
// absent identifier is an error so callers notice double cleanup.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := st.Downloads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(st.Downloads, id)

	return s.save(st)
}

// MonitoredLinks returns the source URLs of entries still awaiting
// their download, i.e. the link-to-monitor set.
func (s *Store) MonitoredLinks() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, e := range entries {
		if !e.Completed {
			urls = append(urls, e.SourceURL)
		}
	}
	return urls, nil
}

// FindBySourceURL returns the newest entry for a source URL, if any.
func (s *Store) FindBySourceURL(sourceURL string) (Entry, bool, error) {
	entries, err := s.List()
	if err != nil {
		return Entry{}, false, err
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].SourceURL == sourceURL {
			return entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}
