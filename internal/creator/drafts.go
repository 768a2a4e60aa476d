package creator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/gokatarajesh/question-bank/internal/question"
)

// ErrDraftNotFound is returned for unknown draft ids.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is a question still being authored. It is not validated until published.
type Draft struct {
	question.Question
	Draft   bool      `json:"draft"`
	SavedAt time.Time `json:"savedAt"`
}

// DraftStore keeps drafts in save order, optionally mirrored to a JSON file.
type DraftStore struct {
	path string

	mu     sync.RWMutex
	drafts []Draft
}

// OpenDraftStore loads drafts from path. An empty path keeps drafts in memory only.
func OpenDraftStore(path string) (*DraftStore, error) {
	s := &DraftStore{path: path, drafts: []Draft{}}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &question.PersistenceError{Op: "mkdir", Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, &question.PersistenceError{Op: "read", Path: path, Err: err}
	case len(bytes.TrimSpace(data)) == 0:
		return s, nil
	}
	if err := json.Unmarshal(data, &s.drafts); err != nil {
		return nil, &question.CorruptStoreError{Path: path, Err: err}
	}
	if s.drafts == nil {
		return nil, &question.CorruptStoreError{Path: path, Err: fmt.Errorf("expected a JSON array")}
	}
	return s, nil
}

// List returns drafts in the order they were first saved.
func (s *DraftStore) List(_ context.Context) []Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Draft(nil), s.drafts...)
}

func (s *DraftStore) Get(_ context.Context, id string) (Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.drafts[i], nil
	}
	return Draft{}, ErrDraftNotFound
}

// Save inserts d or replaces the draft with the same id in place.
func (s *DraftStore) Save(_ context.Context, d Draft) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(make([]Draft, 0, len(s.drafts)+1), s.drafts...)
	if i := s.indexOf(d.ID); i >= 0 {
		next[i] = d
	} else {
		next = append(next, d)
	}
	if err := s.persist(next); err != nil {
		return Draft{}, err
	}
	s.drafts = next
	return d, nil
}

func (s *DraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrDraftNotFound
	}
	next := make([]Draft, 0, len(s.drafts)-1)
	next = append(next, s.drafts[:i]...)
	next = append(next, s.drafts[i+1:]...)
	if err := s.persist(next); err != nil {
		return err
	}
	s.drafts = next
	return nil
}

// Take removes the draft and returns it together with its position, so a
// caller that fails to use it can put it back with Restore.
func (s *DraftStore) Take(_ context.Context, id string) (Draft, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Draft{}, -1, ErrDraftNotFound
	}
	d := s.drafts[i]
	next := make([]Draft, 0, len(s.drafts)-1)
	next = append(next, s.drafts[:i]...)
	next = append(next, s.drafts[i+1:]...)
	if err := s.persist(next); err != nil {
		return Draft{}, -1, err
	}
	s.drafts = next
	return d, i, nil
}

// Restore reinserts a taken draft at pos. A draft saved under the same id in
// the meantime wins.
func (s *DraftStore) Restore(_ context.Context, d Draft, pos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(d.ID) >= 0 {
		return nil
	}
	pos = min(max(pos, 0), len(s.drafts))
	next := make([]Draft, 0, len(s.drafts)+1)
	next = append(next, s.drafts[:pos]...)
	next = append(next, d)
	next = append(next, s.drafts[pos:]...)
	if err := s.persist(next); err != nil {
		return err
	}
	s.drafts = next
	return nil
}

func (s *DraftStore) indexOf(id string) int {
	for i := range s.drafts {
		if s.drafts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DraftStore) persist(drafts []Draft) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(drafts, "", "  ")
	if err != nil {
		return &question.PersistenceError{Op: "encode", Path: s.path, Err: err}
	}
	err = renameio.WriteFile(s.path, append(data, '\n'), 0o644, renameio.WithTempDir(filepath.Dir(s.path)))
	if err != nil {
		return &question.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
