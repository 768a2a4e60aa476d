package question

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

	"github.com/google/renameio/v2"
)

const storeFileMode = 0o644

// FileStore persists the whole collection as one JSON array.
//
// The collection is loaded once at open and owned in memory afterwards. Every
// mutation writes the full array to a temp file, fsyncs it and renames it over
// the store file while holding the write lock, so concurrent writers cannot
// lose each other's changes and a crash never leaves a half-written file.
type FileStore struct {
	path string

	mu     sync.RWMutex
	coll   collection
	closed bool
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads path, creating it with an empty collection when missing.
// Undecodable content yields a *CorruptStoreError; it is never replaced.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistenceError{Op: "mkdir", Path: path, Err: err}
	}

	items, err := readCollection(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeCollection(path, []Question{}); err != nil {
			return nil, err
		}
		items = []Question{}
	} else if err != nil {
		return nil, err
	}

	coll, err := newCollection(items)
	if err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}
	return &FileStore{path: path, coll: coll}, nil
}

// Path returns the durable file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) List(_ context.Context) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.coll.list(), nil
}

func (s *FileStore) Get(_ context.Context, id string) (Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Question{}, ErrStoreClosed
	}
	q, ok := s.coll.get(id)
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (s *FileStore) Insert(ctx context.Context, q Question) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx); err != nil {
		return Question{}, err
	}
	next, err := s.coll.insert(q)
	if err != nil {
		return Question{}, err
	}
	if err := s.commit(next); err != nil {
		return Question{}, err
	}
	return q.clone(), nil
}

func (s *FileStore) Replace(ctx context.Context, q Question) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx); err != nil {
		return Question{}, err
	}
	next, stored, err := s.coll.replace(q)
	if err != nil {
		return Question{}, err
	}
	if err := s.commit(next); err != nil {
		return Question{}, err
	}
	return stored.clone(), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx); err != nil {
		return err
	}
	next, err := s.coll.remove(id)
	if err != nil {
		return err
	}
	return s.commit(next)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// writable must be called with the write lock held.
func (s *FileStore) writable(ctx context.Context) error {
	if s.closed {
		return ErrStoreClosed
	}
	return ctx.Err()
}

// commit persists next and only then makes it current.
func (s *FileStore) commit(next collection) error {
	if err := writeCollection(s.path, next.items); err != nil {
		return err
	}
	s.coll = next
	return nil
}

func readCollection(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Question{}, nil
	}

	var items []Question
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}
	if items == nil {
		// a literal "null" document
		return nil, &CorruptStoreError{Path: path, Err: fmt.Errorf("expected a JSON array")}
	}
	return items, nil
}

func writeCollection(path string, items []Question) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}
	data = append(data, '\n')
	if err := renameio.WriteFile(path, data, storeFileMode, renameio.WithTempDir(filepath.Dir(path))); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}
