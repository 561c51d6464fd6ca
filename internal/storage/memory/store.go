// Package memory provides in-process storage mirroring a browser's local
// key-value storage: values are serialized on write, so readers never alias
// writers, and every write is last-write-wins.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
)

// errMissing is returned by Store.get for an absent key.
var errMissing = errors.New("key not found")

// Store is a process-local key-value store.
type Store struct {
	mu   sync.RWMutex
	seq  uint64
	data map[string]entry
}

type entry struct {
	seq   uint64
	value []byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]entry)}
}

// Ping always succeeds; it lets the store join readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		s.seq++
		e.seq = s.seq
	}
	e.value = value
	s.data[key] = e
}

func (s *Store) get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok {
		return nil, errMissing
	}
	return e.value, nil
}

func (s *Store) del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// scan returns values under prefix in first-insertion order.
func (s *Store) scan(prefix string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]entry, 0)
	for k, e := range s.data {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

func putJSON(s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	s.put(key, data)
	return nil
}

func getJSON(s *Store, key string, v any) error {
	data, err := s.get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "unmarshal %s", key)
	}
	return nil
}

func scanJSON[T any](s *Store, prefix string) ([]T, error) {
	raw := s.scan(prefix)
	out := make([]T, 0, len(raw))
	for _, data := range raw {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrapf(err, "unmarshal %s", prefix)
		}
		out = append(out, v)
	}
	return out, nil
}
