// Package memory provides an in-memory ObjectStore used by tests and
// local development. It mirrors the contract of the real backends,
// including not-found semantics on get, copy and delete.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ storage.ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("copy %s: %w", srcKey, storage.ErrNotFound)
	}
	dup := make([]byte, len(data))
	copy(dup, data)
	m.objects[dstKey] = dup
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("delete %s: %w", key, storage.ErrNotFound)
	}
	delete(m.objects, key)
	return nil
}

// Exists reports whether key is present
func (m *MemoryStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Content returns the stored bytes for key, or nil if absent
func (m *MemoryStore) Content(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil
	}
	dup := make([]byte, len(data))
	copy(dup, data)
	return dup
}
