package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-memory ObjectStore guarded by an RWMutex. It backs
// unit tests and local development without an S3 endpoint.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// Put stores the bytes under the given object name.
func (m *MemoryStore) Put(_ context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", apperrors.ErrStorageFailure, name, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("%w: %s: declared %d bytes, read %d", apperrors.ErrStorageFailure, name, size, len(data))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memoryObject{data: data, contentType: contentType}
	return name, nil
}

// Get returns a reader over a copy of the stored bytes.
func (m *MemoryStore) Get(_ context.Context, reference string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[reference]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes the stored bytes.
func (m *MemoryStore) Delete(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[reference]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.objects, reference)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Ensure MemoryStore implements ObjectStore at compile time.
var _ ObjectStore = (*MemoryStore)(nil)
