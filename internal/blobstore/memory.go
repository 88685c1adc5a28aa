package blobstore

import (
	"context"
	"sync"

	"salespulse/internal/errors"
)

// MemoryStore is an in-process ObjectStore. Objects are copied on the way in
// and out. Setting one of the Fail fields makes the matching call return it.
type MemoryStore struct {
	mu         sync.Mutex
	containers map[string]map[string]memoryObject

	FailEnsure error
	FailPut    error
	FailGet    error

	ensureCalls int
	putCalls    int
	getCalls    int
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{containers: make(map[string]map[string]memoryObject)}
}

// EnsureContainer implements ObjectStore
func (m *MemoryStore) EnsureContainer(ctx context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailEnsure != nil {
		return m.FailEnsure
	}
	if _, ok := m.containers[container]; !ok {
		m.containers[container] = make(map[string]memoryObject)
	}
	return nil
}

// PutObject implements ObjectStore. The container must exist.
func (m *MemoryStore) PutObject(ctx context.Context, container, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailPut != nil {
		return m.FailPut
	}
	objects, ok := m.containers[container]
	if !ok {
		return errors.NewNotFoundError(container, errors.ErrObjectNotFound)
	}
	objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GetObject implements ObjectStore
func (m *MemoryStore) GetObject(ctx context.Context, container, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	obj, ok := m.containers[container][key]
	if !ok {
		return nil, errors.NewNotFoundError(container+"/"+key, errors.ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Seed stores data directly, creating the container if needed.
func (m *MemoryStore) Seed(container, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container]; !ok {
		m.containers[container] = make(map[string]memoryObject)
	}
	m.containers[container][key] = memoryObject{data: append([]byte(nil), data...), contentType: JSONContentType}
}

// ContentType returns the content type recorded for an object.
func (m *MemoryStore) ContentType(container, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.containers[container][key]
	return obj.contentType, ok
}

// HasContainer reports whether container has been created.
func (m *MemoryStore) HasContainer(container string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.containers[container]
	return ok
}

// Calls returns the number of EnsureContainer, PutObject and GetObject calls.
func (m *MemoryStore) Calls() (ensure, put, get int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureCalls, m.putCalls, m.getCalls
}
