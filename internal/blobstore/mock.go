package blobstore

import "sync"

// MockStore is an in-memory Store for tests. PutAsync applies writes
// synchronously so assertions never race the writer goroutine. It also
// records the order of put names for flush-cadence assertions.
type MockStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// PutLog records the name of every successful put, in order.
	PutLog []string

	// FailPuts makes every Put return an error, for exercising the
	// write-failure path.
	FailPuts error
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{blobs: make(map[string][]byte)}
}

// Get returns the blob stored under name, or ErrNotFound.
func (m *MockStore) Get(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Put stores a copy of the blob.
func (m *MockStore) Put(name string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return m.FailPuts
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.blobs[name] = cp
	m.PutLog = append(m.PutLog, name)
	return nil
}

// PutAsync stores the blob synchronously.
func (m *MockStore) PutAsync(name string, blob []byte) {
	_ = m.Put(name, blob)
}

// Close is a no-op.
func (m *MockStore) Close() error { return nil }

// PutCount returns how many puts were recorded for the given name.
func (m *MockStore) PutCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, logged := range m.PutLog {
		if logged == name {
			n++
		}
	}
	return n
}
