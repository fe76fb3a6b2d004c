package blobstore

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/driveline-data/driveline.report/internal/monitoring"
)

// asyncQueueDepth bounds the PutAsync backlog. The tracker writes at most
// one live blob per 5s and one full blob per 15s, so the queue only fills
// when the disk has stalled; new writes are dropped then (bounded loss,
// next flush retries with fresh state).
const asyncQueueDepth = 64

type putRequest struct {
	name string
	blob []byte
}

// SQLiteStore persists blobs in a single sqlite table. Puts are upserts,
// so restarts always observe the last complete write of each name.
type SQLiteStore struct {
	db *sql.DB

	queue chan putRequest
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// OpenSQLite opens (creating if needed) a blob store at path and runs any
// pending schema migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate blob store: %w", err)
	}

	s := &SQLiteStore{
		db:    db,
		queue: make(chan putRequest, asyncQueueDepth),
		done:  make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// Get returns the blob stored under name, or ErrNotFound.
func (s *SQLiteStore) Get(name string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", name, err)
	}
	return blob, nil
}

// Put stores the blob synchronously with last-write-wins semantics.
func (s *SQLiteStore) Put(name string, blob []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (name, value, updated_at_ns) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at_ns = excluded.updated_at_ns
	`, name, blob, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("put blob %q: %w", name, err)
	}
	return nil
}

// PutAsync queues the blob for the single writer goroutine. If the queue
// is full the write is dropped and logged.
func (s *SQLiteStore) PutAsync(name string, blob []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	select {
	case s.queue <- putRequest{name: name, blob: blob}:
	default:
		monitoring.Logf("blobstore: async queue full, dropping write of %q", name)
	}
}

// Close drains pending async writes and closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	<-s.done
	return s.db.Close()
}

// writeLoop serializes async puts so the store has exactly one writer.
func (s *SQLiteStore) writeLoop() {
	defer close(s.done)
	for req := range s.queue {
		if err := s.Put(req.name, req.blob); err != nil {
			monitoring.Logf("blobstore: async write of %q failed: %v", req.name, err)
		}
	}
}
