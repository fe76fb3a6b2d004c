// Package blobstore provides the named-blob key/value store the tracker
// persists through. The contract is deliberately small: crash-atomic,
// last-write-wins puts on named byte blobs, a synchronous get, and a
// fire-and-forget put that never blocks the control loop.
package blobstore

import "errors"

// ErrNotFound is returned by Get when no blob exists under the name.
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is the persistence contract. Exactly one logical writer exists
// per process; implementations must guarantee that a reader after a crash
// sees either the previous or the new value of a blob, never a torn write.
type Store interface {
	// Get returns the blob stored under name, or ErrNotFound.
	Get(name string) ([]byte, error)
	// Put stores the blob synchronously.
	Put(name string, blob []byte) error
	// PutAsync stores the blob without blocking the caller. Failures are
	// logged and dropped; the next periodic flush writes fresh state.
	PutAsync(name string, blob []byte)
	// Close flushes pending async writes and releases resources.
	Close() error
}
