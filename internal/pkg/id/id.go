// Package id mints the identifiers used for bypass attempts, deliveries,
// uploads and payments.
package id

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ULID. IDs minted in the same millisecond stay in
// creation order, which keeps audit rows sortable by their key alone.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
