package dek

import (
	"sync"
	"sync/atomic"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// KeyRing is the process-resident cache of unwrapped DEK plaintext,
// keyed by DEK id, plus the current default DEK-id pointer used to encrypt
// newly created or re-encrypted secrets.
//
// Readers dominate (every secret encrypt/decrypt resolves through here), so
// lookups take a read lock; writers (startup load, DEK creation, KEK
// rotation) take a write lock per mutation rather than swapping the whole
// map, since entries are added/refreshed individually far more often than
// the map is rebuilt wholesale.
type KeyRing struct {
	mu      sync.RWMutex
	entries map[uint32][]byte
	// defaultID is accessed via atomic so reads never block behind mu;
	// writers hold mu when they update it to keep it consistent with a
	// concurrent Put of the same id.
	defaultID atomic.Uint32
}

// NewKeyRing builds an empty KeyRing.
func NewKeyRing() *KeyRing {
	return &KeyRing{entries: make(map[uint32][]byte)}
}

// Put imports plaintext key material for id into the cache, replacing any
// existing entry (used on DEK creation and after a KEK rotation re-wraps an
// existing DEK — the plaintext bytes are unchanged but the cache entry is
// refreshed to keep the operation easy to reason about).
//
// plaintextKey is copied into a cache-owned backing array. Callers routinely
// defer-zero their local copy once it's been wrapped/unwrapped for storage;
// without this copy that zeroing would reach into the cache and corrupt the
// live key out from under every subsequent encrypt/decrypt.
func (k *KeyRing) Put(id uint32, plaintextKey []byte) {
	stored := make([]byte, len(plaintextKey))
	copy(stored, plaintextKey)

	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[id] = stored
}

// Get resolves id to its cached plaintext key. Returns
// apperrors.KindNotFound if id isn't (yet) in the cache — the invariant is
// that a DEK-id observed from the default pointer MUST be resolvable here,
// so callers seeing this error for the current default have a startup bug.
func (k *KeyRing) Get(id uint32) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.entries[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "dek %d not present in key cache", id)
	}
	return key, nil
}

// SetDefault updates the current default DEK-id, the id used to encrypt
// newly created or re-encrypted secrets.
func (k *KeyRing) SetDefault(id uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.defaultID.Store(id)
}

// DefaultID returns the current default DEK-id.
func (k *KeyRing) DefaultID() uint32 {
	return k.defaultID.Load()
}

// Remove evicts id from the cache (used when a DEK is deleted).
func (k *KeyRing) Remove(id uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, id)
}
