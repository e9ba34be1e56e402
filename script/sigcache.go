package script

import (
	"bytes"
	"sync"

	"github.com/coredag/fullnode/consensus"
)

// SigCache is an ECDSA/Schnorr verification-result cache keyed by
// sighash digest, mirroring the signature-cache DoS mitigation used by
// every mainstream full node: re-validating a transaction already
// accepted into a block (or seen in the mempool) skips the expensive
// curve operation entirely. Only confirmed-valid results are cached;
// a miss always falls through to real verification.
type SigCache struct {
	mu         sync.RWMutex
	entries    map[consensus.Hash256]sigCacheEntry
	maxEntries int
}

type sigCacheEntry struct {
	sig    []byte
	pubKey []byte
}

// NewSigCache creates a cache holding at most maxEntries results.
func NewSigCache(maxEntries int) *SigCache {
	return &SigCache{entries: make(map[consensus.Hash256]sigCacheEntry, maxEntries), maxEntries: maxEntries}
}

// Exists reports whether sig/pubKey verified successfully over digest
// according to a previous Add call. found is false on any cache miss,
// including a digest collision against a different sig/pubKey pair
// (the caller must fall through to real verification in that case).
func (c *SigCache) Exists(digest consensus.Hash256, sig, pubKey []byte) (ok bool, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, present := c.entries[digest]
	if !present || !bytes.Equal(e.sig, sig) || !bytes.Equal(e.pubKey, pubKey) {
		return false, false
	}
	return true, true
}

// Add records a known-valid signature. If the cache is full, one
// entry is evicted at random (Go's map iteration order is unspecified
// but not attacker-influenceable without already controlling a
// preimage of the hashing function).
func (c *SigCache) Add(digest consensus.Hash256, sig, pubKey []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxEntries <= 0 {
		return
	}
	if len(c.entries)+1 > c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[digest] = sigCacheEntry{sig: append([]byte(nil), sig...), pubKey: append([]byte(nil), pubKey...)}
}
