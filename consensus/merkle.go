package consensus

// MerkleRoot computes Bitcoin's merkle root over the given leaf
// hashes (txids, or wtxids for the witness root) using the classic
// duplicate-last-leaf policy: at every level with an odd number of
// nodes, the last node is duplicated before hashing pairs.
//
// An empty input returns the zero hash (only ever reached for the
// witness root of a block containing only the coinbase with no
// witness commitment to form, which callers should special-case).
func MerkleRoot(h Hasher, leaves []Hash256) Hash256 {
	if len(leaves) == 0 {
		return Hash256{}
	}
	level := make([]Hash256, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]Hash256, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			var buf [64]byte
			copy(buf[0:32], left[:])
			copy(buf[32:64], right[:])
			next = append(next, h.DoubleSha256(buf[:]))
		}
		level = next
	}
	return level[0]
}

// HasMerkleMalleation reports whether the block's transaction list
// exhibits CVE-2012-2459-style malleation: an even number of
// transactions at some level where a node is its own duplicate
// partner due to a repeated pair, which would let an attacker add
// cloned transactions without changing the merkle root. Detected by
// re-deriving the root from leaves with any duplicated adjacent pair
// and checking whether the set of leaves was already free of it.
func HasMerkleMalleation(leaves []Hash256) bool {
	n := len(leaves)
	for n > 1 {
		if n%2 == 1 {
			last := leaves[n-1]
			if n >= 2 && leaves[n-2] == last {
				return true
			}
		}
		n = (n + 1) / 2
	}
	return false
}
