package blocktracker

import (
	"sync"

	"github.com/jrick/bitset"

	"github.com/coredag/fullnode/consensus"
)

const initialBitmapBits = 1024

// BlockTracker holds the AvailabilityBitmap plus the validated/highest
// height watermarks. Every method is safe for concurrent use; the
// Chaser's dispatcher and the confirm-worker both call into it.
type BlockTracker struct {
	mu            sync.Mutex
	bitmap        bitset.Bitset
	validatedTip  consensus.Height
	highestStored consensus.Height
}

// New returns a tracker with an empty bitmap and both watermarks at
// genesis.
func New() *BlockTracker {
	return &BlockTracker{}
}

func (t *BlockTracker) capacityLocked() int {
	return len(t.bitmap) * 8
}

// ensureCapacityLocked doubles the backing bitset until it can address
// height h, amortising the reallocation cost of a steadily advancing
// download frontier.
func (t *BlockTracker) ensureCapacityLocked(h consensus.Height) {
	need := int(h) + 1
	cap := t.capacityLocked()
	if need <= cap {
		return
	}
	newCap := cap
	if newCap == 0 {
		newCap = initialBitmapBits
	}
	for newCap < need {
		newCap *= 2
	}
	grown := bitset.NewBytes(newCap)
	copy(grown, t.bitmap)
	t.bitmap = grown
}

func (t *BlockTracker) hasBlockLocked(h consensus.Height) bool {
	if h <= t.validatedTip {
		return true
	}
	if int(h) >= t.capacityLocked() {
		return false
	}
	return t.bitmap.Get(int(h))
}

// MarkAvailable records that the bytes for height h are now present in
// the block store. Heights at or below the validated tip are already
// implicitly available and are ignored.
func (t *BlockTracker) MarkAvailable(h consensus.Height) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h <= t.validatedTip {
		return
	}
	t.ensureCapacityLocked(h)
	t.bitmap.Set(int(h))
	if h > t.highestStored {
		t.highestStored = h
	}
}

// HasBlock reports whether height h has been downloaded, including
// every height at or below the validated tip.
func (t *BlockTracker) HasBlock(h consensus.Height) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasBlockLocked(h)
}

// FindConsecutiveRange walks forward from validatedTip+1 and returns
// the longest unbroken run of available heights. ok is false if even
// the first height past the tip is missing.
func (t *BlockTracker) FindConsecutiveRange() (start, end consensus.Height, count int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start = t.validatedTip + 1
	if !t.hasBlockLocked(start) {
		return 0, 0, 0, false
	}
	end = start
	for t.hasBlockLocked(end + 1) {
		end++
	}
	return start, end, int(end-start) + 1, true
}

// FindBlockingBlock returns the lowest height above the validated tip
// that is still missing, i.e. the height the download pipeline must
// deliver before ChunkValidator can make further progress.
func (t *BlockTracker) FindBlockingBlock() consensus.Height {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.validatedTip + 1
	for t.hasBlockLocked(h) {
		h++
	}
	return h
}

// MarkValidated advances the validated tip to newTip and clears every
// bit in (old_tip, new_tip], since those heights are now implicitly
// available rather than individually tracked. The tip never moves
// backwards.
func (t *BlockTracker) MarkValidated(newTip consensus.Height) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if newTip < t.validatedTip {
		return newErr(ErrTipRegression, "new tip %d below current tip %d", newTip, t.validatedTip)
	}
	for h := t.validatedTip + 1; h <= newTip; h++ {
		if int(h) < t.capacityLocked() {
			t.bitmap.Unset(int(h))
		}
	}
	t.validatedTip = newTip
	if newTip > t.highestStored {
		t.highestStored = newTip
	}
	return nil
}

// Reset zeroes the bitmap and sets both watermarks to newValidatedTip,
// used for an operator-initiated reindex.
func (t *BlockTracker) Reset(newValidatedTip consensus.Height) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bitmap = nil
	t.validatedTip = newValidatedTip
	t.highestStored = newValidatedTip
}

// ValidatedTip returns the current validated height.
func (t *BlockTracker) ValidatedTip() consensus.Height {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.validatedTip
}

// HighestStored returns the highest height ever marked available.
func (t *BlockTracker) HighestStored() consensus.Height {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highestStored
}
