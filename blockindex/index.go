package blockindex

import (
	"sync"

	"github.com/coredag/fullnode/consensus"

	"github.com/syndtr/goleveldb/leveldb"
)

// StatusFlags is a bitmask of the validity/availability states a
// header can accumulate as it moves through the pipeline.
type StatusFlags uint16

const (
	StatusValidHeader StatusFlags = 1 << iota
	StatusValidTree
	StatusValidScripts
	StatusValidChain
	StatusHaveData
	StatusFailed
	StatusPruned
)

// Entry is one node of the header DAG.
type Entry struct {
	Hash    consensus.Hash256
	Height  consensus.Height
	Header  consensus.BlockHeader
	CumWork consensus.Work
	Status  StatusFlags
}

// headerKey is the flat goleveldb key for a header entry: a literal
// "h:" prefix (room for future keyspaces in the same store) followed
// by the raw 32-byte hash.
func headerKey(hash consensus.Hash256) []byte {
	k := make([]byte, 2+len(hash))
	copy(k, "h:")
	copy(k[2:], hash[:])
	return k
}

// BlockIndex holds the full header DAG in memory, backed by a
// goleveldb LSM store for crash recovery. The DAG is small relative
// to the UTXO set (one entry per header, not per output) so keeping
// it resident is the same tradeoff Bitcoin Core's own mapBlockIndex
// makes; goleveldb's sequential-iterator reload is a good fit for the
// append-mostly, full-scan-on-open access pattern this package has,
// as opposed to utxostore's need for multi-key ACID transactions.
type BlockIndex struct {
	mu      sync.Mutex
	db      *leveldb.DB
	entries map[consensus.Hash256]*Entry
	heights map[consensus.Height]consensus.Hash256
	bestTip consensus.Hash256
	hasTip  bool
}

// Open loads (or creates) the header index at path, rebuilding the
// in-memory DAG and best-chain pointer from what was last persisted.
func Open(path string) (*BlockIndex, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, newErr(ErrIo, "open %s: %v", path, err)
	}
	bi := &BlockIndex{
		db:      db,
		entries: make(map[consensus.Hash256]*Entry),
		heights: make(map[consensus.Height]consensus.Hash256),
	}
	if err := bi.loadLocked(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return bi, nil
}

func (bi *BlockIndex) loadLocked() error {
	iter := bi.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		k := iter.Key()
		if len(k) != 2+len(consensus.Hash256{}) {
			continue
		}
		var hash consensus.Hash256
		copy(hash[:], k[2:])
		e, err := decodeEntry(hash, iter.Value())
		if err != nil {
			return newErr(ErrCorrupt, "%v", err)
		}
		bi.entries[hash] = e
		if e.Status&StatusValidChain != 0 {
			if !bi.hasTip || e.CumWork.Compare(bi.entries[bi.bestTip].CumWork) > 0 {
				bi.bestTip = hash
				bi.hasTip = true
			}
		}
	}
	if err := iter.Error(); err != nil {
		return newErr(ErrIo, "scan: %v", err)
	}
	if bi.hasTip {
		bi.rebuildHeightsLocked()
	}
	return nil
}

func (bi *BlockIndex) rebuildHeightsLocked() {
	bi.heights = make(map[consensus.Height]consensus.Hash256, len(bi.entries))
	hash := bi.bestTip
	for {
		e, ok := bi.entries[hash]
		if !ok {
			return
		}
		bi.heights[e.Height] = hash
		if e.Header.PrevHash == (consensus.Hash256{}) {
			return
		}
		hash = e.Header.PrevHash
	}
}

func (bi *BlockIndex) Close() error {
	return bi.db.Close()
}

func (bi *BlockIndex) persistLocked(e *Entry) error {
	b, err := encodeEntry(e)
	if err != nil {
		return newErr(ErrCorrupt, "%v", err)
	}
	if err := bi.db.Put(headerKey(e.Hash), b, nil); err != nil {
		return newErr(ErrIo, "put %s: %v", e.Hash, err)
	}
	return nil
}

// InsertHeader validates header against its parent (already-indexed)
// entry and records a new DAG node. Genesis is recognised by a
// zero prev_hash and admitted unconditionally. Re-inserting an
// already-known header is idempotent.
func (bi *BlockIndex) InsertHeader(h consensus.Hasher, header consensus.BlockHeader) (*Entry, error) {
	hash, err := consensus.BlockHash(h, header)
	if err != nil {
		return nil, newErr(ErrCorrupt, "%v", err)
	}

	bi.mu.Lock()
	defer bi.mu.Unlock()

	if existing, ok := bi.entries[hash]; ok {
		return existing, nil
	}

	var entry *Entry
	if header.PrevHash == (consensus.Hash256{}) {
		entry = &Entry{
			Hash:    hash,
			Height:  0,
			Header:  header,
			CumWork: consensus.WorkFromBits(header.Bits),
			Status:  StatusValidHeader | StatusValidTree,
		}
	} else {
		prev, ok := bi.entries[header.PrevHash]
		if !ok {
			return nil, newErr(ErrUnknownParent, "parent %s not indexed", header.PrevHash)
		}
		if prev.Status&StatusFailed != 0 {
			return nil, newErr(ErrInvalidParent, "parent %s previously marked failed", header.PrevHash)
		}
		if err := consensus.ValidatePoW(h, header); err != nil {
			return nil, newErr(ErrPow, "%v", err)
		}
		ancestors := bi.ancestorHeadersLocked(prev, consensus.MedianTimeSpan)
		if len(ancestors) > 0 {
			mtp := consensus.MedianPastTimestamp(ancestors)
			if header.Timestamp <= mtp {
				return nil, newErr(ErrTimestamp, "timestamp %d at or before median-time-past %d", header.Timestamp, mtp)
			}
		}
		entry = &Entry{
			Hash:    hash,
			Height:  prev.Height + 1,
			Header:  header,
			CumWork: consensus.AddWork(prev.CumWork, consensus.WorkFromBits(header.Bits)),
			Status:  StatusValidHeader | StatusValidTree,
		}
	}

	if err := bi.persistLocked(entry); err != nil {
		return nil, err
	}
	bi.entries[hash] = entry
	return entry, nil
}

// ancestorHeadersLocked returns up to n ancestor headers of (and
// including) from, oldest first, the shape MedianPastTimestamp and
// NextWorkRequired expect.
func (bi *BlockIndex) ancestorHeadersLocked(from *Entry, n int) []consensus.BlockHeader {
	headers := make([]consensus.BlockHeader, 0, n)
	e := from
	for i := 0; i < n; i++ {
		headers = append(headers, e.Header)
		if e.Header.PrevHash == (consensus.Hash256{}) {
			break
		}
		parent, ok := bi.entries[e.Header.PrevHash]
		if !ok {
			break
		}
		e = parent
	}
	for l, r := 0, len(headers)-1; l < r; l, r = l+1, r-1 {
		headers[l], headers[r] = headers[r], headers[l]
	}
	return headers
}

// MarkValidChain flags hash (and, implicitly, its ancestors, which
// were already flagged when they themselves reached VALID_CHAIN) as
// part of a fully-validated chain, and updates the best tip if its
// cumulative work now exceeds the current best.
func (bi *BlockIndex) MarkValidChain(hash consensus.Hash256) error {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	e, ok := bi.entries[hash]
	if !ok {
		return newErr(ErrUnknownHash, "%s", hash)
	}
	e.Status |= StatusValidScripts | StatusValidChain
	if err := bi.persistLocked(e); err != nil {
		return err
	}
	if !bi.hasTip || e.CumWork.Compare(bi.entries[bi.bestTip].CumWork) > 0 {
		bi.bestTip = hash
		bi.hasTip = true
		bi.rebuildHeightsLocked()
	}
	return nil
}

// MarkFailed flags hash (and any header built on it, via the
// rejected-parent check in InsertHeader) as permanently invalid.
func (bi *BlockIndex) MarkFailed(hash consensus.Hash256) error {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	e, ok := bi.entries[hash]
	if !ok {
		return newErr(ErrUnknownHash, "%s", hash)
	}
	e.Status |= StatusFailed
	e.Status &^= StatusValidChain
	return bi.persistLocked(e)
}

// MarkHaveData flags that the full block body for hash is present in
// the block store.
func (bi *BlockIndex) MarkHaveData(hash consensus.Hash256) error {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	e, ok := bi.entries[hash]
	if !ok {
		return newErr(ErrUnknownHash, "%s", hash)
	}
	e.Status |= StatusHaveData
	e.Status &^= StatusPruned
	return bi.persistLocked(e)
}

// BestChainTip returns the entry with the greatest cumulative work
// among VALID_CHAIN entries.
func (bi *BlockIndex) BestChainTip() (*Entry, bool) {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	if !bi.hasTip {
		return nil, false
	}
	return bi.entries[bi.bestTip], true
}

// LookupByHash returns the entry for hash, if indexed.
func (bi *BlockIndex) LookupByHash(hash consensus.Hash256) (*Entry, bool) {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	e, ok := bi.entries[hash]
	return e, ok
}

// LookupByHeight returns the entry at height on the current best
// chain.
func (bi *BlockIndex) LookupByHeight(height consensus.Height) (*Entry, bool) {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	hash, ok := bi.heights[height]
	if !ok {
		return nil, false
	}
	return bi.entries[hash], true
}

// MarkPruned sets PRUNED and clears HAVE_DATA for every best-chain
// height in [from, to].
func (bi *BlockIndex) MarkPruned(from, to consensus.Height) error {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	for height := from; height <= to; height++ {
		hash, ok := bi.heights[height]
		if !ok {
			continue
		}
		e := bi.entries[hash]
		e.Status |= StatusPruned
		e.Status &^= StatusHaveData
		if err := bi.persistLocked(e); err != nil {
			return err
		}
	}
	return nil
}

// IsPruned reports whether hash's block body has been pruned.
func (bi *BlockIndex) IsPruned(hash consensus.Hash256) bool {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	e, ok := bi.entries[hash]
	return ok && e.Status&StatusPruned != 0
}

// GetPrunedHeight returns the lowest best-chain height that still has
// HAVE_DATA set, i.e. the first height a full rescan can start from.
func (bi *BlockIndex) GetPrunedHeight() consensus.Height {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	tip, ok := bi.entries[bi.bestTip]
	if !ok {
		return 0
	}
	for h := consensus.Height(0); h <= tip.Height; h++ {
		hash, ok := bi.heights[h]
		if !ok {
			continue
		}
		if bi.entries[hash].Status&StatusHaveData != 0 {
			return h
		}
	}
	return tip.Height
}
