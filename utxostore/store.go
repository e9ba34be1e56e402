package utxostore

import (
	"time"

	"github.com/coredag/fullnode/consensus"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketUtxo = []byte("utxo_by_outpoint")
	bucketMeta = []byte("meta")
)

// UtxoStore is a bbolt-backed persistent Outpoint -> UtxoEntry map.
// bbolt's own MVCC already gives single-writer/multi-reader
// serializable transactions with a commit-time fsync, so Begin/
// Commit/Rollback below are thin wrappers rather than a bespoke WAL.
type UtxoStore struct {
	db *bolt.DB
}

// Open creates or opens the UTXO database at path.
func Open(path string) (*UtxoStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, newErr(ErrIo, "open %s: %v", path, err)
	}
	s := &UtxoStore{db: db}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUtxo); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, newErr(ErrIo, "create buckets: %v", err)
	}
	return s, nil
}

func (s *UtxoStore) Close() error {
	return s.db.Close()
}

// Lookup reads a single entry outside any caller-managed transaction.
func (s *UtxoStore) Lookup(o consensus.Outpoint) (consensus.UtxoEntry, bool, error) {
	var entry consensus.UtxoEntry
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUtxo).Get(encodeOutpointKey(o))
		if v == nil {
			return nil
		}
		e, err := decodeUtxoEntry(o, v)
		if err != nil {
			return err
		}
		entry, found = e, true
		return nil
	})
	if err != nil {
		return consensus.UtxoEntry{}, false, newErr(ErrCorrupt, "%v", err)
	}
	return entry, found, nil
}

// ValidatedTip returns the height persisted by the most recent
// successful Commit, or 0 if none has run yet.
func (s *UtxoStore) ValidatedTip() (consensus.Height, error) {
	var h consensus.Height
	err := s.db.View(func(tx *bolt.Tx) error {
		h = decodeHeight(tx.Bucket(bucketMeta).Get(metaValidatedTipKey))
		return nil
	})
	if err != nil {
		return 0, newErr(ErrIo, "%v", err)
	}
	return h, nil
}

// Checkpoint forces durability of everything committed so far. bbolt
// already fsyncs on every commit, so this is a no-op placeholder kept
// for interface parity with WAL-based engines that batch fsyncs and
// need an explicit merge point; the Chaser's confirm worker still
// calls it whenever a flushed chunk ends on a multiple of
// CheckpointInterval (10,000 heights) so swapping the backing engine
// later needs no call-site changes.
func (s *UtxoStore) Checkpoint() error {
	return nil
}

// Txn is a single read/write transaction against the store. Nothing
// is visible to other readers until Commit returns.
type Txn struct {
	tx      *bolt.Tx
	bucket  *bolt.Bucket
	meta    *bolt.Bucket
	done    bool
}

// Begin starts a new serialisable transaction. bbolt allows only one
// writer at a time process-wide, which is exactly the single-writer
// policy the UtxoStore's flush path requires.
func (s *UtxoStore) Begin() (*Txn, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, newErr(ErrTxnBegin, "%v", err)
	}
	return &Txn{tx: tx, bucket: tx.Bucket(bucketUtxo), meta: tx.Bucket(bucketMeta)}, nil
}

// Lookup reads within the transaction, seeing its own uncommitted
// writes.
func (t *Txn) Lookup(o consensus.Outpoint) (consensus.UtxoEntry, bool, error) {
	v := t.bucket.Get(encodeOutpointKey(o))
	if v == nil {
		return consensus.UtxoEntry{}, false, nil
	}
	e, err := decodeUtxoEntry(o, v)
	if err != nil {
		return consensus.UtxoEntry{}, false, newErr(ErrCorrupt, "%v", err)
	}
	return e, true, nil
}

// Insert adds a new entry, failing if the outpoint already exists.
func (t *Txn) Insert(e consensus.UtxoEntry) error {
	key := encodeOutpointKey(e.Outpoint)
	if t.bucket.Get(key) != nil {
		return newErr(ErrExists, "outpoint %s already present", e.Outpoint)
	}
	if err := t.bucket.Put(key, encodeUtxoEntry(e)); err != nil {
		return newErr(ErrIo, "%v", err)
	}
	return nil
}

// Delete removes an entry, failing if it does not exist.
func (t *Txn) Delete(o consensus.Outpoint) error {
	key := encodeOutpointKey(o)
	if t.bucket.Get(key) == nil {
		return newErr(ErrNotFound, "outpoint %s not present", o)
	}
	if err := t.bucket.Delete(key); err != nil {
		return newErr(ErrIo, "%v", err)
	}
	return nil
}

// SetValidatedTip stages the new tip height to be persisted atomically
// with every other write in this transaction, guaranteeing UTXO-set
// and tip coherence across a crash.
func (t *Txn) SetValidatedTip(h consensus.Height) error {
	if err := t.meta.Put(metaValidatedTipKey, encodeHeight(h)); err != nil {
		return newErr(ErrIo, "%v", err)
	}
	return nil
}

// Commit atomically applies every Insert/Delete/SetValidatedTip call
// made since Begin.
func (t *Txn) Commit() error {
	if t.done {
		return newErr(ErrTxnCommit, "transaction already closed")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return newErr(ErrTxnCommit, "%v", err)
	}
	return nil
}

// Rollback discards every change made since Begin, restoring the
// pre-Begin state exactly (bbolt never mutates the file's prior pages
// until commit, so a crash mid-transaction has the same effect).
func (t *Txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return newErr(ErrTxnRollback, "%v", err)
	}
	return nil
}
