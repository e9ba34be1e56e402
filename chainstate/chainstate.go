// Package chainstate is the thin orchestrator between the header DAG
// (blockindex) and the UTXO set (utxostore): it answers "where is the
// chain now" and hands both stores to whichever component needs them,
// without owning any consensus logic of its own.
package chainstate

import (
	"github.com/coredag/fullnode/blockindex"
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/utxostore"
)

// Chainstate bundles the header DAG and the UTXO store behind the
// validated tip they must stay coherent with.
type Chainstate struct {
	Index *blockindex.BlockIndex
	Utxos *utxostore.UtxoStore
}

// New returns a Chainstate over an already-open index and UTXO store.
func New(index *blockindex.BlockIndex, utxos *utxostore.UtxoStore) *Chainstate {
	return &Chainstate{Index: index, Utxos: utxos}
}

// ValidatedTip returns the height up to which ChunkValidator has
// flushed, as persisted inside the UTXO store's own transaction.
func (c *Chainstate) ValidatedTip() (consensus.Height, error) {
	return c.Utxos.ValidatedTip()
}

// BestWork returns the cumulative work of the best known header chain
// (which may be ahead of ValidatedTip during IBD).
func (c *Chainstate) BestWork() (consensus.Work, bool) {
	tip, ok := c.Index.BestChainTip()
	if !ok {
		return consensus.Work{}, false
	}
	return tip.CumWork, true
}

// BestChainTip returns the header-DAG entry with the greatest
// cumulative work.
func (c *Chainstate) BestChainTip() (*blockindex.Entry, bool) {
	return c.Index.BestChainTip()
}

// HeaderAt returns the best-chain header at height, if indexed.
func (c *Chainstate) HeaderAt(height consensus.Height) (*blockindex.Entry, bool) {
	return c.Index.LookupByHeight(height)
}

// Close releases both underlying stores.
func (c *Chainstate) Close() error {
	indexErr := c.Index.Close()
	utxoErr := c.Utxos.Close()
	if indexErr != nil {
		return indexErr
	}
	return utxoErr
}
