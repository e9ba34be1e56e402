package main

import (
	"github.com/coredag/fullnode/blockstore"
	"github.com/coredag/fullnode/blocktracker"
	"github.com/coredag/fullnode/chainstate"
)

// recoverFromDisk rebuilds the AvailabilityBitmap's shape from a
// BlockStore scan and seeds the tracker's validated tip from the
// UTXO store's persisted watermark, so the Chaser can resume DOWNLOAD
// or VALIDATE exactly where a prior run left off.
func recoverFromDisk(chain *chainstate.Chainstate, tracker *blocktracker.BlockTracker, blocks *blockstore.BlockStore) error {
	tip, err := chain.ValidatedTip()
	if err != nil {
		return err
	}
	tracker.Reset(tip)

	heights, err := blocks.Scan()
	if err != nil {
		return err
	}
	for _, h := range heights {
		tracker.MarkAvailable(h)
	}
	return nil
}
