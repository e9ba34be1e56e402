package chunkvalidator

import "github.com/coredag/fullnode/consensus"

// UtxoBatch accumulates the net UTXO-set change across a chunk of
// blocks. An outpoint that is both created and spent within the same
// chunk is cancelled out of Created entirely rather than appearing in
// both Created and Spent, so flush size tracks net activity, not
// gross activity.
type UtxoBatch struct {
	Created        map[consensus.Outpoint]consensus.UtxoEntry
	Spent          []consensus.Outpoint
	CancelledCount int
	StartHeight    consensus.Height
	EndHeight      consensus.Height
	TotalFees      consensus.Satoshi
}

func newUtxoBatch(start, end consensus.Height) *UtxoBatch {
	return &UtxoBatch{
		Created:     make(map[consensus.Outpoint]consensus.UtxoEntry),
		StartHeight: start,
		EndHeight:   end,
	}
}

// markSpent records that outpoint o is consumed somewhere in the
// chunk. If o was created earlier in the same chunk it is cancelled
// out of Created instead of being appended to Spent.
func (b *UtxoBatch) markSpent(o consensus.Outpoint) {
	if _, ok := b.Created[o]; ok {
		delete(b.Created, o)
		b.CancelledCount++
		return
	}
	b.Spent = append(b.Spent, o)
}
