package chainstate

import (
	"path/filepath"
	"testing"

	"github.com/coredag/fullnode/blockindex"
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/utxostore"
)

func openTestChainstate(t *testing.T) *Chainstate {
	t.Helper()
	idx, err := blockindex.Open(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("blockindex.Open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	utxos, err := utxostore.Open(filepath.Join(t.TempDir(), "utxo.db"))
	if err != nil {
		t.Fatalf("utxostore.Open: %v", err)
	}
	t.Cleanup(func() { _ = utxos.Close() })
	return New(idx, utxos)
}

func TestChainstateBestWorkEmpty(t *testing.T) {
	c := openTestChainstate(t)
	if _, ok := c.BestWork(); ok {
		t.Fatal("expected no best work before any header is marked valid-chain")
	}
}

func TestChainstateBestWorkAndHeaderAt(t *testing.T) {
	c := openTestChainstate(t)
	genesis := consensus.BlockHeader{Version: 1, Bits: 0x207fffff, Timestamp: 1600000000}
	entry, err := c.Index.InsertHeader(consensus.DefaultHasher, genesis)
	if err != nil {
		t.Fatalf("InsertHeader: %v", err)
	}
	if err := c.Index.MarkValidChain(entry.Hash); err != nil {
		t.Fatalf("MarkValidChain: %v", err)
	}

	work, ok := c.BestWork()
	if !ok {
		t.Fatal("expected best work to be available after marking the chain valid")
	}
	if work != entry.CumWork {
		t.Fatalf("BestWork = %x, want %x", work, entry.CumWork)
	}

	at, ok := c.HeaderAt(0)
	if !ok || at.Hash != entry.Hash {
		t.Fatalf("HeaderAt(0): ok=%v entry=%+v", ok, at)
	}
}

func TestChainstateValidatedTipDefaultsToZero(t *testing.T) {
	c := openTestChainstate(t)
	tip, err := c.ValidatedTip()
	if err != nil {
		t.Fatalf("ValidatedTip: %v", err)
	}
	if tip != 0 {
		t.Fatalf("ValidatedTip = %d, want 0", tip)
	}
}
