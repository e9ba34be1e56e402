package chaser

import (
	"path/filepath"
	"testing"

	"github.com/coredag/fullnode/blockindex"
	"github.com/coredag/fullnode/blockstore"
	"github.com/coredag/fullnode/blocktracker"
	"github.com/coredag/fullnode/chainstate"
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/download"
	"github.com/coredag/fullnode/p2p"
	"github.com/coredag/fullnode/utxostore"
)

type fakeCodec struct{}

func (fakeCodec) SendGetHeaders(p2p.PeerID, p2p.GetHeadersRequest) error { return nil }
func (fakeCodec) SendGetData(p2p.PeerID, []p2p.InvVector) error         { return nil }

// buildChain returns n headers (genesis first) on an easy-target chain
// with strictly increasing timestamps, suitable for InsertHeader.
func buildChain(n int) []consensus.BlockHeader {
	headers := make([]consensus.BlockHeader, n)
	var prev consensus.Hash256
	for i := 0; i < n; i++ {
		h := consensus.BlockHeader{
			Version:   1,
			PrevHash:  prev,
			Timestamp: consensus.Timestamp(1600000000 + i*600),
			Bits:      0x207fffff,
			Nonce:     uint32(i),
		}
		hash, err := consensus.BlockHash(consensus.DefaultHasher, h)
		if err != nil {
			panic(err)
		}
		headers[i] = h
		prev = hash
	}
	return headers
}

func newFixture(t *testing.T) (*Chaser, *chainstate.Chainstate, *blocktracker.BlockTracker, *blockstore.BlockStore) {
	t.Helper()
	dir := t.TempDir()
	index, err := blockindex.Open(filepath.Join(dir, "headers.db"))
	if err != nil {
		t.Fatalf("blockindex.Open: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })

	utxos, err := utxostore.Open(filepath.Join(dir, "utxo.db"))
	if err != nil {
		t.Fatalf("utxostore.Open: %v", err)
	}
	t.Cleanup(func() { _ = utxos.Close() })

	blocks, err := blockstore.Open(dir)
	if err != nil {
		t.Fatalf("blockstore.Open: %v", err)
	}

	chain := chainstate.New(index, utxos)
	tracker := blocktracker.New()
	mgr := download.New(fakeCodec{})

	c := New(Config{
		Chain:     chain,
		Blocks:    blocks,
		Tracker:   tracker,
		Downloads: mgr,
	})
	return c, chain, tracker, blocks
}

func TestNewStartsInIdle(t *testing.T) {
	c, _, _, _ := newFixture(t)
	if c.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want PhaseIdle", c.Phase())
	}
}

func TestHandleEventStartMovesToHeaders(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.HandleEvent(EventStart)
	if c.Phase() != PhaseHeaders {
		t.Fatalf("phase = %v, want PhaseHeaders", c.Phase())
	}
}

func TestHandleEventBumpOnlyAdvancesFromIdle(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.HandleEvent(EventStart) // -> PhaseHeaders
	c.HandleEvent(EventBump)
	if c.Phase() != PhaseHeaders {
		t.Fatalf("BUMP from a non-idle phase should be a no-op, got %v", c.Phase())
	}
}

func TestHandleEventCheckedAdvancesToDrainWhenNothingConsecutive(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.SetBestHeaderHeight(10)
	c.HandleEvent(EventStart)
	c.mu.Lock()
	c.phase = PhaseDownload
	c.mu.Unlock()
	c.HandleEvent(EventChecked)
	if c.Phase() != PhaseDrain {
		t.Fatalf("phase = %v, want PhaseDrain (no consecutive range available)", c.Phase())
	}
}

func TestHandleEventCheckedAdvancesToValidateWhenConsecutiveAvailable(t *testing.T) {
	c, _, tracker, _ := newFixture(t)
	c.SetBestHeaderHeight(5)
	tracker.MarkAvailable(1)
	c.mu.Lock()
	c.phase = PhaseDownload
	c.mu.Unlock()
	c.HandleEvent(EventChecked)
	if c.Phase() != PhaseValidate {
		t.Fatalf("phase = %v, want PhaseValidate", c.Phase())
	}
}

func TestHandleEventCheckedReachesDoneAtTarget(t *testing.T) {
	c, _, tracker, _ := newFixture(t)
	if err := tracker.MarkValidated(5); err != nil {
		t.Fatal(err)
	}
	c.SetBestHeaderHeight(5)
	c.mu.Lock()
	c.phase = PhaseDownload
	c.mu.Unlock()
	c.HandleEvent(EventChecked)
	if c.Phase() != PhaseDone {
		t.Fatalf("phase = %v, want PhaseDone", c.Phase())
	}
}

func TestHandleEventValidMovesToFlush(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.HandleEvent(EventValid)
	if c.Phase() != PhaseFlush {
		t.Fatalf("phase = %v, want PhaseFlush", c.Phase())
	}
}

func TestHandleEventOrganizedGoesToPruneOrDownload(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.HandleEvent(EventOrganized)
	if c.Phase() != PhaseDownload {
		t.Fatalf("archival node (PruneTarget=0): phase = %v, want PhaseDownload", c.Phase())
	}

	c2, _, _, _ := newFixture(t)
	c2.cfg.PruneTarget = 1000
	c2.HandleEvent(EventOrganized)
	if c2.Phase() != PhasePrune {
		t.Fatalf("pruning node: phase = %v, want PhasePrune", c2.Phase())
	}
}

func TestHandleEventStopSignalsShutdown(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.HandleEvent(EventStop)
	c.mu.Lock()
	shut := c.shutdown
	c.mu.Unlock()
	if !shut {
		t.Fatal("expected EventStop to set shutdown")
	}
}

func TestStartStop(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.Start()
	c.Stop()
}

func TestRunDownloadPhaseEnumeratesMissingHeights(t *testing.T) {
	c, chain, tracker, blocks := newFixture(t)
	headers := buildChain(4)
	for _, h := range headers {
		if _, err := chain.Index.InsertHeader(consensus.DefaultHasher, h); err != nil {
			t.Fatalf("InsertHeader: %v", err)
		}
	}
	last, _ := consensus.BlockHash(consensus.DefaultHasher, headers[len(headers)-1])
	if err := chain.Index.MarkValidChain(last); err != nil {
		t.Fatalf("MarkValidChain: %v", err)
	}
	_ = blocks
	_ = tracker

	c.SetBestHeaderHeight(3)
	c.RunDownloadPhase()

	if !c.cfg.Downloads.HasHeight(1) {
		t.Fatal("expected height 1 to be queued for download")
	}
	if !c.cfg.Downloads.HasHeight(3) {
		t.Fatal("expected height 3 to be queued for download")
	}
}

func TestRunDownloadPhaseSkipsAlreadyAvailableHeights(t *testing.T) {
	c, chain, tracker, _ := newFixture(t)
	headers := buildChain(3)
	for _, h := range headers {
		if _, err := chain.Index.InsertHeader(consensus.DefaultHasher, h); err != nil {
			t.Fatalf("InsertHeader: %v", err)
		}
	}
	last, _ := consensus.BlockHash(consensus.DefaultHasher, headers[len(headers)-1])
	if err := chain.Index.MarkValidChain(last); err != nil {
		t.Fatalf("MarkValidChain: %v", err)
	}
	tracker.MarkAvailable(1)

	c.SetBestHeaderHeight(2)
	c.RunDownloadPhase()

	if c.cfg.Downloads.HasHeight(1) {
		t.Fatal("height 1 is already available and must not be re-queued")
	}
	if !c.cfg.Downloads.HasHeight(2) {
		t.Fatal("expected height 2 to be queued for download")
	}
}

func TestRunPrunePhaseNoOpOnArchivalNode(t *testing.T) {
	c, _, _, _ := newFixture(t)
	c.mu.Lock()
	c.phase = PhasePrune
	c.mu.Unlock()
	if err := c.RunPrunePhase(); err != nil {
		t.Fatalf("RunPrunePhase: %v", err)
	}
}

func TestRunPrunePhaseBelowReorgMarginIsNoOp(t *testing.T) {
	c, _, tracker, _ := newFixture(t)
	c.cfg.PruneTarget = 1000
	if err := tracker.MarkValidated(10); err != nil {
		t.Fatal(err)
	}
	if err := c.RunPrunePhase(); err != nil {
		t.Fatalf("RunPrunePhase: %v", err)
	}
}

func TestHandleChunkFailureRetriesOnceThenMarksFailed(t *testing.T) {
	c, chain, _, _ := newFixture(t)
	headers := buildChain(2)
	var entries []*blockindex.Entry
	for _, h := range headers {
		e, err := chain.Index.InsertHeader(consensus.DefaultHasher, h)
		if err != nil {
			t.Fatalf("InsertHeader: %v", err)
		}
		entries = append(entries, e)
	}
	if err := chain.Index.MarkValidChain(entries[len(entries)-1].Hash); err != nil {
		t.Fatalf("MarkValidChain: %v", err)
	}

	blockingHeight := entries[1].Height

	// First failure: silently retried, the header stays un-failed.
	c.handleChunkFailure(blockingHeight)
	if e, _ := chain.Index.LookupByHash(entries[1].Hash); e.Status&blockindex.StatusFailed != 0 {
		t.Fatal("first failure at a height must not mark the header failed")
	}

	// Second consecutive failure at the same height: now excluded.
	c.handleChunkFailure(blockingHeight)
	e, ok := chain.Index.LookupByHash(entries[1].Hash)
	if !ok || e.Status&blockindex.StatusFailed == 0 {
		t.Fatal("second consecutive failure at the same height must mark the header failed")
	}
}

func TestHandleChunkFailureResetsRetryAtDifferentHeight(t *testing.T) {
	c, chain, _, _ := newFixture(t)
	headers := buildChain(3)
	var entries []*blockindex.Entry
	for _, h := range headers {
		e, err := chain.Index.InsertHeader(consensus.DefaultHasher, h)
		if err != nil {
			t.Fatalf("InsertHeader: %v", err)
		}
		entries = append(entries, e)
	}
	if err := chain.Index.MarkValidChain(entries[len(entries)-1].Hash); err != nil {
		t.Fatalf("MarkValidChain: %v", err)
	}

	c.handleChunkFailure(entries[1].Height)
	c.handleChunkFailure(entries[2].Height) // different height: retry resets

	if e, _ := chain.Index.LookupByHash(entries[1].Hash); e.Status&blockindex.StatusFailed != 0 {
		t.Fatal("height 1's failed-once state must not persist across a failure at a different height")
	}
	if e, _ := chain.Index.LookupByHash(entries[2].Hash); e.Status&blockindex.StatusFailed != 0 {
		t.Fatal("a single failure at height 2 must not yet mark it failed")
	}
}

func TestReorganizeResetsTrackerAndReturnsToDownload(t *testing.T) {
	c, _, tracker, _ := newFixture(t)
	if err := tracker.MarkValidated(100); err != nil {
		t.Fatal(err)
	}
	tracker.MarkAvailable(101)
	c.mu.Lock()
	c.phase = PhaseFlush
	c.mu.Unlock()

	c.Reorganize(50)

	if tracker.ValidatedTip() != 50 {
		t.Fatalf("validated tip after reorganize = %d, want 50", tracker.ValidatedTip())
	}
	if c.Phase() != PhaseDownload {
		t.Fatalf("phase after reorganize = %v, want PhaseDownload", c.Phase())
	}
}

func TestBlockIndexForReturnsWiredIndex(t *testing.T) {
	c, chain, _, _ := newFixture(t)
	if c.BlockIndexFor() != chain.Index {
		t.Fatal("BlockIndexFor must return the same index the Chaser was configured with")
	}
}
