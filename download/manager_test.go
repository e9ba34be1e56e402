package download

import (
	"testing"
	"time"

	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/p2p"
)

type fakeCodec struct {
	getDataCalls [][]p2p.InvVector
	fail         bool
}

func (c *fakeCodec) SendGetHeaders(p2p.PeerID, p2p.GetHeadersRequest) error { return nil }

func (c *fakeCodec) SendGetData(peer p2p.PeerID, items []p2p.InvVector) error {
	c.getDataCalls = append(c.getDataCalls, items)
	if c.fail {
		return errFakeSend
	}
	return nil
}

var errFakeSend = &ManagerErr{Code: ErrSend, Msg: "fake send failure"}

func hashesHeights(n int, offset consensus.Height) ([]consensus.Hash256, []consensus.Height) {
	hashes := make([]consensus.Hash256, n)
	heights := make([]consensus.Height, n)
	for i := 0; i < n; i++ {
		hashes[i] = consensus.Hash256{byte(i + 1)}
		heights[i] = offset + consensus.Height(i)
	}
	return hashes, heights
}

func TestRequestWorkEmptyQueueReturnsFalse(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	m.AddPeer(1)
	if m.RequestWork(1) {
		t.Fatal("expected RequestWork to return false against an empty queue")
	}
	if len(codec.getDataCalls) != 0 {
		t.Fatal("RequestWork must not call SendGetData when the queue is empty")
	}
}

func TestRequestWorkUnknownPeerReturnsFalse(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	hashes, heights := hashesHeights(BatchSize, 1)
	m.AddWork(hashes, heights)
	if m.RequestWork(99) {
		t.Fatal("expected RequestWork to return false for an unregistered peer")
	}
}

// TestPullWorkAssignmentWithLoss mirrors spec scenario S3: two batches
// of 8, assigned to peers A and B, a delivery against batch 1, peer A
// removed, and peer C picking up batch 1 with its Received bits
// preserved.
func TestPullWorkAssignmentWithLoss(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	const peerA, peerB, peerC = p2p.PeerID(1), p2p.PeerID(2), p2p.PeerID(3)
	m.AddPeer(peerA)
	m.AddPeer(peerB)

	hashes, heights := hashesHeights(16, 100)
	m.AddWork(hashes, heights)

	if !m.RequestWork(peerA) {
		t.Fatal("expected peer A to receive batch 1")
	}
	if !m.RequestWork(peerB) {
		t.Fatal("expected peer B to receive batch 2")
	}

	if !m.BlockReceived(peerA, hashes[0], 1024) {
		t.Fatal("expected first delivery in batch 1 to be accepted")
	}
	if m.BlockReceived(peerA, hashes[0], 1024) {
		t.Fatal("duplicate delivery of an already-received hash must return false")
	}

	m.RemovePeer(peerA)

	m.AddPeer(peerC)
	if !m.RequestWork(peerC) {
		t.Fatal("expected peer C to pick up the requeued batch 1")
	}
	last := codec.getDataCalls[len(codec.getDataCalls)-1]
	if len(last) != BatchSize-1 {
		t.Fatalf("expected %d missing hashes re-requested, got %d", BatchSize-1, len(last))
	}
	for _, item := range last {
		if item.Hash == hashes[0] {
			t.Fatal("the already-received hash must not be re-requested")
		}
	}
}

func TestBlockReceivedUnknownHashReturnsFalse(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	m.AddPeer(1)
	if m.BlockReceived(1, consensus.Hash256{0xff}, 10) {
		t.Fatal("expected BlockReceived for an untracked hash to return false")
	}
}

func TestHasHeight(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	hashes, heights := hashesHeights(4, 50)
	m.AddWork(hashes, heights)
	if !m.HasHeight(51) {
		t.Fatal("expected HasHeight(51) to be true for a queued batch")
	}
	if m.HasHeight(999) {
		t.Fatal("expected HasHeight(999) to be false")
	}
}

func TestRemovePeerRequeuesInFlightBatch(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	m.AddPeer(1)
	hashes, heights := hashesHeights(BatchSize, 10)
	m.AddWork(hashes, heights)
	if !m.RequestWork(1) {
		t.Fatal("expected peer 1 to receive the batch")
	}
	m.RemovePeer(1)

	m.AddPeer(2)
	if !m.RequestWork(2) {
		t.Fatal("expected the requeued batch to be handed to peer 2")
	}
}

func TestCheckPerformanceNeverDropsBelowMinPeers(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	base := time.Now()
	m.now = func() time.Time { return base }
	for i := 1; i <= MinPeersToKeep; i++ {
		m.AddPeer(p2p.PeerID(i))
	}
	// Every peer has reported once, then gone silent well past 2x the
	// stall window, which would normally mark all of them stalled.
	for i := 1; i <= MinPeersToKeep; i++ {
		m.BlockReceived(p2p.PeerID(i), consensus.Hash256{}, 0)
	}
	m.now = func() time.Time { return base.Add(1 * time.Hour) }

	disconnected := m.CheckPerformance()
	if len(m.peers) < MinPeersToKeep {
		t.Fatalf("peer count dropped to %d, below MinPeersToKeep=%d (disconnected %d)",
			len(m.peers), MinPeersToKeep, disconnected)
	}
}

func TestDrainAccelerateRedundantlyResends(t *testing.T) {
	codec := &fakeCodec{}
	m := New(codec)
	base := time.Now()
	m.now = func() time.Time { return base }

	hashes, heights := hashesHeights(BatchSize, 200)
	m.AddWork(hashes, heights)
	m.AddPeer(1)
	if !m.RequestWork(1) {
		t.Fatal("expected peer 1 to receive the batch")
	}
	codec.getDataCalls = nil

	for i := 2; i <= 5; i++ {
		m.AddPeer(p2p.PeerID(i))
	}
	m.now = func() time.Time { return base.Add(time.Minute) }
	m.DrainAccelerate(10 * time.Second)

	if len(codec.getDataCalls) == 0 {
		t.Fatal("expected DrainAccelerate to re-send outstanding work to idle peers")
	}
}
