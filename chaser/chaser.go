package chaser

import (
	"sync"
	"time"

	"github.com/coredag/fullnode/blockindex"
	"github.com/coredag/fullnode/blockstore"
	"github.com/coredag/fullnode/blocktracker"
	"github.com/coredag/fullnode/chainstate"
	"github.com/coredag/fullnode/chunkvalidator"
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/download"
	"github.com/coredag/fullnode/internal/logctx"
)

// Config wires a Chaser to the stores and manager it sequences.
// Chain, Blocks, Tracker and Downloads are owned by the caller and
// outlive the Chaser; Hasher defaults to consensus.DefaultHasher.
type Config struct {
	Chain             *chainstate.Chainstate
	Blocks            *blockstore.BlockStore
	Tracker           *blocktracker.BlockTracker
	Downloads         *download.Manager
	Hasher            consensus.Hasher
	AssumeValidHeight consensus.Height
	PruneTarget       consensus.Height // 0 = archival node, PRUNE is a no-op barrier
	StallTimeout      time.Duration
}

// Chaser is the single event-driven state machine sequencing
// HEADERS -> DOWNLOAD -> DRAIN -> VALIDATE -> FLUSH -> PRUNE. Phase
// decisions run under its own mutex, held only long enough to decide
// the next action; block I/O and chunk validation happen with the
// mutex released, via a short-critical-section dispatcher plus a
// dedicated confirm-worker.
type Chaser struct {
	cfg Config
	log logctx.Logger

	mu               sync.Mutex
	cond             *sync.Cond
	phase            Phase
	bestHeaderHeight consensus.Height
	workPending      bool
	shutdown         bool
	wg               sync.WaitGroup

	lastFailedHeight  consensus.Height
	lastFailedRetried bool
}

// New prepares a Chaser in PhaseIdle. Start must be called to launch
// the confirm-worker goroutine.
func New(cfg Config) *Chaser {
	if cfg.Hasher == nil {
		cfg.Hasher = consensus.DefaultHasher
	}
	if cfg.StallTimeout == 0 {
		cfg.StallTimeout = 30 * time.Second
	}
	c := &Chaser{
		cfg:   cfg,
		log:   logctx.Get("CHSR"),
		phase: PhaseIdle,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Phase returns the chaser's current state.
func (c *Chaser) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start launches the confirm-worker goroutine, which blocks on
// work_pending and drains consecutive validated ranges whenever the
// dispatcher signals one is available.
func (c *Chaser) Start() {
	c.wg.Add(1)
	go c.confirmWorker()
}

// Stop signals the confirm-worker to exit and waits for it to do so.
func (c *Chaser) Stop() {
	c.mu.Lock()
	c.shutdown = true
	c.cond.Broadcast()
	c.mu.Unlock()
	c.wg.Wait()
}

// HandleEvent drives the phase transition table. height/hash payloads
// are carried via the typed setters below (SetBestHeaderHeight) rather
// than a generic payload, since only BUMP needs one in this core.
func (c *Chaser) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev {
	case EventStart, EventResume:
		c.phase = PhaseHeaders
	case EventBump:
		if c.phase == PhaseIdle {
			c.phase = PhaseHeaders
		}
	case EventChecked:
		if c.phase == PhaseDownload {
			c.maybeAdvanceToDrainOrValidateLocked()
		}
	case EventValid:
		c.phase = PhaseFlush
	case EventOrganized:
		if c.cfg.PruneTarget > 0 {
			c.phase = PhasePrune
		} else {
			c.phase = PhaseDownload
		}
	case EventRegressed:
		c.phase = PhaseDownload
	case EventReorganized, EventDisorganized:
		c.phase = PhaseDownload
	case EventStop:
		c.shutdown = true
		c.cond.Broadcast()
	}
}

// SetBestHeaderHeight records the best known header height (advanced
// by the HEADERS phase as getheaders responses arrive) and emits BUMP.
func (c *Chaser) SetBestHeaderHeight(h consensus.Height) {
	c.mu.Lock()
	if h > c.bestHeaderHeight {
		c.bestHeaderHeight = h
	}
	c.mu.Unlock()
	c.HandleEvent(EventBump)
}

func (c *Chaser) maybeAdvanceToDrainOrValidateLocked() {
	tip := c.cfg.Tracker.ValidatedTip()
	if tip >= c.bestHeaderHeight {
		c.phase = PhaseDone
		return
	}
	_, _, _, ok := c.cfg.Tracker.FindConsecutiveRange()
	if ok {
		c.phase = PhaseValidate
		c.workPending = true
		c.cond.Broadcast()
		return
	}
	c.phase = PhaseDrain
}

// RunDownloadPhase enumerates the heights between the validated tip
// and the best known header that are neither tracked as available nor
// already present on disk, and hands them to the DownloadManager in
// one batch-splitting call. Called by the node's dispatcher loop while
// Phase() == PhaseDownload.
func (c *Chaser) RunDownloadPhase() {
	c.mu.Lock()
	tip := c.cfg.Tracker.ValidatedTip()
	target := c.bestHeaderHeight
	c.mu.Unlock()

	var hashes []consensus.Hash256
	var heights []consensus.Height
	for h := tip + 1; h <= target; h++ {
		if c.cfg.Tracker.HasBlock(h) || c.cfg.Downloads.HasHeight(h) || c.cfg.Blocks.Exists(h) {
			continue
		}
		entry, ok := c.cfg.Chain.HeaderAt(h)
		if !ok {
			break
		}
		hash, err := consensus.BlockHash(c.cfg.Hasher, entry.Header)
		if err != nil {
			break
		}
		hashes = append(hashes, hash)
		heights = append(heights, h)
	}
	if len(hashes) > 0 {
		c.cfg.Downloads.AddWork(hashes, heights)
	}
}

// OnBlockStored is called once a downloaded block's bytes have been
// written to BlockStore: it updates the availability bitmap and emits
// CHECKED, per the ordering guarantee that the bitmap reflects the
// block before any consumer observes the event.
func (c *Chaser) OnBlockStored(h consensus.Height) {
	c.cfg.Tracker.MarkAvailable(h)
	c.HandleEvent(EventChecked)
}

// RunDrainPhase ticks the download manager's redundant re-request pass
// once; the dispatcher calls this repeatedly while Phase() ==
// PhaseDrain. When the tracker reports a consecutive range (blocks
// surfacing through BlockReceived -> OnBlockStored -> CHECKED) it moves
// to VALIDATE. It keeps no elapsed-time limit of its own and never
// returns to DOWNLOAD; StallTimeout is only passed to DrainAccelerate
// as the minimum age of a batch before its blocks are re-requested.
func (c *Chaser) RunDrainPhase() {
	c.cfg.Downloads.DrainAccelerate(c.cfg.StallTimeout)
	c.mu.Lock()
	_, _, _, ok := c.cfg.Tracker.FindConsecutiveRange()
	if ok {
		c.phase = PhaseValidate
		c.workPending = true
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// confirmWorker is the one dedicated worker thread per Chaser: it
// waits on (mu, cond) for work_pending, then validates and flushes
// every consecutive chunk it can find, checkpointing the UTXO store's
// WAL every CheckpointInterval heights, until no further consecutive
// range remains. It releases the lock across each chunk's I/O and
// checks shutdown between chunks.
func (c *Chaser) confirmWorker() {
	defer c.wg.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		for !c.workPending && !c.shutdown {
			c.cond.Wait()
		}
		if c.shutdown {
			return
		}
		c.workPending = false
		c.mu.Unlock()
		c.drainConsecutiveChunks()
		c.mu.Lock()
	}
}

// drainConsecutiveChunks runs with the dispatcher mutex released; it
// repeatedly builds a ChunkValidator over the longest available
// consecutive range (capped at ChunkMax), validates it, and flushes
// it, emitting VALID/ORGANIZED or REGRESSED as appropriate, until no
// further consecutive range is available.
func (c *Chaser) drainConsecutiveChunks() {
	for {
		start, end, _, ok := c.cfg.Tracker.FindConsecutiveRange()
		if !ok {
			c.HandleEvent(EventRegressed)
			return
		}
		if end-start+1 > ChunkMax {
			end = start + ChunkMax - 1
		}
		skipScripts := c.cfg.AssumeValidHeight > 0 && end <= c.cfg.AssumeValidHeight

		cv := chunkvalidator.New(c.cfg.Chain, c.cfg.Blocks, c.cfg.Hasher, start, end, skipScripts)
		if err := cv.ValidateChunk(); err != nil {
			c.log.Errorf("chunk [%d,%d] failed: %v", start, end, err)
			c.handleChunkFailure(start)
			c.HandleEvent(EventRegressed)
			return
		}
		c.HandleEvent(EventValid)
		if err := cv.Flush(); err != nil {
			c.log.Errorf("flush [%d,%d] failed: %v", start, end, err)
			c.HandleEvent(EventRegressed)
			return
		}
		if err := c.cfg.Tracker.MarkValidated(end); err != nil {
			c.log.Errorf("mark_validated(%d) failed: %v", end, err)
		}
		if end%CheckpointInterval == 0 {
			if err := c.cfg.Chain.Utxos.Checkpoint(); err != nil {
				c.log.Errorf("checkpoint at %d failed: %v", end, err)
			}
		}
		c.log.Infof("flushed chunk [%d,%d]", start, end)
		c.HandleEvent(EventOrganized)

		c.mu.Lock()
		tip := c.cfg.Tracker.ValidatedTip()
		target := c.bestHeaderHeight
		stop := c.shutdown
		c.mu.Unlock()
		if stop || tip >= target {
			return
		}
	}
}

// handleChunkFailure implements a retry-once-then-exclude policy: the
// first failure at a given blocking height is silently retried via
// DOWNLOAD; a second failure at the same height marks the header
// FAILED so its subtree is excluded from best-chain selection.
func (c *Chaser) handleChunkFailure(blockingHeight consensus.Height) {
	c.mu.Lock()
	retry := c.lastFailedHeight != blockingHeight || !c.lastFailedRetried
	if retry {
		c.lastFailedHeight = blockingHeight
		c.lastFailedRetried = true
		c.mu.Unlock()
		return
	}
	c.lastFailedRetried = false
	c.mu.Unlock()

	entry, ok := c.cfg.Chain.HeaderAt(blockingHeight)
	if !ok {
		return
	}
	if err := c.cfg.Chain.Index.MarkFailed(entry.Hash); err != nil {
		c.log.Errorf("mark_failed(%s) at height %d: %v", entry.Hash, blockingHeight, err)
	}
}

// RunPrunePhase removes block bytes and clears HAVE_DATA for every
// height at or below validated_tip - ReorgMargin. On an archival node
// (PruneTarget == 0) it is a no-op flush barrier.
func (c *Chaser) RunPrunePhase() error {
	if c.cfg.PruneTarget == 0 {
		c.HandleEvent(EventChecked)
		return nil
	}
	tip := c.cfg.Tracker.ValidatedTip()
	if tip <= ReorgMargin {
		c.HandleEvent(EventChecked)
		return nil
	}
	safe := tip - ReorgMargin
	for h := consensus.Height(0); h <= safe; h++ {
		if !c.cfg.Blocks.Exists(h) {
			continue
		}
		if err := c.cfg.Blocks.Prune(h); err != nil {
			return newErr(ErrPrune, "prune height %d: %v", h, err)
		}
	}
	if err := c.cfg.Chain.Index.MarkPruned(0, safe); err != nil {
		return newErr(ErrPrune, "mark_pruned(0,%d): %v", safe, err)
	}
	c.HandleEvent(EventChecked)
	return nil
}

// Reorganize handles a fork deeper than the currently validated chain:
// during IBD no undo log is kept (a deliberate speed tradeoff), so
// reorganisation resets validated_tip to forkPoint, clears the
// availability bitmap above it, and re-enters DOWNLOAD. Post-IBD
// reorganisation with explicit undo records is out of scope here.
func (c *Chaser) Reorganize(forkPoint consensus.Height) {
	c.cfg.Tracker.Reset(forkPoint)
	c.HandleEvent(EventRegressed)
}

// BlockIndexFor exposes the wired BlockIndex for external callers
// (e.g. the HEADERS-phase getheaders handler) that need to insert new
// headers through the same Chainstate the Chaser validates against.
func (c *Chaser) BlockIndexFor() *blockindex.BlockIndex {
	return c.cfg.Chain.Index
}
