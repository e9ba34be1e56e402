package chunkvalidator

import (
	"github.com/coredag/fullnode/blockstore"
	"github.com/coredag/fullnode/blockvalidator"
	"github.com/coredag/fullnode/chainstate"
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/script"
)

// ChunkValidator applies blocks [start, end] in height order to the
// current UTXO set, one block at a time via ValidateNext, accumulating
// a UtxoBatch that Flush commits atomically once the whole run
// validates.
type ChunkValidator struct {
	chain       *chainstate.Chainstate
	blocks      *blockstore.BlockStore
	hasher      consensus.Hasher
	current     consensus.Height
	end         consensus.Height
	skipScripts bool
	flags       script.Flags
	sigCache    *script.SigCache
	batch       *UtxoBatch
}

// New prepares a validator over [start, end]. skipScripts bypasses
// ScriptEngine.execute (used at assumed-valid heights) while still
// tracking UTXO deltas.
func New(chain *chainstate.Chainstate, blocks *blockstore.BlockStore, hasher consensus.Hasher, start, end consensus.Height, skipScripts bool) *ChunkValidator {
	return &ChunkValidator{
		chain:       chain,
		blocks:      blocks,
		hasher:      hasher,
		current:     start,
		end:         end,
		skipScripts: skipScripts,
		flags:       script.StandardFlags,
		sigCache:    script.NewSigCache(100000),
		batch:       newUtxoBatch(start, end),
	}
}

// Done reports whether every height in the chunk has been validated.
func (cv *ChunkValidator) Done() bool {
	return cv.current > cv.end
}

// Batch returns the in-progress UtxoBatch.
func (cv *ChunkValidator) Batch() *UtxoBatch {
	return cv.batch
}

func (cv *ChunkValidator) lookup(o consensus.Outpoint) (consensus.UtxoEntry, bool, error) {
	if e, ok := cv.batch.Created[o]; ok {
		return e, true, nil
	}
	e, ok, err := cv.chain.Utxos.Lookup(o)
	if err != nil {
		return consensus.UtxoEntry{}, false, err
	}
	return e, ok, nil
}

// ValidateNext loads the block at the current height, runs
// BlockValidator's checks, then applies every transaction's UTXO
// deltas (and, unless skipScripts is set, verifies every input's
// script) before advancing to the next height.
func (cv *ChunkValidator) ValidateNext() error {
	if cv.Done() {
		return nil
	}
	height := cv.current
	h32 := uint32(height)

	raw, err := cv.blocks.Read(height)
	if err != nil {
		return newErr(ErrLoad, h32, "%v", err)
	}
	block, err := consensus.ParseBlock(raw)
	if err != nil {
		return newErr(ErrLoad, h32, "%v", err)
	}

	if err := blockvalidator.ValidatePow(cv.hasher, block.Header, nil); err != nil {
		return newErr(ErrPow, h32, "%v", err)
	}
	if err := blockvalidator.ValidateMerkleRoot(cv.hasher, &block); err != nil {
		return newErr(ErrMerkle, h32, "%v", err)
	}
	if err := blockvalidator.ValidateStructure(cv.hasher, &block); err != nil {
		return newErr(ErrStructure, h32, "%v", err)
	}
	if err := blockvalidator.ValidateCoinbaseHeight(&block.Txs[0], height); err != nil {
		return newErr(ErrCoinbase, h32, "%v", err)
	}

	var blockFees consensus.Satoshi
	var coinbaseOutputSum consensus.Satoshi

	for i := range block.Txs {
		tx := &block.Txs[i]
		isCoinbase := i == 0
		txid := consensus.TxID(cv.hasher, tx)

		var inputSum consensus.Satoshi
		var prevOuts []consensus.PrevOutput
		var prevEntries []consensus.UtxoEntry

		if !isCoinbase {
			prevOuts = make([]consensus.PrevOutput, len(tx.Inputs))
			prevEntries = make([]consensus.UtxoEntry, len(tx.Inputs))
			for idx, in := range tx.Inputs {
				entry, ok, err := cv.lookup(in.PrevOut)
				if err != nil {
					return newErr(ErrInternal, h32, "%v", err)
				}
				if !ok {
					return newErr(ErrUtxoMissing, h32, "tx %s input %d: %s", txid, idx, in.PrevOut)
				}
				if entry.IsCoinbase && h32 < uint32(entry.Height)+consensus.CoinbaseMaturity {
					return newErr(ErrCoinbase, h32, "tx %s input %d spends immature coinbase from height %d", txid, idx, entry.Height)
				}
				sum, err := consensus.AddSatoshi(inputSum, entry.Value)
				if err != nil {
					return newErr(ErrValue, h32, "%v", err)
				}
				inputSum = sum
				prevEntries[idx] = entry
				prevOuts[idx] = consensus.PrevOutput{Value: entry.Value, ScriptPubKey: entry.ScriptPubKey}
				cv.batch.markSpent(in.PrevOut)
			}
			if !cv.skipScripts {
				for idx, in := range tx.Inputs {
					checker := &script.TxSigChecker{
						Hasher:     cv.hasher,
						Tx:         tx,
						InputIndex: idx,
						PrevOuts:   prevOuts,
						Amount:     prevEntries[idx].Value,
						Cache:      cv.sigCache,
					}
					if err := script.VerifyInput(in.ScriptSig, prevEntries[idx].ScriptPubKey, in.Witness, checker, cv.flags); err != nil {
						return newErr(ErrScript, h32, "tx %s input %d: %v", txid, idx, err)
					}
				}
			}
		}

		var outputSum consensus.Satoshi
		for vout, out := range tx.Outputs {
			sum, err := consensus.AddSatoshi(outputSum, out.Value)
			if err != nil {
				return newErr(ErrValue, h32, "%v", err)
			}
			outputSum = sum
			if script.Classify(out.ScriptPubKey) == script.ClassNullData {
				continue
			}
			op := consensus.Outpoint{Txid: txid, Vout: uint32(vout)}
			if _, exists := cv.batch.Created[op]; exists {
				return newErr(ErrUtxoDouble, h32, "outpoint %s created twice within chunk", op)
			}
			cv.batch.Created[op] = consensus.UtxoEntry{
				Outpoint:     op,
				Value:        out.Value,
				ScriptPubKey: out.ScriptPubKey,
				Height:       height,
				IsCoinbase:   isCoinbase,
			}
		}

		if isCoinbase {
			coinbaseOutputSum = outputSum
			continue
		}
		if outputSum > inputSum {
			return newErr(ErrValue, h32, "tx %s output sum %d exceeds input sum %d", txid, outputSum, inputSum)
		}
		fee, err := consensus.SubSatoshi(inputSum, outputSum)
		if err != nil {
			return newErr(ErrValue, h32, "%v", err)
		}
		sum, err := consensus.AddSatoshi(blockFees, fee)
		if err != nil {
			return newErr(ErrValue, h32, "%v", err)
		}
		blockFees = sum
	}

	maxCoinbase, err := consensus.AddSatoshi(consensus.Subsidy(height), blockFees)
	if err != nil {
		return newErr(ErrCoinbase, h32, "%v", err)
	}
	if coinbaseOutputSum > maxCoinbase {
		return newErr(ErrCoinbase, h32, "coinbase pays %d, max allowed %d", coinbaseOutputSum, maxCoinbase)
	}

	totalFees, err := consensus.AddSatoshi(cv.batch.TotalFees, blockFees)
	if err != nil {
		return newErr(ErrValue, h32, "%v", err)
	}
	cv.batch.TotalFees = totalFees

	cv.current++
	return nil
}

// ValidateChunk runs ValidateNext until the chunk completes or an
// error is hit.
func (cv *ChunkValidator) ValidateChunk() error {
	for !cv.Done() {
		if err := cv.ValidateNext(); err != nil {
			return err
		}
	}
	return nil
}

// Flush commits the accumulated batch to the UTXO store in one
// transaction: delete every spent outpoint, insert every created
// entry, advance validated_tip, commit. Any intermediate failure
// rolls the whole transaction back, leaving validated_tip unchanged.
func (cv *ChunkValidator) Flush() error {
	txn, err := cv.chain.Utxos.Begin()
	if err != nil {
		return newErr(ErrStore, uint32(cv.batch.EndHeight), "%v", err)
	}
	for _, o := range cv.batch.Spent {
		if err := txn.Delete(o); err != nil {
			_ = txn.Rollback()
			return newErr(ErrStore, uint32(cv.batch.EndHeight), "%v", err)
		}
	}
	for _, e := range cv.batch.Created {
		if err := txn.Insert(e); err != nil {
			_ = txn.Rollback()
			return newErr(ErrStore, uint32(cv.batch.EndHeight), "%v", err)
		}
	}
	if err := txn.SetValidatedTip(cv.batch.EndHeight); err != nil {
		_ = txn.Rollback()
		return newErr(ErrStore, uint32(cv.batch.EndHeight), "%v", err)
	}
	if err := txn.Commit(); err != nil {
		return newErr(ErrStore, uint32(cv.batch.EndHeight), "%v", err)
	}
	return nil
}
