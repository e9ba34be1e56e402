package blockvalidator

import (
	"bytes"
	"math/big"

	"github.com/coredag/fullnode/consensus"
)

// witnessCommitmentPrefix is the fixed 6-byte scriptPubKey prefix
// (OP_RETURN OP_PUSH36 0xaa21a9ed) that marks a coinbase output as
// BIP-141's witness commitment.
var witnessCommitmentPrefix = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// ValidatePow recomputes (or reuses, if cachedHash is non-nil) the
// block header hash and checks it against the target decoded from
// the header's nBits.
func ValidatePow(h consensus.Hasher, header consensus.BlockHeader, cachedHash *consensus.Hash256) error {
	hash := cachedHash
	if hash == nil {
		computed, err := consensus.BlockHash(h, header)
		if err != nil {
			return newErr(ErrPow, "%v", err)
		}
		hash = &computed
	}
	target := consensus.TargetFromBits(header.Bits)
	if hashAsBigInt(*hash).Cmp(target) >= 0 {
		return newErr(ErrPow, "hash %s does not meet target encoded by bits 0x%08x", hash, header.Bits)
	}
	return nil
}

// ValidateMerkleRoot recomputes the transaction merkle root over the
// txids and compares it against the header; the witness root and the
// coinbase's witness commitment are not checked here. It also rejects the CVE-2012-2459 duplicate-leaf
// malleation shape, even when the resulting root happens to match.
func ValidateMerkleRoot(h consensus.Hasher, block *consensus.Block) error {
	if len(block.Txs) == 0 {
		return newErr(ErrMerkle, "block has no transactions")
	}
	txids := make([]consensus.Hash256, len(block.Txs))
	for i := range block.Txs {
		txids[i] = consensus.TxID(h, &block.Txs[i])
	}
	if consensus.HasMerkleMalleation(txids) {
		return newErr(ErrMerkle, "duplicate-leaf malleation detected")
	}
	root := consensus.MerkleRoot(h, txids)
	if root != block.Header.MerkleRoot {
		return newErr(ErrMerkle, "computed root %s does not match header %s", root, block.Header.MerkleRoot)
	}
	return nil
}

// ValidateStructure enforces the block-wide shape rules that don't
// depend on the UTXO set: a single coinbase in position 0, no
// duplicate txids, and the legacy size / BIP-141 weight caps.
func ValidateStructure(h consensus.Hasher, block *consensus.Block) error {
	if len(block.Txs) == 0 {
		return newErr(ErrStructure, "block has no transactions")
	}
	if err := consensus.CheckTransactionStructure(&block.Txs[0], true); err != nil {
		return newErr(ErrStructure, "coinbase: %v", err)
	}
	for i := 1; i < len(block.Txs); i++ {
		if err := consensus.CheckTransactionStructure(&block.Txs[i], false); err != nil {
			return newErr(ErrStructure, "tx %d: %v", i, err)
		}
	}

	seen := make(map[consensus.Hash256]struct{}, len(block.Txs))
	totalSize := 0
	totalWeight := 0
	for i := range block.Txs {
		txid := consensus.TxID(h, &block.Txs[i])
		if _, dup := seen[txid]; dup {
			return newErr(ErrStructure, "duplicate txid %s within block", txid)
		}
		seen[txid] = struct{}{}
		totalSize += len(consensus.SerializeTxNoWitness(&block.Txs[i]))
		totalWeight += consensus.TxWeight(&block.Txs[i])
	}
	if totalSize > consensus.MaxBlockSize {
		return newErr(ErrStructure, "block size %d exceeds %d", totalSize, consensus.MaxBlockSize)
	}
	if totalWeight > consensus.MaxBlockWeight {
		return newErr(ErrStructure, "block weight %d exceeds %d", totalWeight, consensus.MaxBlockWeight)
	}
	return nil
}

// ValidateCoinbaseHeight enforces BIP-34: at and above its activation
// height, a coinbase's scriptSig must begin with a minimally-encoded
// push of the block's own height.
func ValidateCoinbaseHeight(coinbase *consensus.Transaction, height consensus.Height) error {
	if height < consensus.BIP34ActivationHeight {
		return nil
	}
	if len(coinbase.Inputs) == 0 {
		return newErr(ErrCoinbaseHeight, "coinbase has no inputs")
	}
	got, err := consensus.ExtractBIP34Height(coinbase.Inputs[0].ScriptSig)
	if err != nil {
		return newErr(ErrCoinbaseHeight, "%v", err)
	}
	if got != height {
		return newErr(ErrCoinbaseHeight, "coinbase commits to height %d, expected %d", got, height)
	}
	return nil
}

// FindWitnessCommitment scans a coinbase's outputs (from last to
// first, mirroring Bitcoin Core's search order since later outputs
// take precedence when more than one matches) for the BIP-141 witness
// commitment and returns its 32-byte payload.
func FindWitnessCommitment(coinbase *consensus.Transaction) (consensus.Hash256, bool) {
	for i := len(coinbase.Outputs) - 1; i >= 0; i-- {
		pk := coinbase.Outputs[i].ScriptPubKey
		if len(pk) >= 38 && bytes.Equal(pk[:6], witnessCommitmentPrefix) {
			var commitment consensus.Hash256
			copy(commitment[:], pk[6:38])
			return commitment, true
		}
	}
	return consensus.Hash256{}, false
}

// hashAsBigInt interprets a block hash as an unsigned big-endian
// integer after reversing it to most-significant-byte-first order,
// matching the orientation TargetFromBits produces.
func hashAsBigInt(h consensus.Hash256) *big.Int {
	rev := make([]byte, 32)
	for i := 0; i < 32; i++ {
		rev[i] = h[31-i]
	}
	return new(big.Int).SetBytes(rev)
}
