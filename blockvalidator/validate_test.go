package blockvalidator

import (
	"testing"

	"github.com/coredag/fullnode/consensus"
)

func coinbaseTx(height consensus.Height, extraOutputs ...consensus.TxOut) consensus.Transaction {
	tx := consensus.Transaction{
		Version: 1,
		Inputs: []consensus.TxIn{{
			PrevOut:   consensus.Outpoint{Vout: consensus.CoinbaseVout},
			ScriptSig: consensus.EncodeBIP34Height(height),
			Sequence:  consensus.SequenceFinal,
		}},
		Outputs: append([]consensus.TxOut{{Value: 5_000_000_000}}, extraOutputs...),
	}
	return tx
}

func buildBlock(h consensus.Hasher, height consensus.Height, extraTxs ...consensus.Transaction) *consensus.Block {
	txs := append([]consensus.Transaction{coinbaseTx(height)}, extraTxs...)
	leaves := make([]consensus.Hash256, len(txs))
	for i := range txs {
		leaves[i] = consensus.TxID(h, &txs[i])
	}
	root := consensus.MerkleRoot(h, leaves)
	return &consensus.Block{
		Header: consensus.BlockHeader{Version: 1, Bits: 0x207fffff, MerkleRoot: root},
		Txs:    txs,
	}
}

func TestValidatePowAcceptsEasyTarget(t *testing.T) {
	header := consensus.BlockHeader{Version: 1, Bits: 0x207fffff}
	if err := ValidatePow(consensus.DefaultHasher, header, nil); err != nil {
		t.Fatalf("expected an easy target to pass PoW: %v", err)
	}
}

func TestValidatePowRejectsHardTarget(t *testing.T) {
	header := consensus.BlockHeader{Version: 1, Bits: 0x03000001}
	if err := ValidatePow(consensus.DefaultHasher, header, nil); err == nil {
		t.Fatal("expected an unreachable target to fail PoW")
	}
}

func TestValidateMerkleRootAcceptsMatchingRoot(t *testing.T) {
	blk := buildBlock(consensus.DefaultHasher, 300_000)
	if err := ValidateMerkleRoot(consensus.DefaultHasher, blk); err != nil {
		t.Fatalf("expected matching merkle root to validate: %v", err)
	}
}

func TestValidateMerkleRootRejectsMismatch(t *testing.T) {
	blk := buildBlock(consensus.DefaultHasher, 300_000)
	blk.Header.MerkleRoot[0] ^= 0xff
	if err := ValidateMerkleRoot(consensus.DefaultHasher, blk); err == nil {
		t.Fatal("expected mismatched merkle root to be rejected")
	}
}

func TestValidateMerkleRootRejectsEmptyBlock(t *testing.T) {
	if err := ValidateMerkleRoot(consensus.DefaultHasher, &consensus.Block{}); err == nil {
		t.Fatal("expected an empty transaction list to be rejected")
	}
}

func TestValidateStructureAcceptsWellFormedBlock(t *testing.T) {
	extra := consensus.Transaction{
		Version:  1,
		Inputs:   []consensus.TxIn{{PrevOut: consensus.Outpoint{Txid: consensus.Hash256{1}, Vout: 0}, Sequence: consensus.SequenceFinal}},
		Outputs:  []consensus.TxOut{{Value: 1000}},
		LockTime: 0,
	}
	blk := buildBlock(consensus.DefaultHasher, 300_000, extra)
	if err := ValidateStructure(consensus.DefaultHasher, blk); err != nil {
		t.Fatalf("expected well-formed block to pass structure validation: %v", err)
	}
}

func TestValidateStructureRejectsDuplicateTxid(t *testing.T) {
	dup := consensus.Transaction{
		Version:  1,
		Inputs:   []consensus.TxIn{{PrevOut: consensus.Outpoint{Txid: consensus.Hash256{1}, Vout: 0}, Sequence: consensus.SequenceFinal}},
		Outputs:  []consensus.TxOut{{Value: 1000}},
	}
	blk := buildBlock(consensus.DefaultHasher, 300_000, dup, dup)
	if err := ValidateStructure(consensus.DefaultHasher, blk); err == nil {
		t.Fatal("expected duplicate txids within a block to be rejected")
	}
}

func TestValidateStructureRejectsSecondCoinbase(t *testing.T) {
	blk := buildBlock(consensus.DefaultHasher, 300_000, coinbaseTx(300_000))
	if err := ValidateStructure(consensus.DefaultHasher, blk); err == nil {
		t.Fatal("expected a second coinbase-shaped transaction to be rejected")
	}
}

func TestValidateCoinbaseHeightBeforeBIP34(t *testing.T) {
	coinbase := consensus.Transaction{Inputs: []consensus.TxIn{{ScriptSig: []byte{0x01, 0x02}}}}
	if err := ValidateCoinbaseHeight(&coinbase, 1); err != nil {
		t.Fatalf("heights before BIP-34 activation should skip the check: %v", err)
	}
}

func TestValidateCoinbaseHeightAfterBIP34(t *testing.T) {
	height := consensus.BIP34ActivationHeight + 10
	cb := coinbaseTx(height)
	if err := ValidateCoinbaseHeight(&cb, height); err != nil {
		t.Fatalf("matching committed height should validate: %v", err)
	}
	if err := ValidateCoinbaseHeight(&cb, height+1); err == nil {
		t.Fatal("expected mismatched committed height to be rejected")
	}
}

func TestFindWitnessCommitment(t *testing.T) {
	commitment := consensus.Hash256{1, 2, 3, 4}
	pk := append([]byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}, commitment[:]...)
	cb := coinbaseTx(0, consensus.TxOut{Value: 0, ScriptPubKey: pk})
	got, ok := FindWitnessCommitment(&cb)
	if !ok {
		t.Fatal("expected witness commitment output to be found")
	}
	if got != commitment {
		t.Fatalf("commitment = %x, want %x", got, commitment)
	}
}

func TestFindWitnessCommitmentAbsent(t *testing.T) {
	cb := coinbaseTx(0)
	if _, ok := FindWitnessCommitment(&cb); ok {
		t.Fatal("expected no witness commitment to be found")
	}
}
