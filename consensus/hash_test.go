package consensus

import (
	"encoding/hex"
	"testing"
)

func TestDefaultHasherDoubleSha256KnownVector(t *testing.T) {
	// SHA256(SHA256("")) is a well-known constant.
	want := "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"
	got := hex.EncodeToString(DefaultHasher.DoubleSha256(nil)[:])
	if got != want {
		t.Fatalf("double-sha256(empty) = %s, want %s", got, want)
	}
}

func TestDefaultHasherHash160Length(t *testing.T) {
	h := DefaultHasher.Hash160([]byte("test"))
	if len(h) != 20 {
		t.Fatalf("Hash160 length = %d, want 20", len(h))
	}
}

func TestBlockHashDeterministic(t *testing.T) {
	h := sampleHeader()
	a, err := BlockHash(DefaultHasher, h)
	if err != nil {
		t.Fatalf("BlockHash: %v", err)
	}
	b, err := BlockHash(DefaultHasher, h)
	if err != nil {
		t.Fatalf("BlockHash: %v", err)
	}
	if a != b {
		t.Fatal("BlockHash must be deterministic for identical headers")
	}
}

func TestBlockHashChangesWithNonce(t *testing.T) {
	h1 := sampleHeader()
	h2 := h1
	h2.Nonce++
	a, _ := BlockHash(DefaultHasher, h1)
	b, _ := BlockHash(DefaultHasher, h2)
	if a == b {
		t.Fatal("changing the nonce must change the block hash")
	}
}

func TestTxIDAndWTxIDDifferWithWitness(t *testing.T) {
	tx := &Transaction{
		Version: 1,
		Inputs: []TxIn{{
			PrevOut:  Outpoint{Txid: Hash256{1}, Vout: 0},
			Sequence: SequenceFinal,
			Witness:  [][]byte{{0x01}},
		}},
		Outputs: []TxOut{{Value: 1000}},
	}
	if TxID(DefaultHasher, tx) == WTxID(DefaultHasher, tx) {
		t.Fatal("txid and wtxid should differ when witness data is present")
	}

	noWit := &Transaction{Version: tx.Version, Inputs: []TxIn{{PrevOut: tx.Inputs[0].PrevOut, Sequence: tx.Inputs[0].Sequence}}, Outputs: tx.Outputs}
	if TxID(DefaultHasher, noWit) != WTxID(DefaultHasher, noWit) {
		t.Fatal("txid and wtxid should be equal when there is no witness data")
	}
}
