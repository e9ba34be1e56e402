package consensus

import "testing"

func simpleTx() *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []TxIn{
			{PrevOut: Outpoint{Txid: Hash256{1}, Vout: 0}, Sequence: SequenceFinal},
			{PrevOut: Outpoint{Txid: Hash256{2}, Vout: 1}, Sequence: SequenceFinal},
		},
		Outputs: []TxOut{
			{Value: 1000, ScriptPubKey: []byte{0xAA}},
			{Value: 2000, ScriptPubKey: []byte{0xBB}},
		},
		LockTime: 0,
	}
}

func TestLegacySigHashDeterministic(t *testing.T) {
	tx := simpleTx()
	subScript := []byte{0x76, 0xa9}
	h1, err := LegacySigHash(DefaultHasher, tx, 0, subScript, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := LegacySigHash(DefaultHasher, tx, 0, subScript, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("LegacySigHash must be deterministic for identical inputs")
	}
}

func TestLegacySigHashVariesByInputIndex(t *testing.T) {
	tx := simpleTx()
	subScript := []byte{0x76, 0xa9}
	h0, err := LegacySigHash(DefaultHasher, tx, 0, subScript, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	h1, err := LegacySigHash(DefaultHasher, tx, 1, subScript, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	if h0 == h1 {
		t.Fatal("signing input 0 and input 1 must produce different digests")
	}
}

func TestLegacySigHashRejectsOutOfRangeInput(t *testing.T) {
	tx := simpleTx()
	if _, err := LegacySigHash(DefaultHasher, tx, 5, nil, SigHashAll); err == nil {
		t.Fatal("expected an out-of-range input index to error")
	}
}

func TestLegacySigHashSingleBug(t *testing.T) {
	tx := simpleTx()
	tx.Outputs = tx.Outputs[:1] // fewer outputs than inputs
	h, err := LegacySigHash(DefaultHasher, tx, 1, nil, SigHashSingle)
	if err != nil {
		t.Fatal(err)
	}
	want := Hash256{1}
	if h != want {
		t.Fatalf("expected the SIGHASH_SINGLE bug constant, got %x", h)
	}
}

func TestLegacySigHashAnyoneCanPayChangesDigest(t *testing.T) {
	tx := simpleTx()
	subScript := []byte{0x76, 0xa9}
	withoutACP, err := LegacySigHash(DefaultHasher, tx, 0, subScript, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	withACP, err := LegacySigHash(DefaultHasher, tx, 0, subScript, SigHashAll|SigHashAnyoneCanPay)
	if err != nil {
		t.Fatal(err)
	}
	if withoutACP == withACP {
		t.Fatal("ANYONECANPAY must change the digest for a multi-input transaction")
	}
}

func TestSegwitV0SigHashDeterministic(t *testing.T) {
	tx := simpleTx()
	scriptCode := []byte{0x76, 0xa9, 0x14}
	h1, err := SegwitV0SigHash(DefaultHasher, tx, 0, scriptCode, 5000, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := SegwitV0SigHash(DefaultHasher, tx, 0, scriptCode, 5000, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("SegwitV0SigHash must be deterministic")
	}
}

func TestSegwitV0SigHashVariesByAmount(t *testing.T) {
	tx := simpleTx()
	scriptCode := []byte{0x76, 0xa9, 0x14}
	h1, err := SegwitV0SigHash(DefaultHasher, tx, 0, scriptCode, 5000, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := SegwitV0SigHash(DefaultHasher, tx, 0, scriptCode, 6000, SigHashAll)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("the committed amount must affect BIP-143's sighash digest")
	}
}

func TestTaprootSigHashKeyPathDeterministic(t *testing.T) {
	tx := simpleTx()
	prevOuts := []PrevOutput{
		{Value: 1000, ScriptPubKey: []byte{0x51, 0x20}},
		{Value: 2000, ScriptPubKey: []byte{0x51, 0x20}},
	}
	params := TaprootSigHashParams{
		PrevOuts:   prevOuts,
		InputIndex: 0,
		HashType:   SigHashDefault,
		ExtFlag:    TaprootExtFlagKeyPath,
		CodeSepPos: 0xFFFFFFFF,
	}
	h1, err := TaprootSigHash(DefaultHasher, tx, params)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := TaprootSigHash(DefaultHasher, tx, params)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("TaprootSigHash must be deterministic")
	}
}

func TestTaprootSigHashScriptPathDiffersFromKeyPath(t *testing.T) {
	tx := simpleTx()
	prevOuts := []PrevOutput{
		{Value: 1000, ScriptPubKey: []byte{0x51, 0x20}},
		{Value: 2000, ScriptPubKey: []byte{0x51, 0x20}},
	}
	keyPath := TaprootSigHashParams{PrevOuts: prevOuts, InputIndex: 0, ExtFlag: TaprootExtFlagKeyPath, CodeSepPos: 0xFFFFFFFF}
	scriptPath := TaprootSigHashParams{
		PrevOuts: prevOuts, InputIndex: 0, ExtFlag: TaprootExtFlagScriptPath,
		TapLeafHash: Hash256{7}, CodeSepPos: 0xFFFFFFFF,
	}
	h1, err := TaprootSigHash(DefaultHasher, tx, keyPath)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := TaprootSigHash(DefaultHasher, tx, scriptPath)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("key-path and script-path spends must commit differently")
	}
}

func TestTaprootSigHashRejectsMismatchedPrevOuts(t *testing.T) {
	tx := simpleTx()
	params := TaprootSigHashParams{PrevOuts: []PrevOutput{{Value: 1}}, InputIndex: 0}
	if _, err := TaprootSigHash(DefaultHasher, tx, params); err == nil {
		t.Fatal("expected a PrevOuts slice shorter than the input count to error")
	}
}

func TestTaggedHashDiffersByTag(t *testing.T) {
	msg := []byte("hello")
	a := TaggedHash(DefaultHasher, "TapLeaf", msg)
	b := TaggedHash(DefaultHasher, "TapBranch", msg)
	if a == b {
		t.Fatal("different tags must produce different tagged hashes for the same message")
	}
}
