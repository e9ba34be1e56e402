package consensus

import "testing"

func validTx() *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []TxIn{
			{PrevOut: Outpoint{Txid: Hash256{1}, Vout: 0}, Sequence: SequenceFinal},
		},
		Outputs: []TxOut{
			{Value: 5000, ScriptPubKey: []byte{0xAA}},
		},
	}
}

func TestCheckTransactionStructureValid(t *testing.T) {
	if err := CheckTransactionStructure(validTx(), false); err != nil {
		t.Fatalf("expected a well-formed transaction to pass, got %v", err)
	}
}

func TestCheckTransactionStructureRejectsEmptyInputs(t *testing.T) {
	tx := validTx()
	tx.Inputs = nil
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected no inputs to be rejected")
	}
}

func TestCheckTransactionStructureRejectsEmptyOutputs(t *testing.T) {
	tx := validTx()
	tx.Outputs = nil
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected no outputs to be rejected")
	}
}

func TestCheckTransactionStructureRejectsNegativeValue(t *testing.T) {
	tx := validTx()
	tx.Outputs[0].Value = -1
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected a negative output value to be rejected")
	}
}

func TestCheckTransactionStructureRejectsValueAboveMaxSupply(t *testing.T) {
	tx := validTx()
	tx.Outputs[0].Value = MaxSatoshis + 1
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected an output value above max supply to be rejected")
	}
}

func TestCheckTransactionStructureRejectsOverflowingTotal(t *testing.T) {
	tx := validTx()
	tx.Outputs = []TxOut{
		{Value: MaxSatoshis},
		{Value: MaxSatoshis},
	}
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected a summed total above max supply to be rejected")
	}
}

func TestCheckTransactionStructureRejectsDuplicatePrevout(t *testing.T) {
	tx := validTx()
	tx.Inputs = append(tx.Inputs, tx.Inputs[0])
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected a duplicate prevout within one transaction to be rejected")
	}
}

func TestCheckTransactionStructureRejectsNonCoinbaseNullPrevout(t *testing.T) {
	tx := validTx()
	tx.Inputs[0].PrevOut = Outpoint{Vout: CoinbaseVout}
	if err := CheckTransactionStructure(tx, false); err == nil {
		t.Fatal("expected a non-coinbase transaction referencing the null prevout to be rejected")
	}
}

func TestCheckTransactionStructureAcceptsCoinbase(t *testing.T) {
	tx := &Transaction{
		Inputs:  []TxIn{{PrevOut: Outpoint{Vout: CoinbaseVout}, ScriptSig: []byte{0x01, 0x02}}},
		Outputs: []TxOut{{Value: 5000000000, ScriptPubKey: []byte{0xAA}}},
	}
	if err := CheckTransactionStructure(tx, true); err != nil {
		t.Fatalf("expected a well-formed coinbase to pass, got %v", err)
	}
}

func TestCheckTransactionStructureRejectsMalformedCoinbase(t *testing.T) {
	tx := validTx() // non-null prevout, flagged as coinbase
	if err := CheckTransactionStructure(tx, true); err == nil {
		t.Fatal("expected a coinbase with a non-null prevout to be rejected")
	}
}

func TestTotalOutputValue(t *testing.T) {
	tx := validTx()
	tx.Outputs = append(tx.Outputs, TxOut{Value: 2500})
	total, err := TotalOutputValue(tx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 7500 {
		t.Fatalf("total = %d, want 7500", total)
	}
}

func TestTotalOutputValueRejectsOutOfRange(t *testing.T) {
	tx := validTx()
	tx.Outputs[0].Value = -1
	if _, err := TotalOutputValue(tx); err == nil {
		t.Fatal("expected a negative output value to error")
	}
}

func TestTxWeight(t *testing.T) {
	tx := validTx()
	base := len(SerializeTxNoWitness(tx))
	full := len(SerializeTxWithWitness(tx))
	want := base*3 + full
	if got := TxWeight(tx); got != want {
		t.Fatalf("TxWeight = %d, want %d", got, want)
	}
}

func TestTxWeightIncreasesWithWitnessData(t *testing.T) {
	tx := validTx()
	noWitness := TxWeight(tx)
	tx.Inputs[0].Witness = [][]byte{{0x01, 0x02, 0x03}}
	withWitness := TxWeight(tx)
	if withWitness <= noWitness {
		t.Fatal("adding witness data must increase transaction weight")
	}
}
