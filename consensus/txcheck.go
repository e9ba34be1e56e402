package consensus

// CheckTransactionStructure applies the context-free transaction rules
// that do not require chain state: non-empty inputs/outputs, no
// duplicate prevouts within the transaction, output values in range
// and not overflowing when summed, and a bounded serialized size. A
// coinbase transaction is checked with isCoinbase set: it must have a
// single input spending the null/coinbase outpoint, and the
// duplicate-prevout rule is skipped. No scriptSig length limit is
// checked for any input, coinbase or not.
func CheckTransactionStructure(tx *Transaction, isCoinbase bool) error {
	if len(tx.Inputs) == 0 {
		return newErr(ErrTxEmptyInputs, "transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return newErr(ErrTxEmptyOutputs, "transaction has no outputs")
	}

	var total Satoshi
	for _, out := range tx.Outputs {
		if out.Value < 0 {
			return newErr(ErrTxNegativeValue, "output value %d is negative", out.Value)
		}
		if out.Value > MaxSatoshis {
			return newErr(ErrTxValueTooLarge, "output value %d exceeds max supply", out.Value)
		}
		sum, err := AddSatoshi(total, out.Value)
		if err != nil {
			return newErr(ErrTxTotalOverflow, "%v", err)
		}
		total = sum
		if total > MaxSatoshis {
			return newErr(ErrTxTotalOverflow, "total output value exceeds max supply")
		}
	}

	if isCoinbase {
		if len(tx.Inputs) != 1 || !tx.Inputs[0].PrevOut.IsCoinbaseOutpoint() {
			return newErr(ErrBlockCoinbase, "malformed coinbase input")
		}
	} else {
		seen := make(map[Outpoint]struct{}, len(tx.Inputs))
		for _, in := range tx.Inputs {
			if in.PrevOut.IsCoinbaseOutpoint() {
				return newErr(ErrTxNull, "non-coinbase input references null outpoint")
			}
			if _, dup := seen[in.PrevOut]; dup {
				return newErr(ErrTxDuplicateInput, "duplicate prevout %s", in.PrevOut)
			}
			seen[in.PrevOut] = struct{}{}
		}
	}

	ser := SerializeTxWithWitness(tx)
	if len(ser) > MaxTxSize {
		return newErr(ErrTxSizeExceeded, "serialized size %d exceeds %d", len(ser), MaxTxSize)
	}
	return nil
}

// TotalOutputValue sums a transaction's output values, erroring on
// overflow or an out-of-range individual value.
func TotalOutputValue(tx *Transaction) (Satoshi, error) {
	var total Satoshi
	for _, out := range tx.Outputs {
		if out.Value < 0 || out.Value > MaxSatoshis {
			return 0, newErr(ErrTxValueTooLarge, "output value %d out of range", out.Value)
		}
		sum, err := AddSatoshi(total, out.Value)
		if err != nil {
			return 0, newErr(ErrTxTotalOverflow, "%v", err)
		}
		total = sum
	}
	return total, nil
}

// TxWeight computes a transaction's BIP-141 weight: 3 times the
// non-witness serialization size plus the full witness-inclusive
// serialization size.
func TxWeight(tx *Transaction) int {
	base := SerializeTxNoWitness(tx)
	full := SerializeTxWithWitness(tx)
	return len(base)*3 + len(full)
}
