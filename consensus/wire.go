package consensus

import (
	"encoding/binary"
)

// SerializeHeader encodes a BlockHeader into its fixed 80-byte wire form.
func SerializeHeader(h BlockHeader) ([]byte, error) {
	out := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint32(out[0:4], uint32(h.Version))
	copy(out[4:36], h.PrevHash[:])
	copy(out[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(out[68:72], uint32(h.Timestamp))
	binary.LittleEndian.PutUint32(out[72:76], h.Bits)
	binary.LittleEndian.PutUint32(out[76:80], h.Nonce)
	return out, nil
}

// ParseHeader decodes an 80-byte BlockHeader.
func ParseHeader(b []byte) (BlockHeader, error) {
	if len(b) != BlockHeaderSize {
		return BlockHeader{}, newErr(ErrBlockParse, "header: expected %d bytes, got %d", BlockHeaderSize, len(b))
	}
	var h BlockHeader
	h.Version = int32(binary.LittleEndian.Uint32(b[0:4]))
	copy(h.PrevHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp = Timestamp(binary.LittleEndian.Uint32(b[68:72]))
	h.Bits = binary.LittleEndian.Uint32(b[72:76])
	h.Nonce = binary.LittleEndian.Uint32(b[76:80])
	return h, nil
}

var segwitMarker = [2]byte{0x00, 0x01}

func serializeTx(tx *Transaction, includeWitness bool) []byte {
	hasWitness := includeWitness && tx.HasWitness()

	out := make([]byte, 0, 256)
	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], uint32(tx.Version))
	out = append(out, verBuf[:]...)

	if hasWitness {
		out = append(out, segwitMarker[:]...)
	}

	out = PutVarInt(out, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		out = append(out, in.PrevOut.Txid[:]...)
		var voutBuf [4]byte
		binary.LittleEndian.PutUint32(voutBuf[:], in.PrevOut.Vout)
		out = append(out, voutBuf[:]...)
		out = PutVarInt(out, uint64(len(in.ScriptSig)))
		out = append(out, in.ScriptSig...)
		var seqBuf [4]byte
		binary.LittleEndian.PutUint32(seqBuf[:], in.Sequence)
		out = append(out, seqBuf[:]...)
	}

	out = PutVarInt(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		var valBuf [8]byte
		binary.LittleEndian.PutUint64(valBuf[:], uint64(o.Value))
		out = append(out, valBuf[:]...)
		out = PutVarInt(out, uint64(len(o.ScriptPubKey)))
		out = append(out, o.ScriptPubKey...)
	}

	if hasWitness {
		for _, in := range tx.Inputs {
			out = PutVarInt(out, uint64(len(in.Witness)))
			for _, item := range in.Witness {
				out = PutVarInt(out, uint64(len(item)))
				out = append(out, item...)
			}
		}
	}

	var lockBuf [4]byte
	binary.LittleEndian.PutUint32(lockBuf[:], tx.LockTime)
	out = append(out, lockBuf[:]...)
	return out
}

// SerializeTxNoWitness encodes tx in its legacy (non-witness) form,
// the form committed to by txid.
func SerializeTxNoWitness(tx *Transaction) []byte {
	return serializeTx(tx, false)
}

// SerializeTxWithWitness encodes tx including any witness data.
func SerializeTxWithWitness(tx *Transaction) []byte {
	return serializeTx(tx, true)
}

// ParseTransaction decodes a transaction, handling the optional
// 0x00 0x01 SegWit marker/flag.
func ParseTransaction(b []byte) (Transaction, int, error) {
	var tx Transaction
	off := 0
	if len(b) < 4 {
		return tx, 0, newErr(ErrTxParse, "tx: truncated version")
	}
	tx.Version = int32(binary.LittleEndian.Uint32(b[0:4]))
	off = 4

	hasWitness := false
	if len(b) >= off+2 && b[off] == 0x00 && b[off+1] == 0x01 {
		hasWitness = true
		off += 2
	}

	inCount, n, err := ReadVarInt(b[off:])
	if err != nil {
		return tx, 0, err
	}
	off += n

	tx.Inputs = make([]TxIn, inCount)
	for i := range tx.Inputs {
		if len(b) < off+36 {
			return tx, 0, newErr(ErrTxParse, "tx: truncated input prevout")
		}
		var in TxIn
		copy(in.PrevOut.Txid[:], b[off:off+32])
		in.PrevOut.Vout = binary.LittleEndian.Uint32(b[off+32 : off+36])
		off += 36

		scriptLen, n, err := ReadVarInt(b[off:])
		if err != nil {
			return tx, 0, err
		}
		off += n
		if uint64(len(b)-off) < scriptLen {
			return tx, 0, newErr(ErrTxParse, "tx: truncated scriptSig")
		}
		in.ScriptSig = append([]byte(nil), b[off:off+int(scriptLen)]...)
		off += int(scriptLen)

		if len(b) < off+4 {
			return tx, 0, newErr(ErrTxParse, "tx: truncated sequence")
		}
		in.Sequence = binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		tx.Inputs[i] = in
	}

	outCount, n, err := ReadVarInt(b[off:])
	if err != nil {
		return tx, 0, err
	}
	off += n

	tx.Outputs = make([]TxOut, outCount)
	for i := range tx.Outputs {
		if len(b) < off+8 {
			return tx, 0, newErr(ErrTxParse, "tx: truncated output value")
		}
		var o TxOut
		o.Value = Satoshi(binary.LittleEndian.Uint64(b[off : off+8]))
		off += 8
		scriptLen, n, err := ReadVarInt(b[off:])
		if err != nil {
			return tx, 0, err
		}
		off += n
		if uint64(len(b)-off) < scriptLen {
			return tx, 0, newErr(ErrTxParse, "tx: truncated scriptPubKey")
		}
		o.ScriptPubKey = append([]byte(nil), b[off:off+int(scriptLen)]...)
		off += int(scriptLen)
		tx.Outputs[i] = o
	}

	if hasWitness {
		for i := range tx.Inputs {
			itemCount, n, err := ReadVarInt(b[off:])
			if err != nil {
				return tx, 0, err
			}
			off += n
			items := make([][]byte, itemCount)
			for j := range items {
				itemLen, n, err := ReadVarInt(b[off:])
				if err != nil {
					return tx, 0, err
				}
				off += n
				if uint64(len(b)-off) < itemLen {
					return tx, 0, newErr(ErrTxParse, "tx: truncated witness item")
				}
				items[j] = append([]byte(nil), b[off:off+int(itemLen)]...)
				off += int(itemLen)
			}
			tx.Inputs[i].Witness = items
		}
	}

	if len(b) < off+4 {
		return tx, 0, newErr(ErrTxParse, "tx: truncated locktime")
	}
	tx.LockTime = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	return tx, off, nil
}

// SerializeBlock encodes header + all transactions (witness-inclusive).
func SerializeBlock(blk *Block) ([]byte, error) {
	hdr, err := SerializeHeader(blk.Header)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), hdr...)
	out = PutVarInt(out, uint64(len(blk.Txs)))
	for i := range blk.Txs {
		out = append(out, SerializeTxWithWitness(&blk.Txs[i])...)
	}
	return out, nil
}

// ParseBlock decodes a full block.
func ParseBlock(b []byte) (Block, error) {
	if len(b) < BlockHeaderSize {
		return Block{}, newErr(ErrBlockParse, "block: truncated header")
	}
	hdr, err := ParseHeader(b[:BlockHeaderSize])
	if err != nil {
		return Block{}, err
	}
	off := BlockHeaderSize
	count, n, err := ReadVarInt(b[off:])
	if err != nil {
		return Block{}, err
	}
	off += n
	txs := make([]Transaction, count)
	for i := range txs {
		tx, used, err := ParseTransaction(b[off:])
		if err != nil {
			return Block{}, err
		}
		txs[i] = tx
		off += used
	}
	return Block{Header: hdr, Txs: txs}, nil
}
