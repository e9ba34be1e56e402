package consensus

import (
	"encoding/binary"
)

// SigHashType enumerates the base signature-hash types and the
// ANYONECANPAY modifier bit, exactly as carried in the low byte of a
// legacy DER signature or the (optional) last byte of a taproot
// signature.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 1
	SigHashNone         SigHashType = 2
	SigHashSingle       SigHashType = 3
	SigHashAnyoneCanPay SigHashType = 0x80
	SigHashDefault      SigHashType = 0 // taproot key-path only
	sigHashOutputMask   SigHashType = 0x03
)

func (t SigHashType) baseType() SigHashType { return t & sigHashOutputMask }
func (t SigHashType) anyoneCanPay() bool    { return t&SigHashAnyoneCanPay != 0 }

// PrevOutput describes the prevout an input spends, as needed by the
// BIP-143 and BIP-341 sighash algorithms (amount and scriptPubKey are
// not present on the spending transaction itself).
type PrevOutput struct {
	Value        Satoshi
	ScriptPubKey []byte
}

// LegacySigHash implements the pre-segwit signature hash: every input's
// scriptSig is blanked except inputIndex's, which is replaced by
// subScript, then the hash-type modifications are applied before
// double-SHA256 hashing the serialization with the hash type appended.
func LegacySigHash(h Hasher, tx *Transaction, inputIndex int, subScript []byte, hashType SigHashType) (Hash256, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return Hash256{}, newErr(ErrTxParse, "sighash: input index out of range")
	}
	if hashType.baseType() == SigHashSingle && inputIndex >= len(tx.Outputs) {
		// The SIGHASH_SINGLE bug: hash the constant 0x0000...0001.
		var out Hash256
		out[0] = 1
		return out, nil
	}

	cp := copyTxForSigHash(tx)
	for i := range cp.Inputs {
		if i == inputIndex {
			cp.Inputs[i].ScriptSig = subScript
		} else {
			cp.Inputs[i].ScriptSig = nil
		}
	}

	switch hashType.baseType() {
	case SigHashNone:
		cp.Outputs = nil
		for i := range cp.Inputs {
			if i != inputIndex {
				cp.Inputs[i].Sequence = 0
			}
		}
	case SigHashSingle:
		cp.Outputs = make([]TxOut, inputIndex+1)
		for i := 0; i < inputIndex; i++ {
			cp.Outputs[i] = TxOut{Value: -1}
		}
		cp.Outputs[inputIndex] = tx.Outputs[inputIndex]
		for i := range cp.Inputs {
			if i != inputIndex {
				cp.Inputs[i].Sequence = 0
			}
		}
	}

	if hashType.anyoneCanPay() {
		cp.Inputs = []TxIn{cp.Inputs[inputIndex]}
	}

	ser := serializeTx(&cp, false)
	var htBuf [4]byte
	binary.LittleEndian.PutUint32(htBuf[:], uint32(hashType))
	ser = append(ser, htBuf[:]...)
	return h.DoubleSha256(ser), nil
}

func copyTxForSigHash(tx *Transaction) Transaction {
	cp := Transaction{Version: tx.Version, LockTime: tx.LockTime}
	cp.Inputs = make([]TxIn, len(tx.Inputs))
	for i, in := range tx.Inputs {
		cp.Inputs[i] = TxIn{PrevOut: in.PrevOut, Sequence: in.Sequence}
	}
	cp.Outputs = append([]TxOut(nil), tx.Outputs...)
	return cp
}

// SegwitV0SigHash implements BIP-143: the signature hash used by P2WPKH,
// P2WSH and P2SH-wrapped witness scripts. scriptCode is the witness
// script (P2WSH) or the implicit P2PKH-equivalent script (P2WPKH).
func SegwitV0SigHash(h Hasher, tx *Transaction, inputIndex int, scriptCode []byte, amount Satoshi, hashType SigHashType) (Hash256, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return Hash256{}, newErr(ErrTxParse, "sighash: input index out of range")
	}

	hashPrevouts := Hash256{}
	hashSequence := Hash256{}
	hashOutputs := Hash256{}

	if !hashType.anyoneCanPay() {
		var buf []byte
		for _, in := range tx.Inputs {
			buf = append(buf, serializeOutpoint(in.PrevOut)...)
		}
		hashPrevouts = h.DoubleSha256(buf)
	}

	if !hashType.anyoneCanPay() && hashType.baseType() != SigHashSingle && hashType.baseType() != SigHashNone {
		var buf []byte
		for _, in := range tx.Inputs {
			var s [4]byte
			binary.LittleEndian.PutUint32(s[:], in.Sequence)
			buf = append(buf, s[:]...)
		}
		hashSequence = h.DoubleSha256(buf)
	}

	switch {
	case hashType.baseType() != SigHashSingle && hashType.baseType() != SigHashNone:
		var buf []byte
		for _, out := range tx.Outputs {
			buf = append(buf, serializeTxOut(out)...)
		}
		hashOutputs = h.DoubleSha256(buf)
	case hashType.baseType() == SigHashSingle && inputIndex < len(tx.Outputs):
		hashOutputs = h.DoubleSha256(serializeTxOut(tx.Outputs[inputIndex]))
	}

	var msg []byte
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], uint32(tx.Version))
	msg = append(msg, v[:]...)
	msg = append(msg, hashPrevouts[:]...)
	msg = append(msg, hashSequence[:]...)
	msg = append(msg, serializeOutpoint(tx.Inputs[inputIndex].PrevOut)...)
	msg = PutVarInt(msg, uint64(len(scriptCode)))
	msg = append(msg, scriptCode...)
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], uint64(amount))
	msg = append(msg, amt[:]...)
	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], tx.Inputs[inputIndex].Sequence)
	msg = append(msg, seq[:]...)
	msg = append(msg, hashOutputs[:]...)
	var lt [4]byte
	binary.LittleEndian.PutUint32(lt[:], tx.LockTime)
	msg = append(msg, lt[:]...)
	var ht [4]byte
	binary.LittleEndian.PutUint32(ht[:], uint32(hashType))
	msg = append(msg, ht[:]...)

	return h.DoubleSha256(msg), nil
}

func serializeOutpoint(op Outpoint) []byte {
	out := make([]byte, 36)
	copy(out[0:32], op.Txid[:])
	binary.LittleEndian.PutUint32(out[32:36], op.Vout)
	return out
}

func serializeTxOut(o TxOut) []byte {
	var buf []byte
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], uint64(o.Value))
	buf = append(buf, v[:]...)
	buf = PutVarInt(buf, uint64(len(o.ScriptPubKey)))
	buf = append(buf, o.ScriptPubKey...)
	return buf
}

// TaprootSigHashExtFlag distinguishes key-path (0) from script-path (1)
// spends for the BIP-341 annex/leaf commitments.
type TaprootSigHashExtFlag byte

const (
	TaprootExtFlagKeyPath    TaprootSigHashExtFlag = 0
	TaprootExtFlagScriptPath TaprootSigHashExtFlag = 1
)

// TaprootSigHashParams bundles the whole-transaction context BIP-341
// needs beyond the spending transaction itself: every input's prevout,
// and (for script-path spends) the tapleaf being executed.
type TaprootSigHashParams struct {
	PrevOuts     []PrevOutput
	InputIndex   int
	HashType     SigHashType
	ExtFlag      TaprootSigHashExtFlag
	TapLeafHash  Hash256 // only used when ExtFlag == ScriptPath
	KeyVersion   byte    // BIP-342 key version, always 0 today
	CodeSepPos   uint32  // 0xFFFFFFFF if no OP_CODESEPARATOR executed
	Annex        []byte  // nil if no annex present
}

// TaprootSigHash implements the BIP-341 signature message algorithm
// used by both key-path and (via BIP-342) script-path spends.
func TaprootSigHash(h Hasher, tx *Transaction, p TaprootSigHashParams) (Hash256, error) {
	if p.InputIndex < 0 || p.InputIndex >= len(tx.Inputs) || len(p.PrevOuts) != len(tx.Inputs) {
		return Hash256{}, newErr(ErrTxParse, "taproot sighash: malformed params")
	}

	var msg []byte
	msg = append(msg, 0x00) // epoch
	msg = append(msg, byte(p.HashType))

	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], uint32(tx.Version))
	msg = append(msg, v[:]...)
	var lt [4]byte
	binary.LittleEndian.PutUint32(lt[:], tx.LockTime)
	msg = append(msg, lt[:]...)

	if !p.HashType.anyoneCanPay() {
		var prevoutsBuf, amountsBuf, scriptsBuf, sequencesBuf []byte
		for i, in := range tx.Inputs {
			prevoutsBuf = append(prevoutsBuf, serializeOutpoint(in.PrevOut)...)
			var amt [8]byte
			binary.LittleEndian.PutUint64(amt[:], uint64(p.PrevOuts[i].Value))
			amountsBuf = append(amountsBuf, amt[:]...)
			scriptsBuf = PutVarInt(scriptsBuf, uint64(len(p.PrevOuts[i].ScriptPubKey)))
			scriptsBuf = append(scriptsBuf, p.PrevOuts[i].ScriptPubKey...)
			var seq [4]byte
			binary.LittleEndian.PutUint32(seq[:], in.Sequence)
			sequencesBuf = append(sequencesBuf, seq[:]...)
		}
		shaPrevouts := h.Sha256(prevoutsBuf)
		shaAmounts := h.Sha256(amountsBuf)
		shaScripts := h.Sha256(scriptsBuf)
		shaSequences := h.Sha256(sequencesBuf)
		msg = append(msg, shaPrevouts[:]...)
		msg = append(msg, shaAmounts[:]...)
		msg = append(msg, shaScripts[:]...)
		msg = append(msg, shaSequences[:]...)
	}

	if p.HashType.baseType() != SigHashNone && p.HashType.baseType() != SigHashSingle {
		var outputsBuf []byte
		for _, out := range tx.Outputs {
			outputsBuf = append(outputsBuf, serializeTxOut(out)...)
		}
		shaOutputs := h.Sha256(outputsBuf)
		msg = append(msg, shaOutputs[:]...)
	}

	spendType := byte(p.ExtFlag) << 1
	if p.Annex != nil {
		spendType |= 1
	}
	msg = append(msg, spendType)

	if p.HashType.anyoneCanPay() {
		in := tx.Inputs[p.InputIndex]
		msg = append(msg, serializeOutpoint(in.PrevOut)...)
		var amt [8]byte
		binary.LittleEndian.PutUint64(amt[:], uint64(p.PrevOuts[p.InputIndex].Value))
		msg = append(msg, amt[:]...)
		sp := p.PrevOuts[p.InputIndex].ScriptPubKey
		msg = PutVarInt(msg, uint64(len(sp)))
		msg = append(msg, sp...)
		var seq [4]byte
		binary.LittleEndian.PutUint32(seq[:], in.Sequence)
		msg = append(msg, seq[:]...)
	} else {
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], uint32(p.InputIndex))
		msg = append(msg, idx[:]...)
	}

	if p.Annex != nil {
		var annexBuf []byte
		annexBuf = PutVarInt(annexBuf, uint64(len(p.Annex)))
		annexBuf = append(annexBuf, p.Annex...)
		shaAnnex := h.Sha256(annexBuf)
		msg = append(msg, shaAnnex[:]...)
	}

	if p.HashType.baseType() == SigHashSingle {
		if p.InputIndex < len(tx.Outputs) {
			shaOut := h.Sha256(serializeTxOut(tx.Outputs[p.InputIndex]))
			msg = append(msg, shaOut[:]...)
		} else {
			return Hash256{}, newErr(ErrTxParse, "taproot sighash: SIGHASH_SINGLE without matching output")
		}
	}

	if p.ExtFlag == TaprootExtFlagScriptPath {
		msg = append(msg, p.TapLeafHash[:]...)
		msg = append(msg, p.KeyVersion)
		var cs [4]byte
		binary.LittleEndian.PutUint32(cs[:], p.CodeSepPos)
		msg = append(msg, cs[:]...)
	}

	return TaggedHash(h, "TapSighash", msg), nil
}

// TaggedHash implements BIP-340's tagged hash construction:
// SHA256(SHA256(tag) || SHA256(tag) || msg).
func TaggedHash(h Hasher, tag string, msg []byte) Hash256 {
	tagHash := h.Sha256([]byte(tag))
	buf := make([]byte, 0, 64+len(msg))
	buf = append(buf, tagHash[:]...)
	buf = append(buf, tagHash[:]...)
	buf = append(buf, msg...)
	return Hash256(h.Sha256(buf))
}
