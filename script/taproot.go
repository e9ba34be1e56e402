package script

import (
	"bytes"

	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/consensus/ecc"
)

// controlBlockBaseSize is the fixed portion of a BIP-341 control
// block: one byte of leaf version + output-key parity, plus the
// 32-byte internal public key.
const controlBlockBaseSize = 33

// maxTaprootStackDepth is BIP-341's bound on the script-path merkle
// inclusion proof (128 levels).
const maxTaprootStackDepth = 128

// annexTag marks the optional final witness item as an annex rather
// than the control block, per BIP-341.
const annexTag = 0x50

// SplitAnnex separates a trailing annex (if present) from a witness
// stack, returning the remaining stack items and the annex bytes
// (nil if none).
func SplitAnnex(witness [][]byte) (rest [][]byte, annex []byte) {
	if len(witness) >= 2 && len(witness[len(witness)-1]) > 0 && witness[len(witness)-1][0] == annexTag {
		return witness[:len(witness)-1], witness[len(witness)-1]
	}
	return witness, nil
}

// VerifyTaprootKeyPath implements the BIP-341 key-path spend: the
// witness is a single (optionally 65-byte, with explicit sighash
// type) Schnorr signature directly over the output key.
func VerifyTaprootKeyPath(sig []byte, outputKeyXOnly []byte, checker SigChecker) error {
	if len(sig) != 64 && len(sig) != 65 {
		return execErr(ErrSchnorrSigSize, "key-path signature must be 64 or 65 bytes")
	}
	ok, err := checker.CheckSchnorrSig(sig, outputKeyXOnly, SigVersionTaproot, [32]byte{}, 0xFFFFFFFF)
	if err != nil {
		return err
	}
	if !ok {
		return execErr(ErrSchnorrSig, "key-path signature invalid")
	}
	return nil
}

// ParsedControlBlock is a decoded BIP-341 control block.
type ParsedControlBlock struct {
	LeafVersion  byte
	ParityOdd    bool
	InternalKey  []byte // 32-byte x-only
	MerklePath   [][]byte
}

// ParseControlBlock decodes a taproot script-path control block.
func ParseControlBlock(cb []byte) (*ParsedControlBlock, error) {
	if len(cb) < controlBlockBaseSize {
		return nil, execErr(ErrTaprootControlBlock, "control block too short")
	}
	extra := len(cb) - controlBlockBaseSize
	if extra%32 != 0 {
		return nil, execErr(ErrTaprootControlBlock, "control block length not 33+32*m")
	}
	m := extra / 32
	if m > maxTaprootStackDepth {
		return nil, execErr(ErrTaprootControlBlock, "merkle path too deep")
	}
	pc := &ParsedControlBlock{
		LeafVersion: cb[0] &^ 1,
		ParityOdd:   cb[0]&1 != 0,
		InternalKey: append([]byte(nil), cb[1:33]...),
	}
	for i := 0; i < m; i++ {
		off := controlBlockBaseSize + i*32
		pc.MerklePath = append(pc.MerklePath, append([]byte(nil), cb[off:off+32]...))
	}
	return pc, nil
}

// VerifyTaprootScriptPath validates a script-path spend: the control
// block's merkle path must commit to leafScript under outputKeyXOnly,
// and execution of leafScript (already handled by the caller via
// Engine.Run) must succeed. This function performs only the
// commitment check; callers run the script separately so engine
// errors and commitment errors stay distinguishable.
func VerifyTaprootScriptPath(cb *ParsedControlBlock, leafScript []byte, outputKeyXOnly []byte) error {
	h := consensus.DefaultHasher
	leafHash := tapLeafHashFor(cb.LeafVersion, leafScript)

	node := leafHash
	for _, sibling := range cb.MerklePath {
		var sib consensus.Hash256
		copy(sib[:], sibling)
		node = tapBranch(h, node, sib)
	}

	computedKey, parityOdd, err := ecc.TweakTaprootOutputKey(cb.InternalKey, node)
	if err != nil {
		return execErr(ErrTaprootControlBlock, "%v", err)
	}
	if !bytes.Equal(computedKey[:], outputKeyXOnly) {
		return execErr(ErrTaprootControlBlock, "script-path commitment mismatch")
	}
	if parityOdd != cb.ParityOdd {
		return execErr(ErrTaprootControlBlock, "control block parity mismatch")
	}
	return nil
}

func tapLeafHashFor(leafVersion byte, script []byte) consensus.Hash256 {
	h := consensus.DefaultHasher
	var buf []byte
	buf = append(buf, leafVersion)
	buf = consensus.PutVarInt(buf, uint64(len(script)))
	buf = append(buf, script...)
	return consensus.TaggedHash(h, "TapLeaf", buf)
}

func tapBranch(h consensus.Hasher, a, b consensus.Hash256) consensus.Hash256 {
	// BIP-341 orders the two children lexicographically before hashing.
	var buf []byte
	if bytes.Compare(a[:], b[:]) <= 0 {
		buf = append(buf, a[:]...)
		buf = append(buf, b[:]...)
	} else {
		buf = append(buf, b[:]...)
		buf = append(buf, a[:]...)
	}
	return consensus.TaggedHash(h, "TapBranch", buf)
}
