package script

// SigChecker is the narrow signature/locktime verification surface the
// engine calls into for OP_CHECKSIG-family and OP_CHECKLOCKTIMEVERIFY/
// OP_CHECKSEQUENCEVERIFY opcodes. Concrete transaction validation wires
// a real implementation backed by consensus sighash + ecc verification;
// tests substitute a stub that accepts or rejects by table.
type SigChecker interface {
	// CheckECDSASig verifies a DER-encoded signature (with trailing
	// sighash-type byte) against pubKey over the script executing in
	// sigVersion, with scriptCode as the subscript/witness script.
	CheckECDSASig(sig, pubKey, scriptCode []byte, sigVersion SigVersion) (bool, error)

	// CheckSchnorrSig verifies a 64- or 65-byte BIP-340 signature
	// against a 32-byte x-only pubKey for the tapscript leaf
	// identified by leafHash, or for the taproot key-path spend when
	// sigVersion is SigVersionTaproot (leafHash is ignored then).
	CheckSchnorrSig(sig, pubKey []byte, sigVersion SigVersion, leafHash [32]byte, codeSepPos uint32) (bool, error)

	// CheckLockTime reports whether the spending transaction's
	// nLockTime satisfies a CHECKLOCKTIMEVERIFY argument of n.
	CheckLockTime(n int64) bool

	// CheckSequence reports whether the current input's nSequence
	// satisfies a CHECKSEQUENCEVERIFY argument of n.
	CheckSequence(n int64) bool
}
