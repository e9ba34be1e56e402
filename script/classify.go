package script

// ScriptClass names the recognized scriptPubKey shapes.
type ScriptClass int

const (
	ClassNonStandard ScriptClass = iota
	ClassPubKey
	ClassPubKeyHash
	ClassScriptHash
	ClassMultisig
	ClassNullData
	ClassWitnessV0KeyHash
	ClassWitnessV0ScriptHash
	ClassWitnessV1Taproot
	ClassWitnessUnknown
)

func (c ScriptClass) String() string {
	switch c {
	case ClassPubKey:
		return "pubkey"
	case ClassPubKeyHash:
		return "pubkeyhash"
	case ClassScriptHash:
		return "scripthash"
	case ClassMultisig:
		return "multisig"
	case ClassNullData:
		return "nulldata"
	case ClassWitnessV0KeyHash:
		return "witness_v0_keyhash"
	case ClassWitnessV0ScriptHash:
		return "witness_v0_scripthash"
	case ClassWitnessV1Taproot:
		return "witness_v1_taproot"
	case ClassWitnessUnknown:
		return "witness_unknown"
	default:
		return "nonstandard"
	}
}

// IsWitnessProgram reports whether pkScript is any BIP-141-shaped
// witness program: OP_0..OP_16 followed by a single 2-40 byte push.
func IsWitnessProgram(pkScript []byte) (version int, program []byte, ok bool) {
	if len(pkScript) < 4 || len(pkScript) > 42 {
		return 0, nil, false
	}
	op := Opcode(pkScript[0])
	if op != OP_0 && !(op >= OP_1 && op <= OP_16) {
		return 0, nil, false
	}
	pushLen := int(pkScript[1])
	if pushLen < 2 || pushLen > 40 || len(pkScript) != 2+pushLen {
		return 0, nil, false
	}
	if op == OP_0 {
		version = 0
	} else {
		version = int(op - OP_1 + 1)
	}
	return version, pkScript[2:], true
}

// Classify identifies pkScript's output shape.
func Classify(pkScript []byte) ScriptClass {
	if v, prog, ok := IsWitnessProgram(pkScript); ok {
		switch {
		case v == 0 && len(prog) == 20:
			return ClassWitnessV0KeyHash
		case v == 0 && len(prog) == 32:
			return ClassWitnessV0ScriptHash
		case v == 1 && len(prog) == 32:
			return ClassWitnessV1Taproot
		default:
			return ClassWitnessUnknown
		}
	}

	if isPubKeyHashScript(pkScript) {
		return ClassPubKeyHash
	}
	if isScriptHashScript(pkScript) {
		return ClassScriptHash
	}
	if isPubKeyScript(pkScript) {
		return ClassPubKey
	}
	if isNullDataScript(pkScript) {
		return ClassNullData
	}
	if isMultisigScript(pkScript) {
		return ClassMultisig
	}
	return ClassNonStandard
}

func isPubKeyHashScript(s []byte) bool {
	return len(s) == 25 &&
		Opcode(s[0]) == OP_DUP && Opcode(s[1]) == OP_HASH160 &&
		s[2] == 20 && Opcode(s[23]) == OP_EQUALVERIFY && Opcode(s[24]) == OP_CHECKSIG
}

func isScriptHashScript(s []byte) bool {
	return len(s) == 23 && Opcode(s[0]) == OP_HASH160 && s[1] == 20 && Opcode(s[22]) == OP_EQUAL
}

func isPubKeyScript(s []byte) bool {
	if len(s) == 35 && s[0] == 33 && Opcode(s[34]) == OP_CHECKSIG {
		return true
	}
	return len(s) == 67 && s[0] == 65 && Opcode(s[66]) == OP_CHECKSIG
}

func isNullDataScript(s []byte) bool {
	return len(s) >= 1 && Opcode(s[0]) == OP_RETURN
}

func isMultisigScript(s []byte) bool {
	if len(s) < 3 {
		return false
	}
	m := Opcode(s[0])
	n := Opcode(s[len(s)-2])
	if !(m >= OP_1 && m <= OP_16) || !(n >= OP_1 && n <= OP_16) || Opcode(s[len(s)-1]) != OP_CHECKMULTISIG {
		return false
	}
	return n >= m
}
