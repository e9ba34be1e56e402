// Package script implements the Bitcoin Script stack machine: opcode
// dispatch, the legacy/P2SH/segwit-v0/taproot execution paths, output
// classification, and signature-operation counting.
package script

// Opcode is a single Script byte.
type Opcode byte

const (
	OP_0         Opcode = 0x00
	OP_PUSHDATA1 Opcode = 0x4c
	OP_PUSHDATA2 Opcode = 0x4d
	OP_PUSHDATA4 Opcode = 0x4e
	OP_1NEGATE   Opcode = 0x4f
	OP_RESERVED  Opcode = 0x50
	OP_1         Opcode = 0x51
	OP_16        Opcode = 0x60

	OP_NOP         Opcode = 0x61
	OP_VER         Opcode = 0x62
	OP_IF          Opcode = 0x63
	OP_NOTIF       Opcode = 0x64
	OP_VERIF       Opcode = 0x65
	OP_VERNOTIF    Opcode = 0x66
	OP_ELSE        Opcode = 0x67
	OP_ENDIF       Opcode = 0x68
	OP_VERIFY      Opcode = 0x69
	OP_RETURN      Opcode = 0x6a
	OP_TOALTSTACK   Opcode = 0x6b
	OP_FROMALTSTACK Opcode = 0x6c
	OP_2DROP       Opcode = 0x6d
	OP_2DUP        Opcode = 0x6e
	OP_3DUP        Opcode = 0x6f
	OP_2OVER       Opcode = 0x70
	OP_2ROT        Opcode = 0x71
	OP_2SWAP       Opcode = 0x72
	OP_IFDUP       Opcode = 0x73
	OP_DEPTH       Opcode = 0x74
	OP_DROP        Opcode = 0x75
	OP_DUP         Opcode = 0x76
	OP_NIP         Opcode = 0x77
	OP_OVER        Opcode = 0x78
	OP_PICK        Opcode = 0x79
	OP_ROLL        Opcode = 0x7a
	OP_ROT         Opcode = 0x7b
	OP_SWAP        Opcode = 0x7c
	OP_TUCK        Opcode = 0x7d

	OP_CAT    Opcode = 0x7e
	OP_SUBSTR Opcode = 0x7f
	OP_LEFT   Opcode = 0x80
	OP_RIGHT  Opcode = 0x81
	OP_SIZE   Opcode = 0x82
	OP_INVERT Opcode = 0x83
	OP_AND    Opcode = 0x84
	OP_OR     Opcode = 0x85
	OP_XOR    Opcode = 0x86

	OP_EQUAL       Opcode = 0x87
	OP_EQUALVERIFY Opcode = 0x88

	OP_1ADD               Opcode = 0x8b
	OP_1SUB               Opcode = 0x8c
	OP_2MUL               Opcode = 0x8d
	OP_2DIV               Opcode = 0x8e
	OP_NEGATE             Opcode = 0x8f
	OP_ABS                Opcode = 0x90
	OP_NOT                Opcode = 0x91
	OP_0NOTEQUAL          Opcode = 0x92
	OP_ADD                Opcode = 0x93
	OP_SUB                Opcode = 0x94
	OP_MUL                Opcode = 0x95
	OP_DIV                Opcode = 0x96
	OP_MOD                Opcode = 0x97
	OP_LSHIFT             Opcode = 0x98
	OP_RSHIFT             Opcode = 0x99
	OP_BOOLAND            Opcode = 0x9a
	OP_BOOLOR             Opcode = 0x9b
	OP_NUMEQUAL           Opcode = 0x9c
	OP_NUMEQUALVERIFY     Opcode = 0x9d
	OP_NUMNOTEQUAL        Opcode = 0x9e
	OP_LESSTHAN           Opcode = 0x9f
	OP_GREATERTHAN        Opcode = 0xa0
	OP_LESSTHANOREQUAL    Opcode = 0xa1
	OP_GREATERTHANOREQUAL Opcode = 0xa2
	OP_MIN                Opcode = 0xa3
	OP_MAX                Opcode = 0xa4
	OP_WITHIN             Opcode = 0xa5

	OP_RIPEMD160           Opcode = 0xa6
	OP_SHA1                Opcode = 0xa7
	OP_SHA256              Opcode = 0xa8
	OP_HASH160             Opcode = 0xa9
	OP_HASH256             Opcode = 0xaa
	OP_CODESEPARATOR       Opcode = 0xab
	OP_CHECKSIG            Opcode = 0xac
	OP_CHECKSIGVERIFY      Opcode = 0xad
	OP_CHECKMULTISIG       Opcode = 0xae
	OP_CHECKMULTISIGVERIFY Opcode = 0xaf

	OP_NOP1               Opcode = 0xb0
	OP_CHECKLOCKTIMEVERIFY Opcode = 0xb1
	OP_CHECKSEQUENCEVERIFY Opcode = 0xb2
	OP_NOP4               Opcode = 0xb3
	OP_NOP5               Opcode = 0xb4
	OP_NOP6               Opcode = 0xb5
	OP_NOP7               Opcode = 0xb6
	OP_NOP8               Opcode = 0xb7
	OP_NOP9               Opcode = 0xb8
	OP_NOP10              Opcode = 0xb9

	// OP_CHECKSIGADD is tapscript-only (BIP-342); outside tapscript it
	// is rejected as a bad opcode.
	OP_CHECKSIGADD Opcode = 0xba
)

// disabledOpcodes are rejected unconditionally, even inside an
// unexecuted IF branch, per the original Satoshi client's policy kept
// as consensus.
var disabledOpcodes = map[Opcode]bool{
	OP_CAT: true, OP_SUBSTR: true, OP_LEFT: true, OP_RIGHT: true,
	OP_INVERT: true, OP_AND: true, OP_OR: true, OP_XOR: true,
	OP_2MUL: true, OP_2DIV: true, OP_MUL: true, OP_DIV: true,
	OP_MOD: true, OP_LSHIFT: true, OP_RSHIFT: true,
}

// isSuccessOpcode reports whether op is one of tapscript's OP_SUCCESSx
// codes (BIP-342). The exact set is 80, 98, 126-129, 131-134, 137-138,
// 141-142, 149-153, 187-254.
func isSuccessOpcode(op Opcode) bool {
	switch {
	case op == 0x50:
		return true
	case op == 0x62:
		return true
	case op >= 0x7e && op <= 0x81:
		return true
	case op >= 0x83 && op <= 0x86:
		return true
	case op == 0x89 || op == 0x8a:
		return true
	case op == 0x8d || op == 0x8e:
		return true
	case op >= 0x95 && op <= 0x99:
		return true
	case op >= 0xbb && op <= 0xfe:
		return true
	}
	return false
}

// isPushOpcode reports whether op pushes literal data directly (a
// direct-length push of 0-75 bytes, including the empty OP_0 push, or
// one of the PUSHDATA1/2/4 forms). OP_1NEGATE, OP_RESERVED and
// OP_1..OP_16 are numeric opcodes handled by the interpreter, not raw
// data pushes, even though they sit in the same low byte range.
func isPushOpcode(op Opcode) bool {
	return op <= 75 || op == OP_PUSHDATA1 || op == OP_PUSHDATA2 || op == OP_PUSHDATA4
}
