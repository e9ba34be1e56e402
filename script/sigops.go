package script

// CountSigOps returns the (pre-segwit) legacy signature operation
// count for a script: OP_CHECKSIG/OP_CHECKSIGVERIFY count 1,
// OP_CHECKMULTISIG(VERIFY) counts as 20 unless the immediately
// preceding opcode is a small immediate (OP_1..OP_16), in which case
// that immediate's value is used (accurateMultisig semantics match
// the post-BIP16 behavior used for P2SH redeem scripts).
func CountSigOps(prog []byte, accurateMultisig bool) int {
	count := 0
	pc := 0
	var lastOp Opcode
	for pc < len(prog) {
		op, _, next, err := nextOp(prog, pc)
		if err != nil {
			break
		}
		switch op {
		case OP_CHECKSIG, OP_CHECKSIGVERIFY:
			count++
		case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
			if accurateMultisig && lastOp >= OP_1 && lastOp <= OP_16 {
				count += int(lastOp - OP_1 + 1)
			} else {
				count += 20
			}
		}
		lastOp = op
		pc = next
	}
	return count
}

// CountP2SHSigOps counts the sigops contributed by a P2SH input: the
// sigops of the redeem script, which is the final witness/scriptSig
// push of the spending input's scriptSig.
func CountP2SHSigOps(scriptSig []byte) int {
	pushes := extractPushes(scriptSig)
	if len(pushes) == 0 {
		return 0
	}
	return CountSigOps(pushes[len(pushes)-1], true)
}

func extractPushes(prog []byte) [][]byte {
	var out [][]byte
	pc := 0
	for pc < len(prog) {
		op, data, next, err := nextOp(prog, pc)
		if err != nil {
			return out
		}
		if isPushOpcode(op) {
			out = append(out, data)
		} else {
			return nil // non-push opcode: not a valid P2SH scriptSig
		}
		pc = next
	}
	return out
}

// CountWitnessSigOps counts the weighted sigops of a segwit-v0
// witness program spend (P2WPKH counts as 1, P2WSH counts the witness
// script's sigops). The count is unscaled: under BIP-141 witness
// sigops weigh 1x, while legacy/P2SH sigops are the ones multiplied by
// the witness scale factor of 4.
func CountWitnessSigOps(witnessVersion int, witnessProgram []byte, witness [][]byte) int {
	if witnessVersion != 0 {
		return 0
	}
	switch len(witnessProgram) {
	case 20:
		return 1
	case 32:
		if len(witness) == 0 {
			return 0
		}
		return CountSigOps(witness[len(witness)-1], true)
	default:
		return 0
	}
}
