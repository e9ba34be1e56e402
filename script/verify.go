package script

import (
	"bytes"

	"github.com/coredag/fullnode/consensus"
)

// VerifyInput runs the full verification path for a single input:
// scriptSig against scriptPubKey, the P2SH redeem-script re-execution
// when applicable, and the segwit-v0/taproot witness paths. checker
// supplies the real signature/locktime verification backed by the
// spending transaction.
func VerifyInput(scriptSig, scriptPubKey []byte, witness [][]byte, checker SigChecker, flags Flags) error {
	if flags.has(FlagVerifyStrictEnc) {
		if !isPushOnly(scriptSig) {
			return execErr(ErrBadOpcode, "scriptSig is not push-only")
		}
	}

	sigEngine := NewEngine(checker, SigVersionBase, flags)
	if err := sigEngine.Run(scriptSig); err != nil {
		return err
	}

	mainEngine := NewEngine(checker, SigVersionBase, flags)
	mainEngine.Stack = sigEngine.Stack
	if err := mainEngine.Run(scriptPubKey); err != nil {
		return err
	}

	witnessVersion, witnessProgram, isWitness := IsWitnessProgram(scriptPubKey)
	isP2SH := Classify(scriptPubKey) == ClassScriptHash

	if isP2SH && flags.has(FlagVerifyP2SH) {
		if !isPushOnly(scriptSig) {
			return execErr(ErrBadOpcode, "P2SH scriptSig is not push-only")
		}
		redeemScript, err := topOfStackBeforeExec(scriptSig)
		if err != nil {
			return err
		}
		if err := mainEngine.Success(); err != nil {
			return err
		}
		redeemEngine := NewEngine(checker, SigVersionBase, flags)
		redeemEngine.Stack = sigEngine.Stack
		if _, err := redeemEngine.Stack.Pop(); err != nil { // drop the redeem script itself
			return err
		}
		if err := redeemEngine.Run(redeemScript); err != nil {
			return err
		}
		if v, prog, ok := IsWitnessProgram(redeemScript); ok && flags.has(FlagVerifyWitness) {
			return verifyWitnessProgram(v, prog, witness, checker, flags)
		}
		if err := redeemEngine.Success(); err != nil {
			return err
		}
		return cleanStackCheck(redeemEngine, flags)
	}

	if isWitness && flags.has(FlagVerifyWitness) {
		if len(scriptSig) != 0 {
			return execErr(ErrBadOpcode, "witness program scriptSig must be empty")
		}
		return verifyWitnessProgram(witnessVersion, witnessProgram, witness, checker, flags)
	}

	if len(witness) != 0 && flags.has(FlagVerifyWitness) {
		return execErr(ErrWitnessUnexpected, "unexpected witness data")
	}

	if err := mainEngine.Success(); err != nil {
		return err
	}
	return cleanStackCheck(mainEngine, flags)
}

func cleanStackCheck(e *Engine, flags Flags) error {
	if flags.has(FlagVerifyCleanStack) && e.Stack.Depth() != 1 {
		return execErr(ErrCleanStack, "stack left with %d elements", e.Stack.Depth())
	}
	return nil
}

func isPushOnly(prog []byte) bool {
	pc := 0
	for pc < len(prog) {
		op, _, next, err := nextOp(prog, pc)
		if err != nil || !isPushOpcode(op) {
			if err == nil && op >= OP_1NEGATE && op <= OP_16 {
				pc = next
				continue
			}
			return false
		}
		pc = next
	}
	return true
}

// topOfStackBeforeExec re-parses scriptSig to recover its final push
// (the serialized redeem script), since that is simpler and cheaper
// than threading extra bookkeeping through Engine.Run for the common
// push-only case P2SH requires anyway.
func topOfStackBeforeExec(scriptSig []byte) ([]byte, error) {
	var last []byte
	pc := 0
	for pc < len(scriptSig) {
		op, data, next, err := nextOp(scriptSig, pc)
		if err != nil {
			return nil, err
		}
		if isPushOpcode(op) {
			last = data
		} else if op == OP_1NEGATE || (op >= OP_1 && op <= OP_16) {
			last = consensus.EncodeScriptNum(int64(scriptNumFor(op)))
		}
		pc = next
	}
	if last == nil {
		return nil, execErr(ErrInvalidStackOperation, "empty P2SH scriptSig")
	}
	return last, nil
}

func scriptNumFor(op Opcode) int {
	if op == OP_1NEGATE {
		return -1
	}
	return int(op - OP_1 + 1)
}

func verifyWitnessProgram(version int, program []byte, witness [][]byte, checker SigChecker, flags Flags) error {
	switch version {
	case 0:
		return verifyWitnessV0(program, witness, checker, flags)
	case 1:
		if len(program) == 32 {
			return verifyTaprootWitness(program, witness, checker, flags)
		}
		fallthrough
	default:
		if flags.has(FlagVerifyDiscourageUpgradableWitnessProgram) {
			return execErr(ErrDiscourageUpgradableWitnessProgram, "unknown witness version %d", version)
		}
		return nil
	}
}

func verifyWitnessV0(program []byte, witness [][]byte, checker SigChecker, flags Flags) error {
	engine := NewEngine(checker, SigVersionWitnessV0, flags)
	switch len(program) {
	case 20:
		if len(witness) != 2 {
			return execErr(ErrWitnessProgramMismatch, "P2WPKH witness must have 2 items")
		}
		h := consensus.DefaultHasher.Hash160(witness[1])
		if !bytes.Equal(h[:], program) {
			return execErr(ErrWitnessProgramMismatch, "P2WPKH pubkey does not match program")
		}
		pkScript := append([]byte{byte(OP_DUP), byte(OP_HASH160), 20}, program...)
		pkScript = append(pkScript, byte(OP_EQUALVERIFY), byte(OP_CHECKSIG))
		engine.Stack.Push(witness[0])
		engine.Stack.Push(witness[1])
		if err := engine.Run(pkScript); err != nil {
			return err
		}
	case 32:
		if len(witness) == 0 {
			return execErr(ErrWitnessProgramEmpty, "P2WSH witness is empty")
		}
		script := witness[len(witness)-1]
		h := consensus.DefaultHasher.Sha256(script)
		if !bytes.Equal(h[:], program) {
			return execErr(ErrWitnessProgramMismatch, "witness script does not match program")
		}
		for _, item := range witness[:len(witness)-1] {
			engine.Stack.Push(item)
		}
		if err := engine.Run(script); err != nil {
			return err
		}
	default:
		return execErr(ErrWitnessProgramWrongLength, "witness program must be 20 or 32 bytes")
	}
	if err := engine.Success(); err != nil {
		return err
	}
	return cleanStackCheck(engine, flags)
}

func verifyTaprootWitness(outputKey []byte, witness [][]byte, checker SigChecker, flags Flags) error {
	stack, annex := SplitAnnex(witness)
	if annex != nil && flags.has(FlagVerifyDiscourageUpgradableWitnessProgram) {
		return execErr(ErrTaprootAnnexUnexpected, "annex present")
	}

	if len(stack) == 1 {
		return VerifyTaprootKeyPath(stack[0], outputKey, checker)
	}

	if len(stack) < 2 {
		return execErr(ErrWitnessProgramEmpty, "script-path witness too short")
	}
	controlBlock := stack[len(stack)-1]
	leafScript := stack[len(stack)-2]
	stack = stack[:len(stack)-2]

	cb, err := ParseControlBlock(controlBlock)
	if err != nil {
		return err
	}
	if cb.LeafVersion != tapscriptLeafVersion && flags.has(FlagVerifyDiscourageUpgradableTaprootVersion) {
		return execErr(ErrDiscourageUpgradableTaprootVersion, "unknown leaf version 0x%02x", cb.LeafVersion)
	}
	if err := VerifyTaprootScriptPath(cb, leafScript, outputKey); err != nil {
		return err
	}
	if cb.LeafVersion != tapscriptLeafVersion {
		return nil // unknown leaf version: execution undefined, succeeds per BIP-342
	}

	engine := NewEngine(checker, SigVersionTapscript, flags)
	for _, item := range stack {
		engine.Stack.Push(item)
	}
	if err := engine.Run(leafScript); err != nil {
		return err
	}
	return engine.Success()
}
