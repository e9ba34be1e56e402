package script

import "github.com/coredag/fullnode/consensus"

func (e *Engine) scriptCode(prog []byte) []byte {
	if e.codeSepPos == 0xFFFFFFFF || int(e.codeSepPos) >= len(prog) {
		return prog
	}
	return prog[e.codeSepPos+1:]
}

func (e *Engine) opCheckSig(op Opcode, prog []byte) error {
	pubKey, err := e.Stack.Pop()
	if err != nil {
		return err
	}
	sig, err := e.Stack.Pop()
	if err != nil {
		return err
	}

	ok, err := e.verifyECDSA(sig, pubKey, prog)
	if err != nil {
		return err
	}
	if op == OP_CHECKSIGVERIFY {
		if !ok {
			return execErr(ErrCheckSigVerify, "OP_CHECKSIGVERIFY failed")
		}
		return nil
	}
	e.Stack.Push(BoolBytes(ok))
	return nil
}

// verifyECDSA applies the static encoding checks, delegates to the
// checker for the curve-level verification, and enforces NULLFAIL
// (a failing non-empty signature is only acceptable if NULLFAIL is
// not being enforced).
func (e *Engine) verifyECDSA(sig, pubKey, prog []byte) (bool, error) {
	if err := checkSignatureEncoding(sig, e.flags); err != nil {
		return false, err
	}
	if e.flags.has(FlagVerifyStrictEnc) && len(pubKey) > 0 {
		if !isValidPubKeyEncoding(pubKey) {
			return false, execErr(ErrPubKeyType, "invalid public key encoding")
		}
	}
	if len(sig) == 0 {
		return false, nil
	}
	ok, err := e.checker.CheckECDSASig(sig, pubKey, e.scriptCode(prog), e.sigVersion)
	if err != nil {
		return false, err
	}
	if !ok && e.flags.has(FlagVerifyNullFail) {
		return false, execErr(ErrSigNullFail, "non-empty signature failed to verify")
	}
	return ok, nil
}

func isValidPubKeyEncoding(pk []byte) bool {
	switch {
	case len(pk) == 33 && (pk[0] == 0x02 || pk[0] == 0x03):
		return true
	case len(pk) == 65 && pk[0] == 0x04:
		return true
	default:
		return false
	}
}

func (e *Engine) opCheckMultisig(op Opcode, prog []byte) error {
	if e.sigVersion == SigVersionTapscript {
		return execErr(ErrCheckMultisigInTapscript, "OP_CHECKMULTISIG banned in tapscript")
	}

	nKeys, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
	if err != nil {
		return err
	}
	if nKeys < 0 || nKeys > 20 {
		return execErr(ErrPubKeyCount, "pubkey count %d out of range", nKeys)
	}
	e.opCount += int(nKeys)
	if e.opCount > MaxOpsPerScript {
		return execErr(ErrOpCount, "op count exceeds %d", MaxOpsPerScript)
	}
	pubKeys := make([][]byte, nKeys)
	for i := int64(nKeys) - 1; i >= 0; i-- {
		v, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		pubKeys[i] = v
	}

	nSigs, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
	if err != nil {
		return err
	}
	if nSigs < 0 || nSigs > nKeys {
		return execErr(ErrSigCount, "sig count %d out of range", nSigs)
	}
	sigs := make([][]byte, nSigs)
	for i := int64(nSigs) - 1; i >= 0; i-- {
		v, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		sigs[i] = v
	}

	// The historical off-by-one dummy element consumed by
	// OP_CHECKMULTISIG; NULLDUMMY requires it to be empty.
	dummy, err := e.Stack.Pop()
	if err != nil {
		return err
	}
	if e.flags.has(FlagVerifyNullDummy) && len(dummy) != 0 {
		return execErr(ErrSigNullFail, "multisig dummy element must be empty")
	}

	sigIdx, keyIdx := 0, 0
	allOK := true
	for sigIdx < len(sigs) {
		if keyIdx >= len(pubKeys) {
			allOK = false
			break
		}
		ok, err := e.verifyECDSA(sigs[sigIdx], pubKeys[keyIdx], prog)
		if err != nil {
			if e.flags.has(FlagVerifyNullFail) {
				return err
			}
			ok = false
		}
		if ok {
			sigIdx++
		}
		keyIdx++
		if len(sigs)-sigIdx > len(pubKeys)-keyIdx {
			allOK = false
			break
		}
	}
	if sigIdx != len(sigs) {
		allOK = false
	}

	if op == OP_CHECKMULTISIGVERIFY {
		if !allOK {
			return execErr(ErrCheckSigVerify, "OP_CHECKMULTISIGVERIFY failed")
		}
		return nil
	}
	e.Stack.Push(BoolBytes(allOK))
	return nil
}

func (e *Engine) opCheckSigAdd(prog []byte) error {
	if e.sigVersion != SigVersionTapscript {
		return execErr(ErrBadOpcode, "OP_CHECKSIGADD only valid in tapscript")
	}
	pubKey, err := e.Stack.Pop()
	if err != nil {
		return err
	}
	n, err := popScriptNum(&e.Stack, false, maxNumSize)
	if err != nil {
		return err
	}
	sig, err := e.Stack.Pop()
	if err != nil {
		return err
	}
	ok, err := e.verifySchnorrTapscript(sig, pubKey, prog)
	if err != nil {
		return err
	}
	if ok {
		n++
	}
	pushScriptNum(&e.Stack, n)
	return nil
}

func (e *Engine) verifySchnorrTapscript(sig, pubKey []byte, prog []byte) (bool, error) {
	if len(pubKey) == 0 {
		return false, execErr(ErrPubKeySize, "empty public key in tapscript")
	}
	if len(pubKey) != 32 {
		// An unrecognized public key size is reserved for future key
		// types: BIP-342 treats it as an automatic success so new
		// pubkey formats can be introduced without a script-level
		// soft fork, unless the discouragement flag opts out of it.
		if e.flags.has(FlagVerifyDiscourageUpgradableTaprootVersion) {
			return false, execErr(ErrPubKeySize, "unknown pubkey size in tapscript")
		}
		return true, nil
	}
	if len(sig) == 0 {
		return false, nil
	}
	if len(sig) != 64 && len(sig) != 65 {
		return false, execErr(ErrSchnorrSigSize, "schnorr signature must be 64 or 65 bytes")
	}
	leafHash, err := e.tapLeafHash(prog)
	if err != nil {
		return false, err
	}
	ok, err := e.checker.CheckSchnorrSig(sig, pubKey, e.sigVersion, leafHash, e.codeSepPos)
	if err != nil {
		return false, err
	}
	if !ok && e.flags.has(FlagVerifyNullFail) {
		return false, execErr(ErrSchnorrSig, "signature failed to verify")
	}
	return ok, nil
}

func (e *Engine) tapLeafHash(prog []byte) ([32]byte, error) {
	h := consensus.DefaultHasher
	return consensus.TaggedHash(h, "TapLeaf", tapLeafPayload(prog)), nil
}

func tapLeafPayload(prog []byte) []byte {
	var buf []byte
	buf = append(buf, byte(tapscriptLeafVersion))
	buf = consensus.PutVarInt(buf, uint64(len(prog)))
	buf = append(buf, prog...)
	return buf
}

const tapscriptLeafVersion = 0xc0

// opCheckLockTimeVerify implements BIP-65: peeks (does not pop) the
// top stack element as a locktime and fails unless the spending
// transaction's own nLockTime satisfies it.
func (e *Engine) opCheckLockTimeVerify() error {
	if !e.flags.has(FlagVerifyCheckLockTimeVerify) {
		return nil // treated as OP_NOP2 when the soft fork isn't active
	}
	v, err := e.Stack.Peek(0)
	if err != nil {
		return err
	}
	n, err := consensus.DecodeScriptNum(v, e.flags.has(FlagVerifyMinimalData), maxCLTVNumSize)
	if err != nil {
		return execErr(ErrNumberOverflow, "%v", err)
	}
	if n < 0 {
		return execErr(ErrNegativeLockTime, "CHECKLOCKTIMEVERIFY argument is negative")
	}
	if !e.checker.CheckLockTime(n) {
		return execErr(ErrUnsatisfiedLockTime, "locktime requirement not satisfied")
	}
	return nil
}

// opCheckSequenceVerify implements BIP-112: peeks the top stack
// element as a relative-locktime-encoded sequence and fails unless
// the current input's own nSequence satisfies it.
func (e *Engine) opCheckSequenceVerify() error {
	if !e.flags.has(FlagVerifyCheckSequenceVerify) {
		return nil // treated as OP_NOP3 when the soft fork isn't active
	}
	v, err := e.Stack.Peek(0)
	if err != nil {
		return err
	}
	n, err := consensus.DecodeScriptNum(v, e.flags.has(FlagVerifyMinimalData), maxCLTVNumSize)
	if err != nil {
		return execErr(ErrNumberOverflow, "%v", err)
	}
	if n < 0 {
		return execErr(ErrNegativeLockTime, "CHECKSEQUENCEVERIFY argument is negative")
	}
	if n&int64(consensus.SequenceLockTimeDisableFlag) != 0 {
		return nil
	}
	if !e.checker.CheckSequence(n) {
		return execErr(ErrUnsatisfiedLockTime, "relative locktime requirement not satisfied")
	}
	return nil
}
