package script

import "fmt"

// ScriptErr enumerates the ways script execution can fail.
type ScriptErr string

const (
	ErrStackUnderflow     ScriptErr = "SCRIPT_ERR_STACK_UNDERFLOW"
	ErrStackSize          ScriptErr = "SCRIPT_ERR_STACK_SIZE"
	ErrPushSize           ScriptErr = "SCRIPT_ERR_PUSH_SIZE"
	ErrOpCount            ScriptErr = "SCRIPT_ERR_OP_COUNT"
	ErrDisabledOpcode     ScriptErr = "SCRIPT_ERR_DISABLED_OPCODE"
	ErrBadOpcode          ScriptErr = "SCRIPT_ERR_BAD_OPCODE"
	ErrUnbalancedConditional ScriptErr = "SCRIPT_ERR_UNBALANCED_CONDITIONAL"
	ErrVerify             ScriptErr = "SCRIPT_ERR_VERIFY"
	ErrEqualVerify        ScriptErr = "SCRIPT_ERR_EQUALVERIFY"
	ErrNumEqualVerify     ScriptErr = "SCRIPT_ERR_NUMEQUALVERIFY"
	ErrCheckSigVerify     ScriptErr = "SCRIPT_ERR_CHECKSIGVERIFY"
	ErrOpReturn           ScriptErr = "SCRIPT_ERR_OP_RETURN"
	ErrEvalFalse          ScriptErr = "SCRIPT_ERR_EVAL_FALSE"
	ErrInvalidStackOperation ScriptErr = "SCRIPT_ERR_INVALID_STACK_OPERATION"
	ErrNumberOverflow     ScriptErr = "SCRIPT_ERR_NUMBER_OVERFLOW"
	ErrMinimalData        ScriptErr = "SCRIPT_ERR_MINIMALDATA"
	ErrSigDER             ScriptErr = "SCRIPT_ERR_SIG_DER"
	ErrSigHighS           ScriptErr = "SCRIPT_ERR_SIG_HIGH_S"
	ErrSigHashType        ScriptErr = "SCRIPT_ERR_SIG_HASHTYPE"
	ErrPubKeyType         ScriptErr = "SCRIPT_ERR_PUBKEYTYPE"
	ErrMinimalIf          ScriptErr = "SCRIPT_ERR_MINIMALIF"
	ErrSigNullFail        ScriptErr = "SCRIPT_ERR_SIG_NULLFAIL"
	ErrCleanStack         ScriptErr = "SCRIPT_ERR_CLEANSTACK"
	ErrWitnessProgramWrongLength ScriptErr = "SCRIPT_ERR_WITNESS_PROGRAM_WRONG_LENGTH"
	ErrWitnessProgramEmpty       ScriptErr = "SCRIPT_ERR_WITNESS_PROGRAM_EMPTY"
	ErrWitnessProgramMismatch    ScriptErr = "SCRIPT_ERR_WITNESS_PROGRAM_MISMATCH"
	ErrWitnessUnexpected  ScriptErr = "SCRIPT_ERR_WITNESS_UNEXPECTED"
	ErrWitnessPubkeyType  ScriptErr = "SCRIPT_ERR_WITNESS_PUBKEYTYPE"
	ErrTaprootControlBlock ScriptErr = "SCRIPT_ERR_TAPROOT_CONTROL_BLOCK"
	ErrTaprootAnnexUnexpected ScriptErr = "SCRIPT_ERR_TAPROOT_ANNEX"
	ErrDiscourageUpgradableWitnessProgram ScriptErr = "SCRIPT_ERR_DISCOURAGE_UPGRADABLE_WITNESS_PROGRAM"
	ErrDiscourageUpgradableTaprootVersion ScriptErr = "SCRIPT_ERR_DISCOURAGE_UPGRADABLE_TAPROOT_VERSION"
	ErrOpSuccess          ScriptErr = "SCRIPT_ERR_OP_SUCCESS"
	ErrSchnorrSigSize     ScriptErr = "SCRIPT_ERR_SCHNORR_SIG_SIZE"
	ErrSchnorrSigHashType ScriptErr = "SCRIPT_ERR_SCHNORR_SIG_HASHTYPE"
	ErrSchnorrSig         ScriptErr = "SCRIPT_ERR_SCHNORR_SIG"
	ErrPubKeySize         ScriptErr = "SCRIPT_ERR_PUBKEY_SIZE"
	ErrCheckMultisigInTapscript ScriptErr = "SCRIPT_ERR_CHECKMULTISIG_NOT_AVAILABLE_IN_TAPSCRIPT"
	ErrSigCount           ScriptErr = "SCRIPT_ERR_SIG_COUNT"
	ErrPubKeyCount        ScriptErr = "SCRIPT_ERR_PUBKEY_COUNT"
	ErrNegativeLockTime   ScriptErr = "SCRIPT_ERR_NEGATIVE_LOCKTIME"
	ErrUnsatisfiedLockTime ScriptErr = "SCRIPT_ERR_UNSATISFIED_LOCKTIME"
)

// ExecError pairs a ScriptErr with a human-readable message describing
// the failure.
type ExecError struct {
	Code ScriptErr
	Msg  string
}

func (e *ExecError) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func execErr(code ScriptErr, format string, args ...any) error {
	return &ExecError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
