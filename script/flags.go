package script

// Flags are the per-script verification policy/consensus switches.
// Historically these were introduced one soft fork at a time; keeping
// them as independent bits lets tests exercise pre-activation behavior.
type Flags uint32

const (
	FlagVerifyP2SH Flags = 1 << iota
	FlagVerifyStrictEnc
	FlagVerifyDERSig
	FlagVerifyLowS
	FlagVerifyNullDummy
	FlagVerifyCheckLockTimeVerify
	FlagVerifyCheckSequenceVerify
	FlagVerifyWitness
	FlagVerifyDiscourageUpgradableWitnessProgram
	FlagVerifyMinimalIf
	FlagVerifyNullFail
	FlagVerifyCleanStack
	FlagVerifyMinimalData
	FlagVerifyTaproot
	FlagVerifyDiscourageUpgradableTaprootVersion
	FlagVerifyDiscourageOpSuccess
)

// StandardFlags is the full set of rules active on mainnet today (all
// soft forks through taproot).
const StandardFlags = FlagVerifyP2SH | FlagVerifyStrictEnc | FlagVerifyDERSig |
	FlagVerifyLowS | FlagVerifyNullDummy | FlagVerifyCheckLockTimeVerify |
	FlagVerifyCheckSequenceVerify | FlagVerifyWitness | FlagVerifyMinimalIf |
	FlagVerifyNullFail | FlagVerifyCleanStack | FlagVerifyMinimalData |
	FlagVerifyTaproot

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// SigVersion identifies which sighash/verification rules apply to the
// script currently executing.
type SigVersion int

const (
	SigVersionBase SigVersion = iota
	SigVersionWitnessV0
	SigVersionTapscript
	SigVersionTaproot // key-path spend, no script execution
)
