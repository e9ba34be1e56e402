package script

import (
	"github.com/coredag/fullnode/consensus"
	"github.com/coredag/fullnode/consensus/ecc"
)

// TxSigChecker is the production SigChecker: it computes the correct
// sighash for whichever SigVersion the engine is executing under and
// verifies against real transaction/prevout data, optionally through a
// SigCache to skip repeat curve operations on cache hits.
type TxSigChecker struct {
	Hasher      consensus.Hasher
	Tx          *consensus.Transaction
	InputIndex  int
	PrevOuts    []consensus.PrevOutput
	Amount      consensus.Satoshi
	Cache       *SigCache
}

func (c *TxSigChecker) hasher() consensus.Hasher {
	if c.Hasher != nil {
		return c.Hasher
	}
	return consensus.DefaultHasher
}

func (c *TxSigChecker) CheckECDSASig(sig, pubKey, scriptCode []byte, sigVersion SigVersion) (bool, error) {
	if len(sig) == 0 {
		return false, nil
	}
	hashType := consensus.SigHashType(sig[len(sig)-1])
	der := sig[:len(sig)-1]

	var digest consensus.Hash256
	var err error
	switch sigVersion {
	case SigVersionWitnessV0:
		digest, err = consensus.SegwitV0SigHash(c.hasher(), c.Tx, c.InputIndex, scriptCode, c.Amount, hashType)
	default:
		digest, err = consensus.LegacySigHash(c.hasher(), c.Tx, c.InputIndex, scriptCode, hashType)
	}
	if err != nil {
		return false, err
	}

	if c.Cache != nil {
		if ok, hit := c.Cache.Exists(digest, der, pubKey); hit {
			return ok, nil
		}
	}

	ecPub, err := ecc.ParseECDSAPubKey(pubKey)
	if err != nil {
		return false, nil
	}
	ok, err := ecc.VerifyECDSA(digest[:], der, ecPub)
	if err != nil {
		ok = false
	}
	if c.Cache != nil && ok {
		c.Cache.Add(digest, der, pubKey)
	}
	return ok, nil
}

func (c *TxSigChecker) CheckSchnorrSig(sig, pubKey []byte, sigVersion SigVersion, leafHash [32]byte, codeSepPos uint32) (bool, error) {
	hashType := consensus.SigHashDefault
	msg := sig
	if len(sig) == 65 {
		hashType = consensus.SigHashType(sig[64])
		msg = sig[:64]
	}

	extFlag := consensus.TaprootExtFlagKeyPath
	if sigVersion == SigVersionTapscript {
		extFlag = consensus.TaprootExtFlagScriptPath
	}

	digest, err := consensus.TaprootSigHash(c.hasher(), c.Tx, consensus.TaprootSigHashParams{
		PrevOuts:    c.PrevOuts,
		InputIndex:  c.InputIndex,
		HashType:    hashType,
		ExtFlag:     extFlag,
		TapLeafHash: consensus.Hash256(leafHash),
		CodeSepPos:  codeSepPos,
	})
	if err != nil {
		return false, err
	}

	ecPub, err := ecc.ParseXOnlyPubKey(pubKey)
	if err != nil {
		return false, nil
	}
	ok, err := ecc.VerifySchnorr(digest[:], msg, ecPub)
	if err != nil {
		ok = false
	}
	return ok, nil
}

// CheckLockTime implements BIP-65: the argument and the transaction's
// own nLockTime must be on the same side of LocktimeThreshold (both
// height-based or both time-based), the argument must not exceed
// nLockTime, and the spending input must not have disabled locktime.
func (c *TxSigChecker) CheckLockTime(n int64) bool {
	if n < 0 {
		return false
	}
	txLock := int64(c.Tx.LockTime)
	if (txLock < consensus.LocktimeThreshold) != (n < consensus.LocktimeThreshold) {
		return false
	}
	if n > txLock {
		return false
	}
	return c.Tx.Inputs[c.InputIndex].Sequence != consensus.SequenceFinal
}

func (c *TxSigChecker) CheckSequence(n int64) bool {
	seq := c.Tx.Inputs[c.InputIndex].Sequence
	if seq&consensus.SequenceLockTimeDisableFlag != 0 {
		return true
	}
	if c.Tx.Version < 2 {
		return false
	}
	txType := int64(seq) & consensus.SequenceLockTimeTypeFlag
	nType := n & consensus.SequenceLockTimeTypeFlag
	if txType != nType {
		return false
	}
	return n&consensus.SequenceLockTimeMask <= int64(seq)&consensus.SequenceLockTimeMask
}
