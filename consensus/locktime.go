package consensus

// SequenceLockTimeGranularity is the bit-shift applied to a
// time-based BIP-68 sequence value to convert it to seconds
// (512-second units).
const SequenceLockTimeGranularity = 9

// LocktimeSatisfied implements Bitcoin's absolute nLockTime rule: if
// every input disables locktime (Sequence == SequenceFinal) the
// transaction is final regardless of LockTime. Otherwise LockTime is
// compared against height or timestamp depending on which side of
// LocktimeThreshold it falls.
func LocktimeSatisfied(tx *Transaction, height Height, medianTime Timestamp) bool {
	allFinal := true
	for _, in := range tx.Inputs {
		if in.Sequence != SequenceFinal {
			allFinal = false
			break
		}
	}
	if allFinal {
		return true
	}
	if tx.LockTime < LocktimeThreshold {
		return uint32(tx.LockTime) <= uint32(height)
	}
	return tx.LockTime <= uint32(medianTime)
}

// RelativeLockSatisfied implements BIP-68: given an input's sequence
// field, the height/median-time-past of the block that confirmed its
// prevout, and the height/median-time-past the spending transaction
// would be confirmed at, report whether the relative lock is
// satisfied. Callers must only invoke this for tx.Version >= 2 inputs;
// version-1 transactions ignore BIP-68 entirely.
func RelativeLockSatisfied(sequence uint32, prevoutHeight Height, prevoutMTP Timestamp, currentHeight Height, currentMTP Timestamp) bool {
	if sequence&SequenceLockTimeDisableFlag != 0 {
		return true
	}
	lockValue := sequence & SequenceLockTimeMask
	if sequence&SequenceLockTimeTypeFlag != 0 {
		requiredTime := Timestamp(uint32(prevoutMTP) + uint32(lockValue)<<SequenceLockTimeGranularity)
		return currentMTP >= requiredTime
	}
	requiredHeight := Height(uint32(prevoutHeight) + uint32(lockValue))
	return currentHeight >= requiredHeight
}
