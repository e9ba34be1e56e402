package consensus

import (
	"math/big"
)

const (
	// DifficultyInterval is the number of blocks between retargets.
	DifficultyInterval = 2016
	// TargetBlockTime is the intended spacing between blocks, in seconds.
	TargetBlockTime = 600
	// TargetTimespan is the intended duration of one difficulty interval.
	TargetTimespan = DifficultyInterval * TargetBlockTime
	// MaxFutureDrift bounds how far into the future a header's
	// timestamp may sit relative to the local clock.
	MaxFutureDrift = 2 * 60 * 60
	// MedianTimeSpan is the number of preceding blocks used to compute
	// the median-time-past rule.
	MedianTimeSpan = 11
)

// TargetFromBits decodes Bitcoin's compact "nBits" target encoding
// into a 256-bit unsigned integer.
func TargetFromBits(bits uint32) *big.Int {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff
	target := new(big.Int).SetUint64(uint64(mantissa))
	if exponent <= 3 {
		return target.Rsh(target, uint(8*(3-exponent)))
	}
	return target.Lsh(target, uint(8*(exponent-3)))
}

// BitsFromTarget encodes a target back into compact nBits form.
func BitsFromTarget(target *big.Int) uint32 {
	if target.Sign() <= 0 {
		return 0
	}
	b := target.Bytes()
	exponent := uint32(len(b))
	var mantissa uint32
	switch {
	case len(b) >= 3:
		mantissa = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	case len(b) == 2:
		mantissa = uint32(b[0])<<16 | uint32(b[1])<<8
	case len(b) == 1:
		mantissa = uint32(b[0]) << 16
	}
	// If the high bit of the mantissa is set it would be interpreted
	// as a sign bit; shift right one byte and bump the exponent.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}
	return exponent<<24 | mantissa
}

// ValidatePoW checks sha256(sha256(header)) < target_from_bits(header.Bits).
func ValidatePoW(h Hasher, header BlockHeader) error {
	hash, err := BlockHash(h, header)
	if err != nil {
		return err
	}
	target := TargetFromBits(header.Bits)
	hashInt := hashAsBigInt(hash)
	if hashInt.Cmp(target) >= 0 {
		return newErr(ErrBlockPow, "hash %s does not meet target", hash)
	}
	return nil
}

// hashAsBigInt interprets a Hash256 as an unsigned big-endian integer
// after reversing to the natural (most-significant-byte-first) byte
// order block hashes are compared in.
func hashAsBigInt(h Hash256) *big.Int {
	rev := make([]byte, 32)
	for i := 0; i < 32; i++ {
		rev[i] = h[31-i]
	}
	return new(big.Int).SetBytes(rev)
}

// WorkFromBits returns the chain-work contribution of a single block
// with the given difficulty bits: floor(2^256 / (target + 1)).
func WorkFromBits(bits uint32) Work {
	target := TargetFromBits(bits)
	if target.Sign() <= 0 {
		return Work{}
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	twoTo256 := new(big.Int).Lsh(big.NewInt(1), 256)
	work := new(big.Int).Quo(twoTo256, denom)
	return bigToWork(work)
}

// AddWork returns a+b as 256-bit cumulative work, saturating at the
// 256-bit ceiling rather than overflowing (chain work never realistically
// approaches this bound).
func AddWork(a, b Work) Work {
	sum := new(big.Int).Add(workToBig(a), workToBig(b))
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if sum.Cmp(max) > 0 {
		sum = max
	}
	return bigToWork(sum)
}

func workToBig(w Work) *big.Int {
	return new(big.Int).SetBytes(w[:])
}

func bigToWork(x *big.Int) Work {
	var out Work
	b := x.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}

// NextWorkRequired computes the retarget for the block following the
// chain described by ancestorHeaders (oldest to newest, ending at the
// current tip), given the tip's height. Heights that are not a
// retarget boundary simply repeat the tip's bits.
func NextWorkRequired(ancestorHeaders []BlockHeader, tipHeight Height) (uint32, error) {
	if len(ancestorHeaders) == 0 {
		return 0, newErr(ErrBlockParse, "retarget: no ancestor headers")
	}
	tip := ancestorHeaders[len(ancestorHeaders)-1]
	nextHeight := uint32(tipHeight) + 1
	if nextHeight%DifficultyInterval != 0 {
		return tip.Bits, nil
	}

	firstHeightInInterval := nextHeight - DifficultyInterval
	if uint32(len(ancestorHeaders)) < nextHeight-firstHeightInInterval {
		return 0, newErr(ErrBlockParse, "retarget: insufficient ancestor headers")
	}
	first := ancestorHeaders[len(ancestorHeaders)-DifficultyInterval]

	actualTimespan := int64(tip.Timestamp) - int64(first.Timestamp)
	if actualTimespan < TargetTimespan/4 {
		actualTimespan = TargetTimespan / 4
	}
	if actualTimespan > TargetTimespan*4 {
		actualTimespan = TargetTimespan * 4
	}

	oldTarget := TargetFromBits(tip.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(TargetTimespan))

	powLimit := TargetFromBits(0x1d00ffff)
	if newTarget.Cmp(powLimit) > 0 {
		newTarget = powLimit
	}
	return BitsFromTarget(newTarget), nil
}

// MedianPastTimestamp returns the median timestamp of the most recent
// MedianTimeSpan ancestors (or fewer, if the chain is shorter), used
// to enforce the median-time-past rule.
func MedianPastTimestamp(ancestorHeaders []BlockHeader) Timestamp {
	n := len(ancestorHeaders)
	if n == 0 {
		return 0
	}
	start := 0
	if n > MedianTimeSpan {
		start = n - MedianTimeSpan
	}
	window := append([]Timestamp(nil), timestampsOf(ancestorHeaders[start:])...)
	insertionSort(window)
	return window[len(window)/2]
}

func timestampsOf(hs []BlockHeader) []Timestamp {
	out := make([]Timestamp, len(hs))
	for i, h := range hs {
		out[i] = h.Timestamp
	}
	return out
}

func insertionSort(s []Timestamp) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
