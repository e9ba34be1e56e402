package consensus

import (
	"math/big"
	"testing"
)

func TestTargetFromBitsRoundTripsThroughBitsFromTarget(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff, 0x1903a30c}
	for _, bits := range cases {
		target := TargetFromBits(bits)
		got := BitsFromTarget(target)
		if got != bits {
			t.Errorf("bits=%#x: round trip got %#x", bits, got)
		}
	}
}

func TestBitsFromTargetNonPositive(t *testing.T) {
	if got := BitsFromTarget(big.NewInt(0)); got != 0 {
		t.Fatalf("BitsFromTarget(0) = %#x, want 0", got)
	}
}

func TestValidatePoWAcceptsAndRejects(t *testing.T) {
	// An easy target (0x207fffff) admits roughly half of all header
	// hashes; this header's hash is below it.
	h := BlockHeader{Version: 1, Bits: 0x207fffff}
	if err := ValidatePoW(DefaultHasher, h); err != nil {
		t.Fatalf("expected easy-target header to pass: %v", err)
	}

	// An unreachably hard target should fail.
	hard := BlockHeader{Version: 1, Bits: 0x03000001}
	if err := ValidatePoW(DefaultHasher, hard); err == nil {
		t.Fatal("expected hard-target header to fail PoW")
	}
}

func TestWorkFromBitsMonotonicWithDifficulty(t *testing.T) {
	easy := WorkFromBits(0x207fffff)
	harder := WorkFromBits(0x1d00ffff)
	if harder.Compare(easy) <= 0 {
		t.Fatal("a smaller target (harder difficulty) must yield more work")
	}
}

func TestAddWorkSaturatesAtCeiling(t *testing.T) {
	var max Work
	for i := range max {
		max[i] = 0xff
	}
	sum := AddWork(max, WorkFromBits(0x1d00ffff))
	if sum != max {
		t.Fatalf("AddWork should saturate at the 256-bit max, got %x", sum)
	}
}

func TestNextWorkRequiredRepeatsWithinInterval(t *testing.T) {
	headers := make([]BlockHeader, 5)
	for i := range headers {
		headers[i] = BlockHeader{Bits: 0x1d00ffff, Timestamp: Timestamp(1000 + i*600)}
	}
	bits, err := NextWorkRequired(headers, Height(4))
	if err != nil {
		t.Fatalf("NextWorkRequired: %v", err)
	}
	if bits != headers[len(headers)-1].Bits {
		t.Fatalf("non-boundary height should repeat tip bits: got %#x", bits)
	}
}

func TestNextWorkRequiredAtBoundaryClampsToQuarterSpan(t *testing.T) {
	// Blocks arriving four times faster than target: actualTimespan should
	// clamp to TargetTimespan/4, producing a harder (smaller) target than
	// the tip's, never a null result.
	headers := make([]BlockHeader, DifficultyInterval+1)
	for i := range headers {
		headers[i] = BlockHeader{Bits: 0x1d00ffff, Timestamp: Timestamp(i * (TargetBlockTime / 4))}
	}
	bits, err := NextWorkRequired(headers, Height(DifficultyInterval-1))
	if err != nil {
		t.Fatalf("NextWorkRequired: %v", err)
	}
	if TargetFromBits(bits).Cmp(TargetFromBits(0x1d00ffff)) >= 0 {
		t.Fatalf("fast blocks should tighten (shrink) the target, got bits %#x", bits)
	}
}

func TestNextWorkRequiredInsufficientHistory(t *testing.T) {
	headers := []BlockHeader{{Bits: 0x1d00ffff}}
	if _, err := NextWorkRequired(headers, Height(DifficultyInterval-1)); err == nil {
		t.Fatal("expected error for insufficient ancestor headers at a retarget boundary")
	}
}

func TestMedianPastTimestamp(t *testing.T) {
	headers := []BlockHeader{
		{Timestamp: 100}, {Timestamp: 300}, {Timestamp: 200},
		{Timestamp: 500}, {Timestamp: 400},
	}
	got := MedianPastTimestamp(headers)
	if got != 300 {
		t.Fatalf("median = %d, want 300", got)
	}
}

func TestMedianPastTimestampEmpty(t *testing.T) {
	if got := MedianPastTimestamp(nil); got != 0 {
		t.Fatalf("median of empty history = %d, want 0", got)
	}
}
