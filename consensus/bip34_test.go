package consensus

import "testing"

func TestEncodeDecodeScriptNumRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, 128, -128, 32767, 1 << 20, -(1 << 20)}
	for _, n := range cases {
		enc := EncodeScriptNum(n)
		got, err := DecodeScriptNum(enc, true, 8)
		if err != nil {
			t.Fatalf("n=%d: DecodeScriptNum: %v", n, err)
		}
		if got != n {
			t.Errorf("n=%d: round trip got %d (encoded %x)", n, got, enc)
		}
	}
}

func TestEncodeScriptNumZeroIsEmpty(t *testing.T) {
	if enc := EncodeScriptNum(0); enc != nil {
		t.Fatalf("EncodeScriptNum(0) = %x, want empty", enc)
	}
}

func TestDecodeScriptNumRejectsNonMinimal(t *testing.T) {
	// 0x00 0x80 is a non-minimal encoding of 0 (minimal form is empty).
	if _, err := DecodeScriptNum([]byte{0x00, 0x80}, true, 8); err == nil {
		t.Fatal("expected non-minimal encoding to be rejected")
	}
	if _, err := DecodeScriptNum([]byte{0x00, 0x80}, false, 8); err != nil {
		t.Fatalf("non-minimal encoding should be accepted when not required: %v", err)
	}
}

func TestDecodeScriptNumTooLong(t *testing.T) {
	if _, err := DecodeScriptNum(make([]byte, 9), true, 8); err == nil {
		t.Fatal("expected error for script number exceeding maxBytes")
	}
}

func TestBIP34HeightRoundTrip(t *testing.T) {
	for _, h := range []Height{0, 1, 227931, 1_000_000, 4_000_000} {
		script := EncodeBIP34Height(h)
		got, err := ExtractBIP34Height(script)
		if err != nil {
			t.Fatalf("height=%d: ExtractBIP34Height: %v", h, err)
		}
		if got != h {
			t.Errorf("height=%d: round trip got %d (script %x)", h, got, script)
		}
	}
}

func TestExtractBIP34HeightRejectsEmpty(t *testing.T) {
	if _, err := ExtractBIP34Height(nil); err == nil {
		t.Fatal("expected error for empty scriptSig")
	}
}

func TestExtractBIP34HeightRejectsOversizedPush(t *testing.T) {
	script := append([]byte{9}, make([]byte, 9)...)
	if _, err := ExtractBIP34Height(script); err == nil {
		t.Fatal("expected error for a push length above the 8-byte height bound")
	}
}
