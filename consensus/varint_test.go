package consensus

import "testing"

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 40}
	for _, n := range cases {
		enc := PutVarInt(nil, n)
		got, used, err := ReadVarInt(enc)
		if err != nil {
			t.Fatalf("n=%d: ReadVarInt: %v", n, err)
		}
		if got != n {
			t.Errorf("n=%d: round trip got %d", n, got)
		}
		if used != len(enc) {
			t.Errorf("n=%d: used %d bytes, encoded %d", n, used, len(enc))
		}
	}
}

func TestVarIntPrefixWidths(t *testing.T) {
	if len(PutVarInt(nil, 0xfc)) != 1 {
		t.Error("0xfc should encode as a single byte")
	}
	if len(PutVarInt(nil, 0xfd)) != 3 {
		t.Error("0xfd should encode with the 0xfd prefix plus 2 bytes")
	}
	if len(PutVarInt(nil, 0x10000)) != 5 {
		t.Error("values above 0xffff should encode with the 0xfe prefix plus 4 bytes")
	}
	if len(PutVarInt(nil, 0x100000000)) != 9 {
		t.Error("values above 0xffffffff should encode with the 0xff prefix plus 8 bytes")
	}
}

func TestReadVarIntTruncated(t *testing.T) {
	for _, b := range [][]byte{{}, {0xfd}, {0xfd, 0x01}, {0xfe, 0x01, 0x02}, {0xff, 0x01, 0x02, 0x03}} {
		if _, _, err := ReadVarInt(b); err == nil {
			t.Errorf("expected error reading truncated varint %x", b)
		}
	}
}
