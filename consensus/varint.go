package consensus

import "encoding/binary"

// PutVarInt appends Bitcoin's CompactSize varint encoding of n to dst
// and returns the result.
func PutVarInt(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		return append(append(dst, 0xfd), b[:]...)
	case n <= 0xffffffff:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		return append(append(dst, 0xfe), b[:]...)
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		return append(append(dst, 0xff), b[:]...)
	}
}

// ReadVarInt decodes a CompactSize varint from the front of b,
// returning the value and the number of bytes consumed.
func ReadVarInt(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, newErr(ErrTxParse, "varint: empty input")
	}
	switch b[0] {
	case 0xfd:
		if len(b) < 3 {
			return 0, 0, newErr(ErrTxParse, "varint: truncated u16")
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case 0xfe:
		if len(b) < 5 {
			return 0, 0, newErr(ErrTxParse, "varint: truncated u32")
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	case 0xff:
		if len(b) < 9 {
			return 0, 0, newErr(ErrTxParse, "varint: truncated u64")
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	default:
		return uint64(b[0]), 1, nil
	}
}
