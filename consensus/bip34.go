package consensus

// BIP34ActivationHeight is the mainnet height after which every
// coinbase must begin with a push of the block's own height.
const BIP34ActivationHeight Height = 227_931

// EncodeScriptNum encodes n using Bitcoin Script's minimal
// little-endian signed-magnitude number encoding (last byte's high
// bit is the sign bit; zero encodes as the empty string).
func EncodeScriptNum(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := n
	if neg {
		abs = -n
	}
	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	if out[len(out)-1]&0x80 != 0 {
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeScriptNum decodes a minimally-encoded script number. maxBytes
// bounds the accepted width (4 for ordinary arithmetic, wider for
// CLTV/CSV).
func DecodeScriptNum(b []byte, requireMinimal bool, maxBytes int) (int64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > maxBytes {
		return 0, newErr(ErrTxParse, "scriptnum: too long (%d > %d)", len(b), maxBytes)
	}
	if requireMinimal {
		if b[len(b)-1]&0x7f == 0 {
			if len(b) <= 1 || b[len(b)-2]&0x80 == 0 {
				return 0, newErr(ErrTxParse, "scriptnum: non-minimal encoding")
			}
		}
	}
	var result int64
	for i, v := range b {
		result |= int64(v) << uint(8*i)
	}
	if b[len(b)-1]&0x80 != 0 {
		mask := int64(0x80) << uint(8*(len(b)-1))
		result = -(result &^ mask)
	}
	return result, nil
}

// BIP34 height extraction treats the coinbase scriptSig's first push
// as a minimally-encoded script number giving the block height.

// ExtractBIP34Height parses the leading push of a coinbase scriptSig
// (direct-push opcode followed by that many bytes) as a BIP-34 height.
func ExtractBIP34Height(scriptSig []byte) (Height, error) {
	if len(scriptSig) < 1 {
		return 0, newErr(ErrBlockCoinbase, "bip34: empty scriptSig")
	}
	pushLen := int(scriptSig[0])
	if pushLen == 0 {
		return 0, nil // OP_0: the encoding of height 0
	}
	if pushLen > 8 || len(scriptSig) < 1+pushLen {
		return 0, newErr(ErrBlockCoinbase, "bip34: invalid height push")
	}
	n, err := DecodeScriptNum(scriptSig[1:1+pushLen], true, 8)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(^uint32(0)) {
		return 0, newErr(ErrBlockCoinbase, "bip34: height out of range")
	}
	return Height(n), nil
}

// EncodeBIP34Height builds the coinbase scriptSig prefix committing to
// height: a direct-push opcode followed by the minimally-encoded
// height bytes.
func EncodeBIP34Height(height Height) []byte {
	n := EncodeScriptNum(int64(height))
	out := make([]byte, 0, 1+len(n))
	out = append(out, byte(len(n)))
	out = append(out, n...)
	return out
}
