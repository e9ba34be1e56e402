package script

import "github.com/coredag/fullnode/consensus"

// checkSignatureEncoding validates the static shape of a signature
// plus trailing sighash-type byte before it is ever handed to a
// curve-level verifier, matching the layered checks Bitcoin Core
// applies (DERSIG, LOW_S, STRICTENC) ahead of the expensive ECDSA
// call.
func checkSignatureEncoding(sig []byte, flags Flags) error {
	if len(sig) == 0 {
		return nil
	}
	hashType := consensus.SigHashType(sig[len(sig)-1] &^ byte(consensus.SigHashAnyoneCanPay))
	if hashType != consensus.SigHashAll && hashType != consensus.SigHashNone && hashType != consensus.SigHashSingle {
		if flags.has(FlagVerifyStrictEnc) {
			return execErr(ErrSigHashType, "invalid hash type 0x%02x", sig[len(sig)-1])
		}
	}
	der := sig[:len(sig)-1]
	if flags.has(FlagVerifyDERSig) || flags.has(FlagVerifyLowS) || flags.has(FlagVerifyStrictEnc) {
		if !isValidDERSignature(der) {
			return execErr(ErrSigDER, "signature is not strict DER")
		}
	}
	if flags.has(FlagVerifyLowS) {
		if !isLowSDER(der) {
			return execErr(ErrSigHighS, "signature S value is not low-S")
		}
	}
	return nil
}

// isValidDERSignature performs the structural check BIP-66 requires:
// a single SEQUENCE containing exactly two non-negative, minimally
// encoded INTEGERs (r, s), and nothing trailing.
func isValidDERSignature(sig []byte) bool {
	if len(sig) < 8 || len(sig) > 72 {
		return false
	}
	if sig[0] != 0x30 || int(sig[1]) != len(sig)-2 {
		return false
	}
	if sig[2] != 0x02 {
		return false
	}
	rLen := int(sig[3])
	if 4+rLen+2 > len(sig) {
		return false
	}
	if rLen == 0 || (sig[4]&0x80 != 0) {
		return false
	}
	if rLen > 1 && sig[4] == 0 && sig[5]&0x80 == 0 {
		return false
	}
	sOff := 4 + rLen
	if sig[sOff] != 0x02 {
		return false
	}
	sLen := int(sig[sOff+1])
	if sOff+2+sLen != len(sig) {
		return false
	}
	if sLen == 0 || (sig[sOff+2]&0x80 != 0) {
		return false
	}
	if sLen > 1 && sig[sOff+2] == 0 && sig[sOff+3]&0x80 == 0 {
		return false
	}
	return true
}

// isLowSDER extracts the S component of a validated DER signature and
// reports whether it is at most half the secp256k1 group order.
func isLowSDER(der []byte) bool {
	if !isValidDERSignature(der) {
		return false
	}
	rLen := int(der[3])
	sOff := 4 + rLen
	sLen := int(der[sOff+1])
	sBytes := der[sOff+2 : sOff+2+sLen]
	return !derIntOverHalfOrder(sBytes)
}

var secp256k1HalfOrderBE = [32]byte{
	0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x5d, 0x57, 0x6e, 0x73, 0x57, 0xa4, 0x50, 0x1d,
	0xdf, 0xe9, 0x2f, 0x46, 0x68, 0x1b, 0x20, 0xa0,
}

func derIntOverHalfOrder(b []byte) bool {
	// Strip a leading sign-padding zero byte before comparing widths.
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	var padded [32]byte
	if len(b) > 32 {
		return true
	}
	copy(padded[32-len(b):], b)
	for i := 0; i < 32; i++ {
		if padded[i] != secp256k1HalfOrderBE[i] {
			return padded[i] > secp256k1HalfOrderBE[i]
		}
	}
	return false
}
