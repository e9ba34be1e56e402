// Package ecc wraps the secp256k1 elliptic-curve primitives consensus
// validation needs: ECDSA signature verification for legacy and
// segwit-v0 scripts, and BIP-340 Schnorr verification for taproot.
package ecc

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
)

// PublicKey is an opaque secp256k1 point, parsed from either a
// compressed/uncompressed SEC1 encoding (ECDSA) or a 32-byte x-only
// encoding (BIP-340).
type PublicKey struct {
	key *btcec.PublicKey
}

// ParseECDSAPubKey accepts a compressed (33-byte) or uncompressed
// (65-byte) SEC1-encoded public key, as used by legacy and segwit-v0
// scripts.
func ParseECDSAPubKey(data []byte) (*PublicKey, error) {
	k, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: k}, nil
}

// ParseXOnlyPubKey lifts a 32-byte BIP-340 x-only public key to a full
// point with even Y, as used by taproot output keys and tapscript
// OP_CHECKSIG.
func ParseXOnlyPubKey(data []byte) (*PublicKey, error) {
	k, err := schnorr.ParsePubKey(data)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: k}, nil
}

// VerifyECDSA checks a DER-encoded ECDSA signature over hash against
// pubKey. Bitcoin does not require canonical (low-S) signatures at the
// consensus layer for legacy scripts; callers enforcing BIP-62/BIP-146
// low-S policy should check IsLowSDER first.
func VerifyECDSA(hash []byte, derSig []byte, pubKey *PublicKey) (bool, error) {
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false, err
	}
	return sig.Verify(hash, pubKey.key), nil
}

// VerifySchnorr checks a 64-byte BIP-340 Schnorr signature over a
// 32-byte message against an x-only public key.
func VerifySchnorr(msg []byte, sig64 []byte, pubKey *PublicKey) (bool, error) {
	sig, err := schnorr.ParseSignature(sig64)
	if err != nil {
		return false, err
	}
	return sig.Verify(msg, pubKey.key), nil
}

// TweakTaprootOutputKey lifts an internal x-only public key to an
// even-Y point, applies the BIP-341 TapTweak with merkleRoot, and
// returns the resulting output key in x-only form along with whether
// the tweaked point's Y coordinate is odd (the control block's parity
// bit records this for script-path spends).
func TweakTaprootOutputKey(internalXOnly []byte, merkleRoot [32]byte) (outputXOnly [32]byte, parityOdd bool, err error) {
	internal, err := schnorr.ParsePubKey(internalXOnly)
	if err != nil {
		return outputXOnly, false, err
	}
	output := txscript.ComputeTaprootOutputKey(internal, merkleRoot[:])
	ser := output.SerializeCompressed()
	copy(outputXOnly[:], ser[1:33])
	parityOdd = ser[0] == 0x03
	return outputXOnly, parityOdd, nil
}

// IsLowSDER reports whether a DER-encoded ECDSA signature's S value is
// at most half the curve order, the canonical-signature rule segwit
// scripts enforce at the consensus layer (BIP-146) and legacy scripts
// enforce only as relay policy.
func IsLowSDER(derSig []byte) bool {
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return !sig.S().IsOverHalfOrder()
}
