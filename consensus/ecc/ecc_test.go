package ecc

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

func testPrivKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	seed := sha256.Sum256([]byte("ecc package sanity fixture"))
	return btcec.PrivKeyFromBytes(seed[:])
}

func TestCurveGeneratorSanity(t *testing.T) {
	curve := btcec.S256()
	params := curve.Params()
	gx, gy := params.Gx, params.Gy

	doubled := func() (x, y *big.Int) { return curve.Double(gx, gy) }
	added := func() (x, y *big.Int) { return curve.Add(gx, gy, gx, gy) }

	dx, dy := doubled()
	ax, ay := added()
	if dx.Cmp(ax) != 0 || dy.Cmp(ay) != 0 {
		t.Fatal("2G via Double must equal G+G via Add")
	}
	if !curve.IsOnCurve(dx, dy) {
		t.Fatal("2G must lie on the curve")
	}

	negY := new(big.Int).Sub(params.P, gy)
	ix, iy := curve.Add(gx, gy, gx, negY)
	if ix.Sign() != 0 || iy.Sign() != 0 {
		t.Fatalf("G + (-G) should reduce to the point at infinity, got (%v, %v)", ix, iy)
	}
}

func TestECDSAPubKeyRoundTripPreservesPoint(t *testing.T) {
	priv := testPrivKey(t)
	pub := priv.PubKey()

	compressed := pub.SerializeCompressed()
	uncompressed := pub.SerializeUncompressed()

	fromCompressed, err := ParseECDSAPubKey(compressed)
	if err != nil {
		t.Fatalf("parse compressed: %v", err)
	}
	fromUncompressed, err := ParseECDSAPubKey(uncompressed)
	if err != nil {
		t.Fatalf("parse uncompressed: %v", err)
	}
	if !fromCompressed.key.IsEqual(fromUncompressed.key) {
		t.Fatal("compressed and uncompressed encodings of the same key must parse to the same point")
	}
	if !fromCompressed.key.IsEqual(pub) {
		t.Fatal("round trip must preserve the original point")
	}
}

func TestVerifyECDSA(t *testing.T) {
	priv := testPrivKey(t)
	hash := sha256.Sum256([]byte("message to sign"))

	sig := ecdsa.Sign(priv, hash[:])
	derSig := sig.Serialize()

	pub, err := ParseECDSAPubKey(priv.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyECDSA(hash[:], derSig, pub)
	if err != nil {
		t.Fatalf("VerifyECDSA: %v", err)
	}
	if !ok {
		t.Fatal("expected valid ECDSA signature to verify")
	}

	wrongHash := sha256.Sum256([]byte("a different message"))
	ok, err = VerifyECDSA(wrongHash[:], derSig, pub)
	if err != nil {
		t.Fatalf("VerifyECDSA: %v", err)
	}
	if ok {
		t.Fatal("expected signature over a different hash to fail verification")
	}
}

func TestVerifySchnorr(t *testing.T) {
	priv := testPrivKey(t)
	msg := sha256.Sum256([]byte("taproot message"))

	sig, err := schnorr.Sign(priv, msg[:])
	if err != nil {
		t.Fatalf("schnorr.Sign: %v", err)
	}
	sig64 := sig.Serialize()

	xOnly := schnorr.SerializePubKey(priv.PubKey())
	pub, err := ParseXOnlyPubKey(xOnly)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifySchnorr(msg[:], sig64, pub)
	if err != nil {
		t.Fatalf("VerifySchnorr: %v", err)
	}
	if !ok {
		t.Fatal("expected valid Schnorr signature to verify")
	}

	wrongMsg := sha256.Sum256([]byte("a different message"))
	ok, err = VerifySchnorr(wrongMsg[:], sig64, pub)
	if err != nil {
		t.Fatalf("VerifySchnorr: %v", err)
	}
	if ok {
		t.Fatal("expected signature over a different message to fail verification")
	}
}

func TestIsLowSDER(t *testing.T) {
	priv := testPrivKey(t)
	hash := sha256.Sum256([]byte("low-s check"))
	sig := ecdsa.Sign(priv, hash[:])
	if !IsLowSDER(sig.Serialize()) {
		t.Fatal("expected a deterministically-signed signature to already be low-S")
	}
	if IsLowSDER([]byte{0x30, 0x00}) {
		t.Fatal("expected a malformed DER signature to report not-low-S rather than panic")
	}
}

func TestTweakTaprootOutputKeyDeterministic(t *testing.T) {
	priv := testPrivKey(t)
	xOnly := schnorr.SerializePubKey(priv.PubKey())
	var internal [32]byte
	copy(internal[:], xOnly)

	var merkleRoot [32]byte
	out1, parity1, err := TweakTaprootOutputKey(internal[:], merkleRoot)
	if err != nil {
		t.Fatal(err)
	}
	out2, parity2, err := TweakTaprootOutputKey(internal[:], merkleRoot)
	if err != nil {
		t.Fatal(err)
	}
	if out1 != out2 || parity1 != parity2 {
		t.Fatal("tweaking the same internal key and merkle root must be deterministic")
	}
}
