package consensus

import (
	"crypto/sha256"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// Hasher is the narrow hashing surface threaded through validation
// code: a crypto provider passed explicitly rather than reached for
// via package-level globals. The default implementation is
// DefaultHasher; tests may substitute a counting/mocking Hasher to
// assert call counts without pulling in a full block.
type Hasher interface {
	Sha256(b []byte) [32]byte
	DoubleSha256(b []byte) Hash256
	Hash160(b []byte) Hash160
}

type defaultHasher struct{}

// DefaultHasher is the production Hasher: SHA-256 from the standard
// library, RIPEMD-160 from the Decred fork used across the retrieval
// pack (golang.org/x/crypto/ripemd160 is deprecated upstream).
var DefaultHasher Hasher = defaultHasher{}

func (defaultHasher) Sha256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

func (h defaultHasher) DoubleSha256(b []byte) Hash256 {
	first := sha256.Sum256(b)
	return Hash256(sha256.Sum256(first[:]))
}

func (h defaultHasher) Hash160(b []byte) Hash160 {
	first := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(first[:])
	sum := r.Sum(nil)
	var out Hash160
	copy(out[:], sum)
	return out
}

// BlockHash returns the double-SHA256 of the 80-byte serialized header.
func BlockHash(h Hasher, header BlockHeader) (Hash256, error) {
	b, err := SerializeHeader(header)
	if err != nil {
		return Hash256{}, err
	}
	return h.DoubleSha256(b), nil
}

// TxID returns the double-SHA256 of the non-witness transaction
// serialization.
func TxID(h Hasher, tx *Transaction) Hash256 {
	return h.DoubleSha256(SerializeTxNoWitness(tx))
}

// WTxID returns the double-SHA256 of the full (witness-inclusive)
// transaction serialization.
func WTxID(h Hasher, tx *Transaction) Hash256 {
	return h.DoubleSha256(SerializeTxWithWitness(tx))
}
