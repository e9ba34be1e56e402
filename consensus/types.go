// Package consensus implements the Bitcoin consensus primitives: the
// block/transaction data model, double-SHA256/HASH160 hashing, the
// merkle root, proof-of-work target arithmetic, block-subsidy
// schedule, absolute and BIP-68 relative locktime checks, and the
// wire serialization the rest of the node builds on.
package consensus

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// Hash256 is a 32-byte double-SHA256 digest. Bitcoin displays hashes
// (block hashes, txids) as little-endian-reversed hex; String() does
// that reversal so values print the way block explorers show them.
type Hash256 [32]byte

func (h Hash256) String() string {
	rev := make([]byte, 32)
	for i := 0; i < 32; i++ {
		rev[i] = h[31-i]
	}
	return hex.EncodeToString(rev)
}

// Hash160 is a 20-byte RIPEMD160(SHA256(x)) digest.
type Hash160 [20]byte

func (h Hash160) String() string {
	return hex.EncodeToString(h[:])
}

// Satoshi is a signed monetary amount. Valid values lie in
// [0, MaxSatoshis]; arithmetic on Satoshi values must go through
// AddSatoshi/SubSatoshi so overflow and the monetary range are always
// checked.
type Satoshi int64

// MaxSatoshis is the maximum number of satoshis that can ever exist:
// 21,000,000 BTC * 100,000,000 sat/BTC.
const MaxSatoshis Satoshi = 2_100_000_000_000_000

// Height is a block height; genesis is height 0.
type Height uint32

// Timestamp is Bitcoin's native 32-bit seconds-since-epoch header field.
type Timestamp uint32

// Work is 256-bit unsigned cumulative chain work, represented as
// 32 big-endian bytes so it can be compared with bytes.Compare and
// persisted without an external bignum dependency in the hot path;
// callers needing arithmetic use WorkFromBits/AddWork.
type Work [32]byte

// Compare returns -1, 0, or 1 as w is less than, equal to, or greater
// than other, treating both as big-endian unsigned 256-bit integers.
func (w Work) Compare(other Work) int {
	for i := 0; i < 32; i++ {
		if w[i] != other[i] {
			if w[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// AddSatoshi adds a and b, returning an error if the result would
// leave [0, MaxSatoshis].
func AddSatoshi(a, b Satoshi) (Satoshi, error) {
	if a < 0 || b < 0 {
		return 0, newErr(ErrTxNegativeValue, "negative operand")
	}
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || sum > uint64(MaxSatoshis) {
		return 0, newErr(ErrTxTotalOverflow, "satoshi sum overflow")
	}
	return Satoshi(sum), nil
}

// SubSatoshi returns a-b, erroring if b > a (Bitcoin amounts never go
// negative).
func SubSatoshi(a, b Satoshi) (Satoshi, error) {
	if b > a {
		return 0, newErr(ErrTxTotalOverflow, "satoshi subtraction underflow")
	}
	return a - b, nil
}

// Outpoint identifies a transaction output: the txid that created it
// and its index within that transaction's output list.
type Outpoint struct {
	Txid Hash256
	Vout uint32
}

// CoinbaseVout is the sentinel vout value used by a coinbase input's
// (null-txid, CoinbaseVout) prevout.
const CoinbaseVout uint32 = 0xFFFFFFFF

// IsCoinbaseOutpoint reports whether o is the coinbase null-prevout
// sentinel.
func (o Outpoint) IsCoinbaseOutpoint() bool {
	return o.Vout == CoinbaseVout && o.Txid == (Hash256{})
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}

// UtxoEntry is a single unspent output as tracked by UtxoStore/UtxoBatch.
type UtxoEntry struct {
	Outpoint     Outpoint
	Value        Satoshi
	ScriptPubKey []byte
	Height       Height
	IsCoinbase   bool
}

// TxIn is a transaction input.
type TxIn struct {
	PrevOut   Outpoint
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte // nil/empty for non-segwit inputs
}

// TxOut is a transaction output.
type TxOut struct {
	Value        Satoshi
	ScriptPubKey []byte
}

// Transaction is a full Bitcoin transaction, with or without witness data.
type Transaction struct {
	Version  int32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
}

// HasWitness reports whether any input carries witness data.
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) > 0 {
			return true
		}
	}
	return false
}

// BlockHeader is Bitcoin's 80-byte block header.
type BlockHeader struct {
	Version    int32
	PrevHash   Hash256
	MerkleRoot Hash256
	Timestamp  Timestamp
	Bits       uint32
	Nonce      uint32
}

// Block is a full block: header plus transactions, first of which
// must be the coinbase.
type Block struct {
	Header Header
	Txs    []Transaction
}

// Header is an alias kept for readability at call sites (Block.Header).
type Header = BlockHeader

const (
	// BlockHeaderSize is the fixed wire size of a BlockHeader.
	BlockHeaderSize = 80

	// MaxBlockWeight is BIP-141's block weight cap.
	MaxBlockWeight = 4_000_000
	// MaxBlockSize is the legacy block size cap (serialized without
	// witness data).
	MaxBlockSize = 1_000_000
	// MaxTxSize is the maximum serialized size of a single transaction.
	MaxTxSize = 400_000

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it can be spent.
	CoinbaseMaturity = 100

	// LocktimeThreshold distinguishes a height-based nLockTime from a
	// timestamp-based one.
	LocktimeThreshold = 500_000_000
	// SequenceFinal disables both absolute and relative locktime for an input.
	SequenceFinal = 0xFFFFFFFF

	// BIP-68 relative-locktime sequence flags.
	SequenceLockTimeDisableFlag = 1 << 31
	SequenceLockTimeTypeFlag    = 1 << 22
	SequenceLockTimeMask        = 0x0000FFFF

	// MaxBlockSigops bounds total accurately-counted sigops per block.
	MaxBlockSigops = 80_000
)
