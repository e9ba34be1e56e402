package utxostore

import (
	"encoding/binary"
	"fmt"

	"github.com/coredag/fullnode/consensus"
)

// encodeOutpointKey lays out an Outpoint as its bbolt key: txid(32) ||
// vout(u32 little-endian).
func encodeOutpointKey(o consensus.Outpoint) []byte {
	out := make([]byte, 32+4)
	copy(out[0:32], o.Txid[:])
	binary.LittleEndian.PutUint32(out[32:36], o.Vout)
	return out
}

// encodeUtxoEntry lays out a UtxoEntry as its bbolt value:
// value(i64le) | height(u32le) | is_coinbase(u8) | script_pubkey.
func encodeUtxoEntry(e consensus.UtxoEntry) []byte {
	out := make([]byte, 8+4+1+len(e.ScriptPubKey))
	binary.LittleEndian.PutUint64(out[0:8], uint64(e.Value))
	binary.LittleEndian.PutUint32(out[8:12], uint32(e.Height))
	if e.IsCoinbase {
		out[12] = 1
	}
	copy(out[13:], e.ScriptPubKey)
	return out
}

func decodeUtxoEntry(o consensus.Outpoint, b []byte) (consensus.UtxoEntry, error) {
	if len(b) < 13 {
		return consensus.UtxoEntry{}, fmt.Errorf("utxo entry: truncated (%d bytes)", len(b))
	}
	return consensus.UtxoEntry{
		Outpoint:     o,
		Value:        consensus.Satoshi(binary.LittleEndian.Uint64(b[0:8])),
		Height:       consensus.Height(binary.LittleEndian.Uint32(b[8:12])),
		IsCoinbase:   b[12] == 1,
		ScriptPubKey: append([]byte(nil), b[13:]...),
	}, nil
}

var metaValidatedTipKey = []byte("validated_tip")

func encodeHeight(h consensus.Height) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(h))
	return b[:]
}

func decodeHeight(b []byte) consensus.Height {
	if len(b) != 4 {
		return 0
	}
	return consensus.Height(binary.LittleEndian.Uint32(b))
}
