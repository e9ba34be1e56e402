// Package p2p defines the narrow external contracts the IBD core
// depends on for talking to the network: a typed WireCodec view over
// already-framed P2P messages, a PeerTransport for sending/receiving
// against a connected peer, and an AddressBook for discovering new
// ones. These collaborators live outside the core (the actual socket
// I/O, DNS seeding, and address-manager scoring are glue); this
// package only pins the shapes DownloadManager and Chaser call
// through.
package p2p

import "github.com/coredag/fullnode/consensus"

// PeerID identifies a connected peer. The core never interprets it
// beyond equality/map-key use; PeerTransport implementations are free
// to make it a connection pointer, an address string, or a small int.
type PeerID uint64

// InvVector is one entry of an inv/getdata/notfound message.
type InvVector struct {
	Type InvType
	Hash consensus.Hash256
}

// InvType enumerates the inventory vector kinds the core cares about.
type InvType uint32

const (
	InvTypeError InvType = iota
	InvTypeTx
	InvTypeBlock
	InvTypeFilteredBlock
	InvTypeWitnessBlock
)

// HeadersMessage is the payload of a `headers` message: up to 2,000
// headers with the trailing per-header txn-count byte already
// stripped by the codec.
type HeadersMessage struct {
	Headers []consensus.BlockHeader
}

// GetHeadersRequest is the payload of a `getheaders` message.
type GetHeadersRequest struct {
	Locator  []consensus.Hash256
	HashStop consensus.Hash256
}

// BlockMessage is the payload of a `block` message: the full
// serialized block plus the peer it arrived from and its wire size
// (for DownloadManager's performance accounting).
type BlockMessage struct {
	From  PeerID
	Hash  consensus.Hash256
	Bytes []byte
}

// WireCodec is the external message codec: it owns version/verack/
// addr/inv/getdata/headers/block/tx framing. The core only ever calls
// the typed Send* methods; it never touches raw bytes.
type WireCodec interface {
	SendGetHeaders(peer PeerID, req GetHeadersRequest) error
	SendGetData(peer PeerID, items []InvVector) error
}

// PeerTransport is the external connection manager: socket I/O, TLS,
// and the read loop that turns wire bytes into the typed messages the
// core consumes. The core calls Disconnect when a peer misbehaves or
// stalls; it never dials or accepts connections itself.
type PeerTransport interface {
	Disconnect(peer PeerID, reason string) error
	Connected() []PeerID
}

// AddressBook is the external peer-address source: DNS seeding,
// address-manager scoring, and persistence of known-good addresses.
// The core consults it only when it needs more peers than are
// currently connected; it never scores or persists addresses itself.
type AddressBook interface {
	NextCandidate() (addr string, ok bool)
	MarkGood(addr string)
	MarkBad(addr string)
}
