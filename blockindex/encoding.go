package blockindex

import (
	"encoding/binary"
	"fmt"

	"github.com/coredag/fullnode/consensus"
)

// encodeEntry lays out an Entry as its goleveldb value: height(u32le) |
// header(80 raw bytes) | cum_work(32 raw bytes) | status(u16le).
func encodeEntry(e *Entry) ([]byte, error) {
	headerBytes, err := consensus.SerializeHeader(e.Header)
	if err != nil {
		return nil, fmt.Errorf("serialize header: %w", err)
	}
	out := make([]byte, 4+len(headerBytes)+32+2)
	binary.LittleEndian.PutUint32(out[0:4], uint32(e.Height))
	copy(out[4:4+len(headerBytes)], headerBytes)
	off := 4 + len(headerBytes)
	copy(out[off:off+32], e.CumWork[:])
	binary.LittleEndian.PutUint16(out[off+32:off+34], uint16(e.Status))
	return out, nil
}

func decodeEntry(hash consensus.Hash256, b []byte) (*Entry, error) {
	if len(b) < 4+consensus.BlockHeaderSize+32+2 {
		return nil, fmt.Errorf("index entry: truncated (%d bytes)", len(b))
	}
	height := consensus.Height(binary.LittleEndian.Uint32(b[0:4]))
	header, err := consensus.ParseHeader(b[4 : 4+consensus.BlockHeaderSize])
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	off := 4 + consensus.BlockHeaderSize
	var work consensus.Work
	copy(work[:], b[off:off+32])
	status := StatusFlags(binary.LittleEndian.Uint16(b[off+32 : off+34]))
	return &Entry{
		Hash:    hash,
		Height:  height,
		Header:  header,
		CumWork: work,
		Status:  status,
	}, nil
}
