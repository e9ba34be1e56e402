// Package download implements the cooperative pull-based multi-peer
// block fetcher: peers that go idle call RequestWork, the manager
// hands out the oldest queued WorkBatch, and a rolling per-peer
// performance table drives stall detection and DRAIN-phase redundant
// re-requests.
package download

import "fmt"

// ErrorCode enumerates the distinct download-manager failure kinds.
type ErrorCode string

const (
	ErrUnknownPeer ErrorCode = "DOWNLOAD_ERR_UNKNOWN_PEER"
	ErrNoWork      ErrorCode = "DOWNLOAD_ERR_NO_WORK"
	ErrSend        ErrorCode = "DOWNLOAD_ERR_SEND"
)

// ManagerErr pairs an ErrorCode with a human-readable message.
type ManagerErr struct {
	Code ErrorCode
	Msg  string
}

func (e *ManagerErr) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, format string, args ...any) error {
	return &ManagerErr{Code: code, Msg: fmt.Sprintf(format, args...)}
}
