// Package chaser implements the event-driven IBD state machine: it
// sequences HEADERS -> DOWNLOAD -> DRAIN -> VALIDATE -> FLUSH -> PRUNE,
// handing work to BlockTracker, DownloadManager and ChunkValidator in
// turn, and folds a regressed chunk back to DOWNLOAD at the blocking
// height.
package chaser

import "fmt"

// ErrorCode enumerates the distinct chaser failure kinds.
type ErrorCode string

const (
	ErrNoTarget  ErrorCode = "CHASER_ERR_NO_TARGET"
	ErrFlush     ErrorCode = "CHASER_ERR_FLUSH"
	ErrPrune     ErrorCode = "CHASER_ERR_PRUNE"
	ErrValidate  ErrorCode = "CHASER_ERR_VALIDATE"
	ErrTrack     ErrorCode = "CHASER_ERR_TRACK"
)

// ChaserErr pairs an ErrorCode with a human-readable message.
type ChaserErr struct {
	Code ErrorCode
	Msg  string
}

func (e *ChaserErr) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, format string, args ...any) error {
	return &ChaserErr{Code: code, Msg: fmt.Sprintf(format, args...)}
}
