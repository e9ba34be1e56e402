// Package blockindex maintains the header DAG: every known header,
// its cumulative work, and validity status, plus the best chain tip
// selected by greatest cumulative work among VALID_CHAIN entries.
package blockindex

import "fmt"

// ErrorCode enumerates the distinct header-indexing failure kinds.
type ErrorCode string

const (
	ErrUnknownParent  ErrorCode = "INDEX_ERR_UNKNOWN_PARENT"
	ErrInvalidParent  ErrorCode = "INDEX_ERR_INVALID_PARENT"
	ErrPow            ErrorCode = "INDEX_ERR_POW"
	ErrTimestamp      ErrorCode = "INDEX_ERR_TIMESTAMP"
	ErrIo             ErrorCode = "INDEX_ERR_IO"
	ErrCorrupt        ErrorCode = "INDEX_ERR_CORRUPT"
	ErrUnknownHash    ErrorCode = "INDEX_ERR_UNKNOWN_HASH"
)

// IndexErr pairs an ErrorCode with a human-readable message.
type IndexErr struct {
	Code ErrorCode
	Msg  string
}

func (e *IndexErr) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, format string, args ...any) error {
	return &IndexErr{Code: code, Msg: fmt.Sprintf(format, args...)}
}
