// Package blockvalidator checks a single block's structural and
// proof-of-work validity in isolation, with no dependency on the UTXO
// set. It is the first gate a block passes through before
// chunkvalidator attempts to apply it.
package blockvalidator

import "fmt"

// ErrorCode enumerates the distinct block-validation failure kinds.
type ErrorCode string

const (
	ErrPow                ErrorCode = "BLOCK_ERR_POW"
	ErrMerkle             ErrorCode = "BLOCK_ERR_MERKLE"
	ErrStructure          ErrorCode = "BLOCK_ERR_STRUCTURE"
	ErrCoinbaseHeight     ErrorCode = "BLOCK_ERR_COINBASE_HEIGHT"
	ErrCoinbaseSubsidy    ErrorCode = "BLOCK_ERR_COINBASE_SUBSIDY"
	ErrCoinbaseScriptSize ErrorCode = "BLOCK_ERR_COINBASE_SCRIPT_SIZE"
	ErrWitnessCommitment  ErrorCode = "BLOCK_ERR_WITNESS_COMMITMENT"
)

// ValidErr pairs an ErrorCode with a human-readable message, the
// uniform error shape used throughout this module.
type ValidErr struct {
	Code ErrorCode
	Msg  string
}

func (e *ValidErr) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, format string, args ...any) error {
	return &ValidErr{Code: code, Msg: fmt.Sprintf(format, args...)}
}
