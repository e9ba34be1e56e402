package consensus

import "fmt"

// ErrorCode enumerates the distinct consensus-layer failure kinds.
// Each layer above consensus (script, blockvalidator, chunkvalidator,
// utxostore) defines its own ErrorCode set in the same shape rather
// than reusing this one.
type ErrorCode string

const (
	ErrTxNull            ErrorCode = "TX_ERR_NULL"
	ErrTxEmptyInputs     ErrorCode = "TX_ERR_EMPTY_INPUTS"
	ErrTxEmptyOutputs    ErrorCode = "TX_ERR_EMPTY_OUTPUTS"
	ErrTxDuplicateInput  ErrorCode = "TX_ERR_DUPLICATE_INPUT"
	ErrTxNegativeValue   ErrorCode = "TX_ERR_NEGATIVE_VALUE"
	ErrTxValueTooLarge   ErrorCode = "TX_ERR_VALUE_TOO_LARGE"
	ErrTxTotalOverflow   ErrorCode = "TX_ERR_TOTAL_OVERFLOW"
	ErrTxSizeExceeded    ErrorCode = "TX_ERR_SIZE_EXCEEDED"
	ErrTxParse           ErrorCode = "TX_ERR_PARSE"
	ErrBlockParse        ErrorCode = "BLOCK_ERR_PARSE"
	ErrBlockPow          ErrorCode = "BLOCK_ERR_POW"
	ErrBlockMerkle       ErrorCode = "BLOCK_ERR_MERKLE"
	ErrBlockStructure    ErrorCode = "BLOCK_ERR_STRUCTURE"
	ErrBlockCoinbase     ErrorCode = "BLOCK_ERR_COINBASE"
	ErrWitnessCommitment ErrorCode = "BLOCK_ERR_WITNESS_COMMITMENT"
)

// ConsensusError is the common error shape used by every package in
// this module: a short machine-checkable code plus a human message.
type ConsensusError struct {
	Code ErrorCode
	Msg  string
}

func (e *ConsensusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, format string, args ...any) error {
	return &ConsensusError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
