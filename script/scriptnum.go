package script

import "github.com/coredag/fullnode/consensus"

// maxNumSize is the width of an ordinary arithmetic script number;
// OP_CHECKLOCKTIMEVERIFY/OP_CHECKSEQUENCEVERIFY read up to 5 bytes per
// BIP-65/BIP-112 since locktime/sequence values can exceed 4 bytes
// once treated as unsigned 32-bit values reinterpreted as signed.
const maxNumSize = 4
const maxCLTVNumSize = 5

func popScriptNum(st *Stack, requireMinimal bool, maxBytes int) (int64, error) {
	v, err := st.Pop()
	if err != nil {
		return 0, err
	}
	n, err := consensus.DecodeScriptNum(v, requireMinimal, maxBytes)
	if err != nil {
		return 0, execErr(ErrNumberOverflow, "%v", err)
	}
	return n, nil
}

func pushScriptNum(st *Stack, n int64) {
	st.Push(consensus.EncodeScriptNum(n))
}
