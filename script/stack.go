package script

// MaxScriptElementSize is the largest single stack/altstack item
// allowed (520 bytes, unchanged by segwit or taproot).
const MaxScriptElementSize = 520

// MaxStackSize bounds the combined depth of the main stack and
// altstack during execution.
const MaxStackSize = 1000

// MaxOpsPerScript bounds the number of non-push opcodes (legacy
// scripts only; tapscript has no such limit).
const MaxOpsPerScript = 201

// Stack is Script's value stack: byte-string elements with Bitcoin's
// minimal-encoded-integer interpretation available on demand.
type Stack struct {
	items [][]byte
}

func (s *Stack) Depth() int { return len(s.items) }

func (s *Stack) Push(v []byte) {
	s.items = append(s.items, v)
}

func (s *Stack) Pop() ([]byte, error) {
	if len(s.items) == 0 {
		return nil, execErr(ErrInvalidStackOperation, "pop from empty stack")
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// Peek returns the item idxFromTop from the top (0 = top) without
// removing it.
func (s *Stack) Peek(idxFromTop int) ([]byte, error) {
	if idxFromTop < 0 || idxFromTop >= len(s.items) {
		return nil, execErr(ErrInvalidStackOperation, "peek out of range")
	}
	return s.items[len(s.items)-1-idxFromTop], nil
}

// Remove deletes and returns the item idxFromTop from the top.
func (s *Stack) Remove(idxFromTop int) ([]byte, error) {
	if idxFromTop < 0 || idxFromTop >= len(s.items) {
		return nil, execErr(ErrInvalidStackOperation, "remove out of range")
	}
	pos := len(s.items) - 1 - idxFromTop
	v := s.items[pos]
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	return v, nil
}

// InsertBelowTop inserts v beneath the top idxFromTop items, i.e.
// idxFromTop == 0 pushes on top. Used by OP_TUCK in ops.go, not called
// directly for plain pushes.
func (s *Stack) InsertBelowTop(v []byte, idxFromTop int) {
	pos := len(s.items) - idxFromTop
	if pos < 0 {
		pos = 0
	}
	if pos > len(s.items) {
		pos = len(s.items)
	}
	s.items = append(s.items, nil)
	copy(s.items[pos+1:], s.items[pos:])
	s.items[pos] = v
}

// Bool interprets a stack item using Script's boolean rule: false iff
// every byte is zero, except a single trailing 0x80 (negative zero).
func Bool(v []byte) bool {
	for i, b := range v {
		if b != 0 {
			if i == len(v)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// BoolBytes encodes a boolean as Script's canonical true/false byte
// string (empty for false, a single 0x01 for true).
func BoolBytes(b bool) []byte {
	if b {
		return []byte{1}
	}
	return nil
}
