package script

import (
	"encoding/binary"
)

// Engine executes a single Script program against a value stack. A
// fresh Engine is created per scriptSig/scriptPubKey/witness-script
// segment; callers chain segments (legacy -> P2SH redeem, or
// witness-program -> witness script) by feeding the stack forward.
type Engine struct {
	Stack    Stack
	AltStack Stack

	checker    SigChecker
	sigVersion SigVersion
	flags      Flags

	opCount int
	// codeSepPos is the position, within the *original* un-sliced
	// script, of the most recently executed OP_CODESEPARATOR. Legacy
	// and witness-v0 sighashes strip everything up to and including
	// it from scriptCode; tapscript commits to its offset directly.
	codeSepPos uint32
}

// NewEngine constructs an Engine ready to run one script segment.
func NewEngine(checker SigChecker, sigVersion SigVersion, flags Flags) *Engine {
	return &Engine{checker: checker, sigVersion: sigVersion, flags: flags, codeSepPos: 0xFFFFFFFF}
}

type condFrame struct {
	branch  bool
	seenElse bool
}

// Run executes prog against the engine's current stack, returning an
// error the first time a rule is violated. It does not itself judge
// overall success (EvalFalse / CleanStack); callers check e.Stack
// after every segment per the higher-level Verify functions.
func (e *Engine) Run(prog []byte) error {
	if e.sigVersion != SigVersionTapscript {
		if len(prog) > 10000 {
			return execErr(ErrPushSize, "script too large")
		}
	}

	var cond []condFrame
	pc := 0
	for pc < len(prog) {
		op, data, next, err := nextOp(prog, pc)
		if err != nil {
			return err
		}

		if disabledOpcodes[op] {
			return execErr(ErrDisabledOpcode, "disabled opcode 0x%02x", byte(op))
		}
		if op == OP_VERIF || op == OP_VERNOTIF {
			return execErr(ErrBadOpcode, "reserved conditional opcode 0x%02x", byte(op))
		}

		executing := true
		for _, f := range cond {
			if !f.branch {
				executing = false
				break
			}
		}

		if op > OP_16 {
			e.opCount++
			if e.sigVersion != SigVersionTapscript && e.opCount > MaxOpsPerScript {
				return execErr(ErrOpCount, "op count exceeds %d", MaxOpsPerScript)
			}
		}

		switch {
		case !executing && op != OP_IF && op != OP_NOTIF && op != OP_ELSE && op != OP_ENDIF:
			pc = next
			continue
		case isPushOpcode(op):
			if executing {
				if len(data) > MaxScriptElementSize {
					return execErr(ErrPushSize, "push of %d bytes exceeds %d", len(data), MaxScriptElementSize)
				}
				if e.flags.has(FlagVerifyMinimalData) {
					if err := checkMinimalPush(prog, pc, op, data); err != nil {
						return err
					}
				}
				e.Stack.Push(data)
			}
			pc = next
			continue
		}

		if err := e.execOpcode(op, prog, pc, &cond); err != nil {
			return err
		}
		pc = next

		if e.Stack.Depth()+e.AltStack.Depth() > MaxStackSize {
			return execErr(ErrStackSize, "combined stack exceeds %d", MaxStackSize)
		}
	}

	if len(cond) != 0 {
		return execErr(ErrUnbalancedConditional, "unterminated IF/NOTIF")
	}
	return nil
}

// Success reports whether the top stack element is script-true, the
// rule applied after the last segment of a scriptSig+scriptPubKey (or
// witness) chain finishes.
func (e *Engine) Success() error {
	if e.Stack.Depth() == 0 {
		return execErr(ErrEvalFalse, "stack empty at end of execution")
	}
	top, err := e.Stack.Peek(0)
	if err != nil {
		return err
	}
	if !Bool(top) {
		return execErr(ErrEvalFalse, "top of stack is false")
	}
	return nil
}

func nextOp(prog []byte, pc int) (Opcode, []byte, int, error) {
	b := prog[pc]
	switch {
	case b >= 1 && b <= 75:
		if pc+1+int(b) > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated push")
		}
		return Opcode(b), prog[pc+1 : pc+1+int(b)], pc + 1 + int(b), nil
	case Opcode(b) == OP_PUSHDATA1:
		if pc+2 > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA1")
		}
		n := int(prog[pc+1])
		if pc+2+n > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA1 data")
		}
		return OP_PUSHDATA1, prog[pc+2 : pc+2+n], pc + 2 + n, nil
	case Opcode(b) == OP_PUSHDATA2:
		if pc+3 > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA2")
		}
		n := int(binary.LittleEndian.Uint16(prog[pc+1 : pc+3]))
		if pc+3+n > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA2 data")
		}
		return OP_PUSHDATA2, prog[pc+3 : pc+3+n], pc + 3 + n, nil
	case Opcode(b) == OP_PUSHDATA4:
		if pc+5 > len(prog) {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA4")
		}
		n := int(binary.LittleEndian.Uint32(prog[pc+1 : pc+5]))
		if pc+5+n > len(prog) || n < 0 {
			return 0, nil, 0, execErr(ErrBadOpcode, "truncated PUSHDATA4 data")
		}
		return OP_PUSHDATA4, prog[pc+5 : pc+5+n], pc + 5 + n, nil
	default:
		return Opcode(b), nil, pc + 1, nil
	}
}

func checkMinimalPush(prog []byte, pc int, op Opcode, data []byte) error {
	b := prog[pc]
	n := len(data)
	switch {
	case n == 0:
		if b != byte(OP_0) {
			return execErr(ErrMinimalData, "empty push must use OP_0")
		}
	case n == 1 && data[0] >= 1 && data[0] <= 16:
		if b != byte(OP_1)+data[0]-1 {
			return execErr(ErrMinimalData, "single small int must use OP_1..OP_16")
		}
	case n == 1 && data[0] == 0x81:
		if b != byte(OP_1NEGATE) {
			return execErr(ErrMinimalData, "-1 must use OP_1NEGATE")
		}
	case n <= 75:
		if int(b) != n {
			return execErr(ErrMinimalData, "push of %d bytes must use direct push", n)
		}
	case n <= 255:
		if op != OP_PUSHDATA1 {
			return execErr(ErrMinimalData, "push of %d bytes must use OP_PUSHDATA1", n)
		}
	case n <= 65535:
		if op != OP_PUSHDATA2 {
			return execErr(ErrMinimalData, "push of %d bytes must use OP_PUSHDATA2", n)
		}
	}
	return nil
}

func (e *Engine) execOpcode(op Opcode, prog []byte, pc int, cond *[]condFrame) error {
	switch op {
	case OP_0:
		e.Stack.Push(nil)
	case OP_1NEGATE:
		pushScriptNum(&e.Stack, -1)
		return nil
	case OP_RESERVED, OP_VER:
		return execErr(ErrBadOpcode, "reserved opcode")
	default:
		if op >= OP_1 && op <= OP_16 {
			pushScriptNum(&e.Stack, int64(op-OP_1+1))
			return nil
		}
	}

	executing := true
	for _, f := range *cond {
		if !f.branch {
			executing = false
		}
	}

	switch op {
	case OP_IF, OP_NOTIF:
		var branch bool
		if executing {
			v, err := e.Stack.Pop()
			if err != nil {
				return err
			}
			if e.flags.has(FlagVerifyMinimalIf) && (len(v) > 1 || (len(v) == 1 && v[0] != 1)) {
				return execErr(ErrMinimalIf, "IF argument must be minimally encoded bool")
			}
			branch = Bool(v)
			if op == OP_NOTIF {
				branch = !branch
			}
		}
		*cond = append(*cond, condFrame{branch: branch})
		return nil
	case OP_ELSE:
		if len(*cond) == 0 {
			return execErr(ErrUnbalancedConditional, "ELSE without IF")
		}
		top := &(*cond)[len(*cond)-1]
		top.branch = !top.branch
		top.seenElse = true
		return nil
	case OP_ENDIF:
		if len(*cond) == 0 {
			return execErr(ErrUnbalancedConditional, "ENDIF without IF")
		}
		*cond = (*cond)[:len(*cond)-1]
		return nil
	case OP_VERIF, OP_VERNOTIF:
		return execErr(ErrBadOpcode, "reserved conditional opcode")
	}

	if !executing {
		return nil
	}
	return e.execActiveOpcode(op, prog, pc)
}
