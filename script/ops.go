package script

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"

	"github.com/coredag/fullnode/consensus"
	"github.com/decred/dcrd/crypto/ripemd160"
)

func (e *Engine) execActiveOpcode(op Opcode, prog []byte, pc int) error {
	switch op {
	case OP_NOP, OP_NOP4, OP_NOP5, OP_NOP6, OP_NOP7, OP_NOP8, OP_NOP9, OP_NOP10:
		return nil
	case OP_NOP1:
		return nil
	case OP_CHECKLOCKTIMEVERIFY:
		return e.opCheckLockTimeVerify()
	case OP_CHECKSEQUENCEVERIFY:
		return e.opCheckSequenceVerify()

	case OP_VERIFY:
		v, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		if !Bool(v) {
			return execErr(ErrVerify, "OP_VERIFY failed")
		}
		return nil
	case OP_RETURN:
		return execErr(ErrOpReturn, "OP_RETURN")

	case OP_TOALTSTACK:
		v, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		e.AltStack.Push(v)
		return nil
	case OP_FROMALTSTACK:
		v, err := e.AltStack.Pop()
		if err != nil {
			return execErr(ErrInvalidStackOperation, "altstack empty")
		}
		e.Stack.Push(v)
		return nil

	case OP_2DROP:
		if _, err := e.Stack.Pop(); err != nil {
			return err
		}
		if _, err := e.Stack.Pop(); err != nil {
			return err
		}
		return nil
	case OP_2DUP:
		return e.dupTop(2)
	case OP_3DUP:
		return e.dupTop(3)
	case OP_2OVER:
		a, err := e.Stack.Peek(3)
		if err != nil {
			return err
		}
		b, err := e.Stack.Peek(2)
		if err != nil {
			return err
		}
		e.Stack.Push(a)
		e.Stack.Push(b)
		return nil
	case OP_2ROT:
		// Moves the 5th and 6th items from the top to the top.
		items := make([][]byte, 2)
		var err error
		items[0], err = e.Stack.Remove(5)
		if err != nil {
			return err
		}
		items[1], err = e.Stack.Remove(4)
		if err != nil {
			return err
		}
		e.Stack.Push(items[0])
		e.Stack.Push(items[1])
		return nil
	case OP_2SWAP:
		a, err := e.Stack.Remove(3)
		if err != nil {
			return err
		}
		b, err := e.Stack.Remove(2)
		if err != nil {
			return err
		}
		e.Stack.Push(a)
		e.Stack.Push(b)
		return nil
	case OP_IFDUP:
		v, err := e.Stack.Peek(0)
		if err != nil {
			return err
		}
		if Bool(v) {
			e.Stack.Push(v)
		}
		return nil
	case OP_DEPTH:
		pushScriptNum(&e.Stack, int64(e.Stack.Depth()))
		return nil
	case OP_DROP:
		_, err := e.Stack.Pop()
		return err
	case OP_DUP:
		v, err := e.Stack.Peek(0)
		if err != nil {
			return err
		}
		e.Stack.Push(v)
		return nil
	case OP_NIP:
		_, err := e.Stack.Remove(1)
		return err
	case OP_OVER:
		v, err := e.Stack.Peek(1)
		if err != nil {
			return err
		}
		e.Stack.Push(v)
		return nil
	case OP_PICK, OP_ROLL:
		n, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
		if err != nil {
			return err
		}
		if n < 0 || int(n) >= e.Stack.Depth() {
			return execErr(ErrInvalidStackOperation, "PICK/ROLL index out of range")
		}
		if op == OP_PICK {
			v, err := e.Stack.Peek(int(n))
			if err != nil {
				return err
			}
			e.Stack.Push(v)
			return nil
		}
		v, err := e.Stack.Remove(int(n))
		if err != nil {
			return err
		}
		e.Stack.Push(v)
		return nil
	case OP_ROT:
		v, err := e.Stack.Remove(2)
		if err != nil {
			return err
		}
		e.Stack.Push(v)
		return nil
	case OP_SWAP:
		v, err := e.Stack.Remove(1)
		if err != nil {
			return err
		}
		e.Stack.Push(v)
		return nil
	case OP_TUCK:
		top, err := e.Stack.Peek(0)
		if err != nil {
			return err
		}
		e.Stack.InsertBelowTop(top, 2)
		return nil

	case OP_SIZE:
		v, err := e.Stack.Peek(0)
		if err != nil {
			return err
		}
		pushScriptNum(&e.Stack, int64(len(v)))
		return nil

	case OP_EQUAL, OP_EQUALVERIFY:
		a, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		b, err := e.Stack.Pop()
		if err != nil {
			return err
		}
		eq := bytes.Equal(a, b)
		if op == OP_EQUALVERIFY {
			if !eq {
				return execErr(ErrEqualVerify, "OP_EQUALVERIFY failed")
			}
			return nil
		}
		e.Stack.Push(BoolBytes(eq))
		return nil

	case OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT, OP_0NOTEQUAL:
		return e.unaryArith(op)
	case OP_ADD, OP_SUB, OP_BOOLAND, OP_BOOLOR, OP_NUMEQUAL, OP_NUMEQUALVERIFY,
		OP_NUMNOTEQUAL, OP_LESSTHAN, OP_GREATERTHAN, OP_LESSTHANOREQUAL,
		OP_GREATERTHANOREQUAL, OP_MIN, OP_MAX:
		return e.binaryArith(op)
	case OP_WITHIN:
		max, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
		if err != nil {
			return err
		}
		min, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
		if err != nil {
			return err
		}
		x, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
		if err != nil {
			return err
		}
		e.Stack.Push(BoolBytes(x >= min && x < max))
		return nil

	case OP_RIPEMD160:
		return e.hashOp(func(b []byte) []byte {
			r := ripemd160.New()
			r.Write(b)
			return r.Sum(nil)
		})
	case OP_SHA1:
		return e.hashOp(func(b []byte) []byte {
			s := sha1.Sum(b)
			return s[:]
		})
	case OP_SHA256:
		return e.hashOp(func(b []byte) []byte {
			s := sha256.Sum256(b)
			return s[:]
		})
	case OP_HASH160:
		return e.hashOp(func(b []byte) []byte {
			h := consensus.DefaultHasher.Hash160(b)
			return h[:]
		})
	case OP_HASH256:
		return e.hashOp(func(b []byte) []byte {
			h := consensus.DefaultHasher.DoubleSha256(b)
			return h[:]
		})
	case OP_CODESEPARATOR:
		e.codeSepPos = uint32(pc)
		return nil

	case OP_CHECKSIG, OP_CHECKSIGVERIFY:
		return e.opCheckSig(op, prog)
	case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
		return e.opCheckMultisig(op, prog)
	case OP_CHECKSIGADD:
		return e.opCheckSigAdd(prog)
	}

	if e.sigVersion == SigVersionTapscript && isSuccessOpcode(op) {
		if e.flags.has(FlagVerifyDiscourageOpSuccess) {
			return execErr(ErrOpSuccess, "OP_SUCCESSx discouraged")
		}
		return nil
	}
	return execErr(ErrBadOpcode, "unknown opcode 0x%02x", byte(op))
}

func (e *Engine) dupTop(n int) error {
	if e.Stack.Depth() < n {
		return execErr(ErrInvalidStackOperation, "stack too shallow for dup")
	}
	items := make([][]byte, n)
	for i := 0; i < n; i++ {
		v, err := e.Stack.Peek(n - 1 - i)
		if err != nil {
			return err
		}
		items[i] = v
	}
	for _, v := range items {
		e.Stack.Push(v)
	}
	return nil
}

func (e *Engine) hashOp(f func([]byte) []byte) error {
	v, err := e.Stack.Pop()
	if err != nil {
		return err
	}
	e.Stack.Push(f(v))
	return nil
}

func (e *Engine) unaryArith(op Opcode) error {
	n, err := popScriptNum(&e.Stack, e.flags.has(FlagVerifyMinimalData), maxNumSize)
	if err != nil {
		return err
	}
	var result int64
	switch op {
	case OP_1ADD:
		result = n + 1
	case OP_1SUB:
		result = n - 1
	case OP_NEGATE:
		result = -n
	case OP_ABS:
		if n < 0 {
			result = -n
		} else {
			result = n
		}
	case OP_NOT:
		if n == 0 {
			result = 1
		}
	case OP_0NOTEQUAL:
		if n != 0 {
			result = 1
		}
	}
	pushScriptNum(&e.Stack, result)
	return nil
}

func (e *Engine) binaryArith(op Opcode) error {
	minimal := e.flags.has(FlagVerifyMinimalData)
	b, err := popScriptNum(&e.Stack, minimal, maxNumSize)
	if err != nil {
		return err
	}
	a, err := popScriptNum(&e.Stack, minimal, maxNumSize)
	if err != nil {
		return err
	}

	boolResult := func(v bool) {
		e.Stack.Push(BoolBytes(v))
	}

	switch op {
	case OP_ADD:
		pushScriptNum(&e.Stack, a+b)
	case OP_SUB:
		pushScriptNum(&e.Stack, a-b)
	case OP_BOOLAND:
		boolResult(a != 0 && b != 0)
	case OP_BOOLOR:
		boolResult(a != 0 || b != 0)
	case OP_NUMEQUAL:
		boolResult(a == b)
	case OP_NUMEQUALVERIFY:
		if a != b {
			return execErr(ErrNumEqualVerify, "OP_NUMEQUALVERIFY failed")
		}
	case OP_NUMNOTEQUAL:
		boolResult(a != b)
	case OP_LESSTHAN:
		boolResult(a < b)
	case OP_GREATERTHAN:
		boolResult(a > b)
	case OP_LESSTHANOREQUAL:
		boolResult(a <= b)
	case OP_GREATERTHANOREQUAL:
		boolResult(a >= b)
	case OP_MIN:
		if a < b {
			pushScriptNum(&e.Stack, a)
		} else {
			pushScriptNum(&e.Stack, b)
		}
	case OP_MAX:
		if a > b {
			pushScriptNum(&e.Stack, a)
		} else {
			pushScriptNum(&e.Stack, b)
		}
	}
	return nil
}
