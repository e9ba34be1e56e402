package script

import (
	"bytes"
	"testing"
)

func TestStackPushPop(t *testing.T) {
	var s Stack
	s.Push([]byte{1})
	s.Push([]byte{2})
	v, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, []byte{2}) {
		t.Fatalf("got %x, want 02", v)
	}
	if s.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", s.Depth())
	}
}

func TestStackPopEmptyErrors(t *testing.T) {
	var s Stack
	if _, err := s.Pop(); err == nil {
		t.Fatal("expected error popping an empty stack")
	}
}

func TestStackPeekAndRemove(t *testing.T) {
	var s Stack
	s.Push([]byte{1})
	s.Push([]byte{2})
	s.Push([]byte{3})

	v, err := s.Peek(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, []byte{2}) {
		t.Fatalf("peek(1) = %x, want 02", v)
	}
	if s.Depth() != 3 {
		t.Fatal("peek must not mutate the stack")
	}

	v, err = s.Remove(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, []byte{2}) {
		t.Fatalf("remove(1) = %x, want 02", v)
	}
	if s.Depth() != 2 {
		t.Fatalf("depth after remove = %d, want 2", s.Depth())
	}
	top, _ := s.Peek(0)
	if !bytes.Equal(top, []byte{3}) {
		t.Fatal("remove must not disturb elements above the removed index")
	}
}

func TestStackOutOfRangeErrors(t *testing.T) {
	var s Stack
	s.Push([]byte{1})
	if _, err := s.Peek(5); err == nil {
		t.Fatal("expected out-of-range Peek to error")
	}
	if _, err := s.Remove(-1); err == nil {
		t.Fatal("expected negative-index Remove to error")
	}
}

func TestStackInsertBelowTop(t *testing.T) {
	var s Stack
	s.Push([]byte{1})
	s.Push([]byte{2})
	s.Push([]byte{3})
	s.InsertBelowTop([]byte{9}, 2)
	// Expect bottom-to-top: 1, 9, 2, 3 (9 inserted two positions below
	// what was the top before the push grew the stack).
	want := [][]byte{{1}, {9}, {2}, {3}}
	if s.Depth() != len(want) {
		t.Fatalf("depth = %d, want %d", s.Depth(), len(want))
	}
	for i, w := range want {
		v, err := s.Peek(len(want) - 1 - i)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(v, w) {
			t.Fatalf("position %d = %x, want %x", i, v, w)
		}
	}
}

func TestBoolSemantics(t *testing.T) {
	cases := []struct {
		v    []byte
		want bool
	}{
		{nil, false},
		{[]byte{}, false},
		{[]byte{0x00}, false},
		{[]byte{0x00, 0x00}, false},
		{[]byte{0x80}, false}, // negative zero
		{[]byte{0x00, 0x80}, false},
		{[]byte{0x01}, true},
		{[]byte{0x00, 0x01}, true},
		{[]byte{0x81}, true}, // -1, nonzero
	}
	for _, c := range cases {
		if got := Bool(c.v); got != c.want {
			t.Fatalf("Bool(%x) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestBoolBytesRoundTrip(t *testing.T) {
	if Bool(BoolBytes(true)) != true {
		t.Fatal("BoolBytes(true) must read back true")
	}
	if Bool(BoolBytes(false)) != false {
		t.Fatal("BoolBytes(false) must read back false")
	}
}
