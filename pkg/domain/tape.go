package domain

import (
	"strings"

	"github.com/aretw0/tlisp/pkg/types"
)

// Tape is the working memory of a single run: symbols extensible in both directions plus a head.
//
// Positions are logical: position 0 is the first input cell, negative positions lie to the left.
// Cells never visited read as the blank symbol.
type Tape struct {
	buf   []types.Value
	lo    int // first materialised index in buf
	hi    int // one past the last materialised index
	zero  int // buf index of position 0
	head  int // buf index of the head
	blank types.Value
}

// NewTape copies contents into a fresh tape with the head at position head.
// Positions outside contents are materialised as blanks.
func NewTape(contents []types.Value, head int, blank types.Value) *Tape {
	if blank == nil {
		blank = types.Null{}
	}
	t := &Tape{blank: blank}
	t.buf = make([]types.Value, len(contents), max(len(contents), 8))
	copy(t.buf, contents)
	t.hi = len(contents)
	t.head = head
	for t.head < t.lo {
		t.growLeft()
	}
	for t.head >= t.hi {
		t.growRight()
	}
	return t
}

// Read returns the symbol under the head.
func (t *Tape) Read() types.Value {
	return t.buf[t.head]
}

// Apply executes one head operation. The op's tape index is ignored; callers select the tape.
func (t *Tape) Apply(op HeadOp) {
	switch op.Kind {
	case OpMoveLeft:
		if t.head == t.lo {
			t.growLeft()
		}
		t.head--
	case OpMoveRight:
		if t.head == t.hi-1 {
			t.growRight()
		}
		t.head++
	case OpWrite:
		t.buf[t.head] = op.Value
	case OpNop:
	}
}

// Head returns the logical head position.
func (t *Tape) Head() int {
	return t.head - t.zero
}

// Origin returns the logical position of the leftmost materialised cell.
func (t *Tape) Origin() int {
	return t.lo - t.zero
}

// Blank returns the symbol read from unvisited cells.
func (t *Tape) Blank() types.Value {
	return t.blank
}

// Cells returns a copy of the materialised cells, leftmost first.
func (t *Tape) Cells() []types.Value {
	out := make([]types.Value, t.hi-t.lo)
	copy(out, t.buf[t.lo:t.hi])
	return out
}

// Index returns the head position relative to the leftmost materialised cell.
func (t *Tape) Index() int {
	return t.head - t.lo
}

// Clone returns an independent copy.
func (t *Tape) Clone() *Tape {
	c := *t
	c.buf = make([]types.Value, len(t.buf), cap(t.buf))
	copy(c.buf, t.buf)
	return &c
}

// Value converts the tape to the host representation (head . contents), with head normalised
// to an index into contents.
func (t *Tape) Value() types.Value {
	return types.Cons(types.Integer(t.Index()), types.List(t.Cells()...))
}

// String renders the materialised cells with the head cell bracketed, e.g. 1 1 [#].
func (t *Tape) String() string {
	var sb strings.Builder
	for i := t.lo; i < t.hi; i++ {
		if i > t.lo {
			sb.WriteByte(' ')
		}
		sym := types.Display(t.buf[i])
		if i == t.head {
			sb.WriteString("[" + sym + "]")
		} else {
			sb.WriteString(sym)
		}
	}
	return sb.String()
}

func (t *Tape) growLeft() {
	if t.lo == 0 {
		extra := max(len(t.buf), 8)
		nb := make([]types.Value, extra+len(t.buf), extra+cap(t.buf))
		copy(nb[extra:], t.buf)
		t.buf = nb
		t.lo += extra
		t.hi += extra
		t.zero += extra
		t.head += extra
	}
	t.lo--
	t.buf[t.lo] = t.blank
}

func (t *Tape) growRight() {
	if t.hi == len(t.buf) {
		t.buf = append(t.buf, t.blank)
	} else {
		t.buf[t.hi] = t.blank
	}
	t.hi++
}
