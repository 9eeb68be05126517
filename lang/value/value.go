// Package value implements WTF's runtime value model (§3): a small, closed
// tagged union manipulated by both the compiler (deferred-stack operands)
// and the virtual machine (data-stack operands).
package value

import (
	"fmt"
	"strconv"
)

// Value is implemented by every concrete WTF value. Unlike the teacher's
// Value interface, which grows capability interfaces (Ordered, HasBinary,
// HasAttrs, ...) for a large extensible type lattice, WTF's value set is
// closed and small (§3 lists exactly six variants), so arithmetic and
// comparison are dispatched centrally by lang/vm rather than through
// per-type methods.
type Value interface {
	// String returns the textual form used by PRINT and the dump printers.
	String() string
	// Type names the value's dynamic type, used in type-mismatch diagnostics.
	Type() string
}

// Number is WTF's only numeric type: an IEEE-754 double. Booleans are
// encoded as 0.0/1.0 (§3).
type Number float64

var _ Value = Number(0)

func (n Number) String() string {
	// Matches the canonical scenarios in §8 ("PRINT" yields "7.0", "42.0"):
	// %g would print "7" for an integral float, so format explicitly with one
	// decimal when the value is integral, falling back to %g otherwise.
	if n == Number(int64(n)) && !isExtreme(float64(n)) {
		return strconv.FormatFloat(float64(n), 'f', 1, 64)
	}
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func isExtreme(f float64) bool {
	return f > 1e15 || f < -1e15
}

func (n Number) Type() string { return "number" }

// Truth reports whether n is considered true: any non-zero number (§4.4).
func (n Number) Truth() bool { return n != 0 }

// Bool encodes a Go bool as the canonical Number WTF uses for booleans.
func Bool(b bool) Number {
	if b {
		return Number(1)
	}
	return Number(0)
}

// Text is WTF's immutable byte-string type.
type Text string

var _ Value = Text("")

func (t Text) String() string { return string(t) }
func (t Text) Type() string   { return "text" }

// Nil is WTF's absence-of-value. It is a singleton; compare with Value
// equality (interface comparison) or IsNil rather than constructing nilType{}.
type nilType struct{}

func (nilType) String() string { return "nil" }
func (nilType) Type() string   { return "nil" }

// Nil is the unique WTF nil value.
var Nil Value = nilType{}

// IsNil reports whether v is the WTF nil value.
func IsNil(v Value) bool {
	_, ok := v.(nilType)
	return ok
}

// Address is a non-negative integer index into the code stream or the
// variable table, depending on the opcode that produced or consumes it
// (§3). Code segments are referenced by lang/codeseg.Ref, not by Address.
type Address int

var _ Value = Address(0)

func (a Address) String() string { return fmt.Sprintf("@%d", int(a)) }
func (a Address) Type() string   { return "address" }

// UserStack is a heap-allocated, growable sequence of Value, the backing
// store for WTF's STACK declarations and the SPUSH/SPOP/STOS/SLEN/IPUSH/
// ISTORE opcodes (§3, §4.4).
type UserStack struct {
	items []Value
}

var _ Value = (*UserStack)(nil)

// NewUserStack returns an empty user stack with room for at least cap
// elements without reallocating.
func NewUserStack(cap int) *UserStack {
	return &UserStack{items: make([]Value, 0, cap)}
}

func (s *UserStack) String() string { return fmt.Sprintf("stack(%d)", len(s.items)) }
func (s *UserStack) Type() string   { return "stack" }

// Push appends v to the top of the stack.
func (s *UserStack) Push(v Value) { s.items = append(s.items, v) }

// Pop removes and returns the top of the stack. ok is false on an empty
// stack.
func (s *UserStack) Pop() (v Value, ok bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	n := len(s.items) - 1
	v = s.items[n]
	s.items = s.items[:n]
	return v, true
}

// Len returns the number of elements currently on the stack.
func (s *UserStack) Len() int { return len(s.items) }

// resolveIndex applies §9's decision on negative indices: Python-style
// indexing from the tail, so -1 is the last element. It returns the
// resolved non-negative index and whether it is in range.
func (s *UserStack) resolveIndex(i int) (int, bool) {
	if i < 0 {
		i += len(s.items)
	}
	if i < 0 || i >= len(s.items) {
		return 0, false
	}
	return i, true
}

// Index returns the element at i (§9: negative i counts from the tail), and
// whether i was in range.
func (s *UserStack) Index(i int) (Value, bool) {
	idx, ok := s.resolveIndex(i)
	if !ok {
		return nil, false
	}
	return s.items[idx], true
}

// SetIndex assigns v to the element at i (§9: same negative-index
// convention as Index), reporting whether i was in range.
func (s *UserStack) SetIndex(i int, v Value) bool {
	idx, ok := s.resolveIndex(i)
	if !ok {
		return false
	}
	s.items[idx] = v
	return true
}

// FileHandle is an opaque handle to an open file, produced by FOPEN and
// consumed by FCLOSE/FGET/FPUT (§6).
type FileHandle struct {
	Name   string
	Mode   string
	closed bool

	// reader/writer are set by the io adapter that actually owns the *os.File;
	// FileHandle itself stays free of an os.File field so lang/value has no
	// direct file-system dependency (kept in internal/sourceio, see §5's
	// "scoped acquisition" resource model).
	ReadByte  func() (byte, bool, error)
	WriteByte func(byte) error
	Close     func() error
}

var _ Value = (*FileHandle)(nil)

func (f *FileHandle) String() string { return fmt.Sprintf("file(%s)", f.Name) }
func (f *FileHandle) Type() string   { return "file" }

// IsClosed reports whether FCLOSE has already run on this handle.
func (f *FileHandle) IsClosed() bool { return f.closed }

// MarkClosed records that the handle has been closed; lang/vm's FCLOSE calls
// this after Close succeeds so repeated FCLOSE calls fail loudly instead of
// reusing a closed *os.File.
func (f *FileHandle) MarkClosed() { f.closed = true }
