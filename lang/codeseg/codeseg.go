// Package codeseg implements WTF's code streams as first-class values
// referenced by stable handles, per §9's design notes: "model code streams
// as owned arrays referenced by stable handles ... not as raw pointers —
// dictionary entries, the VM's active stream, and save frames all alias the
// same logical stream."
//
// Grounded on the teacher's Program/Funcode split in
// lang/compiler/asm.go: one Program owns many Funcodes, each referenced by
// index rather than by pointer identity. WTF's "functions" (the blocks
// CMD/PROC/FUNC open, §4.5) are plainer than Funcode — no locals,
// freevars or cells, just a flat instruction sequence — so a Segment here
// is just the instruction storage itself.
package codeseg

import (
	"strconv"

	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/value"
)

// Instr is one (opcode, datum) pair. The code stream is conceptually the
// flat, even-length, alternating op/datum sequence §3 describes; Segment
// stores it as two parallel slices (struct-of-arrays) instead, which is
// equivalent (len(Ops) == len(Data) is the even-length invariant) and lets
// lang/vm index straight into typed slices instead of re-widening a
// []value.Value on every fetch.
type Instr struct {
	Op    opcode.Opcode
	Datum value.Value
}

// Segment is one growable code stream under construction or execution.
type Segment struct {
	Ops  []opcode.Opcode
	Data []value.Value
}

// Len returns the number of instructions (pairs) in the segment.
func (s *Segment) Len() int { return len(s.Ops) }

// Emit appends one instruction, returning its index.
func (s *Segment) Emit(op opcode.Opcode, datum value.Value) int {
	idx := len(s.Ops)
	s.Ops = append(s.Ops, op)
	s.Data = append(s.Data, datum)
	return idx
}

// At returns the instruction at index i.
func (s *Segment) At(i int) Instr { return Instr{Op: s.Ops[i], Datum: s.Data[i]} }

// Patch rewrites the datum of the instruction at index i — used by the
// control-flow protocol (§4.5) to back-patch jump placeholders once their
// target address is known.
func (s *Segment) Patch(i int, datum value.Value) { s.Data[i] = datum }

// Ref is a stable handle to a Segment held in a Table. Ref(0) is always the
// top-level segment a Table creates in New.
type Ref int

// Table owns every code segment a compilation produces: the top-level
// stream plus one per CMD/PROC/FUNC block (§4.5) and, transitively,
// every INCLUDEd file's contribution merges into its including segment
// rather than creating a new one (§4.8: inclusion is textual).
type Table struct {
	segs []*Segment
}

// NewTable returns a Table pre-populated with one empty top-level segment,
// whose Ref is TopLevel.
func NewTable() *Table {
	t := &Table{}
	t.segs = append(t.segs, &Segment{})
	return t
}

// TopLevel is the Ref of the program's top-level code stream.
const TopLevel Ref = 0

// New allocates a fresh, empty segment and returns its Ref.
func (t *Table) New() Ref {
	t.segs = append(t.segs, &Segment{})
	return Ref(len(t.segs) - 1)
}

// Get returns the segment referenced by r. It panics on an invalid Ref: a
// compiler-internal invariant violation, not a user-facing condition.
func (t *Table) Get(r Ref) *Segment { return t.segs[r] }

// Len returns the number of segments currently in the table (the top-level
// segment plus one per CMD/PROC/FUNC block compiled so far).
func (t *Table) Len() int { return len(t.segs) }

// String satisfies value.Value so a Ref can be stored as a CALL opcode's
// datum (§4.5's "insert_word(p, CALL, <new code stream>)").
func (r Ref) String() string { return "codeseg#" + strconv.Itoa(int(r)) }

// Type satisfies value.Value.
func (r Ref) Type() string { return "codeseg" }

var _ value.Value = Ref(0)
