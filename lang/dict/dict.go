// Package dict implements WTF's dictionary (§4.2): an ordered, append-only
// table of (name, priority, opcode, datum) quadruples with LIFO scoping —
// lookup favors the most recently inserted entry for a given name, and a
// block's END truncates the table back to a watermark, dropping its locals.
//
// The source-language layout is "a flat list, scanned from the tail
// backward" on every lookup, which is O(n) per miss and runs once per
// compiled word. Exactly as lang/machine/map.go backs the teacher's map
// builtin with a swiss.Map for O(1) average key lookup, dict keeps the flat
// slice as the scoping source of truth but adds a swiss.Map index from name
// to the stack of slot indices sharing that name, so Lookup no longer has
// to walk the whole table.
package dict

import (
	"github.com/dolthub/swiss"

	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/value"
)

// Entry is one dictionary quadruple (§3).
type Entry struct {
	Name     string
	Priority uint8
	Op       opcode.Opcode
	Datum    value.Value
}

// Priority sentinels (§3).
const (
	Immediate = 0   // runs at compile time
	Literal   = 255 // emitted directly to the code stream
)

// Dictionary is WTF's word table: an ordered slice of Entry plus a swiss.Map
// shadow index from name to the stack of slice indices sharing that name.
type Dictionary struct {
	entries []Entry
	index   *swiss.Map[string, []int32]
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{index: swiss.NewMap[string, []int32](64)}
}

// Len returns the number of entries currently in the dictionary.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entry returns the entry at index i. It panics if i is out of range: a
// compiler-internal bug, not a user-facing condition.
func (d *Dictionary) Entry(i int) Entry { return d.entries[i] }

// Insert appends a new entry, returning its index. Word shadowing is
// permitted (§9 open question: double-definition) — a later Insert with
// the same name simply becomes the one Lookup returns until it is truncated
// away or shadowed again.
func (d *Dictionary) Insert(name string, priority uint8, op opcode.Opcode, datum value.Value) int {
	idx := len(d.entries)
	d.entries = append(d.entries, Entry{Name: name, Priority: priority, Op: op, Datum: datum})

	stack, _ := d.index.Get(name)
	stack = append(stack, int32(idx))
	d.index.Put(name, stack)
	return idx
}

// Lookup returns the index of the innermost (most recently inserted, still
// live) entry named name, and whether one exists.
func (d *Dictionary) Lookup(name string) (int, bool) {
	stack, ok := d.index.Get(name)
	if !ok || len(stack) == 0 {
		return 0, false
	}
	return int(stack[len(stack)-1]), true
}

// Watermark returns the current length of the dictionary, to be recorded on
// the parse stack by BEGIN and restored by the matching END/Truncate
// (§4.5).
func (d *Dictionary) Watermark() int { return d.Len() }

// Truncate pops entries until the dictionary has exactly n entries (§4.2,
// §4.5's END). It is the caller's responsibility to ensure n <= Len().
func (d *Dictionary) Truncate(n int) {
	for i := len(d.entries) - 1; i >= n; i-- {
		name := d.entries[i].Name
		stack, _ := d.index.Get(name)
		if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			d.index.Put(name, nil)
		} else {
			d.index.Put(name, stack)
		}
	}
	d.entries = d.entries[:n]
}
