// Package dump implements WTF's three introspection printers (§6):
// --dump-obj (disassemble every code segment), --dump-dict (list the
// dictionary), --dump-vars (list the variable table's current contents).
//
// Grounded on lang/ast/printer.go's shape: a Printer struct holding an
// io.Writer plus formatting options, with one Print-style method per thing
// it knows how to render, accumulating the first write error instead of
// checking fmt.Fprint's return value at every call site.
package dump

import (
	"fmt"
	"io"

	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/dict"
	"github.com/pcaressa/wtf/lang/value"
)

// Printer renders a compiled program's internal state in the plain text
// form the wtf CLI's --dump-* flags print (§6).
type Printer struct {
	Output io.Writer

	err error
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.Output, format, args...)
}

// Object disassembles every code segment in codes, one per Ref, in the
// "segment <ref>:\n  <idx>: <OP> <datum>" form (§6). Ref 0 is always the top-level
// segment (codeseg.TopLevel).
func (p *Printer) Object(codes *codeseg.Table) error {
	for r := 0; r < codes.Len(); r++ {
		seg := codes.Get(codeseg.Ref(r))
		p.printf("segment %d:\n", r)
		for i := 0; i < seg.Len(); i++ {
			instr := seg.At(i)
			p.printf("  %4d: %-8s %s\n", i, instr.Op, instr.Datum)
		}
	}
	return p.err
}

// Dict lists every entry currently in d, in insertion order, as
// "<name> priority=<p> op=<op> datum=<datum>", with the name, priority and
// op fields space-padded into columns (§6). Shadowed entries
// (earlier insertions of a name later re-inserted) are listed too, in the
// order they were defined — Dict mirrors the dictionary's raw contents, not
// just what Lookup currently resolves to.
func (p *Printer) Dict(d *dict.Dictionary) error {
	for i := 0; i < d.Len(); i++ {
		e := d.Entry(i)
		p.printf("%-12s priority=%-3d op=%-8s datum=%s\n", e.Name, e.Priority, e.Op, e.Datum)
	}
	return p.err
}

// Vars lists the variable table's current values by slot index (§6). A Nil
// slot prints as "nil" via value.Nil's own String method.
func (p *Printer) Vars(vars []value.Value) error {
	for i, v := range vars {
		p.printf("%4d: %s\n", i, v)
	}
	return p.err
}
