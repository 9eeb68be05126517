// Package compiler implements WTF's priority-shunt compiler core (§4.3):
// the word-at-a-time loop that turns dictionary lookups and number literals
// into a code stream, deferring operators until precedence says to flush
// them, plus the control-flow protocol (§4.5), parens/brackets (§4.6),
// strings/comments/newlines (§4.7) and INCLUDE (§4.8) built on top of it.
//
// Grounded on lang/compiler/asm.go's program-assembly pass (turning a linear
// instruction stream into patched jump targets) and lang/resolver/
// resolver.go's scoped block handling, adapted from static AST resolution to
// WTF's online, word-at-a-time model — there is no separate parse tree here,
// only the deferred-stack (D) and parse-stack (P) state the shunt threads
// through one pass.
package compiler

import (
	"strconv"

	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/dict"
	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/lexer"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/pstack"
	"github.com/pcaressa/wtf/lang/token"
	"github.com/pcaressa/wtf/lang/value"
)

// deferredItem is one entry on the compiler's deferred stack D (§3, §4.3):
// either an operator triple awaiting a higher-or-equal-priority flush, or an
// opaque barrier pushed by OPENPAR/OPENBRA (§4.6) that compile_words must
// never pop past.
type deferredItem struct {
	barrier bool
	closer  opcode.Opcode // valid only when barrier is true

	datum    value.Value
	op       opcode.Opcode
	priority uint8
}

// immediateAction is the Go implementation a priority-0 dictionary entry's
// opcode dispatches to (§4.3: "If p == 0: invoke op(v) immediately").
type immediateAction func(c *Compiler, datum value.Value) error

// Compiler holds all state threaded through one compilation: the dictionary,
// the code-segment table, the parse stack P, the deferred stack D, the
// variable table V, and the current source position.
type Compiler struct {
	Dict  *dict.Dictionary
	Codes *codeseg.Table
	Files FileOpener

	p *pstack.Stack
	d []deferredItem

	vars []value.Value

	cur codeseg.Ref // the code stream currently being emitted to

	lex     *lexer.Lexer
	srcName string
	line    int

	pendingFor []int // slot indices stashed by FOR, consumed by TO (nested loops stack)

	Errs *diag.Recorder

	actions map[opcode.Opcode]immediateAction
}

// FileOpener is the external collaborator INCLUDE uses to reach the
// filesystem (FOPEN goes through lang/vm's own FileSystem), kept as a narrow interface
// so tests can supply an in-memory stand-in (§5's "scoped acquisition"
// resource model: file I/O is a peripheral, injected concern).
type FileOpener interface {
	Open(name string) (ReadCloserByte, error)
}

// ReadCloserByte is the minimal surface INCLUDE needs from an opened source
// file: a byte reader plus Close.
type ReadCloserByte interface {
	ReadByte() (byte, error)
	Close() error
}

// New returns a Compiler ready to compile src under the given source name,
// with a fresh dictionary, code table and variable table.
func New(srcName string, src ReadCloserByte, files FileOpener) *Compiler {
	c := &Compiler{
		Dict:    dict.New(),
		Codes:   codeseg.NewTable(),
		Files:   files,
		p:       pstack.New(),
		cur:     codeseg.TopLevel,
		lex:     lexer.New(src),
		srcName: srcName,
		line:    1,
		Errs:    &diag.Recorder{},
	}
	c.registerActions()
	c.bootstrap()
	return c
}

// pos returns the compiler's current source position.
func (c *Compiler) pos() token.Pos { return token.Pos{Source: c.srcName, Line: c.line} }

// seg returns the code segment currently being emitted to.
func (c *Compiler) seg() *codeseg.Segment { return c.Codes.Get(c.cur) }

// emit appends one instruction to the current segment.
func (c *Compiler) emit(op opcode.Opcode, datum value.Value) int { return c.seg().Emit(op, datum) }

// allocSlot appends a new variable slot initialized to v and returns its
// index (§4.2: DEF/STACK/FOR each allocate one slot).
func (c *Compiler) allocSlot(v value.Value) int {
	c.vars = append(c.vars, v)
	return len(c.vars) - 1
}

// Vars returns the compiler's variable table, V (§3). lang/vm shares this
// same slice at runtime: variable slots are allocated at compile time but
// read and written by both phases.
func (c *Compiler) Vars() []value.Value { return c.vars }

// compile is the priority shunt's core dispatch (§4.3):
//
//	p == 0:   invoke the opcode's compile-time action immediately
//	p == 255: emit (op, datum) directly onto the current code stream
//	else:     flush_words(p), then push (datum, op, p) onto D
func (c *Compiler) compile(p uint8, op opcode.Opcode, datum value.Value) error {
	switch p {
	case dict.Immediate:
		action, ok := c.actions[op]
		if !ok {
			return diag.NewFatal(c.pos(), "no compile-time action registered for %s", op)
		}
		return action(c, datum)
	case dict.Literal:
		c.emit(op, datum)
		return nil
	default:
		c.flush(p)
		c.d = append(c.d, deferredItem{datum: datum, op: op, priority: p})
		return nil
	}
}

// flush implements compile_words(n) (§4.3): pop and emit deferred operator
// triples with priority >= n, left-associatively (LIFO = most recently
// deferred first), stopping at the first barrier or once D no longer has a
// triple meeting the threshold.
func (c *Compiler) flush(n uint8) {
	for len(c.d) > 0 {
		top := c.d[len(c.d)-1]
		if top.barrier || top.priority < n {
			return
		}
		c.d = c.d[:len(c.d)-1]
		c.emit(top.op, top.datum)
	}
}

// pushBarrier pushes an opaque barrier triple onto D (§4.6), closed only by
// drainToBarrier with a matching closer opcode.
func (c *Compiler) pushBarrier(closer opcode.Opcode) {
	c.d = append(c.d, deferredItem{barrier: true, closer: closer})
}

// drainToBarrier implements close_par/close_bra (§4.6): pop and emit
// deferred triples until a barrier with the matching closer is found and
// consumed. It reports a recoverable error on an empty D or a mismatched
// barrier (closing a different bracket kind than the one that opened it).
func (c *Compiler) drainToBarrier(want opcode.Opcode) error {
	for {
		if len(c.d) == 0 {
			return c.recoverable("unmatched %s", want)
		}
		top := c.d[len(c.d)-1]
		c.d = c.d[:len(c.d)-1]
		if top.barrier {
			if top.closer != want {
				return c.recoverable("mismatched bracket: expected %s, found closer for %s", want, top.closer)
			}
			return nil
		}
		c.emit(top.op, top.datum)
	}
}

// recoverable records a recoverable compile error at the current position
// and returns nil, so a caller that returns its result ends the current
// word's processing and the main loop continues with the next word (§7).
func (c *Compiler) recoverable(format string, args ...any) error {
	c.Errs.Errorf(c.pos(), format, args...)
	return nil // recorded, not fatal: the caller keeps going
}

// reportLeftovers reports, at end of compilation, any deferred-stack or
// parse-stack entries that never got flushed/closed — a more specific
// diagnosis than the generic "some error occurred" the source scenario
// describes, since WTF's Recorder can name what is left over.
func (c *Compiler) reportLeftovers() {
	if len(c.d) > 0 {
		top := c.d[len(c.d)-1]
		if top.barrier {
			c.Errs.Error(c.pos(), "unmatched parenthesis or bracket at end of compilation")
		} else {
			c.Errs.Errorf(c.pos(), "%d deferred operator(s) never flushed at end of compilation", len(c.d))
		}
	}
	if c.p.Len() > 0 {
		c.Errs.Errorf(c.pos(), "%d unclosed control structure(s) at end of compilation", c.p.Len())
	}
}

// Compile runs the full compile phase: the top-level word loop, a final
// full flush, and end-of-compilation diagnostics (§7). It returns the
// Compiler, whose Codes, Dict, Vars and Errs hold the result and any
// recoverable errors, plus a non-nil error only when a fatal error stopped
// compilation.
func Compile(srcName string, src ReadCloserByte, files FileOpener) (*Compiler, error) {
	c := New(srcName, src, files)
	if err := c.compileAll(); err != nil {
		return c, err
	}
	c.flush(0)
	c.reportLeftovers()
	return c, nil
}

// compileAll processes words from the compiler's current lexer until EOF
// (§4.3's main loop). It is also INCLUDE's recursive entry point (§4.8):
// the included file's own words run through the exact same loop, sharing
// the enclosing compiler's dictionary, code table and variable table.
func (c *Compiler) compileAll() error {
	for {
		if c.Errs.ShouldAbort() {
			return diag.NewFatal(c.pos(), "too many errors (%d), aborting", c.Errs.Count())
		}
		word := c.lex.ScanWord()
		if word == "" {
			return nil
		}
		if err := c.compileWord(word); err != nil {
			if diag.IsFatal(err) {
				return err
			}
			// recoverable: already recorded via Errs, keep scanning
		}
	}
}

// compileWord dispatches one scanned word: a dictionary lookup, or (on a
// miss) an attempt to parse it as a decimal number literal, or a recoverable
// "unknown word" error (§4.3).
func (c *Compiler) compileWord(word string) error {
	if idx, ok := c.Dict.Lookup(word); ok {
		e := c.Dict.Entry(idx)
		return c.compile(e.Priority, e.Op, e.Datum)
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return c.compile(dict.Literal, opcode.PUSH, value.Number(n))
	}
	return c.recoverable("unknown word %q", word)
}
