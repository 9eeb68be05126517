package compiler

import (
	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/dict"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/pstack"
	"github.com/pcaressa/wtf/lang/value"
)

// registerActions builds the dispatch table priority-0 dictionary entries
// invoke (§4.3). Every control-flow, declaration and punctuation word in
// the bootstrap dictionary resolves here; plain runtime opcodes (arithmetic,
// comparisons, stack/file primitives) never appear in this table because
// their dictionary entries are never priority 0.
func (c *Compiler) registerActions() {
	c.actions = map[opcode.Opcode]immediateAction{
		opcode.CALL: actionCall,

		opcode.OPENPAR:  actionOpenPar,
		opcode.CLOSEPAR: actionClosePar,
		opcode.OPENBRA:  actionOpenBra,
		opcode.CLOSEBRA: actionCloseBra,

		opcode.STRCONST: actionStrconst,
		opcode.COMMENT:  actionComment,
		opcode.NEWLINE:  actionNewline,

		opcode.IF:   actionIf,
		opcode.THEN: actionThen,
		opcode.ELIF: actionElif,
		opcode.ELSE: actionElse,
		opcode.FI:   actionFi,

		opcode.WHILE: actionWhile,
		opcode.DO:    actionDo,
		opcode.OD:    actionOd,

		opcode.FOR:  actionFor,
		opcode.TO:   actionTo,
		opcode.NEXT: actionNext,

		opcode.CMD:  actionCmd,
		opcode.PROC: actionProc,
		opcode.FUNC: actionFunc,
		opcode.END:  actionEnd,

		opcode.DEF:   actionDef,
		opcode.LET:   actionLet,
		opcode.STACK: actionStack,

		opcode.INCLUDE: actionInclude,
	}
}

// --- CALL (§4.5's BEGIN family: referencing a CMD/PROC/FUNC-defined word
// whose declared priority happens to be 0 emits CALL exactly where it's
// encountered, with no deferral) ---

func actionCall(c *Compiler, datum value.Value) error {
	c.emit(opcode.CALL, datum)
	return nil
}

// --- parens and brackets (§4.6) ---

func actionOpenPar(c *Compiler, _ value.Value) error {
	c.pushBarrier(opcode.CLOSEPAR)
	return nil
}

func actionClosePar(c *Compiler, _ value.Value) error {
	return c.drainToBarrier(opcode.CLOSEPAR)
}

func actionOpenBra(c *Compiler, _ value.Value) error {
	c.pushBarrier(opcode.CLOSEBRA)
	return nil
}

func actionCloseBra(c *Compiler, _ value.Value) error {
	if err := c.drainToBarrier(opcode.CLOSEBRA); err != nil {
		return err
	}
	c.emit(opcode.IPUSH, value.Nil)
	return nil
}

// --- strings, comments, newlines (§4.7) ---

func actionStrconst(c *Compiler, _ value.Value) error {
	text, found := c.lex.ScanUntil('"')
	if !found {
		return c.fatal("EOF inside string constant")
	}
	c.emit(opcode.PUSH, value.Text(text))
	return nil
}

func actionComment(c *Compiler, _ value.Value) error {
	c.lex.ScanUntil('\n')
	c.line++
	return nil
}

func actionNewline(c *Compiler, _ value.Value) error {
	c.flush(1)
	c.line++
	return nil
}

func (c *Compiler) fatal(format string, args ...any) error {
	return diag.NewFatal(c.pos(), format, args...)
}

// --- IF/THEN/ELIF/ELSE/FI (§4.5) ---

func actionIf(c *Compiler, _ value.Value) error {
	c.flush(1)
	c.p.PushSentinel(pstack.SentFI)
	c.p.PushSentinel(pstack.SentIF)
	return nil
}

func actionThen(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "THEN", pstack.SentIF); err != nil {
		return c.reportMismatch(err)
	}
	c.flush(1)
	idx := c.emit(opcode.JPZ, value.Address(-1))
	c.p.PushAddr(idx)
	c.p.PushSentinel(pstack.SentTHEN)
	return nil
}

func actionElif(c *Compiler, _ value.Value) error {
	if err := c.closeThenBranch("ELIF"); err != nil {
		return err
	}
	c.p.PushSentinel(pstack.SentIF)
	return nil
}

func actionElse(c *Compiler, _ value.Value) error {
	return c.closeThenBranch("ELSE")
}

// closeThenBranch is ELSE and ELIF's shared action: verify THEN, emit a JP
// placeholder past the upcoming branch, patch the THEN's JPZ to land here,
// and push the new placeholder under a fresh ELSE sentinel (§4.5).
func (c *Compiler) closeThenBranch(closer string) error {
	if _, err := c.p.ExpectSentinel(c.pos(), closer, pstack.SentTHEN); err != nil {
		return c.reportMismatch(err)
	}
	jpzPlaceholder := c.p.Pop() // the JPZ placeholder THEN recorded
	c.flush(1)
	idx := c.emit(opcode.JP, value.Address(-1))
	c.seg().Patch(jpzPlaceholder.Addr, value.Address(idx+1))
	c.p.PushAddr(idx)
	c.p.PushSentinel(pstack.SentELSE)
	return nil
}

func actionFi(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "FI", pstack.SentTHEN, pstack.SentELSE); err != nil {
		return c.reportMismatch(err)
	}
	c.flush(1)
	// Patch the branch just verified, then keep walking up through any
	// chained ELIFs (ELSE-then-re-pushed-IF) until the FI sentinel itself
	// is consumed (§4.5).
	branch := c.p.Pop()
	c.seg().Patch(branch.Addr, value.Address(c.seg().Len()))
	for {
		if c.p.Len() == 0 {
			return c.reportMismatch(&pstack.MismatchError{Pos: c.pos(), Closer: "FI", Wanted: "FI", Empty: true})
		}
		top := c.p.Pop()
		switch {
		case top.Kind == pstack.KindSentinel && top.Sentinel == pstack.SentFI:
			return nil
		case top.Kind == pstack.KindSentinel && (top.Sentinel == pstack.SentIF || top.Sentinel == pstack.SentELSE):
			continue // an ELIF's re-pushed IF, or its closeThenBranch's ELSE marker: both already resolved
		case top.Kind == pstack.KindAddr:
			c.seg().Patch(top.Addr, value.Address(c.seg().Len()))
			continue
		default:
			return c.reportMismatch(&pstack.MismatchError{Pos: c.pos(), Closer: "FI", Wanted: "FI", Got: top})
		}
	}
}

func (c *Compiler) reportMismatch(err error) error {
	if err == nil {
		return nil
	}
	c.Errs.Error(c.pos(), err.Error())
	return nil
}

// --- WHILE/DO/OD (§4.5) ---

func actionWhile(c *Compiler, _ value.Value) error {
	c.flush(1)
	c.p.PushAddr(c.seg().Len())
	c.p.PushSentinel(pstack.SentWHILE)
	return nil
}

func actionDo(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "DO", pstack.SentWHILE, pstack.SentFOR); err != nil {
		return c.reportMismatch(err)
	}
	c.flush(1)
	idx := c.emit(opcode.JPZ, value.Address(-1))
	c.p.PushAddr(idx)
	c.p.PushSentinel(pstack.SentDO)
	return nil
}

func actionOd(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "OD", pstack.SentDO); err != nil {
		return c.reportMismatch(err)
	}
	placeholder := c.p.Pop() // DO's JPZ placeholder
	top := c.p.Pop()         // WHILE's loop-top address
	c.flush(5)               // clears a trailing assignment the body never newline-terminated
	jidx := c.emit(opcode.JP, value.Address(top.Addr))
	c.seg().Patch(placeholder.Addr, value.Address(jidx+1))
	return nil
}

// --- FOR/TO/DO/NEXT (§4.5) ---

func actionFor(c *Compiler, _ value.Value) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading FOR's variable name")
	}
	slot, err := c.declareOrLookup(name)
	if err != nil {
		return err
	}
	if w := c.lex.ScanWord(); w != "=" {
		return c.recoverable("missing = in FOR (got %q)", w)
	}
	c.pendingFor = append(c.pendingFor, slot)
	return c.compile(priAssign, opcode.VSTORE, value.Address(slot))
}

func actionTo(c *Compiler, _ value.Value) error {
	if len(c.pendingFor) == 0 {
		return c.recoverable("TO without matching FOR")
	}
	slot := c.pendingFor[len(c.pendingFor)-1]
	c.pendingFor = c.pendingFor[:len(c.pendingFor)-1]

	c.flush(1) // finishes FOR's deferred VSTORE of e1
	top := c.seg().Len()
	c.emit(opcode.VPUSH, value.Address(slot))
	if err := c.compile(20, opcode.LT, value.Nil); err != nil {
		return err
	}
	// e2's words are compiled next by the main loop; DO flushes LT.
	c.p.PushAddr(top)
	c.p.PushAddr(slot)
	c.p.PushSentinel(pstack.SentFOR)
	return nil
}

func actionNext(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "NEXT", pstack.SentDO); err != nil {
		return c.reportMismatch(err)
	}
	placeholder := c.p.Pop() // DO's JPZ placeholder
	slotItem := c.p.Pop()    // the loop variable's slot, from TO
	top := c.p.Pop()         // the loop-top address, from TO
	c.flush(5)               // matches OD: clears a trailing assignment before the increment
	c.emit(opcode.VINCR, value.Address(slotItem.Addr))
	jidx := c.emit(opcode.JP, value.Address(top.Addr))
	c.seg().Patch(placeholder.Addr, value.Address(jidx+1))
	return nil
}

// --- BEGIN family: CMD/PROC/FUNC (§4.5) ---

func actionCmd(c *Compiler, _ value.Value) error  { return c.beginBlock(dict.Immediate) }
func actionProc(c *Compiler, _ value.Value) error { return c.beginBlock(10) }
func actionFunc(c *Compiler, _ value.Value) error { return c.beginBlock(250) }

// beginBlock implements the generic BEGIN(p) helper (§4.5): read the new
// word's name, open a fresh code stream for its body, insert a dictionary
// entry (name, p, CALL, newRef) for it, and remember the watermark (taken
// *after* that insertion, so END restores everything defined inside the
// body while keeping the new word itself — the testable property "dict
// length after END == length before BEGIN + 1") plus the enclosing stream
// to resume once the body closes.
func (c *Compiler) beginBlock(p uint8) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading a block's name")
	}
	old := c.cur
	newRef := c.Codes.New()
	c.Dict.Insert(name, p, opcode.CALL, newRef)
	c.cur = newRef

	c.p.PushCodeRef(old)
	c.p.PushWatermark(c.Dict.Watermark())
	c.p.PushSentinel(pstack.SentBEGIN)
	return nil
}

func actionEnd(c *Compiler, _ value.Value) error {
	if _, err := c.p.ExpectSentinel(c.pos(), "END", pstack.SentBEGIN); err != nil {
		return c.reportMismatch(err)
	}
	c.flush(0) // end-of-block: flush everything, per §4.3
	c.emit(opcode.RET, value.Number(0))

	wm := c.p.Pop()
	c.Dict.Truncate(wm.Addr)
	ref := c.p.Pop()
	c.cur = ref.CodeRef
	return nil
}

// --- DEF/LET/STACK (§9's compile_assignment, generalized) ---

func actionDef(c *Compiler, _ value.Value) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading DEF's variable name")
	}
	if w := c.lex.ScanWord(); w != "=" {
		return c.recoverable("missing = in DEF (got %q)", w)
	}
	slot := c.allocSlot(value.Nil)
	c.Dict.Insert(name, dict.Literal, opcode.VPUSH, value.Address(slot))
	return c.compile(priAssign, opcode.VSTORE, value.Address(slot))
}

func actionLet(c *Compiler, _ value.Value) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading LET's variable name")
	}
	if w := c.lex.ScanWord(); w != "=" {
		return c.recoverable("missing = in LET (got %q)", w)
	}
	slot, err := c.lookupVar(name)
	if err != nil {
		return err
	}
	return c.compile(priAssign, opcode.VSTORE, value.Address(slot))
}

func actionStack(c *Compiler, _ value.Value) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading STACK's variable name")
	}
	slot := c.allocSlot(value.NewUserStack(0))
	c.Dict.Insert(name, dict.Literal, opcode.VPUSH, value.Address(slot))
	return nil
}

// declareOrLookup is FOR's variable binding: reuse an existing DEF'd slot if
// one exists, otherwise implicitly declare one, so "FOR i = 1 TO 10 DO"
// works without a separate DEF (the loop induction variable is a block-local
// convenience, consistent with DEF/STACK/FOR all sharing one slot allocator).
func (c *Compiler) declareOrLookup(name string) (int, error) {
	if idx, ok := c.Dict.Lookup(name); ok {
		e := c.Dict.Entry(idx)
		if e.Op != opcode.VPUSH {
			return 0, c.recoverableErr("%q is not a variable", name)
		}
		return int(e.Datum.(value.Address)), nil
	}
	slot := c.allocSlot(value.Nil)
	c.Dict.Insert(name, dict.Literal, opcode.VPUSH, value.Address(slot))
	return slot, nil
}

func (c *Compiler) lookupVar(name string) (int, error) {
	idx, ok := c.Dict.Lookup(name)
	if !ok {
		return 0, c.recoverableErr("unknown variable %q", name)
	}
	e := c.Dict.Entry(idx)
	if e.Op != opcode.VPUSH {
		return 0, c.recoverableErr("%q is not a variable", name)
	}
	return int(e.Datum.(value.Address)), nil
}

// recoverableErr is like recoverable but returns the errRecovered sentinel
// as an error the caller can use to abort reading the rest of a malformed
// declaration (the message itself is already recorded; returning it is purely
// a control-flow short-circuit, matching recoverable's "nil, recorded"
// contract from the caller's point of view once compileWord sees it).
func (c *Compiler) recoverableErr(format string, args ...any) error {
	c.Errs.Errorf(c.pos(), format, args...)
	return errRecovered{}
}

// errRecovered is a sentinel error type compileWord and friends treat as
// "already recorded, stop processing this statement" rather than fatal.
type errRecovered struct{}

func (errRecovered) Error() string { return "recoverable error already recorded" }
