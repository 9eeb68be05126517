package compiler

import (
	"github.com/pcaressa/wtf/lang/dict"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/value"
)

// Priority tiers for the binary/unary operator words (§4.3's "numeric
// priority controls precedence; higher binds tighter; equal priority
// flushes left-associatively"). Words that only ever appear as statement-
// level consumers of a fully-reduced expression (PRINT and friends) sit at
// the lowest tier so they always force every pending operator to resolve
// first — §8 scenario 1 ("1 + 2 * 3 PRINT" -> 7.0) only works if PRINT
// itself defers behind both + and *, rather than firing the moment it's
// read.
//
// priAction and priAssign both sit at or above 5, the flush threshold
// OD and NEXT use to drain a loop body's last statement when it isn't
// terminated by a NEWLINE (e.g. "... LET i = i + 1 OD" on one line): any
// tier below 5 would leave that trailing word stranded on the deferred
// stack past the loop's closing jump. priAssign additionally sits above
// priAction — VSTORE must out-rank a plain statement-level consumer so a
// pending assignment flushes ahead of, not behind, a PRINT/NOT/etc. queued
// earlier on the same line — while staying below priLogic/priCmp/priAdd/
// priMul so that compiling any operator on the assignment's own
// right-hand side, which flushes at its own tier before deferring itself,
// never pops the still-pending VSTORE out from under an expression that
// hasn't finished reducing yet.
const (
	priMul    uint8 = 40
	priAdd    uint8 = 30
	priCmp    uint8 = 20
	priLogic  uint8 = 10
	priAssign uint8 = 7
	priAction uint8 = 5
)

// word is one bootstrap dictionary entry: a name, its priority, and the
// opcode it compiles to (datum is always Nil for primitives; DEF/STACK fill
// in a real datum per declaration).
type word struct {
	name     string
	priority uint8
	op       opcode.Opcode
}

// builtins lists every primitive word the dictionary starts with. Control-
// flow and declaration keywords are priority 0 (their opcode dispatches
// through the compiler's immediate-action table, registerActions);
// arithmetic/comparison/logic words sit in the precedence ladder; the
// remaining "statement-level consumer" words share the lowest non-zero
// tier so a pending expression always resolves before they fire.
var builtins = []word{
	// arithmetic
	{"+", priAdd, opcode.ADD},
	{"-", priAdd, opcode.SUB},
	{"*", priMul, opcode.MUL},
	{"/", priMul, opcode.DIV},
	{"%", priMul, opcode.MOD},

	// comparisons
	{"<", priCmp, opcode.LT},
	{"<=", priCmp, opcode.LE},
	{">", priCmp, opcode.GT},
	{">=", priCmp, opcode.GE},
	{"==", priCmp, opcode.EQ},
	{"!=", priCmp, opcode.NE},

	// logic
	{"AND", priLogic, opcode.AND},
	{"OR", priLogic, opcode.OR},

	// unary math and statement-level consumers (§4.4)
	{"NEG", priAction, opcode.NEG},
	{"ABS", priAction, opcode.ABS},
	{"ROUND", priAction, opcode.ROUND},
	{"RAND", priAction, opcode.RAND},
	{"NOT", priAction, opcode.NOT},
	{"PRINT", priAction, opcode.PRINT},

	// user-stack words (§4.4)
	{"PUSH", priAction, opcode.SPUSH},
	{"POP", priAction, opcode.SPOP},
	{"TOP", priAction, opcode.STOS},
	{"LEN", priAction, opcode.SLEN},

	// file words (§4.4, §6)
	{"FOPEN", priAction, opcode.FOPEN},
	{"FCLOSE", priAction, opcode.FCLOSE},
	{"FGET", priAction, opcode.FGET},
	{"FPUT", priAction, opcode.FPUT},

	// derived stack words (SUPPLEMENTED FEATURES), implemented as their own
	// opcodes rather than self-hosted CMD bodies, for the same reason the
	// teacher's primitives are plain opcode-dispatched VM cases rather than
	// bytecode-compiled standard-library procedures.
	//
	// Unlike PRINT/NEG/PUSH/..., these are pure Forth-style stack-effect
	// words with no operand-gathering role of their own: their whole meaning
	// is "do this now, at this point in the word stream." Deferring them at
	// priAction like a statement-level consumer would let a later, merely
	// higher-priority operator (e.g. + at priAdd) jump the queue and flush
	// first, reordering a DUP/SWAP/OVER relative to arithmetic that must
	// see its effect — so they compile at dict.Literal instead, emitting
	// directly in textual order exactly like a number literal or VPUSH.
	{"DUP", dict.Literal, opcode.DUP},
	{"DROP", dict.Literal, opcode.DROP},
	{"SWAP", dict.Literal, opcode.SWAP},
	{"OVER", dict.Literal, opcode.OVER},

	// control-flow and declaration keywords: priority 0, dispatched through
	// the compiler's immediate-action table (registerActions).
	{"IF", 0, opcode.IF},
	{"THEN", 0, opcode.THEN},
	{"ELIF", 0, opcode.ELIF},
	{"ELSE", 0, opcode.ELSE},
	{"FI", 0, opcode.FI},

	{"WHILE", 0, opcode.WHILE},
	{"DO", 0, opcode.DO},
	{"OD", 0, opcode.OD},

	{"FOR", 0, opcode.FOR},
	{"TO", 0, opcode.TO},
	{"NEXT", 0, opcode.NEXT},

	{"CMD", 0, opcode.CMD},
	{"PROC", 0, opcode.PROC},
	{"FUNC", 0, opcode.FUNC},
	{"END", 0, opcode.END},

	{"DEF", 0, opcode.DEF},
	{"LET", 0, opcode.LET},
	{"STACK", 0, opcode.STACK},

	{"INCLUDE", 0, opcode.INCLUDE},

	// lexer self-delimiters routed through the dictionary like any other
	// word (§4.1: a self-delimiter is a complete one-byte word, looked up
	// exactly like a letter run).
	{"(", 0, opcode.OPENPAR},
	{")", 0, opcode.CLOSEPAR},
	{"[", 0, opcode.OPENBRA},
	{"]", 0, opcode.CLOSEBRA},
	{"\"", 0, opcode.STRCONST},
	{"\\", 0, opcode.COMMENT},
	{"\n", 0, opcode.NEWLINE},
}

// bootstrap installs every builtin word into a fresh dictionary (§4.2).
func (c *Compiler) bootstrap() {
	for _, w := range builtins {
		c.Dict.Insert(w.name, w.priority, w.op, value.Nil)
	}
}
