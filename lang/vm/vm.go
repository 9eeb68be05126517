// Package vm implements WTF's threaded-code interpreter (§4.9): a dispatch
// loop executing (opcode, datum) pairs out of a lang/codeseg.Segment,
// operating on a data stack and the shared variable table the compiler
// built.
//
// Grounded on lang/machine/machine.go's run loop (an explicit pc, a labeled
// "loop:" for + switch over opcodes, a call-frame stack pushed/popped by
// CALL/RET) — reduced from Starlark's register-window-per-Funcode model to
// WTF's much simpler single shared data stack plus a flat per-segment pc,
// since WTF's "functions" have no parameters, locals or closures of their
// own (§4.5: a CMD/PROC/FUNC body only ever reads/writes the single shared
// variable table V).
package vm

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/token"
	"github.com/pcaressa/wtf/lang/value"
)

// FileSystem is the external collaborator FOPEN uses to reach the real
// filesystem (§5, §6), injected so tests can run without touching disk.
type FileSystem interface {
	Open(name, mode string) (*value.FileHandle, error)
}

// frame is one call-stack entry: the code segment currently executing and
// its program counter.
type frame struct {
	seg codeseg.Ref
	pc  int
}

// VM executes a compiled WTF program.
type VM struct {
	Codes *codeseg.Table
	Vars  []value.Value
	Out   io.Writer
	Files FileSystem

	stack []value.Value
	calls []frame
}

// New returns a VM ready to run a program compiled against codes and vars
// (the same Table and variable slice lang/compiler produced — WTF's
// variable slots are allocated at compile time but read and written here).
func New(codes *codeseg.Table, vars []value.Value, out io.Writer, files FileSystem) *VM {
	return &VM{Codes: codes, Vars: vars, Out: out, Files: files}
}

// Run executes the code segment referenced by entry (ordinarily
// codeseg.TopLevel) to completion.
func (vm *VM) Run(entry codeseg.Ref) error {
	vm.calls = append(vm.calls, frame{seg: entry})

loop:
	for len(vm.calls) > 0 {
		fr := &vm.calls[len(vm.calls)-1]
		seg := vm.Codes.Get(fr.seg)
		if fr.pc >= seg.Len() {
			vm.calls = vm.calls[:len(vm.calls)-1]
			continue loop
		}
		instr := seg.At(fr.pc)
		fr.pc++

		switch instr.Op {
		case opcode.PUSH:
			vm.push(instr.Datum)

		case opcode.JP:
			fr.pc = int(instr.Datum.(value.Address))

		case opcode.JPZ:
			n, err := vm.popNumber()
			if err != nil {
				return err
			}
			if !n.Truth() {
				fr.pc = int(instr.Datum.(value.Address))
			}

		case opcode.CALL:
			vm.calls = append(vm.calls, frame{seg: instr.Datum.(codeseg.Ref)})

		case opcode.RET:
			vm.calls = vm.calls[:len(vm.calls)-1]

		case opcode.VPUSH:
			vm.push(vm.Vars[int(instr.Datum.(value.Address))])

		case opcode.VSTORE:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			vm.Vars[int(instr.Datum.(value.Address))] = v

		case opcode.VINCR:
			i := int(instr.Datum.(value.Address))
			n, err := asNumber(vm.Vars[i])
			if err != nil {
				return err
			}
			vm.Vars[i] = n + 1

		case opcode.VDECR:
			i := int(instr.Datum.(value.Address))
			n, err := asNumber(vm.Vars[i])
			if err != nil {
				return err
			}
			vm.Vars[i] = n - 1

		case opcode.IPUSH:
			if err := vm.doIpush(); err != nil {
				return err
			}

		case opcode.ISTORE:
			if err := vm.doIstore(instr); err != nil {
				return err
			}

		case opcode.ADD, opcode.SUB, opcode.MUL, opcode.DIV, opcode.MOD,
			opcode.AND, opcode.OR, opcode.LT, opcode.LE, opcode.GT, opcode.GE, opcode.EQ, opcode.NE:
			if err := vm.binary(instr.Op); err != nil {
				return err
			}

		case opcode.NEG, opcode.ABS, opcode.ROUND, opcode.RAND, opcode.NOT:
			if err := vm.unary(instr.Op); err != nil {
				return err
			}

		case opcode.PRINT:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			fmt.Fprint(vm.Out, v.String())

		case opcode.SPUSH:
			if err := vm.doSpush(); err != nil {
				return err
			}
		case opcode.SPOP:
			if err := vm.doSpop(); err != nil {
				return err
			}
		case opcode.STOS:
			if err := vm.doStos(); err != nil {
				return err
			}
		case opcode.SLEN:
			if err := vm.doSlen(); err != nil {
				return err
			}

		case opcode.FOPEN:
			if err := vm.doFopen(); err != nil {
				return err
			}
		case opcode.FCLOSE:
			if err := vm.doFclose(); err != nil {
				return err
			}
		case opcode.FGET:
			if err := vm.doFget(); err != nil {
				return err
			}
		case opcode.FPUT:
			if err := vm.doFput(); err != nil {
				return err
			}

		case opcode.DUP:
			if err := vm.doDup(); err != nil {
				return err
			}
		case opcode.DROP:
			if _, err := vm.pop(); err != nil {
				return err
			}
		case opcode.SWAP:
			if err := vm.doSwap(); err != nil {
				return err
			}
		case opcode.OVER:
			if err := vm.doOver(); err != nil {
				return err
			}

		default:
			return diag.NewFatal(token.NoPos, "illegal opcode in code stream: %s", instr.Op)
		}
	}
	return nil
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) == 0 {
		return nil, diag.NewFatal(token.NoPos, "data stack underflow")
	}
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v, nil
}

func (vm *VM) popNumber() (value.Number, error) {
	v, err := vm.pop()
	if err != nil {
		return 0, err
	}
	return asNumber(v)
}

func asNumber(v value.Value) (value.Number, error) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, diag.NewFatal(token.NoPos, "expected a number, got %s", v.Type())
	}
	return n, nil
}

// binary implements ADD/SUB/MUL/DIV/MOD/AND/OR/comparisons (§4.4). Operands
// are popped in reverse emission order: y is popped first (it was pushed
// last), x second, so SUB/DIV must compute x-y / x/y, not y-x / y/x.
func (vm *VM) binary(op opcode.Opcode) error {
	y, err := vm.popNumber()
	if err != nil {
		return err
	}
	x, err := vm.popNumber()
	if err != nil {
		return err
	}
	switch op {
	case opcode.ADD:
		vm.push(x + y)
	case opcode.SUB:
		vm.push(x - y)
	case opcode.MUL:
		vm.push(x * y)
	case opcode.DIV:
		if y == 0 {
			return diag.NewFatal(token.NoPos, "division by zero")
		}
		vm.push(x / y)
	case opcode.MOD:
		if y == 0 {
			return diag.NewFatal(token.NoPos, "modulo by zero")
		}
		vm.push(value.Number(math.Mod(float64(x), float64(y))))
	case opcode.AND:
		vm.push(value.Bool(x.Truth() && y.Truth()))
	case opcode.OR:
		vm.push(value.Bool(x.Truth() || y.Truth()))
	case opcode.LT:
		vm.push(value.Bool(x < y))
	case opcode.LE:
		vm.push(value.Bool(x <= y))
	case opcode.GT:
		vm.push(value.Bool(x > y))
	case opcode.GE:
		vm.push(value.Bool(x >= y))
	case opcode.EQ:
		vm.push(value.Bool(x == y))
	case opcode.NE:
		vm.push(value.Bool(x != y))
	}
	return nil
}

// unary implements NEG/ABS/ROUND/RAND/NOT, the opcodes §4.4 calls out as the
// exception to "arithmetic pops two Numbers".
func (vm *VM) unary(op opcode.Opcode) error {
	n, err := vm.popNumber()
	if err != nil {
		return err
	}
	switch op {
	case opcode.NEG:
		vm.push(-n)
	case opcode.ABS:
		vm.push(value.Number(math.Abs(float64(n))))
	case opcode.ROUND:
		vm.push(value.Number(math.Round(float64(n))))
	case opcode.RAND:
		vm.push(value.Number(rand.Float64() * float64(n)))
	case opcode.NOT:
		vm.push(value.Bool(!n.Truth()))
	}
	return nil
}

// doIpush implements IPUSH (§3, §9): pop an index, pop a UserStack, push the
// element at that index. Negative indices count from the tail
// (Python-style, §9's decision), via value.UserStack.Index.
func (vm *VM) doIpush() error {
	idx, err := vm.popNumber()
	if err != nil {
		return err
	}
	sv, err := vm.pop()
	if err != nil {
		return err
	}
	s, ok := sv.(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "IPUSH: expected a stack, got %s", sv.Type())
	}
	v, ok := s.Index(int(idx))
	if !ok {
		return diag.NewFatal(token.NoPos, "index %d out of range for a stack of length %d", int(idx), s.Len())
	}
	vm.push(v)
	return nil
}

// doIstore implements ISTORE (§3): pop a value, pop an index; V[Datum][index]
// = value. Datum names the variable slot holding the target UserStack.
func (vm *VM) doIstore(instr codeseg.Instr) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	idx, err := vm.popNumber()
	if err != nil {
		return err
	}
	slot := int(instr.Datum.(value.Address))
	s, ok := vm.Vars[slot].(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "ISTORE: variable is not a stack")
	}
	if !s.SetIndex(int(idx), v) {
		return diag.NewFatal(token.NoPos, "index %d out of range for a stack of length %d", int(idx), s.Len())
	}
	return nil
}

func (vm *VM) doSpush() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	sv, err := vm.pop()
	if err != nil {
		return err
	}
	s, ok := sv.(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "PUSH: expected a stack, got %s", sv.Type())
	}
	s.Push(v)
	return nil
}

func (vm *VM) doSpop() error {
	sv, err := vm.pop()
	if err != nil {
		return err
	}
	s, ok := sv.(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "POP: expected a stack, got %s", sv.Type())
	}
	v, ok := s.Pop()
	if !ok {
		return diag.NewFatal(token.NoPos, "POP: stack is empty")
	}
	vm.push(v)
	return nil
}

func (vm *VM) doStos() error {
	sv, err := vm.pop()
	if err != nil {
		return err
	}
	s, ok := sv.(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "TOP: expected a stack, got %s", sv.Type())
	}
	v, ok := s.Index(-1)
	if !ok {
		return diag.NewFatal(token.NoPos, "TOP: stack is empty")
	}
	vm.push(v)
	return nil
}

func (vm *VM) doSlen() error {
	sv, err := vm.pop()
	if err != nil {
		return err
	}
	s, ok := sv.(*value.UserStack)
	if !ok {
		return diag.NewFatal(token.NoPos, "LEN: expected a stack, got %s", sv.Type())
	}
	vm.push(value.Number(s.Len()))
	return nil
}

func (vm *VM) doFopen() error {
	mode, err := vm.pop()
	if err != nil {
		return err
	}
	name, err := vm.pop()
	if err != nil {
		return err
	}
	if vm.Files == nil {
		return diag.NewFatal(token.NoPos, "FOPEN used but no filesystem is configured")
	}
	fh, err := vm.Files.Open(name.String(), mode.String())
	if err != nil {
		return diag.NewFatal(token.NoPos, "FOPEN %s: %v", name.String(), err)
	}
	vm.push(fh)
	return nil
}

func (vm *VM) doFclose() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	fh, ok := v.(*value.FileHandle)
	if !ok {
		return diag.NewFatal(token.NoPos, "FCLOSE: expected a file, got %s", v.Type())
	}
	if fh.IsClosed() {
		return diag.NewFatal(token.NoPos, "FCLOSE: file %s is already closed", fh.Name)
	}
	if err := fh.Close(); err != nil {
		return diag.NewFatal(token.NoPos, "FCLOSE %s: %v", fh.Name, err)
	}
	fh.MarkClosed()
	return nil
}

func (vm *VM) doFget() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	fh, ok := v.(*value.FileHandle)
	if !ok {
		return diag.NewFatal(token.NoPos, "FGET: expected a file, got %s", v.Type())
	}
	b, ok, rerr := fh.ReadByte()
	if rerr != nil {
		return diag.NewFatal(token.NoPos, "FGET %s: %v", fh.Name, rerr)
	}
	if !ok {
		vm.push(value.Nil)
		return nil
	}
	vm.push(value.Text(string(rune(b))))
	return nil
}

// doFput implements FPUT. §9 flags that the original source calls
// `chr(int(POP))` where POP is a function reference, not a call — a bug
// that would write the character "<built-in function POP>" instead of a
// popped character code. WTF implements the evidently-intended corrected
// behavior: pop a Number, truncate to a byte, write it.
func (vm *VM) doFput() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	fh, ok := v.(*value.FileHandle)
	if !ok {
		return diag.NewFatal(token.NoPos, "FPUT: expected a file, got %s", v.Type())
	}
	code, err := vm.popNumber()
	if err != nil {
		return err
	}
	if werr := fh.WriteByte(byte(int(code))); werr != nil {
		return diag.NewFatal(token.NoPos, "FPUT %s: %v", fh.Name, werr)
	}
	return nil
}

func (vm *VM) doDup() error {
	if len(vm.stack) == 0 {
		return diag.NewFatal(token.NoPos, "data stack underflow")
	}
	vm.push(vm.stack[len(vm.stack)-1])
	return nil
}

func (vm *VM) doSwap() error {
	n := len(vm.stack)
	if n < 2 {
		return diag.NewFatal(token.NoPos, "data stack underflow")
	}
	vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
	return nil
}

func (vm *VM) doOver() error {
	n := len(vm.stack)
	if n < 2 {
		return diag.NewFatal(token.NoPos, "data stack underflow")
	}
	vm.push(vm.stack[n-2])
	return nil
}
