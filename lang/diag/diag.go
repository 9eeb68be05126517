// Package diag implements WTF's two-severity error model (§7): recoverable
// compile errors accumulate into a sorted, deduplicated list, while fatal
// errors abort compilation or execution immediately.
//
// Much like lang/scanner in the teacher repository reuses go/scanner's
// Error and ErrorList rather than hand-rolling a diagnostic collector, diag
// aliases the same stdlib types: WTF's diagnostics are exactly "position +
// message" pairs, which is precisely what go/scanner already models well.
package diag

import (
	"errors"
	"fmt"
	"go/scanner"
	gotoken "go/token"

	"github.com/pcaressa/wtf/lang/token"
)

type (
	// Error is a single recoverable diagnostic, aliasing go/scanner.Error.
	Error = scanner.Error
	// ErrorList is a sortable, deduplicable list of Error, aliasing
	// go/scanner.ErrorList.
	ErrorList = scanner.ErrorList
)

// PrintError prints err (nil, Error, ErrorList or any other error) to w in
// the same form go/scanner.PrintError does.
var PrintError = scanner.PrintError

// toPosition adapts a token.Pos (source name + line) to the go/token.Position
// go/scanner.Error expects. WTF never needs a full go/token.FileSet: a
// Position literal with just Filename and Line is enough to reuse the
// stdlib's "file:line: msg" formatting and ErrorList sorting.
func toPosition(pos token.Pos) gotoken.Position {
	return gotoken.Position{Filename: pos.Source, Line: pos.Line}
}

// MaxErrors is the number of recoverable errors (§7) after which compilation
// aborts outright instead of continuing to scan for more.
const MaxErrors = 100

// Recorder accumulates recoverable errors reported by the compiler. It does
// not hold fatal errors: those are returned to the caller as *FatalError.
type Recorder struct {
	errs ErrorList
}

// Error records a recoverable error at pos with the given message, in the
// "<source>:<line>: WTF! <msg>" form §7 specifies.
func (r *Recorder) Error(pos token.Pos, msg string) {
	r.errs.Add(toPosition(pos), "WTF! "+msg)
}

// Errorf is Error with fmt.Sprintf-style formatting.
func (r *Recorder) Errorf(pos token.Pos, format string, args ...any) {
	r.Error(pos, fmt.Sprintf(format, args...))
}

// ShouldAbort reports whether MaxErrors has been reached.
func (r *Recorder) ShouldAbort() bool { return len(r.errs) >= MaxErrors }

// Count returns the number of recoverable errors recorded so far.
func (r *Recorder) Count() int { return len(r.errs) }

// Err returns the accumulated error list (sorted, deduplicated), or nil if
// no recoverable error was recorded.
func (r *Recorder) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	r.errs.Sort()
	r.errs.RemoveMultiples()
	return r.errs
}

// FatalError is returned by compiler/VM operations that must abort the
// whole process immediately (§7): stack underflow, index out of range, EOF
// inside a string, I/O errors. The message is formatted with the
// "sorry, this is a fatal error!" suffix on printing.
type FatalError struct {
	Pos token.Pos
	Msg string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: WTF! %s\nsorry, this is a fatal error!", e.Pos, e.Msg)
}

// NewFatal builds a FatalError at pos with a formatted message.
func NewFatal(pos token.Pos, format string, args ...any) error {
	return &FatalError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is (or wraps) a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
