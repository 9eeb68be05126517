package vm_test

import (
	"strings"
	"testing"

	"github.com/pcaressa/wtf/lang/compiler"
	"github.com/pcaressa/wtf/lang/vm"
)

// stringSource adapts a strings.Reader into compiler.ReadCloserByte so tests
// can compile inline WTF snippets without touching a filesystem.
type stringSource struct{ *strings.Reader }

func (stringSource) Close() error { return nil }

func newSource(src string) stringSource {
	return stringSource{strings.NewReader(src)}
}

func run(t *testing.T, src string) string {
	t.Helper()
	c, err := compiler.Compile("test.wtf", newSource(src), nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := c.Errs.Count(); n > 0 {
		t.Fatalf("Compile recorded %d error(s): %v", n, c.Errs.Err())
	}
	var out strings.Builder
	m := vm.New(c.Codes, c.Vars(), &out, nil)
	if err := m.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	// §8 scenario 1: PRINT must defer behind both + and *.
	if got, want := run(t, "1 + 2 * 3 PRINT\n"), "7.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLeftAssociativeSubtraction(t *testing.T) {
	if got, want := run(t, "10 - 3 - 2 PRINT\n"), "5.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	if got, want := run(t, "( 1 + 2 ) * 3 PRINT\n"), "9.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIfThenElseFi(t *testing.T) {
	src := `
DEF x = 5
IF x > 3 THEN "big" PRINT ELSE "small" PRINT FI
`
	if got, want := run(t, src), "big"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIfElifElseFi(t *testing.T) {
	src := `
DEF x = 3
IF x > 3 THEN "big" PRINT ELIF x == 3 THEN "mid" PRINT ELSE "small" PRINT FI
`
	if got, want := run(t, src), "mid"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWhileOd(t *testing.T) {
	src := `
DEF i = 0
WHILE i < 5 DO i PRINT LET i = i + 1 OD
`
	if got, want := run(t, src), "0.01.02.03.04.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestForNext(t *testing.T) {
	src := `FOR i = 1 TO 4 DO i PRINT NEXT`
	if got, want := run(t, src), "1.02.03.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCmdCallsAndDictionaryRestore(t *testing.T) {
	src := `
CMD greet "hi" PRINT END
greet
`
	if got, want := run(t, src), "hi"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStackPushPopLen(t *testing.T) {
	src := `
STACK s
CMD load PUSH(s 10) PUSH(s 20) END
load
LEN(s) PRINT
`
	if got, want := run(t, src), "2.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDupSwapOverDrop(t *testing.T) {
	if got, want := run(t, "3 DUP + PRINT\n"), "6.0"; got != want {
		t.Errorf("DUP: got %q, want %q", got, want)
	}
	if got, want := run(t, "1 2 SWAP - PRINT\n"), "1.0"; got != want {
		t.Errorf("SWAP: got %q, want %q", got, want)
	}
	if got, want := run(t, "1 2 OVER + + PRINT\n"), "4.0"; got != want {
		t.Errorf("OVER: got %q, want %q", got, want)
	}
}

func TestBracketIndexing(t *testing.T) {
	src := `
STACK s
PUSH(s 10) PUSH(s 20) PUSH(s 30)
s [ 0 ] PRINT
s [ -1 ] PRINT
`
	if got, want := run(t, src), "10.030.0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
