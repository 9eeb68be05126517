package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mna/mainer"

	"github.com/pcaressa/wtf/internal/sourceio"
	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/compiler"
	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/dump"
	"github.com/pcaressa/wtf/lang/vm"
)

// fatalExit is returned when compilation or execution hits a *diag.
// FatalError: a condition the language itself calls unrecoverable (stack
// underflow, index out of range, I/O failure), distinct from mainer.Failure
// which covers ordinary recoverable compile errors (§6, §7).
const fatalExit mainer.ExitCode = -1

// Run compiles file and, if compilation reported no recoverable errors,
// executes it. Grounded on the teacher's ParseFiles/ResolveFiles/
// TokenizeFiles helpers: read the file, run a language-package entry point,
// print whatever diagnostics come back through lang/diag.PrintError.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, path string) mainer.ExitCode {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "cannot open %s: %s\n", path, err)
		return mainer.Failure
	}
	defer f.Close()

	dir := sourceio.Dir{Base: filepath.Dir(path)}
	files := sourceio.SourceOpener{Dir: dir}

	comp, cerr := compiler.Compile(path, bufferedFile{r: bufio.NewReader(f), f: f}, files)
	if cerr != nil {
		fmt.Fprintln(stdio.Stderr, cerr)
		return fatalExit
	}

	if c.DumpObj {
		p := dump.Printer{Output: stdio.Stdout}
		if err := p.Object(comp.Codes); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return fatalExit
		}
	}
	if c.DumpDict {
		p := dump.Printer{Output: stdio.Stdout}
		if err := p.Dict(comp.Dict); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return fatalExit
		}
	}

	if comp.Errs.Count() > 0 {
		diag.PrintError(stdio.Stderr, comp.Errs.Err())
		return mainer.Failure
	}

	runtimeFiles := sourceio.RuntimeFiles{Dir: dir}
	m := vm.New(comp.Codes, comp.Vars(), stdio.Stdout, runtimeFiles)
	if err := m.Run(codeseg.TopLevel); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return fatalExit
	}

	if c.DumpVars {
		p := dump.Printer{Output: stdio.Stdout}
		if err := p.Vars(comp.Vars()); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return fatalExit
		}
	}

	return mainer.Success
}

// bufferedFile adapts a buffered *os.File to compiler.ReadCloserByte.
type bufferedFile struct {
	r *bufio.Reader
	f *os.File
}

func (b bufferedFile) ReadByte() (byte, error) { return b.r.ReadByte() }
func (b bufferedFile) Close() error            { return b.f.Close() }
