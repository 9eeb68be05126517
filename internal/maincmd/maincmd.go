// Package maincmd implements WTF's command-line dispatch: flag parsing via
// github.com/mna/mainer, argument validation, and the single compile+run
// command cmd/wtf's entry point delegates to.
//
// Grounded on the teacher's internal/maincmd/maincmd.go: same Cmd struct
// shape (SetArgs/SetFlags/Validate/Main), same mainer.Parser/mainer.ExitCode
// usage, same Help/Version handling. Collapsed the teacher's reflection-based
// multi-verb dispatch (parse/resolve/tokenize, one method per verb) down to
// a single Run method, since WTF's CLI has exactly one verb: compile and
// execute a source file, optionally dumping compiler state along the way
// (§6).
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "wtf"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <file>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the WTF (Word Translation as in Forth)
programming language.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dump-obj                Disassemble every compiled code segment
                                  to stdout before running.
       --dump-dict               List the dictionary's contents to stdout
                                  before running.
       --dump-vars               List the final variable table contents
                                  to stdout after running.
`, binName)
)

// Cmd holds WTF's CLI state: parsed flags plus the positional source file
// argument.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	DumpObj  bool `flag:"dump-obj"`
	DumpDict bool `flag:"dump-dict"`
	DumpVars bool `flag:"dump-vars"`

	args []string
}

// SetArgs implements mainer's flag-target interface: args are the
// positional (non-flag) arguments left after parsing.
func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

// SetFlags implements mainer's flag-target interface. WTF has no flags
// whose validity depends on which other flags were set, so Validate doesn't
// need it, but mainer.Parser requires the method to exist.
func (c *Cmd) SetFlags(map[string]bool) {}

// Validate checks the parsed arguments before Main dispatches to Run.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no source file specified")
	}
	if len(c.args) > 1 {
		return fmt.Errorf("exactly one source file expected, got %d", len(c.args))
	}
	return nil
}

// Main is cmd/wtf's entry point: parse flags, handle --help/--version, or
// dispatch to Run. It returns a mainer.ExitCode so cmd/wtf can os.Exit with
// it directly (§6).
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	return c.Run(ctx, stdio, c.args[0])
}
