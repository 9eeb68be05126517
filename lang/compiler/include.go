package compiler

import (
	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/lexer"
	"github.com/pcaressa/wtf/lang/pstack"
	"github.com/pcaressa/wtf/lang/value"
)

// actionInclude implements INCLUDE (§4.8): read a filename word, open it
// through the injected FileOpener, save the current (source name, lexer,
// line) onto P, switch to the new file, recursively run the same word loop
// over it, then restore the saved source and close the included file.
//
// The included file's own control structures must balance within itself: P
// must be back to exactly the depth it had right after the Source frame was
// pushed once the included file reaches its own EOF, otherwise an IF/WHILE/
// BEGIN left open inside it would silently leak into the includer.
func actionInclude(c *Compiler, _ value.Value) error {
	name := c.lex.ScanWord()
	if name == "" {
		return c.fatal("unexpected end of input reading INCLUDE's file name")
	}
	if c.Files == nil {
		return c.fatal("INCLUDE used but no file opener is configured")
	}
	f, err := c.Files.Open(name)
	if err != nil {
		return c.recoverableIncludeErr(name, err)
	}

	c.p.PushSource(&pstack.Source{Name: c.srcName, Line: c.line, Lexer: c.lex, Close: nil})
	depthAfterPush := c.p.Len()

	c.srcName = name
	c.line = 1
	c.lex = lexer.New(f)

	runErr := c.compileAll()

	if c.p.Len() != depthAfterPush {
		c.Errs.Errorf(c.pos(), "unbalanced control structures in included file %q", name)
		// Unwind back to depthAfterPush so the includer's own P isn't corrupted.
		for c.p.Len() > depthAfterPush {
			c.p.Pop()
		}
	}

	src := c.p.Pop()
	c.srcName = src.Source.Name
	c.line = src.Source.Line
	c.lex = src.Source.Lexer

	if cerr := f.Close(); cerr != nil {
		c.Errs.Errorf(c.pos(), "closing included file %q: %v", name, cerr)
	}

	if runErr != nil && diag.IsFatal(runErr) {
		return runErr
	}
	return nil
}

func (c *Compiler) recoverableIncludeErr(name string, err error) error {
	c.Errs.Errorf(c.pos(), "cannot open included file %q: %v", name, err)
	return nil
}
