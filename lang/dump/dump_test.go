package dump_test

import (
	"strings"
	"testing"

	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/compiler"
	"github.com/pcaressa/wtf/lang/dump"
	"github.com/pcaressa/wtf/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringSource struct{ *strings.Reader }

func (stringSource) Close() error { return nil }

func src(s string) stringSource { return stringSource{strings.NewReader(s)} }

func TestObjectDisassemblesTopLevelSegment(t *testing.T) {
	c, err := compiler.Compile("t.wtf", src("1 + 2 PRINT\n"), nil)
	require.NoError(t, err)
	require.Zero(t, c.Errs.Count())

	var out strings.Builder
	p := dump.Printer{Output: &out}
	require.NoError(t, p.Object(c.Codes))

	text := out.String()
	assert.Contains(t, text, "segment 0:")
	assert.Contains(t, text, "PUSH")
	assert.Contains(t, text, "ADD")
	assert.Contains(t, text, "PRINT")
}

func TestObjectDisassemblesEveryCmdSegment(t *testing.T) {
	c, err := compiler.Compile("t.wtf", src("CMD greet \"hi\" PRINT END\ngreet\n"), nil)
	require.NoError(t, err)
	require.Zero(t, c.Errs.Count())

	var out strings.Builder
	p := dump.Printer{Output: &out}
	require.NoError(t, p.Object(c.Codes))

	text := out.String()
	assert.Contains(t, text, "segment 0:")
	assert.Contains(t, text, "segment 1:")
	assert.Contains(t, text, "CALL")
	assert.Contains(t, text, "RET")
}

func TestDictListsBootstrapAndUserWords(t *testing.T) {
	c, err := compiler.Compile("t.wtf", src("DEF x = 5\n"), nil)
	require.NoError(t, err)
	require.Zero(t, c.Errs.Count())

	var out strings.Builder
	p := dump.Printer{Output: &out}
	require.NoError(t, p.Dict(c.Dict))

	text := out.String()
	assert.Contains(t, text, "x")
	assert.Contains(t, text, "PRINT")
}

func TestVarsListsSlotsByIndex(t *testing.T) {
	c, err := compiler.Compile("t.wtf", src("DEF x = 5\nDEF y = 9\n"), nil)
	require.NoError(t, err)
	require.Zero(t, c.Errs.Count())
	require.Len(t, c.Vars(), 2)

	// DEF's VSTORE runs in the VM, so the slots hold 5 and 9 only after a run.
	var progOut strings.Builder
	require.NoError(t, vm.New(c.Codes, c.Vars(), &progOut, nil).Run(codeseg.TopLevel))

	var out strings.Builder
	p := dump.Printer{Output: &out}
	require.NoError(t, p.Vars(c.Vars()))

	text := out.String()
	assert.Contains(t, text, "0:")
	assert.Contains(t, text, "5.0")
	assert.Contains(t, text, "1:")
	assert.Contains(t, text, "9.0")
}
