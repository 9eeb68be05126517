package codeseg_test

import (
	"testing"

	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitAndPatch(t *testing.T) {
	tbl := codeseg.NewTable()
	seg := tbl.Get(codeseg.TopLevel)

	seg.Emit(opcode.PUSH, value.Number(1))
	idx := seg.Emit(opcode.JPZ, value.Address(-1))
	seg.Emit(opcode.PUSH, value.Number(2))
	require.Equal(t, 3, seg.Len())
	require.Equal(t, len(seg.Ops), len(seg.Data), "code stream must stay even length")

	seg.Patch(idx, value.Address(seg.Len()))
	assert.Equal(t, value.Address(3), seg.At(idx).Datum)
}

func TestTableAllocatesDistinctSegments(t *testing.T) {
	tbl := codeseg.NewTable()
	a := tbl.New()
	b := tbl.New()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, codeseg.TopLevel, a)

	tbl.Get(a).Emit(opcode.RET, value.Nil)
	assert.Equal(t, 1, tbl.Get(a).Len())
	assert.Equal(t, 0, tbl.Get(b).Len())
}

func TestRefIsAValue(t *testing.T) {
	var v value.Value = codeseg.Ref(2)
	assert.Equal(t, "codeseg", v.Type())
	assert.Equal(t, "codeseg#2", v.String())
}
