package dict_test

import (
	"testing"

	"github.com/pcaressa/wtf/lang/dict"
	"github.com/pcaressa/wtf/lang/opcode"
	"github.com/pcaressa/wtf/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMiss(t *testing.T) {
	d := dict.New()
	_, ok := d.Lookup("DROP")
	assert.False(t, ok)
}

func TestInsertAndLookup(t *testing.T) {
	d := dict.New()
	idx := d.Insert("+", 5, opcode.ADD, value.Nil)
	got, ok := d.Lookup("+")
	require.True(t, ok)
	assert.Equal(t, idx, got)
	assert.Equal(t, "+", d.Entry(got).Name)
	assert.Equal(t, uint8(5), d.Entry(got).Priority)
}

func TestShadowing(t *testing.T) {
	d := dict.New()
	outer := d.Insert("x", dict.Immediate, opcode.VPUSH, value.Address(0))
	inner := d.Insert("x", dict.Immediate, opcode.VPUSH, value.Address(1))

	got, ok := d.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, inner, got)
	assert.NotEqual(t, outer, got)
}

func TestTruncateRestoresOuterScope(t *testing.T) {
	d := dict.New()
	d.Insert("PRINT", 255, opcode.PRINT, value.Nil)
	watermark := d.Watermark()

	d.Insert("x", dict.Immediate, opcode.VPUSH, value.Address(0))
	d.Insert("y", dict.Immediate, opcode.VPUSH, value.Address(1))
	require.Equal(t, watermark+2, d.Len())

	d.Truncate(watermark)
	assert.Equal(t, watermark, d.Len())

	_, ok := d.Lookup("x")
	assert.False(t, ok)
	_, ok = d.Lookup("y")
	assert.False(t, ok)
	_, ok = d.Lookup("PRINT")
	assert.True(t, ok)
}

func TestTruncateUnshadowsOuterEntry(t *testing.T) {
	d := dict.New()
	outer := d.Insert("x", dict.Immediate, opcode.VPUSH, value.Address(0))
	watermark := d.Watermark()
	d.Insert("x", dict.Immediate, opcode.VPUSH, value.Address(1))

	d.Truncate(watermark)
	got, ok := d.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, outer, got)
}
