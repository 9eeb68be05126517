package value_test

import (
	"testing"

	"github.com/pcaressa/wtf/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberString(t *testing.T) {
	cases := []struct {
		in   value.Number
		want string
	}{
		{7, "7.0"},
		{42, "42.0"},
		{0, "0.0"},
		{3.14, "3.14"},
		{-2.5, "-2.5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.in.String())
	}
}

func TestNumberTruthAndBool(t *testing.T) {
	assert.True(t, value.Number(1).Truth())
	assert.True(t, value.Number(-1).Truth())
	assert.False(t, value.Number(0).Truth())
	assert.Equal(t, value.Number(1), value.Bool(true))
	assert.Equal(t, value.Number(0), value.Bool(false))
}

func TestNilSingleton(t *testing.T) {
	assert.True(t, value.IsNil(value.Nil))
	assert.False(t, value.IsNil(value.Number(0)))
	assert.Equal(t, "nil", value.Nil.String())
}

func TestUserStackPushPop(t *testing.T) {
	s := value.NewUserStack(0)
	assert.Equal(t, 0, s.Len())
	s.Push(value.Number(1))
	s.Push(value.Number(2))
	s.Push(value.Number(3))
	require.Equal(t, 3, s.Len())

	v, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, value.Number(3), v)
	assert.Equal(t, 2, s.Len())

	_, ok = value.NewUserStack(0).Pop()
	assert.False(t, ok)
}

func TestUserStackNegativeIndex(t *testing.T) {
	s := value.NewUserStack(0)
	s.Push(value.Number(10))
	s.Push(value.Number(20))
	s.Push(value.Number(30))

	v, ok := s.Index(-1)
	require.True(t, ok)
	assert.Equal(t, value.Number(30), v)

	v, ok = s.Index(0)
	require.True(t, ok)
	assert.Equal(t, value.Number(10), v)

	_, ok = s.Index(-4)
	assert.False(t, ok)
	_, ok = s.Index(3)
	assert.False(t, ok)

	require.True(t, s.SetIndex(-1, value.Number(99)))
	v, _ = s.Index(2)
	assert.Equal(t, value.Number(99), v)
	assert.False(t, s.SetIndex(10, value.Number(0)))
}

func TestFileHandle(t *testing.T) {
	fh := FileHandleFixture()
	assert.False(t, fh.IsClosed())
	fh.MarkClosed()
	assert.True(t, fh.IsClosed())
	assert.Equal(t, "file", fh.Type())
}

func FileHandleFixture() *value.FileHandle {
	return &value.FileHandle{Name: "a.txt", Mode: "r"}
}
