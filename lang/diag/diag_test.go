package diag_test

import (
	"testing"

	"github.com/pcaressa/wtf/lang/diag"
	"github.com/pcaressa/wtf/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderAccumulates(t *testing.T) {
	var r diag.Recorder
	assert.Nil(t, r.Err())

	r.Error(token.Pos{Source: "a.wtf", Line: 3}, "unknown word DROOP")
	r.Errorf(token.Pos{Source: "a.wtf", Line: 1}, "unmatched %s", "THEN")

	require.Equal(t, 2, r.Count())
	err := r.Err()
	require.Error(t, err)
	// sorted by position: line 1 error should come first.
	assert.Contains(t, err.Error(), "a.wtf:1: WTF! unmatched THEN")
}

func TestRecorderShouldAbort(t *testing.T) {
	var r diag.Recorder
	for i := 0; i < diag.MaxErrors; i++ {
		r.Error(token.Pos{Source: "a.wtf", Line: i + 1}, "bad word")
	}
	assert.True(t, r.ShouldAbort())
}

func TestFatalError(t *testing.T) {
	err := diag.NewFatal(token.Pos{Source: "a.wtf", Line: 5}, "stack underflow")
	require.True(t, diag.IsFatal(err))
	assert.Contains(t, err.Error(), "a.wtf:5: WTF! stack underflow")
	assert.Contains(t, err.Error(), "sorry, this is a fatal error!")

	assert.False(t, diag.IsFatal(assert.AnError))
}
