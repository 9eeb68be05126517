package lexer_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/pcaressa/wtf/lang/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(src string) []string {
	lx := lexer.New(bufio.NewReader(strings.NewReader(src)))
	var got []string
	for {
		w := lx.ScanWord()
		if w == "" {
			break
		}
		got = append(got, w)
	}
	return got
}

func TestScanWordBasic(t *testing.T) {
	assert.Equal(t, []string{"1", "+", "2", "*", "3"}, words("1 + 2 * 3"))
}

func TestScanWordSelfDelimiters(t *testing.T) {
	assert.Equal(t, []string{"(", "1", ")", "\n"}, words("(1)\n"))
}

func TestScanWordPushback(t *testing.T) {
	// "DUP(" : DUP ends because '(' is a self-delimiter; '(' must still be
	// delivered as its own word on the next scan.
	assert.Equal(t, []string{"DUP", "("}, words("DUP("))
}

func TestScanWordEmptyAtEOF(t *testing.T) {
	assert.Empty(t, words(""))
}

func TestScanUntil(t *testing.T) {
	lx := lexer.New(bufio.NewReader(strings.NewReader(`hello world" rest`)))
	text, found := lx.ScanUntil('"')
	require.True(t, found)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, "rest", lx.ScanWord())
}

func TestScanUntilUnterminated(t *testing.T) {
	lx := lexer.New(bufio.NewReader(strings.NewReader("abc")))
	_, found := lx.ScanUntil('"')
	assert.False(t, found)
}
