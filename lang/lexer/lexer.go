// Package lexer implements WTF's pull lexer (§4.1): a byte-stream reader
// with one-character pushback that groups input into "words" — either a
// maximal run of letter characters, or a single self-delimiter byte.
//
// The structure (an advance/peek pair driving a Scan-style entry point)
// follows lang/scanner/scanner.go's Scanner, simplified to WTF's three-class
// byte classification; WTF has no sub-scanners for strings or numbers of
// its own (those are handled above the lexer, by the compiler core, per
// §4.3 and §4.7).
package lexer

import "io"

// class categorizes a byte for word-boundary purposes (§4.1).
type class int

const (
	classSeparator class = iota // whitespace, discarded
	classSelf                   // a one-byte word all by itself
	classLetter                 // concatenates into a multi-byte word
)

// selfDelimiters are the bytes that are always their own complete word:
// newline, quote, parens, backslash, brackets (§4.1).
var selfDelimiters = map[byte]bool{
	'\n': true,
	'"':  true,
	'(':  true,
	')':  true,
	'\\': true,
	'[':  true,
	']':  true,
}

func classify(b byte) class {
	switch {
	case b == ' ' || b == '\t' || b == '\r':
		return classSeparator
	case selfDelimiters[b]:
		return classSelf
	default:
		return classLetter
	}
}

// Lexer reads WTF source bytes and yields words. It keeps exactly one byte
// of pushback (CLAST in §4.1's terminology), delivered by the next
// scan_char-equivalent read.
type Lexer struct {
	r     io.ByteReader
	last  byte // CLAST: pushed-back byte from the previous scan_word
	haveL bool
	atEOF bool
}

// New returns a Lexer reading from r.
func New(r io.ByteReader) *Lexer {
	return &Lexer{r: r}
}

// readByte returns CLAST if one is pending, otherwise reads the next byte
// from the underlying stream. ok is false at end of input.
func (l *Lexer) readByte() (b byte, ok bool) {
	if l.haveL {
		l.haveL = false
		return l.last, true
	}
	if l.atEOF {
		return 0, false
	}
	b, err := l.r.ReadByte()
	if err != nil {
		l.atEOF = true
		return 0, false
	}
	return b, true
}

// pushback stashes b as CLAST, to be returned by the next readByte.
func (l *Lexer) pushback(b byte) {
	l.last = b
	l.haveL = true
}

// ScanWord returns the next word in the source, or "" at end of input
// (§4.1). Separators are skipped; a self-delimiter is returned alone; a run
// of letters is returned as one word, with the first non-letter character
// that terminates it stashed as CLAST for the next call.
func (l *Lexer) ScanWord() string {
	// skip separators
	var b byte
	var ok bool
	for {
		b, ok = l.readByte()
		if !ok {
			return ""
		}
		if classify(b) != classSeparator {
			break
		}
	}

	switch classify(b) {
	case classSelf:
		return string(b)
	default: // classLetter
		word := []byte{b}
		for {
			b, ok = l.readByte()
			if !ok {
				break
			}
			if classify(b) != classLetter {
				l.pushback(b)
				break
			}
			word = append(word, b)
		}
		return string(word)
	}
}

// ScanUntil reads raw bytes (bypassing word classification) up to and
// including the first occurrence of delim, or to end of input if delim
// never appears. It returns the bytes read before delim (delim itself is
// consumed but not included), and whether delim was found. Used by STRCONST
// (delim '"', §4.7) and COMMENT (delim '\n', §4.7).
func (l *Lexer) ScanUntil(delim byte) (text string, found bool) {
	var buf []byte
	for {
		b, ok := l.readByte()
		if !ok {
			return string(buf), false
		}
		if b == delim {
			return string(buf), true
		}
		buf = append(buf, b)
	}
}
