// Package sourceio supplies the concrete filesystem access the language
// packages only ever see through narrow interfaces: lang/compiler's
// FileOpener (for INCLUDE, §4.8) and lang/vm's FileSystem (for FOPEN/FCLOSE/
// FGET/FPUT, §6). Keeping actual *os.File use here, out of lang/..., matches
// §5's "scoped acquisition" resource model: the language core never touches
// the filesystem directly, only through values handed to it.
//
// Grounded on lang/parser/parser.go and lang/scanner/scanner.go, which both
// read source files with a plain os.ReadFile rather than anything fancier.
package sourceio

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pcaressa/wtf/lang/compiler"
	"github.com/pcaressa/wtf/lang/value"
)

// Dir is a single real directory both SourceOpener and RuntimeFiles resolve
// names against.
type Dir struct {
	Base string
}

func (d Dir) resolve(name string) string {
	if d.Base == "" {
		return name
	}
	return d.Base + string(os.PathSeparator) + name
}

// SourceOpener adapts Dir to lang/compiler.FileOpener, for INCLUDE.
type SourceOpener struct{ Dir Dir }

// Open implements lang/compiler.FileOpener.
func (s SourceOpener) Open(name string) (compiler.ReadCloserByte, error) {
	f, err := os.Open(s.Dir.resolve(name))
	if err != nil {
		return nil, err
	}
	return &bufReadCloser{r: bufio.NewReader(f), f: f}, nil
}

// bufReadCloser adapts a buffered *os.File into compiler.ReadCloserByte
// (ReadByte()+Close()).
type bufReadCloser struct {
	r *bufio.Reader
	f *os.File
}

func (b *bufReadCloser) ReadByte() (byte, error) { return b.r.ReadByte() }
func (b *bufReadCloser) Close() error            { return b.f.Close() }

// RuntimeFiles adapts Dir to lang/vm.FileSystem, for FOPEN.
type RuntimeFiles struct{ Dir Dir }

// Open implements lang/vm.FileSystem. mode follows WTF's one-letter file
// mode convention ("r", "w", "a", §6).
func (r RuntimeFiles) Open(name, mode string) (*value.FileHandle, error) {
	flag, err := osFlag(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(r.Dir.resolve(name), flag, 0644)
	if err != nil {
		return nil, err
	}

	var reader *bufio.Reader
	var writer *bufio.Writer
	if flag == os.O_RDONLY {
		reader = bufio.NewReader(f)
	} else {
		writer = bufio.NewWriter(f)
	}

	fh := &value.FileHandle{
		Name: name,
		Mode: mode,
		ReadByte: func() (byte, bool, error) {
			if reader == nil {
				return 0, false, fmt.Errorf("file %q not opened for reading", name)
			}
			b, err := reader.ReadByte()
			if err != nil {
				return 0, false, nil //nolint:nilerr // EOF or a read error both just mean "no more bytes" for FGET (§4.4)
			}
			return b, true, nil
		},
		WriteByte: func(b byte) error {
			if writer == nil {
				return fmt.Errorf("file %q not opened for writing", name)
			}
			return writer.WriteByte(b)
		},
		Close: func() error {
			if writer != nil {
				if err := writer.Flush(); err != nil {
					f.Close()
					return err
				}
			}
			return f.Close()
		},
	}
	return fh, nil
}

func osFlag(mode string) (int, error) {
	switch mode {
	case "r":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	default:
		return 0, fmt.Errorf("unknown file mode %q (want r, w or a)", mode)
	}
}
