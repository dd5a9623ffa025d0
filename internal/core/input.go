package core

// input.go prepares raw bytes for line splitting.
//
// Files coming out of spreadsheets and exports tend to carry a few artifacts
// that would otherwise leak into the first header cell or break UTF-8 output:
//
//   - a UTF-8 BOM (0xEF 0xBB 0xBF) in front of line 1
//   - stray invalid UTF-8 bytes, replaced with '?'
//   - gzip or zstd compression, detected from the file extension
//
// countingReader also enforces Options.MaxBytes on the decoded stream.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// openInput opens the regular file at path and, for .gz and .zst files,
// layers a decompressor on top. The returned close func releases every layer, the file last.
func openInput(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%s: not a regular file", fi.Mode().Type())
	}

	var encoding string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		encoding = "gzip"
	case ".zst", ".zstd":
		encoding = "zstd"
	}

	r, closeDec, err := Decompress(f, encoding)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	// The first read surfaces unreadable inputs here rather than mid-table.
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil && err != io.EOF {
		closeDec()
		f.Close()
		return nil, nil, err
	}
	return br, func() error {
		closeDec()
		return f.Close()
	}, nil
}

// Decompress wraps r for a content encoding: "gzip", "zstd" or "" / "identity"
// for none. The returned close func releases the decoder but not r.
func Decompress(r io.Reader, encoding string) (io.Reader, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, func() error { return nil }, nil

	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, gz.Close, nil

	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
}

// countingReader tracks bytes read and fails once limit is exceeded.
type countingReader struct {
	r     io.Reader
	n     int64
	limit int64 // 0 means unlimited
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		return n, ErrFileTooLarge
	}
	return n, err
}

// skipBOM discards a leading UTF-8 BOM if one is present.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// sanitizeLine replaces each invalid UTF-8 byte with '?'. The replacement
// keeps byte length stable so delimiter positions do not move.
func sanitizeLine(s string) string {
	if isASCII(s) || utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte('?')
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// lineReader yields physical lines without their "\n" or "\r\n" terminator.
type lineReader struct {
	br   *bufio.Reader
	line int // 1-based number of the last line returned
}

func newLineReader(r io.Reader) (*lineReader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if err := skipBOM(br); err != nil {
		return nil, err
	}
	return &lineReader{br: br}, nil
}

// next returns the next line and true, or "" and false at end of input.
// A final line without a terminator is still returned.
func (lr *lineReader) next() (string, bool, error) {
	s, err := lr.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if err == io.EOF && s == "" {
		return "", false, nil
	}
	lr.line++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return sanitizeLine(s), true, nil
}
