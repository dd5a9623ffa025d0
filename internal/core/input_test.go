package core

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"file with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "hello,world"...), "hello,world"},
		{"file without BOM", []byte("hello,world"), "hello,world"},
		{"empty file", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial BOM kept", []byte{0xEF, 0xBB, 'a'}, string([]byte{0xEF, 0xBB, 'a'})},
		{"short input", []byte("a"), "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(tt.input))
			if err := skipBOM(br); err != nil {
				t.Fatalf("skipBOM: %v", err)
			}
			rest, err := io.ReadAll(br)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(rest) != tt.expected {
				t.Errorf("got %q, want %q", rest, tt.expected)
			}
		})
	}
}

func TestSanitizeLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ascii", "hello,world", "hello,world"},
		{"valid multibyte", "grüße", "grüße"},
		{"invalid byte", "he\x80lo", "he?lo"},
		{"each invalid byte replaced", "a\xff\xfeb", "a??b"},
		{"truncated sequence", "ab\xe2\x82", "ab??"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLine(tt.input); got != tt.expected {
				t.Errorf("sanitizeLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	cr := &countingReader{r: strings.NewReader(input)}
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if cr.n != 1000 {
		t.Errorf("n = %d, want 1000", cr.n)
	}

	limited := &countingReader{r: strings.NewReader(input), limit: 10}
	if _, err := io.ReadAll(limited); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestLineReader(t *testing.T) {
	lr, err := newLineReader(strings.NewReader("a\r\nb\n\nc"))
	if err != nil {
		t.Fatalf("newLineReader: %v", err)
	}

	var got []string
	for {
		line, ok, err := lr.next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, line)
	}

	want := []string{"a", "b", "", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if lr.line != 4 {
		t.Errorf("line = %d, want 4", lr.line)
	}
}

func TestDecompress(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		for _, enc := range []string{"", "identity", " Identity "} {
			r, closeFn, err := Decompress(strings.NewReader("a,b\n"), enc)
			if err != nil {
				t.Fatalf("Decompress(%q): %v", enc, err)
			}
			got, _ := io.ReadAll(r)
			if string(got) != "a,b\n" {
				t.Errorf("Decompress(%q) = %q", enc, got)
			}
			if err := closeFn(); err != nil {
				t.Errorf("close: %v", err)
			}
		}
	})

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte("x,y\n1,2\n"))
		zw.Close()

		r, closeFn, err := Decompress(&buf, "gzip")
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		defer closeFn()
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != "x,y\n1,2\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("zstd", func(t *testing.T) {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		compressed := enc.EncodeAll([]byte("x\n1\n"), nil)
		enc.Close()

		r, closeFn, err := Decompress(bytes.NewReader(compressed), "zstd")
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		defer closeFn()
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != "x\n1\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, _, err := Decompress(strings.NewReader(""), "br")
		if !errors.Is(err, ErrUnsupportedEncoding) {
			t.Errorf("err = %v, want ErrUnsupportedEncoding", err)
		}
	})
}
