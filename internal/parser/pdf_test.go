package parser

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

// withPDFReader swaps the reader constructor and records the file it was given.
func withPDFReader(t *testing.T, fn func(io.ReaderAt, int64) (*pdflib.Reader, error)) *io.ReaderAt {
	t.Helper()
	var seen io.ReaderAt
	orig := newPDFReader
	newPDFReader = func(r io.ReaderAt, size int64) (*pdflib.Reader, error) {
		seen = r
		return fn(r, size)
	}
	t.Cleanup(func() { newPDFReader = orig })
	return &seen
}

func writeGarbage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 truncated"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertClosed(t *testing.T, r io.ReaderAt) {
	t.Helper()
	f, ok := r.(*os.File)
	if !ok {
		t.Fatalf("expected the reader to get the opened *os.File, got %T", r)
	}
	if err := f.Close(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected file to be closed already, Close returned %v", err)
	}
}

func TestOpenPDF_PanicClosesFile(t *testing.T) {
	seen := withPDFReader(t, func(io.ReaderAt, int64) (*pdflib.Reader, error) {
		panic("malformed xref")
	})

	src, err := OpenPDF(writeGarbage(t))
	if err == nil || src != nil {
		t.Fatalf("expected error and no source, got %v, %v", src, err)
	}
	assertClosed(t, *seen)
}

func TestOpenPDF_ReaderErrorClosesFile(t *testing.T) {
	seen := withPDFReader(t, func(io.ReaderAt, int64) (*pdflib.Reader, error) {
		return nil, errors.New("not a pdf")
	})

	if _, err := OpenPDF(writeGarbage(t)); err == nil {
		t.Fatal("expected reader error")
	}
	assertClosed(t, *seen)
}

func TestOpenPDF_MissingFile(t *testing.T) {
	if _, err := OpenPDF(filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
