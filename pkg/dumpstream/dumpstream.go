// Package dumpstream exposes a gzip-compressed line-oriented catalog dump
// as a sequential, cancellable stream of lines.
//
// The dump is read strictly forward; there is no seeking by line number.
// Re-reading from the start requires opening a new stream. Cost is
// O(bytes read) regardless of which window the caller wants.
package dumpstream

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotGzip indicates the input exists but is not a valid gzip stream.
var ErrNotGzip = errors.New("input is not valid gzip")

// Scanner buffer sizing. A whole catalog record is encoded on one line, so
// lines can be several megabytes.
const (
	initialBufSize = 1 << 20  // 1 MiB
	maxLineSize    = 64 << 20 // 64 MiB
)

// Stream is a forward-only line iterator over a gzip-compressed file.
// It is not safe for concurrent use.
type Stream struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	closed  bool
}

// Open opens the dump at path. It fails with a wrapped *os.PathError when
// the file cannot be opened and with ErrNotGzip when the content is not a
// gzip stream.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		if errors.Is(err, gzip.ErrHeader) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotGzip)
		}
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, initialBufSize), maxLineSize)

	return &Stream{file: f, gz: gz, scanner: scanner}, nil
}

// Next advances to the next line. It returns false at end of input or on
// error; check Err afterwards.
func (s *Stream) Next() bool {
	if s.closed {
		return false
	}
	return s.scanner.Scan()
}

// Line returns the current line. The returned string is valid until the
// next call to Next.
func (s *Stream) Line() string {
	return s.scanner.Text()
}

// Err returns the first error encountered while scanning, if any. A clean
// end of input returns nil.
func (s *Stream) Err() error {
	if err := s.scanner.Err(); err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	return nil
}

// Close releases the decompressor and file handle. It is idempotent and
// safe to call on every exit path, including early termination mid-stream.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	gzErr := s.gz.Close()
	fileErr := s.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}
