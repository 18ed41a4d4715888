// Package dumpio opens dump sources and sinks. A path of "-" selects
// standard input or output, and paths ending in .gz are transparently
// compressed with parallel gzip.
package dumpio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/klauspost/pgzip"
)

// Stdio is the path that selects standard input or standard output.
const Stdio = "-"

// IsGzip reports whether path names a gzip-compressed dump.
func IsGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// Source is an opened dump input.
type Source struct {
	io.Reader
	// Name is the path the source was opened from, or "stdin".
	Name string
	// Size is the on-disk size in bytes, or -1 when unknown.
	Size int64

	counter *countingReader
	closers []io.Closer
}

// OpenSource opens path for reading.
func OpenSource(path string) (*Source, error) {
	if path == "" || path == Stdio {
		c := &countingReader{r: os.Stdin}
		return &Source{Reader: c, Name: "stdin", Size: -1, counter: c}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat input %q: %w", path, err)
	}

	c := &countingReader{r: f}
	src := &Source{Name: path, Size: info.Size(), counter: c, closers: []io.Closer{f}}
	if !IsGzip(path) {
		src.Reader = c
		return src, nil
	}

	gz, err := pgzip.NewReader(c)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open gzip input %q: %w", path, err)
	}
	src.Reader = gz
	src.closers = []io.Closer{gz, f}
	return src, nil
}

// BytesRead returns the number of bytes consumed from the underlying file.
// For gzip input this counts compressed bytes, comparable to Size. It is
// safe to call from another goroutine.
func (s *Source) BytesRead() int64 {
	return s.counter.n.Load()
}

// Close releases the source. Closing a stdin source is a no-op.
func (s *Source) Close() error {
	return closeAll(s.closers)
}

// Sink is an opened dump output.
type Sink struct {
	io.Writer
	// Name is the path the sink was created at, or "stdout".
	Name string

	closers []io.Closer
}

// CreateSink creates or truncates path for writing.
func CreateSink(path string) (*Sink, error) {
	if path == "" || path == Stdio {
		return &Sink{Writer: os.Stdout, Name: "stdout"}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output %q: %w", path, err)
	}
	if !IsGzip(path) {
		return &Sink{Writer: f, Name: path, closers: []io.Closer{f}}, nil
	}

	gz := pgzip.NewWriter(f)
	return &Sink{Writer: gz, Name: path, closers: []io.Closer{gz, f}}, nil
}

// Close flushes and closes the sink. Standard output is left open.
func (s *Sink) Close() error {
	return closeAll(s.closers)
}

// closeAll closes in order, returning every error encountered.
func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
