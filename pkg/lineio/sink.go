package lineio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/natefinch/atomic"
)

// WriterSink writes newline-terminated lines to an io.Writer, such as the console.
type WriterSink struct {
	w *bufio.Writer
}

// NewWriterSink returns a buffered sink over w. Flush must be called once
// all lines are written.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

// WriteLine writes line followed by '\n'.
func (s *WriterSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Flush writes any buffered lines.
func (s *WriterSink) Flush() error {
	return s.w.Flush()
}

// FileSink collects lines in memory and writes them to a file atomically on
// Flush. A failed run never leaves a half-written output file behind.
type FileSink struct {
	path string
	buf  bytes.Buffer
}

// NewFileSink returns a sink that will write to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// WriteLine buffers line followed by '\n'.
func (s *FileSink) WriteLine(line string) error {
	s.buf.WriteString(line)
	s.buf.WriteByte('\n')
	return nil
}

// Flush commits the buffered lines to disk, replacing any existing file.
func (s *FileSink) Flush() error {
	if err := atomic.WriteFile(s.path, bytes.NewReader(s.buf.Bytes())); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// Path returns the destination file.
func (s *FileSink) Path() string {
	return s.path
}

// FlushSink is a profile.LineSink that buffers its output.
type FlushSink interface {
	profile.LineSink
	Flush() error
}

// WriteAll writes every line to sink and flushes it. Any failure is reported
// as profile.ErrSinkUnwritable.
func WriteAll(sink FlushSink, lines []string) error {
	for _, line := range lines {
		if err := sink.WriteLine(line); err != nil {
			return fmt.Errorf("%w: %w", profile.ErrSinkUnwritable, err)
		}
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("%w: %w", profile.ErrSinkUnwritable, err)
	}
	return nil
}
