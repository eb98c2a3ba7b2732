package profile

import (
	"bufio"
	"io"
)

// maxLineLength bounds a single corpus line. Longer lines fail the scan
// rather than growing the buffer without limit.
const maxLineLength = 1 << 20

// LineSource supplies corpus lines one at a time. NextLine returns io.EOF
// once the source is exhausted.
type LineSource interface {
	NextLine() (string, error)
}

// LineSink accepts generated lines, one call per line.
type LineSink interface {
	WriteLine(line string) error
}

// LineScanner is the default LineSource. It splits on '\n'; bufio.ScanLines
// also drops a trailing '\r', so CRLF files read the same as LF files.
type LineScanner struct {
	scanner *bufio.Scanner
}

// NewLineScanner returns a LineSource reading from r.
func NewLineScanner(r io.Reader) *LineScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &LineScanner{scanner: s}
}

// NextLine returns the next line without its terminator, or io.EOF.
func (s *LineScanner) NextLine() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// SliceSource is a LineSource over an in-memory slice of lines.
type SliceSource struct {
	lines []string
	next  int
}

// NewSliceSource returns a LineSource yielding lines in order.
func NewSliceSource(lines []string) *SliceSource {
	return &SliceSource{lines: lines}
}

// NextLine returns the next line, or io.EOF.
func (s *SliceSource) NextLine() (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}
