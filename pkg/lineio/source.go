package lineio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/bmatcuk/doublestar/v4"
)

// InputExt is the extension every corpus file must carry.
const InputExt = ".txt"

// ValidateInput checks that path names a .txt file.
func ValidateInput(path string) error {
	if len(path) <= len(InputExt) || !strings.HasSuffix(path, InputExt) {
		return fmt.Errorf("%w: %q must be a path ending in %s", profile.ErrInvalidArgument, path, InputExt)
	}
	return nil
}

// Expand resolves a path or a doublestar glob pattern (e.g. "lists/**/*.txt")
// into a sorted list of corpus files. A plain path is returned as is, even if
// it does not exist, so the open error surfaces later as ErrSourceUnreadable.
func Expand(pattern string) ([]string, error) {
	if err := ValidateInput(pattern); err != nil {
		return nil, err
	}
	if !hasMeta(pattern) {
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %w", profile.ErrInvalidArgument, pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", profile.ErrSourceUnreadable, pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(filepath.ToSlash(pattern), "*?[{")
}

// FileSource is a profile.LineSource reading a corpus file.
type FileSource struct {
	*profile.LineScanner
	file *os.File
	path string
}

// Open opens the corpus at path. Failure to open is reported as
// profile.ErrSourceUnreadable.
func Open(path string) (*FileSource, error) {
	if err := ValidateInput(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", profile.ErrSourceUnreadable, err)
	}
	return &FileSource{
		LineScanner: profile.NewLineScanner(f),
		file:        f,
		path:        path,
	}, nil
}

// Path returns the file the source reads from.
func (s *FileSource) Path() string {
	return s.path
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// OutputPath returns the path generated lines for input are written to.
func OutputPath(input, suffix string) string {
	return input + suffix
}
