package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Format is the document format used by ExportProfile and ImportProfile.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportedProfile is the serializable representation of a profile. Only raw
// counts are stored; occurrences are recomputed on import.
type ExportedProfile struct {
	Name      string             `json:"name" yaml:"name"`
	Lines     int                `json:"lines" yaml:"lines"`
	Lengths   []ExportedLength   `json:"lengths" yaml:"lengths"`
	Positions []ExportedPosition `json:"positions" yaml:"positions"`
}

// ExportedLength is one line length and how many lines had it.
type ExportedLength struct {
	Length int `json:"length" yaml:"length"`
	Count  int `json:"count" yaml:"count"`
}

// ExportedPosition is the character counts at one position.
type ExportedPosition struct {
	Position int            `json:"position" yaml:"position"`
	Chars    []ExportedChar `json:"chars" yaml:"chars"`
}

// ExportedChar is one character and its count. Char holds exactly one rune.
type ExportedChar struct {
	Char  string `json:"char" yaml:"char"`
	Count int    `json:"count" yaml:"count"`
}

// Export captures the counts of p under the given name. p may be finalized
// or still accumulating.
func Export(name string, p *Profile) *ExportedProfile {
	exported := &ExportedProfile{
		Name:  name,
		Lines: p.LineCount(),
	}
	for _, e := range p.Lengths.Table().Entries() {
		exported.Lengths = append(exported.Lengths, ExportedLength{Length: e.Key, Count: e.Count})
	}
	for pos := 0; pos < p.Chars.Positions(); pos++ {
		position := ExportedPosition{Position: pos}
		for _, e := range p.Chars.Table(pos).Entries() {
			position.Chars = append(position.Chars, ExportedChar{Char: string(e.Key), Count: e.Count})
		}
		exported.Positions = append(exported.Positions, position)
	}
	return exported
}

// Profile rebuilds and finalizes a Profile from the exported counts. The
// counts must be consistent: the characters recorded at position p must add
// up to the number of lines longer than p.
func (e *ExportedProfile) Profile() (*Profile, error) {
	p := NewProfile()
	for _, l := range e.Lengths {
		if l.Length < 0 {
			return nil, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, l.Length)
		}
		if err := p.Lengths.add(l.Length, l.Count); err != nil {
			return nil, fmt.Errorf("length %d: %w", l.Length, err)
		}
	}
	if e.Lines != 0 && e.Lines != p.Lengths.Total() {
		return nil, fmt.Errorf("%w: profile declares %d lines but lengths count %d", ErrInvalidArgument, e.Lines, p.Lengths.Total())
	}

	// A consistent document lists every position below the longest line, so
	// no valid position can exceed either bound.
	maxLength := 0
	for _, l := range e.Lengths {
		maxLength = max(maxLength, l.Length)
	}
	limit := min(maxLength, len(e.Positions))
	for _, pos := range e.Positions {
		if pos.Position < 0 || pos.Position >= limit {
			return nil, fmt.Errorf("%w: characters recorded at position %d beyond the longest line (%d)", ErrInvalidArgument, pos.Position, maxLength)
		}
		for _, c := range pos.Chars {
			r, size := utf8.DecodeRuneInString(c.Char)
			if size == 0 || size != len(c.Char) {
				return nil, fmt.Errorf("%w: position %d holds %q, want a single character", ErrInvalidArgument, pos.Position, c.Char)
			}
			if err := p.Chars.add(pos.Position, r, c.Count); err != nil {
				return nil, fmt.Errorf("position %d: %w", pos.Position, err)
			}
		}
	}

	if err := checkReach(p); err != nil {
		return nil, err
	}
	if err := p.Finalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkReach verifies that every position total equals the number of lines
// long enough to reach it, which guarantees generation never asks for an
// unknown position.
func checkReach(p *Profile) error {
	maxLength := 0
	for _, e := range p.Lengths.Table().Entries() {
		maxLength = max(maxLength, e.Key)
	}
	if p.Chars.Positions() > maxLength {
		return fmt.Errorf("%w: characters recorded at position %d beyond the longest line (%d)", ErrInvalidArgument, p.Chars.Positions()-1, maxLength)
	}
	for pos := 0; pos < maxLength; pos++ {
		reach := 0
		for _, e := range p.Lengths.Table().Entries() {
			if e.Key > pos {
				reach += e.Count
			}
		}
		if got := p.Chars.Total(pos); got != reach {
			return fmt.Errorf("%w: position %d has %d characters but %d lines reach it", ErrInvalidArgument, pos, got, reach)
		}
	}
	return nil
}

// ExportProfile writes p to w as a JSON or YAML document.
func ExportProfile(w io.Writer, name string, p *Profile, format Format) error {
	exported := Export(name, p)
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(exported); err != nil {
			return fmt.Errorf("failed to encode yaml profile: %w", err)
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(exported)
	}
}

// ImportProfile reads a document written by ExportProfile and returns the
// profile's name and the rebuilt, finalized Profile.
func ImportProfile(r io.Reader, format Format) (string, *Profile, error) {
	var imported ExportedProfile
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&imported); err != nil {
			return "", nil, fmt.Errorf("failed to decode yaml profile: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&imported); err != nil {
			return "", nil, fmt.Errorf("failed to decode json profile: %w", err)
		}
	}
	p, err := imported.Profile()
	if err != nil {
		return "", nil, err
	}
	return imported.Name, p, nil
}
