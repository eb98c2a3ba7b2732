package profile

import (
	"fmt"
	"unicode/utf8"
)

// Profile bundles the length and character models learned from one corpus.
// It is finalized as a unit; a finalized Profile is read-only and may be
// shared between goroutines.
type Profile struct {
	Lengths   *LengthModel
	Chars     *CharModel
	finalized bool
}

// NewProfile returns an empty Profile ready to accumulate lines.
func NewProfile() *Profile {
	return &Profile{
		Lengths: NewLengthModel(),
		Chars:   NewCharModel(),
	}
}

// AddLine folds one line into both models. Empty lines are valid and count
// as length zero.
func (p *Profile) AddLine(line string) error {
	if p.finalized {
		return ErrFinalized
	}
	if err := p.Lengths.Record(utf8.RuneCountInString(line)); err != nil {
		return fmt.Errorf("recording length: %w", err)
	}
	if err := p.Chars.RecordLine(line); err != nil {
		return fmt.Errorf("recording characters: %w", err)
	}
	return nil
}

// Finalize sorts and normalizes both models. It must be called once before
// the profile is used for generation.
func (p *Profile) Finalize() error {
	if p.finalized {
		return ErrFinalized
	}
	if err := p.Lengths.Finalize(); err != nil {
		return fmt.Errorf("finalizing lengths: %w", err)
	}
	if err := p.Chars.Finalize(); err != nil {
		return fmt.Errorf("finalizing characters: %w", err)
	}
	p.finalized = true
	return nil
}

// Finalized reports whether Finalize has completed.
func (p *Profile) Finalized() bool {
	return p.finalized
}

// LineCount returns the number of lines the profile was built from.
func (p *Profile) LineCount() int {
	return p.Lengths.Total()
}
