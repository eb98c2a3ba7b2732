package profile

import "fmt"

// position holds the character table for one index within a line, along with
// the number of characters recorded there.
type position struct {
	table *FrequencyTable[rune]
	total int
}

// CharModel keeps an independent character distribution for every position
// observed in the corpus.
//
// Every line that reaches position p also reaches every position before it,
// so positions are contiguous from zero and stored in a slice. The total for
// position p equals the number of lines longer than p.
type CharModel struct {
	positions []*position
	finalized bool
}

// NewCharModel returns an empty CharModel.
func NewCharModel() *CharModel {
	return &CharModel{}
}

// RecordLine counts every character of line against its position.
func (m *CharModel) RecordLine(line string) error {
	if m.finalized {
		return ErrFinalized
	}
	i := 0
	for _, r := range line {
		if err := m.add(i, r, 1); err != nil {
			return err
		}
		i++
	}
	return nil
}

// add records n occurrences of r at pos, creating positions up to pos on demand.
func (m *CharModel) add(pos int, r rune, n int) error {
	if pos < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidArgument, pos)
	}
	for len(m.positions) <= pos {
		m.positions = append(m.positions, &position{table: NewFrequencyTable[rune](TieAscending)})
	}
	p := m.positions[pos]
	if err := p.table.Add(r, n); err != nil {
		return err
	}
	p.total += n
	return nil
}

// Finalize normalizes every position against its own total rather than the
// corpus line count.
func (m *CharModel) Finalize() error {
	if m.finalized {
		return ErrFinalized
	}
	for i, p := range m.positions {
		if err := p.table.Finalize(p.total); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
	}
	m.finalized = true
	return nil
}

// SampleChar draws a character for pos using the uniform value u in [0, 1).
func (m *CharModel) SampleChar(pos int, u float64) (rune, error) {
	if pos < 0 || pos >= len(m.positions) {
		return 0, fmt.Errorf("%w: %d (observed 0..%d)", ErrPositionNotFound, pos, len(m.positions)-1)
	}
	return m.positions[pos].table.Sample(u)
}

// Positions returns the number of positions observed.
func (m *CharModel) Positions() int {
	return len(m.positions)
}

// Table returns the character table for pos, or nil when pos was never observed.
func (m *CharModel) Table(pos int) *FrequencyTable[rune] {
	if pos < 0 || pos >= len(m.positions) {
		return nil
	}
	return m.positions[pos].table
}

// Total returns the number of characters recorded at pos.
func (m *CharModel) Total(pos int) int {
	if pos < 0 || pos >= len(m.positions) {
		return 0
	}
	return m.positions[pos].total
}
