package profile

// LengthModel is the distribution of line lengths in a corpus.
type LengthModel struct {
	table *FrequencyTable[int]
	total int
}

// NewLengthModel returns an empty LengthModel.
func NewLengthModel() *LengthModel {
	return &LengthModel{table: NewFrequencyTable[int](TieDescending)}
}

// Record counts one line of the given length.
func (m *LengthModel) Record(length int) error {
	return m.add(length, 1)
}

func (m *LengthModel) add(length, n int) error {
	if err := m.table.Add(length, n); err != nil {
		return err
	}
	m.total += n
	return nil
}

// Finalize normalizes the model over the total number of recorded lines.
func (m *LengthModel) Finalize() error {
	return m.table.Finalize(m.total)
}

// SampleLength draws a line length using the uniform value u in [0, 1).
func (m *LengthModel) SampleLength(u float64) (int, error) {
	return m.table.Sample(u)
}

// Table exposes the underlying frequency table for reporting.
func (m *LengthModel) Table() *FrequencyTable[int] {
	return m.table
}

// Total returns the number of lines recorded.
func (m *LengthModel) Total() int {
	return m.total
}
