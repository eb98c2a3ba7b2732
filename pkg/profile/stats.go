package profile

import "math/big"

// Report is a read-only summary of a finalized profile.
type Report struct {
	TotalLines      int            `json:"total_lines"`
	DistinctLengths int            `json:"distinct_lengths"`
	Lengths         []LengthStat   `json:"lengths"`
	Positions       []PositionStat `json:"positions"`
	// Outcomes is the product of the unique character counts of every
	// position, ignoring length variation.
	Outcomes *big.Int `json:"outcomes"`
	// Realizable is the exact number of distinct lines the profile can
	// produce once line lengths are taken into account.
	Realizable *big.Int `json:"realizable"`
}

// LengthStat describes one observed line length.
type LengthStat struct {
	Length     int     `json:"length"`
	Count      int     `json:"count"`
	Occurrence float64 `json:"occurrence"`
}

// PositionStat describes the characters seen at one position.
type PositionStat struct {
	Position int        `json:"position"`
	Total    int        `json:"total"`
	Unique   int        `json:"unique"`
	Chars    []CharStat `json:"chars"`
}

// CharStat describes one character at a position.
type CharStat struct {
	Char       string  `json:"char"`
	Count      int     `json:"count"`
	Occurrence float64 `json:"occurrence"`
}

// Stats builds a Report. Entries appear in sampling order.
func (p *Profile) Stats() *Report {
	lengthEntries := p.Lengths.Table().Entries()
	report := &Report{
		TotalLines:      p.LineCount(),
		DistinctLengths: len(lengthEntries),
		Lengths:         make([]LengthStat, 0, len(lengthEntries)),
		Positions:       make([]PositionStat, 0, p.Chars.Positions()),
		Outcomes:        p.OutcomeProduct(),
		Realizable:      p.RealizableOutcomes(),
	}
	for _, e := range lengthEntries {
		report.Lengths = append(report.Lengths, LengthStat{Length: e.Key, Count: e.Count, Occurrence: e.Occurrence})
	}
	for pos := 0; pos < p.Chars.Positions(); pos++ {
		entries := p.Chars.Table(pos).Entries()
		stat := PositionStat{
			Position: pos,
			Total:    p.Chars.Total(pos),
			Unique:   len(entries),
			Chars:    make([]CharStat, 0, len(entries)),
		}
		for _, e := range entries {
			stat.Chars = append(stat.Chars, CharStat{Char: string(e.Key), Count: e.Count, Occurrence: e.Occurrence})
		}
		report.Positions = append(report.Positions, stat)
	}
	return report
}

// OutcomeProduct multiplies the unique character counts of all positions.
// It overflows any fixed width integer for long or varied corpora, hence
// big.Int. A profile with no positions yields 0.
func (p *Profile) OutcomeProduct() *big.Int {
	if p.Chars.Positions() == 0 {
		return big.NewInt(0)
	}
	product := big.NewInt(1)
	for pos := 0; pos < p.Chars.Positions(); pos++ {
		product.Mul(product, big.NewInt(int64(p.Chars.Table(pos).Len())))
	}
	return product
}

// RealizableOutcomes counts the distinct lines GenerateOne can return: for
// every observed length L, the product of unique characters at positions
// 0..L-1. Lines of different lengths never collide, so the terms add up.
func (p *Profile) RealizableOutcomes() *big.Int {
	total := new(big.Int)
	for _, e := range p.Lengths.Table().Entries() {
		term := big.NewInt(1)
		for pos := 0; pos < e.Key; pos++ {
			t := p.Chars.Table(pos)
			if t == nil {
				term.SetInt64(0)
				break
			}
			term.Mul(term, big.NewInt(int64(t.Len())))
		}
		total.Add(total, term)
	}
	return total
}
