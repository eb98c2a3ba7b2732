package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSource returns lines and then a read error.
type failingSource struct {
	lines []string
	err   error
}

func (s *failingSource) NextLine() (string, error) {
	if len(s.lines) == 0 {
		return "", s.err
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestAnalyzeFixture(t *testing.T) {
	p := mustProfile(t, fixtureLines...)

	require.True(t, p.Finalized())
	assert.Equal(t, 3, p.LineCount())

	lengths := p.Lengths.Table().Entries()
	require.Len(t, lengths, 2)
	assert.Equal(t, 3, lengths[0].Key)
	assert.Equal(t, 2, lengths[0].Count)
	assert.InDelta(t, 2.0/3.0, lengths[0].Occurrence, 1e-9)
	assert.Equal(t, 2, lengths[1].Key)
	assert.InDelta(t, 1.0/3.0, lengths[1].Occurrence, 1e-9)

	require.Equal(t, 3, p.Chars.Positions())
	wantTotals := []int{3, 3, 2}
	wantChars := []rune{'a', 'b', 'c'}
	for pos := 0; pos < 3; pos++ {
		assert.Equal(t, wantTotals[pos], p.Chars.Total(pos), "total at position %d", pos)
		entries := p.Chars.Table(pos).Entries()
		require.Len(t, entries, 1, "position %d", pos)
		assert.Equal(t, wantChars[pos], entries[0].Key)
		assert.InDelta(t, 1.0, entries[0].Occurrence, 1e-9, "position %d is normalized by its own total", pos)
	}
}

func TestAnalyzePositionTotalsMatchReach(t *testing.T) {
	p := mustProfile(t, "a", "bb", "ccc", "dddd", "", "ee")
	for pos := 0; pos < p.Chars.Positions(); pos++ {
		reach := 0
		for _, e := range p.Lengths.Table().Entries() {
			if e.Key > pos {
				reach += e.Count
			}
		}
		assert.Equal(t, reach, p.Chars.Total(pos), "position %d", pos)
		assert.InDelta(t, 1.0, sumOccurrences(p.Chars.Table(pos)), 1e-5, "position %d", pos)
	}
	assert.InDelta(t, 1.0, sumOccurrences(p.Lengths.Table()), 1e-5)
}

func TestAnalyzeEmptyLines(t *testing.T) {
	p := mustProfile(t, "", "", "x")
	assert.Equal(t, 3, p.LineCount())
	assert.Equal(t, 2, p.Lengths.Table().Count(0))
	assert.Equal(t, 1, p.Chars.Positions())
	assert.Equal(t, 1, p.Chars.Total(0))
}

func TestAnalyzeEmptySource(t *testing.T) {
	p := mustProfile(t)
	assert.Equal(t, 0, p.LineCount())
	assert.Equal(t, 0, p.Chars.Positions())
	assert.True(t, p.Finalized())
}

func TestAnalyzeReaderCRLF(t *testing.T) {
	p, err := AnalyzeReader(context.Background(), strings.NewReader("abc\r\nabc\r\nab"))
	require.NoError(t, err)
	assert.Equal(t, 3, p.LineCount())
	assert.Equal(t, 2, p.Lengths.Table().Count(3))
	assert.Equal(t, 0, p.Chars.Table(0).Count('\r'))
	assert.Equal(t, 3, p.Chars.Positions())
}

func TestAnalyzeRunes(t *testing.T) {
	p := mustProfile(t, "héllo", "wörld")
	assert.Equal(t, 2, p.Lengths.Table().Count(5), "length is counted in characters, not bytes")
	assert.Equal(t, 1, p.Chars.Table(1).Count('é'))
	assert.Equal(t, 1, p.Chars.Table(1).Count('ö'))
}

func TestAnalyzeUnreadableSource(t *testing.T) {
	readErr := errors.New("disk on fire")
	p, err := Analyze(context.Background(), &failingSource{lines: []string{"abc"}, err: readErr})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
	assert.ErrorIs(t, err, readErr)
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, NewSliceSource(fixtureLines))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeedAccumulatesAcrossSources(t *testing.T) {
	ctx := context.Background()
	a := NewAnalyzer()
	p := NewProfile()
	require.NoError(t, a.Feed(ctx, p, NewSliceSource([]string{"abc"})))
	require.NoError(t, a.Feed(ctx, p, NewSliceSource([]string{"abc", "ab"})))
	require.NoError(t, p.Finalize())

	want := mustProfile(t, fixtureLines...)
	assert.Equal(t, want.Stats(), p.Stats())

	err := a.Feed(ctx, p, NewSliceSource([]string{"late"}))
	assert.ErrorIs(t, err, ErrFinalized)
}
