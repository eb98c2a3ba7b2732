package profile

import (
	"errors"
	"testing"
)

func TestFrequencyTableRecordAndFinalize(t *testing.T) {
	tbl := NewFrequencyTable[rune](TieAscending)
	for _, r := range "abracadabra" {
		if err := tbl.Record(r); err != nil {
			t.Fatalf("Record(%q) error = %v", r, err)
		}
	}
	if tbl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tbl.Len())
	}
	if got := tbl.Count('a'); got != 5 {
		t.Errorf("Count('a') = %d, want 5", got)
	}
	if got := tbl.Count('z'); got != 0 {
		t.Errorf("Count('z') = %d, want 0", got)
	}

	if err := tbl.Finalize(11); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !tbl.Finalized() {
		t.Error("Finalized() = false after Finalize")
	}

	// a:5, b:2, r:2, c:1, d:1 with ties broken by ascending key.
	want := []rune{'a', 'b', 'r', 'c', 'd'}
	entries := tbl.Entries()
	for i, e := range entries {
		if e.Key != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Key, want[i])
		}
	}
	if !almostEqual(entries[0].Occurrence, 5.0/11.0) {
		t.Errorf("occurrence of 'a' = %f, want %f", entries[0].Occurrence, 5.0/11.0)
	}
	if sum := sumOccurrences(tbl); sum < 1-1e-5 || sum > 1+1e-5 {
		t.Errorf("sum of occurrences = %f, want 1", sum)
	}
	// The index must follow the sorted order.
	if got := tbl.Count('r'); got != 2 {
		t.Errorf("Count('r') after Finalize = %d, want 2", got)
	}
}

func TestFrequencyTableTieBreak(t *testing.T) {
	testCases := []struct {
		name     string
		tieBreak TieBreak
		want     []int
	}{
		{"ascending", TieAscending, []int{7, 3, 5, 9}},
		{"descending", TieDescending, []int{7, 9, 5, 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tbl := NewFrequencyTable[int](tc.tieBreak)
			for _, k := range []int{5, 9, 7, 3, 7} {
				_ = tbl.Record(k)
			}
			if err := tbl.Finalize(5); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			for i, e := range tbl.Entries() {
				if e.Key != tc.want[i] {
					t.Errorf("entry %d = %d, want %d", i, e.Key, tc.want[i])
				}
			}
		})
	}
}

func TestFrequencyTableSample(t *testing.T) {
	tbl := NewFrequencyTable[rune](TieAscending)
	_ = tbl.Add('x', 3)
	_ = tbl.Add('y', 1)
	if err := tbl.Finalize(4); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	testCases := []struct {
		u    float64
		want rune
	}{
		{0, 'x'},
		{0.5, 'x'},
		{0.75, 'x'},
		{0.76, 'y'},
		{0.999999, 'y'},
		// Drift past the last cumulative value falls back to the first entry.
		{1.5, 'x'},
	}
	for _, tc := range testCases {
		got, err := tbl.Sample(tc.u)
		if err != nil {
			t.Fatalf("Sample(%f) error = %v", tc.u, err)
		}
		if got != tc.want {
			t.Errorf("Sample(%f) = %q, want %q", tc.u, got, tc.want)
		}
	}
}

func TestFrequencyTableErrors(t *testing.T) {
	tbl := NewFrequencyTable[int](TieDescending)
	if _, err := tbl.Sample(0.5); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Sample before Finalize: expected ErrNotFinalized, got %v", err)
	}
	if err := tbl.Add(1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Add(1, 0): expected ErrInvalidArgument, got %v", err)
	}

	if err := tbl.Finalize(0); err != nil {
		t.Fatalf("Finalize(0) on an empty table error = %v", err)
	}
	if _, err := tbl.Sample(0.5); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Sample on empty table: expected ErrEmptyTable, got %v", err)
	}
	if err := tbl.Finalize(1); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Finalize: expected ErrFinalized, got %v", err)
	}
	if err := tbl.Record(4); !errors.Is(err, ErrFinalized) {
		t.Errorf("Record after Finalize: expected ErrFinalized, got %v", err)
	}

	nonEmpty := NewFrequencyTable[int](TieDescending)
	_ = nonEmpty.Record(2)
	if err := nonEmpty.Finalize(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Finalize(0) on a non-empty table: expected ErrInvalidArgument, got %v", err)
	}
}

func TestFrequencyTableEntriesIsCopy(t *testing.T) {
	tbl := NewFrequencyTable[rune](TieAscending)
	_ = tbl.Record('q')
	entries := tbl.Entries()
	entries[0].Count = 100
	if got := tbl.Count('q'); got != 1 {
		t.Errorf("Count('q') = %d after mutating Entries(), want 1", got)
	}
}

func BenchmarkFrequencyTableSample(b *testing.B) {
	tbl := NewFrequencyTable[rune](TieAscending)
	for r := 'a'; r <= 'z'; r++ {
		_ = tbl.Add(r, int(r-'a')+1)
	}
	_ = tbl.Finalize(351)
	src := NewRandomSource(1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tbl.Sample(src.Float64())
	}
}
