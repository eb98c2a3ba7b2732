package profile

import (
	"cmp"
	"fmt"
	"sort"
)

// TieBreak decides the order of two entries that have the same count.
type TieBreak int

const (
	// TieAscending orders equal counts by ascending key. Character tables use it.
	TieAscending TieBreak = iota
	// TieDescending orders equal counts by descending key. Length tables use it.
	TieDescending
)

// Entry is a single key in a FrequencyTable together with the number of times
// it was recorded. Occurrence is only meaningful once the table is finalized.
type Entry[K cmp.Ordered] struct {
	Key        K
	Count      int
	Occurrence float64
}

// FrequencyTable accumulates occurrence counts for discrete keys and, once
// finalized, turns them into probabilities that can be sampled.
//
// A table starts out accumulating. Finalize sorts it and normalizes it exactly
// once, after which it is immutable and safe for concurrent reads.
type FrequencyTable[K cmp.Ordered] struct {
	entries   []Entry[K]
	index     map[K]int // key -> position in entries
	tieBreak  TieBreak
	finalized bool
}

// NewFrequencyTable returns an empty, accumulating table.
func NewFrequencyTable[K cmp.Ordered](tieBreak TieBreak) *FrequencyTable[K] {
	return &FrequencyTable[K]{
		index:    make(map[K]int),
		tieBreak: tieBreak,
	}
}

// Record increments the count for key, inserting it with a count of one if
// it has not been seen before.
func (t *FrequencyTable[K]) Record(key K) error {
	return t.Add(key, 1)
}

// Add increments the count for key by n. It is used when rebuilding a table
// from stored or imported counts.
func (t *FrequencyTable[K]) Add(key K, n int) error {
	if t.finalized {
		return ErrFinalized
	}
	if n <= 0 {
		return fmt.Errorf("%w: count for %v must be positive, got %d", ErrInvalidArgument, key, n)
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].Count += n
		return nil
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry[K]{Key: key, Count: n})
	return nil
}

// Finalize sorts the entries by descending count, breaking ties according to
// the table's TieBreak, and sets every occurrence to count / denominator.
func (t *FrequencyTable[K]) Finalize(denominator int) error {
	if t.finalized {
		return ErrFinalized
	}
	if len(t.entries) > 0 && denominator <= 0 {
		return fmt.Errorf("%w: denominator must be positive, got %d", ErrInvalidArgument, denominator)
	}

	sort.Slice(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if t.tieBreak == TieDescending {
			return a.Key > b.Key
		}
		return a.Key < b.Key
	})

	for i := range t.entries {
		t.entries[i].Occurrence = float64(t.entries[i].Count) / float64(denominator)
		t.index[t.entries[i].Key] = i
	}
	t.finalized = true
	return nil
}

// Sample walks the finalized entries accumulating occurrences and returns the
// key of the first entry at which the running sum reaches u. u is expected to
// lie in [0, 1).
//
// When floating point drift leaves the running sum below u for every entry,
// the first (most frequent) entry is returned. This slightly favours the top
// entry and is intentional.
func (t *FrequencyTable[K]) Sample(u float64) (K, error) {
	var zero K
	if !t.finalized {
		return zero, ErrNotFinalized
	}
	if len(t.entries) == 0 {
		return zero, ErrEmptyTable
	}
	var cumulative float64
	for _, e := range t.entries {
		cumulative += e.Occurrence
		if cumulative >= u {
			return e.Key, nil
		}
	}
	return t.entries[0].Key, nil
}

// Len returns the number of distinct keys recorded.
func (t *FrequencyTable[K]) Len() int {
	return len(t.entries)
}

// Finalized reports whether Finalize has been called.
func (t *FrequencyTable[K]) Finalized() bool {
	return t.finalized
}

// Count returns the recorded count for key, or zero if it was never recorded.
func (t *FrequencyTable[K]) Count(key K) int {
	if i, ok := t.index[key]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Entries returns a copy of the entries. After finalization they are in
// sampling order.
func (t *FrequencyTable[K]) Entries() []Entry[K] {
	out := make([]Entry[K], len(t.entries))
	copy(out, t.entries)
	return out
}
