package profile

import (
	"cmp"
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// fixtureLines is the small corpus most tests build their profile from.
var fixtureLines = []string{"abc", "abc", "ab"}

// mustProfile analyzes lines and returns the finalized profile.
func mustProfile(t testing.TB, lines ...string) *Profile {
	t.Helper()
	p, err := Analyze(context.Background(), NewSliceSource(lines))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return p
}

// mustGenerator returns a Generator over a profile of lines.
func mustGenerator(t testing.TB, lines ...string) *Generator {
	t.Helper()
	g, err := NewGenerator(mustProfile(t, lines...))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

// setupTestStore opens a SQLite database in a temp dir and returns a Store over it.
// It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return db, s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// sumOccurrences adds up every occurrence in t.
func sumOccurrences[K cmp.Ordered](t *FrequencyTable[K]) float64 {
	var sum float64
	for _, e := range t.Entries() {
		sum += e.Occurrence
	}
	return sum
}
