package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSetupSchemaIdempotent(t *testing.T) {
	db, _ := setupTestStore(t)
	if err := SetupSchema(db); err != nil {
		t.Errorf("second SetupSchema() error = %v", err)
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	original := mustProfile(t, "hunter2", "letmein", "abc", "", "ümlaut")
	if err := s.SaveProfile(ctx, "keys", original); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	info, err := s.GetProfileInfo(ctx, "keys")
	if err != nil {
		t.Fatalf("GetProfileInfo() error = %v", err)
	}
	if info.Name != "keys" || info.Lines != 5 {
		t.Errorf("got unexpected profile info: %+v", info)
	}

	loaded, err := s.LoadProfile(ctx, "keys")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	want, got := original.Stats(), loaded.Stats()
	if got.TotalLines != want.TotalLines || got.DistinctLengths != want.DistinctLengths || len(got.Positions) != len(want.Positions) {
		t.Fatalf("loaded profile differs: got %d lines, %d lengths, %d positions", got.TotalLines, got.DistinctLengths, len(got.Positions))
	}
	if got.Realizable.Cmp(want.Realizable) != 0 {
		t.Errorf("realizable outcomes = %s, want %s", got.Realizable, want.Realizable)
	}
	if loaded.Chars.Table(0).Count('ü') != 1 {
		t.Error("expected the non-ASCII character to survive storage")
	}
}

func TestSaveProfileMerges(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveProfile(ctx, "merged", mustProfile(t, "abc")); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if err := s.Train(ctx, "merged", NewSliceSource([]string{"abc", "ab"})); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	loaded, err := s.LoadProfile(ctx, "merged")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if loaded.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", loaded.LineCount())
	}
	if got := loaded.Lengths.Table().Count(3); got != 2 {
		t.Errorf("count of length 3 = %d, want 2", got)
	}
	if got := loaded.Chars.Total(2); got != 2 {
		t.Errorf("total at position 2 = %d, want 2", got)
	}
}

func TestGetProfileInfos(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	_ = s.SaveProfile(ctx, "zeta", mustProfile(t, "z"))
	_ = s.SaveProfile(ctx, "alpha", mustProfile(t, "a", "b"))

	infos, err := s.GetProfileInfos(ctx)
	if err != nil {
		t.Fatalf("GetProfileInfos() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(infos))
	}
	if infos[0].Name != "alpha" || infos[0].Lines != 2 || infos[1].Name != "zeta" {
		t.Errorf("unexpected profile list: %+v", infos)
	}
}

func TestRemoveProfile(t *testing.T) {
	db, s := setupTestStore(t)
	ctx := context.Background()

	_ = s.SaveProfile(ctx, "to_delete", mustProfile(t, "delete", "me"))
	_ = s.SaveProfile(ctx, "to_keep", mustProfile(t, "keep"))

	if err := s.RemoveProfile(ctx, "to_delete"); err != nil {
		t.Fatalf("RemoveProfile() error = %v", err)
	}
	if _, err := s.GetProfileInfo(ctx, "to_delete"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound after removal, got %v", err)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM qsa_chars WHERE profile_id NOT IN (SELECT profile_id FROM qsa_profiles)").Scan(&rows); err != nil {
		t.Fatalf("failed to count orphaned rows: %v", err)
	}
	if rows != 0 {
		t.Errorf("found %d orphaned character rows", rows)
	}

	if _, err := s.LoadProfile(ctx, "to_keep"); err != nil {
		t.Errorf("LoadProfile(to_keep) error = %v", err)
	}
	if err := s.RemoveProfile(ctx, "to_delete"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("removing twice: expected ErrProfileNotFound, got %v", err)
	}
}

func TestStoreErrors(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveProfile(ctx, "", mustProfile(t, "x")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SaveProfile with empty name: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := s.LoadProfile(ctx, "missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("LoadProfile(missing): expected ErrProfileNotFound, got %v", err)
	}
	err := s.Train(ctx, "broken", &failingSource{err: errors.New("boom")})
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Train with failing source: expected ErrSourceUnreadable, got %v", err)
	}
	if _, err = s.GetProfileInfo(ctx, "broken"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("a failed Train must not create the profile, got %v", err)
	}
}

func TestLoadedProfileGenerates(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Train(ctx, "words", NewLineScanner(strings.NewReader("alpha\nbravo\ncharlie\ndelta\n"))); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	p, err := s.LoadProfile(ctx, "words")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	g, err := NewGenerator(p)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	lines, err := g.GenerateUnique(ctx, 20, WithSeed(2))
	if err != nil {
		t.Fatalf("GenerateUnique() error = %v", err)
	}
	if len(lines) != 20 {
		t.Errorf("got %d lines, want 20", len(lines))
	}
}
