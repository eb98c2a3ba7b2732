package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the tables used by Store. It is idempotent and
// safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaProfiles = `
CREATE TABLE IF NOT EXISTS qsa_profiles (
    profile_id INTEGER PRIMARY KEY,
    profile_name TEXT NOT NULL UNIQUE,
    line_count INTEGER NOT NULL DEFAULT 0
);
`
		schemaLengths = `
CREATE TABLE IF NOT EXISTS qsa_lengths (
    profile_id INTEGER NOT NULL,
    line_length INTEGER NOT NULL,
    frequency INTEGER NOT NULL,
    PRIMARY KEY (profile_id, line_length)
);
`
		schemaChars = `
CREATE TABLE IF NOT EXISTS qsa_chars (
    profile_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    char_text TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    PRIMARY KEY (profile_id, position, char_text)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, schema := range []string{schemaProfiles, schemaLengths, schemaChars} {
		if _, err = tx.Exec(schema); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// ProfileInfo is the metadata of a stored profile.
type ProfileInfo struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

// Store persists profiles in a SQLite database so a corpus only has to be
// analyzed once.
type Store struct {
	db                 *sql.DB
	stmtGetProfileInfo *sql.Stmt
	stmtGetProfiles    *sql.Stmt
	stmtGetLengths     *sql.Stmt
	stmtGetChars       *sql.Stmt
	stmtUpsertProfile  *sql.Stmt
	stmtUpsertLength   *sql.Stmt
	stmtUpsertChar     *sql.Stmt
	logger             *slog.Logger
}

// NewStore prepares the statements used by the Store. SetupSchema must have
// been run on db first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetProfileInfo, err := db.Prepare(`SELECT profile_id, line_count FROM qsa_profiles WHERE profile_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetProfiles, err := db.Prepare(`SELECT profile_id, profile_name, line_count FROM qsa_profiles ORDER BY profile_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetLengths, err := db.Prepare(`SELECT line_length, frequency FROM qsa_lengths WHERE profile_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetChars, err := db.Prepare(`SELECT position, char_text, frequency FROM qsa_chars WHERE profile_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertProfile, err := db.Prepare(`INSERT INTO qsa_profiles (profile_name, line_count) VALUES (?, ?) ON CONFLICT(profile_name) DO UPDATE SET line_count = line_count + excluded.line_count RETURNING profile_id;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertLength, err := db.Prepare(`INSERT INTO qsa_lengths (profile_id, line_length, frequency) VALUES (?, ?, ?) ON CONFLICT(profile_id, line_length) DO UPDATE SET frequency = frequency + excluded.frequency;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertChar, err := db.Prepare(`INSERT INTO qsa_chars (profile_id, position, char_text, frequency) VALUES (?, ?, ?, ?) ON CONFLICT(profile_id, position, char_text) DO UPDATE SET frequency = frequency + excluded.frequency;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                 db,
		stmtGetProfileInfo: stmtGetProfileInfo,
		stmtGetProfiles:    stmtGetProfiles,
		stmtGetLengths:     stmtGetLengths,
		stmtGetChars:       stmtGetChars,
		stmtUpsertProfile:  stmtUpsertProfile,
		stmtUpsertLength:   stmtUpsertLength,
		stmtUpsertChar:     stmtUpsertChar,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetProfileInfo.Close()
	_ = s.stmtGetProfiles.Close()
	_ = s.stmtGetLengths.Close()
	_ = s.stmtGetChars.Close()
	_ = s.stmtUpsertProfile.Close()
	_ = s.stmtUpsertLength.Close()
	_ = s.stmtUpsertChar.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetProfileInfos returns the metadata of every stored profile, ordered by name.
func (s *Store) GetProfileInfos(ctx context.Context) ([]ProfileInfo, error) {
	rows, err := s.stmtGetProfiles.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	infos := make([]ProfileInfo, 0)
	for rows.Next() {
		var info ProfileInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.Lines); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetProfileInfo returns the metadata of a single profile, or ErrProfileNotFound.
func (s *Store) GetProfileInfo(ctx context.Context, name string) (ProfileInfo, error) {
	info := ProfileInfo{Name: name}
	err := s.stmtGetProfileInfo.QueryRowContext(ctx, name).Scan(&info.Id, &info.Lines)
	if errors.Is(err, sql.ErrNoRows) {
		return ProfileInfo{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if err != nil {
		return ProfileInfo{}, err
	}
	return info, nil
}

// SaveProfile stores the counts of p under name. If a profile with that name
// already exists the counts are added to it, so saving several corpora under
// one name trains a single combined profile. The operation is transactional.
func (s *Store) SaveProfile(ctx context.Context, name string, p *Profile) error {
	if name == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalidArgument)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var profileID int
	if err = tx.StmtContext(ctx, s.stmtUpsertProfile).QueryRowContext(ctx, name, p.LineCount()).Scan(&profileID); err != nil {
		return fmt.Errorf("failed to upsert profile '%s': %w", name, err)
	}

	stmtUpsertLength := tx.StmtContext(ctx, s.stmtUpsertLength)
	for _, e := range p.Lengths.Table().Entries() {
		if _, err = stmtUpsertLength.ExecContext(ctx, profileID, e.Key, e.Count); err != nil {
			return fmt.Errorf("failed to store length %d: %w", e.Key, err)
		}
	}

	stmtUpsertChar := tx.StmtContext(ctx, s.stmtUpsertChar)
	var chars int
	for pos := 0; pos < p.Chars.Positions(); pos++ {
		for _, e := range p.Chars.Table(pos).Entries() {
			if _, err = stmtUpsertChar.ExecContext(ctx, profileID, pos, string(e.Key), e.Count); err != nil {
				return fmt.Errorf("failed to store character %q at position %d: %w", e.Key, pos, err)
			}
			chars++
		}
	}

	s.logger.InfoContext(ctx, "Profile saved",
		slog.String("profile_name", name),
		slog.Int("profile_id", profileID),
		slog.Int("lines_added", p.LineCount()),
		slog.Int("char_rows", chars),
	)

	return tx.Commit()
}

// Train analyzes src and merges the result into the profile stored under name.
func (s *Store) Train(ctx context.Context, name string, src LineSource) error {
	analyzer := NewAnalyzer()
	analyzer.SetLogger(s.logger)
	p := NewProfile()
	if err := analyzer.Feed(ctx, p, src); err != nil {
		return err
	}
	return s.SaveProfile(ctx, name, p)
}

// LoadProfile rebuilds the named profile and returns it finalized.
func (s *Store) LoadProfile(ctx context.Context, name string) (*Profile, error) {
	info, err := s.GetProfileInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	exported := &ExportedProfile{Name: info.Name, Lines: info.Lines}

	rows, err := s.stmtGetLengths.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query lengths: %w", err)
	}
	for rows.Next() {
		var l ExportedLength
		if err = rows.Scan(&l.Length, &l.Count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		exported.Lengths = append(exported.Lengths, l)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	cRows, err := s.stmtGetChars.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query characters: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(cRows)

	// Rows arrive ordered by position, so a new position starts whenever the
	// position column changes.
	for cRows.Next() {
		var pos int
		var c ExportedChar
		if err = cRows.Scan(&pos, &c.Char, &c.Count); err != nil {
			return nil, err
		}
		if n := len(exported.Positions); n == 0 || exported.Positions[n-1].Position != pos {
			exported.Positions = append(exported.Positions, ExportedPosition{Position: pos})
		}
		last := &exported.Positions[len(exported.Positions)-1]
		last.Chars = append(last.Chars, c)
	}
	if err = cRows.Err(); err != nil {
		return nil, err
	}

	p, err := exported.Profile()
	if err != nil {
		return nil, fmt.Errorf("stored profile '%s' is inconsistent: %w", name, err)
	}

	s.logger.DebugContext(ctx, "Profile loaded",
		slog.String("profile_name", name),
		slog.Int("profile_id", info.Id),
		slog.Int("lines", p.LineCount()),
	)
	return p, nil
}

// RemoveProfile deletes a profile and all of its counts. The operation is
// performed within a transaction.
func (s *Store) RemoveProfile(ctx context.Context, name string) error {
	info, err := s.GetProfileInfo(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM qsa_chars WHERE profile_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove characters for profile %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM qsa_lengths WHERE profile_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove lengths for profile %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM qsa_profiles WHERE profile_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove profile %d: %w", info.Id, err)
	}

	s.logger.InfoContext(ctx, "Profile removed",
		slog.String("profile_name", name),
		slog.Int("profile_id", info.Id),
	)

	return tx.Commit()
}
