// Package store persists gigs, members, lineups, setlists and payments
// in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	appLog "gigcal/internal/log"
)

// Store wraps a sqlite database. Writes are serialized through a single
// connection; sqlite with WAL handles concurrent readers fine at this
// scale.
type Store struct {
	db *sql.DB
}

// migrations are applied in order; PRAGMA user_version records the last
// applied index + 1.
var migrations = []string{
	`
	CREATE TABLE gigs (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		venue         TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL DEFAULT '',
		date          TEXT NOT NULL,
		start_minutes INTEGER NOT NULL,
		end_minutes   INTEGER NOT NULL DEFAULT 0,
		status        TEXT NOT NULL DEFAULT 'pencilled',
		fee_cents     INTEGER NOT NULL DEFAULT 0,
		notes         TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE INDEX idx_gigs_date ON gigs(date);

	CREATE TABLE members (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		instrument TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE lineups (
		gig_id    TEXT NOT NULL REFERENCES gigs(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		role      TEXT NOT NULL DEFAULT '',
		confirmed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (gig_id, member_id)
	);

	CREATE TABLE setlists (
		id         TEXT PRIMARY KEY,
		gig_id     TEXT NOT NULL REFERENCES gigs(id) ON DELETE CASCADE,
		name       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE setlist_songs (
		setlist_id       TEXT NOT NULL REFERENCES setlists(id) ON DELETE CASCADE,
		position         INTEGER NOT NULL,
		title            TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		key_sig          TEXT NOT NULL DEFAULT '',
		note             TEXT NOT NULL DEFAULT '',
		section_break    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (setlist_id, position)
	);

	CREATE TABLE payments (
		id           TEXT PRIMARY KEY,
		gig_id       TEXT NOT NULL REFERENCES gigs(id) ON DELETE CASCADE,
		member_id    TEXT NOT NULL DEFAULT '',
		amount_cents INTEGER NOT NULL,
		currency     TEXT NOT NULL DEFAULT 'EUR',
		method       TEXT NOT NULL DEFAULT '',
		note         TEXT NOT NULL DEFAULT '',
		paid_at      TEXT NOT NULL
	);
	CREATE INDEX idx_payments_gig ON payments(gig_id);
	`,
}

// connString builds a sqlite connection string with WAL and a busy
// timeout so API writes don't trip over the refresh scheduler.
// modernc.org/sqlite takes PRAGMAs as repeated _pragma=name(value)
// parameters; only _txlock and _time_format have dedicated keys.
func connString(file string) string {
	params := make(url.Values)
	params.Add("_txlock", "immediate")
	for _, pragma := range []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
	} {
		params.Add("_pragma", pragma)
	}
	return "file:" + file + "?" + params.Encode()
}

// Open opens (creating if needed) the database at dataDir/gigcal.db and
// applies pending migrations.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	path := filepath.Join(dataDir, "gigcal.db")
	db, err := sql.Open("sqlite", connString(path))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// Single writer connection avoids SQLITE_BUSY on lock upgrades.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Set the PRAGMAs the schema depends on directly as well; the
	// cascade rules are dead weight if foreign_keys ever stays off.
	for _, pragma := range []string{
		"foreign_keys = ON",
		"busy_timeout = 5000",
	} {
		if _, err := db.Exec("PRAGMA " + pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: set PRAGMA %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	appLog.Info("store opened", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("store: read user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("store: migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("store: bump user_version: %w", err)
		}
		appLog.Info("store migration applied", "version", i+1)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withTx executes fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
