package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigcal/internal/model"
)

// SaveSetlist inserts a setlist with its songs in one transaction. An
// existing setlist with the same ID is replaced wholesale; partial song
// edits are not supported, callers re-submit the full list.
func (s *Store) SaveSetlist(ctx context.Context, sl *model.Setlist) error {
	if sl.ID == "" {
		sl.ID = uuid.NewString()
	}
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM setlists WHERE id = ?`, sl.ID); err != nil {
			return fmt.Errorf("store: replace setlist: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO setlists (id, gig_id, name, created_at) VALUES (?, ?, ?, ?)`,
			sl.ID, sl.GigID, sl.Name, sl.CreatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("store: insert setlist: %w", err)
		}
		for _, song := range sl.Songs {
			sb := 0
			if song.SectionBreak {
				sb = 1
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO setlist_songs (setlist_id, position, title, duration_seconds, key_sig, note, section_break)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sl.ID, song.Position, song.Title, song.DurationSeconds, song.Key, song.Note, sb); err != nil {
				return fmt.Errorf("store: insert setlist song: %w", err)
			}
		}
		return nil
	})
}

// GetSetlist returns one setlist with its songs in position order.
func (s *Store) GetSetlist(ctx context.Context, id string) (*model.Setlist, error) {
	var sl model.Setlist
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, gig_id, name, created_at FROM setlists WHERE id = ?`, id).
		Scan(&sl.ID, &sl.GigID, &sl.Name, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get setlist: %w", err)
	}
	sl.CreatedAt, _ = time.Parse(time.RFC3339, created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, title, duration_seconds, key_sig, note, section_break
		 FROM setlist_songs WHERE setlist_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("store: setlist songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var song model.SetlistSong
		var sb int
		if err := rows.Scan(&song.Position, &song.Title, &song.DurationSeconds, &song.Key, &song.Note, &sb); err != nil {
			return nil, err
		}
		song.SectionBreak = sb != 0
		sl.Songs = append(sl.Songs, song)
	}
	return &sl, rows.Err()
}

// SetlistsForGig lists setlists attached to a gig (songs included).
func (s *Store) SetlistsForGig(ctx context.Context, gigID string) ([]model.Setlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM setlists WHERE gig_id = ? ORDER BY created_at, id`, gigID)
	if err != nil {
		return nil, fmt.Errorf("store: setlists for gig: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Setlist, 0, len(ids))
	for _, id := range ids {
		sl, err := s.GetSetlist(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *sl)
	}
	return out, nil
}

// DeleteSetlist removes a setlist and its songs.
func (s *Store) DeleteSetlist(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM setlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete setlist: %w", err)
	}
	return requireRow(res)
}
