package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigcal/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

const gigColumns = "id, title, venue, city, date, start_minutes, end_minutes, status, fee_cents, notes, created_at, updated_at"

// CreateGig inserts a new gig, assigning an ID when none is given.
func (s *Store) CreateGig(ctx context.Context, g *model.Gig) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = model.StatusPencilled
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gigs (`+gigColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Venue, g.City, g.Date, g.StartMinutes, g.EndMinutes,
		g.Status, g.FeeCents, g.Notes,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: create gig: %w", err)
	}
	return nil
}

// UpdateGig replaces the mutable fields of an existing gig.
func (s *Store) UpdateGig(ctx context.Context, g *model.Gig) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE gigs SET title = ?, venue = ?, city = ?, date = ?,
		        start_minutes = ?, end_minutes = ?, status = ?,
		        fee_cents = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		g.Title, g.Venue, g.City, g.Date, g.StartMinutes, g.EndMinutes,
		g.Status, g.FeeCents, g.Notes, g.UpdatedAt.Format(time.RFC3339), g.ID)
	if err != nil {
		return fmt.Errorf("store: update gig: %w", err)
	}
	return requireRow(res)
}

// DeleteGig removes a gig; lineups, setlists and payments cascade.
func (s *Store) DeleteGig(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gigs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete gig: %w", err)
	}
	return requireRow(res)
}

// GetGig returns a single gig by ID.
func (s *Store) GetGig(ctx context.Context, id string) (*model.Gig, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = ?`, id)
	g, err := scanGig(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get gig: %w", err)
	}
	return g, nil
}

// GigsOn returns all gigs on one local calendar day (YYYY-MM-DD),
// ordered by start time.
func (s *Store) GigsOn(ctx context.Context, date string) ([]model.Gig, error) {
	return s.queryGigs(ctx,
		`SELECT `+gigColumns+` FROM gigs WHERE date = ? ORDER BY start_minutes, id`, date)
}

// GigsBetween returns gigs with from <= date <= to, ordered by day and
// start time. Used by the feed, exports and the printable schedule.
func (s *Store) GigsBetween(ctx context.Context, from, to string) ([]model.Gig, error) {
	return s.queryGigs(ctx,
		`SELECT `+gigColumns+` FROM gigs WHERE date >= ? AND date <= ? ORDER BY date, start_minutes, id`,
		from, to)
}

func (s *Store) queryGigs(ctx context.Context, query string, args ...any) ([]model.Gig, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query gigs: %w", err)
	}
	defer rows.Close()

	var out []model.Gig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan gig: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGig(r rowScanner) (*model.Gig, error) {
	var g model.Gig
	var created, updated string
	if err := r.Scan(&g.ID, &g.Title, &g.Venue, &g.City, &g.Date,
		&g.StartMinutes, &g.EndMinutes, &g.Status, &g.FeeCents, &g.Notes,
		&created, &updated); err != nil {
		return nil, err
	}
	var err error
	if g.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("gig %s: bad created_at %q: %w", g.ID, created, err)
	}
	if g.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("gig %s: bad updated_at %q: %w", g.ID, updated, err)
	}
	return &g, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLineupSlot puts a member on a gig's roster (upsert on re-add).
func (s *Store) AddLineupSlot(ctx context.Context, slot model.LineupSlot) error {
	confirmed := 0
	if slot.Confirmed {
		confirmed = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lineups (gig_id, member_id, role, confirmed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(gig_id, member_id) DO UPDATE SET role = excluded.role, confirmed = excluded.confirmed`,
		slot.GigID, slot.MemberID, slot.Role, confirmed)
	if err != nil {
		return fmt.Errorf("store: add lineup slot: %w", err)
	}
	return nil
}

// RemoveLineupSlot takes a member off a gig's roster.
func (s *Store) RemoveLineupSlot(ctx context.Context, gigID, memberID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM lineups WHERE gig_id = ? AND member_id = ?`, gigID, memberID)
	if err != nil {
		return fmt.Errorf("store: remove lineup slot: %w", err)
	}
	return requireRow(res)
}

// Lineup returns the roster for one gig.
func (s *Store) Lineup(ctx context.Context, gigID string) ([]model.LineupSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gig_id, member_id, role, confirmed FROM lineups WHERE gig_id = ? ORDER BY member_id`, gigID)
	if err != nil {
		return nil, fmt.Errorf("store: lineup: %w", err)
	}
	defer rows.Close()

	var out []model.LineupSlot
	for rows.Next() {
		var slot model.LineupSlot
		var confirmed int
		if err := rows.Scan(&slot.GigID, &slot.MemberID, &slot.Role, &confirmed); err != nil {
			return nil, err
		}
		slot.Confirmed = confirmed != 0
		out = append(out, slot)
	}
	return out, rows.Err()
}
