package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigcal/internal/model"
)

// CreateMember inserts a new member, assigning an ID when none is given.
func (s *Store) CreateMember(ctx context.Context, m *model.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, name, instrument, email, phone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Instrument, m.Email, m.Phone, m.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: create member: %w", err)
	}
	return nil
}

// DeleteMember removes a member; their lineup slots cascade.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete member: %w", err)
	}
	return requireRow(res)
}

// GetMember returns a single member by ID.
func (s *Store) GetMember(ctx context.Context, id string) (*model.Member, error) {
	var m model.Member
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, instrument, email, phone, created_at FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Instrument, &m.Email, &m.Phone, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get member: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("store: member %s: bad created_at %q: %w", m.ID, created, err)
	}
	return &m, nil
}

// Members returns all members ordered by name.
func (s *Store) Members(ctx context.Context) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, instrument, email, phone, created_at FROM members ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("store: members: %w", err)
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		var created string
		if err := rows.Scan(&m.ID, &m.Name, &m.Instrument, &m.Email, &m.Phone, &created); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("store: member %s: bad created_at %q: %w", m.ID, created, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
