package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigcal/internal/model"
)

// CreatePayment records a payout against a gig.
func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, gig_id, member_id, amount_cents, currency, method, note, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.GigID, p.MemberID, p.AmountCents, p.Currency, p.Method, p.Note,
		p.PaidAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: create payment: %w", err)
	}
	return nil
}

// DeletePayment removes a payment record.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete payment: %w", err)
	}
	return requireRow(res)
}

// PaymentFilter narrows Payments; zero values mean "any".
type PaymentFilter struct {
	GigID    string
	MemberID string
}

// Payments lists payments newest first, optionally filtered.
func (s *Store) Payments(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	query := `SELECT id, gig_id, member_id, amount_cents, currency, method, note, paid_at FROM payments`
	var conds []string
	var args []any
	if f.GigID != "" {
		conds = append(conds, "gig_id = ?")
		args = append(args, f.GigID)
	}
	if f.MemberID != "" {
		conds = append(conds, "member_id = ?")
		args = append(args, f.MemberID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY paid_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: payments: %w", err)
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		var paid string
		if err := rows.Scan(&p.ID, &p.GigID, &p.MemberID, &p.AmountCents, &p.Currency, &p.Method, &p.Note, &paid); err != nil {
			return nil, err
		}
		if p.PaidAt, err = time.Parse(time.RFC3339, paid); err != nil {
			return nil, fmt.Errorf("store: payment %s: bad paid_at %q: %w", p.ID, paid, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PaidTotalCents sums payments matching the filter, keyed by currency.
func (s *Store) PaidTotalCents(ctx context.Context, f PaymentFilter) (map[string]int64, error) {
	payments, err := s.Payments(ctx, f)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, p := range payments {
		totals[p.Currency] += p.AmountCents
	}
	return totals, nil
}
