package sched

import (
	"testing"
	"time"

	"gigcal/internal/config"
	"gigcal/internal/model"
)

func TestOccurrencesOnFiltersByDay(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	cfg := config.DefaultConfig()
	cfg.Normalize()

	r := New(cfg, loc)
	day := time.Date(2026, 9, 12, 0, 0, 0, 0, loc)
	r.occurrences = []model.Occurrence{
		{UID: "same-day", Start: day.Add(19 * time.Hour), End: day.Add(21 * time.Hour)},
		{UID: "crosses-in", Start: day.Add(-2 * time.Hour), End: day.Add(1 * time.Hour)},
		{UID: "day-before", Start: day.Add(-5 * time.Hour), End: day.Add(-3 * time.Hour)},
		{UID: "day-after", Start: day.Add(26 * time.Hour), End: day.Add(27 * time.Hour)},
	}

	got := r.OccurrencesOn("2026-09-12")
	if len(got) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(got))
	}
	uids := map[string]bool{}
	for _, occ := range got {
		uids[occ.UID] = true
	}
	if !uids["same-day"] || !uids["crosses-in"] {
		t.Errorf("wrong occurrences selected: %v", uids)
	}

	if got := r.OccurrencesOn("not-a-date"); got != nil {
		t.Errorf("bad date should yield nil, got %v", got)
	}
}

func TestRefreshWithoutSubscriptionsIsNoop(t *testing.T) {
	loc := time.UTC
	cfg := config.DefaultConfig()
	cfg.Normalize()
	cfg.Subscriptions = nil

	r := New(cfg, loc)
	if err := r.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !r.LastRefresh().IsZero() {
		t.Error("no-op refresh should not stamp LastRefresh")
	}
}
