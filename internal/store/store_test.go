package store

import (
	"context"
	"strings"
	"testing"

	"gigcal/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSetsJournalModeAndForeignKeys(t *testing.T) {
	s := openTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if !strings.EqualFold(journalMode, "wal") {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var foreignKeys int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}
}

func TestDeleteGigCascadesAllChildRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{Title: "g", Date: "2026-11-01", StartMinutes: 600}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatal(err)
	}
	m := &model.Member{Name: "Cleo"}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := s.AddLineupSlot(ctx, model.LineupSlot{GigID: g.ID, MemberID: m.ID}); err != nil {
		t.Fatal(err)
	}
	sl := &model.Setlist{
		GigID: g.ID,
		Songs: []model.SetlistSong{{Position: 1, Title: "Opener"}},
	}
	if err := s.SaveSetlist(ctx, sl); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePayment(ctx, &model.Payment{GigID: g.ID, AmountCents: 100}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteGig(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGig: %v", err)
	}

	for table, want := range map[string]int{
		"lineups":       0,
		"setlists":      0,
		"setlist_songs": 0,
		"payments":      0,
	} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Errorf("%s has %d rows after gig delete, want %d", table, n, want)
		}
	}

	// The member itself is untouched; only its lineup slot goes.
	if _, err := s.GetMember(ctx, m.ID); err != nil {
		t.Errorf("GetMember after gig delete: %v", err)
	}
}

func TestGigCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{
		Title:        "Jazz Night",
		Venue:        "Blue Room",
		City:         "Köln",
		Date:         "2026-09-12",
		StartMinutes: 20 * 60,
		EndMinutes:   23 * 60,
		Status:       model.StatusConfirmed,
		FeeCents:     45000,
	}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatalf("CreateGig: %v", err)
	}
	if g.ID == "" {
		t.Fatal("CreateGig did not assign an ID")
	}

	got, err := s.GetGig(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGig: %v", err)
	}
	if got.Title != "Jazz Night" || got.StartMinutes != 1200 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.Status = model.StatusCancelled
	if err := s.UpdateGig(ctx, got); err != nil {
		t.Fatalf("UpdateGig: %v", err)
	}
	again, _ := s.GetGig(ctx, g.ID)
	if again.Status != model.StatusCancelled {
		t.Errorf("status = %q after update", again.Status)
	}

	if err := s.DeleteGig(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGig: %v", err)
	}
	if _, err := s.GetGig(ctx, g.ID); err != ErrNotFound {
		t.Errorf("GetGig after delete: %v, want ErrNotFound", err)
	}
}

func TestUpdateMissingGigReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateGig(context.Background(), &model.Gig{ID: "nope", Date: "2026-01-01"})
	if err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGigsOnAndBetween(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	days := []string{"2026-09-10", "2026-09-11", "2026-09-11", "2026-09-20"}
	for i, d := range days {
		g := &model.Gig{Title: "g", Date: d, StartMinutes: 600 + i*60}
		if err := s.CreateGig(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	on, err := s.GigsOn(ctx, "2026-09-11")
	if err != nil {
		t.Fatalf("GigsOn: %v", err)
	}
	if len(on) != 2 {
		t.Errorf("GigsOn returned %d gigs, want 2", len(on))
	}
	if len(on) == 2 && on[0].StartMinutes > on[1].StartMinutes {
		t.Error("GigsOn not ordered by start time")
	}

	between, err := s.GigsBetween(ctx, "2026-09-10", "2026-09-11")
	if err != nil {
		t.Fatalf("GigsBetween: %v", err)
	}
	if len(between) != 3 {
		t.Errorf("GigsBetween returned %d gigs, want 3", len(between))
	}
}

func TestLineupRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{Title: "g", Date: "2026-10-01", StartMinutes: 600}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatal(err)
	}
	m := &model.Member{Name: "Ana", Instrument: "bass"}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatal(err)
	}

	slot := model.LineupSlot{GigID: g.ID, MemberID: m.ID, Role: "bass"}
	if err := s.AddLineupSlot(ctx, slot); err != nil {
		t.Fatalf("AddLineupSlot: %v", err)
	}

	// Re-adding with confirmed=true upserts.
	slot.Confirmed = true
	if err := s.AddLineupSlot(ctx, slot); err != nil {
		t.Fatalf("AddLineupSlot upsert: %v", err)
	}

	lineup, err := s.Lineup(ctx, g.ID)
	if err != nil {
		t.Fatalf("Lineup: %v", err)
	}
	if len(lineup) != 1 || !lineup[0].Confirmed {
		t.Errorf("lineup = %+v", lineup)
	}

	// Deleting the gig cascades the lineup away.
	if err := s.DeleteGig(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	lineup, err = s.Lineup(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lineup) != 0 {
		t.Errorf("lineup survived gig deletion: %+v", lineup)
	}
}

func TestSetlistReplaceSemantics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{Title: "g", Date: "2026-10-02", StartMinutes: 600}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatal(err)
	}

	sl := &model.Setlist{
		GigID: g.ID,
		Name:  "Set 1",
		Songs: []model.SetlistSong{
			{Position: 1, Title: "Opener", DurationSeconds: 240, Key: "G"},
			{Position: 2, Title: "Ballad", DurationSeconds: 300},
		},
	}
	if err := s.SaveSetlist(ctx, sl); err != nil {
		t.Fatalf("SaveSetlist: %v", err)
	}

	sl.Songs = sl.Songs[:1]
	if err := s.SaveSetlist(ctx, sl); err != nil {
		t.Fatalf("SaveSetlist replace: %v", err)
	}

	got, err := s.GetSetlist(ctx, sl.ID)
	if err != nil {
		t.Fatalf("GetSetlist: %v", err)
	}
	if len(got.Songs) != 1 || got.Songs[0].Title != "Opener" {
		t.Errorf("replace did not take: %+v", got.Songs)
	}

	lists, err := s.SetlistsForGig(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 1 {
		t.Errorf("SetlistsForGig returned %d, want 1", len(lists))
	}
}

func TestPaymentsFilterAndTotals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{Title: "g", Date: "2026-10-03", StartMinutes: 600}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatal(err)
	}
	m := &model.Member{Name: "Ben"}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatal(err)
	}

	for _, amount := range []int64{10000, 5000} {
		p := &model.Payment{GigID: g.ID, MemberID: m.ID, AmountCents: amount}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
	}
	other := &model.Payment{GigID: g.ID, AmountCents: 700}
	if err := s.CreatePayment(ctx, other); err != nil {
		t.Fatal(err)
	}

	byMember, err := s.Payments(ctx, PaymentFilter{MemberID: m.ID})
	if err != nil {
		t.Fatalf("Payments: %v", err)
	}
	if len(byMember) != 2 {
		t.Errorf("member filter returned %d payments, want 2", len(byMember))
	}

	totals, err := s.PaidTotalCents(ctx, PaymentFilter{GigID: g.ID})
	if err != nil {
		t.Fatal(err)
	}
	if totals["EUR"] != 15700 {
		t.Errorf("EUR total = %d, want 15700", totals["EUR"])
	}
}

func TestMalformedTimestampsSurfaceAsErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &model.Gig{Title: "g", Date: "2026-10-04", StartMinutes: 600}
	if err := s.CreateGig(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePayment(ctx, &model.Payment{GigID: g.ID, AmountCents: 100}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.db.Exec(`UPDATE gigs SET created_at = 'yesterdayish'`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGig(ctx, g.ID); err == nil || !strings.Contains(err.Error(), "created_at") {
		t.Errorf("GetGig with bad created_at: %v, want parse error", err)
	}

	if _, err := s.db.Exec(`UPDATE payments SET paid_at = 'not-a-time'`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Payments(ctx, PaymentFilter{GigID: g.ID}); err == nil || !strings.Contains(err.Error(), "paid_at") {
		t.Errorf("Payments with bad paid_at: %v, want parse error", err)
	}
}
