package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gigcal/internal/model"
)

func feedGigs() []model.Gig {
	return []model.Gig{
		{
			ID:           "g1",
			Title:        "Jazz Night",
			Venue:        "Blue Room",
			City:         "Hamburg",
			Date:         "2026-09-12",
			StartMinutes: 20 * 60,
			EndMinutes:   23 * 60,
			Status:       model.StatusConfirmed,
		},
		{
			ID:           "g2",
			Title:        "Street Festival",
			Date:         "2026-09-13",
			StartMinutes: 14 * 60,
			Status:       model.StatusPencilled,
			Notes:        "acoustic set",
		},
	}
}

func TestBuildFeedSubscriptionHeaders(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	out := BuildFeed(feedGigs(), loc, FeedOptions{
		BandName:   "The Midnight Owls",
		Timezone:   "Europe/Berlin",
		TTLMinutes: 30,
		Host:       "gigcal.example",
	})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"X-PUBLISHED-TTL:PT30M",
		"X-WR-CALNAME:The Midnight Owls gigs",
		"X-WR-TIMEZONE:Europe/Berlin",
		"UID:g1@gigcal.example",
		"UID:g2@gigcal.example",
		"SUMMARY:Jazz Night",
		"STATUS:CONFIRMED",
		"STATUS:TENTATIVE",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}
	if strings.Contains(out, "BEGIN:VALARM") {
		t.Error("subscription feed must not contain alarms")
	}
}

func TestBuildFeedLocationAndDefaultDuration(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	out := BuildFeed(feedGigs(), loc, FeedOptions{DefaultGigMinutes: 90})

	if !strings.Contains(out, "LOCATION:Blue Room") || !strings.Contains(out, "Hamburg") {
		t.Error("feed missing venue location")
	}
	// g2 has no end time: 14:00 + 90min default, serialized in UTC
	// (Berlin is UTC+2 in September, so DTEND is 13:30Z).
	if !strings.Contains(out, "DTEND:20260913T133000Z") {
		t.Errorf("open-ended gig did not get default duration:\n%s", out)
	}
}

func TestBuildDownloadAlarms(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	out := BuildDownload(feedGigs()[:1], loc, FeedOptions{BandName: "Owls"}, Reminders{
		OneDayBefore: "18:00",
		SameDay:      "12:00",
	})

	if got := strings.Count(out, "BEGIN:VALARM"); got != 2 {
		t.Fatalf("alarm count = %d, want 2", got)
	}
	// Gig starts 20:00. One day before at 18:00 is 26h = 1d2h earlier.
	if !strings.Contains(out, "TRIGGER:-P1DT2H0M") {
		t.Errorf("missing day-before trigger:\n%s", out)
	}
	// Same day at 12:00 is 8h before the 20:00 start.
	if !strings.Contains(out, "TRIGGER:-P0DT8H0M") {
		t.Errorf("missing same-day trigger:\n%s", out)
	}
	if !strings.Contains(out, "ACTION:DISPLAY") {
		t.Error("missing alarm action")
	}
	if strings.Contains(out, "METHOD:PUBLISH") {
		t.Error("download calendar should not set METHOD:PUBLISH")
	}
}

func TestWriteCSV(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	var buf bytes.Buffer
	if err := WriteCSV(&buf, feedGigs(), loc, FeedOptions{DefaultGigMinutes: 120}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,start,end,title") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-09-12,20:00,23:00,Jazz Night,Blue Room,Hamburg,confirmed") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "2026-09-13,14:00,16:00,Street Festival") {
		t.Errorf("row 2 = %q", lines[2])
	}
}
