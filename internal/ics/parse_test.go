package ics

import (
	"strings"
	"testing"
	"time"
)

func sampleICS() []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:rehearsal@test",
		"SUMMARY:Rehearsal",
		"LOCATION:Practice Room",
		"DTSTART:20260901T180000Z",
		"DTEND:20260901T190000Z",
		"RRULE:FREQ=DAILY;COUNT=5",
		"EXDATE:20260903T180000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:rehearsal@test",
		"RECURRENCE-ID:20260902T180000Z",
		"SUMMARY:Rehearsal (moved)",
		"DTSTART:20260902T200000Z",
		"DTEND:20260902T210000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:festival@test",
		"SUMMARY:Festival",
		"DTSTART;VALUE=DATE:20260902",
		"DTEND;VALUE=DATE:20260903",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseICSRecordsRecurrenceFields(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, sampleICS())
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	byUID := map[string][]ParsedEvent{}
	for _, ev := range events {
		byUID[ev.UID] = append(byUID[ev.UID], ev)
	}

	var base, override ParsedEvent
	for _, ev := range byUID["rehearsal@test"] {
		if ev.IsOverride {
			override = ev
		} else {
			base = ev
		}
	}
	if base.RawRRule != "FREQ=DAILY;COUNT=5" {
		t.Errorf("RawRRule = %q", base.RawRRule)
	}
	if len(base.ExDates) != 1 {
		t.Errorf("ExDates = %v", base.ExDates)
	}
	if override.Recurrence == nil || override.Summary != "Rehearsal (moved)" {
		t.Errorf("override not captured: %+v", override)
	}

	festival := byUID["festival@test"][0]
	if !festival.AllDay {
		t.Error("date-only DTSTART should mark the event all-day")
	}
}

func TestExpandAppliesExdateAndOverride(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, sampleICS())
	if err != nil {
		t.Fatal(err)
	}

	result, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences: %v", err)
	}

	var rehearsals, festivals int
	var moved bool
	for _, occ := range result.Occurrences {
		switch occ.UID {
		case "rehearsal@test":
			rehearsals++
			if occ.Start.Day() == 3 {
				t.Error("EXDATE instance was not removed")
			}
			if occ.Summary == "Rehearsal (moved)" {
				moved = true
				if occ.Start.Hour() != 20 {
					t.Errorf("override start hour = %d, want 20", occ.Start.Hour())
				}
			}
		case "festival@test":
			festivals++
			if !occ.AllDay {
				t.Error("festival lost its all-day flag")
			}
		}
	}

	// COUNT=5 daily minus one EXDATE.
	if rehearsals != 4 {
		t.Errorf("rehearsal occurrences = %d, want 4", rehearsals)
	}
	if !moved {
		t.Error("RECURRENCE-ID override was not applied")
	}
	if festivals != 1 {
		t.Errorf("festival occurrences = %d, want 1", festivals)
	}
	if len(result.TruncatedEvents) != 0 {
		t.Errorf("unexpected truncation: %v", result.TruncatedEvents)
	}
}
