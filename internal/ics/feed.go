package ics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"gigcal/internal/model"
)

// FeedOptions configure the generated calendars.
type FeedOptions struct {
	// BandName appears in X-WR-CALNAME and event descriptions.
	BandName string
	// Timezone is the display timezone name (X-WR-TIMEZONE).
	Timezone string
	// TTLMinutes hints at the subscription refresh interval.
	TTLMinutes int
	// DefaultGigMinutes is applied to gigs stored without an end time.
	DefaultGigMinutes int
	// Host qualifies generated UIDs (e.g. "gigcal.local").
	Host string
}

// Reminders selects optional VALARM blocks on downloaded calendars.
// Each field is an "HH:MM" local alarm time; empty disables that alarm.
// Subscription feeds never carry alarms (calendar apps ignore them).
type Reminders struct {
	TwoDaysBefore string
	OneDayBefore  string
	SameDay       string
}

// BuildFeed produces the subscription calendar (METHOD:PUBLISH, no
// attachment semantics, no alarms) for the given gigs.
func BuildFeed(gigs []model.Gig, loc *time.Location, opts FeedOptions) string {
	cal := newCalendar(opts)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXPublishedTTL(fmt.Sprintf("PT%dM", ttlMinutes(opts)))

	for _, g := range gigs {
		addGigEvent(cal, g, loc, opts, Reminders{})
	}
	return cal.Serialize()
}

// BuildDownload produces a one-shot calendar file with optional
// reminder alarms, meant to be saved rather than subscribed to.
func BuildDownload(gigs []model.Gig, loc *time.Location, opts FeedOptions, rem Reminders) string {
	cal := newCalendar(opts)
	for _, g := range gigs {
		addGigEvent(cal, g, loc, opts, rem)
	}
	return cal.Serialize()
}

// WriteCSV writes gigs as CSV rows for spreadsheet import.
func WriteCSV(w io.Writer, gigs []model.Gig, loc *time.Location, opts FeedOptions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "start", "end", "title", "venue", "city", "status", "fee_cents"}); err != nil {
		return err
	}
	for _, g := range gigs {
		start, end, err := model.GigTimes(g, loc, defaultMinutes(opts))
		if err != nil {
			continue
		}
		row := []string{
			g.Date,
			start.Format("15:04"),
			end.Format("15:04"),
			g.Title,
			g.Venue,
			g.City,
			g.Status,
			strconv.FormatInt(g.FeeCents, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newCalendar(opts FeedOptions) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId("-//gigcal//gig schedule//EN")
	cal.SetCalscale("GREGORIAN")
	if opts.BandName != "" {
		cal.SetXWRCalName(opts.BandName + " gigs")
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}
	return cal
}

func addGigEvent(cal *ical.Calendar, g model.Gig, loc *time.Location, opts FeedOptions, rem Reminders) {
	start, end, err := model.GigTimes(g, loc, defaultMinutes(opts))
	if err != nil {
		return
	}

	host := opts.Host
	if host == "" {
		host = "gigcal"
	}
	// Stable UID so calendar apps update instead of duplicating.
	e := cal.AddEvent(fmt.Sprintf("%s@%s", g.ID, host))
	e.SetDtStampTime(time.Now().UTC())
	e.SetStartAt(start)
	e.SetEndAt(end)
	e.SetSummary(g.Title)
	if g.Venue != "" || g.City != "" {
		e.SetLocation(joinNonEmpty(g.Venue, g.City))
	}
	desc := g.Notes
	if opts.BandName != "" {
		desc = joinNonEmpty(opts.BandName+" gig", g.Notes)
	}
	if desc != "" {
		e.SetDescription(desc)
	}

	switch g.Status {
	case model.StatusConfirmed:
		e.SetStatus(ical.ObjectStatusConfirmed)
	case model.StatusCancelled:
		e.SetStatus(ical.ObjectStatusCancelled)
	default:
		e.SetStatus(ical.ObjectStatusTentative)
	}

	addAlarm(e, start, 2, rem.TwoDaysBefore, g.Title)
	addAlarm(e, start, 1, rem.OneDayBefore, g.Title)
	addAlarm(e, start, 0, rem.SameDay, g.Title)
}

// addAlarm attaches a DISPLAY alarm firing at alarmTime ("HH:MM" local)
// daysBefore days before the gig. The trigger is expressed relative to
// the event start as an ISO 8601 duration.
func addAlarm(e *ical.VEvent, start time.Time, daysBefore int, alarmTime, summary string) {
	if alarmTime == "" {
		return
	}
	hour, minute, ok := parseClock(alarmTime)
	if !ok {
		return
	}

	day := start.AddDate(0, 0, -daysBefore)
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, start.Location())

	totalMinutes := int(at.Sub(start).Minutes())
	neg := totalMinutes < 0
	if neg {
		totalMinutes = -totalMinutes
	}
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	trigger := fmt.Sprintf("P%dDT%dH%dM", days, hours, minutes)
	if neg {
		trigger = "-" + trigger
	}

	a := e.AddAlarm()
	a.SetAction(ical.ActionDisplay)
	a.SetTrigger(trigger)
	a.SetProperty(ical.ComponentPropertyDescription, "Reminder: "+summary)
}

func parseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

func ttlMinutes(opts FeedOptions) int {
	if opts.TTLMinutes <= 0 {
		return 60
	}
	return opts.TTLMinutes
}

func defaultMinutes(opts FeedOptions) int {
	if opts.DefaultGigMinutes <= 0 {
		return 120
	}
	return opts.DefaultGigMinutes
}
