package model

import (
	"fmt"
	"time"
)

// Gig status values as stored in the database and config color map.
const (
	StatusConfirmed = "confirmed"
	StatusPencilled = "pencilled"
	StatusCancelled = "cancelled"
)

// Gig is a booked (or tentatively booked) show as stored by the band.
type Gig struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Venue string `json:"venue"`
	City  string `json:"city"`

	// Date is the local calendar day in YYYY-MM-DD form.
	Date string `json:"date"`

	// StartMinutes / EndMinutes are minutes since local midnight.
	// EndMinutes == 0 means "no defined end"; schedule assembly applies
	// the configured default duration before layout.
	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`

	Status   string `json:"status"`
	FeeCents int64  `json:"fee_cents"`
	Notes    string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GigTimes resolves a gig's wall-clock start and end in loc. Gigs with
// no stored end get defaultMinutes of duration; an end at or before the
// start is taken to run past midnight into the next day.
func GigTimes(g Gig, loc *time.Location, defaultMinutes int) (start, end time.Time, err error) {
	day, err := time.ParseInLocation("2006-01-02", g.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("gig %s: bad date %q: %w", g.ID, g.Date, err)
	}
	start = day.Add(time.Duration(g.StartMinutes) * time.Minute)
	switch {
	case g.EndMinutes == 0:
		end = start.Add(time.Duration(defaultMinutes) * time.Minute)
	case g.EndMinutes <= g.StartMinutes:
		end = day.AddDate(0, 0, 1).Add(time.Duration(g.EndMinutes) * time.Minute)
	default:
		end = day.Add(time.Duration(g.EndMinutes) * time.Minute)
	}
	return start, end, nil
}

// Occurrence represents a single concrete schedule entry for one day,
// either derived from a stored gig or expanded from an external
// subscription (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string `json:"source_id"`
	UID      string `json:"uid"`

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string `json:"instance_key"`

	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`

	AllDay bool `json:"all_day"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Member is a band member or regular dep who can appear on gig lineups.
type Member struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Instrument string    `json:"instrument"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

// LineupSlot assigns a member to a gig's roster.
type LineupSlot struct {
	GigID     string `json:"gig_id"`
	MemberID  string `json:"member_id"`
	Role      string `json:"role"`
	Confirmed bool   `json:"confirmed"`
}

// Setlist is an ordered list of songs attached to a gig.
type Setlist struct {
	ID        string        `json:"id"`
	GigID     string        `json:"gig_id"`
	Name      string        `json:"name"`
	Songs     []SetlistSong `json:"songs"`
	CreatedAt time.Time     `json:"created_at"`
}

// SetlistSong is a single entry in a setlist.
type SetlistSong struct {
	Position        int    `json:"position"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
	Key             string `json:"key"`
	Note            string `json:"note"`
	SectionBreak    bool   `json:"section_break"`
}

// Payment records money paid out (or received) against a gig.
type Payment struct {
	ID          string    `json:"id"`
	GigID       string    `json:"gig_id"`
	MemberID    string    `json:"member_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	Note        string    `json:"note"`
	PaidAt      time.Time `json:"paid_at"`
}
