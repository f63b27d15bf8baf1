package web

import (
	"net/http"
	"time"

	"gigcal/internal/layout"
	appLog "gigcal/internal/log"
	"gigcal/internal/model"
)

// scheduleItemDTO is one positioned block on the day grid.
type scheduleItemDTO struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"` // "gig" or "subscription"
	Title string `json:"title"`

	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
	SourceID string `json:"source_id,omitempty"`

	StartMinutes int  `json:"start_minutes"`
	EndMinutes   int  `json:"end_minutes"`
	AllDay       bool `json:"all_day"`

	// Continuation flags mark segments of blocks split at midnight.
	ContinuesBefore bool `json:"continues_before,omitempty"`
	ContinuesAfter  bool `json:"continues_after,omitempty"`

	// Geometry. All-day items carry no box or columns; clients render
	// them in a banner row above the grid.
	Top          float64 `json:"top"`
	Height       float64 `json:"height"`
	Column       int     `json:"column"`
	TotalColumns int     `json:"total_columns"`

	AccentColor     string `json:"accent_color"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Date string `json:"date"`

	WindowStartMinutes int     `json:"window_start_minutes"`
	WindowEndMinutes   int     `json:"window_end_minutes"`
	PixelsPerHour      float64 `json:"pixels_per_hour"`
	SnapMinutes        int     `json:"snap_minutes"`

	Items   []scheduleItemDTO `json:"items"`
	AllDay  []scheduleItemDTO `json:"all_day"`
	DarkUI  bool              `json:"dark_ui"`
	WeekDay string            `json:"week_day"`

	DisplayTimeZone string    `json:"display_timezone"`
	LastRefresh     time.Time `json:"last_refresh,omitempty"`
}

// handleSchedule serves the positioned day view.
//
// GET /api/schedule?date=YYYY-MM-DD&theme=dark
//
// The response contains one block per timed item (stored gigs plus
// merged subscription occurrences) with grid geometry and colors
// already resolved, so clients only draw.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = time.Now().In(s.loc).Format("2006-01-02")
	}
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	dark := q.Get("theme") == "dark"

	cacheKey := date
	if dark {
		cacheKey += "#dark"
	}
	now := time.Now()
	s.scheduleMu.RLock()
	entry := s.scheduleCache[cacheKey]
	s.scheduleMu.RUnlock()
	if entry != nil && now.Sub(entry.updatedAt) < scheduleCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	resp, err := s.buildSchedule(r, day, date, dark)
	if err != nil {
		appLog.Error("schedule build failed", err, "date", date)
		writeError(w, http.StatusInternalServerError, "failed to build schedule")
		return
	}

	s.scheduleMu.Lock()
	s.scheduleCache[cacheKey] = &scheduleCacheEntry{resp: resp, updatedAt: time.Now()}
	s.scheduleMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildSchedule(r *http.Request, day time.Time, date string, dark bool) (scheduleResponse, error) {
	winStart, winEnd := s.cfg.VisibleWindow()

	resp := scheduleResponse{
		Date:               date,
		WindowStartMinutes: winStart,
		WindowEndMinutes:   winEnd,
		PixelsPerHour:      s.cfg.Layout.PixelsPerHour,
		SnapMinutes:        s.cfg.Layout.SnapMinutes,
		Items:              []scheduleItemDTO{},
		AllDay:             []scheduleItemDTO{},
		DarkUI:             dark,
		WeekDay:            day.Weekday().String(),
		DisplayTimeZone:    s.loc.String(),
	}

	// Pull gigs for the day plus the previous day, so a gig running past
	// midnight shows its tail segment on the following day's grid.
	prev := day.AddDate(0, 0, -1).Format("2006-01-02")
	gigs, err := s.store.GigsBetween(r.Context(), prev, date)
	if err != nil {
		return resp, err
	}

	var dtos []scheduleItemDTO
	for _, g := range gigs {
		if g.Status == model.StatusCancelled {
			continue
		}
		dto, ok := s.gigSegmentForDay(g, day, date, dark)
		if !ok {
			continue
		}
		dtos = append(dtos, dto)
	}

	if s.subs != nil {
		for _, occ := range s.subs.OccurrencesOn(date) {
			dto := s.occurrenceSegmentForDay(occ, day, dark)
			if dto.AllDay {
				resp.AllDay = append(resp.AllDay, dto)
				continue
			}
			dtos = append(dtos, dto)
		}
		resp.LastRefresh = s.subs.LastRefresh()
	}

	// Column packing runs over every timed block of the day at once, so
	// overlapping gigs and subscription events share one column set.
	items := make([]layout.ScheduledItem, 0, len(dtos))
	for _, dto := range dtos {
		items = append(items, layout.ScheduledItem{
			ID:           dto.ID,
			StartMinutes: dto.StartMinutes,
			EndMinutes:   dto.EndMinutes,
		})
	}
	placements := layout.PackColumns(items)

	for i := range dtos {
		dto := &dtos[i]
		box := layout.Position(dto.StartMinutes, dto.EndMinutes, winStart, winEnd,
			s.cfg.Layout.PixelsPerHour, s.cfg.Layout.MinBlockPx)
		dto.Top = box.Top
		dto.Height = box.Height
		if p, ok := placements[dto.ID]; ok {
			dto.Column = p.Column
			dto.TotalColumns = p.TotalColumns
		}
	}

	resp.Items = dtos
	if resp.Items == nil {
		resp.Items = []scheduleItemDTO{}
	}
	return resp, nil
}

// gigSegmentForDay maps a stored gig to the block it occupies on the
// given day's grid, splitting cross-midnight gigs at the day boundary.
// ok is false when the gig contributes nothing to this day.
func (s *Server) gigSegmentForDay(g model.Gig, day time.Time, date string, dark bool) (scheduleItemDTO, bool) {
	start, end, err := model.GigTimes(g, s.loc, s.cfg.DefaultGigMinutes)
	if err != nil {
		appLog.Warn("gig skipped in schedule", "id", g.ID, "reason", err.Error())
		return scheduleItemDTO{}, false
	}

	next := day.AddDate(0, 0, 1)
	if !start.Before(next) || !end.After(day) {
		return scheduleItemDTO{}, false
	}

	dto := scheduleItemDTO{
		ID:       g.ID,
		Kind:     "gig",
		Title:    g.Title,
		Location: joinNonEmpty(g.Venue, g.City),
		Status:   g.Status,
	}

	segStart := start
	if segStart.Before(day) {
		segStart = day
		dto.ContinuesBefore = true
	}
	segEnd := end
	if segEnd.After(next) {
		segEnd = next
		dto.ContinuesAfter = true
	}
	dto.StartMinutes = minutesIntoDay(segStart, day)
	dto.EndMinutes = minutesIntoDay(segEnd, day)
	if dto.EndMinutes == 0 {
		dto.EndMinutes = 24 * 60
	}
	// Tail segments need a distinct layout key; the gig's own ID stays
	// on the head segment shown on the start date.
	if g.Date != date {
		dto.ID = g.ID + "+1"
	}

	accent := s.cfg.StatusColors[g.Status]
	dto.AccentColor = accent
	dto.BackgroundColor, dto.TextColor = themeColors(accent, dark)
	return dto, true
}

func (s *Server) occurrenceSegmentForDay(occ model.Occurrence, day time.Time, dark bool) scheduleItemDTO {
	dto := scheduleItemDTO{
		ID:       occ.SourceID + "/" + occ.InstanceKey,
		Kind:     "subscription",
		Title:    occ.Summary,
		Location: occ.Location,
		SourceID: occ.SourceID,
		AllDay:   occ.AllDay,
	}

	next := day.AddDate(0, 0, 1)
	segStart := occ.Start
	if segStart.Before(day) {
		segStart = day
		dto.ContinuesBefore = true
	}
	segEnd := occ.End
	if segEnd.After(next) {
		segEnd = next
		dto.ContinuesAfter = true
	}
	dto.StartMinutes = minutesIntoDay(segStart, day)
	dto.EndMinutes = minutesIntoDay(segEnd, day)
	if dto.EndMinutes == 0 {
		dto.EndMinutes = 24 * 60
	}

	accent := s.cfg.SubscriptionColor
	dto.AccentColor = accent
	dto.BackgroundColor, dto.TextColor = themeColors(accent, dark)
	return dto
}

func themeColors(accent string, dark bool) (background, text string) {
	return layout.BackgroundFor(accent, dark), layout.TextFor(accent, dark)
}

func minutesIntoDay(t time.Time, day time.Time) int {
	return int(t.Sub(day) / time.Minute)
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
