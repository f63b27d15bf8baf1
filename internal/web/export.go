package web

import (
	"net/http"
	"time"

	"gigcal/internal/ics"
	appLog "gigcal/internal/log"
	"gigcal/internal/model"
)

func (s *Server) feedOptions() ics.FeedOptions {
	return ics.FeedOptions{
		BandName:          s.cfg.BandName,
		Timezone:          s.cfg.Timezone,
		TTLMinutes:        s.cfg.FeedTTLMinutes,
		DefaultGigMinutes: s.cfg.DefaultGigMinutes,
	}
}

// exportableGigs loads the gigs the feed endpoints publish: everything
// from yesterday to the horizon, cancelled ones included (calendar apps
// show STATUS:CANCELLED properly struck through).
func (s *Server) exportableGigs(r *http.Request) ([]model.Gig, error) {
	now := time.Now().In(s.loc)
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.AddDate(0, 0, s.cfg.HorizonDays).Format("2006-01-02")
	return s.store.GigsBetween(r.Context(), from, to)
}

// handleFeed serves the subscription calendar at /feed.ics.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	gigs, err := s.exportableGigs(r)
	if err != nil {
		s.storeError(w, err, "gigs")
		return
	}

	body := ics.BuildFeed(gigs, s.loc, s.feedOptions())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if _, err := w.Write([]byte(body)); err != nil {
		appLog.Error("feed write failed", err)
	}
}

// handleDownload serves a save-as export of the gig list.
//
//	GET /api/download?format=ics&remind_2d=18:00&remind_1d=18:00&remind_0d=12:00
//	GET /api/download?format=csv
//
// The reminder parameters attach VALARM blocks to the ICS variant.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	gigs, err := s.exportableGigs(r)
	if err != nil {
		s.storeError(w, err, "gigs")
		return
	}

	q := r.URL.Query()
	switch q.Get("format") {
	case "", "ics":
	case "csv":
		s.writeCSVExport(w, gigs)
		return
	default:
		writeError(w, http.StatusBadRequest, "format must be ics or csv")
		return
	}

	rem := ics.Reminders{
		TwoDaysBefore: q.Get("remind_2d"),
		OneDayBefore:  q.Get("remind_1d"),
		SameDay:       q.Get("remind_0d"),
	}

	body := ics.BuildDownload(gigs, s.loc, s.feedOptions(), rem)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gigs.ics"`)
	if _, err := w.Write([]byte(body)); err != nil {
		appLog.Error("download write failed", err)
	}
}

// handleExportCSV serves the gig list as CSV for spreadsheets.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	gigs, err := s.exportableGigs(r)
	if err != nil {
		s.storeError(w, err, "gigs")
		return
	}
	s.writeCSVExport(w, gigs)
}

func (s *Server) writeCSVExport(w http.ResponseWriter, gigs []model.Gig) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gigs.csv"`)
	if err := ics.WriteCSV(w, gigs, s.loc, s.feedOptions()); err != nil {
		appLog.Error("csv write failed", err)
	}
}
