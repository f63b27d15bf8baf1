package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appLog "gigcal/internal/log"
	"gigcal/internal/model"
	"gigcal/internal/setlist"
	"gigcal/internal/store"
)

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	appLog.Error("store operation failed", err, "what", what)
	writeError(w, http.StatusInternalServerError, "database error")
}

// gigInput is the request shape for creating and updating gigs.
type gigInput struct {
	Title        string `json:"title"`
	Venue        string `json:"venue"`
	City         string `json:"city"`
	Date         string `json:"date"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Status       string `json:"status"`
	FeeCents     int64  `json:"fee_cents"`
	Notes        string `json:"notes"`
}

func (in *gigInput) validate() string {
	if in.Title == "" {
		return "title is required"
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if in.StartMinutes < 0 || in.StartMinutes >= 24*60 {
		return "start_minutes out of range"
	}
	if in.EndMinutes < 0 || in.EndMinutes > 24*60 {
		return "end_minutes out of range"
	}
	switch in.Status {
	case "", model.StatusConfirmed, model.StatusPencilled, model.StatusCancelled:
	default:
		return "unknown status"
	}
	return ""
}

func (in *gigInput) apply(g *model.Gig) {
	g.Title = in.Title
	g.Venue = in.Venue
	g.City = in.City
	g.Date = in.Date
	g.StartMinutes = in.StartMinutes
	g.EndMinutes = in.EndMinutes
	g.Status = in.Status
	g.FeeCents = in.FeeCents
	g.Notes = in.Notes
}

func (s *Server) handleListGigs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if from == "" || to == "" {
		now := time.Now().In(s.loc)
		if from == "" {
			from = now.Format("2006-01-02")
		}
		if to == "" {
			to = now.AddDate(0, 0, s.cfg.HorizonDays).Format("2006-01-02")
		}
	}

	gigs, err := s.store.GigsBetween(r.Context(), from, to)
	if err != nil {
		s.storeError(w, err, "gigs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gigs": gigs, "from": from, "to": to})
}

func (s *Server) handleCreateGig(w http.ResponseWriter, r *http.Request) {
	var in gigInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var g model.Gig
	in.apply(&g)
	if err := s.store.CreateGig(r.Context(), &g); err != nil {
		s.storeError(w, err, "gig")
		return
	}
	s.InvalidateSchedule()
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGig(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGig(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "gig")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGig(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGig(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "gig")
		return
	}

	var in gigInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	in.apply(g)
	if err := s.store.UpdateGig(r.Context(), g); err != nil {
		s.storeError(w, err, "gig")
		return
	}
	s.InvalidateSchedule()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGig(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGig(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err, "gig")
		return
	}
	s.InvalidateSchedule()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLineup(w http.ResponseWriter, r *http.Request) {
	slots, err := s.store.Lineup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "lineup")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lineup": slots})
}

func (s *Server) handleSetLineupSlot(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MemberID  string `json:"member_id"`
		Role      string `json:"role"`
		Confirmed bool   `json:"confirmed"`
	}
	if !s.decodeBody(w, r, &in) {
		return
	}
	if in.MemberID == "" {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	slot := model.LineupSlot{
		GigID:     r.PathValue("id"),
		MemberID:  in.MemberID,
		Role:      in.Role,
		Confirmed: in.Confirmed,
	}
	if err := s.store.AddLineupSlot(r.Context(), slot); err != nil {
		s.storeError(w, err, "lineup slot")
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleRemoveLineupSlot(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveLineupSlot(r.Context(), r.PathValue("id"), r.PathValue("member"))
	if err != nil {
		s.storeError(w, err, "lineup slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.Members(r.Context())
	if err != nil {
		s.storeError(w, err, "members")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m model.Member
	if !s.decodeBody(w, r, &m) {
		return
	}
	if m.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	m.ID = ""
	if err := s.store.CreateMember(r.Context(), &m); err != nil {
		s.storeError(w, err, "member")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMember(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "member")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMember(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err, "member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setlistInput is the request shape for saving and parsing setlists.
// GigID is taken from the URL on the gig-scoped route.
type setlistInput struct {
	ID    string `json:"id"`
	GigID string `json:"gig_id"`
	Name  string `json:"name"`
	Text  string `json:"text"`
}

// handleParseSetlist dry-runs the text parser without storing anything,
// so clients can preview songs and running time while editing.
func (s *Server) handleParseSetlist(w http.ResponseWriter, r *http.Request) {
	var in setlistInput
	if !s.decodeBody(w, r, &in) {
		return
	}

	songs, parseErrs := setlist.Parse(in.Text)
	total := setlist.TotalDuration(songs)
	writeJSON(w, http.StatusOK, map[string]any{
		"songs":          songs,
		"errors":         parseErrs,
		"total_seconds":  total,
		"total_duration": setlist.FormatDuration(total),
	})
}

// saveSetlist parses and stores setlist text for a gig. Parse problems
// come back as 422 with per-line errors so the band can fix their
// paste instead of guessing.
func (s *Server) saveSetlist(w http.ResponseWriter, r *http.Request, gigID string, in setlistInput) {
	if _, err := s.store.GetGig(r.Context(), gigID); err != nil {
		s.storeError(w, err, "gig")
		return
	}
	if in.Name == "" {
		in.Name = "Setlist"
	}

	songs, parseErrs := setlist.Parse(in.Text)
	if len(parseErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "setlist has invalid lines",
			"lines":  parseErrs,
			"parsed": len(songs),
		})
		return
	}
	if len(songs) == 0 {
		writeError(w, http.StatusBadRequest, "setlist is empty")
		return
	}

	sl := model.Setlist{ID: in.ID, GigID: gigID, Name: in.Name, Songs: songs}
	if err := s.store.SaveSetlist(r.Context(), &sl); err != nil {
		s.storeError(w, err, "setlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"setlist":        sl,
		"total_seconds":  setlist.TotalDuration(songs),
		"total_duration": setlist.FormatDuration(setlist.TotalDuration(songs)),
	})
}

func (s *Server) handleSaveSetlist(w http.ResponseWriter, r *http.Request) {
	var in setlistInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	s.saveSetlist(w, r, r.PathValue("id"), in)
}

func (s *Server) handleCreateSetlist(w http.ResponseWriter, r *http.Request) {
	var in setlistInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if in.GigID == "" {
		writeError(w, http.StatusBadRequest, "gig_id is required")
		return
	}
	s.saveSetlist(w, r, in.GigID, in)
}

func (s *Server) handleListSetlists(w http.ResponseWriter, r *http.Request) {
	gigID := r.URL.Query().Get("gig")
	if gigID == "" {
		writeError(w, http.StatusBadRequest, "gig query parameter is required")
		return
	}
	lists, err := s.store.SetlistsForGig(r.Context(), gigID)
	if err != nil {
		s.storeError(w, err, "setlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"setlists": lists})
}

func (s *Server) handleGigSetlists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.store.SetlistsForGig(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "setlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"setlists": lists})
}

func (s *Server) handleGetSetlist(w http.ResponseWriter, r *http.Request) {
	sl, err := s.store.GetSetlist(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "setlist")
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) handleDeleteSetlist(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSetlist(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err, "setlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	f := store.PaymentFilter{
		GigID:    r.URL.Query().Get("gig"),
		MemberID: r.URL.Query().Get("member"),
	}
	payments, err := s.store.Payments(r.Context(), f)
	if err != nil {
		s.storeError(w, err, "payments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var p model.Payment
	if !s.decodeBody(w, r, &p) {
		return
	}
	if p.GigID == "" {
		writeError(w, http.StatusBadRequest, "gig_id is required")
		return
	}
	if p.AmountCents == 0 {
		writeError(w, http.StatusBadRequest, "amount_cents must be non-zero")
		return
	}
	p.ID = ""
	if err := s.store.CreatePayment(r.Context(), &p); err != nil {
		s.storeError(w, err, "payment")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePayment(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err, "payment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaymentTotals(w http.ResponseWriter, r *http.Request) {
	f := store.PaymentFilter{
		GigID:    r.URL.Query().Get("gig"),
		MemberID: r.URL.Query().Get("member"),
	}
	totals, err := s.store.PaidTotalCents(r.Context(), f)
	if err != nil {
		s.storeError(w, err, "payment totals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals_cents": totals})
}
