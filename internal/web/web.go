package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gigcal/internal/auth"
	"gigcal/internal/config"
	appLog "gigcal/internal/log"
	"gigcal/internal/model"
	"gigcal/internal/store"
)

// OccurrenceSource provides the merged external subscription snapshot.
// *sched.Refresher satisfies this; tests substitute a stub.
type OccurrenceSource interface {
	OccurrencesOn(date string) []model.Occurrence
	LastRefresh() time.Time
	Refresh(ctx context.Context) error
}

// Server provides the JSON API, the calendar feed endpoints and the
// printable schedule views.
type Server struct {
	cfg   *config.Config
	store *store.Store
	subs  OccurrenceSource
	creds *auth.Credentials
	loc   *time.Location
	mux   *http.ServeMux

	// Per-day schedule responses are cached briefly; gig mutations and
	// subscription refreshes invalidate the whole cache.
	scheduleMu    sync.RWMutex
	scheduleCache map[string]*scheduleCacheEntry
}

type scheduleCacheEntry struct {
	resp      scheduleResponse
	updatedAt time.Time
}

const scheduleCacheTTL = 30 * time.Second

// NewServer constructs a new Server. subs may be nil when no
// subscriptions are configured; creds may be nil when basic auth is
// disabled (mutating endpoints are then open).
func NewServer(cfg *config.Config, st *store.Store, subs OccurrenceSource, creds *auth.Credentials) *Server {
	s := &Server{
		cfg:           cfg,
		store:         st,
		subs:          subs,
		creds:         creds,
		loc:           resolveLocationOrLocal(cfg.Timezone),
		mux:           http.NewServeMux(),
		scheduleCache: make(map[string]*scheduleCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// InvalidateSchedule drops all cached schedule responses. Wired to the
// refresh scheduler's post-refresh hook and called after gig mutations.
func (s *Server) InvalidateSchedule() {
	s.scheduleMu.Lock()
	s.scheduleCache = make(map[string]*scheduleCacheEntry)
	s.scheduleMu.Unlock()
}

func (s *Server) registerRoutes() {
	// protected wraps mutating handlers with basic auth when configured.
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return auth.Require(s.creds, h)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("POST /api/refresh", protected(s.handleRefresh))

	s.mux.HandleFunc("GET /api/gigs", s.handleListGigs)
	s.mux.HandleFunc("POST /api/gigs", protected(s.handleCreateGig))
	s.mux.HandleFunc("GET /api/gigs/{id}", s.handleGetGig)
	s.mux.HandleFunc("PUT /api/gigs/{id}", protected(s.handleUpdateGig))
	s.mux.HandleFunc("DELETE /api/gigs/{id}", protected(s.handleDeleteGig))

	s.mux.HandleFunc("GET /api/gigs/{id}/lineup", s.handleGetLineup)
	s.mux.HandleFunc("POST /api/gigs/{id}/lineup", protected(s.handleSetLineupSlot))
	s.mux.HandleFunc("DELETE /api/gigs/{id}/lineup/{member}", protected(s.handleRemoveLineupSlot))

	s.mux.HandleFunc("GET /api/gigs/{id}/setlists", s.handleGigSetlists)
	s.mux.HandleFunc("POST /api/gigs/{id}/setlists", protected(s.handleSaveSetlist))
	s.mux.HandleFunc("GET /api/setlists", s.handleListSetlists)
	s.mux.HandleFunc("POST /api/setlists", protected(s.handleCreateSetlist))
	s.mux.HandleFunc("POST /api/setlists/parse", s.handleParseSetlist)
	s.mux.HandleFunc("GET /api/setlists/{id}", s.handleGetSetlist)
	s.mux.HandleFunc("DELETE /api/setlists/{id}", protected(s.handleDeleteSetlist))

	s.mux.HandleFunc("GET /api/members", s.handleListMembers)
	s.mux.HandleFunc("POST /api/members", protected(s.handleCreateMember))
	s.mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	s.mux.HandleFunc("DELETE /api/members/{id}", protected(s.handleDeleteMember))

	s.mux.HandleFunc("GET /api/payments", s.handleListPayments)
	s.mux.HandleFunc("POST /api/payments", protected(s.handleCreatePayment))
	s.mux.HandleFunc("DELETE /api/payments/{id}", protected(s.handleDeletePayment))
	s.mux.HandleFunc("GET /api/payments/totals", s.handlePaymentTotals)

	s.mux.HandleFunc("GET /feed.ics", s.handleFeed)
	s.mux.HandleFunc("GET /api/download", s.handleDownload)
	s.mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)

	s.mux.HandleFunc("GET /print/schedule", s.handlePrintSchedule)
	s.mux.HandleFunc("GET /api/printout.pdf", s.handlePrintoutPDF)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRefresh triggers an immediate subscription refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.subs == nil {
		writeError(w, http.StatusConflict, "no subscriptions configured")
		return
	}
	if err := s.subs.Refresh(r.Context()); err != nil {
		appLog.Error("manual refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	s.InvalidateSchedule()
	writeJSON(w, http.StatusOK, map[string]any{"refreshed_at": s.subs.LastRefresh()})
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
