package sched

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gigcal/internal/config"
	"gigcal/internal/ics"
	appLog "gigcal/internal/log"
	"gigcal/internal/model"
)

// Refresher periodically pulls the configured ICS subscriptions,
// expands recurrences over the horizon and keeps the result as an
// in-memory snapshot for the web layer. A refresh never removes the
// previous snapshot on failure; stale data beats an empty schedule.
type Refresher struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	loc     *time.Location
	cron    *cron.Cron

	mu          sync.RWMutex
	occurrences []model.Occurrence
	lastRefresh time.Time
	onRefresh   []func()
}

func New(cfg *config.Config, loc *time.Location) *Refresher {
	return &Refresher{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.ICSCacheDir()),
		loc:     loc,
	}
}

// OnRefresh registers a hook invoked after each successful refresh.
// The web layer uses this to invalidate its schedule cache. Must be
// called before Start.
func (r *Refresher) OnRefresh(fn func()) {
	r.onRefresh = append(r.onRefresh, fn)
}

// Start schedules periodic refreshes per cfg.RefreshCron and runs one
// refresh immediately so the snapshot is populated at boot.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		appLog.Error("initial subscription refresh failed", err)
	}

	c := cron.New(cron.WithLocation(r.loc))
	_, err := c.AddFunc(r.cfg.RefreshCron, func() {
		if err := r.Refresh(ctx); err != nil {
			appLog.Error("scheduled subscription refresh failed", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	r.cron = c
	appLog.Info("refresh scheduler started", "cron", r.cfg.RefreshCron, "subscriptions", len(r.cfg.Subscriptions))
	return nil
}

// Stop halts the cron scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Refresh fetches, parses and expands all subscriptions once.
func (r *Refresher) Refresh(ctx context.Context) error {
	if len(r.cfg.Subscriptions) == 0 {
		return nil
	}
	started := time.Now()

	sources := make([]ics.Source, 0, len(r.cfg.Subscriptions))
	for _, sub := range r.cfg.Subscriptions {
		sources = append(sources, ics.Source{ID: sub.ID, URL: sub.URL})
	}

	results, errs := r.fetcher.FetchAll(ctx, sources)
	for _, err := range errs {
		appLog.Warn("subscription unavailable", "error", err.Error())
	}

	events := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("subscription parse failed", err, "id", res.Source.ID)
			continue
		}
		events = append(events, parsed...)
	}

	now := time.Now().In(r.loc)
	expanded, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation: r.loc,
		RangeStart:      now.AddDate(0, 0, -1),
		RangeEnd:        now.AddDate(0, 0, r.cfg.HorizonDays),
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.occurrences = expanded.Occurrences
	r.lastRefresh = now
	r.mu.Unlock()

	appLog.Info("subscriptions refreshed",
		"sources", len(results),
		"events", len(events),
		"occurrences", len(expanded.Occurrences),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	for _, fn := range r.onRefresh {
		fn()
	}
	return nil
}

// OccurrencesOn returns the snapshot entries overlapping the given
// local calendar day (YYYY-MM-DD).
func (r *Refresher) OccurrencesOn(date string) []model.Occurrence {
	day, err := time.ParseInLocation("2006-01-02", date, r.loc)
	if err != nil {
		return nil
	}
	next := day.AddDate(0, 0, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Occurrence, 0)
	for _, occ := range r.occurrences {
		if occ.Start.Before(next) && occ.End.After(day) {
			out = append(out, occ)
		}
	}
	return out
}

// LastRefresh reports when the snapshot was last rebuilt (zero if never).
func (r *Refresher) LastRefresh() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRefresh
}
