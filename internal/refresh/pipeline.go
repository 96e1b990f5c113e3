// Package refresh loads the subscribed feeds into the event store, once or
// on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dragcal/internal/config"
	"dragcal/internal/ics"
	appLog "dragcal/internal/log"
	"dragcal/internal/store"
)

// Result summarizes one refresh.
type Result struct {
	Sources   int
	Failed    int
	Events    int
	Truncated []string
	Window    [2]time.Time
}

// Pipeline is fetch, parse, expand, then store.Replace.
type Pipeline struct {
	Sources  []ics.Source
	Fetcher  *ics.Fetcher
	Store    *store.Store
	Location *time.Location

	BackfillDays int
	HorizonDays  int

	now func() time.Time
}

// NewPipeline builds a pipeline from the configured sources and window.
func NewPipeline(cfg *config.Config, fetcher *ics.Fetcher, st *store.Store) *Pipeline {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for i, src := range cfg.ICS {
		id := src.ID
		if id == "" {
			id = fmt.Sprintf("ics-%d", i)
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}
	return &Pipeline{
		Sources:      sources,
		Fetcher:      fetcher,
		Store:        st,
		Location:     cfg.Location(),
		BackfillDays: cfg.BackfillDays,
		HorizonDays:  cfg.HorizonDays,
		now:          time.Now,
	}
}

// window is [today - backfill, today + horizon) at midnight in Location.
func (p *Pipeline) window() (time.Time, time.Time) {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	t := now().In(loc)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -p.BackfillDays), today.AddDate(0, 0, p.HorizonDays)
}

// Run performs one refresh. When every source fails the store is left
// untouched and the joined fetch errors are returned.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	from, to := p.window()
	res := Result{Sources: len(p.Sources), Window: [2]time.Time{from, to}}

	fetched, errs := p.Fetcher.FetchAll(ctx, p.Sources)
	res.Failed = len(errs)
	if len(p.Sources) > 0 && len(fetched) == 0 {
		return res, errors.Join(errs...)
	}

	var parsed []ics.ParsedEvent
	for _, f := range fetched {
		evs, err := ics.ParseICS(f.Source, f.Body)
		if err != nil {
			res.Failed++
			appLog.Error("refresh: parse failed", err, "id", f.Source.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: p.Location,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		return res, fmt.Errorf("refresh: expand: %w", err)
	}

	p.Store.Replace(expanded.Events)
	res.Events = len(expanded.Events)
	res.Truncated = expanded.TruncatedEvents

	appLog.Info("refresh completed",
		"sources", res.Sources,
		"failed", res.Failed,
		"events", res.Events,
		"from", from,
		"to", to,
		"took", time.Since(started).Round(time.Millisecond).String(),
	)
	return res, nil
}
