package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopcms/internal/catalog"
)

// background runs fn outside the request. Panics are logged, and run waits
// for pending jobs during shutdown.
func (app *application) background(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background job panicked", "error", fmt.Sprint(err))
			}
		}()
		fn()
	}()
}

// catalogStats holds the latest per-kind counts published under /debug/vars.
type catalogStats struct {
	mu        sync.RWMutex
	counts    map[catalog.Kind]int
	refreshed time.Time
}

func (s *catalogStats) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.counts)+1)
	for kind, n := range s.counts {
		out[kind.Collection()] = n
	}
	out["refreshedAt"] = s.refreshed
	return out
}

func (app *application) refreshCatalogStats(ctx context.Context) error {
	counts := make(map[catalog.Kind]int, len(catalog.Kinds()))
	for _, kind := range catalog.Kinds() {
		n, err := app.repo.Count(ctx, kind)
		if err != nil {
			return fmt.Errorf("count %s: %w", kind, err)
		}
		counts[kind] = n
	}

	app.stats.mu.Lock()
	app.stats.counts = counts
	app.stats.refreshed = time.Now()
	app.stats.mu.Unlock()
	return nil
}

// refreshCatalogStatsEvery keeps the published counts fresh until ctx ends.
func (app *application) refreshCatalogStatsEvery(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			rctx, cancel := context.WithTimeout(ctx, readTimeout)
			if err := app.refreshCatalogStats(rctx); err != nil && ctx.Err() == nil {
				app.logger.Errorw("error refreshing catalog stats", "error", err.Error())
			}
			cancel()

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
