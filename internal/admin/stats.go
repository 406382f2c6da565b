// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/statchat/internal/logging"
	"github.com/jeranaias/statchat/internal/model"
)

// StatsSource fetches dataset statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// StatsTracker caches the dataset summary shown in the sidebar and the
// admin pane. A failed refresh keeps the previous figures.
type StatsTracker struct {
	mu        sync.Mutex
	src       StatsSource
	stats     *model.Stats
	fetchedAt time.Time
	logger    *slog.Logger
}

// NewStatsTracker creates an empty tracker.
func NewStatsTracker(src StatsSource, logger *slog.Logger) *StatsTracker {
	logger = logging.OrDefault(logger)
	return &StatsTracker{src: src, logger: logger}
}

// Refresh fetches the statistics.
func (t *StatsTracker) Refresh(ctx context.Context) error {
	s, err := t.src.Stats(ctx)
	if err != nil {
		t.logger.Warn("failed to load stats", "error", err)
		return fmt.Errorf("failed to load stats: %w", err)
	}
	t.mu.Lock()
	t.stats = s
	t.fetchedAt = time.Now()
	t.mu.Unlock()
	return nil
}

// Stats returns a copy of the last fetched statistics, or nil.
func (t *StatsTracker) Stats() *model.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stats == nil {
		return nil
	}
	s := *t.stats
	s.ByYear = append([]model.YearCount(nil), t.stats.ByYear...)
	return &s
}

// FetchedAt returns when the statistics were last refreshed.
func (t *StatsTracker) FetchedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fetchedAt
}
