package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// scheduledSeek jumps by Delta once playback has run for At.
type scheduledSeek struct {
	Delta time.Duration
	At    time.Duration
}

// parseSeeks parses values of the form DELTA@AT, e.g. "5s@2s" or "-3s@10s",
// and returns them ordered by At.
func parseSeeks(values []string) ([]scheduledSeek, error) {
	seeks := make([]scheduledSeek, 0, len(values))
	for _, v := range values {
		delta, at, ok := strings.Cut(v, "@")
		if !ok {
			return nil, fmt.Errorf("invalid seek %q: expected DELTA@AT", v)
		}
		d, err := time.ParseDuration(strings.TrimSpace(delta))
		if err != nil {
			return nil, fmt.Errorf("invalid seek %q: %w", v, err)
		}
		a, err := time.ParseDuration(strings.TrimSpace(at))
		if err != nil {
			return nil, fmt.Errorf("invalid seek %q: %w", v, err)
		}
		if d == 0 {
			return nil, fmt.Errorf("invalid seek %q: delta must not be zero", v)
		}
		if a < 0 {
			return nil, fmt.Errorf("invalid seek %q: time must not be negative", v)
		}
		seeks = append(seeks, scheduledSeek{Delta: d, At: a})
	}
	sort.SliceStable(seeks, func(i, j int) bool { return seeks[i].At < seeks[j].At })
	return seeks, nil
}

// runSchedule calls seek for each entry at its offset from the call time.
// It returns when all seeks are issued, done is closed or ctx ends.
func runSchedule(ctx context.Context, seeks []scheduledSeek, done <-chan struct{}, seek func(time.Duration)) {
	start := time.Now()
	for _, s := range seeks {
		timer := time.NewTimer(time.Until(start.Add(s.At)))
		select {
		case <-timer.C:
			seek(s.Delta)
		case <-done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
