// Package sched triggers a run once per day at a fixed wall-clock time.
// The pipeline itself has no awareness of scheduling; this loop just calls
// run when the clock comes around.
package sched

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ParseAt parses an "HH:MM" 24-hour time of day.
func ParseAt(at string) (hour, minute int, err error) {
	if _, err := time.Parse("15:04", at); err != nil {
		return 0, 0, fmt.Errorf("sched: bad time of day %q (want HH:MM): %w", at, err)
	}
	_, _ = fmt.Sscanf(at, "%d:%d", &hour, &minute)
	return hour, minute, nil
}

// Daily invokes run once per day at the given local time until ctx is
// cancelled. A run in progress completes before Daily returns.
func Daily(ctx context.Context, at string, run func()) error {
	hour, minute, err := ParseAt(at)
	if err != nil {
		return err
	}
	log.Printf("sched: running daily at %02d:%02d (next %s)", hour, minute, Next(time.Now(), hour, minute).Format(time.RFC3339))

	for {
		timer := time.NewTimer(time.Until(Next(time.Now(), hour, minute)))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Print("sched: stopped")
			return nil
		case <-timer.C:
			run()
		}
	}
}

// Next returns the first hour:minute instant strictly after now.
func Next(now time.Time, hour, minute int) time.Time {
	n := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !n.After(now) {
		n = n.AddDate(0, 0, 1)
	}
	return n
}
