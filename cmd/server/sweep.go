package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type sweepFunc func() int

// runSweeper calls every sweep once per interval until ctx is done.
func runSweeper(ctx context.Context, interval time.Duration, sweeps map[string]sweepFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, sweep := range sweeps {
				if n := sweep(); n > 0 {
					log.Debug().Str("sweep", name).Int("dropped", n).Msg("[sweeper] released idle entries")
				}
			}
		}
	}
}
