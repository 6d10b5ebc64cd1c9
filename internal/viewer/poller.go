package viewer

import (
	"context"
	"errors"
	"time"
)

// PollOnce refreshes the latest menu when the displayed date is today or nothing
// is displayed yet. It does nothing while a rescan is running.
func (c *Controller) PollOnce(ctx context.Context) (bool, error) {
	if c.rescanning.Load() {
		c.logger.Debug().Msg("Rescan in progress, skipping poll")
		return false, nil
	}

	current := c.State().CurrentDate
	if current != "" && current != c.Today() {
		c.logger.Debug().Str("current", current).Msg("Viewing a past date, skipping poll")
		return false, nil
	}

	return true, c.FetchLatest(ctx)
}

// Run polls every interval until ctx is cancelled
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	c.logger.Info().Dur("interval", interval).Msg("Starting menu poller")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Menu poller stopped")
			return
		case <-ticker.C:
			if _, err := c.PollOnce(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
				c.logger.Warn().Err(err).Msg("Menu poll failed")
			}
		}
	}
}
