package harmonizer

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/logging"
)

// AutoRunner provides controls for scheduled runs.
type AutoRunner interface {
	// AutoRunOn starts running on the configured interval
	AutoRunOn() error

	// AutoRunOff stops scheduled runs and waits for the loop to exit
	AutoRunOff() error
}

// AutoRunOn starts scheduled runs. Calling it again restarts the schedule.
func (c *client) AutoRunOn() error {
	interval := c.options.autoRunInterval
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "autoRunInterval",
			Value:   interval,
			Message: "run interval must be positive",
		}
	}

	// Stop any existing schedule to prevent leaked tickers
	if err := c.AutoRunOff(); err != nil {
		return err
	}

	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	c.autoTicker, c.autoCancel, c.autoDone = ticker, cancel, done

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				if _, err := c.Run(ctx); err != nil {
					if stderrors.Is(err, context.Canceled) {
						return
					}
					logging.Error().Err(err).Msg("Scheduled run failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logging.Debug().Dur("interval", interval).Msg("Scheduled runs enabled")
	return nil
}

// AutoRunOff stops scheduled runs. It is safe to call when not running.
func (c *client) AutoRunOff() error {
	c.autoMu.Lock()
	ticker, cancel, done := c.autoTicker, c.autoCancel, c.autoDone
	c.autoTicker, c.autoCancel, c.autoDone = nil, nil, nil
	c.autoMu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}
