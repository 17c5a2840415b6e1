package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/log"
)

// FetchFunc reads the current status of whatever is being watched.
type FetchFunc func(c context.Context) (string, error)

// Poller re-fetches a status at a fixed interval until the context is
// cancelled or a terminal status arrives. There is no backoff and no attempt
// cap; cancellation is the only other way out.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	terminal func(status string) bool
}

func New(interval time.Duration, fetch FetchFunc, terminal func(status string) bool) Poller {
	return Poller{interval: interval, fetch: fetch, terminal: terminal}
}

// Run fetches immediately, then once per tick. Every successful fetch is
// reported through onStatus; fetch errors are logged and the loop keeps
// going. Run returns the last status seen, empty when cancelled before any
// successful fetch.
func (p Poller) Run(c context.Context, onStatus func(status string)) string {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Poller Run").
		Logger()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := ""
	for {
		status, err := p.fetch(c)
		if err != nil {
			logger.Error().Err(err).Msgf("failed fetching status with error=%s", err.Error())
		} else {
			last = status
			onStatus(status)
			if p.terminal(status) {
				logger.Info().Str(log.KeyStatus, status).Msg("reached terminal status")
				return last
			}
		}

		select {
		case <-c.Done():
			logger.Info().Msg("polling cancelled")
			return last
		case <-ticker.C:
		}
	}
}
