package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Heartbeat records a presence ping. An inactive ping starts the grace
// debounce rather than dropping the player from the barrier immediately; an
// active ping cancels it.
func (c *Coordinator) Heartbeat(gameID, userID string, active bool) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	rt.mu.Lock()
	err := rt.eng.Heartbeat(userID, active, time.Now())
	rt.mu.Unlock()
	return err
}

// StartJanitor runs the periodic sweep until ctx is done: inactivity
// debounces that have elapsed are committed (possibly releasing a turn
// barrier), and games whose host has gone silent are torn down.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep(ctx)
			}
		}
	}()
}

func (c *Coordinator) sweep(ctx context.Context) {
	c.mu.Lock()
	runtimes := make([]*gameRuntime, 0, len(c.games))
	for _, rt := range c.games {
		runtimes = append(runtimes, rt)
	}
	c.mu.Unlock()

	now := time.Now()
	for _, rt := range runtimes {
		rt.mu.Lock()
		changed := rt.eng.ApplyInactivity(c.inactivityGrace, now)
		host, ok := rt.eng.Participant(rt.hostID)
		hostGone := ok && now.Sub(host.LastSeen) > c.hostTimeout
		rt.mu.Unlock()

		if hostGone {
			log.Info().Str("game_id", rt.id).Msg("host timed out, closing game")
			if err := c.teardown(ctx, rt, "host_timeout"); err != nil {
				log.Error().Err(err).Str("game_id", rt.id).Msg("teardown after host timeout failed")
			}
			continue
		}
		if changed {
			rt.buffer.Append(EventStateUpdated, rt.id, nil)
			c.maybeResolve(rt)
		}
	}
}
