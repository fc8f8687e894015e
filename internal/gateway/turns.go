package gateway

import (
	"context"
	"time"

	"storyloom/internal/oracle"
	"storyloom/internal/store"

	"github.com/rs/zerolog/log"
)

// SubmitWorld accepts the host's world description and moves the session
// into character creation.
func (c *Coordinator) SubmitWorld(ctx context.Context, gameID, userID, description string) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	if userID != rt.hostID {
		return ErrNotHost
	}

	rt.mu.Lock()
	err := rt.eng.SetWorldDescription(description)
	status := rt.eng.Status
	rt.mu.Unlock()
	if err != nil {
		return err
	}

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.SetWorldDescription(sctx, rt.id, description); err != nil {
		log.Error().Err(err).Str("game_id", rt.id).Msg("persist world description failed")
	}
	if err := c.store.UpdateGameStatus(sctx, rt.id, string(status)); err != nil {
		log.Error().Err(err).Str("game_id", rt.id).Msg("persist status failed")
	}

	rt.buffer.Append(EventStateUpdated, rt.id, nil)
	return nil
}

// SubmitAction records a player's turn input (or character sheet) and
// resolves the turn if this submission completes the barrier.
func (c *Coordinator) SubmitAction(ctx context.Context, gameID, userID, input string, characterCreation bool) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}

	rt.mu.Lock()
	err := rt.eng.Submit(userID, input, characterCreation)
	rt.mu.Unlock()
	if err != nil {
		return err
	}

	metricSubmitTotal.Add(1)
	rt.buffer.Append(EventStateUpdated, rt.id, nil)
	c.maybeResolve(rt)
	return nil
}

// ForceTurn is the host override for a stuck barrier: with inputs pending it
// resolves immediately (the retry path after an oracle failure), otherwise
// it clears every submitted flag so players can re-enter their actions.
func (c *Coordinator) ForceTurn(ctx context.Context, gameID, userID string) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	if userID != rt.hostID {
		return ErrNotHost
	}

	rt.mu.Lock()
	resolveNow := rt.eng.ForceTurn()
	var req *turnWork
	if resolveNow && rt.eng.BeginResolve() {
		req = &turnWork{request: rt.eng.BuildTurnRequest()}
	}
	rt.mu.Unlock()

	metricForceTurnTotal.Add(1)
	if req != nil {
		go c.resolveTurn(rt, req)
		return nil
	}
	rt.buffer.Append(EventStateUpdated, rt.id, nil)
	return nil
}

type turnWork struct {
	request oracle.TurnRequest
}

// maybeResolve checks the barrier and, if it holds, claims the single
// resolve slot and runs the turn off the caller's goroutine.
func (c *Coordinator) maybeResolve(rt *gameRuntime) {
	rt.mu.Lock()
	var req *turnWork
	if rt.eng.BarrierSatisfied() && rt.eng.BeginResolve() {
		req = &turnWork{request: rt.eng.BuildTurnRequest()}
	}
	rt.mu.Unlock()
	if req != nil {
		go c.resolveTurn(rt, req)
	}
}

// resolveTurn calls the oracle and commits or reports the outcome. The
// in-memory engine is authoritative; the store write is best-effort and a
// failure there only logs.
func (c *Coordinator) resolveTurn(rt *gameRuntime, work *turnWork) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.oracleTimeout)
	defer cancel()

	res, err := c.oracle.Resolve(ctx, work.request)
	now := time.Now()

	if err != nil {
		rt.mu.Lock()
		rt.eng.FailResolve(err, now)
		rt.mu.Unlock()
		metricTurnFailTotal.Add(1)
		log.Error().Err(err).Str("game_id", rt.id).Msg("turn resolution failed")
		rt.buffer.Append(EventTurnFailed, rt.id, map[string]any{"error": err.Error()})
		return
	}

	rt.mu.Lock()
	died := rt.eng.ApplyResult(res, now)
	status := rt.eng.Status
	turn := rt.eng.Turn
	state := marshalState(rt.eng)
	var players []store.Player
	for _, p := range rt.eng.Participants() {
		players = append(players, playerRecord(rt.id, p))
	}
	rt.mu.Unlock()

	metricTurnTotal.Add(1)
	log.Info().
		Str("game_id", rt.id).
		Int("turn", turn).
		Dur("elapsed", now.Sub(started)).
		Int("deaths", len(died)).
		Msg("turn resolved")

	sctx, scancel := context.WithTimeout(context.Background(), c.storeTimeout)
	defer scancel()
	if err := c.store.CommitTurn(sctx, rt.id, string(status), state); err != nil {
		log.Error().Err(err).Str("game_id", rt.id).Msg("persist turn failed")
	}
	for _, rec := range players {
		if err := c.store.UpsertPlayer(sctx, rec); err != nil {
			log.Error().Err(err).Str("game_id", rt.id).Str("username", rec.Username).Msg("persist player failed")
			break
		}
	}

	for _, username := range died {
		rt.buffer.Append(EventPlayerDied, rt.id, map[string]any{"username": username})
	}
	rt.buffer.Append(EventStateUpdated, rt.id, map[string]any{"turn": turn})
}
