package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetGameState(ctx context.Context, gameID string) (GameState, error) {
	var st GameState
	err := s.Pool.QueryRow(ctx, `
		SELECT game_id, world_time, files, history, updated_at
		FROM game_states WHERE game_id = $1`, gameID).
		Scan(&st.GameID, &st.WorldTime, &st.Files, &st.History, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameState{}, ErrNotFound
	}
	return st, err
}

// CommitTurn persists a resolved turn as one transaction: the game clock and
// status, the replaced state snapshot, and every player's reset submission
// flag. Either all of it lands or none of it does.
func (s *Store) CommitTurn(ctx context.Context, gameID, status string, state GameState) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE games SET world_time = $2, status = $3 WHERE id = $1`,
		gameID, state.WorldTime, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO game_states (game_id, world_time, files, history, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (game_id) DO UPDATE SET
			world_time = EXCLUDED.world_time,
			files = EXCLUDED.files,
			history = EXCLUDED.history,
			updated_at = now()`,
		gameID, state.WorldTime, state.Files, state.History); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE game_players SET has_sent_turn = FALSE WHERE game_id = $1`, gameID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
