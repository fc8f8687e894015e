package store

import "context"

func (s *Store) UpsertPlayer(ctx context.Context, p Player) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO game_players
			(id, game_id, user_id, username, is_active, has_sent_turn, character_created, is_dead, last_seen, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id, user_id) DO UPDATE SET
			username = EXCLUDED.username,
			is_active = EXCLUDED.is_active,
			has_sent_turn = EXCLUDED.has_sent_turn,
			character_created = EXCLUDED.character_created,
			is_dead = EXCLUDED.is_dead,
			last_seen = EXCLUDED.last_seen`,
		p.ID, p.GameID, p.UserID, p.Username, p.Active, p.Submitted,
		p.CharacterCreated, p.Dead, p.LastSeen, p.JoinedAt)
	return err
}

func (s *Store) ListPlayers(ctx context.Context, gameID string) ([]Player, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, game_id, user_id, username, is_active, has_sent_turn, character_created, is_dead, last_seen, joined_at
		FROM game_players WHERE game_id = $1 ORDER BY joined_at`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &p.Username, &p.Active,
			&p.Submitted, &p.CharacterCreated, &p.Dead, &p.LastSeen, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePlayer(ctx context.Context, gameID, userID string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM game_players WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
