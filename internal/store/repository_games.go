package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateGame(ctx context.Context, g Game) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO games (id, code, host_user_id, world_description, world_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.Code, g.HostUserID, g.WorldDescription, g.WorldTime, g.Status)
	return err
}

func (s *Store) GetGame(ctx context.Context, id string) (Game, error) {
	return s.scanGame(s.Pool.QueryRow(ctx, `
		SELECT id, code, host_user_id, world_description, world_time, status, created_at
		FROM games WHERE id = $1`, id))
}

func (s *Store) GetGameByCode(ctx context.Context, code string) (Game, error) {
	return s.scanGame(s.Pool.QueryRow(ctx, `
		SELECT id, code, host_user_id, world_description, world_time, status, created_at
		FROM games WHERE code = $1`, code))
}

// CodeInUse reports whether a join code already belongs to a game.
func (s *Store) CodeInUse(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (s *Store) UpdateGameStatus(ctx context.Context, id, status string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE games SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetWorldDescription(ctx context.Context, id, desc string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE games SET world_description = $2 WHERE id = $1`, id, desc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGame removes the game; player and state rows go with it through the
// foreign keys.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanGame(row pgx.Row) (Game, error) {
	var g Game
	err := row.Scan(&g.ID, &g.Code, &g.HostUserID, &g.WorldDescription,
		&g.WorldTime, &g.Status, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	return g, err
}
