// Package gateway is the session manager: it owns every live game's
// runtime, fans state changes out to subscribed clients, and fronts the
// whole thing with HTTP handlers. It is the single writer for world state;
// clients only ever observe published snapshots.
package gateway

import (
	"errors"
	"time"

	"storyloom/internal/game"
	"storyloom/internal/world"
)

var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrGameNotFound     = errors.New("game_not_found")
	ErrInvalidJoinCode  = errors.New("invalid_join_code")
	ErrNotHost          = errors.New("not_host")
	ErrStoreTimeout     = errors.New("store_timeout")
	ErrCodeSpaceBusy    = errors.New("join_code_space_exhausted")
)

// GameInfo is the read-only projection of a session returned to clients.
type GameInfo struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	HostID    string      `json:"host_user_id"`
	Status    game.Status `json:"status"`
	WorldTime int64       `json:"world_time"`
	Turn      int         `json:"turn"`
	CreatedAt time.Time   `json:"created_at"`
}

// PlayerView is the public slice of a participant record.
type PlayerView struct {
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	Active           bool   `json:"is_active"`
	Submitted        bool   `json:"has_sent_turn"`
	CharacterCreated bool   `json:"character_created"`
	Dead             bool   `json:"is_dead"`
}

// StateView is one viewer's filtered snapshot of a game: hidden files
// withheld, secrecy spans stripped, targeted content resolved for exactly
// this viewer.
type StateView struct {
	Game        GameInfo          `json:"game"`
	Players     []PlayerView      `json:"players"`
	Files       []world.File      `json:"files"`
	History     []game.LogEntry   `json:"history"`
	LiveUpdates []game.LiveUpdate `json:"live_updates"`
	You         *PlayerView       `json:"you,omitempty"`
}

// JoinResult is returned from create/join calls.
type JoinResult struct {
	Game      GameInfo `json:"game"`
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	IsHost    bool     `json:"is_host"`
	EventsURL string   `json:"events_url"`
}
