package store

import (
	"encoding/json"
	"time"
)

type Game struct {
	ID               string
	Code             string
	HostUserID       string
	WorldDescription string
	WorldTime        int64
	Status           string
	CreatedAt        time.Time
}

type Player struct {
	ID               string
	GameID           string
	UserID           string
	Username         string
	Active           bool
	Submitted        bool
	CharacterCreated bool
	Dead             bool
	LastSeen         time.Time
	JoinedAt         time.Time
}

// GameState is the single replace-style snapshot record per game: world
// clock plus files and history as JSON documents.
type GameState struct {
	GameID    string
	WorldTime int64
	Files     json.RawMessage
	History   json.RawMessage
	UpdatedAt time.Time
}
