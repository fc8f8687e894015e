package game

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidUsername   = errors.New("invalid_username")
	ErrDuplicateUsername = errors.New("duplicate_username")
	ErrNotInGame         = errors.New("not_in_game")
	ErrPlayerDead        = errors.New("player_dead")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidUsername reports whether a display name is 3-20 characters of
// letters, digits and underscores.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// Participant is one player's record inside a game. Each participant only
// ever writes their own record, so per-field updates are last-write-wins.
type Participant struct {
	UserID   string
	Username string

	Active           bool
	Submitted        bool
	CharacterCreated bool
	Dead             bool

	// LateJoiner marks someone who arrived after the adventure started;
	// their first processed turn carries an arrival note for the engine.
	LateJoiner bool

	LastSeen time.Time
	JoinedAt time.Time

	// PendingInput is the submitted action waiting for the next
	// resolution, cleared when the turn commits.
	PendingInput      string
	pendingIsCreation bool

	// inactiveSince is set when a client reports loss of focus; the flag
	// flips only after the signal survives the grace window.
	inactiveSince time.Time
}

// Join adds or refreshes a participant. Rejoining with the same identity is
// idempotent; a display name held by a different identity is rejected.
func (e *Engine) Join(userID, username string, now time.Time) (*Participant, error) {
	if p := e.participants[userID]; p != nil {
		p.Active = true
		p.LastSeen = now
		p.inactiveSince = time.Time{}
		return p, nil
	}
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	for _, p := range e.participants {
		if p.Username == username {
			return nil, ErrDuplicateUsername
		}
	}
	p := &Participant{
		UserID:   userID,
		Username: username,
		Active:   true,
		LastSeen: now,
		JoinedAt: now,
	}
	if e.Status == StatusActive {
		p.LateJoiner = true
	}
	e.participants[userID] = p
	e.order = append(e.order, userID)
	return p, nil
}

// Leave removes a participant entirely.
func (e *Engine) Leave(userID string) {
	if _, ok := e.participants[userID]; !ok {
		return
	}
	delete(e.participants, userID)
	for i, id := range e.order {
		if id == userID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Participant looks up a player record.
func (e *Engine) Participant(userID string) (*Participant, bool) {
	p, ok := e.participants[userID]
	return p, ok
}

// Participants returns player records in join order.
func (e *Engine) Participants() []*Participant {
	out := make([]*Participant, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.participants[id])
	}
	return out
}

// Heartbeat records liveness. An active signal cancels any pending
// inactivity; an inactive one starts the debounce clock instead of flipping
// the flag outright, so a transient focus loss never drops a player from
// the barrier.
func (e *Engine) Heartbeat(userID string, active bool, now time.Time) error {
	p, ok := e.participants[userID]
	if !ok {
		return ErrNotInGame
	}
	if active {
		p.Active = true
		p.LastSeen = now
		p.inactiveSince = time.Time{}
		return nil
	}
	if p.inactiveSince.IsZero() {
		p.inactiveSince = now
	}
	return nil
}

// ApplyInactivity flips participants whose inactivity signal outlived the
// grace window, and reports whether anyone changed (the barrier may now be
// satisfied).
func (e *Engine) ApplyInactivity(grace time.Duration, now time.Time) bool {
	changed := false
	for _, p := range e.participants {
		if p.Active && !p.inactiveSince.IsZero() && now.Sub(p.inactiveSince) >= grace {
			p.Active = false
			p.inactiveSince = time.Time{}
			changed = true
		}
	}
	return changed
}

// MarkDead records a death: the player's private file is removed from the
// world and they are barred from ordinary submissions until a new character
// creation arrives.
func (e *Engine) MarkDead(userID string) {
	p, ok := e.participants[userID]
	if !ok {
		return
	}
	p.Dead = true
	p.CharacterCreated = false
	p.Submitted = false
	p.PendingInput = ""
	p.pendingIsCreation = false
}
