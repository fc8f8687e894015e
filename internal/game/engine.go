// Package game implements the turn state machine for one shared adventure:
// participant tracking, the submission barrier, and applying resolved turns
// to the world. The engine is pure state; the gateway coordinator owns the
// lock, the clock, and all I/O.
package game

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"storyloom/internal/oracle"
	"storyloom/internal/world"
)

type Status string

const (
	StatusWaitingForWorld      Status = "waiting_for_world"
	StatusWaitingForCharacters Status = "waiting_for_characters"
	StatusActive               Status = "active"
	StatusEnded                Status = "ended"
)

var (
	ErrGameEnded         = errors.New("game_ended")
	ErrWrongStatus       = errors.New("wrong_status")
	ErrCharacterRequired = errors.New("character_required")
)

// historyWindow bounds how much recent history rides along in a turn
// request.
const historyWindow = 15

// liveUpdateCap bounds the ticker backlog kept in memory.
const liveUpdateCap = 50

// Engine holds the authoritative state of one game.
type Engine struct {
	Status    Status
	WorldTime int64
	Turn      int

	WorldDescription string
	Files            world.FileSet
	History          []LogEntry
	LiveUpdates      []LiveUpdate

	participants map[string]*Participant
	order        []string

	resolving bool
	// lateNotes are system notes queued for the next turn request
	// (arrivals and departures mid-adventure).
	lateNotes []string
}

func NewEngine() *Engine {
	return &Engine{
		Status:       StatusWaitingForWorld,
		Files:        world.NewFileSet(),
		participants: map[string]*Participant{},
	}
}

// SetWorldDescription accepts the host's initiating description and opens
// character creation. The caller follows up with a turn-zero resolution
// that carries the description as a system note.
func (e *Engine) SetWorldDescription(desc string) error {
	if e.Status != StatusWaitingForWorld {
		return ErrWrongStatus
	}
	e.WorldDescription = desc
	e.Status = StatusWaitingForCharacters
	return nil
}

// Submit records a participant's action for the open turn. A player with no
// character may only submit a character creation: a dead player (the death
// cleared their sheet), anyone during the creation phase, and a late joiner
// who has not introduced themselves yet. Creation also clears the death bar.
func (e *Engine) Submit(userID, input string, characterCreation bool) error {
	if e.Status == StatusEnded {
		return ErrGameEnded
	}
	if e.Status == StatusWaitingForWorld {
		return ErrWrongStatus
	}
	p, ok := e.participants[userID]
	if !ok {
		return ErrNotInGame
	}
	if p.Dead && !characterCreation {
		return ErrPlayerDead
	}
	if !p.CharacterCreated && !characterCreation {
		return ErrCharacterRequired
	}
	if characterCreation {
		p.Dead = false
		p.CharacterCreated = true
	}
	p.PendingInput = input
	p.pendingIsCreation = characterCreation
	p.Submitted = true
	return nil
}

// BarrierSatisfied reports whether the open turn may resolve: every active,
// alive participant whose character exists has submitted. Inactive and dead
// players are excluded so a disconnected client cannot stall the group; a
// late joiner's pending creation can carry a turn on its own when nobody
// else is required.
func (e *Engine) BarrierSatisfied() bool {
	if e.Status != StatusActive && e.Status != StatusWaitingForCharacters {
		return false
	}
	required := 0
	for _, p := range e.participants {
		if !p.Active || p.Dead {
			continue
		}
		if e.Status == StatusActive && !p.CharacterCreated {
			continue
		}
		required++
		if !p.Submitted {
			return false
		}
	}
	if required > 0 {
		return true
	}
	return e.pendingInputCount() > 0
}

func (e *Engine) pendingInputCount() int {
	n := 0
	for _, p := range e.participants {
		if p.Submitted && p.PendingInput != "" {
			n++
		}
	}
	return n
}

// BeginResolve claims the single-flight resolution slot. Only the caller
// that gets true may invoke the oracle for this turn.
func (e *Engine) BeginResolve() bool {
	if e.resolving || e.Status == StatusEnded || e.Status == StatusWaitingForWorld {
		return false
	}
	e.resolving = true
	return true
}

// Resolving reports whether a resolution is in flight.
func (e *Engine) Resolving() bool { return e.resolving }

// BuildTurnRequest assembles the oracle request for the in-flight turn:
// current files, the bounded recent-history window, world time, pending
// inputs, and any queued arrival notes.
func (e *Engine) BuildTurnRequest() oracle.TurnRequest {
	req := oracle.TurnRequest{
		WorldTime:   e.WorldTime,
		SystemNotes: append([]string(nil), e.lateNotes...),
	}
	if e.Turn == 0 && e.WorldDescription != "" {
		req.SystemNotes = append(req.SystemNotes,
			"World description from the host: "+e.WorldDescription)
	}
	for _, id := range e.order {
		p := e.participants[id]
		if !p.Submitted || p.PendingInput == "" {
			continue
		}
		req.Inputs = append(req.Inputs, oracle.Input{
			Username:          p.Username,
			Text:              p.PendingInput,
			CharacterCreation: p.pendingIsCreation,
		})
	}
	names := make([]string, 0, len(e.Files))
	for name := range e.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Files = append(req.Files, e.Files[name])
	}
	start := len(e.History) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, entry := range e.History[start:] {
		req.History = append(req.History, oracle.HistoryEntry{Kind: string(entry.Kind), Text: entry.Text})
	}
	return req
}

// ApplyResult commits a successful resolution: the file batch is merged
// atomically, the clock advances (or is initialized on turn zero), history
// and the ticker grow, submission flags reset, and deaths written into
// player files take effect. Returns the usernames of players who died this
// turn.
func (e *Engine) ApplyResult(res oracle.TurnResult, now time.Time) []string {
	worldTime := e.WorldTime + res.TimeDelta
	if e.WorldTime == 0 {
		if abs, ok := res.InitialSeconds(); ok {
			worldTime = abs
		}
	}
	e.Files = world.Apply(e.Files, res.FileUpdates, worldTime)
	e.WorldTime = worldTime
	e.Turn++

	e.AppendLog(EntryNarrative, res.Narrative, now)
	for _, text := range res.LiveUpdates {
		e.AppendLiveUpdate(text)
	}

	for _, p := range e.participants {
		p.Submitted = false
		p.PendingInput = ""
		p.pendingIsCreation = false
		p.LateJoiner = false
	}
	e.lateNotes = nil

	var died []string
	for _, id := range e.order {
		p := e.participants[id]
		f, ok := e.Files[world.PlayerFileName(p.Username)]
		if !ok || p.Dead {
			continue
		}
		if world.IsDeadContent(f.Content) {
			delete(e.Files, f.Name)
			e.MarkDead(p.UserID)
			died = append(died, p.Username)
		}
	}

	if e.Status == StatusWaitingForCharacters && e.allCharactersCreated() {
		e.Status = StatusActive
	}
	e.resolving = false
	return died
}

// FailResolve surfaces an oracle failure without touching world state.
// Submission flags are preserved so the host can force a retry.
func (e *Engine) FailResolve(err error, now time.Time) {
	e.AppendLog(EntryError, fmt.Sprintf("System Error: %v", err), now)
	e.resolving = false
}

// ForceTurn is the host's escape hatch for a stuck barrier. With inputs
// pending it requests an immediate resolution (also the retry path after a
// failure); otherwise it clears every submission flag. Returns whether the
// caller should resolve now.
func (e *Engine) ForceTurn() bool {
	if e.Status == StatusEnded || e.Status == StatusWaitingForWorld {
		return false
	}
	if e.pendingInputCount() > 0 {
		return true
	}
	for _, p := range e.participants {
		p.Submitted = false
	}
	return false
}

// NoteLateArrival queues a system note introducing a mid-adventure joiner
// on their first processed turn.
func (e *Engine) NoteLateArrival(username string) {
	e.lateNotes = append(e.lateNotes,
		username+" has joined the adventure mid-story; introduce them into the scene.")
}

// End closes the game. Terminal: no submissions are accepted afterwards.
func (e *Engine) End() {
	e.Status = StatusEnded
}

func (e *Engine) allCharactersCreated() bool {
	for _, p := range e.participants {
		if !p.Active || p.Dead {
			continue
		}
		if !p.CharacterCreated {
			return false
		}
	}
	return len(e.participants) > 0
}
