// Package oracle defines the narrative engine contract and its
// implementations. The coordinator hands the oracle a structured turn
// request and gets back narrative text, live-ticker lines, and a file update
// batch; everything about prompting and model choice stays behind this
// interface.
package oracle

import (
	"context"
	"errors"

	"storyloom/internal/world"
)

// ErrOracleFailure wraps transport or decoding problems. The turn stays
// unresolved and world state untouched; the host can force a retry.
var ErrOracleFailure = errors.New("oracle failure")

// Input is one participant's pending action for the turn.
type Input struct {
	Username          string
	Text              string
	CharacterCreation bool
}

// HistoryEntry is one line of the bounded recent-history window sent for
// context.
type HistoryEntry struct {
	Kind string
	Text string
}

// TurnRequest carries everything the engine needs to resolve one turn.
type TurnRequest struct {
	WorldTime   int64
	Inputs      []Input
	Files       []world.File
	History     []HistoryEntry
	SystemNotes []string
}

// TurnResult is the engine's structured response. Narrative may embed
// target/local/hide visibility tags; LiveUpdates are short sign-prefixed
// status lines; FileUpdates apply as one atomic batch. InitialTime is
// honored only when world time is still zero.
type TurnResult struct {
	Narrative   string             `json:"narrative"`
	LiveUpdates []string           `json:"liveUpdates"`
	FileUpdates []world.FileUpdate `json:"fileUpdates"`
	TimeDelta   int64              `json:"timeDelta"`
	InitialTime string             `json:"initialTime,omitempty"`
}

// Engine resolves turns. Implementations must be safe for sequential reuse;
// the coordinator guarantees at most one in-flight call per game.
type Engine interface {
	Resolve(ctx context.Context, req TurnRequest) (TurnResult, error)
	Close() error
}
