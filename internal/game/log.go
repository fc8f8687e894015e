package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryNarrative EntryKind = "NARRATIVE"
	EntrySystem    EntryKind = "SYSTEM"
	EntryError     EntryKind = "ERROR"
	EntryInput     EntryKind = "INPUT"
)

// LogEntry is one line of the append-only adventure log. Insertion order is
// meaningful and never changes.
type LogEntry struct {
	ID        string    `json:"id"`
	Kind      EntryKind `json:"type"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
}

type Tone string

const (
	ToneBad     Tone = "NEGATIVE"
	ToneGood    Tone = "POSITIVE"
	ToneNeutral Tone = "NEUTRAL"
)

// LiveUpdate is one short delta line for the ticker, toned by its sign
// marker.
type LiveUpdate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Tone Tone   `json:"type"`
}

// ClassifyUpdate tones a ticker line; a minus marker wins over a plus.
func ClassifyUpdate(text string) Tone {
	switch {
	case strings.Contains(text, "-"):
		return ToneBad
	case strings.Contains(text, "+"):
		return ToneGood
	default:
		return ToneNeutral
	}
}

// AppendLog appends to the adventure history.
func (e *Engine) AppendLog(kind EntryKind, text string, now time.Time) {
	e.History = append(e.History, LogEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Timestamp: now.UnixMilli(),
	})
}

// AppendLiveUpdate prepends to the ticker, keeping the newest entries first
// and the backlog bounded.
func (e *Engine) AppendLiveUpdate(text string) {
	update := LiveUpdate{
		ID:   uuid.NewString(),
		Text: text,
		Tone: ClassifyUpdate(text),
	}
	e.LiveUpdates = append([]LiveUpdate{update}, e.LiveUpdates...)
	if len(e.LiveUpdates) > liveUpdateCap {
		e.LiveUpdates = e.LiveUpdates[:liveUpdateCap]
	}
}
