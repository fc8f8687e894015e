package gateway

import (
	"strconv"
	"sync"
	"time"
)

// StreamEvent is one entry on a game's subscription channel. Events carry
// notifications, not content: a client that sees state_updated re-fetches
// its own filtered snapshot, so delivery order and duplication are both
// harmless.
type StreamEvent struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	GameID   string `json:"game_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

const (
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventPlayerKicked = "player_kicked"
	EventPlayerDied   = "player_died"
	EventStateUpdated = "state_updated"
	EventTurnFailed   = "turn_failed"
	EventGameDeleted  = "game_deleted"
)

// EventBuffer keeps a bounded replay window of a game's events and fans new
// ones out to subscribers. Slow subscribers drop events rather than block
// the publisher; Last-Event-ID replay covers the gap.
type EventBuffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []StreamEvent
	watchers map[chan StreamEvent]struct{}
	closed   bool
}

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = 500
	}
	return &EventBuffer{
		max:      max,
		watchers: map[chan StreamEvent]struct{}{},
	}
}

func (b *EventBuffer) Append(event, gameID string, data any) StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return StreamEvent{}
	}
	b.nextID++
	ev := StreamEvent{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		GameID:   gameID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns buffered events newer than lastEventID; an empty or
// unparseable id replays the whole window.
func (b *EventBuffer) ReplayAfter(lastEventID string) []StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		out := make([]StreamEvent, len(b.events))
		copy(out, b.events)
		return out
	}
	out := make([]StreamEvent, 0, len(b.events))
	for _, ev := range b.events {
		id, err := strconv.ParseInt(ev.EventID, 10, 64)
		if err != nil || id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan StreamEvent, 32)
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

// Close ends the stream for every subscriber; used at game teardown.
func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
	}
	b.watchers = map[chan StreamEvent]struct{}{}
}
