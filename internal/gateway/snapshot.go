package gateway

import (
	"sort"
	"strings"

	"storyloom/internal/game"
	"storyloom/internal/visibility"
	"storyloom/internal/world"
)

// Snapshot builds the caller's filtered view of a game. Hidden files are
// withheld unless the viewer owns them (or is the host with debug on),
// secrecy spans are stripped everywhere, and targeted content resolves for
// exactly this viewer. Every viewer gets their own snapshot; nothing
// filtered here is shared.
func (c *Coordinator) Snapshot(gameID, userID string, hostDebug bool) (StateView, error) {
	rt := c.runtime(gameID)
	if rt == nil {
		return StateView{}, ErrGameNotFound
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	viewer := visibility.Viewer{ID: userID}
	var you *PlayerView
	if p, ok := rt.eng.Participant(userID); ok {
		viewer.Name = p.Username
		pv := playerView(p)
		you = &pv
	}
	debug := hostDebug && userID == rt.hostID

	view := StateView{
		Game: c.infoLocked(rt),
		You:  you,
	}

	for _, p := range rt.eng.Participants() {
		view.Players = append(view.Players, playerView(p))
	}

	names := make([]string, 0, len(rt.eng.Files))
	for name := range rt.eng.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := rt.eng.Files[name]
		if f.Hidden && !debug && !world.OwnsFile(f, viewer.Name) {
			continue
		}
		f.Content = filterText(f.Content, viewer)
		view.Files = append(view.Files, f)
	}

	for _, entry := range rt.eng.History {
		entry.Text = filterText(entry.Text, viewer)
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		view.History = append(view.History, entry)
	}

	for _, update := range rt.eng.LiveUpdates {
		update.Text = filterText(update.Text, viewer)
		if strings.TrimSpace(update.Text) == "" {
			continue
		}
		view.LiveUpdates = append(view.LiveUpdates, update)
	}

	return view, nil
}

// filterText applies both reader-facing passes: spoiler spans go first so a
// targeted wrapper can never leak hidden text, then targeting resolves.
func filterText(text string, viewer visibility.Viewer) string {
	return visibility.ForViewer(visibility.StripHidden(text), viewer)
}

func playerView(p *game.Participant) PlayerView {
	return PlayerView{
		UserID:           p.UserID,
		Username:         p.Username,
		Active:           p.Active,
		Submitted:        p.Submitted,
		CharacterCreated: p.CharacterCreated,
		Dead:             p.Dead,
	}
}
