// Package world holds the shared world state: a named set of "files" the
// narrative engine reads and rewrites each turn.
package world

import "strings"

type FileType string

const (
	FileSystem   FileType = "SYSTEM"
	FilePlayer   FileType = "PLAYER"
	FileLocation FileType = "LOCATION"
	FileItem     FileType = "ITEM"
	FileGuide    FileType = "GUIDE"
	FileNPC      FileType = "NPC"
)

// File is one unit of world state. Hidden files are withheld from players
// until the engine flips the flag; content may still embed visibility tags
// of its own.
type File struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Type        FileType `json:"type"`
	LastUpdated int64    `json:"lastUpdated"`
	Hidden      bool     `json:"isHidden"`
}

// FileSet maps file name to file. Treated as immutable: Apply returns a new
// set and callers swap it in whole.
type FileSet map[string]File

type Op string

const (
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// FileUpdate is one entry of a turn result's file batch. Field names follow
// the engine's wire format. A nil Hidden keeps the file's previous flag
// (false for a brand-new file).
type FileUpdate struct {
	Name    string   `json:"fileName"`
	Content string   `json:"content"`
	Type    FileType `json:"type"`
	Op      Op       `json:"operation"`
	Hidden  *bool    `json:"isHidden,omitempty"`
}

// Apply merges a turn's update batch into files and returns the new set.
// Updates apply in order against a copy, so a caller observing the swap sees
// either none of the batch or all of it. worldTime is the turn's resulting
// world time and stamps every upserted file.
func Apply(files FileSet, updates []FileUpdate, worldTime int64) FileSet {
	next := make(FileSet, len(files)+len(updates))
	for name, f := range files {
		next[name] = f
	}
	for _, u := range updates {
		if u.Op == OpDelete {
			delete(next, u.Name)
			continue
		}
		hidden := false
		if prev, ok := next[u.Name]; ok {
			hidden = prev.Hidden
		}
		if u.Hidden != nil {
			hidden = *u.Hidden
		}
		next[u.Name] = File{
			Name:        u.Name,
			Content:     u.Content,
			Type:        u.Type,
			LastUpdated: worldTime,
			Hidden:      hidden,
		}
	}
	return next
}

// Resolve finds the file best matching an inline reference the user clicked,
// e.g. "[Iron_Key]" or "Location_Crypt (north)". Brackets and any
// parenthesized suffix are stripped before matching; a file matches when
// either name contains the other.
func Resolve(files FileSet, ref string) (File, bool) {
	clean := strings.NewReplacer("[", "", "]", "").Replace(ref)
	if i := strings.IndexByte(clean, '('); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return File{}, false
	}
	var best File
	bestLen := -1
	for _, f := range files {
		bare := strings.TrimSuffix(f.Name, ".txt")
		if !strings.Contains(f.Name, clean) && !strings.Contains(clean, bare) {
			continue
		}
		// Prefer the longest matching name so "Player_alice" beats "Player".
		if len(f.Name) > bestLen {
			best = f
			bestLen = len(f.Name)
		}
	}
	return best, bestLen >= 0
}
