package world

import "strings"

// GuideFileName seeds every new game so the engine has a manual to extend.
const GuideFileName = "Guide.txt"

// NewFileSet returns the starting world for a fresh game.
func NewFileSet() FileSet {
	return FileSet{
		GuideFileName: {
			Name:    GuideFileName,
			Content: "System Initializing... Waiting for world parameters.",
			Type:    FileGuide,
		},
	}
}

// PlayerFileName namespaces a participant's private file by their display
// name so two players' sheets never collide.
func PlayerFileName(username string) string {
	return "Player_" + username + ".txt"
}

// OwnsFile reports whether the named participant owns a private file, which
// lets them read it even while hidden.
func OwnsFile(f File, username string) bool {
	return username != "" && strings.HasPrefix(f.Name, "Player_"+username)
}

// IsDeadContent scans a player file body for the engine's death markers.
func IsDeadContent(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "status: dead") || strings.Contains(lower, "health: 0")
}
