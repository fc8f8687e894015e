package gateway

import "fmt"

var nameAdjectives = []string{
	"brave", "swift", "clever", "wise", "mighty", "cunning", "noble", "fierce",
	"silent", "mystic", "ancient", "eternal", "bright", "dark", "golden", "silver",
	"iron", "shadow", "storm", "frost", "flame", "thunder", "crystal", "wild",
}

var nameNouns = []string{
	"knight", "wizard", "rogue", "warrior", "sage", "hunter", "ranger", "paladin",
	"monk", "druid", "bard", "cleric", "sorcerer", "warlock", "barbarian", "fighter",
	"thief", "assassin", "ninja", "samurai", "demon", "angel", "dragon", "phoenix",
}

// RandomUsername suggests a display name for a joiner who did not pick one.
func RandomUsername() string {
	codeRandMu.Lock()
	defer codeRandMu.Unlock()
	adj := nameAdjectives[codeRand.Intn(len(nameAdjectives))]
	noun := nameNouns[codeRand.Intn(len(nameNouns))]
	// Two digits keep the longest combination inside the 20-char limit.
	return fmt.Sprintf("%s_%s_%d", adj, noun, 10+codeRand.Intn(90))
}
