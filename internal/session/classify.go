package session

import "strings"

// corruptionMarkers are substrings of server messages that mean the remote
// side has discarded our session and the local copy is unusable. The set is
// small and English-only; if the service ever localizes its messages this
// classification stops working, so keep every marker here and match nowhere
// else.
var corruptionMarkers = []string{
	"session not found",
	"last code",
}

// isCorruptionMessage reports whether msg carries a known corruption
// signature. Matching is case-insensitive.
func isCorruptionMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range corruptionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
