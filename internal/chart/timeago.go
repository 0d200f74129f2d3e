package chart

import (
	"fmt"
	"time"
)

// relativeAge formats how long ago an event happened for hover text,
// e.g. "2h05mins ago". now is taken once per build so every marker in
// the same figure agrees on it.
func relativeAge(at, now time.Time) string {
	if at.After(now) {
		return "in future"
	}

	totalMinutes := int(now.Sub(at).Minutes())
	hrs := totalMinutes / 60
	mins := totalMinutes % 60

	switch {
	case hrs > 0 && mins > 0:
		return fmt.Sprintf("%dh%02dmins ago", hrs, mins)
	case hrs > 0:
		return fmt.Sprintf("%dh ago", hrs)
	case mins > 0:
		return fmt.Sprintf("%dmins ago", mins)
	default:
		return "just now"
	}
}
