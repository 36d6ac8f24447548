// Package progress renders the textual progress report of a download run.
package progress

import (
	"fmt"
	"strings"
)

const (
	doneGlyph    = "█"
	pendingGlyph = "░"
)

// Percent returns the whole percentage of total that done represents,
// rounded down. A zero total reads as 0%.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}

// Bar renders pct as a 50 glyph bar: one glyph per two percent.
func Bar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	done := pct / 2
	pending := (100 - pct + 1) / 2
	return strings.Repeat(doneGlyph, done) + strings.Repeat(pendingGlyph, pending)
}

// Render returns the one-line progress report for a run of total requests.
func Render(total, attempted, succeeded, failed int) string {
	pct := Percent(attempted, total)
	return fmt.Sprintf("progress: %d%% [%s] total=%d failed=%d succeeded=%d",
		pct, Bar(pct), total, failed, succeeded)
}
