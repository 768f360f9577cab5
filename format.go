package main

import (
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/kylesnowschwartz/roya-history/history"
)

// formatImageCount renders "1 image", "3 images".
func formatImageCount(n int) string {
	if n == 1 {
		return "1 image"
	}
	return fmt.Sprintf("%d images", n)
}

// imageName returns the last path segment of an image URL for compact
// display: "https://cdn/x/image-ab12.jpg?t=1" -> "image-ab12.jpg".
// Falls back to the raw string when it doesn't parse or has no path.
func imageName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return raw
	}
	return path.Base(u.Path)
}

// relativeTime formats t relative to now: "just now", "5m ago", "3h ago",
// "2d ago". Zero time renders as "never".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// monthHeader renders a picker group header: "September 2025".
func monthHeader(k history.DayKey) string {
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// phaseLabel is the short status-bar label for a store phase.
func phaseLabel(p history.Phase, hasErr bool) string {
	switch {
	case p == history.PhaseFetching:
		return IconFetching + " fetching"
	case hasErr:
		return IconErr + " stale"
	case p == history.PhaseAssembled:
		return IconOK + " synced"
	default:
		return IconDot + " idle"
	}
}

// truncate cuts s to maxLen runes, ending with an ellipsis when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 {
		return ""
	}
	if len(r) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return GlyphEllipsis
	}
	return string(r[:maxLen-1]) + GlyphEllipsis
}
