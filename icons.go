package main

// Icons used throughout the TUI.
// Standard Unicode symbols for maximum terminal compatibility.
const (
	IconDay       = "◆" // dated history entry
	IconUndated   = "○" // undated bucket
	IconImage     = "▪" // image row in the detail view
	IconCursor    = "▸" // picker cursor
	IconSelected  = "│" // selected entry sidebar
	IconDot       = "·" // separator dot
	IconOK        = "●" // fetch/upload status ok
	IconErr       = "✕" // fetch/upload failed
	IconFetching  = "◌" // fetch in flight
	IconFilter    = "⌕" // day filter active
	GlyphEllipsis = "…"
)
