package main

import "strings"

// clampWidth returns m.width capped at maxContentWidth.
func (m model) clampWidth() int {
	if m.width > maxContentWidth {
		return maxContentWidth
	}
	return m.width
}

// listViewHeight is the number of content lines above the banner and status bar.
func (m model) listViewHeight() int {
	h := m.height - statusBarHeight - m.bannerHeight()
	if h < 1 {
		h = 1
	}
	return h
}

// detailViewHeight matches listViewHeight; the detail view shares the frame.
func (m model) detailViewHeight() int {
	return m.listViewHeight()
}

// computeLineOffsets calculates the starting line of each visible entry in
// the rendered output. Must mirror renderListBody to keep scroll accurate.
func (m *model) computeLineOffsets() {
	visible := m.visibleEntries()
	if m.width == 0 || len(visible) == 0 {
		m.lineOffsets = nil
		m.entryLines = nil
		m.totalRenderedLines = 0
		return
	}
	width := m.clampWidth()

	m.lineOffsets = make([]int, len(visible))
	m.entryLines = make([]int, len(visible))
	currentLine := 0
	for i, e := range visible {
		m.lineOffsets[i] = currentLine
		r := renderEntry(e, width, false)
		m.entryLines[i] = r.lines
		currentLine += r.lines
		if i < len(visible)-1 {
			currentLine++ // blank line from "\n\n" join separator
		}
	}

	last := len(visible) - 1
	m.totalRenderedLines = m.lineOffsets[last] + m.entryLines[last]
}

// ensureCursorVisible adjusts scroll so the cursor's entry is within the
// visible viewport.
func (m *model) ensureCursorVisible() {
	if len(m.lineOffsets) == 0 || m.height == 0 || m.cursor >= len(m.lineOffsets) {
		return
	}
	viewHeight := m.listViewHeight()

	cursorStart := m.lineOffsets[m.cursor]
	cursorEnd := cursorStart + m.entryLines[m.cursor] - 1

	if cursorStart < m.scroll {
		m.scroll = cursorStart
	}
	if cursorEnd >= m.scroll+viewHeight {
		m.scroll = cursorEnd - viewHeight + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// clampListScroll caps the list scroll offset so it can't exceed the content.
func (m *model) clampListScroll() {
	maxScroll := m.totalRenderedLines - m.listViewHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// computeDetailMaxScroll caches the maximum scroll offset for the detail view.
// Called when entering detail view, on resize, and when a refresh lands.
func (m *model) computeDetailMaxScroll() {
	e, ok := m.currentEntry()
	if !ok || m.width == 0 || m.height == 0 {
		m.detailMaxScroll = 0
		return
	}

	r := m.renderDetailContent(e, m.clampWidth())
	// Trim trailing newlines that glamour may add (phantom blank lines).
	trimmed := strings.TrimRight(r.content, "\n")
	totalLines := strings.Count(trimmed, "\n") + 1

	m.detailMaxScroll = totalLines - m.detailViewHeight()
	if m.detailMaxScroll < 0 {
		m.detailMaxScroll = 0
	}
	if m.detailScroll > m.detailMaxScroll {
		m.detailScroll = m.detailMaxScroll
	}
}
