package main

import (
	"strings"

	"github.com/kylesnowschwartz/roya-history/history"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Flattened virtual list ---

// pickerItemType discriminates between day rows and month headers.
type pickerItemType int

const (
	pickerItemDay pickerItemType = iota
	pickerItemHeader
)

// pickerItem is an entry in the flattened picker list.
type pickerItem struct {
	typ    pickerItemType
	day    history.DayKey
	title  string // entry title for day rows, month name for headers
	images int
}

// buildPickerItems flattens dated entries into month headers + day rows.
// Entries arrive most recent first, so months come out in the same order.
// The undated entry has no day to filter on and is left out.
func buildPickerItems(entries []history.Entry) []pickerItem {
	var items []pickerItem
	var month history.DayKey
	for _, e := range entries {
		if e.Undated {
			continue
		}
		if len(items) == 0 || e.Day.Year != month.Year || e.Day.Month != month.Month {
			month = e.Day
			items = append(items, pickerItem{
				typ:   pickerItemHeader,
				day:   e.Day,
				title: monthHeader(e.Day),
			})
		}
		items = append(items, pickerItem{
			typ:    pickerItemDay,
			day:    e.Day,
			title:  e.Title,
			images: len(e.Images),
		})
	}
	return items
}

// rebuildPicker refreshes the picker items from the current entries,
// keeping the cursor on the same day when it still exists.
func (m *model) rebuildPicker() {
	var keep *history.DayKey
	if it := m.pickerSelected(); it != nil {
		d := it.day
		keep = &d
	}
	m.pickerItems = buildPickerItems(m.entries)
	m.pickerCursor = -1
	if keep != nil {
		m.pickerSelectDay(*keep)
	}
	if m.pickerCursor < 0 {
		m.pickerCursorFirst()
	}
	if m.pickerCursor < 0 {
		// No dated entries left.
		m.view = viewList
		return
	}
	m.ensurePickerVisible()
}

// openPicker switches to the day picker. No-op when there are no dated entries.
func (m *model) openPicker() {
	m.pickerItems = buildPickerItems(m.entries)
	m.pickerCursor = -1
	m.pickerScroll = 0
	if m.filter != nil {
		m.pickerSelectDay(*m.filter)
	} else if e, ok := m.currentEntry(); ok && !e.Undated {
		m.pickerSelectDay(e.Day)
	}
	if m.pickerCursor < 0 {
		m.pickerCursorFirst()
	}
	if m.pickerCursor < 0 {
		return
	}
	m.view = viewPicker
	m.ensurePickerVisible()
}

// --- Picker update ---

// updatePicker handles key events in the day picker view.
func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "escape", "backspace":
		m.view = viewList
	case "j", "down":
		m.pickerCursorDown()
		m.ensurePickerVisible()
	case "k", "up":
		m.pickerCursorUp()
		m.ensurePickerVisible()
	case "G":
		m.pickerCursorLast()
		m.ensurePickerVisible()
	case "g":
		m.pickerCursorFirst()
		m.pickerScroll = 0
	case "a":
		m.view = viewList
		m.clearFilter()
	case "enter":
		if it := m.pickerSelected(); it != nil {
			day := it.day
			m.filter = &day
			m.view = viewList
			m.cursor = 0
			m.scroll = 0
			m.computeLineOffsets()
		}
	}
	return m, nil
}

// pickerSelected returns the day row at the cursor, or nil.
func (m model) pickerSelected() *pickerItem {
	if m.pickerCursor < 0 || m.pickerCursor >= len(m.pickerItems) {
		return nil
	}
	it := &m.pickerItems[m.pickerCursor]
	if it.typ != pickerItemDay {
		return nil
	}
	return it
}

// pickerSelectDay moves the cursor to day's row when present.
func (m *model) pickerSelectDay(day history.DayKey) {
	for i, it := range m.pickerItems {
		if it.typ == pickerItemDay && it.day == day {
			m.pickerCursor = i
			return
		}
	}
}

// pickerCursorDown moves cursor to next day row (skipping headers).
func (m *model) pickerCursorDown() {
	for i := m.pickerCursor + 1; i < len(m.pickerItems); i++ {
		if m.pickerItems[i].typ == pickerItemDay {
			m.pickerCursor = i
			return
		}
	}
}

// pickerCursorUp moves cursor to previous day row (skipping headers).
func (m *model) pickerCursorUp() {
	for i := m.pickerCursor - 1; i >= 0; i-- {
		if m.pickerItems[i].typ == pickerItemDay {
			m.pickerCursor = i
			return
		}
	}
}

// pickerCursorLast moves cursor to the last day row.
func (m *model) pickerCursorLast() {
	for i := len(m.pickerItems) - 1; i >= 0; i-- {
		if m.pickerItems[i].typ == pickerItemDay {
			m.pickerCursor = i
			return
		}
	}
}

// pickerCursorFirst moves cursor to the first day row.
func (m *model) pickerCursorFirst() {
	for i, it := range m.pickerItems {
		if it.typ == pickerItemDay {
			m.pickerCursor = i
			return
		}
	}
}

// pickerItemHeight returns the display height for a picker item.
// Day rows: 1 line. Headers: 1 line (first) or 2 (blank + text).
func (m model) pickerItemHeight(index int) int {
	if m.pickerItems[index].typ == pickerItemHeader && index > 0 {
		return 2
	}
	return 1
}

// pickerViewHeight is the list area below the picker title.
func (m model) pickerViewHeight() int {
	h := m.listViewHeight() - 2 // title + blank
	if h < 1 {
		h = 1
	}
	return h
}

// ensurePickerVisible adjusts pickerScroll so the cursor is visible.
// When the cursor's row is the first of its month, the header stays in view too.
func (m *model) ensurePickerVisible() {
	if m.pickerCursor < 0 || m.pickerCursor >= len(m.pickerItems) {
		return
	}
	start := 0
	for i := 0; i < m.pickerCursor; i++ {
		start += m.pickerItemHeight(i)
	}
	top := start
	if m.pickerCursor > 0 && m.pickerItems[m.pickerCursor-1].typ == pickerItemHeader {
		top = start - 1 // header text line
	}
	viewHeight := m.pickerViewHeight()
	if top < m.pickerScroll {
		m.pickerScroll = top
	}
	if start >= m.pickerScroll+viewHeight {
		m.pickerScroll = start - viewHeight + 1
	}
	if m.pickerScroll < 0 {
		m.pickerScroll = 0
	}
}

// --- Picker rendering ---

// viewPicker renders the day filter picker.
func (m model) viewPicker() string {
	width := m.clampWidth()

	title := StylePrimaryBold.Render("Filter by day")
	lines := []string{" " + title, ""}

	var body []string
	for i, it := range m.pickerItems {
		switch it.typ {
		case pickerItemHeader:
			if i > 0 {
				body = append(body, "")
			}
			body = append(body, m.renderPickerHeader(it, width))
		case pickerItemDay:
			body = append(body, m.renderPickerDay(it, i == m.pickerCursor, width))
		}
	}
	viewHeight := m.pickerViewHeight()
	lines = append(lines, window(body, m.pickerScroll, viewHeight)...)

	return m.frame(lines, viewHeight+2, "j/k", "move", "enter", "show day", "a", "all days", "esc", "back")
}

// renderPickerHeader renders a month header with underline rule.
func (m model) renderPickerHeader(it pickerItem, width int) string {
	label := StyleSecondaryBold.Render(it.title)
	ruleWidth := width - lipgloss.Width(label) - 3
	if ruleWidth < 0 {
		ruleWidth = 0
	}
	return " " + label + " " + StyleMuted.Render(strings.Repeat("─", ruleWidth))
}

// renderPickerDay renders one day row. Selected rows get a background band;
// the day currently filtered on is marked.
func (m model) renderPickerDay(it pickerItem, isSelected bool, width int) string {
	cursor := "  "
	if isSelected {
		cursor = StyleAccentBold.Render(IconCursor) + " "
	}
	name := StylePrimaryBold.Render(it.title)
	if m.filter != nil && *m.filter == it.day {
		name += " " + StyleAccentBold.Render(IconFilter)
	}
	count := lipgloss.NewStyle().Foreground(ColorPickerMeta).Render(formatImageCount(it.images))
	row := spaceBetween(" "+cursor+name, count+" ", width)
	if isSelected {
		return lipgloss.NewStyle().Background(ColorPickerSelectedBg).Width(width).Render(row)
	}
	return row
}
