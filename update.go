package main

import tea "github.com/charmbracelet/bubbletea"

// updateList handles key events in the history list view.
func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleEntries()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "escape":
		if m.filter != nil {
			m.clearFilter()
		}
	case "j", "down":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
		m.ensureCursorVisible()
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()
	case "G":
		if len(visible) > 0 {
			m.cursor = len(visible) - 1
			m.ensureCursorVisible()
		}
	case "g":
		m.cursor = 0
		m.scroll = 0
	case "enter":
		if len(visible) > 0 {
			m.view = viewDetail
			m.detailScroll = 0
			m.computeDetailMaxScroll()
		}
	case "r":
		cmd := m.startRefresh()
		return m, cmd
	case "f":
		m.openPicker()
	case "a":
		m.clearFilter()
	case "J", "ctrl+d":
		// Scroll viewport down (half page)
		m.scroll += m.height / 2
		m.clampListScroll()
	case "K", "ctrl+u":
		// Scroll viewport up (half page)
		m.scroll -= m.height / 2
		if m.scroll < 0 {
			m.scroll = 0
		}
	}
	return m, nil
}

// clearFilter shows every day again, keeping the cursor on the entry it was on.
func (m *model) clearFilter() {
	if m.filter == nil {
		return
	}
	day := *m.filter
	m.filter = nil
	m.cursor = 0
	for i, e := range m.entries {
		if !e.Undated && e.Day == day {
			m.cursor = i
			break
		}
	}
	m.computeLineOffsets()
	m.ensureCursorVisible()
}

// updateDetail handles key events in the full-screen day view.
func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "escape", "backspace", "enter":
		m.view = viewList
		m.detailScroll = 0
	case "j", "down":
		m.detailScroll++
	case "k", "up":
		m.detailScroll--
	case "J", "ctrl+d":
		m.detailScroll += m.height / 2
	case "K", "ctrl+u":
		m.detailScroll -= m.height / 2
	case "G":
		m.detailScroll = m.detailMaxScroll
	case "g":
		m.detailScroll = 0
	case "r":
		cmd := m.startRefresh()
		return m, cmd
	case "ctrl+c":
		return m, tea.Quit
	}
	// Clamp to valid range after any modification
	if m.detailScroll > m.detailMaxScroll {
		m.detailScroll = m.detailMaxScroll
	}
	if m.detailScroll < 0 {
		m.detailScroll = 0
	}
	return m, nil
}

// updateListMouse handles mouse events in the list view.
func (m model) updateListMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll -= 3
		if m.scroll < 0 {
			m.scroll = 0
		}
	case tea.MouseButtonWheelDown:
		m.scroll += 3
		m.clampListScroll()
	}
	return m, nil
}

// updateDetailMouse handles mouse events in the detail view.
func (m model) updateDetailMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.detailScroll -= 3
		if m.detailScroll < 0 {
			m.detailScroll = 0
		}
	case tea.MouseButtonWheelDown:
		m.detailScroll += 3
		if m.detailScroll > m.detailMaxScroll {
			m.detailScroll = m.detailMaxScroll
		}
	}
	return m, nil
}
