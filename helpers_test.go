package main

import (
	"context"
	"sync"
	"time"

	"github.com/kylesnowschwartz/roya-history/history"

	tea "github.com/charmbracelet/bubbletea"
)

// key constructs a tea.KeyMsg from a string like "j", "enter", "ctrl+c".
// Single-character strings are mapped to KeyRunes; named keys get their
// corresponding KeyType constant.
func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "esc", "escape":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// mouseScroll constructs a tea.MouseMsg for wheel events.
func mouseScroll(button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{Button: button}
}

// testRecords covers two months, a multi-image day, and an undated photo.
func testRecords() []history.RawPhotoRecord {
	return []history.RawPhotoRecord{
		{ImageURL: "https://cdn.example/u1/sep13.jpg", CapturedAt: "2025-09-13T09:00:00Z"},
		{ImageURL: "https://cdn.example/u1/sep12-a.jpg", CapturedAt: "2025-09-12T10:00:00Z"},
		{ImageURL: "https://cdn.example/u1/sep12-b.jpg", CapturedAt: "2025-09-12T15:30:00Z"},
		{ImageURL: "https://cdn.example/u1/aug30.jpg", CapturedAt: "2025-08-30 18:00:00"},
		{ImageURL: "https://cdn.example/u1/nodate.jpg"},
	}
}

// testEntries returns Sep 13, Sep 12, Aug 30, No date.
func testEntries() []history.Entry {
	return history.Build(testRecords(), time.UTC, history.NewLocaleFormatter("en")).Entries
}

// testModel returns a model holding testEntries, width=120, height=40, and
// no store. lineOffsets are pre-computed so scroll math is immediately usable.
func testModel() model {
	m := initialModel(context.Background(), nil, true)
	m.entries = testEntries()
	m.phase = history.PhaseAssembled
	m.width = 120
	m.height = 40
	m.now = func() time.Time { return time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC) }
	m.computeLineOffsets()
	return m
}

// fakeSource returns queued results in order, then repeats the last one.
type fakeSource struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
}

type fakeResult struct {
	records []history.RawPhotoRecord
	err     error
}

func (s *fakeSource) FetchAll(ctx context.Context) ([]history.RawPhotoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	if i < 0 {
		return nil, nil
	}
	return s.results[i].records, s.results[i].err
}

// storeModel returns testModel backed by a store over src, in UTC.
func storeModel(src history.Source) model {
	m := testModel()
	m.store = history.NewStore(src, history.WithDisplayZone(time.UTC))
	return m
}
