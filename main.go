package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kylesnowschwartz/roya-history/history"

	tea "github.com/charmbracelet/bubbletea"
)

// View states
type viewState int

const (
	viewList   viewState = iota // history list (main view)
	viewDetail                  // full-screen single day
	viewPicker                  // day filter picker
)

type model struct {
	entries []history.Entry // every entry of the last good fetch
	filter  *history.DayKey // nil shows all days

	cursor      int // selected index into visibleEntries()
	width       int
	height      int
	scroll      int
	lineOffsets []int // starting line of each visible entry in rendered output
	entryLines  []int // number of rendered lines per visible entry

	totalRenderedLines int // total lines in list view, updated by computeLineOffsets

	// Detail view state
	view            viewState
	detailScroll    int
	detailMaxScroll int // cached, updated on enter/resize

	// Markdown rendering
	md *mdRenderer

	// Sync state mirrored from the store
	ctx       context.Context
	store     *history.Store
	phase     history.Phase
	lastErr   error // last failed fetch; entries are still the last good ones
	updatedAt time.Time
	records   int
	skipped   int
	now       func() time.Time

	// Drop-folder state
	watching     bool
	uploadSub    chan uploadBatchMsg
	watchErrc    chan error
	watchErr     error
	uploaded     int
	uploadFailed int

	// Day picker state
	pickerItems  []pickerItem
	pickerCursor int
	pickerScroll int
}

func initialModel(ctx context.Context, store *history.Store, hasDarkBg bool) model {
	if ctx == nil {
		ctx = context.Background()
	}
	return model{
		ctx:   ctx,
		store: store,
		md:    newMDRenderer(hasDarkBg),
		now:   time.Now,
	}
}

// visibleEntries returns the entries shown in the list, honoring the day filter.
func (m model) visibleEntries() []history.Entry {
	if m.filter == nil {
		return m.entries
	}
	return history.FilterDay(m.entries, *m.filter)
}

// currentEntry returns the entry under the cursor, or false when the list is empty.
func (m model) currentEntry() (history.Entry, bool) {
	visible := m.visibleEntries()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return history.Entry{}, false
	}
	return visible[m.cursor], true
}

// startRefresh marks the model as fetching and returns the command that runs
// one store refresh. Nil when the model has no store (dump and tests).
func (m *model) startRefresh() tea.Cmd {
	if m.store == nil {
		return nil
	}
	m.phase = history.PhaseFetching
	return refreshCmd(m.ctx, m.store)
}

// applySnapshot copies a store snapshot into the model. A failed snapshot
// carries the last good entries, so the list never blanks out on error.
func (m *model) applySnapshot(s history.Snapshot) {
	m.entries = s.Entries
	m.phase = s.Phase
	m.lastErr = s.Err
	m.updatedAt = s.UpdatedAt
	m.records = s.Records
	m.skipped = s.Skipped

	if n := len(m.visibleEntries()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.computeLineOffsets()
	m.clampListScroll()
	if m.view == viewDetail {
		if _, ok := m.currentEntry(); !ok {
			m.view = viewList
		}
		m.computeDetailMaxScroll()
	}
	if m.view == viewPicker {
		m.rebuildPicker()
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startRefresh()}
	if m.watching {
		cmds = append(cmds,
			waitForUploads(m.uploadSub),
			waitForWatcherErr(m.watchErrc),
		)
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLineOffsets()
		m.ensureCursorVisible()
		if m.view == viewDetail {
			m.computeDetailMaxScroll()
		}
		return m, nil

	case refreshResultMsg:
		if errors.Is(msg.err, history.ErrSuperseded) {
			// A newer refresh is in flight and will report its own result.
			return m, nil
		}
		m.applySnapshot(msg.snap)
		return m, nil

	case uploadBatchMsg:
		for _, o := range msg.outcomes {
			if o.err != nil {
				m.uploadFailed++
			} else {
				m.uploaded++
			}
		}
		cmds := []tea.Cmd{waitForUploads(m.uploadSub)}
		if msg.succeeded() > 0 {
			cmds = append(cmds, m.startRefresh())
		}
		return m, tea.Batch(cmds...)

	case watcherErrMsg:
		// Transient watcher errors: show and keep going.
		m.watchErr = msg.err
		return m, waitForWatcherErr(m.watchErrc)

	case tea.KeyMsg:
		switch m.view {
		case viewDetail:
			return m.updateDetail(msg)
		case viewPicker:
			return m.updatePicker(msg)
		default:
			return m.updateList(msg)
		}

	case tea.MouseMsg:
		if m.view == viewDetail {
			return m.updateDetailMouse(msg)
		}
		return m.updateListMouse(msg)
	}

	return m, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
