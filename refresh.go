package main

import (
	"context"

	"github.com/kylesnowschwartz/roya-history/history"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshResultMsg carries the outcome of one Store.Refresh. Superseded
// results arrive too and are dropped by Update.
type refreshResultMsg struct {
	snap history.Snapshot
	err  error
}

// refreshCmd runs one fetch cycle off the UI goroutine.
func refreshCmd(ctx context.Context, store *history.Store) tea.Cmd {
	return func() tea.Msg {
		snap, err := store.Refresh(ctx)
		return refreshResultMsg{snap: snap, err: err}
	}
}
