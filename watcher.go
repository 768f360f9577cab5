package main

import (
	"context"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watcherDebounce is the delay after the last write event before uploading.
// Cameras and sync clients write a JPEG in several chunks; this coalesces
// them into one upload per file.
const watcherDebounce = 500 * time.Millisecond

// uploadBatchMsg carries the outcomes of one debounced upload round.
type uploadBatchMsg struct {
	outcomes []uploadOutcome
}

func (b uploadBatchMsg) succeeded() int {
	n := 0
	for _, o := range b.outcomes {
		if o.err == nil {
			n++
		}
	}
	return n
}

// watcherErrMsg reports errors from the watcher goroutine.
type watcherErrMsg struct {
	err error
}

// dropWatcher watches a directory for new JPEG files and uploads them with
// a fixed stage label. Each finished round is pushed through sub so the TUI
// can re-fetch the history.
//
// All data processing (pending set, uploads) happens on the single run()
// goroutine. Timer callbacks send signals instead of touching data.
type dropWatcher struct {
	dir      string
	stage    string
	comment  string
	uploader imageUploader
	limit    int
	logger   *zap.Logger
	debounce time.Duration

	pending map[string]struct{}
	sub     chan uploadBatchMsg
	errc    chan error
	done    chan struct{}
	signals chan struct{} // debounced upload trigger; capacity 1
	ready   chan struct{} // closed once the directory is being watched

	// Guards the debounce timer so stop() can cancel it safely.
	mu       sync.Mutex
	timer    *time.Timer
	stopOnce sync.Once
}

func newDropWatcher(dir, stage, comment string, up imageUploader, limit int, logger *zap.Logger) *dropWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &dropWatcher{
		dir:      dir,
		stage:    stage,
		comment:  comment,
		uploader: up,
		limit:    limit,
		logger:   logger,
		debounce: watcherDebounce,
		pending:  make(map[string]struct{}),
		sub:      make(chan uploadBatchMsg, 1),
		errc:     make(chan error, 1),
		done:     make(chan struct{}),
		signals:  make(chan struct{}, 1),
		ready:    make(chan struct{}),
	}
}

// stop signals the watcher goroutine to exit and cancels any pending debounce.
func (w *dropWatcher) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

// sendSignal does a non-blocking send on the signals channel.
func (w *dropWatcher) sendSignal() {
	select {
	case w.signals <- struct{}{}:
	default:
	}
}

// sendErr forwards a non-fatal error, dropping it if one is already queued.
func (w *dropWatcher) sendErr(err error) {
	select {
	case w.errc <- err:
	default:
	}
}

// run starts the fsnotify loop. Intended to be called as a goroutine.
//
// Closes sub and errc on exit so blocked waitForUploads/waitForWatcherErr
// Cmds unblock and return nil instead of leaking goroutines.
func (w *dropWatcher) run(ctx context.Context) {
	defer close(w.sub)
	defer close(w.errc)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.errc <- err
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		w.errc <- err
		return
	}
	close(w.ready)
	w.logger.Info("watching drop folder", zap.String("dir", w.dir), zap.String("stage", w.stage))

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return

		case <-w.signals:
			w.uploadPending(ctx)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isJPEGName(event.Name) || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}
			w.pending[event.Name] = struct{}{}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, w.sendSignal)
			w.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal: forward to TUI, don't log to stderr (leaks through alt screen).
			w.logger.Warn("drop folder watch error", zap.Error(err))
			w.sendErr(err)
		}
	}
}

// uploadPending uploads every file queued since the last round.
// Only called from run().
func (w *dropWatcher) uploadPending(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	clear(w.pending)

	outcomes := uploadFiles(ctx, w.uploader, w.stage, w.comment, paths, w.limit)
	for _, o := range outcomes {
		if o.err != nil {
			w.logger.Warn("drop folder upload failed", zap.String("path", o.path), zap.Error(o.err))
		} else {
			w.logger.Info("drop folder upload", zap.String("path", o.path), zap.String("url", o.url))
		}
	}

	select {
	case w.sub <- uploadBatchMsg{outcomes: outcomes}:
	case <-w.done:
	case <-ctx.Done():
	}
}

// waitForUploads blocks on the subscription channel. Returns nil when the
// channel is closed (watcher stopped), unblocking the goroutine.
func waitForUploads(sub chan uploadBatchMsg) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-sub
		if !ok {
			return nil
		}
		return b
	}
}

// waitForWatcherErr blocks on the error channel. Returns nil when the
// channel is closed (watcher stopped), unblocking the goroutine.
func waitForWatcherErr(errc chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-errc
		if !ok {
			return nil
		}
		return watcherErrMsg{err: err}
	}
}
