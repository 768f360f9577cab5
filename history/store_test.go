package history_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kylesnowschwartz/roya-history/history"
)

// fetchResult is what a gatedSource call returns once released.
type fetchResult struct {
	records []history.RawPhotoRecord
	err     error
}

// gatedSource hands each FetchAll call to the test, which decides when and
// with what it completes. Calls ignore cancellation so a superseded fetch can
// still "arrive late" with data.
type gatedSource struct {
	calls chan chan fetchResult
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan chan fetchResult)}
}

func (g *gatedSource) FetchAll(ctx context.Context) ([]history.RawPhotoRecord, error) {
	reply := make(chan fetchResult)
	g.calls <- reply
	r := <-reply
	return r.records, r.err
}

// staticSource returns the same result for every call.
type staticSource struct {
	records []history.RawPhotoRecord
	err     error
}

func (s staticSource) FetchAll(context.Context) ([]history.RawPhotoRecord, error) {
	return s.records, s.err
}

type refreshOutcome struct {
	snap history.Snapshot
	err  error
}

func startRefresh(s *history.Store) <-chan refreshOutcome {
	out := make(chan refreshOutcome, 1)
	go func() {
		snap, err := s.Refresh(context.Background())
		out <- refreshOutcome{snap, err}
	}()
	return out
}

func titles(entries []history.Entry) []string {
	var ts []string
	for _, e := range entries {
		ts = append(ts, e.Title)
	}
	return ts
}

func TestStore_InitialSnapshotIsIdle(t *testing.T) {
	s := history.NewStore(staticSource{})
	snap := s.Snapshot()
	assert.Equal(t, history.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Entries)
}

func TestStore_RefreshAssembles(t *testing.T) {
	s := history.NewStore(staticSource{records: []history.RawPhotoRecord{
		{ImageURL: "a.jpg", CapturedAt: "2025-09-12T10:00:00Z"},
		{ImageURL: ""},
		{ImageURL: "c.jpg"},
	}}, history.WithDisplayZone(time.UTC))

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, history.PhaseAssembled, snap.Phase)
	assert.Equal(t, []string{"Sep 12, 2025", "No date"}, titles(snap.Entries))
	assert.Equal(t, 3, snap.Records)
	assert.Equal(t, 1, snap.Skipped)
	assert.False(t, snap.UpdatedAt.IsZero())
	assert.Equal(t, uint64(1), snap.Token)
}

func TestStore_NewestFirst(t *testing.T) {
	records := []history.RawPhotoRecord{
		{ImageURL: "morning.jpg", CapturedAt: "2025-09-12T08:00:00Z"},
		{ImageURL: "evening.jpg", CapturedAt: "2025-09-12T20:00:00Z"},
	}

	s := history.NewStore(staticSource{records: records}, history.WithDisplayZone(time.UTC))
	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"morning.jpg", "evening.jpg"}, snap.Entries[0].Images)

	s = history.NewStore(staticSource{records: records},
		history.WithDisplayZone(time.UTC), history.WithNewestFirst(true))
	snap, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"evening.jpg", "morning.jpg"}, snap.Entries[0].Images)
}

func TestStore_FailureKeepsLastGood(t *testing.T) {
	src := newGatedSource()
	s := history.NewStore(src, history.WithDisplayZone(time.UTC))

	done := startRefresh(s)
	(<-src.calls) <- fetchResult{records: []history.RawPhotoRecord{
		{ImageURL: "a.jpg", CapturedAt: "2025-09-12T10:00:00Z"},
	}}
	first := <-done
	require.NoError(t, first.err)

	boom := &history.FetchError{Op: "fetch", Kind: history.KindBadStatus, StatusCode: 500}
	done = startRefresh(s)
	(<-src.calls) <- fetchResult{err: boom}
	second := <-done

	require.ErrorIs(t, second.err, boom)
	assert.Equal(t, history.PhaseFailed, second.snap.Phase)
	assert.Equal(t, boom, second.snap.Err)
	assert.Equal(t, first.snap.Entries, second.snap.Entries, "entries must stay at last-good")
	assert.Equal(t, first.snap.Token, second.snap.Token)

	// A later success clears the error.
	done = startRefresh(s)
	(<-src.calls) <- fetchResult{records: nil}
	third := <-done
	require.NoError(t, third.err)
	assert.Nil(t, third.snap.Err)
	assert.Equal(t, history.PhaseAssembled, third.snap.Phase)
	assert.Empty(t, third.snap.Entries)
}

func TestStore_SupersededFetchDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	reg := prometheus.NewRegistry()
	m := history.NewMetrics(reg)
	src := newGatedSource()
	s := history.NewStore(src, history.WithDisplayZone(time.UTC), history.WithStoreMetrics(m))

	// Fetch A starts.
	doneA := startRefresh(s)
	replyA := <-src.calls
	assert.Equal(t, history.PhaseFetching, s.Snapshot().Phase)

	// Fetch B starts before A completes.
	doneB := startRefresh(s)
	replyB := <-src.calls

	// B completes first.
	replyB <- fetchResult{records: []history.RawPhotoRecord{
		{ImageURL: "b.jpg", CapturedAt: "2025-09-13T10:00:00Z"},
	}}
	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, []string{"Sep 13, 2025"}, titles(b.snap.Entries))

	// A completes after B with different data; it must be discarded.
	replyA <- fetchResult{records: []history.RawPhotoRecord{
		{ImageURL: "a.jpg", CapturedAt: "2025-09-12T10:00:00Z"},
	}}
	a := <-doneA
	require.ErrorIs(t, a.err, history.ErrSuperseded)

	final := s.Snapshot()
	assert.Equal(t, history.PhaseAssembled, final.Phase)
	assert.Equal(t, []string{"Sep 13, 2025"}, titles(final.Entries))
	assert.Equal(t, []string{"b.jpg"}, final.Entries[0].Images)
	assert.Equal(t, uint64(2), final.Token)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SupersededTotal))
}

func TestStore_SupersededBeforeNewerCompletes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := newGatedSource()
	s := history.NewStore(src, history.WithDisplayZone(time.UTC))

	doneA := startRefresh(s)
	replyA := <-src.calls
	doneB := startRefresh(s)
	replyB := <-src.calls

	// A arrives first but B has already been triggered.
	replyA <- fetchResult{records: []history.RawPhotoRecord{{ImageURL: "a.jpg"}}}
	a := <-doneA
	require.ErrorIs(t, a.err, history.ErrSuperseded)
	assert.Empty(t, s.Snapshot().Entries, "superseded result must not be applied")

	replyB <- fetchResult{err: errors.New("offline")}
	b := <-doneB
	require.Error(t, b.err)
	assert.Equal(t, history.PhaseFailed, s.Snapshot().Phase)
	assert.Empty(t, s.Snapshot().Entries)
}

// ctxSource blocks until its context is cancelled.
type ctxSource struct{ started chan struct{} }

func (c ctxSource) FetchAll(ctx context.Context) ([]history.RawPhotoRecord, error) {
	c.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStore_NewRefreshCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := ctxSource{started: make(chan struct{})}
	s := history.NewStore(src)

	doneA := startRefresh(s)
	<-src.started

	// B supersedes A; A's context is cancelled and its error discarded.
	ctx, cancel := context.WithCancel(context.Background())
	doneB := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx)
		doneB <- err
	}()
	<-src.started

	a := <-doneA
	require.ErrorIs(t, a.err, history.ErrSuperseded)

	cancel()
	require.ErrorIs(t, <-doneB, context.Canceled)
}

func TestStore_SupersededHTTPFetchCountsAsCanceled(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	firstStarted := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/images", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-req.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`[{"img_url": "a.jpg", "created_at": "2025-09-12T10:00:00Z"}]`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	m := history.NewMetrics(prometheus.NewRegistry())
	f := history.NewHTTPFetcher(srv.URL, "/images", history.WithMetrics(m))
	s := history.NewStore(f, history.WithDisplayZone(time.UTC), history.WithStoreMetrics(m))

	doneA := startRefresh(s)
	<-firstStarted

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sep 12, 2025"}, titles(snap.Entries))

	a := <-doneA
	require.ErrorIs(t, a.err, history.ErrSuperseded)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("canceled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SupersededTotal))
}
