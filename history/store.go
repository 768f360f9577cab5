package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSuperseded is returned by Refresh when a newer Refresh was started
// before this one completed. Its result was discarded.
var ErrSuperseded = errors.New("history: fetch superseded by a newer refresh")

// Phase is the state of the most recent fetch cycle.
type Phase int

const (
	PhaseIdle      Phase = iota // nothing fetched yet
	PhaseFetching               // a fetch is in flight
	PhaseAssembled              // last fetch succeeded
	PhaseFailed                 // last fetch failed; entries are last-good
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseAssembled:
		return "assembled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the store. Entries belong to the last
// successful fetch, even when Phase is PhaseFailed.
type Snapshot struct {
	Phase     Phase
	Entries   []Entry
	Err       error     // error of the last failed fetch, nil after success
	Records   int       // records in the last successful response
	Skipped   int       // records dropped from the last successful response
	UpdatedAt time.Time // completion time of the last successful fetch
	Token     uint64    // token of the fetch that produced Entries
}

// Store owns the assembled history shown to the user. Refresh may be called
// from any goroutine; each call supersedes the previous one.
type Store struct {
	source      Source
	loc         *time.Location
	formatter   TitleFormatter
	newestFirst bool
	logger      *zap.Logger
	metrics     *Metrics
	now         func() time.Time

	mu     sync.Mutex
	issued uint64             // last token handed out
	cancel context.CancelFunc // cancels the in-flight fetch
	snap   Snapshot
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithDisplayZone sets the zone day boundaries are computed in.
func WithDisplayZone(loc *time.Location) StoreOption {
	return func(s *Store) { s.loc = loc }
}

// WithFormatter sets the title formatter.
func WithFormatter(f TitleFormatter) StoreOption {
	return func(s *Store) { s.formatter = f }
}

// WithNewestFirst sorts records by capture time before grouping, so images
// within a day appear most recent first.
func WithNewestFirst(on bool) StoreOption {
	return func(s *Store) { s.newestFirst = on }
}

// WithStoreLogger attaches a logger.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithStoreMetrics attaches metric counters.
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns an idle store reading from source.
func NewStore(source Source, opts ...StoreOption) *Store {
	s := &Store{
		source:    source,
		loc:       time.Local,
		formatter: NewLocaleFormatter("en"),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state. Entries must not be modified.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Refresh runs one fetch cycle: fetch, group, assemble, then replace the
// entries atomically. Starting a Refresh cancels any in-flight one; a cycle
// that has been superseded returns ErrSuperseded and leaves the store
// untouched, whatever order the fetches complete in. On failure the previous
// entries stay in place and the error is recorded in the snapshot.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.issued++
	token := s.issued
	s.cancel = cancel
	s.snap.Phase = PhaseFetching
	s.mu.Unlock()

	s.logger.Debug("refresh started", zap.Uint64("token", token))

	records, err := s.source.FetchAll(ctx)

	var h History
	if err == nil {
		if s.newestFirst {
			records = SortRecords(records)
		}
		h = Build(records, s.loc, s.formatter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.issued {
		s.metrics.superseded()
		s.logger.Debug("discarding superseded refresh",
			zap.Uint64("token", token),
			zap.Uint64("latest", s.issued))
		return s.snap, ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.snap.Phase = PhaseFailed
		s.snap.Err = err
		s.logger.Warn("refresh failed", zap.Uint64("token", token), zap.Error(err))
		return s.snap, err
	}

	s.metrics.recordsSkipped("empty_url", h.Skipped)
	s.snap = Snapshot{
		Phase:     PhaseAssembled,
		Entries:   h.Entries,
		Records:   h.Records,
		Skipped:   h.Skipped,
		UpdatedAt: s.now(),
		Token:     token,
	}
	s.logger.Debug("refresh assembled",
		zap.Uint64("token", token),
		zap.Int("entries", len(h.Entries)),
		zap.Int("skipped", h.Skipped))
	return s.snap, nil
}
