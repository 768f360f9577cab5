package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrorKind classifies request failures against the backend.
type ErrorKind int

const (
	KindNetwork   ErrorKind = iota // no response received
	KindBadStatus                  // response status other than 200
	KindDecode                     // body did not match the expected schema
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBadStatus:
		return "bad_status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is returned by every backend call in this package.
type FetchError struct {
	Op         string // "fetch" or "upload"
	Kind       ErrorKind
	StatusCode int // set for KindBadStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindBadStatus:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
		}
		return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// Source lists the current user's photo records.
type Source interface {
	FetchAll(ctx context.Context) ([]RawPhotoRecord, error)
}

// maxBodyBytes caps the listing body read into memory.
const maxBodyBytes = 32 << 20

// HTTPFetcher reads the photo listing endpoint. It performs exactly one GET
// per call and never retries.
type HTTPFetcher struct {
	url string
	clientOptions
}

// clientOptions is shared by HTTPFetcher and Uploader.
type clientOptions struct {
	token   string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

// Option customizes an HTTPFetcher or Uploader.
type Option func(*clientOptions)

// WithToken sets the opaque credential forwarded to the backend.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.client = c }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics attaches metric counters.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

func newClientOptions(opts []Option) clientOptions {
	o := clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// do sends req, applying the per-request timeout when one is configured.
func (o *clientOptions) do(req *http.Request) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if o.timeout > 0 {
		var ctx context.Context
		ctx, cancel = context.WithTimeout(req.Context(), o.timeout)
		req = req.WithContext(ctx)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

// NewHTTPFetcher returns a fetcher for baseURL+path.
func NewHTTPFetcher(baseURL, path string, opts ...Option) *HTTPFetcher {
	return &HTTPFetcher{
		url:           joinURL(baseURL, path),
		clientOptions: newClientOptions(opts),
	}
}

// FetchAll performs the listing request and decodes it. Malformed items are
// logged and counted, not returned as errors.
func (f *HTTPFetcher) FetchAll(ctx context.Context) ([]RawPhotoRecord, error) {
	records, err := f.fetch(ctx)
	if err != nil {
		if result := resultLabel(err); result != "" {
			f.metrics.fetchResult(result)
		}
		return nil, err
	}
	f.metrics.fetchResult("ok")
	return records, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) ([]RawPhotoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{Op: "fetch", Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	setAuth(req, f.token)

	f.logger.Debug("fetching photo history", zap.String("url", f.url))

	resp, cancel, err := f.do(req)
	if err != nil {
		return nil, &FetchError{Op: "fetch", Kind: KindNetwork, Err: err}
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Op: "fetch", Kind: KindBadStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Op: "fetch", Kind: KindNetwork, Err: err}
	}

	records, skips, err := DecodeRecords(body)
	if err != nil {
		return nil, &FetchError{Op: "fetch", Kind: KindDecode, Err: err}
	}
	for _, s := range skips {
		f.logger.Warn("skipping malformed photo record",
			zap.Int("index", s.Index),
			zap.String("reason", s.Reason))
	}
	f.metrics.recordsSkipped("malformed", len(skips))

	f.logger.Debug("fetched photo history",
		zap.Int("records", len(records)),
		zap.Int("skipped", len(skips)))
	return records, nil
}

// resultLabel names the metrics outcome of a failed request. A request the
// caller cancelled, such as a superseded refresh, is not a network failure.
func resultLabel(err error) string {
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return ""
}

// setAuth forwards the credential the way the Supabase-fronted backend expects.
func setAuth(req *http.Request, token string) {
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", token)
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
