package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kylesnowschwartz/roya-history/config"
	"github.com/kylesnowschwartz/roya-history/history"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// flags holds command-line values. Persistent flags override the config file
// and environment only when set.
type flags struct {
	configPath  string
	apiURL      string
	token       string
	zone        string
	locale      string
	newestFirst bool
	verbose     bool
	metricsAddr string

	// root (TUI)
	watchDir string
	stage    string
	comment  string

	// dump
	asJSON bool
	width  int

	// upload
	concurrency int

	// init
	force bool
}

// app is everything a command needs, built once in PersistentPreRunE.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *history.Metrics
	store    *history.Store
	uploader *history.Uploader
	server   *http.Server
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	a := &app{}

	root := &cobra.Command{
		Use:   "roya",
		Short: "Browse your coffee leaf photo history",
		Long: `roya shows the photos you have submitted for coffee leaf rust analysis,
grouped by the day they were taken, most recent day first.

Run without a subcommand to open the interactive history. With --watch, JPEGs
dropped into a folder are uploaded and the history refreshes on its own.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal; its logs go to a file.
			tui := cmd.Parent() == nil
			return a.init(cmd, f, tui)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", config.DefaultPath(), "config file")
	pf.StringVar(&f.apiURL, "api-url", "", "backend base URL (overrides api.base_url)")
	pf.StringVar(&f.token, "token", "", "backend credential (overrides api.token)")
	pf.StringVar(&f.zone, "zone", "", "IANA zone used for day boundaries (overrides display.zone)")
	pf.StringVar(&f.locale, "locale", "", "title locale, e.g. es-MX (overrides display.locale)")
	pf.BoolVar(&f.newestFirst, "newest-first", false, "order images within a day newest first")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")

	root.Flags().StringVar(&f.watchDir, "watch", "", "upload JPEGs dropped into this directory")
	root.Flags().StringVar(&f.stage, "stage", "", "stage label for watched uploads (overrides upload.stage)")
	root.Flags().StringVar(&f.comment, "comment", "", "comment attached to watched uploads")

	root.AddCommand(newDumpCmd(f, a), newUploadCmd(f, a), newInitCmd(f, a))
	return root
}

func newDumpCmd(f *flags, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Fetch the history once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().BoolVar(&f.asJSON, "json", false, `print [{"title", "images"}] JSON`)
	cmd.Flags().IntVar(&f.width, "width", maxContentWidth, "render width for text output")
	return cmd
}

func newUploadCmd(f *flags, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload JPEG photos, then print the refreshed history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpload(cmd.Context(), cmd.OutOrStdout(), f, args)
		},
	}
	cmd.Flags().StringVar(&f.stage, "stage", "", "stage label, e.g. cosecha (required unless upload.stage is set)")
	cmd.Flags().StringVar(&f.comment, "comment", "", "optional comment")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel uploads (overrides upload.concurrency)")
	return cmd
}

func newInitCmd(f *flags, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `init writes the defaults, merged with any environment and flag overrides,
to the --config path so they can be edited. An existing file is kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite an existing config file")
	return cmd
}

// init loads configuration, applies flag overrides, and wires the logger,
// metrics, and history clients.
func (a *app) init(cmd *cobra.Command, f *flags, tui bool) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	fl := cmd.Flags()
	if fl.Changed("api-url") {
		cfg.API.BaseURL = f.apiURL
	}
	if fl.Changed("token") {
		cfg.API.Token = f.token
	}
	if fl.Changed("zone") {
		cfg.Display.Zone = f.zone
	}
	if fl.Changed("locale") {
		cfg.Display.Locale = f.locale
	}
	if fl.Changed("newest-first") {
		cfg.Display.NewestFirst = f.newestFirst
	}
	if fl.Changed("stage") {
		cfg.Upload.Stage = f.stage
	}
	if fl.Changed("watch") {
		cfg.Upload.WatchDir = f.watchDir
	}
	if fl.Changed("concurrency") {
		cfg.Upload.Concurrency = f.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Logging, f.verbose, tui)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = history.NewMetrics(a.registry)
	if f.metricsAddr != "" {
		a.serveMetrics(f.metricsAddr)
	}

	timeout, _ := cfg.FetchTimeout() // validated above
	loc, _ := cfg.Location()
	formatter := history.NewLocaleFormatter(cfg.Display.Locale)

	opts := []history.Option{
		history.WithToken(cfg.API.Token),
		history.WithTimeout(timeout),
		history.WithLogger(a.logger),
		history.WithMetrics(a.metrics),
	}
	fetcher := history.NewHTTPFetcher(cfg.API.BaseURL, cfg.API.PhotosPath, opts...)
	a.uploader = history.NewUploader(cfg.API.BaseURL, cfg.API.UploadPath, opts...)
	a.store = history.NewStore(fetcher,
		history.WithDisplayZone(loc),
		history.WithFormatter(formatter),
		history.WithNewestFirst(cfg.Display.NewestFirst),
		history.WithStoreLogger(a.logger),
		history.WithStoreMetrics(a.metrics),
	)

	a.logger.Debug("configured",
		zap.String("base_url", cfg.API.BaseURL),
		zap.String("zone", loc.String()),
		zap.String("locale", formatter.Tag().String()),
		zap.Duration("fetch_timeout", timeout))
	return nil
}

// newLogger builds a production zap logger. The TUI logs to the configured
// file; other commands log to stderr.
func newLogger(lc config.LoggingConfig, verbose, tui bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Level != "" {
		lvl, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if tui {
		if lc.File == "" {
			return zap.NewNop(), nil
		}
		zc.OutputPaths = []string{lc.File}
		zc.ErrorOutputPaths = []string{lc.File}
	}
	return zc.Build()
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// runTUI opens the interactive history, with the drop-folder watcher when
// a watch directory is configured.
func (a *app) runTUI(ctx context.Context, f *flags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(ctx, a.store, termenv.HasDarkBackground())

	if dir := a.cfg.Upload.WatchDir; dir != "" {
		if a.cfg.Upload.Stage == "" {
			return fmt.Errorf("--watch needs a stage label: %w", history.ErrMissingStage)
		}
		comment := f.comment
		w := newDropWatcher(dir, a.cfg.Upload.Stage, comment, a.uploader, a.cfg.Upload.Concurrency, a.logger)
		go w.run(ctx)
		defer w.stop()
		m.watching = true
		m.uploadSub = w.sub
		m.watchErrc = w.errc
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// signalContext cancels on SIGINT/SIGTERM for the non-interactive commands.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runInit saves the effective configuration.
func (a *app) runInit(out io.Writer, f *flags) error {
	if _, err := os.Stat(f.configPath); err == nil && !f.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", f.configPath)
	}
	if err := a.cfg.Save(f.configPath); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "wrote %s\n", f.configPath)
	return err
}

// runDump fetches once and prints the history as cards or JSON.
func (a *app) runDump(ctx context.Context, out io.Writer, f *flags) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	snap, err := a.store.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	return writeHistory(out, snap, f.asJSON, f.width)
}

// writeHistory prints a snapshot. JSON output is highlighted only when out
// is a terminal.
func writeHistory(out io.Writer, snap history.Snapshot, asJSON bool, width int) error {
	if asJSON {
		entries := snap.Entries
		if entries == nil {
			entries = []history.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		if isTerminal(out) {
			if s, ok := newJSONHL(termenv.HasDarkBackground(), out).highlight(data); ok {
				_, err = fmt.Fprintln(out, s)
				return err
			}
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if width <= 0 {
		width = maxContentWidth
	}
	m := initialModel(context.Background(), nil, true)
	m.applySnapshot(snap)
	m.width = width
	m.height = 1_000_000
	m.cursor = -1 // nothing selected in a dump
	if _, err := fmt.Fprintln(out, m.renderListBody(width)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%s from %d records", formatEntryCount(len(snap.Entries)), snap.Records)
	if err == nil && snap.Skipped > 0 {
		_, err = fmt.Fprintf(out, ", %d skipped", snap.Skipped)
	}
	if err == nil {
		_, err = fmt.Fprintln(out)
	}
	return err
}

func formatEntryCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runUpload uploads files concurrently, reports each outcome, then
// re-fetches so the printed history includes the new photos.
func (a *app) runUpload(ctx context.Context, out io.Writer, f *flags, paths []string) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	if a.cfg.Upload.Stage == "" {
		return history.ErrMissingStage
	}

	outcomes := uploadFiles(ctx, a.uploader, a.cfg.Upload.Stage, f.comment, paths, a.cfg.Upload.Concurrency)
	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", IconErr, o.path, o.err)
			continue
		}
		fmt.Fprintf(out, "%s %s -> %s\n", IconOK, o.path, o.url)
	}

	if failed < len(outcomes) {
		snap, err := a.store.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refreshing history after upload: %w", err)
		}
		fmt.Fprintln(out)
		if err := writeHistory(out, snap, false, maxContentWidth); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(outcomes))
	}
	return nil
}
