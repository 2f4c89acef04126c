// Package engine orchestrates a discovery run end to end: query the
// search collaborator (or walk a local tree), dispatch evidence through
// the detector registry, synthesize AsyncAPI documents, and persist the
// catalog. In serve mode it additionally owns the catalog bus, the
// evidence archiver, a periodic re-discovery loop, and SIGHUP config
// reload.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/catalog"
	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors/aws"
	"github.com/eventscout-project/eventscout/internal/detectors/generic"
	"github.com/eventscout-project/eventscout/internal/detectors/ibmmq"
	"github.com/eventscout-project/eventscout/internal/detectors/kafka"
	"github.com/eventscout-project/eventscout/internal/detectors/rabbitmq"
	"github.com/eventscout-project/eventscout/internal/scan"
	"github.com/eventscout-project/eventscout/internal/search"
)

const (
	pingTimeout   = 10 * time.Second
	recentRecords = 1024
)

// Options carries per-run overrides on top of the loaded configuration.
type Options struct {
	Repositories []string // discovery repository filters
	Languages    []string
	Repository   string // local-scan repository identifier
	Workers      int
	DiscoverOnly bool // extract and report, write nothing
	Incremental  bool // merge into the existing catalog instead of replacing
}

// RunOutcome is everything one run produced: the report plus the merged
// records and synthesized documents, so callers can render them without
// re-reading the store.
type RunOutcome struct {
	Report    *catalog.RunReport
	Records   []core.EventRecord
	Documents []*catalog.SpecificationDocument
}

// Engine wires the discovery pipeline together and owns serve-mode
// lifecycle. One-shot CLI runs construct an Engine, call RunDiscovery or
// RunLocalScan once, and exit; serve mode calls Run.
type Engine struct {
	Config     *core.Config
	Registry   *core.Registry
	Index      *catalog.Index
	Store      *catalog.Store
	Bus        *CatalogBus // nil outside serve mode
	Archiver   *Archiver   // nil unless archive.enabled
	Metrics    *Metrics
	Logger     zerolog.Logger
	ConfigPath string // source of SIGHUP reloads; empty disables them

	searcher   search.Searcher
	fetcher    catalog.ContentFetcher
	mode       string
	cache      *RecordCache
	recent     *RecordRing
	baseLogger zerolog.Logger // un-tagged root, for rebuilding component loggers

	cfgMu      sync.RWMutex // guards hot-reloaded Config fields
	runMu      sync.Mutex   // one run at a time; reload swaps the registry under it
	reportMu   sync.RWMutex
	lastReport *catalog.RunReport

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewEngine creates an engine from a validated configuration. The search
// collaborator client doubles as the enrichment content fetcher.
func NewEngine(cfg *core.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := NewLogger(cfg.Logging)
	client := search.NewClient(cfg.Search, logger)
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		Config:     cfg,
		Registry:   buildRegistry(cfg, logger),
		Index:      catalog.NewIndex(logger),
		Store:      catalog.NewStore(cfg.Catalog, logger),
		Metrics:    NewMetrics(nil),
		Logger:     logger.With().Str("component", "engine").Logger(),
		searcher:   client,
		fetcher:    client,
		mode:       catalog.ModeRemote,
		cache:      NewRecordCache(0, 0),
		recent:     NewRecordRing(recentRecords),
		baseLogger: logger,
		startedAt:  time.Now().UTC(),
		ctx:        ctx,
		cancel:     cancel,
	}
	if err := e.Metrics.Register(); err != nil {
		cancel()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return e, nil
}

// NewLogger builds the process logger from the logging config. The level
// is applied globally so hot reloads can change it without rebuilding
// component loggers.
func NewLogger(cfg core.LoggingConfig) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ComponentLogger derives a logger tagged for the named component from
// the engine's untagged root, so collaborators like the API server get
// their own component field.
func (e *Engine) ComponentLogger(name string) zerolog.Logger {
	return e.baseLogger.With().Str("component", name).Logger()
}

// buildRegistry registers every detector family the config enables.
func buildRegistry(cfg *core.Config, logger zerolog.Logger) *core.Registry {
	reg := core.NewRegistry(core.NewServiceNamer(cfg.Naming), cfg.Discovery.Workers, logger)
	families := []core.Detector{
		kafka.New(),
		rabbitmq.New(),
		aws.NewSNS(),
		aws.NewSQS(),
		aws.NewEventBridge(),
		ibmmq.New(),
		generic.New(),
	}
	for _, d := range families {
		if !cfg.IsDetectorEnabled(d.Name()) {
			logger.Debug().Str("detector", d.Name()).Msg("detector disabled by config")
			continue
		}
		if err := reg.Register(d); err != nil {
			logger.Error().Err(err).Str("detector", d.Name()).Msg("detector registration failed")
		}
	}
	return reg
}

// UseFixture swaps the search collaborator for the built-in demo fixture,
// so the full pipeline runs without network access or credentials.
func (e *Engine) UseFixture() {
	fx := search.NewFixture()
	e.searcher = fx
	e.fetcher = fx
	e.mode = catalog.ModeDemo
}

// RunDiscovery executes one remote discovery run: ping, fan out queries,
// dispatch the evidence, synthesize documents, and persist the catalog.
// Cancellation is honored between phases and inside the fetch; once
// synthesis starts the run completes, because a half-written catalog is
// worse than a slightly stale one.
func (e *Engine) RunDiscovery(ctx context.Context, opts Options) (*RunOutcome, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	report := catalog.NewRunReport(e.mode)
	report.OutputDir = e.Store.Dir()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := e.searcher.Ping(pingCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("search collaborator unreachable: %w", err)
	}

	if opts.Incremental && e.Index.Len() == 0 {
		if n, err := e.Store.Load(e.Index); err != nil {
			e.Logger.Warn().Err(err).Msg("could not load existing catalog, starting fresh")
		} else if n > 0 {
			e.Logger.Info().Int("services", n).Msg("existing catalog loaded for incremental merge")
		}
	}

	repos := opts.Repositories
	if len(repos) == 0 {
		repos = e.Config.Discovery.Repositories
	}
	langs := opts.Languages
	if len(langs) == 0 {
		langs = e.Config.Discovery.Languages
	}

	queries := search.BuildQueries(e.Registry.Detectors(), repos, langs)
	report.QueriesIssued = len(queries)

	pcfg := search.PoolConfigFrom(e.Config)
	if opts.Workers > 0 {
		pcfg.Workers = opts.Workers
	}
	pcfg.Observer = e.Metrics.ObserveQuery
	pool := search.NewPool(e.searcher, pcfg, e.Logger)

	matches, failures := pool.Run(ctx, queries)
	report.MatchesFetched = len(matches)
	for _, f := range failures {
		report.QueryFailures = append(report.QueryFailures, catalog.QueryFailure{
			Detector: f.Detector,
			Broker:   string(f.Broker),
			Query:    f.QueryText,
			Attempts: f.Attempts,
			Error:    f.LastError,
		})
	}
	e.Metrics.CountWarnings("query", len(failures))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.pipeline(ctx, report, matches, e.fetcher, opts)
}

// RunLocalScan executes one discovery run against a checked-out tree.
// Enrichment reads payload classes straight from the scanned files, so
// local runs need no collaborator at all.
func (e *Engine) RunLocalScan(ctx context.Context, root string, opts Options) (*RunOutcome, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	report := catalog.NewRunReport(catalog.ModeLocal)
	report.OutputDir = e.Store.Dir()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	walker := scan.NewWalker(e.Registry.Detectors(), opts.Repository, e.Logger)
	matches, stats, err := walker.Scan(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	report.MatchesFetched = len(matches)
	e.Logger.Info().
		Int("files", stats.FilesScanned).
		Int("matches", stats.Matches).
		Msg("tree evidence gathered")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.pipeline(ctx, report, matches, &treeFetcher{root: abs}, opts)
}

// pipeline is the shared tail of every run: dispatch, merge, enrich,
// synthesize, index, persist.
func (e *Engine) pipeline(ctx context.Context, report *catalog.RunReport, matches []core.RawMatch, fetcher catalog.ContentFetcher, opts Options) (*RunOutcome, error) {
	records, stats := e.Registry.DispatchAll(matches)
	report.RecordsExtracted = stats.Records
	report.RecordsDropped = stats.MatchesInvalid + stats.RecordsDropped
	report.GenericSuppressed = stats.GenericSuppressed
	e.Metrics.CountDispatch(stats)

	merged := catalog.MergeRecords(records)
	report.CountRecords(merged)

	outcome := &RunOutcome{Report: report, Records: merged}

	if opts.DiscoverOnly {
		report.Finish(e.Index)
		e.setLastReport(report)
		e.Logger.Info().
			Int("events", report.Events).
			Msg("discovery finished, nothing written")
		return outcome, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enricher := catalog.NewClassEnricher(fetcher, e.Logger)
	enricher.Prepare(ctx, merged, matches)

	syn := catalog.NewSynthesizer(e.strictChannels(), enricher, e.Logger)
	docs, warnings := syn.Synthesize(merged)
	report.Warnings = append(report.Warnings, warnings...)
	report.EnrichedSchemas = enricher.Enriched()
	e.Metrics.CountWarnings("synthesis", len(warnings))
	outcome.Documents = docs

	e.indexDocuments(docs, report, opts.Incremental)
	e.publishRun(merged)
	e.recent.Push(merged...)

	report.Finish(e.Index)
	e.Metrics.SetCatalogSize(e.Index.Len(), e.Index.TotalChannels())

	if err := e.Store.Save(e.Index, report); err != nil {
		return outcome, fmt.Errorf("writing catalog: %w", err)
	}
	e.setLastReport(report)

	e.Logger.Info().
		Str("run_id", report.RunID).
		Int("events", report.Events).
		Int("services", report.Services).
		Int("channels", report.Channels).
		Int("warnings", len(report.Warnings)).
		Msg("discovery run complete")
	return outcome, nil
}

// indexDocuments installs synthesized documents, one goroutine per
// service. Entries for different services are independent; the index
// serializes same-service writers internally.
func (e *Engine) indexDocuments(docs []*catalog.SpecificationDocument, report *catalog.RunReport, incremental bool) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, doc := range docs {
		wg.Add(1)
		go func(doc *catalog.SpecificationDocument) {
			defer wg.Done()
			var err error
			if incremental {
				_, err = e.Index.MergeIncremental(doc)
			} else {
				_, err = e.Index.Upsert(doc)
			}
			if err != nil {
				e.Logger.Error().Err(err).Str("service", doc.ServiceName()).Msg("document rejected by index")
				mu.Lock()
				report.Warnings = append(report.Warnings, catalog.Warning{
					ServiceName: doc.ServiceName(),
					Reason:      "document rejected: " + err.Error(),
				})
				mu.Unlock()
			}
		}(doc)
	}
	wg.Wait()
}

// publishRun pushes new and changed records onto the catalog bus, then one
// update notice per affected service. The record cache keeps periodic
// serve-mode runs from republishing records that did not change.
func (e *Engine) publishRun(records []core.EventRecord) {
	if e.Bus == nil {
		return
	}
	services := make(map[string]bool)
	for i := range records {
		rec := &records[i]
		if e.cache.Seen(rec) {
			continue
		}
		if err := e.Bus.PublishRecord(rec); err != nil {
			e.Logger.Error().Err(err).Str("channel", rec.ChannelName).Msg("record publish failed")
			continue
		}
		services[rec.ServiceName] = true
	}
	for service := range services {
		entry, ok := e.Index.LookupService(service)
		if !ok {
			continue
		}
		if err := e.Bus.PublishUpdate(entry); err != nil {
			e.Logger.Error().Err(err).Str("service", service).Msg("update publish failed")
		}
	}
}

// treeFetcher serves enrichment reads from a scanned tree. The repository
// argument is ignored: a local run covers exactly one repository.
type treeFetcher struct {
	root string
}

func (f *treeFetcher) FileContent(_ context.Context, _ string, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Start brings up serve-mode plumbing: catalog restore, the bus, the
// archiver, the periodic discovery loop, and the SIGHUP reload watcher.
// One-shot runs never call Start.
func (e *Engine) Start() error {
	e.Logger.Info().Msg("starting eventscout engine")

	if n, err := e.Store.Load(e.Index); err != nil {
		e.Logger.Warn().Err(err).Msg("could not load existing catalog")
	} else if n > 0 {
		e.Logger.Info().Int("services", n).Msg("catalog restored from disk")
		e.Metrics.SetCatalogSize(e.Index.Len(), e.Index.TotalChannels())
	}

	bus, err := NewCatalogBus(&e.Config.Bus, e.Logger)
	if err != nil {
		return fmt.Errorf("starting catalog bus: %w", err)
	}
	e.Bus = bus

	if e.Config.Archive.Enabled {
		arch, err := NewArchiver(e.Config.Archive, bus, e.Logger)
		if err != nil {
			return fmt.Errorf("starting archiver: %w", err)
		}
		if err := arch.Start(e.ctx); err != nil {
			return fmt.Errorf("starting archiver: %w", err)
		}
		e.Archiver = arch
	}

	go e.discoveryLoop()
	go e.watchReload()

	e.Logger.Info().
		Int("detectors", e.Registry.Len()).
		Str("output", e.Store.Dir()).
		Msg("eventscout engine started")
	return nil
}

// Run starts serve mode and blocks until a shutdown signal arrives.
func (e *Engine) Run() error {
	if err := e.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		e.Logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-e.ctx.Done():
		e.Logger.Info().Msg("context cancelled")
	}

	return e.Shutdown()
}

// Shutdown stops the periodic loop and closes the bus.
func (e *Engine) Shutdown() error {
	e.Logger.Info().Msg("shutting down eventscout engine")
	e.cancel()

	if e.Bus != nil {
		if err := e.Bus.Close(); err != nil {
			e.Logger.Error().Err(err).Msg("error closing catalog bus")
		}
	}

	e.Logger.Info().Msg("eventscout engine stopped")
	return nil
}

// Stop cancels the engine context; Run unblocks and shuts down.
func (e *Engine) Stop() { e.cancel() }

// Context returns the engine's lifetime context.
func (e *Engine) Context() context.Context { return e.ctx }

// RunAsync kicks off a discovery run in the background. Used by the API
// trigger endpoint; the run mutex serializes overlapping triggers.
func (e *Engine) RunAsync() {
	go e.runOnce()
}

func (e *Engine) discoveryLoop() {
	e.runOnce()
	timer := time.NewTimer(e.interval())
	defer timer.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-timer.C:
			e.runOnce()
			timer.Reset(e.interval())
		}
	}
}

func (e *Engine) runOnce() {
	outcome, err := e.RunDiscovery(e.ctx, Options{})
	if err != nil {
		e.Metrics.CountRun(e.mode, false)
		e.Logger.Error().Err(err).Msg("discovery run failed")
		return
	}
	e.Metrics.CountRun(e.mode, true)
	e.Logger.Info().
		Str("run_id", outcome.Report.RunID).
		Int("events", outcome.Report.Events).
		Msg("scheduled discovery run complete")
}

func (e *Engine) interval() time.Duration {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	d := e.Config.DiscoveryInterval()
	if d <= 0 {
		d = 15 * time.Minute
	}
	return d
}

func (e *Engine) strictChannels() bool {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.Config.Naming.StrictChannelNames
}

// watchReload applies hot-reloadable configuration on SIGHUP.
func (e *Engine) watchReload() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ch:
			if _, err := Reload(e, e.ConfigPath); err != nil {
				e.Logger.Error().Err(err).Msg("config reload failed")
			}
		}
	}
}

// LastReport returns the most recent run report, or nil before any run.
func (e *Engine) LastReport() *catalog.RunReport {
	e.reportMu.RLock()
	defer e.reportMu.RUnlock()
	return e.lastReport
}

func (e *Engine) setLastReport(r *catalog.RunReport) {
	e.reportMu.Lock()
	e.lastReport = r
	e.reportMu.Unlock()
}

// RecentRecords returns up to n of the most recently discovered records,
// oldest first.
func (e *Engine) RecentRecords(n int) []core.EventRecord {
	return e.recent.Recent(n)
}

// Status summarizes engine state for the API status endpoint.
func (e *Engine) Status() map[string]interface{} {
	s := map[string]interface{}{
		"mode":           e.mode,
		"uptime_seconds": int(time.Since(e.startedAt).Seconds()),
		"detectors":      e.Registry.Len(),
		"services":       e.Index.Len(),
		"channels":       e.Index.TotalChannels(),
		"output_dir":     e.Store.Dir(),
	}
	if e.Bus != nil {
		s["bus_connected"] = e.Bus.IsConnected()
		s["bus"] = e.Bus.GetMetrics()
	}
	if e.Archiver != nil {
		s["archive"] = e.Archiver.Status()
	}
	if r := e.LastReport(); r != nil {
		s["last_run"] = map[string]interface{}{
			"run_id":      r.RunID,
			"mode":        r.Mode,
			"finished_at": r.FinishedAt,
			"events":      r.Events,
			"warnings":    len(r.Warnings),
		}
	}
	return s
}
