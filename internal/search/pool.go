package search

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

// ---------------------------------------------------------------------------
// pool.go: bounded-concurrency query execution with retry and backoff.
//
// A discovery run fans out one query per detector and repository filter.
// A transient 429 from the collaborator shouldn't cost the whole run the
// evidence that query would have produced.
//
// Design:
//   - Bounded workers over a shared query channel
//   - Per-query timeout, independent of the other queries
//   - Exponential backoff: 1s → 2s → 4s → 8s, capped
//   - Only transient failures retry (rate-limit, unavailable, timeout)
//   - A query that exhausts retries becomes a QueryFailure and the run
//     continues with the evidence already gathered
// ---------------------------------------------------------------------------

// QueryFailure is one query that gave up after its retry budget.
type QueryFailure struct {
	Detector  string      `json:"detector"`
	Broker    core.Broker `json:"broker"`
	QueryText string      `json:"query"`
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error"`
}

// PoolConfig controls query fan-out and retry behavior.
type PoolConfig struct {
	Workers        int
	MaxRetries     int
	QueryTimeout   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Observer, when set, is called once per query after its final
	// attempt. duration is wall time across all attempts including
	// backoff; err is nil on success.
	Observer func(q Query, attempts int, duration time.Duration, matches int, err error)
}

// DefaultPoolConfig returns sane defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:        4,
		MaxRetries:     3,
		QueryTimeout:   30 * time.Second,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// PoolConfigFrom derives pool settings from the discovery config section.
func PoolConfigFrom(cfg *core.Config) PoolConfig {
	pc := DefaultPoolConfig()
	if cfg.Discovery.Workers > 0 {
		pc.Workers = cfg.Discovery.Workers
	}
	if cfg.Discovery.RetryAttempts >= 0 {
		pc.MaxRetries = cfg.Discovery.RetryAttempts
	}
	if cfg.Discovery.QueryTimeoutSeconds > 0 {
		pc.QueryTimeout = cfg.QueryTimeout()
	}
	if cfg.Discovery.RetryBackoffSeconds > 0 {
		pc.InitialBackoff = cfg.RetryBackoff()
	}
	return pc
}

// Pool executes queries against a Searcher with bounded concurrency.
type Pool struct {
	searcher Searcher
	cfg      PoolConfig
	logger   zerolog.Logger
}

// NewPool creates a pool. The searcher must be safe for concurrent use.
func NewPool(searcher Searcher, cfg PoolConfig, logger zerolog.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return &Pool{
		searcher: searcher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "search_pool").Logger(),
	}
}

// Run executes all queries and returns the gathered matches plus one
// QueryFailure per query that exhausted its retries. Cancelling ctx stops
// feeding new queries; in-flight queries finish under their own timeout.
func (p *Pool) Run(ctx context.Context, queries []Query) ([]core.RawMatch, []QueryFailure) {
	if len(queries) == 0 {
		return nil, nil
	}

	workers := p.cfg.Workers
	if workers > len(queries) {
		workers = len(queries)
	}

	type part struct {
		matches  []core.RawMatch
		failures []QueryFailure
	}
	parts := make([]part, workers)
	jobs := make(chan Query)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for q := range jobs {
				p.runQuery(ctx, q, &parts[w].matches, &parts[w].failures)
			}
		}(w)
	}

feed:
	for _, q := range queries {
		select {
		case jobs <- q:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	var matches []core.RawMatch
	var failures []QueryFailure
	for _, pt := range parts {
		matches = append(matches, pt.matches...)
		failures = append(failures, pt.failures...)
	}
	return matches, failures
}

func (p *Pool) runQuery(ctx context.Context, q Query, matches *[]core.RawMatch, failures *[]QueryFailure) {
	var lastErr error
	attempts := 0
	start := time.Now()

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		attempts = attempt + 1

		qctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
		found, err := p.searcher.Search(qctx, q)
		cancel()

		if err == nil {
			*matches = append(*matches, found...)
			if p.cfg.Observer != nil {
				p.cfg.Observer(q, attempts, time.Since(start), len(found), nil)
			}
			p.logger.Debug().
				Str("detector", q.Detector).
				Int("matches", len(found)).
				Int("attempts", attempts).
				Msg("query succeeded")
			return
		}

		lastErr = err
		if !Retryable(err) {
			break
		}
		if attempt < p.cfg.MaxRetries {
			p.backoff(ctx, attempt)
		}
	}

	if p.cfg.Observer != nil {
		p.cfg.Observer(q, attempts, time.Since(start), 0, lastErr)
	}
	*failures = append(*failures, QueryFailure{
		Detector:  q.Detector,
		Broker:    q.Broker,
		QueryText: q.String(),
		Attempts:  attempts,
		LastError: lastErr.Error(),
	})
	p.logger.Warn().
		Str("detector", q.Detector).
		Int("attempts", attempts).
		Err(lastErr).
		Msg("query failed, continuing run without its evidence")
}

func (p *Pool) backoff(ctx context.Context, attempt int) {
	delay := time.Duration(float64(p.cfg.InitialBackoff) * math.Pow(2, float64(attempt)))
	if delay > p.cfg.MaxBackoff {
		delay = p.cfg.MaxBackoff
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
