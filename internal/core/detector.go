package core

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Detector is the interface every broker/framework detector implements.
type Detector interface {
	// Name returns the unique detector name, e.g. "kafka" or "aws-sns".
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Broker returns the broker family this detector targets.
	Broker() Broker
	// QueryFragment returns the search-collaborator query text for this
	// detector. Opaque to the core; called once at query-build time.
	QueryFragment() string
	// Probe returns a cheap line-level filter the local scanner uses to
	// decide whether a line is worth turning into a RawMatch.
	Probe() *regexp.Regexp
	// Extract applies the detector's pattern set to one raw match and
	// returns a canonical record, or false when nothing matched. Pure:
	// no shared state, safe to call concurrently. The returned record
	// carries no service name; the registry stamps it.
	Extract(m RawMatch) (*EventRecord, bool)
}

// DispatchStats summarizes one DispatchAll pass.
type DispatchStats struct {
	MatchesSeen       int            `json:"matches_seen"`
	MatchesInvalid    int            `json:"matches_invalid"`
	Records           int            `json:"records"`
	RecordsDropped    int            `json:"records_dropped"`
	GenericSuppressed int            `json:"generic_suppressed"`
	DetectorPanics    int            `json:"detector_panics"`
	ByDetector        map[string]int `json:"by_detector,omitempty"`
	ByBroker          map[string]int `json:"by_broker,omitempty"`
}

func newDispatchStats() DispatchStats {
	return DispatchStats{
		ByDetector: make(map[string]int),
		ByBroker:   make(map[string]int),
	}
}

func (s *DispatchStats) absorb(o DispatchStats) {
	s.MatchesSeen += o.MatchesSeen
	s.MatchesInvalid += o.MatchesInvalid
	s.Records += o.Records
	s.RecordsDropped += o.RecordsDropped
	s.GenericSuppressed += o.GenericSuppressed
	s.DetectorPanics += o.DetectorPanics
	for k, v := range o.ByDetector {
		s.ByDetector[k] += v
	}
	for k, v := range o.ByBroker {
		s.ByBroker[k] += v
	}
}

// Registry holds the active detector set and fans raw matches out to it.
// Construction-time configuration only; dispatch takes no locks beyond a
// read of the detector table, so parallel dispatch is safe.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
	namer     *ServiceNamer
	workers   int
	logger    zerolog.Logger
}

// NewRegistry creates a Registry. The namer owns service-name derivation
// policy; workers bounds dispatch parallelism.
func NewRegistry(namer *ServiceNamer, workers int, logger zerolog.Logger) *Registry {
	if workers < 1 {
		workers = 1
	}
	return &Registry{
		detectors: make(map[string]Detector),
		namer:     namer,
		workers:   workers,
		logger:    logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds a detector. Duplicate names are rejected; registration
// order never affects dispatch results.
func (r *Registry) Register(d Detector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := d.Name()
	if _, exists := r.detectors[name]; exists {
		return fmt.Errorf("detector %q already registered", name)
	}
	r.detectors[name] = d
	r.logger.Info().Str("detector", name).Str("broker", string(d.Broker())).Msg("detector registered")
	return nil
}

// Get returns a detector by name.
func (r *Registry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	return d, ok
}

// Detectors returns all registered detectors sorted by name.
func (r *Registry) Detectors() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.detectors)
}

// DispatchAll fans every match out to every registered detector and
// collects the canonical records. It never short-circuits after a first
// claim: one snippet can legitimately represent several broker calls, and
// same-broker double claims collapse later in synthesis dedup. The one
// exception is the generic-emitter family: when a broker-specific
// detector claims a match, the generic claim on that same match is
// suppressed. Invalid matches and invalid records are counted, never
// fatal. Matches are processed across a bounded worker set; record order
// is unspecified (synthesis sorts).
func (r *Registry) DispatchAll(matches []RawMatch) ([]EventRecord, DispatchStats) {
	dets := r.Detectors()
	stats := newDispatchStats()
	if len(matches) == 0 || len(dets) == 0 {
		stats.MatchesSeen = len(matches)
		return nil, stats
	}

	workers := r.workers
	if workers > len(matches) {
		workers = len(matches)
	}

	type part struct {
		recs  []EventRecord
		stats DispatchStats
	}
	parts := make([]part, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			local := &parts[w]
			local.stats = newDispatchStats()
			var claimed []EventRecord
			for i := w; i < len(matches); i += workers {
				m := matches[i]
				local.stats.MatchesSeen++
				if err := m.Validate(); err != nil {
					local.stats.MatchesInvalid++
					r.logger.Debug().Err(err).Str("repo", m.RepositoryID).Msg("skipping invalid match")
					continue
				}
				claimed = claimed[:0]
				for _, d := range dets {
					rec, ok := r.safeExtract(d, m, &local.stats)
					if !ok {
						continue
					}
					rec.ServiceName = r.namer.Derive(m.RepositoryID)
					if err := rec.Validate(); err != nil {
						local.stats.RecordsDropped++
						r.logger.Debug().Err(err).Str("detector", d.Name()).Msg("dropping invalid record")
						continue
					}
					claimed = append(claimed, *rec)
				}
				claimed = suppressGeneric(claimed, &local.stats)
				for _, rec := range claimed {
					local.recs = append(local.recs, rec)
					local.stats.Records++
					local.stats.ByDetector[rec.Detector]++
					local.stats.ByBroker[string(rec.Broker)]++
				}
			}
		}(w)
	}
	wg.Wait()

	var records []EventRecord
	for _, p := range parts {
		records = append(records, p.recs...)
		stats.absorb(p.stats)
	}
	return records, stats
}

// suppressGeneric drops generic-emitter claims on a match that a
// broker-specific detector also claimed: the exact API surface is the
// better evidence for that call site.
func suppressGeneric(claimed []EventRecord, stats *DispatchStats) []EventRecord {
	if len(claimed) < 2 {
		return claimed
	}
	specific := false
	for _, rec := range claimed {
		if rec.Broker != BrokerGeneric {
			specific = true
			break
		}
	}
	if !specific {
		return claimed
	}
	kept := claimed[:0]
	for _, rec := range claimed {
		if rec.Broker == BrokerGeneric {
			stats.GenericSuppressed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// safeExtract calls d.Extract inside a recover() so a panicking detector
// cannot crash the run. Panics are logged and counted.
func (r *Registry) safeExtract(d Detector, m RawMatch, stats *DispatchStats) (rec *EventRecord, ok bool) {
	defer func() {
		if rc := recover(); rc != nil {
			r.logger.Error().
				Str("detector", d.Name()).
				Str("file", m.FilePath).
				Interface("panic", rc).
				Msg("detector panicked, match skipped")
			stats.DetectorPanics++
			rec, ok = nil, false
		}
	}()
	return d.Extract(m)
}
