package catalog

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Catalog index: the authoritative in-memory registry of one specification
// document per service.
//
// Design:
//   - Entries are immutable once published. Writers build a fresh Entry and
//     swap the map pointer; readers can hold a returned *Entry indefinitely.
//   - Revisions are monotonic per service: every Upsert or MergeIncremental
//     assigns prior+1, starting at 1 for a service the index has not seen.
//   - Writes to one service serialize on a striped lock so two concurrent
//     regenerations cannot both read revision N and publish N+1. Writes to
//     different services proceed in parallel.
//   - Channel lookups go through an inverted channel-to-services map that is
//     maintained on every write, never by scanning all documents.
// ---------------------------------------------------------------------------

// Entry is one service's row in the index.
type Entry struct {
	ServiceName  string                 `json:"service_name"`
	SpecFile     string                 `json:"spec_file"`
	ChannelCount int                    `json:"channel_count"`
	Brokers      []string               `json:"brokers"`
	Revision     int                    `json:"revision"`
	LastUpdated  time.Time              `json:"last_updated"`
	Document     *SpecificationDocument `json:"-"`
}

// ChannelRef points at one service's definition of a channel.
type ChannelRef struct {
	ServiceName string  `json:"service_name"`
	ChannelName string  `json:"channel_name"`
	Broker      string  `json:"broker"`
	Confidence  float64 `json:"confidence"`
}

const indexStripes = 16

// Index maps service names to their current specification documents.
type Index struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	channels map[string]map[string]bool // channel name -> services publishing it
	stripes  [indexStripes]sync.Mutex
	logger   zerolog.Logger

	now func() time.Time
}

// NewIndex creates an empty index.
func NewIndex(logger zerolog.Logger) *Index {
	return &Index{
		entries:  make(map[string]*Entry),
		channels: make(map[string]map[string]bool),
		logger:   logger.With().Str("component", "index").Logger(),
		now:      time.Now,
	}
}

// Upsert replaces the service's document wholesale and bumps its revision.
// The stored document is a stamped clone; the caller's copy is not touched.
func (ix *Index) Upsert(doc *SpecificationDocument) (*Entry, error) {
	if doc == nil {
		return nil, fmt.Errorf("index: nil document")
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("index: rejecting document: %w", err)
	}
	service := doc.ServiceName()

	stripe := ix.stripe(service)
	stripe.Lock()
	defer stripe.Unlock()

	return ix.publish(service, doc.Clone()), nil
}

// MergeIncremental folds a partial document into the service's existing one.
// Channels named by the partial win on conflict; channels it does not name
// survive from the prior document. With no prior document it behaves like
// Upsert.
func (ix *Index) MergeIncremental(doc *SpecificationDocument) (*Entry, error) {
	if doc == nil {
		return nil, fmt.Errorf("index: nil document")
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("index: rejecting document: %w", err)
	}
	service := doc.ServiceName()

	stripe := ix.stripe(service)
	stripe.Lock()
	defer stripe.Unlock()

	ix.mu.RLock()
	prior := ix.entries[service]
	ix.mu.RUnlock()

	if prior == nil {
		return ix.publish(service, doc.Clone()), nil
	}

	merged := prior.Document.Clone()
	incoming := doc.Clone()
	for name, ch := range incoming.Channels {
		merged.Channels[name] = ch
		msgKey := messageKey(name)
		if msg, ok := incoming.Components.Messages[msgKey]; ok {
			if merged.Components.Messages == nil {
				merged.Components.Messages = make(map[string]Message)
			}
			merged.Components.Messages[msgKey] = msg
		}
		if schema, ok := incoming.Components.Schemas[name]; ok {
			if merged.Components.Schemas == nil {
				merged.Components.Schemas = make(map[string]*SchemaObject)
			}
			merged.Components.Schemas[name] = schema
		}
	}
	for proto, srv := range incoming.Servers {
		if merged.Servers == nil {
			merged.Servers = make(map[string]Server)
		}
		merged.Servers[proto] = srv
	}
	if incoming.Info.GeneratedAt != "" {
		merged.Info.GeneratedAt = incoming.Info.GeneratedAt
	}

	return ix.publish(service, merged), nil
}

// publish stamps revision prior+1 onto doc and installs a fresh entry.
// Callers must hold the service's stripe lock.
func (ix *Index) publish(service string, doc *SpecificationDocument) *Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	revision := 1
	if prior, ok := ix.entries[service]; ok {
		revision = prior.Revision + 1
	}
	doc.Info.Revision = revision

	entry := &Entry{
		ServiceName:  service,
		SpecFile:     specRelPath(service),
		ChannelCount: len(doc.Channels),
		Brokers:      doc.BrokerSet(),
		Revision:     revision,
		LastUpdated:  ix.now().UTC(),
		Document:     doc,
	}
	ix.entries[service] = entry
	ix.reindexLocked(service, doc)

	ix.logger.Debug().
		Str("service", service).
		Int("revision", revision).
		Int("channels", entry.ChannelCount).
		Msg("index entry published")
	return entry
}

// restore installs a persisted entry without bumping its revision. Used by
// the store when loading a prior catalog from disk.
func (ix *Index) restore(doc *SpecificationDocument, lastUpdated time.Time) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("index: rejecting restored document: %w", err)
	}
	service := doc.ServiceName()

	stripe := ix.stripe(service)
	stripe.Lock()
	defer stripe.Unlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()

	revision := doc.Info.Revision
	if revision < 1 {
		revision = 1
	}
	stored := doc.Clone()
	stored.Info.Revision = revision
	ix.entries[service] = &Entry{
		ServiceName:  service,
		SpecFile:     specRelPath(service),
		ChannelCount: len(stored.Channels),
		Brokers:      stored.BrokerSet(),
		Revision:     revision,
		LastUpdated:  lastUpdated,
		Document:     stored,
	}
	ix.reindexLocked(service, stored)
	return nil
}

// reindexLocked rewrites the inverted channel index for one service.
// Callers must hold ix.mu.
func (ix *Index) reindexLocked(service string, doc *SpecificationDocument) {
	for channel, services := range ix.channels {
		if services[service] {
			delete(services, service)
			if len(services) == 0 {
				delete(ix.channels, channel)
			}
		}
	}
	for channel := range doc.Channels {
		services, ok := ix.channels[channel]
		if !ok {
			services = make(map[string]bool)
			ix.channels[channel] = services
		}
		services[service] = true
	}
}

// LookupService returns the service's current entry.
func (ix *Index) LookupService(name string) (*Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entry, ok := ix.entries[name]
	return entry, ok
}

// LookupChannel returns every service publishing the named channel, sorted
// by service name.
func (ix *Index) LookupChannel(name string) []ChannelRef {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	services := make([]string, 0, len(ix.channels[name]))
	for svc := range ix.channels[name] {
		services = append(services, svc)
	}
	sort.Strings(services)

	refs := make([]ChannelRef, 0, len(services))
	for _, svc := range services {
		entry, ok := ix.entries[svc]
		if !ok {
			continue
		}
		ch, ok := entry.Document.Channels[name]
		if !ok {
			continue
		}
		refs = append(refs, ChannelRef{
			ServiceName: svc,
			ChannelName: name,
			Broker:      ch.Broker,
			Confidence:  ch.Confidence,
		})
	}
	return refs
}

// Snapshot returns every entry sorted by service name.
func (ix *Index) Snapshot() []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]*Entry, 0, len(ix.entries))
	for _, entry := range ix.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out
}

// Len returns the number of services in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// TotalChannels counts channels across all services.
func (ix *Index) TotalChannels() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := 0
	for _, entry := range ix.entries {
		total += entry.ChannelCount
	}
	return total
}

func (ix *Index) stripe(service string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(service))
	return &ix.stripes[h.Sum32()%indexStripes]
}
