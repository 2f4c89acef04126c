package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Warning is a non-fatal synthesis problem: a record or channel that was
// excluded from a document rather than aborting the run.
type Warning struct {
	ServiceName string      `json:"service_name,omitempty"`
	ChannelName string      `json:"channel_name,omitempty"`
	Broker      core.Broker `json:"broker,omitempty"`
	Reason      string      `json:"reason"`
}

// MergeRecords collapses records sharing a (service, broker, channel) key
// into one record each: source locations unioned and sorted, maximum
// confidence retained, framework and detector taken from the
// highest-confidence contributor, earliest detection time kept. The result
// is sorted by service, channel, broker, so identical input sets produce
// identical output regardless of arrival order.
func MergeRecords(records []core.EventRecord) []core.EventRecord {
	byKey := make(map[string]*core.EventRecord)
	for i := range records {
		rec := records[i]
		key := rec.DedupKey()
		g, ok := byKey[key]
		if !ok {
			merged := rec
			merged.Sources = append([]core.SourceLocation(nil), rec.Sources...)
			byKey[key] = &merged
			continue
		}
		g.Sources = append(g.Sources, rec.Sources...)
		if rec.Confidence > g.Confidence ||
			(rec.Confidence == g.Confidence && rec.Framework < g.Framework) {
			g.Confidence = rec.Confidence
			g.Framework = rec.Framework
			g.Detector = rec.Detector
			g.ID = rec.ID
		}
		if rec.DetectedAt.Before(g.DetectedAt) {
			g.DetectedAt = rec.DetectedAt
		}
	}

	out := make([]core.EventRecord, 0, len(byKey))
	for _, g := range byKey {
		g.Sources = core.SortLocations(g.Sources)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServiceName != out[j].ServiceName {
			return out[i].ServiceName < out[j].ServiceName
		}
		if out[i].ChannelName != out[j].ChannelName {
			return out[i].ChannelName < out[j].ChannelName
		}
		return out[i].Broker < out[j].Broker
	})
	return out
}

// Synthesizer builds one specification document per service from a run's
// record set. Pure over its input: configuration is fixed at construction
// and the same merged records always produce the same documents.
type Synthesizer struct {
	strict   bool
	enricher Enricher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSynthesizer creates a synthesizer. strict enables case-insensitive
// channel collision checking; enricher may be nil.
func NewSynthesizer(strict bool, enricher Enricher, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		strict:   strict,
		enricher: enricher,
		logger:   logger.With().Str("component", "synthesizer").Logger(),
		now:      time.Now,
	}
}

// Synthesize merges the record set and emits one document per service,
// sorted by service name. Invalid records and excluded channels surface as
// warnings; one service's bad evidence never affects another's document.
// Empty input produces no documents and no warnings.
func (s *Synthesizer) Synthesize(records []core.EventRecord) ([]*SpecificationDocument, []Warning) {
	var warnings []Warning

	valid := make([]core.EventRecord, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			warnings = append(warnings, Warning{
				ServiceName: rec.ServiceName,
				ChannelName: rec.ChannelName,
				Broker:      rec.Broker,
				Reason:      fmt.Sprintf("record excluded: %v", err),
			})
			continue
		}
		valid = append(valid, rec)
	}

	merged := MergeRecords(valid)
	byService := make(map[string][]core.EventRecord)
	for _, rec := range merged {
		byService[rec.ServiceName] = append(byService[rec.ServiceName], rec)
	}

	services := make([]string, 0, len(byService))
	for svc := range byService {
		services = append(services, svc)
	}
	sort.Strings(services)

	docs := make([]*SpecificationDocument, 0, len(services))
	for _, svc := range services {
		doc, ws := s.buildDocument(svc, byService[svc])
		warnings = append(warnings, ws...)
		docs = append(docs, doc)
		s.logger.Debug().
			Str("service", svc).
			Int("channels", len(doc.Channels)).
			Msg("document synthesized")
	}
	return docs, warnings
}

// buildDocument assembles one service's document from its merged records.
// Records arrive sorted by (channel, broker).
func (s *Synthesizer) buildDocument(service string, records []core.EventRecord) (*SpecificationDocument, []Warning) {
	var warnings []Warning

	// Resolve channel-key collisions: the channels map holds one entry per
	// channel name, so two brokers publishing the same name cannot both
	// appear. Keep the highest confidence; ties go to the lexicographically
	// smallest broker.
	winners := make(map[string]core.EventRecord)
	for _, rec := range records {
		key := rec.ChannelName
		if s.strict {
			key = strings.ToLower(key)
		}
		incumbent, taken := winners[key]
		if !taken {
			winners[key] = rec
			continue
		}
		excluded := rec
		if beats(rec, incumbent) {
			winners[key] = rec
			excluded = incumbent
		}
		kept := winners[key]
		warnings = append(warnings, Warning{
			ServiceName: service,
			ChannelName: excluded.ChannelName,
			Broker:      excluded.Broker,
			Reason: fmt.Sprintf("channel collides with %q (%s); kept the higher-confidence definition",
				kept.ChannelName, kept.Broker),
		})
	}

	doc := NewDocument(service, s.now())
	for _, rec := range winners {
		s.addChannel(doc, service, rec, &warnings)
	}
	return doc, warnings
}

// beats reports whether a wins a channel-key collision against b.
func beats(a, b core.EventRecord) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Broker != b.Broker {
		return a.Broker < b.Broker
	}
	return a.ChannelName < b.ChannelName
}

func (s *Synthesizer) addChannel(doc *SpecificationDocument, service string, rec core.EventRecord, warnings *[]Warning) {
	channel := rec.ChannelName
	msgKey := messageKey(channel)

	sources := make([]string, 0, len(rec.Sources))
	for _, loc := range rec.Sources {
		sources = append(sources, loc.String())
	}

	doc.Channels[channel] = ChannelDefinition{
		Description: fmt.Sprintf("Channel for %s event", channel),
		Subscribe: &Operation{
			OperationID: operationID(channel),
			Summary:     fmt.Sprintf("Subscribe to %s events", channel),
			Message:     Ref{Ref: "#/components/messages/" + refEscape(msgKey)},
		},
		Broker:     string(rec.Broker),
		Framework:  rec.Framework,
		Confidence: rec.Confidence,
		Sources:    sources,
	}

	doc.Components.Messages[msgKey] = Message{
		Name:        channel,
		Title:       channel,
		Summary:     fmt.Sprintf("Message published to %s", channel),
		ContentType: "application/json",
		Payload:     Ref{Ref: "#/components/schemas/" + refEscape(channel)},
	}

	schema := TemplateSchema()
	if s.enricher != nil {
		if enriched, ok := s.enricher.Enrich(service, channel); ok {
			if schemaUsable(enriched) {
				schema = enriched.Clone()
			} else {
				*warnings = append(*warnings, Warning{
					ServiceName: service,
					ChannelName: channel,
					Broker:      rec.Broker,
					Reason:      "enriched schema unusable, template kept",
				})
			}
		}
	}
	doc.Components.Schemas[channel] = schema

	proto := rec.Broker.Protocol()
	if _, ok := doc.Servers[proto]; !ok {
		doc.Servers[proto] = defaultServer(rec.Broker)
	}
}

// schemaUsable rejects enrichment output that would make a worse document
// than the template.
func schemaUsable(s *SchemaObject) bool {
	if s == nil || s.Type == "" {
		return false
	}
	if s.Type == "object" && len(s.Properties) == 0 {
		return false
	}
	return true
}
