package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Broker identifies a messaging technology family.
type Broker string

const (
	BrokerKafka       Broker = "kafka"
	BrokerRabbitMQ    Broker = "rabbitmq"
	BrokerSNS         Broker = "aws-sns"
	BrokerSQS         Broker = "aws-sqs"
	BrokerEventBridge Broker = "aws-eventbridge"
	BrokerIBMMQ       Broker = "ibm-mq"
	BrokerGeneric     Broker = "generic"
)

// Brokers returns every known broker in canonical order.
func Brokers() []Broker {
	return []Broker{
		BrokerKafka,
		BrokerRabbitMQ,
		BrokerSNS,
		BrokerSQS,
		BrokerEventBridge,
		BrokerIBMMQ,
		BrokerGeneric,
	}
}

// Valid reports whether b is one of the known broker families.
func (b Broker) Valid() bool {
	switch b {
	case BrokerKafka, BrokerRabbitMQ, BrokerSNS, BrokerSQS,
		BrokerEventBridge, BrokerIBMMQ, BrokerGeneric:
		return true
	}
	return false
}

// Protocol returns the AsyncAPI server protocol for the broker.
func (b Broker) Protocol() string {
	switch b {
	case BrokerKafka:
		return "kafka"
	case BrokerRabbitMQ:
		return "amqp"
	case BrokerSNS:
		return "sns"
	case BrokerSQS:
		return "sqs"
	case BrokerEventBridge:
		return "eventbridge"
	case BrokerIBMMQ:
		return "ibmmq"
	default:
		return "generic"
	}
}

// DefaultServerURL returns the default development server address for the
// broker, used when a synthesized document has no better information.
func (b Broker) DefaultServerURL() string {
	switch b {
	case BrokerKafka:
		return "localhost:9092"
	case BrokerRabbitMQ:
		return "localhost:5672"
	case BrokerSNS, BrokerSQS, BrokerEventBridge:
		return "localhost:4566"
	case BrokerIBMMQ:
		return "localhost:1414"
	default:
		return "localhost"
	}
}

// DirectionPublish is the only direction records carry: detection covers
// producer call sites, never consumers.
const DirectionPublish = "publish"

// Confidence levels assigned by detectors based on which pattern matched.
const (
	// ConfidenceExact: a framework-specific API call with an explicit
	// channel literal (e.g. KafkaTemplate.send("order.placed", ...)).
	ConfidenceExact = 0.9
	// ConfidenceStrong: a framework-specific call where the channel was
	// recovered indirectly (nearby literal, ARN tail, declaration).
	ConfidenceStrong = 0.75
	// ConfidenceGeneric: a bare publish/emit/send/produce verb.
	ConfidenceGeneric = 0.5
)

// RawMatch is one unit of code evidence produced by a search collaborator
// or the local tree scanner. Immutable for the duration of a dispatch.
type RawMatch struct {
	RepositoryID     string `json:"repository_id"`
	FilePath         string `json:"file_path"`
	LineNumber       int    `json:"line_number"`
	SourceLanguage   string `json:"source_language,omitempty"`
	CodeSnippet      string `json:"code_snippet"`
	MatchedPatternID string `json:"matched_pattern_id,omitempty"`
}

// Validate reports why the match is unusable as evidence, or nil.
func (m *RawMatch) Validate() error {
	if strings.TrimSpace(m.RepositoryID) == "" {
		return fmt.Errorf("raw match: empty repository_id")
	}
	if strings.TrimSpace(m.FilePath) == "" {
		return fmt.Errorf("raw match: empty file_path")
	}
	if m.LineNumber < 0 {
		return fmt.Errorf("raw match: negative line_number %d", m.LineNumber)
	}
	if strings.TrimSpace(m.CodeSnippet) == "" {
		return fmt.Errorf("raw match: empty code_snippet")
	}
	return nil
}

// Location returns the source location the match points at.
func (m *RawMatch) Location() SourceLocation {
	return SourceLocation{
		RepositoryID: m.RepositoryID,
		FilePath:     m.FilePath,
		LineNumber:   m.LineNumber,
	}
}

// SourceLocation pins a piece of evidence to repository, file and line.
type SourceLocation struct {
	RepositoryID string `json:"repository_id" yaml:"repository_id"`
	FilePath     string `json:"file_path" yaml:"file_path"`
	LineNumber   int    `json:"line_number" yaml:"line_number"`
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s/%s:%d", l.RepositoryID, l.FilePath, l.LineNumber)
}

// SortLocations orders locations by their string form and removes duplicates.
func SortLocations(locs []SourceLocation) []SourceLocation {
	sort.Slice(locs, func(i, j int) bool {
		return locs[i].String() < locs[j].String()
	})
	out := locs[:0]
	var prev string
	for i, l := range locs {
		s := l.String()
		if i > 0 && s == prev {
			continue
		}
		out = append(out, l)
		prev = s
	}
	return out
}

// EventRecord is the canonical detector output: one producer call site
// (or, after synthesis merging, one producer group) bound to a channel.
type EventRecord struct {
	ID          string           `json:"id"`
	ServiceName string           `json:"service_name"`
	ChannelName string           `json:"channel_name"`
	Broker      Broker           `json:"broker"`
	Framework   string           `json:"framework"`
	Direction   string           `json:"direction"`
	Confidence  float64          `json:"confidence"`
	Sources     []SourceLocation `json:"source_locations"`
	Detector    string           `json:"detector"`
	DetectedAt  time.Time        `json:"detected_at"`
}

// NewEventRecord creates a record for a single call site. The service name
// is stamped later by the registry, which owns the derivation policy.
func NewEventRecord(detector string, broker Broker, framework, channel string, confidence float64, loc SourceLocation) *EventRecord {
	return &EventRecord{
		ID:          uuid.New().String(),
		ChannelName: channel,
		Broker:      broker,
		Framework:   framework,
		Direction:   DirectionPublish,
		Confidence:  confidence,
		Sources:     []SourceLocation{loc},
		Detector:    detector,
		DetectedAt:  time.Now().UTC(),
	}
}

// Validate reports why the record violates the canonical-record invariants.
func (r *EventRecord) Validate() error {
	if strings.TrimSpace(r.ServiceName) == "" {
		return fmt.Errorf("event record: empty service_name")
	}
	if strings.TrimSpace(r.ChannelName) == "" {
		return fmt.Errorf("event record: empty channel_name")
	}
	if !r.Broker.Valid() {
		return fmt.Errorf("event record: unknown broker %q", r.Broker)
	}
	if r.Confidence <= 0 || r.Confidence > 1 {
		return fmt.Errorf("event record: confidence %v outside (0,1]", r.Confidence)
	}
	if len(r.Sources) == 0 {
		return fmt.Errorf("event record: no source locations")
	}
	return nil
}

// DedupKey returns the uniqueness key records are merged under.
func (r *EventRecord) DedupKey() string {
	return r.ServiceName + "\x00" + string(r.Broker) + "\x00" + r.ChannelName
}

// Marshal serializes the record to JSON.
func (r *EventRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalEventRecord deserializes an EventRecord from JSON.
func UnmarshalEventRecord(data []byte) (*EventRecord, error) {
	var rec EventRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

var channelLiteralRe = regexp.MustCompile("[\"'`]([A-Za-z0-9_][A-Za-z0-9._/-]{2,})[\"'`]")

// Literals that show up quoted near producer calls but are never channels.
var channelStopwords = map[string]bool{
	"utf-8":            true,
	"utf8":             true,
	"ascii":            true,
	"true":             true,
	"false":            true,
	"none":             true,
	"null":             true,
	"json":             true,
	"http":             true,
	"https":            true,
	"localhost":        true,
	"application/json": true,
	"text/plain":       true,
}

// CleanChannelName normalizes a captured channel name, returning "" when
// the capture cannot plausibly be one: too short, underscore-prefixed, a
// known non-channel literal, or containing quotes/control characters.
// Inner spaces survive — cloud event names like "Order Placed" are
// legitimate.
func CleanChannelName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 2 || strings.HasPrefix(s, "_") || channelStopwords[strings.ToLower(s)] {
		return ""
	}
	for _, r := range s {
		if r < 0x20 || r == '"' || r == '\'' || r == '`' {
			return ""
		}
	}
	return s
}

// FirstChannelLiteral scans snippet text for the first quoted literal that
// plausibly names a channel: alphanumeric with ./_- separators, longer than
// two characters, not underscore-prefixed, not a known non-channel literal.
func FirstChannelLiteral(text string) (string, bool) {
	for _, m := range channelLiteralRe.FindAllStringSubmatch(text, -1) {
		if c := CleanChannelName(m[1]); c != "" {
			return c, true
		}
	}
	return "", false
}
