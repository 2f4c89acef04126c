// Package catalog turns canonical event records into AsyncAPI documents,
// tracks them across runs, and persists the result.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eventscout-project/eventscout/internal/core"
)

// AsyncAPIVersion is the specification grammar every document targets.
const AsyncAPIVersion = "2.6.0"

// SpecificationDocument is one service's event catalog in AsyncAPI shape.
// Channel maps serialize with sorted keys in both JSON and YAML, which is
// what keeps repeated runs over identical evidence byte-identical.
type SpecificationDocument struct {
	AsyncAPI   string                       `json:"asyncapi" yaml:"asyncapi"`
	Info       Info                         `json:"info" yaml:"info"`
	Servers    map[string]Server            `json:"servers,omitempty" yaml:"servers,omitempty"`
	Channels   map[string]ChannelDefinition `json:"channels" yaml:"channels"`
	Components Components                   `json:"components" yaml:"components"`
}

// Info is the document info block. Revision and generation time ride along
// as extension fields so regenerations are distinguishable.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
	Revision    int    `json:"x-revision" yaml:"x-revision"`
	GeneratedAt string `json:"x-generatedAt" yaml:"x-generatedAt"`
}

// Server is one broker endpoint, keyed by protocol in the servers block.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Protocol    string `json:"protocol" yaml:"protocol"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ChannelDefinition is one discovered event channel.
type ChannelDefinition struct {
	Description string     `json:"description" yaml:"description"`
	Subscribe   *Operation `json:"subscribe,omitempty" yaml:"subscribe,omitempty"`
	Broker      string     `json:"x-broker" yaml:"x-broker"`
	Framework   string     `json:"x-framework,omitempty" yaml:"x-framework,omitempty"`
	Confidence  float64    `json:"x-confidence" yaml:"x-confidence"`
	Sources     []string   `json:"x-sources,omitempty" yaml:"x-sources,omitempty"`
}

// Operation is the channel's subscribe operation: consumers subscribe to
// what this service publishes.
type Operation struct {
	OperationID string `json:"operationId" yaml:"operationId"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Message     Ref    `json:"message" yaml:"message"`
}

// Ref is a JSON-pointer reference.
type Ref struct {
	Ref string `json:"$ref" yaml:"$ref"`
}

// Components holds the document's messages and payload schemas.
type Components struct {
	Messages map[string]Message       `json:"messages,omitempty" yaml:"messages,omitempty"`
	Schemas  map[string]*SchemaObject `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// Message is a message wrapper named after its channel.
type Message struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	ContentType string `json:"contentType" yaml:"contentType"`
	Payload     Ref    `json:"payload" yaml:"payload"`
}

// SchemaObject is a JSON-schema payload description.
type SchemaObject struct {
	Type        string                   `json:"type" yaml:"type"`
	Format      string                   `json:"format,omitempty" yaml:"format,omitempty"`
	Title       string                   `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]*SchemaObject `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *SchemaObject            `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string                 `json:"required,omitempty" yaml:"required,omitempty"`
}

// TemplateSchema is the payload schema every channel starts with. An
// enrichment collaborator may replace it wholesale, never merge into it.
func TemplateSchema() *SchemaObject {
	return &SchemaObject{
		Type: "object",
		Properties: map[string]*SchemaObject{
			"eventId": {
				Type:        "string",
				Description: "Unique event identifier",
			},
			"timestamp": {
				Type:        "string",
				Format:      "date-time",
				Description: "Event timestamp",
			},
			"data": {
				Type:        "object",
				Description: "Event payload data",
			},
		},
	}
}

// NewDocument creates an empty document shell for a service.
func NewDocument(service string, generatedAt time.Time) *SpecificationDocument {
	return &SpecificationDocument{
		AsyncAPI: AsyncAPIVersion,
		Info: Info{
			Title:       service + " Event API",
			Version:     "1.0.0",
			Description: fmt.Sprintf("Asynchronous event API for %s. Auto-generated from code analysis.", service),
			GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		},
		Servers:  make(map[string]Server),
		Channels: make(map[string]ChannelDefinition),
		Components: Components{
			Messages: make(map[string]Message),
			Schemas:  make(map[string]*SchemaObject),
		},
	}
}

// ServiceName recovers the service this document describes from its title.
func (d *SpecificationDocument) ServiceName() string {
	return strings.TrimSuffix(d.Info.Title, " Event API")
}

// ChannelNames returns the channel keys in lexicographic order.
func (d *SpecificationDocument) ChannelNames() []string {
	names := make([]string, 0, len(d.Channels))
	for name := range d.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BrokerSet returns the distinct brokers present, sorted.
func (d *SpecificationDocument) BrokerSet() []string {
	set := make(map[string]bool)
	for _, ch := range d.Channels {
		if ch.Broker != "" {
			set[ch.Broker] = true
		}
	}
	brokers := make([]string, 0, len(set))
	for b := range set {
		brokers = append(brokers, b)
	}
	sort.Strings(brokers)
	return brokers
}

// Clone returns a deep copy. Merges operate on copies so prior documents
// stay immutable snapshots.
func (d *SpecificationDocument) Clone() *SpecificationDocument {
	out := &SpecificationDocument{
		AsyncAPI: d.AsyncAPI,
		Info:     d.Info,
		Servers:  make(map[string]Server, len(d.Servers)),
		Channels: make(map[string]ChannelDefinition, len(d.Channels)),
		Components: Components{
			Messages: make(map[string]Message, len(d.Components.Messages)),
			Schemas:  make(map[string]*SchemaObject, len(d.Components.Schemas)),
		},
	}
	for k, v := range d.Servers {
		out.Servers[k] = v
	}
	for k, v := range d.Channels {
		v.Sources = append([]string(nil), v.Sources...)
		if v.Subscribe != nil {
			op := *v.Subscribe
			v.Subscribe = &op
		}
		out.Channels[k] = v
	}
	for k, v := range d.Components.Messages {
		out.Components.Messages[k] = v
	}
	for k, v := range d.Components.Schemas {
		out.Components.Schemas[k] = v.Clone()
	}
	return out
}

// Clone deep-copies a schema object.
func (s *SchemaObject) Clone() *SchemaObject {
	if s == nil {
		return nil
	}
	out := *s
	out.Required = append([]string(nil), s.Required...)
	out.Items = s.Items.Clone()
	if s.Properties != nil {
		out.Properties = make(map[string]*SchemaObject, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	return &out
}

// Validate checks the document's internal references resolve: every channel
// subscribe points at an existing message, every message payload at an
// existing schema.
func (d *SpecificationDocument) Validate() error {
	if d.AsyncAPI == "" {
		return fmt.Errorf("document: missing asyncapi version")
	}
	if d.Info.Title == "" {
		return fmt.Errorf("document: missing info.title")
	}
	for name, ch := range d.Channels {
		if ch.Subscribe == nil {
			return fmt.Errorf("document: channel %q has no subscribe operation", name)
		}
		msgKey, ok := refTarget(ch.Subscribe.Message.Ref, "#/components/messages/")
		if !ok {
			return fmt.Errorf("document: channel %q message ref %q malformed", name, ch.Subscribe.Message.Ref)
		}
		msg, ok := d.Components.Messages[msgKey]
		if !ok {
			return fmt.Errorf("document: channel %q references missing message %q", name, msgKey)
		}
		schemaKey, ok := refTarget(msg.Payload.Ref, "#/components/schemas/")
		if !ok {
			return fmt.Errorf("document: message %q payload ref %q malformed", msgKey, msg.Payload.Ref)
		}
		if _, ok := d.Components.Schemas[schemaKey]; !ok {
			return fmt.Errorf("document: message %q references missing schema %q", msgKey, schemaKey)
		}
	}
	return nil
}

// ToJSON serializes the document as indented JSON with sorted keys.
func (d *SpecificationDocument) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToYAML serializes the document as YAML with sorted keys.
func (d *SpecificationDocument) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// FromJSON parses a document from its JSON form.
func FromJSON(data []byte) (*SpecificationDocument, error) {
	var d SpecificationDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing document JSON: %w", err)
	}
	return &d, nil
}

// FromYAML parses a document from its YAML form.
func FromYAML(data []byte) (*SpecificationDocument, error) {
	var d SpecificationDocument
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing document YAML: %w", err)
	}
	return &d, nil
}

// messageKey returns the components.messages key for a channel.
func messageKey(channel string) string {
	return channel + "_message"
}

// refEscape escapes a map key for use inside a JSON pointer.
func refEscape(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

func refUnescape(key string) string {
	key = strings.ReplaceAll(key, "~1", "/")
	return strings.ReplaceAll(key, "~0", "~")
}

// refTarget extracts and unescapes the final key of a ref with the given
// prefix.
func refTarget(ref, prefix string) (string, bool) {
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	return refUnescape(strings.TrimPrefix(ref, prefix)), true
}

// operationID builds a deterministic operation id for a channel.
func operationID(channel string) string {
	var b strings.Builder
	b.WriteString("publish_")
	for _, r := range channel {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// defaultServer builds the development server entry for a broker.
func defaultServer(b core.Broker) Server {
	return Server{
		URL:         b.DefaultServerURL(),
		Protocol:    b.Protocol(),
		Description: fmt.Sprintf("Default %s development server", b),
	}
}
