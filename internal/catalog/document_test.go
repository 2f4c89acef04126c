package catalog

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/eventscout-project/eventscout/internal/core"
)

// ─── Template schema ────────────────────────────────────────────────────────

func TestTemplateSchema_Shape(t *testing.T) {
	schema := TemplateSchema()
	if schema.Type != "object" {
		t.Errorf("type = %q, want object", schema.Type)
	}
	want := map[string]struct{ typ, format, description string }{
		"eventId":   {"string", "", "Unique event identifier"},
		"timestamp": {"string", "date-time", "Event timestamp"},
		"data":      {"object", "", "Event payload data"},
	}
	if len(schema.Properties) != len(want) {
		t.Fatalf("properties = %v", schema.Properties)
	}
	for name, exp := range want {
		prop, ok := schema.Properties[name]
		if !ok {
			t.Fatalf("property %s missing", name)
		}
		if prop.Type != exp.typ || prop.Format != exp.format || prop.Description != exp.description {
			t.Errorf("%s = %+v, want %+v", name, *prop, exp)
		}
	}
}

func TestTemplateSchema_FreshPerCall(t *testing.T) {
	a := TemplateSchema()
	a.Properties["eventId"].Type = "integer"
	if TemplateSchema().Properties["eventId"].Type != "string" {
		t.Error("TemplateSchema returns shared state")
	}
}

// ─── Document shell ─────────────────────────────────────────────────────────

func TestNewDocument_InfoBlock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := NewDocument("order-service", now)

	if doc.AsyncAPI != AsyncAPIVersion {
		t.Errorf("asyncapi = %q", doc.AsyncAPI)
	}
	if doc.Info.Title != "order-service Event API" || doc.Info.Version != "1.0.0" {
		t.Errorf("info = %+v", doc.Info)
	}
	if !strings.Contains(doc.Info.Description, "order-service") {
		t.Errorf("description = %q", doc.Info.Description)
	}
	if doc.Info.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("generatedAt = %q", doc.Info.GeneratedAt)
	}
	if doc.ServiceName() != "order-service" {
		t.Errorf("ServiceName() = %q", doc.ServiceName())
	}
}

func TestBrokerSet_SortedDistinct(t *testing.T) {
	doc := synthesizeOne(t,
		testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka", core.ConfidenceExact,
			loc("org/order-service", "a.java", 1)),
		testRecord("order-service", "order.archived", core.BrokerSQS, "boto3-sqs", core.ConfidenceExact,
			loc("org/order-service", "b.py", 2)),
		testRecord("order-service", "order.shipped", core.BrokerKafka, "spring-kafka", core.ConfidenceExact,
			loc("org/order-service", "c.java", 3)),
	)
	if got := doc.BrokerSet(); !reflect.DeepEqual(got, []string{"aws-sqs", "kafka"}) {
		t.Errorf("BrokerSet() = %v", got)
	}
}

// ─── Naming helpers ─────────────────────────────────────────────────────────

func TestOperationID(t *testing.T) {
	cases := map[string]string{
		"order.placed":     "publish_order_placed",
		"user-created":     "publish_user_created",
		"PAYMENTS.REQUEST": "publish_PAYMENTS_REQUEST",
		"region/orders":    "publish_region_orders",
	}
	for channel, want := range cases {
		if got := operationID(channel); got != want {
			t.Errorf("operationID(%q) = %q, want %q", channel, got, want)
		}
	}
}

func TestRefEscapeRoundTrip(t *testing.T) {
	for _, key := range []string{"order.placed", "region/orders", "odd~key", "a~1b/c"} {
		got, ok := refTarget("#/components/schemas/"+refEscape(key), "#/components/schemas/")
		if !ok || got != key {
			t.Errorf("round trip of %q = %q, ok=%v", key, got, ok)
		}
	}
	if _, ok := refTarget("#/somewhere/else/x", "#/components/schemas/"); ok {
		t.Error("foreign ref accepted")
	}
}

func TestSlashChannelRefsResolve(t *testing.T) {
	doc := synthesizeOne(t, testRecord("edge-service", "region/orders", core.BrokerKafka, "spring-kafka",
		core.ConfidenceExact, loc("org/edge-service", "a.java", 1)))
	ch := doc.Channels["region/orders"]
	if !strings.Contains(ch.Subscribe.Message.Ref, "region~1orders_message") {
		t.Errorf("message ref not pointer-escaped: %q", ch.Subscribe.Message.Ref)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document with slash channel failed validation: %v", err)
	}
}

// ─── Validate ───────────────────────────────────────────────────────────────

func TestValidate_BrokenReferences(t *testing.T) {
	base := func() *SpecificationDocument {
		return synthesizeOne(t, testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka",
			core.ConfidenceExact, loc("org/order-service", "a.java", 1)))
	}

	cases := []struct {
		name   string
		mutate func(*SpecificationDocument)
		substr string
	}{
		{"missing subscribe", func(d *SpecificationDocument) {
			ch := d.Channels["order.placed"]
			ch.Subscribe = nil
			d.Channels["order.placed"] = ch
		}, "no subscribe"},
		{"dangling message", func(d *SpecificationDocument) {
			delete(d.Components.Messages, "order.placed_message")
		}, "missing message"},
		{"dangling schema", func(d *SpecificationDocument) {
			delete(d.Components.Schemas, "order.placed")
		}, "missing schema"},
		{"malformed ref", func(d *SpecificationDocument) {
			ch := d.Channels["order.placed"]
			op := *ch.Subscribe
			op.Message = Ref{Ref: "http://elsewhere"}
			ch.Subscribe = &op
			d.Channels["order.placed"] = ch
		}, "malformed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := base()
			tc.mutate(doc)
			err := doc.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.substr) {
				t.Errorf("error = %v, want substring %q", err, tc.substr)
			}
		})
	}
}

// ─── Serialization ──────────────────────────────────────────────────────────

func TestSerialization_RoundTrips(t *testing.T) {
	doc := synthesizeOne(t,
		testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka", core.ConfidenceExact,
			loc("org/order-service", "src/OrderEvents.java", 48)),
		testRecord("order-service", "order.cancelled", core.BrokerKafka, "kafka-python", core.ConfidenceStrong,
			loc("org/order-service", "workers/cancellations.py", 81)),
	)

	jsonData, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	fromJSON, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !reflect.DeepEqual(doc, fromJSON) {
		t.Error("JSON round trip changed the document")
	}

	yamlData, err := doc.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	fromYAML, err := FromYAML(yamlData)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if !reflect.DeepEqual(doc, fromYAML) {
		t.Error("YAML round trip changed the document")
	}

	// Both surfaces must describe the same logical document.
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Error("JSON and YAML forms disagree")
	}
}

func TestFromJSON_Garbage(t *testing.T) {
	if _, err := FromJSON([]byte("{not json")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := FromYAML([]byte(":\n\t- broken")); err == nil {
		t.Error("expected parse error")
	}
}

// ─── Clone ──────────────────────────────────────────────────────────────────

func TestClone_Independent(t *testing.T) {
	doc := synthesizeOne(t, testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka",
		core.ConfidenceExact, loc("org/order-service", "a.java", 1)))

	clone := doc.Clone()
	if !reflect.DeepEqual(doc, clone) {
		t.Fatal("clone differs from original")
	}

	ch := clone.Channels["order.placed"]
	ch.Sources[0] = "tampered"
	ch.Subscribe.Summary = "tampered"
	clone.Channels["tampered"] = ch
	clone.Components.Schemas["order.placed"].Properties["eventId"].Type = "integer"
	clone.Servers["kafka"] = Server{URL: "tampered"}

	orig := doc.Channels["order.placed"]
	if orig.Sources[0] == "tampered" || orig.Subscribe.Summary == "tampered" {
		t.Error("clone shares channel state with original")
	}
	if _, ok := doc.Channels["tampered"]; ok {
		t.Error("clone shares channel map with original")
	}
	if doc.Components.Schemas["order.placed"].Properties["eventId"].Type != "string" {
		t.Error("clone shares schema state with original")
	}
	if doc.Servers["kafka"].URL == "tampered" {
		t.Error("clone shares server map with original")
	}
}
