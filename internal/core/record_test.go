package core

import (
	"testing"
)

// ─── Broker ──────────────────────────────────────────────────────────────────

func TestBroker_Valid(t *testing.T) {
	for _, b := range Brokers() {
		if !b.Valid() {
			t.Errorf("Broker %q should be valid", b)
		}
	}
	if Broker("pigeon").Valid() {
		t.Error("unknown broker should not be valid")
	}
}

func TestBroker_Protocol(t *testing.T) {
	cases := []struct {
		broker Broker
		proto  string
	}{
		{BrokerKafka, "kafka"},
		{BrokerRabbitMQ, "amqp"},
		{BrokerSNS, "sns"},
		{BrokerSQS, "sqs"},
		{BrokerEventBridge, "eventbridge"},
		{BrokerIBMMQ, "ibmmq"},
		{BrokerGeneric, "generic"},
	}
	for _, tc := range cases {
		if got := tc.broker.Protocol(); got != tc.proto {
			t.Errorf("%s.Protocol() = %q, want %q", tc.broker, got, tc.proto)
		}
	}
}

func TestBroker_DefaultServerURL(t *testing.T) {
	for _, b := range Brokers() {
		if b.DefaultServerURL() == "" {
			t.Errorf("%s.DefaultServerURL() should not be empty", b)
		}
	}
}

// ─── RawMatch ────────────────────────────────────────────────────────────────

func TestRawMatch_Validate(t *testing.T) {
	good := RawMatch{
		RepositoryID: "github.com/acme/svc",
		FilePath:     "main.go",
		LineNumber:   10,
		CodeSnippet:  `producer.send("x.y")`,
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid match rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(m *RawMatch)
	}{
		{"empty repo", func(m *RawMatch) { m.RepositoryID = "  " }},
		{"empty path", func(m *RawMatch) { m.FilePath = "" }},
		{"negative line", func(m *RawMatch) { m.LineNumber = -1 }},
		{"empty snippet", func(m *RawMatch) { m.CodeSnippet = "\t\n" }},
	}
	for _, tc := range cases {
		m := good
		tc.mut(&m)
		if err := m.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

// ─── SourceLocation ──────────────────────────────────────────────────────────

func TestSortLocations_OrdersAndDedupes(t *testing.T) {
	locs := []SourceLocation{
		{RepositoryID: "b", FilePath: "z.go", LineNumber: 9},
		{RepositoryID: "a", FilePath: "a.go", LineNumber: 2},
		{RepositoryID: "b", FilePath: "z.go", LineNumber: 9},
		{RepositoryID: "a", FilePath: "a.go", LineNumber: 1},
	}
	sorted := SortLocations(locs)
	if len(sorted) != 3 {
		t.Fatalf("len = %d, want 3 after dedup", len(sorted))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].String() >= sorted[i].String() {
			t.Errorf("locations out of order: %s >= %s", sorted[i-1], sorted[i])
		}
	}
}

// ─── EventRecord ─────────────────────────────────────────────────────────────

func validRecord() *EventRecord {
	rec := NewEventRecord("kafka", BrokerKafka, "spring-kafka", "order.placed", ConfidenceExact,
		SourceLocation{RepositoryID: "org/order-service", FilePath: "a.java", LineNumber: 3})
	rec.ServiceName = "order-service"
	return rec
}

func TestEventRecord_Validate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(r *EventRecord)
	}{
		{"empty service", func(r *EventRecord) { r.ServiceName = "" }},
		{"blank channel", func(r *EventRecord) { r.ChannelName = "   " }},
		{"bad broker", func(r *EventRecord) { r.Broker = "telegraph" }},
		{"zero confidence", func(r *EventRecord) { r.Confidence = 0 }},
		{"confidence above one", func(r *EventRecord) { r.Confidence = 1.5 }},
		{"no sources", func(r *EventRecord) { r.Sources = nil }},
	}
	for _, tc := range cases {
		r := validRecord()
		tc.mut(r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestEventRecord_DedupKey(t *testing.T) {
	a := validRecord()
	b := validRecord()
	if a.DedupKey() != b.DedupKey() {
		t.Error("identical (service, broker, channel) should share a dedup key")
	}
	b.Broker = BrokerRabbitMQ
	if a.DedupKey() == b.DedupKey() {
		t.Error("different brokers must not share a dedup key")
	}
}

func TestEventRecord_MarshalRoundTrip(t *testing.T) {
	rec := validRecord()
	data, err := rec.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	back, err := UnmarshalEventRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalEventRecord() error: %v", err)
	}
	if back.ChannelName != rec.ChannelName || back.Broker != rec.Broker || back.ServiceName != rec.ServiceName {
		t.Errorf("round trip mismatch: got %+v", back)
	}
}

// ─── Channel literals ────────────────────────────────────────────────────────

func TestFirstChannelLiteral(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{`send("order.placed", x)`, "order.placed", true},
		{`emit('userCreated')`, "userCreated", true},
		{"publish(`deploy/done`)", "deploy/done", true},
		{`f("_private", "backup.daily")`, "backup.daily", true},
		{`encode("utf-8"); publish("real.topic")`, "real.topic", true},
		{`x("ab")`, "", false},
		{`nothing quoted here`, "", false},
	}
	for _, tc := range cases {
		got, ok := FirstChannelLiteral(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Errorf("FirstChannelLiteral(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCleanChannelName(t *testing.T) {
	if got := CleanChannelName("  order.placed "); got != "order.placed" {
		t.Errorf("got %q, want trimmed order.placed", got)
	}
	for _, bad := range []string{"", "ab", "_hidden", "utf-8", "has\tcontrol", `qu"ote`} {
		if got := CleanChannelName(bad); got != "" {
			t.Errorf("CleanChannelName(%q) = %q, want rejection", bad, got)
		}
	}
	if got := CleanChannelName("Order Placed"); got != "Order Placed" {
		t.Errorf("inner spaces should survive, got %q", got)
	}
}
