package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/eventscout-project/eventscout/internal/core"
)

func cacheRecord(service, channel string, confidence float64) *core.EventRecord {
	rec := core.NewEventRecord("kafka", core.BrokerKafka, "spring-kafka", channel, confidence, core.SourceLocation{
		RepositoryID: "org/" + service,
		FilePath:     "src/Producer.java",
		LineNumber:   42,
	})
	rec.ServiceName = service
	return rec
}

func TestRecordCache_FirstSightNotSeen(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	if c.Seen(cacheRecord("order-service", "order.placed", 0.9)) {
		t.Error("first record should not be suppressed")
	}
}

func TestRecordCache_IdenticalRecordSeen(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	c.Seen(cacheRecord("order-service", "order.placed", 0.9))
	if !c.Seen(cacheRecord("order-service", "order.placed", 0.9)) {
		t.Error("identical record should be suppressed")
	}
}

func TestRecordCache_RunScopedFieldsIgnored(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	a := cacheRecord("order-service", "order.placed", 0.9)
	b := cacheRecord("order-service", "order.placed", 0.9)
	// Fresh UUID and timestamp per record; the fingerprint must not care.
	if a.ID == b.ID {
		t.Fatal("expected distinct record IDs")
	}
	c.Seen(a)
	if !c.Seen(b) {
		t.Error("records differing only in ID and DetectedAt should share a fingerprint")
	}
}

func TestRecordCache_DifferentChannelNotSeen(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	c.Seen(cacheRecord("order-service", "order.placed", 0.9))
	if c.Seen(cacheRecord("order-service", "order.cancelled", 0.9)) {
		t.Error("different channel should not be suppressed")
	}
}

func TestRecordCache_ConfidenceChangeRepublishes(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	c.Seen(cacheRecord("order-service", "order.placed", 0.75))
	if c.Seen(cacheRecord("order-service", "order.placed", 0.9)) {
		t.Error("a confidence upgrade should republish")
	}
}

func TestRecordCache_SourceChangeRepublishes(t *testing.T) {
	c := NewRecordCache(5*time.Second, 1000)
	a := cacheRecord("order-service", "order.placed", 0.9)
	b := cacheRecord("order-service", "order.placed", 0.9)
	b.Sources = append(b.Sources, core.SourceLocation{
		RepositoryID: "org/order-service",
		FilePath:     "src/OtherProducer.java",
		LineNumber:   7,
	})
	c.Seen(a)
	if c.Seen(b) {
		t.Error("new evidence should republish")
	}
}

func TestRecordCache_TTLExpiry(t *testing.T) {
	c := NewRecordCache(50*time.Millisecond, 1000)
	rec := cacheRecord("order-service", "order.placed", 0.9)
	c.Seen(rec)
	time.Sleep(100 * time.Millisecond)
	if c.Seen(rec) {
		t.Error("record should republish after TTL expiry")
	}
}

func TestRecordCache_MaxSizeEviction(t *testing.T) {
	c := NewRecordCache(10*time.Second, 10)
	for i := 0; i < 20; i++ {
		c.Seen(cacheRecord("order-service", fmt.Sprintf("channel.%d", i), 0.9))
	}
	if c.Size() > 15 { // some slack for eviction timing
		t.Errorf("cache size %d exceeds expected cap", c.Size())
	}
}

func TestRecordCache_StartCleanup(t *testing.T) {
	c := NewRecordCache(50*time.Millisecond, 1000)
	c.Seen(cacheRecord("order-service", "order.placed", 0.9))
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}

	stop := c.StartCleanup(50 * time.Millisecond)
	defer stop()

	time.Sleep(200 * time.Millisecond)
	if c.Size() != 0 {
		t.Errorf("expected size 0 after cleanup, got %d", c.Size())
	}
}

func TestRecordCache_Defaults(t *testing.T) {
	c := NewRecordCache(0, 0)
	if c.ttl != 24*time.Hour {
		t.Errorf("default ttl = %v, want 24h", c.ttl)
	}
	if c.maxSize != 100000 {
		t.Errorf("default maxSize = %d, want 100000", c.maxSize)
	}
}
