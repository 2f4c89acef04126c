package engine

import (
	"fmt"
	"testing"

	"github.com/eventscout-project/eventscout/internal/core"
)

func ringRecord(channel string) core.EventRecord {
	rec := cacheRecord("order-service", channel, 0.9)
	return *rec
}

func TestRecordRing_EmptyReturnsNothing(t *testing.T) {
	r := NewRecordRing(8)
	if got := r.Recent(5); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRecordRing_RecentInInsertionOrder(t *testing.T) {
	r := NewRecordRing(8)
	r.Push(ringRecord("a"), ringRecord("b"), ringRecord("c"))

	got := r.Recent(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ChannelName != want {
			t.Errorf("record %d = %q, want %q", i, got[i].ChannelName, want)
		}
	}
}

func TestRecordRing_RequestMoreThanHeld(t *testing.T) {
	r := NewRecordRing(8)
	r.Push(ringRecord("a"), ringRecord("b"))
	if got := r.Recent(100); len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestRecordRing_WrapKeepsNewest(t *testing.T) {
	r := NewRecordRing(4)
	for i := 0; i < 10; i++ {
		r.Push(ringRecord(fmt.Sprintf("ch.%d", i)))
	}

	if r.Len() != 4 {
		t.Fatalf("Len = %d, want 4", r.Len())
	}
	got := r.Recent(4)
	for i, want := range []string{"ch.6", "ch.7", "ch.8", "ch.9"} {
		if got[i].ChannelName != want {
			t.Errorf("record %d = %q, want %q", i, got[i].ChannelName, want)
		}
	}
}

func TestRecordRing_RecentSubset(t *testing.T) {
	r := NewRecordRing(8)
	for i := 0; i < 5; i++ {
		r.Push(ringRecord(fmt.Sprintf("ch.%d", i)))
	}

	got := r.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ChannelName != "ch.3" || got[1].ChannelName != "ch.4" {
		t.Errorf("got %q, %q; want ch.3, ch.4", got[0].ChannelName, got[1].ChannelName)
	}
}
