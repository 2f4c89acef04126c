package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

func TestNewRunReport(t *testing.T) {
	report := NewRunReport(ModeDemo)
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("run id %q not a uuid: %v", report.RunID, err)
	}
	if report.Mode != ModeDemo {
		t.Errorf("mode = %q", report.Mode)
	}
	if report.StartedAt.IsZero() {
		t.Error("StartedAt not stamped")
	}
	if report.Brokers == nil || report.Frameworks == nil {
		t.Error("count maps not initialized")
	}
}

func TestRunReport_CountRecords(t *testing.T) {
	report := NewRunReport(ModeRemote)
	report.CountRecords([]core.EventRecord{
		testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka",
			core.ConfidenceExact, loc("org/order-service", "a.java", 1)),
		testRecord("order-service", "order.cancelled", core.BrokerKafka, "kafka-python",
			core.ConfidenceExact, loc("org/order-service", "b.py", 2)),
		testRecord("audit-service", "order.placed", core.BrokerRabbitMQ, "pika",
			core.ConfidenceStrong, loc("org/audit-service", "c.py", 3)),
	})

	if report.Events != 3 {
		t.Errorf("events = %d", report.Events)
	}
	if report.Brokers["kafka"] != 2 || report.Brokers["rabbitmq"] != 1 {
		t.Errorf("brokers = %v", report.Brokers)
	}
	if report.Frameworks["spring-kafka"] != 1 || report.Frameworks["pika"] != 1 {
		t.Errorf("frameworks = %v", report.Frameworks)
	}
	want := []string{"org/audit-service", "org/order-service"}
	if len(report.Repositories) != 2 || report.Repositories[0] != want[0] || report.Repositories[1] != want[1] {
		t.Errorf("repositories = %v, want %v", report.Repositories, want)
	}
}

func TestRunReport_FinishStampsTotals(t *testing.T) {
	ix := NewIndex(zerolog.Nop())
	if _, err := ix.Upsert(orderDoc(t, "order.placed", "order.cancelled")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	report := NewRunReport(ModeLocal)
	report.Finish(ix)
	if report.FinishedAt.IsZero() {
		t.Error("FinishedAt not stamped")
	}
	if report.Services != 1 || report.Channels != 2 {
		t.Errorf("totals = %d services, %d channels", report.Services, report.Channels)
	}
	if report.Duration() < 0 {
		t.Errorf("duration = %v", report.Duration())
	}
}

func TestRunReport_Failed(t *testing.T) {
	report := NewRunReport(ModeRemote)
	if report.Failed() {
		t.Error("empty run with no failures must not count as failed")
	}
	report.QueryFailures = append(report.QueryFailures, QueryFailure{Detector: "kafka", Attempts: 3, Error: "HTTP 503"})
	if !report.Failed() {
		t.Error("zero evidence plus failures is a failed run")
	}
	report.MatchesFetched = 1
	if report.Failed() {
		t.Error("partial evidence must not count as total failure")
	}
}

func TestRunReport_RenderText(t *testing.T) {
	report := NewRunReport(ModeRemote)
	report.QueriesIssued = 7
	report.MatchesFetched = 12
	report.RecordsExtracted = 9
	report.RecordsDropped = 2
	report.EnrichedSchemas = 1
	report.CountRecords([]core.EventRecord{
		testRecord("order-service", "order.placed", core.BrokerKafka, "spring-kafka",
			core.ConfidenceExact, loc("org/order-service", "a.java", 1)),
	})
	report.QueryFailures = []QueryFailure{{Detector: "ibm-mq", Broker: "ibm-mq", Attempts: 3, Error: "HTTP 503"}}
	report.Warnings = []Warning{{ServiceName: "order-service", ChannelName: "order.placed", Reason: "channel collides"}}
	report.FinishedAt = report.StartedAt.Add(1500 * time.Millisecond)

	text := report.RenderText()
	for _, want := range []string{
		report.RunID,
		"remote mode",
		"7 issued, 1 failed",
		"12 fetched",
		"9 extracted, 2 dropped",
		"1 enriched from payload classes",
		"kafka=1",
		"WARN query ibm-mq/ibm-mq failed after 3 attempts: HTTP 503",
		"WARN order-service/order.placed: channel collides",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered report missing %q\n%s", want, text)
		}
	}
}
