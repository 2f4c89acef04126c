package search

import (
	"context"
	"fmt"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Fixture is an offline Searcher serving canned multi-service evidence.
// It backs the demo command so the full pipeline can run without network
// access or a search token.
type Fixture struct{}

var _ Searcher = (*Fixture)(nil)

// NewFixture returns the canned searcher.
func NewFixture() *Fixture {
	return &Fixture{}
}

// Search returns the canned matches for the query's detector.
func (f *Fixture) Search(ctx context.Context, q Query) ([]core.RawMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.RawMatch
	for _, fm := range fixtureMatches {
		if fm.detector != q.Detector {
			continue
		}
		m := fm.match
		m.MatchedPatternID = q.Detector
		out = append(out, m)
	}
	return out, nil
}

// Ping always succeeds: the fixture is never unreachable.
func (f *Fixture) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FileContent serves the canned source files referenced by the fixture
// matches, so demo runs exercise schema enrichment end to end.
func (f *Fixture) FileContent(ctx context.Context, repository, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, ok := fixtureFiles[repository+"\x00"+path]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, repository, path)
	}
	return content, nil
}

type fixtureMatch struct {
	detector string
	match    core.RawMatch
}

var fixtureMatches = []fixtureMatch{
	{"kafka", core.RawMatch{
		RepositoryID:   "github.com/acme/order-service",
		FilePath:       "src/main/java/com/acme/orders/OrderEvents.java",
		LineNumber:     48,
		SourceLanguage: "java",
		CodeSnippet:    `kafkaTemplate.send("order.placed", order.getId(), new OrderPlacedEvent(order));`,
	}},
	{"kafka", core.RawMatch{
		RepositoryID:   "github.com/acme/order-service",
		FilePath:       "workers/cancellations.py",
		LineNumber:     81,
		SourceLanguage: "python",
		CodeSnippet:    `producer.send('order.cancelled', value=encode(event))`,
	}},
	{"kafka", core.RawMatch{
		RepositoryID:   "github.com/acme/inventory-service",
		FilePath:       "src/stock/publisher.js",
		LineNumber:     27,
		SourceLanguage: "javascript",
		CodeSnippet:    `await producer.send({ topic: 'inventory.low', messages: [msg] })`,
	}},
	{"rabbitmq", core.RawMatch{
		RepositoryID:   "github.com/acme/payment-service",
		FilePath:       "payments/publisher.py",
		LineNumber:     64,
		SourceLanguage: "python",
		CodeSnippet:    `channel.basic_publish(exchange='', routing_key='payment.captured', body=msg)`,
	}},
	{"rabbitmq", core.RawMatch{
		RepositoryID:   "github.com/acme/payment-service",
		FilePath:       "src/main/java/com/acme/pay/RefundPublisher.java",
		LineNumber:     39,
		SourceLanguage: "java",
		CodeSnippet:    `rabbitTemplate.convertAndSend("payment.refunded", refund);`,
	}},
	{"aws-sns", core.RawMatch{
		RepositoryID:   "github.com/acme/notification-service",
		FilePath:       "notify/signup.py",
		LineNumber:     22,
		SourceLanguage: "python",
		CodeSnippet:    `sns.publish(TopicArn="arn:aws:sns:us-east-1:123456789012:user-signups", Message=body)`,
	}},
	{"aws-sqs", core.RawMatch{
		RepositoryID:   "github.com/acme/notification-service",
		FilePath:       "notify/outbound.py",
		LineNumber:     57,
		SourceLanguage: "python",
		CodeSnippet:    `sqs.send_message(QueueUrl="https://sqs.us-east-1.amazonaws.com/123456789012/email-outbound", MessageBody=body)`,
	}},
	{"aws-eventbridge", core.RawMatch{
		RepositoryID:   "github.com/acme/order-service",
		FilePath:       "src/events/bridge.py",
		LineNumber:     33,
		SourceLanguage: "python",
		CodeSnippet:    `events.put_events(Entries=[{"DetailType": "Order Placed", "EventBusName": "commerce-bus", "Detail": detail}])`,
	}},
	{"ibm-mq", core.RawMatch{
		RepositoryID:   "github.com/acme/legacy-bank-bridge",
		FilePath:       "src/main/java/com/acme/bank/MQSender.java",
		LineNumber:     112,
		SourceLanguage: "java",
		CodeSnippet:    `Destination dest = session.createQueue("queue:///PAYMENTS.REQUEST");`,
	}},
	{"generic", core.RawMatch{
		RepositoryID:   "github.com/acme/analytics-service",
		FilePath:       "src/track.js",
		LineNumber:     19,
		SourceLanguage: "javascript",
		CodeSnippet:    `eventBus.emit('analytics.pageview', enrich(data))`,
	}},
}

var fixtureFiles = map[string]string{
	"github.com/acme/order-service\x00src/main/java/com/acme/orders/OrderEvents.java": orderEventsJava,
}

const orderEventsJava = `package com.acme.orders;

import java.math.BigDecimal;
import java.time.Instant;
import java.util.List;
import java.util.Optional;

public class OrderPlacedEvent {
    private String orderId;
    private String customerId;
    private BigDecimal totalAmount;
    private Instant placedAt;
    private List<String> itemSkus;
    private Optional<String> couponCode;

    public OrderPlacedEvent(Order order) {
        this.orderId = order.getId();
        this.customerId = order.getCustomerId();
        this.totalAmount = order.total();
        this.placedAt = Instant.now();
        this.itemSkus = order.skus();
        this.couponCode = order.coupon();
    }
}
`
