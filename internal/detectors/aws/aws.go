// Package aws detects producer call sites against the AWS messaging
// trio: SNS publishes, SQS sends and EventBridge put-events. Each is a
// separate detector so the broker attribution stays precise.
package aws

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

const (
	SNSDetectorName         = "aws-sns"
	SQSDetectorName         = "aws-sqs"
	EventBridgeDetectorName = "aws-eventbridge"
)

var (
	snsProbe = regexp.MustCompile(`(?i)\bsns\b|TopicArn|PublishCommand`)
	sqsProbe = regexp.MustCompile(`(?i)\bsqs\b|QueueUrl|send_message|SendMessageCommand`)
	ebProbe  = regexp.MustCompile(`(?i)eventbridge|put_events|PutEventsCommand|DetailType|EventBusName`)
)

// SNS detects Amazon SNS topic publishes.
type SNS struct {
	patterns []detectors.Pattern
}

func NewSNS() *SNS { return &SNS{patterns: snsPatterns()} }

func (d *SNS) Name() string        { return SNSDetectorName }
func (d *SNS) Description() string { return "Detects Amazon SNS topic publishes (boto3, AWS SDK v2/v3)" }
func (d *SNS) Broker() core.Broker { return core.BrokerSNS }
func (d *SNS) QueryFragment() string {
	return `(TopicArn OR "sns.publish" OR PublishCommand)`
}
func (d *SNS) Probe() *regexp.Regexp { return snsProbe }
func (d *SNS) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(SNSDetectorName, core.BrokerSNS, d.patterns, m)
}

// SQS detects Amazon SQS queue sends.
type SQS struct {
	patterns []detectors.Pattern
}

func NewSQS() *SQS { return &SQS{patterns: sqsPatterns()} }

func (d *SQS) Name() string        { return SQSDetectorName }
func (d *SQS) Description() string { return "Detects Amazon SQS queue sends (boto3, AWS SDK v2/v3)" }
func (d *SQS) Broker() core.Broker { return core.BrokerSQS }
func (d *SQS) QueryFragment() string {
	return `(QueueUrl OR "sqs.send_message" OR SendMessageCommand)`
}
func (d *SQS) Probe() *regexp.Regexp { return sqsProbe }
func (d *SQS) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(SQSDetectorName, core.BrokerSQS, d.patterns, m)
}

// EventBridge detects Amazon EventBridge put-events calls.
type EventBridge struct {
	patterns []detectors.Pattern
}

func NewEventBridge() *EventBridge { return &EventBridge{patterns: ebPatterns()} }

func (d *EventBridge) Name() string { return EventBridgeDetectorName }
func (d *EventBridge) Description() string {
	return "Detects Amazon EventBridge put-events calls (boto3, AWS SDK v2/v3)"
}
func (d *EventBridge) Broker() core.Broker { return core.BrokerEventBridge }
func (d *EventBridge) QueryFragment() string {
	return `(PutEventsCommand OR put_events OR DetailType OR EventBusName)`
}
func (d *EventBridge) Probe() *regexp.Regexp { return ebProbe }
func (d *EventBridge) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(EventBridgeDetectorName, core.BrokerEventBridge, d.patterns, m)
}
