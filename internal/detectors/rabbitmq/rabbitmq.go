// Package rabbitmq detects RabbitMQ publisher call sites: Spring's
// RabbitTemplate, pika's basic_publish and the Go amqp091 client.
package rabbitmq

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

const DetectorName = "rabbitmq"

var probe = regexp.MustCompile(`(?i)rabbit|basic_publish|amqp|pika\.`)

// Detector is the RabbitMQ publisher detector.
type Detector struct {
	patterns []detectors.Pattern
}

func New() *Detector {
	return &Detector{patterns: compilePatterns()}
}

func (d *Detector) Name() string { return DetectorName }
func (d *Detector) Description() string {
	return "Detects RabbitMQ publisher call sites (RabbitTemplate, pika basic_publish, amqp091)"
}
func (d *Detector) Broker() core.Broker { return core.BrokerRabbitMQ }

func (d *Detector) QueryFragment() string {
	return `(RabbitTemplate OR basic_publish OR PublishWithContext OR "pika.BlockingConnection")`
}

func (d *Detector) Probe() *regexp.Regexp { return probe }

func (d *Detector) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(DetectorName, core.BrokerRabbitMQ, d.patterns, m)
}
