// Package kafka detects Kafka producer call sites across the common
// client stacks: Spring's KafkaTemplate, the Java client's
// ProducerRecord, kafka-python, kafkajs and sarama.
package kafka

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

const DetectorName = "kafka"

var probe = regexp.MustCompile(`(?i)kafka|ProducerRecord|@SendTo|sarama\.`)

// Detector is the Kafka producer detector.
type Detector struct {
	patterns []detectors.Pattern
}

func New() *Detector {
	return &Detector{patterns: compilePatterns()}
}

func (d *Detector) Name() string { return DetectorName }
func (d *Detector) Description() string {
	return "Detects Kafka producer call sites (KafkaTemplate, ProducerRecord, kafka-python, kafkajs, sarama)"
}
func (d *Detector) Broker() core.Broker { return core.BrokerKafka }

func (d *Detector) QueryFragment() string {
	return `(KafkaTemplate OR KafkaProducer OR ProducerRecord OR "producer.send" OR sarama)`
}

func (d *Detector) Probe() *regexp.Regexp { return probe }

func (d *Detector) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(DetectorName, core.BrokerKafka, d.patterns, m)
}
