package kafka

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

func compilePatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// Exact call shapes with the topic literal in the call itself
		{ID: "kafka_template_send", Framework: "spring-kafka", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)kafkaTemplate\.send\s*\(\s*["']([^"']+)["']`)},
		{ID: "kafka_send_to", Framework: "spring-kafka", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`@SendTo\s*\(\s*["']([^"']+)["']`)},
		{ID: "kafka_producer_record", Framework: "kafka-clients", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)new\s+ProducerRecord\s*(?:<[^>]*>)?\s*\(\s*["']([^"']+)["']`)},
		{ID: "kafka_python_send", Framework: "kafka-python", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)producer\.send\s*\(\s*["']([^"']+)["']`)},
		{ID: "kafka_js_send", Framework: "kafkajs", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)\.send\s*\(\s*\{[^}]*topic\s*:\s*["']([^"']+)["']`)},
		{ID: "kafka_sarama_message", Framework: "sarama", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`ProducerMessage\s*\{[^}]*Topic\s*:\s*["']([^"']+)["']`)},

		// Trigger-only shapes: the API is present, the topic sits nearby
		{ID: "kafka_template_ref", Framework: "spring-kafka", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)kafkaTemplate\b`)},
		{ID: "kafka_producer_ctor", Framework: "kafka-clients", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)new\s+KafkaProducer|KafkaProducer\s*<|KafkaProducer\s*\(`)},
		{ID: "kafka_producer_send", Framework: "kafka-clients", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)kafka\w*\.\w*send\w*\s*\(`)},
	}
}
