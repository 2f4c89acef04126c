package ibmmq

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

func compilePatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// JMS destination literals, with or without the queue:/// prefix
		{ID: "ibmmq_create_queue", Framework: "ibm-mq-jms", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)createQueue\s*\(\s*["'](?:queue:///)?([A-Za-z0-9._/-]+)["']`)},
		{ID: "ibmmq_create_topic", Framework: "ibm-mq-jms", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)createTopic\s*\(\s*["'](?:topic://)?([A-Za-z0-9._/-]+)["']`)},
		{ID: "ibmmq_queue_ctor", Framework: "ibm-mq-jms", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)new\s+MQQueue\s*\(\s*["']([A-Za-z0-9._/-]+)["']`)},

		// Trigger-only shapes
		{ID: "ibmmq_go_object", Framework: "ibm-mq-go", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`ibmmq\.NewMQOD|ibmmq\.MQOD\{`)},
		{ID: "ibmmq_jms_producer", Framework: "ibm-mq-jms", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)createProducer\s*\(|MessageProducer\b`)},
	}
}
