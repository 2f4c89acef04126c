package rabbitmq

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

func compilePatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// pika: keyword args carry the routing key (or exchange)
		{ID: "rabbit_publish_routing_key", Framework: "pika", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)basic_publish\s*\([^)]*routing_key\s*=\s*["']([^"']+)["']`)},
		// pika: positional (exchange, routing_key) — first non-empty capture wins,
		// so an empty exchange '' falls through to the routing key
		{ID: "rabbit_publish_positional", Framework: "pika", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)basic_publish\s*\(\s*["']([^"']*)["']\s*,\s*["']([^"']+)["']`)},
		{ID: "rabbit_publish_exchange", Framework: "pika", Confidence: core.ConfidenceStrong,
			Regex: regexp.MustCompile(`(?i)basic_publish\s*\([^)]*exchange\s*=\s*["']([^"']+)["']`)},

		// Spring AMQP
		{ID: "rabbit_template_convert", Framework: "spring-amqp", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)rabbitTemplate\.convertAndSend\s*\(\s*["']([^"']+)["']`)},
		{ID: "rabbit_template_send", Framework: "spring-amqp", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)rabbitTemplate\.send\s*\(\s*["']([^"']+)["']`)},
		{ID: "rabbit_template_ref", Framework: "spring-amqp", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)rabbitTemplate\b`)},

		// Go amqp091 and the pika connection itself
		{ID: "rabbit_amqp_publish", Framework: "amqp091", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`\.Publish(?:WithContext)?\s*\(`)},
		{ID: "rabbit_pika_connection", Framework: "pika", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)pika\.BlockingConnection`)},
	}
}
