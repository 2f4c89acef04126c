package generic

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

// Everything here stays at ConfidenceGeneric: a verb with a literal is
// real evidence, but says nothing about which broker carries the event.
func compilePatterns() []detectors.Pattern {
	return []detectors.Pattern{
		{ID: "generic_emit", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric,
			Regex: regexp.MustCompile(`(?i)\.emit\s*\(\s*["']([^"']+)["']`)},
		{ID: "generic_publish", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric,
			Regex: regexp.MustCompile(`(?i)\.publish\s*\(\s*["']([^"']+)["']`)},
		{ID: "generic_send", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric,
			Regex: regexp.MustCompile(`(?i)\.send\s*\(\s*["']([^"']+)["']`)},
		{ID: "generic_produce", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric,
			Regex: regexp.MustCompile(`(?i)\.produce\s*\(\s*["']([^"']+)["']`)},
		{ID: "generic_trigger", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric,
			Regex: regexp.MustCompile(`(?i)\.(?:trigger|fire)\s*\(\s*["']([^"']+)["']`)},
		{ID: "generic_event_emitter", Framework: "generic-emitter", Confidence: core.ConfidenceGeneric, NearbyLiteral: true,
			Regex: regexp.MustCompile(`EventEmitter\b`)},
	}
}
