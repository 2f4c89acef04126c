// Package detectors holds the pattern model shared by every broker
// detector family. Each family lives in its own subpackage and registers
// one or more core.Detector implementations built on these patterns.
package detectors

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Pattern binds one producer-API shape to extraction metadata. Patterns
// are applied in order; the first one that yields a channel name wins.
type Pattern struct {
	ID         string
	Framework  string
	Regex      *regexp.Regexp
	Confidence float64
	// NearbyLiteral marks trigger-only patterns: the regex proves the
	// producer API is present but carries no channel capture, so the
	// channel is recovered from the nearest plausible string literal.
	NearbyLiteral bool
}

// Extract runs the ordered pattern list against one raw match. A pattern
// that matches but cannot resolve a channel name is skipped, not an
// error; when no pattern resolves one, the whole match is a no-match.
func Extract(detector string, broker core.Broker, patterns []Pattern, m core.RawMatch) (*core.EventRecord, bool) {
	for _, p := range patterns {
		sm := p.Regex.FindStringSubmatch(m.CodeSnippet)
		if sm == nil {
			continue
		}
		channel := core.CleanChannelName(firstCapture(sm))
		if channel == "" && p.NearbyLiteral {
			channel, _ = core.FirstChannelLiteral(m.CodeSnippet)
		}
		if channel == "" {
			continue
		}
		rec := core.NewEventRecord(detector, broker, p.Framework, channel, p.Confidence, m.Location())
		return rec, true
	}
	return nil, false
}

func firstCapture(sm []string) string {
	for _, g := range sm[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
