// Package generic detects bare emit/publish/send/produce verbs that name
// a channel but carry no recognizable broker API. It is the lowest
// confidence family: the registry suppresses its claim whenever a
// broker-specific detector claims the same match.
package generic

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

const DetectorName = "generic"

var probe = regexp.MustCompile(`(?i)\.(emit|publish|send|produce|trigger|fire)\s*\(|EventEmitter`)

// Detector is the generic emitter detector.
type Detector struct {
	patterns []detectors.Pattern
}

func New() *Detector {
	return &Detector{patterns: compilePatterns()}
}

func (d *Detector) Name() string { return DetectorName }
func (d *Detector) Description() string {
	return "Detects generic emit/publish/send/produce calls with a channel literal"
}
func (d *Detector) Broker() core.Broker { return core.BrokerGeneric }

func (d *Detector) QueryFragment() string {
	return `(".emit(" OR ".publish(" OR ".produce(" OR EventEmitter)`
}

func (d *Detector) Probe() *regexp.Regexp { return probe }

func (d *Detector) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(DetectorName, core.BrokerGeneric, d.patterns, m)
}
