// Package ibmmq detects IBM MQ producer call sites: JMS destinations
// and the Go ibmmq client.
package ibmmq

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

const DetectorName = "ibm-mq"

var probe = regexp.MustCompile(`(?i)MQQueue|ibmmq\.|createQueue|createTopic|queue:///`)

// Detector is the IBM MQ producer detector.
type Detector struct {
	patterns []detectors.Pattern
}

func New() *Detector {
	return &Detector{patterns: compilePatterns()}
}

func (d *Detector) Name() string { return DetectorName }
func (d *Detector) Description() string {
	return "Detects IBM MQ producer call sites (JMS destinations, ibmmq Go client)"
}
func (d *Detector) Broker() core.Broker { return core.BrokerIBMMQ }

func (d *Detector) QueryFragment() string {
	return `(MQQueue OR ibmmq OR createQueue OR "queue:///")`
}

func (d *Detector) Probe() *regexp.Regexp { return probe }

func (d *Detector) Extract(m core.RawMatch) (*core.EventRecord, bool) {
	return detectors.Extract(DetectorName, core.BrokerIBMMQ, d.patterns, m)
}
