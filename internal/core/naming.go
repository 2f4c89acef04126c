package core

import "strings"

// Service-name derivation rule identifiers, applied in configured order.
// The first rule producing a non-empty name wins; when none does, the
// literal repository identifier is used (made filename-safe).
const (
	RuleMapping      = "mapping"       // explicit repository → service table
	RuleLastSegment  = "last-segment"  // final path segment, ".git" stripped
	RuleBeforeMarker = "before-marker" // segment preceding a marker directory
)

// DefaultNamingRules is the rule order used when config specifies none.
var DefaultNamingRules = []string{RuleMapping, RuleLastSegment}

// ServiceNamer derives service names from repository identifiers. The rule
// set is fixed at construction; derivation is pure, so identical input
// yields the identical name on every run.
type ServiceNamer struct {
	rules    []string
	markers  map[string]bool
	mappings map[string]string
}

// NewServiceNamer builds a namer from the naming config section.
func NewServiceNamer(cfg NamingConfig) *ServiceNamer {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultNamingRules
	}
	markers := make(map[string]bool, len(cfg.Markers))
	for _, m := range cfg.Markers {
		markers[strings.ToLower(m)] = true
	}
	mappings := make(map[string]string, len(cfg.Mappings))
	for k, v := range cfg.Mappings {
		mappings[strings.ToLower(k)] = v
	}
	return &ServiceNamer{rules: rules, markers: markers, mappings: mappings}
}

// Derive maps a repository identifier to a service name.
func (n *ServiceNamer) Derive(repositoryID string) string {
	id := strings.TrimSpace(repositoryID)
	for _, rule := range n.rules {
		var name string
		switch rule {
		case RuleMapping:
			name = n.mappings[strings.ToLower(id)]
		case RuleLastSegment:
			name = lastSegment(id)
		case RuleBeforeMarker:
			name = n.beforeMarker(id)
		}
		if name != "" {
			return normalizeServiceName(name)
		}
	}
	return normalizeServiceName(strings.ReplaceAll(id, "/", "-"))
}

func lastSegment(id string) string {
	segs := splitRepoID(id)
	if len(segs) == 0 {
		return ""
	}
	return strings.TrimSuffix(segs[len(segs)-1], ".git")
}

func (n *ServiceNamer) beforeMarker(id string) string {
	segs := splitRepoID(id)
	for i := 1; i < len(segs); i++ {
		if n.markers[strings.ToLower(segs[i])] {
			return segs[i-1]
		}
	}
	return ""
}

// splitRepoID breaks a repository identifier into path segments, tolerating
// URL forms (https://github.com/org/repo) and bare org/repo identifiers.
func splitRepoID(id string) []string {
	if i := strings.Index(id, "://"); i >= 0 {
		id = id[i+3:]
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return nil
	}
	parts := strings.Split(id, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// normalizeServiceName lowercases and swaps underscores for hyphens so the
// same service spelled slightly differently across repositories still
// collapses to one catalog entry.
func normalizeServiceName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
