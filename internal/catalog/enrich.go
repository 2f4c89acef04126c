package catalog

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Enricher supplies richer payload schemas than the template. A returned
// schema replaces the template wholesale; Enrich never merges.
type Enricher interface {
	Enrich(service, channel string) (*SchemaObject, bool)
}

// ContentFetcher retrieves full file contents so class declarations can be
// parsed. The search client and the demo fixture both implement it.
type ContentFetcher interface {
	FileContent(ctx context.Context, repository, path string) (string, error)
}

// ClassEnricher resolves payload classes constructed at producer call
// sites (new OrderPlacedEvent(...)) into JSON schemas by parsing the
// class declaration out of the match's file.
type ClassEnricher struct {
	fetcher ContentFetcher
	logger  zerolog.Logger

	mu       sync.Mutex
	schemas  map[string]*SchemaObject
	enriched int
}

var _ Enricher = (*ClassEnricher)(nil)

// NewClassEnricher builds an enricher over a content fetcher. A nil
// fetcher produces an enricher that never enriches.
func NewClassEnricher(fetcher ContentFetcher, logger zerolog.Logger) *ClassEnricher {
	return &ClassEnricher{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "enricher").Logger(),
		schemas: make(map[string]*SchemaObject),
	}
}

// Prepare inspects the run's evidence for payload class constructors and
// resolves each to a schema before synthesis. Failures are silent: a class
// that cannot be found or parsed simply leaves the template in place.
func (e *ClassEnricher) Prepare(ctx context.Context, records []core.EventRecord, matches []core.RawMatch) {
	if e.fetcher == nil {
		return
	}

	snippets := make(map[string]string, len(matches))
	for _, m := range matches {
		snippets[m.Location().String()] = m.CodeSnippet
	}
	files := make(map[string]string)

	for _, rec := range records {
		key := enrichKey(rec.ServiceName, rec.ChannelName)
		e.mu.Lock()
		_, done := e.schemas[key]
		e.mu.Unlock()
		if done {
			continue
		}
		for _, loc := range rec.Sources {
			if ctx.Err() != nil {
				return
			}
			className := payloadClassName(snippets[loc.String()])
			if className == "" {
				continue
			}
			content, err := e.fileContent(ctx, files, loc.RepositoryID, loc.FilePath)
			if err != nil {
				e.logger.Debug().Err(err).Str("class", className).Msg("payload class file unavailable")
				continue
			}
			schema := parseClassSchema(content, className)
			if schema == nil {
				continue
			}
			e.mu.Lock()
			e.schemas[key] = schema
			e.mu.Unlock()
			e.logger.Debug().
				Str("service", rec.ServiceName).
				Str("channel", rec.ChannelName).
				Str("class", className).
				Msg("payload schema enriched from class declaration")
			break
		}
	}
}

// Enrich returns the prepared schema for a (service, channel) key.
func (e *ClassEnricher) Enrich(service, channel string) (*SchemaObject, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.schemas[enrichKey(service, channel)]
	if ok {
		e.enriched++
	}
	return s, ok
}

// Enriched returns how many channels received a class-derived schema.
func (e *ClassEnricher) Enriched() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enriched
}

func (e *ClassEnricher) fileContent(ctx context.Context, cache map[string]string, repo, path string) (string, error) {
	key := repo + "\x00" + path
	if content, ok := cache[key]; ok {
		return content, nil
	}
	content, err := e.fetcher.FileContent(ctx, repo, path)
	if err != nil {
		return "", err
	}
	cache[key] = content
	return content, nil
}

func enrichKey(service, channel string) string {
	return service + "\x00" + channel
}

// Payload classes are recognized by naming convention at the call site.
var payloadClassRe = regexp.MustCompile(`\b(?:new\s+)?([A-Z][A-Za-z0-9]*(?:Event|Message|Payload|Dto))\s*\(`)

func payloadClassName(snippet string) string {
	m := payloadClassRe.FindStringSubmatch(snippet)
	if m == nil {
		return ""
	}
	return m[1]
}

var javaFieldRe = regexp.MustCompile(`(?m)^\s*(?:private|public|protected)\s+(?:final\s+)?([A-Za-z_][A-Za-z0-9_.]*(?:<[^>]+>)?)\s+([A-Za-z_]\w*)\s*;`)

var kotlinParamRe = regexp.MustCompile(`(?:val|var)\s+(\w+)\s*:\s*([\w.<>?]+)`)

// parseClassSchema extracts a JSON schema from a Java class or Kotlin data
// class declaration found in content. Returns nil when the class or its
// fields cannot be located.
func parseClassSchema(content, className string) *SchemaObject {
	declRe := regexp.MustCompile(`(?:class|record)\s+` + regexp.QuoteMeta(className) + `\b`)
	decl := declRe.FindStringIndex(content)
	if decl == nil {
		return nil
	}
	body := content[decl[1]:]

	schema := &SchemaObject{
		Type:        "object",
		Title:       className,
		Description: "Schema for " + className,
		Properties:  make(map[string]*SchemaObject),
	}

	rest := strings.TrimLeft(body, " \t\r\n")
	if strings.HasPrefix(rest, "(") {
		// Kotlin data class: properties are constructor parameters.
		params := rest
		if end := strings.Index(rest, ")"); end >= 0 {
			params = rest[:end]
		}
		for _, m := range kotlinParamRe.FindAllStringSubmatch(params, -1) {
			prop, nullable := typeSchema(m[2])
			schema.Properties[m[1]] = prop
			if !nullable {
				schema.Required = append(schema.Required, m[1])
			}
		}
	} else {
		for _, m := range javaFieldRe.FindAllStringSubmatch(body, -1) {
			prop, nullable := typeSchema(m[1])
			schema.Properties[m[2]] = prop
			if !nullable {
				schema.Required = append(schema.Required, m[2])
			}
		}
	}

	if len(schema.Properties) == 0 {
		return nil
	}
	return schema
}

var primitiveSchemas = map[string]SchemaObject{
	"String":        {Type: "string"},
	"Integer":       {Type: "integer"},
	"int":           {Type: "integer"},
	"Int":           {Type: "integer"},
	"Long":          {Type: "integer", Format: "int64"},
	"long":          {Type: "integer", Format: "int64"},
	"Double":        {Type: "number", Format: "double"},
	"double":        {Type: "number", Format: "double"},
	"Float":         {Type: "number", Format: "float"},
	"float":         {Type: "number", Format: "float"},
	"Boolean":       {Type: "boolean"},
	"boolean":       {Type: "boolean"},
	"BigDecimal":    {Type: "string", Format: "decimal"},
	"LocalDate":     {Type: "string", Format: "date"},
	"LocalDateTime": {Type: "string", Format: "date-time"},
	"Instant":       {Type: "string", Format: "date-time"},
	"UUID":          {Type: "string", Format: "uuid"},
}

// typeSchema maps a Java/Kotlin type to a schema plus whether the field is
// nullable (Optional wrapper or Kotlin ? suffix).
func typeSchema(t string) (*SchemaObject, bool) {
	t = strings.TrimSpace(t)
	nullable := false
	if strings.HasSuffix(t, "?") {
		nullable = true
		t = strings.TrimSuffix(t, "?")
	}
	if inner, ok := genericInner(t, "Optional"); ok {
		nullable = true
		t = inner
	}

	for _, container := range []string{"List", "Set", "Collection"} {
		if inner, ok := genericInner(t, container); ok {
			item, _ := typeSchema(inner)
			return &SchemaObject{Type: "array", Items: item}, nullable
		}
	}
	if strings.HasPrefix(t, "Map<") || strings.HasPrefix(t, "Map ") || t == "Map" {
		return &SchemaObject{Type: "object"}, nullable
	}

	if prim, ok := primitiveSchemas[t]; ok {
		s := prim
		return &s, nullable
	}
	return &SchemaObject{Type: "object", Description: "Complex type: " + t}, nullable
}

func genericInner(t, base string) (string, bool) {
	if strings.HasPrefix(t, base+"<") && strings.HasSuffix(t, ">") {
		return strings.TrimSpace(t[len(base)+1 : len(t)-1]), true
	}
	return "", false
}
