// Package search talks to the code-search collaborator that supplies raw
// producer-call evidence. The core never depends on the collaborator's wire
// shape: everything behind Searcher is reduced to core.RawMatch values.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Typed failures the client maps collaborator responses onto. The pool
// retries the transient ones and gives up immediately on the rest.
var (
	ErrRateLimited = errors.New("search: rate limited")
	ErrUnavailable = errors.New("search: collaborator unavailable")
	ErrNotFound    = errors.New("search: not found")
	ErrTimeout     = errors.New("search: query timed out")
)

// Retryable reports whether a search failure is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// Searcher is the collaborator boundary: one query in, raw matches out.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]core.RawMatch, error)
	Ping(ctx context.Context) error
}

// Query is one unit of discovery work: a detector's query fragment plus
// optional repository and language filters.
type Query struct {
	Detector   string      `json:"detector"`
	Broker     core.Broker `json:"broker"`
	Fragment   string      `json:"fragment"`
	Repository string      `json:"repository,omitempty"`
	Languages  []string    `json:"languages,omitempty"`
}

// String renders the final collaborator query text.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Fragment)
	if q.Repository != "" {
		b.WriteString(" repo:")
		b.WriteString(q.Repository)
	}
	switch len(q.Languages) {
	case 0:
	case 1:
		b.WriteString(" lang:")
		b.WriteString(q.Languages[0])
	default:
		b.WriteString(" (")
		for i, l := range q.Languages {
			if i > 0 {
				b.WriteString(" or ")
			}
			b.WriteString("lang:")
			b.WriteString(l)
		}
		b.WriteString(")")
	}
	return b.String()
}

// BuildQueries expands the detector set into one query per detector and
// repository filter. With no repositories configured a single unfiltered
// query per detector is produced.
func BuildQueries(dets []core.Detector, repos, langs []string) []Query {
	var queries []Query
	for _, d := range dets {
		if len(repos) == 0 {
			queries = append(queries, Query{
				Detector:  d.Name(),
				Broker:    d.Broker(),
				Fragment:  d.QueryFragment(),
				Languages: langs,
			})
			continue
		}
		for _, repo := range repos {
			queries = append(queries, Query{
				Detector:   d.Name(),
				Broker:     d.Broker(),
				Fragment:   d.QueryFragment(),
				Repository: repo,
				Languages:  langs,
			})
		}
	}
	return queries
}
