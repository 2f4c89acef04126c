package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Run modes recorded in reports.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
	ModeDemo   = "demo"
)

// QueryFailure is a search query that exhausted its retry budget. The run
// continued without its evidence.
type QueryFailure struct {
	Detector string `json:"detector"`
	Broker   string `json:"broker"`
	Query    string `json:"query"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// RunReport captures everything one discovery run did. A report is always
// produced, even when every query failed; partial success is the common
// case and the failure lists make it visible.
type RunReport struct {
	RunID             string         `json:"run_id"`
	Mode              string         `json:"mode"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at"`
	QueriesIssued     int            `json:"queries_issued"`
	MatchesFetched    int            `json:"matches_fetched"`
	RecordsExtracted  int            `json:"records_extracted"`
	RecordsDropped    int            `json:"records_dropped"`
	GenericSuppressed int            `json:"generic_suppressed"`
	Events            int            `json:"events"`
	Services          int            `json:"services"`
	Channels          int            `json:"channels"`
	EnrichedSchemas   int            `json:"enriched_schemas"`
	Brokers           map[string]int `json:"brokers"`
	Frameworks        map[string]int `json:"frameworks"`
	Repositories      []string       `json:"repositories"`
	QueryFailures     []QueryFailure `json:"query_failures,omitempty"`
	Warnings          []Warning      `json:"warnings,omitempty"`
	OutputDir         string         `json:"output_directory,omitempty"`
}

// NewRunReport starts a report for one run.
func NewRunReport(mode string) *RunReport {
	return &RunReport{
		RunID:      uuid.NewString(),
		Mode:       mode,
		StartedAt:  time.Now().UTC(),
		Brokers:    make(map[string]int),
		Frameworks: make(map[string]int),
	}
}

// CountRecords fills the per-broker, per-framework, and repository rollups
// from the run's merged records.
func (r *RunReport) CountRecords(records []core.EventRecord) {
	r.Events = len(records)
	repos := make(map[string]bool)
	for _, rec := range records {
		r.Brokers[string(rec.Broker)]++
		r.Frameworks[rec.Framework]++
		for _, loc := range rec.Sources {
			repos[loc.RepositoryID] = true
		}
	}
	r.Repositories = r.Repositories[:0]
	for repo := range repos {
		r.Repositories = append(r.Repositories, repo)
	}
	sort.Strings(r.Repositories)
}

// Finish stamps the end time and the catalog totals.
func (r *RunReport) Finish(ix *Index) {
	r.FinishedAt = time.Now().UTC()
	if ix != nil {
		r.Services = ix.Len()
		r.Channels = ix.TotalChannels()
	}
}

// Duration returns the run's wall-clock time.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run produced no evidence and at least one
// query failed: the distinction between "nothing out there" and "could not
// look".
func (r *RunReport) Failed() bool {
	return r.MatchesFetched == 0 && len(r.QueryFailures) > 0
}

// RenderText formats the report for terminal output.
func (r *RunReport) RenderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s mode) finished in %s\n", r.RunID, r.Mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "  Queries:   %d issued, %d failed\n", r.QueriesIssued, len(r.QueryFailures))
	fmt.Fprintf(&b, "  Matches:   %d fetched\n", r.MatchesFetched)
	fmt.Fprintf(&b, "  Records:   %d extracted, %d dropped, %d generic suppressed\n",
		r.RecordsExtracted, r.RecordsDropped, r.GenericSuppressed)
	fmt.Fprintf(&b, "  Events:    %d across %d repositories\n", r.Events, len(r.Repositories))
	fmt.Fprintf(&b, "  Catalog:   %d services, %d channels\n", r.Services, r.Channels)
	if r.EnrichedSchemas > 0 {
		fmt.Fprintf(&b, "  Schemas:   %d enriched from payload classes\n", r.EnrichedSchemas)
	}
	if len(r.Brokers) > 0 {
		fmt.Fprintf(&b, "  Brokers:   %s\n", countList(r.Brokers))
	}
	for _, f := range r.QueryFailures {
		fmt.Fprintf(&b, "  WARN query %s/%s failed after %d attempts: %s\n", f.Detector, f.Broker, f.Attempts, f.Error)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  WARN %s/%s: %s\n", w.ServiceName, w.ChannelName, w.Reason)
	}
	return b.String()
}

func countList(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
