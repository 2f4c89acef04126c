package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

const (
	specsSubdir   = "specs"
	reportsSubdir = "reports"
	indexFileName = "catalog-index.json"
	summaryName   = "SUMMARY.txt"
)

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9._-]`)

// sanitizeServiceFile turns a service name into a safe filename stem.
func sanitizeServiceFile(service string) string {
	return unsafeFileChars.ReplaceAllString(strings.ToLower(service), "-")
}

// specRelPath is the index-relative YAML path for a service's document.
func specRelPath(service string) string {
	return path.Join(specsSubdir, sanitizeServiceFile(service)+".asyncapi.yaml")
}

// Store persists the catalog to a directory tree:
//
//	specs/<service>.asyncapi.yaml       one document per service
//	specs/<service>.asyncapi.json       the same document in JSON
//	catalog-index.json                  index snapshot
//	reports/discovery-report-<ts>.json  one report per run
//	SUMMARY.txt                         human-readable rollup
type Store struct {
	dir         string
	keepReports int
	logger      zerolog.Logger
}

// NewStore builds a store over the catalog output directory.
func NewStore(cfg core.CatalogConfig, logger zerolog.Logger) *Store {
	dir := cfg.OutputDir
	if strings.TrimSpace(dir) == "" {
		dir = "./event-catalog"
	}
	return &Store{
		dir:         dir,
		keepReports: cfg.KeepReports,
		logger:      logger.With().Str("component", "store").Logger(),
	}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the full catalog: every spec file, the index snapshot, the
// run report, and the summary.
func (s *Store) Save(ix *Index, report *RunReport) error {
	if err := os.MkdirAll(filepath.Join(s.dir, specsSubdir), 0755); err != nil {
		return fmt.Errorf("store: creating specs dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, reportsSubdir), 0755); err != nil {
		return fmt.Errorf("store: creating reports dir: %w", err)
	}

	entries := ix.Snapshot()
	for _, entry := range entries {
		if err := s.saveSpec(entry); err != nil {
			return err
		}
	}
	if err := s.saveIndex(entries); err != nil {
		return err
	}
	if report != nil {
		if err := s.saveReport(report); err != nil {
			return err
		}
		if err := s.saveSummary(ix, entries, report); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("dir", s.dir).
		Int("services", len(entries)).
		Msg("catalog saved")
	return nil
}

func (s *Store) saveSpec(entry *Entry) error {
	stem := sanitizeServiceFile(entry.ServiceName)

	yamlData, err := entry.Document.ToYAML()
	if err != nil {
		return fmt.Errorf("store: encoding %s spec: %w", entry.ServiceName, err)
	}
	yamlPath := filepath.Join(s.dir, specsSubdir, stem+".asyncapi.yaml")
	if err := writeFileAtomic(yamlPath, yamlData); err != nil {
		return fmt.Errorf("store: writing %s: %w", yamlPath, err)
	}

	jsonData, err := entry.Document.ToJSON()
	if err != nil {
		return fmt.Errorf("store: encoding %s spec: %w", entry.ServiceName, err)
	}
	jsonPath := filepath.Join(s.dir, specsSubdir, stem+".asyncapi.json")
	if err := writeFileAtomic(jsonPath, jsonData); err != nil {
		return fmt.Errorf("store: writing %s: %w", jsonPath, err)
	}
	return nil
}

type indexSnapshot struct {
	GeneratedAt   string   `json:"generated_at"`
	TotalServices int      `json:"total_services"`
	TotalChannels int      `json:"total_channels"`
	Services      []*Entry `json:"services"`
}

func (s *Store) saveIndex(entries []*Entry) error {
	totalChannels := 0
	for _, e := range entries {
		totalChannels += e.ChannelCount
	}
	snap := indexSnapshot{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		TotalServices: len(entries),
		TotalChannels: totalChannels,
		Services:      entries,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, indexFileName), data); err != nil {
		return fmt.Errorf("store: writing index: %w", err)
	}
	return nil
}

func (s *Store) saveReport(report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding report: %w", err)
	}
	name := fmt.Sprintf("discovery-report-%s.json", report.StartedAt.Format("20060102-150405"))
	if err := writeFileAtomic(filepath.Join(s.dir, reportsSubdir, name), data); err != nil {
		return fmt.Errorf("store: writing report: %w", err)
	}
	s.pruneReports()
	return nil
}

// pruneReports keeps the newest keepReports report files. Zero or negative
// keeps everything.
func (s *Store) pruneReports() {
	if s.keepReports <= 0 {
		return
	}
	pattern := filepath.Join(s.dir, reportsSubdir, "discovery-report-*.json")
	files, err := filepath.Glob(pattern)
	if err != nil || len(files) <= s.keepReports {
		return
	}
	sort.Strings(files) // timestamped names sort oldest first
	for _, f := range files[:len(files)-s.keepReports] {
		if err := os.Remove(f); err != nil {
			s.logger.Warn().Err(err).Str("file", f).Msg("could not prune old report")
		}
	}
}

func (s *Store) saveSummary(ix *Index, entries []*Entry, report *RunReport) error {
	ruler := strings.Repeat("=", 80)
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		absDir = s.dir
	}

	lines := []string{
		ruler,
		"AsyncAPI Discovery Summary",
		ruler,
		"",
		fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)),
		"",
		"Overview:",
		fmt.Sprintf("  Total Events Discovered: %d", report.Events),
		fmt.Sprintf("  Total Services: %d", len(entries)),
		fmt.Sprintf("  Total Channels: %d", countChannels(entries)),
		fmt.Sprintf("  Total Repositories: %d", len(report.Repositories)),
		fmt.Sprintf("  Warnings: %d", len(report.Warnings)),
		"",
		"Message Brokers:",
	}
	for _, k := range sortedKeys(report.Brokers) {
		lines = append(lines, fmt.Sprintf("  %s: %d events", k, report.Brokers[k]))
	}
	lines = append(lines, "", "Frameworks:")
	for _, k := range sortedKeys(report.Frameworks) {
		lines = append(lines, fmt.Sprintf("  %s: %d events", k, report.Frameworks[k]))
	}

	lines = append(lines, "", "Services:")
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("  %s: %d channels, brokers: %s (revision %d)",
			entry.ServiceName, entry.ChannelCount, strings.Join(entry.Brokers, ", "), entry.Revision))
	}

	if shared := sharedChannels(ix, entries); len(shared) > 0 {
		lines = append(lines, "", "Channels With Multiple Producers:")
		lines = append(lines, shared...)
	}

	lines = append(lines,
		"",
		"Output Location:",
		fmt.Sprintf("  %s", absDir),
		"",
		"Generated Files:",
		fmt.Sprintf("  - %d AsyncAPI specifications", len(entries)),
		"  - Catalog index: catalog-index.json",
		"  - Discovery reports in reports/",
		"",
		ruler,
	)

	content := strings.Join(lines, "\n") + "\n"
	if err := writeFileAtomic(filepath.Join(s.dir, summaryName), []byte(content)); err != nil {
		return fmt.Errorf("store: writing summary: %w", err)
	}
	return nil
}

// sharedChannels lists channels published by more than one service.
func sharedChannels(ix *Index, entries []*Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range entries {
		for _, channel := range entry.Document.ChannelNames() {
			if seen[channel] {
				continue
			}
			seen[channel] = true
			refs := ix.LookupChannel(channel)
			if len(refs) < 2 {
				continue
			}
			services := make([]string, 0, len(refs))
			for _, ref := range refs {
				services = append(services, ref.ServiceName)
			}
			out = append(out, fmt.Sprintf("  %s: %s", channel, strings.Join(services, ", ")))
		}
	}
	sort.Strings(out)
	return out
}

// Load restores a previously saved catalog into the index. A missing
// catalog is not an error; the index is simply left empty. Returns the
// number of services restored.
func (s *Store) Load(ix *Index) (int, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: reading index: %w", err)
	}

	var snap indexSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("store: decoding index: %w", err)
	}

	restored := 0
	for _, entry := range snap.Services {
		specPath := filepath.Join(s.dir, filepath.FromSlash(entry.SpecFile))
		specData, err := os.ReadFile(specPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("service", entry.ServiceName).Msg("spec file unreadable, entry skipped")
			continue
		}
		doc, err := FromYAML(specData)
		if err != nil {
			s.logger.Warn().Err(err).Str("service", entry.ServiceName).Msg("spec file unparsable, entry skipped")
			continue
		}
		if err := ix.restore(doc, entry.LastUpdated); err != nil {
			s.logger.Warn().Err(err).Str("service", entry.ServiceName).Msg("spec file invalid, entry skipped")
			continue
		}
		restored++
	}

	s.logger.Debug().Int("services", restored).Msg("catalog loaded from disk")
	return restored, nil
}

// writeFileAtomic writes via a temp file in the same directory plus rename,
// so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func countChannels(entries []*Entry) int {
	total := 0
	for _, e := range entries {
		total += e.ChannelCount
	}
	return total
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
