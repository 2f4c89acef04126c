// Package scan walks a checked-out repository tree and turns probe hits
// into raw matches, so local scans feed the identical pipeline remote
// discovery does.
package scan

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Source extensions worth scanning, mapped to the language tag recorded
// on emitted matches.
var sourceExtensions = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".go":    "go",
	".cs":    "csharp",
	".rb":    "ruby",
	".scala": "scala",
	".kt":    "kotlin",
}

// Directory names never worth descending into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"vendor":       true,
	"venv":         true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"test":         true,
	"tests":        true,
}

const maxFileSize = 2 << 20 // larger files are generated artifacts, not source

// Stats summarizes one tree scan.
type Stats struct {
	FilesScanned int `json:"files_scanned"`
	FilesSkipped int `json:"files_skipped"`
	LinesScanned int `json:"lines_scanned"`
	Matches      int `json:"matches"`
}

type probe struct {
	detector string
	re       *regexp.Regexp
}

// Walker scans a repository tree with the registered detectors' probes.
type Walker struct {
	probes []probe
	repoID string
	logger zerolog.Logger
}

// NewWalker builds a walker for the detector set. repositoryID overrides
// the repository identifier stamped on matches; empty means the root
// directory's basename.
func NewWalker(dets []core.Detector, repositoryID string, logger zerolog.Logger) *Walker {
	probes := make([]probe, 0, len(dets))
	for _, d := range dets {
		if re := d.Probe(); re != nil {
			probes = append(probes, probe{detector: d.Name(), re: re})
		}
	}
	return &Walker{
		probes: probes,
		repoID: repositoryID,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

// Scan walks root and returns one raw match per probed line. A line hit by
// several probes still yields a single match: dispatch fans every match out
// to every detector regardless. Cancelling ctx stops the walk and returns
// the evidence gathered so far along with the context error.
func (w *Walker) Scan(ctx context.Context, root string) ([]core.RawMatch, *Stats, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	repoID := w.repoID
	if repoID == "" {
		repoID = filepath.Base(abs)
	}

	stats := &Stats{}
	var matches []core.RawMatch

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != abs && skipDirs[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := sourceExtensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > maxFileSize {
			stats.FilesSkipped++
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			rel = path
		}
		found, lines, err := w.scanFile(path, repoID, filepath.ToSlash(rel), lang)
		if err != nil {
			stats.FilesSkipped++
			w.logger.Debug().Err(err).Str("file", rel).Msg("skipping unreadable file")
			return nil
		}
		stats.FilesScanned++
		stats.LinesScanned += lines
		stats.Matches += len(found)
		matches = append(matches, found...)
		return nil
	})

	w.logger.Info().
		Str("root", abs).
		Int("files", stats.FilesScanned).
		Int("matches", stats.Matches).
		Msg("tree scan finished")
	return matches, stats, walkErr
}

func (w *Walker) scanFile(path, repoID, rel, lang string) ([]core.RawMatch, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var matches []core.RawMatch
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		for _, p := range w.probes {
			if !p.re.MatchString(line) {
				continue
			}
			matches = append(matches, core.RawMatch{
				RepositoryID:     repoID,
				FilePath:         rel,
				LineNumber:       lineNo,
				SourceLanguage:   lang,
				CodeSnippet:      strings.TrimSpace(line),
				MatchedPatternID: p.detector,
			})
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, lineNo, err
	}
	return matches, lineNo, nil
}
