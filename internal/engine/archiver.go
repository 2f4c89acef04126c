package engine

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

const archiveCheckInterval = 30 * time.Second

// Archiver consumes the catalog streams and writes every record and update
// notice to gzip NDJSON files, giving serve mode a durable evidence trail
// that outlives the bus retention window. Files rotate on size and age.
type Archiver struct {
	cfg    core.ArchiveConfig
	bus    *CatalogBus
	logger zerolog.Logger

	mu           sync.Mutex
	currentFile  *os.File
	currentGz    *gzip.Writer
	currentPath  string
	currentBytes int64
	maxBytes     int64
	rotateAfter  time.Duration
	fileOpenedAt time.Time

	recordsArchived int64
	updatesArchived int64
	filesRotated    int64
	bytesWritten    int64
}

// NewArchiver creates an archiver writing under cfg.Dir.
func NewArchiver(cfg core.ArchiveConfig, bus *CatalogBus, logger zerolog.Logger) (*Archiver, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive dir %s: %w", cfg.Dir, err)
	}

	maxBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 64 * 1024 * 1024
	}
	rotateAfter := time.Duration(cfg.RotateMinutes) * time.Minute
	if rotateAfter <= 0 {
		rotateAfter = time.Hour
	}

	return &Archiver{
		cfg:         cfg,
		bus:         bus,
		logger:      logger.With().Str("component", "archiver").Logger(),
		maxBytes:    maxBytes,
		rotateAfter: rotateAfter,
	}, nil
}

// Start subscribes to the catalog streams with dedicated durable consumers
// and begins the rotation ticker.
func (a *Archiver) Start(ctx context.Context) error {
	if err := a.bus.Subscribe("catalog.records.>", "eventscout-archive-records", func(msg *nats.Msg) {
		a.writeRecord("record", msg.Data)
		_ = msg.Ack()
	}); err != nil {
		return fmt.Errorf("archiver subscribing to records: %w", err)
	}

	if err := a.bus.Subscribe("catalog.updates.>", "eventscout-archive-updates", func(msg *nats.Msg) {
		a.writeRecord("update", msg.Data)
		_ = msg.Ack()
	}); err != nil {
		return fmt.Errorf("archiver subscribing to updates: %w", err)
	}

	go func() {
		ticker := time.NewTicker(archiveCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.closeFile()
				return
			case <-ticker.C:
				a.mu.Lock()
				if a.currentFile != nil && time.Since(a.fileOpenedAt) >= a.rotateAfter {
					a.rotateFileLocked()
				}
				a.mu.Unlock()
			}
		}
	}()

	a.logger.Info().
		Str("dir", a.cfg.Dir).
		Str("rotate_after", a.rotateAfter.String()).
		Int64("max_bytes", a.maxBytes).
		Msg("evidence archiver started")

	return nil
}

// archiveEnvelope is the NDJSON line written to archive files.
type archiveEnvelope struct {
	Type      string          `json:"type"` // "record" or "update"
	Timestamp time.Time       `json:"ts"`
	Data      json.RawMessage `json:"data"`
}

func (a *Archiver) writeRecord(recordType string, data []byte) {
	env := archiveEnvelope{
		Type:      recordType,
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(data),
	}

	line, err := json.Marshal(env)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to marshal archive envelope")
		return
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile == nil {
		if err := a.openFileLocked(); err != nil {
			a.logger.Error().Err(err).Msg("failed to open archive file")
			return
		}
	}

	n, err := a.currentGz.Write(line)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to write archive record")
		return
	}

	a.currentBytes += int64(n)
	a.bytesWritten += int64(n)

	switch recordType {
	case "record":
		a.recordsArchived++
	case "update":
		a.updatesArchived++
	}

	if a.currentBytes >= a.maxBytes {
		a.rotateFileLocked()
	}
}

func (a *Archiver) openFileLocked() error {
	ts := time.Now().UTC().Format("20060102T150405Z")
	filename := fmt.Sprintf("eventscout-archive-%s.ndjson.gz", ts)
	path := filepath.Join(a.cfg.Dir, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	a.currentFile = f
	a.currentPath = path
	a.currentBytes = 0
	a.fileOpenedAt = time.Now()
	a.currentGz, _ = gzip.NewWriterLevel(f, gzip.BestSpeed)

	a.logger.Debug().Str("file", filename).Msg("opened archive file")
	return nil
}

func (a *Archiver) rotateFileLocked() {
	a.closeFileLocked()
	a.filesRotated++
	// Next write opens a new file
}

func (a *Archiver) closeFile() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeFileLocked()
}

func (a *Archiver) closeFileLocked() {
	if a.currentGz != nil {
		a.currentGz.Close()
		a.currentGz = nil
	}
	if a.currentFile != nil {
		a.currentFile.Close()
		a.currentFile = nil
	}
}

// Status returns archiver counters for the API.
func (a *Archiver) Status() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]interface{}{
		"enabled":          a.cfg.Enabled,
		"dir":              a.cfg.Dir,
		"records_archived": a.recordsArchived,
		"updates_archived": a.updatesArchived,
		"files_rotated":    a.filesRotated,
		"bytes_written":    a.bytesWritten,
		"current_file":     filepath.Base(a.currentPath),
		"current_bytes":    a.currentBytes,
	}
}
