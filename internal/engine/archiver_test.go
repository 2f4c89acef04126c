package engine

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

func TestNewArchiver_Defaults(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(core.ArchiveConfig{Dir: filepath.Join(dir, "archive")}, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if a.maxBytes != 64*1024*1024 {
		t.Errorf("maxBytes = %d, want 64MB", a.maxBytes)
	}
	if a.rotateAfter != time.Hour {
		t.Errorf("rotateAfter = %v, want 1h", a.rotateAfter)
	}
	if _, err := os.Stat(filepath.Join(dir, "archive")); err != nil {
		t.Errorf("archive dir not created: %v", err)
	}
}

func TestArchiver_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(core.ArchiveConfig{Dir: dir, MaxFileSizeMB: 4}, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	rec := cacheRecord("order-service", "order.placed", 0.9)
	data, _ := rec.Marshal()
	a.writeRecord("record", data)
	a.writeRecord("record", data)
	a.writeRecord("update", []byte(`{"service_name":"order-service","revision":1}`))
	a.closeFile()

	files, err := filepath.Glob(filepath.Join(dir, "eventscout-archive-*.ndjson.gz"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected 1 archive file, got %v (err %v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}

	var lines []archiveEnvelope
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		var env archiveEnvelope
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			t.Fatalf("bad NDJSON line: %v", err)
		}
		lines = append(lines, env)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 envelopes, got %d", len(lines))
	}
	if lines[0].Type != "record" || lines[2].Type != "update" {
		t.Errorf("envelope types = %q, %q, %q", lines[0].Type, lines[1].Type, lines[2].Type)
	}
	got, err := core.UnmarshalEventRecord(lines[0].Data)
	if err != nil {
		t.Fatalf("archived record does not round-trip: %v", err)
	}
	if got.ChannelName != "order.placed" {
		t.Errorf("archived channel = %q, want order.placed", got.ChannelName)
	}
	if lines[0].Timestamp.IsZero() {
		t.Error("envelope timestamp not stamped")
	}

	if a.recordsArchived != 2 || a.updatesArchived != 1 {
		t.Errorf("counters = %d records, %d updates; want 2, 1", a.recordsArchived, a.updatesArchived)
	}
}

func TestArchiver_RotatesOnSize(t *testing.T) {
	a := &Archiver{
		cfg:         core.ArchiveConfig{Dir: t.TempDir()},
		logger:      zerolog.Nop(),
		maxBytes:    64, // rotate on nearly every write
		rotateAfter: time.Hour,
	}

	rec := cacheRecord("order-service", "order.placed", 0.9)
	data, _ := rec.Marshal()
	a.writeRecord("record", data)

	if a.filesRotated != 1 {
		t.Errorf("filesRotated = %d, want 1", a.filesRotated)
	}
	if a.currentFile != nil {
		t.Error("file should be closed after size rotation")
	}

	// The next write opens a fresh file.
	a.writeRecord("record", data)
	if a.currentBytes == 0 && a.filesRotated < 2 {
		t.Error("expected a new file with bytes written, or another rotation")
	}
	a.closeFile()
}

func TestArchiver_Status(t *testing.T) {
	a := &Archiver{
		cfg:             core.ArchiveConfig{Enabled: true, Dir: "/tmp/test-archive"},
		logger:          zerolog.Nop(),
		recordsArchived: 42,
		updatesArchived: 5,
		filesRotated:    3,
		bytesWritten:    1024,
	}

	status := a.Status()
	if status["enabled"] != true {
		t.Error("expected enabled = true")
	}
	if status["records_archived"].(int64) != 42 {
		t.Errorf("records_archived = %v, want 42", status["records_archived"])
	}
	if status["updates_archived"].(int64) != 5 {
		t.Errorf("updates_archived = %v, want 5", status["updates_archived"])
	}
	if status["files_rotated"].(int64) != 3 {
		t.Errorf("files_rotated = %v, want 3", status["files_rotated"])
	}
}
