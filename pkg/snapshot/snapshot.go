// Package snapshot persists scan results as JSON.
//
// A snapshot captures the flat entry list of one scan together with its
// identity and counters, so a slow scan of a large disk can be saved once
// and re-opened instantly. The format is human-readable and round-trip
// faithful: save → load → save produces identical bytes.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/diskview/pkg/fstree"
	"github.com/matzehuels/diskview/pkg/scanner"
)

// FormatVersion identifies the snapshot schema. Readers reject files with a
// newer version than they understand.
const FormatVersion = 1

// =============================================================================
// Snapshot - Scan Serialization
// =============================================================================

// Snapshot is the canonical serialization format for a completed scan.
type Snapshot struct {
	Version   int       `json:"version"`
	ScanID    uuid.UUID `json:"scan_id"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"created_at"`
	TotalSize uint64    `json:"total_size"`
	Files     uint64    `json:"files"`
	Dirs      uint64    `json:"dirs"`
	Entries   []Entry   `json:"entries"`
}

// Entry is one filesystem entry in a snapshot.
type Entry struct {
	Path  string `json:"path"`
	Size  uint64 `json:"size,omitempty"`
	IsDir bool   `json:"is_dir,omitempty"`
}

// FromScan builds a snapshot from scanner output. Entries are sorted by path
// for deterministic bytes.
func FromScan(records []scanner.Record, stats scanner.Stats) Snapshot {
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Path: r.Path, Size: r.Size, IsDir: r.IsDir}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return Snapshot{
		Version:   FormatVersion,
		ScanID:    stats.ScanID,
		Root:      stats.Root,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		TotalSize: stats.TotalSize,
		Files:     stats.Files,
		Dirs:      stats.Dirs,
		Entries:   entries,
	}
}

// ToTree materializes the snapshot into a size model with cumulative sizes
// already calculated.
func (s Snapshot) ToTree() *fstree.Tree {
	tree := fstree.New(s.Root)
	for _, e := range s.Entries {
		tree.Upsert(e.Path, e.Size, e.IsDir)
	}
	tree.CalculateSizes()
	return tree
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a snapshot to JSON bytes.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(s Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(s, f)
}

// Write writes a snapshot as JSON to an io.Writer.
func Write(s Snapshot, w io.Writer) error {
	return writeTo(s, w)
}

// ReadFile reads a JSON file and returns the decoded snapshot.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// Read decodes a JSON snapshot from an io.Reader.
func Read(r io.Reader) (Snapshot, error) {
	return readFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(s Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if s.Version > FormatVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported %d", s.Version, FormatVersion)
	}
	return s, nil
}
