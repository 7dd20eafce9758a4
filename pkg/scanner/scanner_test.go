package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
)

// writeFile creates path (and parents) with content of the given size.
func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func recordMap(records []Record) map[string]Record {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.Path] = r
	}
	return m
}

func TestScanCollectsFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), 100)
	writeFile(t, filepath.Join(root, "a", "one.bin"), 250)
	writeFile(t, filepath.Join(root, "a", "b", "two.bin"), 50)
	writeFile(t, filepath.Join(root, "c", "three.bin"), 600)

	s := New(root, Options{Workers: 2})
	records, stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if stats.Files != 4 {
		t.Errorf("stats.Files = %d, want 4", stats.Files)
	}
	if stats.Dirs != 3 {
		t.Errorf("stats.Dirs = %d, want 3", stats.Dirs)
	}
	if stats.TotalSize != 1000 {
		t.Errorf("stats.TotalSize = %d, want 1000", stats.TotalSize)
	}
	if stats.ScanID == uuid.Nil {
		t.Error("stats.ScanID not assigned")
	}

	m := recordMap(records)
	if r, ok := m[filepath.Join(root, "a", "one.bin")]; !ok || r.Size != 250 || r.IsDir {
		t.Errorf("a/one.bin record = %+v, ok=%v", r, ok)
	}
	if r, ok := m[filepath.Join(root, "a", "b")]; !ok || !r.IsDir || r.Size != 0 {
		t.Errorf("a/b record = %+v, ok=%v", r, ok)
	}
	if len(records) != 7 {
		t.Errorf("got %d records, want 7 (4 files + 3 dirs)", len(records))
	}
}

func TestScanRecordsSortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z", "f.bin"), 1)
	writeFile(t, filepath.Join(root, "a", "f.bin"), 1)
	writeFile(t, filepath.Join(root, "m", "f.bin"), 1)

	s := New(root, Options{Workers: 3})
	records, _, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if !sort.SliceIsSorted(records, func(i, j int) bool { return records[i].Path < records[j].Path }) {
		t.Error("records not sorted by path")
	}
}

func TestScanExcludesDirectoryPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.go"), 100)
	writeFile(t, filepath.Join(root, "src", "node_modules", "dep.js"), 9999)
	writeFile(t, filepath.Join(root, "node_modules", "other.js"), 5000)

	s := New(root, Options{Excludes: []string{"node_modules/"}})
	records, stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range records {
		if filepath.Base(filepath.Dir(r.Path)) == "node_modules" || filepath.Base(r.Path) == "node_modules" {
			t.Errorf("excluded entry leaked: %s", r.Path)
		}
	}
	if stats.TotalSize != 100 {
		t.Errorf("stats.TotalSize = %d, want 100", stats.TotalSize)
	}
	if stats.Skipped == 0 {
		t.Error("stats.Skipped should count pruned entries")
	}
}

func TestScanExcludesFilePattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.go"), 10)
	writeFile(t, filepath.Join(root, "sub", "drop.log"), 20)
	writeFile(t, filepath.Join(root, "sub", "keep.go"), 30)

	s := New(root, Options{Excludes: []string{"*.log"}})
	records, stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	m := recordMap(records)
	if _, ok := m[filepath.Join(root, "sub", "drop.log")]; ok {
		t.Error("*.log file not excluded")
	}
	if stats.Files != 2 || stats.TotalSize != 40 {
		t.Errorf("stats = %d files / %d bytes, want 2 / 40", stats.Files, stats.TotalSize)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), Options{})
	if _, _, err := s.Scan(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestScanCancelledContext(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "d", "f"+string(rune('a'+i))), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(root, Options{})
	if _, _, err := s.Scan(ctx); err == nil {
		t.Error("expected error after cancellation")
	}
}

func TestScanPreviewAndProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "x.bin"), 500)
	writeFile(t, filepath.Join(root, "b.bin"), 300)

	var preview []Record
	var progressCalls int
	var last Progress

	s := New(root, Options{
		OnPreview: func(records []Record) { preview = append([]Record(nil), records...) },
		OnProgress: func(p Progress) {
			progressCalls++
			last = p
		},
	})
	_, stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(preview) != 2 {
		t.Errorf("preview has %d entries, want the 2 top-level ones", len(preview))
	}
	if progressCalls == 0 {
		t.Fatal("progress callback never fired")
	}
	if last.Files != stats.Files || last.TotalSize != stats.TotalSize {
		t.Errorf("final progress %+v does not match stats %+v", last, stats)
	}
}

func TestExcludedRelativeMatching(t *testing.T) {
	s := New("/scan/root", Options{Excludes: []string{"*.tmp", "build/", "docs/*.md"}})

	tests := []struct {
		path string
		want bool
	}{
		{"/scan/root/a.tmp", true},
		{"/scan/root/deep/nested/b.tmp", true},
		{"/scan/root/build", true},
		{"/scan/root/sub/build", true},
		{"/scan/root/docs/readme.md", true},
		{"/scan/root/docs/sub/readme.md", false},
		{"/scan/root/a.txt", false},
		{"/scan/root/builder", false},
	}
	for _, tt := range tests {
		if got := s.excluded(tt.path); got != tt.want {
			t.Errorf("excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
