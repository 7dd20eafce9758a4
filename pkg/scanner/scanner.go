// Package scanner walks a directory tree and reports every file and
// directory it finds, with live progress counters.
//
// The walk is parallel across the root's top-level subtrees: each subtree is
// walked by one goroutine, so a handful of large siblings (Applications,
// Library, Users) scan concurrently instead of serially. Results are merged
// after all workers finish, so callers see a single consistent record list.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// progressInterval throttles progress callbacks. Counters update on
	// every entry; callbacks fire at most once per interval.
	progressInterval = 100 * time.Millisecond

	// previewLimit caps the number of top-level entries reported before the
	// full walk starts, enough to paint a first rough frame.
	previewLimit = 40
)

// dockerVMSuffix marks the Docker Desktop VM disk image directory. Its
// single multi-gigabyte raw file dwarfs everything else and stalls the walk,
// so it is skipped unconditionally.
const dockerVMSuffix = "Library/Containers/com.docker.docker"

// Record is one filesystem entry discovered during a scan. Size is the
// entry's own size; directories report zero and get their cumulative size
// from the model layer.
type Record struct {
	Path  string
	Size  uint64
	IsDir bool
}

// Progress is a point-in-time snapshot of scan counters.
type Progress struct {
	Dirs      uint64
	Files     uint64
	TotalSize uint64

	// CurrentPath is a recently visited directory, for display only.
	CurrentPath string
}

// Stats summarizes a completed scan.
type Stats struct {
	ScanID    uuid.UUID
	Root      string
	Files     uint64
	Dirs      uint64
	TotalSize uint64
	Skipped   uint64
	Duration  time.Duration
}

// Options configures a scan. The zero value scans everything with one worker
// per CPU and no callbacks.
type Options struct {
	// Excludes holds glob patterns matched against paths relative to the
	// scan root. Patterns ending in "/" match directory names anywhere in
	// the path and prune the whole subtree.
	Excludes []string

	// Workers bounds subtree-walk concurrency. Zero means GOMAXPROCS.
	Workers int

	// OnPreview, if set, receives the root's immediate children before the
	// deep walk starts. At most previewLimit entries.
	OnPreview func([]Record)

	// OnProgress, if set, receives throttled counter snapshots during the
	// walk and one final snapshot on completion.
	OnProgress func(Progress)
}

// Scanner walks one root. Construct with New, run with Scan.
type Scanner struct {
	root string
	opts Options

	dirs      atomic.Uint64
	files     atomic.Uint64
	totalSize atomic.Uint64
	skipped   atomic.Uint64

	lastEmit atomic.Int64 // unix nanos of the last progress callback

	currentMu   sync.Mutex
	currentPath string
}

// New returns a Scanner for root. The root is cleaned but not checked for
// existence until Scan runs.
func New(root string, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{root: filepath.Clean(root), opts: opts}
}

// Scan walks the tree under the scanner's root and returns every discovered
// entry along with summary statistics. Unreadable entries are counted as
// skipped and do not fail the scan; only a missing root or context
// cancellation produce an error.
//
// Records come back sorted by path so repeated scans of an unchanged tree
// are comparable.
func (s *Scanner) Scan(ctx context.Context) ([]Record, Stats, error) {
	start := time.Now()
	stats := Stats{ScanID: uuid.New(), Root: s.root}

	topLevel, err := os.ReadDir(s.root)
	if err != nil {
		return nil, stats, err
	}

	var (
		rootRecords []Record
		subtrees    []string
	)
	for _, entry := range topLevel {
		path := filepath.Join(s.root, entry.Name())
		if s.excluded(path) {
			s.skipped.Add(1)
			continue
		}
		if entry.IsDir() {
			s.dirs.Add(1)
			rootRecords = append(rootRecords, Record{Path: path, IsDir: true})
			subtrees = append(subtrees, path)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.skipped.Add(1)
			continue
		}
		size := uint64(info.Size())
		s.files.Add(1)
		s.totalSize.Add(size)
		rootRecords = append(rootRecords, Record{Path: path, Size: size})
	}

	if s.opts.OnPreview != nil {
		preview := rootRecords
		if len(preview) > previewLimit {
			preview = preview[:previewLimit]
		}
		s.opts.OnPreview(preview)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	perSubtree := make([][]Record, len(subtrees))
	for i, subtree := range subtrees {
		i, subtree := i, subtree
		g.Go(func() error {
			records, err := s.walkSubtree(ctx, subtree)
			perSubtree[i] = records
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	records := rootRecords
	for _, sub := range perSubtree {
		records = append(records, sub...)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	stats.Files = s.files.Load()
	stats.Dirs = s.dirs.Load()
	stats.TotalSize = s.totalSize.Load()
	stats.Skipped = s.skipped.Load()
	stats.Duration = time.Since(start)

	s.emitProgress(true)
	return records, stats, nil
}

// walkSubtree walks one top-level subtree. The subtree's own directory entry
// is already recorded by the caller.
func (s *Scanner) walkSubtree(ctx context.Context, subtree string) ([]Record, error) {
	var records []Record

	err := filepath.WalkDir(subtree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == subtree {
				// The subtree root was listed a moment ago; treat a
				// read failure here as a skip, not a scan failure.
				s.skipped.Add(1)
				return filepath.SkipDir
			}
			s.skipped.Add(1)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == subtree {
			return nil
		}

		if s.excluded(path) || isDockerVM(path) {
			s.skipped.Add(1)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.dirs.Add(1)
			s.setCurrent(path)
			records = append(records, Record{Path: path, IsDir: true})
			s.emitProgress(false)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.skipped.Add(1)
			return nil
		}
		size := uint64(info.Size())
		s.files.Add(1)
		s.totalSize.Add(size)
		records = append(records, Record{Path: path, Size: size})
		s.emitProgress(false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// emitProgress invokes the progress callback if one is set, at most once per
// progressInterval. The timestamp CAS makes the throttle race-free across
// subtree workers without a lock on the hot path. force bypasses the
// throttle for the final snapshot.
func (s *Scanner) emitProgress(force bool) {
	if s.opts.OnProgress == nil {
		return
	}
	now := time.Now().UnixNano()
	if !force {
		last := s.lastEmit.Load()
		if now-last < int64(progressInterval) || !s.lastEmit.CompareAndSwap(last, now) {
			return
		}
	}

	s.currentMu.Lock()
	current := s.currentPath
	s.currentMu.Unlock()

	s.opts.OnProgress(Progress{
		Dirs:        s.dirs.Load(),
		Files:       s.files.Load(),
		TotalSize:   s.totalSize.Load(),
		CurrentPath: current,
	})
}

func (s *Scanner) setCurrent(path string) {
	s.currentMu.Lock()
	s.currentPath = path
	s.currentMu.Unlock()
}

// excluded reports whether path matches any exclusion pattern. Patterns with
// a trailing "/" match directory names at any depth; other patterns match
// the base name, or the whole relative path when they contain a separator.
func (s *Scanner) excluded(path string) bool {
	if len(s.opts.Excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}

	for _, pattern := range s.opts.Excludes {
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			for _, part := range strings.Split(rel, string(filepath.Separator)) {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(rel)); matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, rel); matched {
				return true
			}
		}
	}
	return false
}

func isDockerVM(path string) bool {
	return strings.HasSuffix(filepath.ToSlash(path), dockerVMSuffix)
}
