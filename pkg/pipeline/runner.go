package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/diskview/pkg/fstree"
	"github.com/matzehuels/diskview/pkg/observability"
	"github.com/matzehuels/diskview/pkg/render"
	"github.com/matzehuels/diskview/pkg/scanner"
)

// Runner executes the scan → model → build pipeline.
//
// The Runner itself is stateless apart from its logger; per-run state lives
// in the Result. Multiple goroutines can share one Runner with different
// options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Result holds the pipeline's outputs plus the live state needed for
// incremental rebuilds: the size model, the expansion state, and the options
// the run was configured with.
type Result struct {
	Tree      *fstree.Tree
	Expansion *render.ExpansionState
	Nodes     []*render.Node
	ScanStats scanner.Stats
	Stats     Stats

	opts  Options
	dirty bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ScanTime  time.Duration
	ModelTime time.Duration
	BuildTime time.Duration
	NodeCount int
}

// Execute runs the complete scan → model → build pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Expansion: opts.Expansion, opts: opts}

	// Stage 1: Scan
	scanStart := time.Now()
	observability.Scan().OnScanStart(ctx, opts.Root)
	s := scanner.New(opts.Root, scanner.Options{
		Excludes:   opts.Excludes,
		Workers:    opts.Workers,
		OnProgress: opts.OnProgress,
	})
	records, scanStats, err := s.Scan(ctx)
	result.Stats.ScanTime = time.Since(scanStart)
	observability.Scan().OnScanComplete(ctx, opts.Root,
		scanStats.Files, scanStats.Dirs, scanStats.TotalSize, result.Stats.ScanTime, err)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.ScanStats = scanStats

	r.Logger.Info("scanned filesystem",
		"files", scanStats.Files,
		"dirs", scanStats.Dirs,
		"size", scanStats.TotalSize,
		"duration", result.Stats.ScanTime)

	// Stage 2: Model
	modelStart := time.Now()
	tree := fstree.New(opts.Root)
	for _, rec := range records {
		tree.Upsert(rec.Path, rec.Size, rec.IsDir)
	}
	tree.CalculateSizes()
	result.Tree = tree
	result.Stats.ModelTime = time.Since(modelStart)

	r.Logger.Info("built size model",
		"nodes", tree.Len(),
		"duration", result.Stats.ModelTime)

	// Stage 3: Build
	if err := r.Rebuild(ctx, result); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	return result, nil
}

// Rebuild recomputes the render tree from the result's current model state.
// Call after ApplyUpsert/ApplyRemove, or after mutating the expansion state
// or viewport. Cumulative sizes are recalculated only when entries changed.
func (r *Runner) Rebuild(ctx context.Context, result *Result) error {
	if result.Tree == nil {
		return fmt.Errorf("no size model to rebuild from")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if result.dirty {
		result.Tree.CalculateSizes()
		result.dirty = false
	}

	opts := result.opts
	buildStart := time.Now()
	observability.Build().OnBuildStart(ctx, opts.Root, opts.Width, opts.Height)

	result.Nodes = render.Build(result.Tree, result.Tree.Root(), opts.Viewport(), result.Expansion, opts.MaxDepth)

	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = countNodes(result.Nodes)
	observability.Build().OnBuildComplete(ctx, opts.Root, result.Stats.NodeCount, result.Stats.BuildTime)

	r.Logger.Debug("built render tree",
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.BuildTime)
	return nil
}

// ApplyUpsert records a created or resized filesystem entry in the model.
// The change is visible after the next Rebuild.
func (result *Result) ApplyUpsert(path string, size uint64, isDir bool) {
	result.Tree.Upsert(path, size, isDir)
	result.dirty = true
}

// ApplyRemove records a deleted filesystem entry (and its subtree) in the
// model. It reports whether the path was present.
func (result *Result) ApplyRemove(path string) bool {
	removed := result.Tree.RemovePathRecursive(path)
	if removed {
		result.dirty = true
	}
	return removed
}

// SetViewport changes the build container for subsequent Rebuild calls.
func (result *Result) SetViewport(width, height float64) {
	result.opts.Width = width
	result.opts.Height = height
}

func countNodes(nodes []*render.Node) int {
	count := len(nodes)
	for _, n := range nodes {
		count += countNodes(n.Children)
	}
	return count
}
