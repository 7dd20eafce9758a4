// Package pipeline provides the core scan → model → build pipeline for
// diskview.
//
// The pipeline has three stages:
//
//  1. Scan: Walk the filesystem and collect every entry's size
//  2. Model: Fold the entries into the hierarchical size model
//  3. Build: Produce the render tree for the current viewport
//
// CLI commands and the TUI both drive the same Runner, so scanning behavior,
// timings, and logging stay consistent across entry points. After the
// initial Execute, callers holding a Result can apply incremental filesystem
// changes and rebuild without rescanning.
package pipeline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/diskview/pkg/geom"
	"github.com/matzehuels/diskview/pkg/render"
	"github.com/matzehuels/diskview/pkg/scanner"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and TUI
// =============================================================================

const (
	// DefaultWidth is the default viewport width in layout units.
	DefaultWidth = 1200.0

	// DefaultHeight is the default viewport height in layout units.
	DefaultHeight = 780.0

	// DefaultMaxDepth is the default expansion recursion budget per build.
	DefaultMaxDepth = render.MaxExpandDepth
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Root is the directory to scan. Required.
	Root string `json:"root"`

	// Viewport dimensions for the build stage.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// MaxDepth bounds expansion recursion per build.
	MaxDepth int `json:"max_depth,omitempty"`

	// Scan options.
	Excludes []string `json:"excludes,omitempty"`
	Workers  int      `json:"workers,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger            `json:"-"`
	OnProgress func(scanner.Progress) `json:"-"`
	Expansion  *render.ExpansionState `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Root == "" {
		return fmt.Errorf("root is required")
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Expansion == nil {
		o.Expansion = render.NewExpansionState()
	}
	o.validated = true
	return nil
}

// Viewport returns the build container implied by the options.
func (o *Options) Viewport() geom.Rect {
	return geom.NewRect(0, 0, o.Width, o.Height)
}
