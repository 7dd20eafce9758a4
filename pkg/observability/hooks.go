// Package observability provides hooks for metrics, tracing, and logging.
//
// It lets the application instrument scans and render builds without the
// library packages depending on any observability backend. Hooks are
// registered once at startup by main; libraries emit events through the
// global accessors and pay only a no-op call when nothing is registered.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from filesystem scans.
type ScanHooks interface {
	// OnScanStart fires when a walk begins.
	OnScanStart(ctx context.Context, root string)

	// OnScanComplete fires when the walk finishes or fails.
	OnScanComplete(ctx context.Context, root string, files, dirs, totalSize uint64, duration time.Duration, err error)
}

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from render-tree builds.
type BuildHooks interface {
	// OnBuildStart fires before a build, with the viewport dimensions.
	OnBuildStart(ctx context.Context, root string, width, height float64)

	// OnBuildComplete fires after a build with the emitted node count.
	OnBuildComplete(ctx context.Context, root string, nodeCount int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string) {}
func (NoopScanHooks) OnScanComplete(context.Context, string, uint64, uint64, uint64, time.Duration, error) {
}

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(context.Context, string, float64, float64)       {}
func (NoopBuildHooks) OnBuildComplete(context.Context, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks  ScanHooks  = NoopScanHooks{}
	buildHooks BuildHooks = NoopBuildHooks{}
	hooksMu    sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// Call once at application startup, before any scans.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetBuildHooks registers custom build hooks.
// Call once at application startup, before any builds.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Reset restores all hooks to their no-op defaults.
// Primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	buildHooks = NoopBuildHooks{}
}
