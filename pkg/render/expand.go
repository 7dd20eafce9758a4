package render

import (
	"path/filepath"
	"strings"
)

// ExpansionPolicy is the read-only view of user expansion state the builder
// consults, once per directory node per build. The builder never mutates it.
type ExpansionPolicy interface {
	// IsExpanded reports whether the directory at path should show its
	// children.
	IsExpanded(path string) bool

	// DepthHint returns how many levels deep the user asked this directory
	// to open. 0 means collapsed.
	DepthHint(path string) int
}

// ExpansionState tracks which folders are expanded and to what depth. It is
// the canonical ExpansionPolicy implementation, mutated by the presentation
// layer in response to clicks and consumed read-only during builds.
//
// Not safe for concurrent mutation; the owning UI goroutine serializes
// access, like the size model it accompanies.
type ExpansionState struct {
	expanded map[string]int
}

// NewExpansionState returns an empty state: everything collapsed.
func NewExpansionState() *ExpansionState {
	return &ExpansionState{expanded: make(map[string]int)}
}

// Expand opens the folder at path to depth 1 (single click).
func (s *ExpansionState) Expand(path string) {
	s.expanded[filepath.Clean(path)] = 1
}

// Deepen increments the folder's expansion depth by 1 (double click).
func (s *ExpansionState) Deepen(path string) {
	p := filepath.Clean(path)
	s.expanded[p] = s.expanded[p] + 1
}

// CollapseRecursive closes the folder at path and forgets the expansion
// state of all its descendants.
func (s *ExpansionState) CollapseRecursive(path string) {
	p := filepath.Clean(path)
	prefix := p + string(filepath.Separator)
	for k := range s.expanded {
		if k == p || strings.HasPrefix(k, prefix) {
			delete(s.expanded, k)
		}
	}
}

// CollapseAll resets every expansion.
func (s *ExpansionState) CollapseAll() {
	clear(s.expanded)
}

// DepthHint returns the folder's expansion depth; 0 means collapsed.
func (s *ExpansionState) DepthHint(path string) int {
	return s.expanded[filepath.Clean(path)]
}

// IsExpanded reports whether the folder is open at all.
func (s *ExpansionState) IsExpanded(path string) bool {
	return s.DepthHint(path) > 0
}

var _ ExpansionPolicy = (*ExpansionState)(nil)
