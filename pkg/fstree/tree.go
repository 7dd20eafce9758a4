// Package fstree implements the hierarchical size model behind the treemap:
// an arena-backed tree of filesystem entries keyed by path, with point
// mutation (upsert, recursive removal) and a bottom-up cumulative-size pass.
//
// The tree owns every entry in a single arena and links parents and children
// by opaque NodeID, never by pointer. A path index provides O(1) lookup.
// Entries arrive in any order: upserting a path whose ancestors are unknown
// materializes them as implicit directories, which tolerates a scanner
// delivering children before their parents.
//
// All operations are total. Paths outside the root's subtree, repeated
// removals, and lookups of unknown paths are silent no-ops rather than
// errors. The tree has no internal locking; it assumes a single writer at
// any instant, with reader handoff arranged by the caller.
package fstree

import (
	"path/filepath"
	"strings"
)

// NodeID identifies an entry in the tree's arena. IDs are stable for the
// lifetime of their entry and may be reused after the entry is removed.
type NodeID int32

// InvalidID is returned by lookups that find nothing.
const InvalidID NodeID = -1

// Entry is one filesystem object tracked by the tree.
type Entry struct {
	// Path is the cleaned, unique key for this entry.
	Path string

	// Name is the last path element, used as the display label.
	Name string

	// Size is the entry's own byte size. Zero for directories.
	Size uint64

	// IsDir reports whether the entry is a directory.
	IsDir bool

	// CumulativeSize is the entry's own size for files, or the sum of the
	// children's cumulative sizes for directories. Only valid after
	// CalculateSizes has run over the current contents.
	CumulativeSize uint64
}

// node is an arena slot: the entry plus its identifier links.
type node struct {
	entry    Entry
	parent   NodeID
	children []NodeID
	live     bool
}

// Tree is the arena-backed size model. Use New to create one.
type Tree struct {
	nodes []node
	free  []NodeID
	root  NodeID
	index map[string]NodeID
}

// New creates a tree whose root is a directory entry at rootPath with size 0.
// The root's path never changes and cannot be removed.
func New(rootPath string) *Tree {
	p := filepath.Clean(rootPath)
	t := &Tree{
		index: make(map[string]NodeID),
		root:  InvalidID,
	}
	t.root = t.alloc(Entry{
		Path:  p,
		Name:  baseName(p),
		IsDir: true,
	}, InvalidID)
	t.index[p] = t.root
	return t
}

// Root returns the root entry's identifier.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of live entries, including the root.
func (t *Tree) Len() int { return len(t.index) }

// Lookup returns the identifier for path, or (InvalidID, false) if the path
// is not in the tree.
func (t *Tree) Lookup(path string) (NodeID, bool) {
	id, ok := t.index[filepath.Clean(path)]
	if !ok {
		return InvalidID, false
	}
	return id, true
}

// Entry returns a copy of the entry for id. The second result is false for
// identifiers that are out of range or refer to removed entries.
func (t *Tree) Entry(id NodeID) (Entry, bool) {
	if !t.valid(id) {
		return Entry{}, false
	}
	return t.nodes[id].entry, true
}

// Children returns the identifiers of id's direct children in insertion
// order. The returned slice is a copy.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	out := make([]NodeID, len(t.nodes[id].children))
	copy(out, t.nodes[id].children)
	return out
}

// Parent returns the identifier of id's parent, or InvalidID for the root
// and for invalid identifiers.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return InvalidID
	}
	return t.nodes[id].parent
}

// TotalSize returns the root's cumulative size as of the last
// CalculateSizes call.
func (t *Tree) TotalSize() uint64 {
	return t.nodes[t.root].entry.CumulativeSize
}

// Upsert inserts or updates the entry at path. Paths equal to the root or
// outside the root's subtree are ignored. Missing ancestors are created as
// implicit directories with size 0, so records may arrive in any order.
// Re-upserting an existing path overwrites Size and IsDir in place without
// changing the entry's identifier or its position in the tree; an entry that
// has children is always kept a directory.
func (t *Tree) Upsert(path string, size uint64, isDir bool) {
	p := filepath.Clean(path)
	rootPath := t.nodes[t.root].entry.Path
	if p == rootPath || !within(rootPath, p) {
		return
	}

	if id, ok := t.index[p]; ok {
		e := &t.nodes[id].entry
		e.Size = size
		// An entry that already has children stays a directory even when a
		// stale record claims otherwise; demoting would orphan the subtree.
		e.IsDir = isDir || len(t.nodes[id].children) > 0
		return
	}

	parent := t.ensureDir(filepath.Dir(p))
	id := t.alloc(Entry{
		Path:           p,
		Name:           baseName(p),
		Size:           size,
		IsDir:          isDir,
		CumulativeSize: size,
	}, parent)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.index[p] = id
}

// RemovePathRecursive removes the entry at path and every descendant,
// detaching the subtree from its parent and purging all removed paths from
// the index. It reports whether anything was removed. Removing the root or
// an unknown path is a no-op.
func (t *Tree) RemovePathRecursive(path string) bool {
	p := filepath.Clean(path)
	id, ok := t.index[p]
	if !ok || id == t.root {
		return false
	}

	// Detach from the parent's child list first so the subtree walk below
	// can free slots without leaving a dangling link.
	parent := t.nodes[id].parent
	siblings := t.nodes[parent].children
	for i, c := range siblings {
		if c == id {
			t.nodes[parent].children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}

	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[cur].children...)

		delete(t.index, t.nodes[cur].entry.Path)
		t.nodes[cur] = node{parent: InvalidID}
		t.free = append(t.free, cur)
	}
	return true
}

// CalculateSizes recomputes every entry's cumulative size in one bottom-up
// pass: files take their own size, directories the sum of their direct
// children's cumulative sizes. Call it after a batch of upserts or removals;
// cumulative sizes are not trusted between mutation and recompute.
//
// The traversal uses an explicit work stack so pathologically deep trees
// cannot overflow the goroutine stack.
func (t *Tree) CalculateSizes() {
	type frame struct {
		id       NodeID
		expanded bool
	}

	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.expanded {
			stack = append(stack, frame{id: f.id, expanded: true})
			for _, c := range t.nodes[f.id].children {
				stack = append(stack, frame{id: c})
			}
			continue
		}

		n := &t.nodes[f.id]
		if n.entry.IsDir {
			var sum uint64
			for _, c := range n.children {
				sum += t.nodes[c].entry.CumulativeSize
			}
			n.entry.CumulativeSize = sum
		} else {
			n.entry.CumulativeSize = n.entry.Size
		}
	}
}

// ensureDir returns the identifier for the directory at path, creating it
// (and any missing ancestors) as implicit directories. path must be the root
// or inside the root's subtree; Upsert guarantees that.
func (t *Tree) ensureDir(path string) NodeID {
	if id, ok := t.index[path]; ok {
		// A scanner may deliver a child before the record that reclassifies
		// its parent. Promote the file in place so the child's bytes reach
		// every ancestor total.
		e := &t.nodes[id].entry
		if !e.IsDir {
			e.IsDir = true
			e.Size = 0
		}
		return id
	}
	parent := t.ensureDir(filepath.Dir(path))
	id := t.alloc(Entry{
		Path:  path,
		Name:  baseName(path),
		IsDir: true,
	}, parent)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.index[path] = id
	return id
}

// alloc takes a slot from the free list or grows the arena.
func (t *Tree) alloc(e Entry, parent NodeID) NodeID {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[id] = node{entry: e, parent: parent, live: true}
		return id
	}
	t.nodes = append(t.nodes, node{entry: e, parent: parent, live: true})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && t.nodes[id].live
}

// within reports whether p is strictly inside root's subtree.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func baseName(p string) string {
	b := filepath.Base(p)
	if b == string(filepath.Separator) {
		return "/"
	}
	return b
}
