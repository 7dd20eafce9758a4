package render

import (
	"fmt"
	"sort"

	"github.com/matzehuels/diskview/pkg/fstree"
	"github.com/matzehuels/diskview/pkg/geom"
	"github.com/matzehuels/diskview/pkg/treemap"
)

const (
	// HeaderHeight is the strip reserved at the top of an expanded folder
	// for its label and collapse hit zone.
	HeaderHeight = 16.0

	// SideInset is the margin on the left, right, and bottom of an expanded
	// folder's content area.
	SideInset = 2.0

	// MaxExpandDepth is the default recursion budget for one build. It
	// bounds the render tree's size even for pathologically deep trees.
	MaxExpandDepth = 4

	// minContentDim is the smallest content rectangle worth recursing into.
	// Below this the directory renders collapsed despite its expansion
	// flag.
	minContentDim = 4.0
)

// childInfo is the per-child data collected from the size model before
// partitioning and layout.
type childInfo struct {
	id    fstree.NodeID
	path  string
	name  string
	size  uint64
	isDir bool
}

// Build composes the render tree for root's children inside container.
//
// It is a pure function of its five inputs: two builds with an unchanged
// tree snapshot, container, policy, and depth produce structurally identical
// output - same rectangles, same stable IDs, same ordering. The presentation
// layer relies on this to diff and animate between rebuilds.
//
// depth is the remaining recursion budget; at 0 every node is terminal
// regardless of its expansion flag.
func Build(tree *fstree.Tree, root fstree.NodeID, container geom.Rect, policy ExpansionPolicy, depth int) []*Node {
	children := collectChildren(tree, root)
	if len(children) == 0 {
		return nil
	}

	sort.SliceStable(children, func(i, j int) bool { return children[i].size > children[j].size })

	var totalSize uint64
	for _, c := range children {
		totalSize += c.size
	}

	kept, aggIdx := partitionChildren(children, totalSize, container.Area())

	var aggSize uint64
	for _, i := range aggIdx {
		aggSize += children[i].size
	}
	aggCount := len(aggIdx)
	hasAggregate := aggCount > 0 && aggSize > 0

	// Treemap indices 0..len(kept)-1 address kept children; one more slot
	// addresses the aggregate block when present.
	items := make([]treemap.Item, 0, len(kept)+1)
	for treemapIdx, childIdx := range kept {
		items = append(items, treemap.Item{Size: children[childIdx].size, Index: treemapIdx})
	}
	aggItemIndex := len(kept)
	if hasAggregate {
		items = append(items, treemap.Item{Size: aggSize, Index: aggItemIndex})
	}

	layout := treemap.Layout(items, container)

	rootEntry, _ := tree.Entry(root)
	nodes := make([]*Node, 0, len(layout))

	for _, lr := range layout {
		if hasAggregate && lr.Index == aggItemIndex {
			nodes = append(nodes, &Node{
				Path:           rootEntry.Path + aggregateSuffix,
				Name:           aggregateLabel(aggCount),
				Size:           aggSize,
				OuterRect:      lr.Rect,
				StableID:       aggregateID(rootEntry.Path),
				IsAggregate:    true,
				AggregateCount: aggCount,
				Tiny:           lr.Tiny,
			})
			continue
		}
		if lr.Index >= len(kept) {
			continue
		}
		child := children[kept[lr.Index]]

		node := &Node{
			Path:      child.path,
			Name:      child.name,
			Size:      child.size,
			IsDir:     child.isDir,
			OuterRect: lr.Rect,
			StableID:  StableID(child.path),
			Tiny:      lr.Tiny,
		}

		if child.isDir && depth > 0 && policy.IsExpanded(child.path) {
			content := lr.Rect.Inset(HeaderHeight, SideInset)
			if content.Width > minContentDim && content.Height > minContentDim {
				node.ContentRect = &content
				node.Children = Build(tree, child.id, content, policy, depth-1)
			}
		}

		nodes = append(nodes, node)
	}

	return nodes
}

func collectChildren(tree *fstree.Tree, root fstree.NodeID) []childInfo {
	ids := tree.Children(root)
	children := make([]childInfo, 0, len(ids))
	for _, id := range ids {
		e, ok := tree.Entry(id)
		if !ok {
			continue
		}
		children = append(children, childInfo{
			id:    id,
			path:  e.Path,
			name:  e.Name,
			size:  e.CumulativeSize,
			isDir: e.IsDir,
		})
	}
	return children
}

func aggregateLabel(count int) string {
	if count == 1 {
		return "1 small item"
	}
	return fmt.Sprintf("%d small items", count)
}
