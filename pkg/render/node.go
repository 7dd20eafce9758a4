package render

import (
	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/diskview/pkg/geom"
)

// aggregateSalt is XORed into the stable ID of the synthetic aggregate node
// so it can never collide with the ID of a real sibling path.
const aggregateSalt = 0xA66E

// aggregateSuffix is appended to the parent path to form the aggregate
// node's synthetic path.
const aggregateSuffix = "/__aggregate__"

// Node is one rectangle in the render tree.
//
// A Node tree is an immutable snapshot: the presentation layer reads it and
// never writes back, and a rebuild replaces the whole tree rather than
// patching it.
type Node struct {
	// Path is the filesystem path this node represents. For the aggregate
	// node it is the parent path plus a synthetic suffix.
	Path string

	// Name is the display label. The aggregate node encodes its item count
	// here ("17 small items").
	Name string

	// Size is the displayed byte size: cumulative for directories, own size
	// for files, summed size for the aggregate.
	Size uint64

	// IsDir reports whether the node is a directory.
	IsDir bool

	// OuterRect is the node's full rectangle.
	OuterRect geom.Rect

	// ContentRect is the inner area available to children. Nil unless the
	// node is an expanded directory whose inset was large enough to use.
	ContentRect *geom.Rect

	// Children is populated only for expanded directories.
	Children []*Node

	// StableID is a deterministic hash of Path, used by the presentation
	// layer to correlate nodes across successive rebuilds.
	StableID uint64

	// IsAggregate marks the synthetic placeholder for small siblings.
	IsAggregate bool

	// AggregateCount is the number of items folded into an aggregate node.
	// Zero for regular nodes.
	AggregateCount int

	// Tiny carries the packer's minimum-visible-size advisory. Presentation
	// may dim or skip labelling such nodes; geometry is unaffected.
	Tiny bool
}

// StableID returns the deterministic identifier for a path. The same path
// always hashes to the same ID, independent of tree shape or build order.
func StableID(path string) uint64 {
	return xxhash.Sum64String(path)
}

// aggregateID returns the identifier for the synthetic aggregate node under
// parentPath.
func aggregateID(parentPath string) uint64 {
	return xxhash.Sum64String(parentPath+aggregateSuffix) ^ aggregateSalt
}
