// Package render turns one level of the size model into presentation-ready
// rectangles, recursively.
//
// For a directory it gathers the children, decides which are worth drawing
// individually and which collapse into a single aggregate placeholder
// (partition.go), hands the survivors to the treemap packer, and recurses
// into directories the expansion policy flags as open (build.go). The result
// is an immutable tree of Nodes that the presentation layer consumes
// read-only; every relevant state change (resize, expand, collapse, data
// mutation) discards the old tree and builds a new one, with stable
// path-derived identifiers carrying continuity across rebuilds.
package render
