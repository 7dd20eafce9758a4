package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/diskview/pkg/geom"
	"github.com/matzehuels/diskview/pkg/render"
)

// =============================================================================
// Frame - Render Tree Serialization
// =============================================================================

// Frame is one laid-out view of a directory: the viewport plus the render
// tree produced for it. It is what the layout command prints and what
// external renderers consume.
type Frame struct {
	Root   string      `json:"root"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Nodes  []FrameNode `json:"nodes"`
}

// FrameNode mirrors a render node with stable JSON field names.
type FrameNode struct {
	Path           string      `json:"path"`
	Name           string      `json:"name"`
	Size           uint64      `json:"size"`
	IsDir          bool        `json:"is_dir,omitempty"`
	StableID       string      `json:"stable_id"`
	Rect           rectJSON    `json:"rect"`
	ContentRect    *rectJSON   `json:"content_rect,omitempty"`
	IsAggregate    bool        `json:"is_aggregate,omitempty"`
	AggregateCount int         `json:"aggregate_count,omitempty"`
	Tiny           bool        `json:"tiny,omitempty"`
	Children       []FrameNode `json:"children,omitempty"`
}

type rectJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// NewFrame converts a render tree to its serialization format. Stable IDs
// are formatted as hex strings so consumers in languages without 64-bit
// integers read them losslessly.
func NewFrame(root string, viewport geom.Rect, nodes []*render.Node) Frame {
	return Frame{
		Root:   root,
		Width:  viewport.Width,
		Height: viewport.Height,
		Nodes:  frameNodes(nodes),
	}
}

func frameNodes(nodes []*render.Node) []FrameNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]FrameNode, len(nodes))
	for i, n := range nodes {
		fn := FrameNode{
			Path:           n.Path,
			Name:           n.Name,
			Size:           n.Size,
			IsDir:          n.IsDir,
			StableID:       fmt.Sprintf("%016x", n.StableID),
			Rect:           toRectJSON(n.OuterRect),
			IsAggregate:    n.IsAggregate,
			AggregateCount: n.AggregateCount,
			Tiny:           n.Tiny,
			Children:       frameNodes(n.Children),
		}
		if n.ContentRect != nil {
			r := toRectJSON(*n.ContentRect)
			fn.ContentRect = &r
		}
		out[i] = fn
	}
	return out
}

func toRectJSON(r geom.Rect) rectJSON {
	return rectJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// MarshalFrame converts a frame to JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFrame(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFrame writes a frame as JSON to an io.Writer.
func WriteFrame(f Frame, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
