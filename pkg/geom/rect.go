// Package geom provides the axis-aligned rectangle primitives used by the
// treemap layout engine and the render-tree builder.
//
// All coordinates are float64 in caller-chosen units (screen pixels, terminal
// cells); every rectangle passed to a single layout call shares one
// coordinate space.
package geom

// Rect is an axis-aligned rectangle. X and Y locate the top-left corner;
// Width and Height extend right and down.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a rectangle from its top-left corner and dimensions.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Area returns Width * Height. Degenerate rectangles have non-positive area.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// ShortSide returns the smaller of Width and Height.
func (r Rect) ShortSide() float64 {
	if r.Width < r.Height {
		return r.Width
	}
	return r.Height
}

// AspectRatio returns the ratio of the longer side to the shorter side,
// always >= 1 for positive rectangles. Rectangles with a non-positive
// dimension report 1, so degenerate remainders never dominate a layout score.
func (r Rect) AspectRatio() float64 {
	w, h := r.Width, r.Height
	if w <= 0 || h <= 0 {
		return 1
	}
	if w > h {
		return w / h
	}
	return h / w
}

// Inset returns a copy of r shrunk by the given margins. Top is consumed from
// the top edge; side is consumed from the left, right, and bottom edges. The
// result is clamped to a minimum dimension of 1 so callers can test it for
// usefulness without dividing by zero.
func (r Rect) Inset(top, side float64) Rect {
	w := r.Width - 2*side
	h := r.Height - top - side
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Rect{X: r.X + side, Y: r.Y + top, Width: w, Height: h}
}
