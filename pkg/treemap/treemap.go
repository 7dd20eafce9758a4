// Package treemap implements a squarified treemap packer with adaptive
// split-direction selection.
//
// The row-building strategy is the classic squarified algorithm (Bruls,
// Huizing, van Wijk): items are sorted by size descending and greedily
// appended to the current row while doing so does not worsen the row's worst
// aspect ratio. The departure from the classic algorithm is how a closed row
// is oriented: instead of always splitting along the container's shorter
// side, both orientations are scored and the better one wins. A fixed split
// axis degrades badly when a single item dominates the total - the follow-up
// rows end up as pathologically thin strips - and the adaptive score avoids
// that.
package treemap

import (
	"math"
	"sort"

	"github.com/matzehuels/diskview/pkg/geom"
)

// MinVisibleSize is the dimension below which an output rectangle is flagged
// tiny. The flag is advisory for the presentation layer; the packer never
// resizes or repositions a rectangle because of it.
const MinVisibleSize = 4.0

// remainderWeight scales the remaining-container aspect term in the
// direction score. Weighting the remainder double keeps one bad row from
// ruining the shape of everything laid out after it.
const remainderWeight = 2.0

// tieBreakHorizontal resolves equal direction scores in favor of a
// horizontal row. Pure visual-polish policy with no correctness implication.
const tieBreakHorizontal = true

// Item is one sized entry to lay out. Index is caller-defined and
// round-trips unchanged into the output.
type Item struct {
	Size  uint64
	Index int
}

// LayoutRect is one placed item.
type LayoutRect struct {
	Rect  geom.Rect
	Index int

	// Tiny reports that either dimension is below MinVisibleSize.
	Tiny bool
}

// scaledItem carries an item's share of the container area.
type scaledItem struct {
	index int
	area  float64
}

// Layout packs items into container. Empty input, zero total size, or a
// container with non-positive area yield nil. Otherwise the output
// rectangles tile the container exactly: areas sum to the container area up
// to floating tolerance and no two rectangles overlap.
func Layout(items []Item, container geom.Rect) []LayoutRect {
	if len(items) == 0 || container.Area() <= 0 {
		return nil
	}

	var total uint64
	for _, it := range items {
		total += it.Size
	}
	if total == 0 {
		return nil
	}

	scale := container.Area() / float64(total)
	scaled := make([]scaledItem, len(items))
	for i, it := range items {
		scaled[i] = scaledItem{index: it.Index, area: float64(it.Size) * scale}
	}
	sort.Slice(scaled, func(i, j int) bool { return scaled[i].area > scaled[j].area })

	out := make([]LayoutRect, 0, len(items))
	cur := container
	for len(scaled) > 0 {
		n := rowLength(scaled, cur.ShortSide())
		row := scaled[:n]
		scaled = scaled[n:]

		final := len(scaled) == 0
		horizontal := chooseDirection(row, cur, final)
		cur = placeRow(row, cur, horizontal, final, &out)
	}
	return out
}

// rowLength returns how many leading items belong in the next row: items are
// appended while the row's worst aspect ratio does not worsen.
func rowLength(items []scaledItem, shortSide float64) int {
	n := 1
	for n < len(items) {
		if worstRatio(items[:n+1], shortSide) > worstRatio(items[:n], shortSide) {
			break
		}
		n++
	}
	return n
}

// worstRatio is the squarified-treemap row metric: the worst aspect ratio
// any item in the row would get if the row were laid against a side of
// length w. With row total t, max item area a+ and min item area a-:
//
//	max(w²·a+/t², t²/(w²·a-))
func worstRatio(row []scaledItem, w float64) float64 {
	total := 0.0
	maxA := 0.0
	minA := math.Inf(1)
	for _, it := range row {
		total += it.area
		maxA = math.Max(maxA, it.area)
		minA = math.Min(minA, it.area)
	}
	if w <= 0 || total <= 0 || minA <= 0 {
		return math.Inf(1)
	}
	w2 := w * w
	return math.Max(w2*maxA/(total*total), total*total/(w2*minA))
}

// chooseDirection scores laying the row horizontally (a strip across the
// top, items left to right) against vertically (a strip down the left side,
// items top to bottom). The score for a direction is the worst item aspect
// ratio in the row plus remainderWeight times the aspect ratio of the
// container area left over; lower is better. The remainder term is dropped
// for the final row, which consumes the whole remaining container anyway.
func chooseDirection(row []scaledItem, cur geom.Rect, final bool) bool {
	scoreH := directionScore(row, cur, true, final)
	scoreV := directionScore(row, cur, false, final)
	if scoreH == scoreV {
		return tieBreakHorizontal
	}
	return scoreH < scoreV
}

func directionScore(row []scaledItem, cur geom.Rect, horizontal, final bool) float64 {
	length := cur.Height
	if horizontal {
		length = cur.Width
	}
	if length <= 0 {
		return math.Inf(1)
	}

	total := 0.0
	for _, it := range row {
		total += it.area
	}
	breadth := total / length

	worst := 1.0
	for _, it := range row {
		if breadth <= 0 {
			continue
		}
		itemLen := it.area / breadth
		if itemLen <= 0 {
			continue
		}
		aspect := itemLen / breadth
		if aspect < 1 {
			aspect = 1 / aspect
		}
		worst = math.Max(worst, aspect)
	}

	if final {
		return worst
	}
	return worst + remainderWeight*remainder(cur, horizontal, breadth).AspectRatio()
}

// placeRow lays the row into cur along the chosen direction and returns the
// container left for the next row. The final item of the row absorbs the
// exact remaining row length, and the final row absorbs the exact remaining
// breadth, so floating-point drift cannot open sub-pixel gaps or overlaps
// between neighbors.
func placeRow(row []scaledItem, cur geom.Rect, horizontal, final bool, out *[]LayoutRect) geom.Rect {
	length := cur.Height
	if horizontal {
		length = cur.Width
	}

	total := 0.0
	for _, it := range row {
		total += it.area
	}

	var breadth float64
	switch {
	case final && horizontal:
		breadth = cur.Height
	case final:
		breadth = cur.Width
	case length > 0:
		breadth = total / length
	}

	offset := 0.0
	for i, it := range row {
		var itemLen float64
		if i == len(row)-1 {
			itemLen = length - offset
		} else if total > 0 {
			itemLen = it.area / total * length
		}

		var r geom.Rect
		if horizontal {
			r = geom.NewRect(cur.X+offset, cur.Y, itemLen, breadth)
		} else {
			r = geom.NewRect(cur.X, cur.Y+offset, breadth, itemLen)
		}
		*out = append(*out, LayoutRect{
			Rect:  r,
			Index: it.index,
			Tiny:  r.Width < MinVisibleSize || r.Height < MinVisibleSize,
		})
		offset += itemLen
	}

	return remainder(cur, horizontal, breadth)
}

// remainder returns the container area left after a row of the given breadth
// is carved off along the chosen direction.
func remainder(cur geom.Rect, horizontal bool, breadth float64) geom.Rect {
	if horizontal {
		return geom.NewRect(cur.X, cur.Y+breadth, cur.Width, cur.Height-breadth)
	}
	return geom.NewRect(cur.X+breadth, cur.Y, cur.Width-breadth, cur.Height)
}
