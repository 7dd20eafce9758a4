package render

// Aggregation parameters. Tuned for legibility: small noise is swept into
// one grey block, the block itself stays a minor share of the picture, and
// each level shows a manageable number of well-sized rectangles.
const (
	// minUsefulArea is the absolute minimum area (in squared layout units,
	// ~20x20 px) for an item to render individually.
	minUsefulArea = 400.0

	// minAreaPct is the minimum fraction of the container area for an item
	// to render individually.
	minAreaPct = 0.005

	// preferredMaxItems is the soft cap on individually rendered items per
	// level before aggregation kicks in.
	preferredMaxItems = 12

	// maxAggregateFraction is the largest share of the level's total size
	// the aggregate block may consume. Larger aggregates get items pulled
	// back out.
	maxAggregateFraction = 0.08
)

// partitionChildren splits children (already sorted by size descending) into
// indices rendered individually and indices folded into the aggregate block.
// The two slices are disjoint and together cover every input index exactly
// once; kept comes back sorted by size descending.
//
// Three phases:
//
//  1. Area filter: children whose proportional area falls below the
//     visibility threshold go to the aggregate.
//  2. Count cap: while too many remain, the smallest kept child moves over.
//  3. Budget rescue: while the aggregate exceeds its size budget, its
//     largest member is pulled back out.
//
// If everything ended up aggregated but children exist, the largest child is
// forced back, so a non-empty level always renders at least one real item.
func partitionChildren(children []childInfo, totalSize uint64, containerArea float64) (kept, aggregated []int) {
	n := len(children)
	if n == 0 {
		return nil, nil
	}

	minArea := minUsefulArea
	if pct := containerArea * minAreaPct; pct > minArea {
		minArea = pct
	}

	for i := 0; i < n; i++ {
		var estimated float64
		if totalSize > 0 {
			estimated = float64(children[i].size) / float64(totalSize) * containerArea
		}
		if estimated >= minArea {
			kept = append(kept, i)
		} else {
			aggregated = append(aggregated, i)
		}
	}

	// Count cap. kept is sorted descending, so popping the tail always
	// moves the smallest; prepending keeps aggregated largest-first.
	for len(kept) > preferredMaxItems {
		last := kept[len(kept)-1]
		kept = kept[:len(kept)-1]
		aggregated = append([]int{last}, aggregated...)
	}

	// Budget rescue.
	budget := float64(totalSize) * maxAggregateFraction
	var aggTotal uint64
	for _, i := range aggregated {
		aggTotal += children[i].size
	}
	for float64(aggTotal) > budget && len(aggregated) > 0 {
		rescued := aggregated[0]
		aggregated = aggregated[1:]
		aggTotal -= children[rescued].size
		kept = append(kept, rescued)
	}

	if len(kept) == 0 && len(aggregated) > 0 {
		kept = append(kept, aggregated[0])
		aggregated = aggregated[1:]
	}

	sortBySizeDesc(kept, children)
	return kept, aggregated
}

// sortBySizeDesc re-sorts index slice idx by the referenced child sizes,
// largest first. Insertion sort: idx is nearly sorted already (only budget
// rescue appends out of order) and stays tiny.
func sortBySizeDesc(idx []int, children []childInfo) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && children[idx[j]].size > children[idx[j-1]].size; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}
