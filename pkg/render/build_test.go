package render

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/diskview/pkg/fstree"
	"github.com/matzehuels/diskview/pkg/geom"
)

func buildTree(t *testing.T, root string, files map[string]uint64) *fstree.Tree {
	t.Helper()
	tree := fstree.New(root)
	for path, size := range files {
		tree.Upsert(path, size, false)
	}
	tree.CalculateSizes()
	return tree
}

// checkLevelTiling verifies that sibling outer rectangles tile their
// container without positive-area overlap.
func checkLevelTiling(t *testing.T, nodes []*Node, container geom.Rect) {
	t.Helper()

	var sum float64
	for _, n := range nodes {
		sum += n.OuterRect.Area()
	}
	if rel := math.Abs(sum-container.Area()) / container.Area(); rel > 0.01 {
		t.Errorf("level area sum = %.2f, container = %.2f", sum, container.Area())
	}

	const eps = 1e-6
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i].OuterRect, nodes[j].OuterRect
			w := math.Min(a.X+a.Width, b.X+b.Width) - math.Max(a.X, b.X)
			h := math.Min(a.Y+a.Height, b.Y+b.Height) - math.Max(a.Y, b.Y)
			if w > eps && h > eps {
				t.Errorf("nodes %q and %q overlap", nodes[i].Name, nodes[j].Name)
			}
		}
	}
}

func TestBuildEmptyDirectory(t *testing.T) {
	tree := fstree.New("/r")
	nodes := Build(tree, tree.Root(), geom.NewRect(0, 0, 800, 600), NewExpansionState(), MaxExpandDepth)
	if nodes != nil {
		t.Errorf("got %d nodes for empty directory, want none", len(nodes))
	}
}

func TestBuildSimpleLevel(t *testing.T) {
	tree := buildTree(t, "/r", map[string]uint64{
		"/r/big.iso":    5000,
		"/r/medium.mkv": 3000,
		"/r/small.txt":  2000,
	})
	container := geom.NewRect(0, 0, 800, 600)

	nodes := Build(tree, tree.Root(), container, NewExpansionState(), MaxExpandDepth)

	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	checkLevelTiling(t, nodes, container)

	for _, n := range nodes {
		if n.IsAggregate {
			t.Errorf("unexpected aggregate node %q", n.Name)
		}
		if n.ContentRect != nil || n.Children != nil {
			t.Errorf("collapsed file %q has content", n.Name)
		}
		if n.StableID != StableID(n.Path) {
			t.Errorf("%q stable ID not derived from path", n.Name)
		}
	}
}

// Fifty equal-size leaves in one directory: the count cap fires, the small
// tail folds into one aggregate block, and the visible rectangles still tile
// the container. The budget rescue keeps the aggregate at or below 8% of the
// directory's total size.
func TestBuildManyEqualChildren(t *testing.T) {
	files := make(map[string]uint64, 50)
	for i := 0; i < 50; i++ {
		files[fmt.Sprintf("/r/file_%02d.dat", i)] = 100
	}
	tree := buildTree(t, "/r", files)
	container := geom.NewRect(0, 0, 1200, 780)

	nodes := Build(tree, tree.Root(), container, NewExpansionState(), MaxExpandDepth)
	checkLevelTiling(t, nodes, container)

	var agg *Node
	for _, n := range nodes {
		if n.IsAggregate {
			if agg != nil {
				t.Fatal("more than one aggregate node")
			}
			agg = n
		}
	}
	if agg == nil {
		t.Fatal("aggregation did not activate")
	}
	if agg.AggregateCount < 2 {
		t.Errorf("aggregate count = %d, want >= 2", agg.AggregateCount)
	}
	if want := fmt.Sprintf("%d small items", agg.AggregateCount); agg.Name != want {
		t.Errorf("aggregate name = %q, want %q", agg.Name, want)
	}
	if frac := float64(agg.Size) / float64(tree.TotalSize()); frac > maxAggregateFraction+0.01 {
		t.Errorf("aggregate fraction %.1f%% exceeds budget", frac*100)
	}
	if agg.Children != nil || agg.ContentRect != nil {
		t.Error("aggregate node must be terminal")
	}
	if agg.StableID == StableID("/r") || agg.StableID == 0 {
		t.Error("aggregate stable ID should be salted and non-zero")
	}
}

func TestBuildExpandedDirectory(t *testing.T) {
	tree := buildTree(t, "/r", map[string]uint64{
		"/r/docs/a.pdf": 4000,
		"/r/docs/b.pdf": 2000,
		"/r/lone.bin":   4000,
	})
	container := geom.NewRect(0, 0, 800, 600)

	state := NewExpansionState()
	state.Expand("/r/docs")

	nodes := Build(tree, tree.Root(), container, state, MaxExpandDepth)
	checkLevelTiling(t, nodes, container)

	var docs *Node
	for _, n := range nodes {
		if n.Name == "docs" {
			docs = n
		}
	}
	if docs == nil {
		t.Fatal("docs node not found")
	}
	if !docs.IsDir {
		t.Error("docs should be a directory")
	}
	if docs.Size != 6000 {
		t.Errorf("docs size = %d, want cumulative 6000", docs.Size)
	}
	if docs.ContentRect == nil {
		t.Fatal("expanded directory has no content rect")
	}

	content := *docs.ContentRect
	outer := docs.OuterRect
	if content.Y != outer.Y+HeaderHeight || content.X != outer.X+SideInset {
		t.Errorf("content rect origin = (%v, %v), want header/side inset applied", content.X, content.Y)
	}

	if len(docs.Children) != 2 {
		t.Fatalf("docs has %d children, want 2", len(docs.Children))
	}
	checkLevelTiling(t, docs.Children, content)
}

func TestBuildDepthExhaustionForcesTerminal(t *testing.T) {
	tree := buildTree(t, "/r", map[string]uint64{"/r/dir/x.bin": 1000})
	state := NewExpansionState()
	state.Expand("/r/dir")

	nodes := Build(tree, tree.Root(), geom.NewRect(0, 0, 800, 600), state, 0)
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].ContentRect != nil || nodes[0].Children != nil {
		t.Error("depth 0 must force terminal nodes regardless of expansion flag")
	}
}

func TestBuildSkipsRecursionIntoUselessInset(t *testing.T) {
	tree := buildTree(t, "/r", map[string]uint64{"/r/dir/x.bin": 1000})
	state := NewExpansionState()
	state.Expand("/r/dir")

	// A 10x10 viewport leaves no useful content area after the header strip.
	nodes := Build(tree, tree.Root(), geom.NewRect(0, 0, 10, 10), state, MaxExpandDepth)
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].ContentRect != nil || nodes[0].Children != nil {
		t.Error("too-small inset should render the directory collapsed")
	}
}

func TestBuildIsPure(t *testing.T) {
	files := map[string]uint64{
		"/r/a/1.go":   1200,
		"/r/a/2.go":   800,
		"/r/a/b/3.go": 2400,
		"/r/big.tar":  5000,
		"/r/tiny":     1,
	}
	tree := buildTree(t, "/r", files)
	container := geom.NewRect(0, 0, 1024, 768)

	state := NewExpansionState()
	state.Expand("/r/a")
	state.Expand("/r/a/b")

	first := Build(tree, tree.Root(), container, state, MaxExpandDepth)
	second := Build(tree, tree.Root(), container, state, MaxExpandDepth)

	if !reflect.DeepEqual(first, second) {
		t.Error("two builds with identical inputs differ")
	}
}

func TestBuildStableIDsSurviveRebuilds(t *testing.T) {
	tree := buildTree(t, "/r", map[string]uint64{
		"/r/a.bin": 700,
		"/r/b.bin": 300,
	})

	wide := Build(tree, tree.Root(), geom.NewRect(0, 0, 1200, 400), NewExpansionState(), MaxExpandDepth)
	tall := Build(tree, tree.Root(), geom.NewRect(0, 0, 400, 1200), NewExpansionState(), MaxExpandDepth)

	ids := func(nodes []*Node) map[string]uint64 {
		m := make(map[string]uint64)
		for _, n := range nodes {
			m[n.Path] = n.StableID
		}
		return m
	}
	wideIDs, tallIDs := ids(wide), ids(tall)
	for path, id := range wideIDs {
		if tallIDs[path] != id {
			t.Errorf("stable ID for %s changed across geometries", path)
		}
	}
}
