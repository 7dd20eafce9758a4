package fstree

import (
	"testing"
)

func TestNewTreeHasDirectoryRoot(t *testing.T) {
	tree := New("/data")

	e, ok := tree.Entry(tree.Root())
	if !ok {
		t.Fatal("root entry not found")
	}
	if !e.IsDir {
		t.Error("root should be a directory")
	}
	if e.Path != "/data" {
		t.Errorf("root path = %q, want /data", e.Path)
	}
	if e.Size != 0 {
		t.Errorf("root size = %d, want 0", e.Size)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
}

func TestUpsertAndCalculateSizes(t *testing.T) {
	tree := New("/test")
	tree.Upsert("/test/file1.txt", 100, false)
	tree.Upsert("/test/dir1", 0, true)
	tree.Upsert("/test/dir1/file2.txt", 200, false)

	tree.CalculateSizes()

	if got := tree.TotalSize(); got != 300 {
		t.Errorf("TotalSize() = %d, want 300", got)
	}

	id, ok := tree.Lookup("/test/dir1")
	if !ok {
		t.Fatal("dir1 not found")
	}
	e, _ := tree.Entry(id)
	if e.CumulativeSize != 200 {
		t.Errorf("dir1 cumulative = %d, want 200", e.CumulativeSize)
	}
}

func TestUpsertCreatesImplicitAncestors(t *testing.T) {
	// Scenario: a fresh tree receives a deep leaf before anything else.
	tree := New("/root")
	tree.Upsert("/root/a/b/file.txt", 200, false)

	for _, path := range []string{"/root/a", "/root/a/b"} {
		id, ok := tree.Lookup(path)
		if !ok {
			t.Fatalf("implicit directory %s not created", path)
		}
		e, _ := tree.Entry(id)
		if !e.IsDir {
			t.Errorf("%s should be a directory", path)
		}
		if e.Size != 0 {
			t.Errorf("%s size = %d, want 0", path, e.Size)
		}
	}

	if _, ok := tree.Lookup("/root/a/b/file.txt"); !ok {
		t.Fatal("leaf not created")
	}

	tree.CalculateSizes()
	if got := tree.TotalSize(); got != 200 {
		t.Errorf("TotalSize() = %d, want 200", got)
	}
}

func TestUpsertIgnoresOutOfTreePaths(t *testing.T) {
	tree := New("/root")

	tests := []struct {
		name string
		path string
	}{
		{"RootItself", "/root"},
		{"Sibling", "/other/file.txt"},
		{"Parent", "/"},
		{"PrefixButNotChild", "/rootbeer/file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tree.Len()
			tree.Upsert(tt.path, 500, false)
			if tree.Len() != before {
				t.Errorf("Upsert(%q) changed entry count", tt.path)
			}
		})
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	tree := New("/root")
	tree.Upsert("/root/f", 100, false)

	id1, _ := tree.Lookup("/root/f")
	tree.Upsert("/root/f", 250, false)
	id2, _ := tree.Lookup("/root/f")

	if id1 != id2 {
		t.Errorf("identifier changed on re-upsert: %d -> %d", id1, id2)
	}

	e, _ := tree.Entry(id2)
	if e.Size != 250 {
		t.Errorf("size = %d, want 250", e.Size)
	}
	if len(tree.Children(tree.Root())) != 1 {
		t.Error("re-upsert duplicated the child")
	}
}

func TestUpsertPromotesFileWhenChildArrives(t *testing.T) {
	// Scenario: the scanner reports a path as a file, then delivers an entry
	// beneath it. The parent must become a directory so the child's bytes
	// count toward every ancestor.
	tree := New("/r")
	tree.Upsert("/r/a", 500, false)
	tree.Upsert("/r/a/b.bin", 300, false)
	tree.CalculateSizes()

	id, ok := tree.Lookup("/r/a")
	if !ok {
		t.Fatal("/r/a not found")
	}
	e, _ := tree.Entry(id)
	if !e.IsDir {
		t.Error("/r/a should have been promoted to a directory")
	}
	if e.CumulativeSize != 300 {
		t.Errorf("/r/a cumulative = %d, want 300", e.CumulativeSize)
	}
	if got := tree.TotalSize(); got != 300 {
		t.Errorf("TotalSize() = %d, want 300", got)
	}

	childID, ok := tree.Lookup("/r/a/b.bin")
	if !ok {
		t.Fatal("/r/a/b.bin not found")
	}
	if tree.Parent(childID) != id {
		t.Error("child not attached to the promoted directory")
	}
}

func TestUpsertKeepsDirectoryWithChildren(t *testing.T) {
	tree := New("/r")
	tree.Upsert("/r/a/b.bin", 300, false)
	tree.Upsert("/r/a", 0, false) // stale record claims /r/a is a file
	tree.CalculateSizes()

	id, _ := tree.Lookup("/r/a")
	e, _ := tree.Entry(id)
	if !e.IsDir {
		t.Error("/r/a was demoted despite having children")
	}
	if got := tree.TotalSize(); got != 300 {
		t.Errorf("TotalSize() = %d, want 300", got)
	}
}

func TestRemovePathRecursive(t *testing.T) {
	tree := New("/root")
	tree.Upsert("/root/keep.txt", 50, false)
	tree.Upsert("/root/dir/a.txt", 100, false)
	tree.Upsert("/root/dir/sub/b.txt", 200, false)
	tree.CalculateSizes()

	if got := tree.TotalSize(); got != 350 {
		t.Fatalf("pre-removal TotalSize() = %d, want 350", got)
	}

	if !tree.RemovePathRecursive("/root/dir") {
		t.Fatal("RemovePathRecursive returned false")
	}

	for _, path := range []string{"/root/dir", "/root/dir/a.txt", "/root/dir/sub", "/root/dir/sub/b.txt"} {
		if _, ok := tree.Lookup(path); ok {
			t.Errorf("%s still in index after removal", path)
		}
	}

	tree.CalculateSizes()
	if got := tree.TotalSize(); got != 50 {
		t.Errorf("post-removal TotalSize() = %d, want 50", got)
	}
	if got := len(tree.Children(tree.Root())); got != 1 {
		t.Errorf("root has %d children, want 1", got)
	}
}

func TestRemoveReducesAncestorsByContribution(t *testing.T) {
	tree := New("/root")
	tree.Upsert("/root/a/x.txt", 100, false)
	tree.Upsert("/root/a/b/y.txt", 200, false)
	tree.Upsert("/root/a/b/z.txt", 300, false)
	tree.CalculateSizes()

	idA, _ := tree.Lookup("/root/a")
	before, _ := tree.Entry(idA)
	idB, _ := tree.Lookup("/root/a/b")
	contribution, _ := tree.Entry(idB)

	tree.RemovePathRecursive("/root/a/b")
	tree.CalculateSizes()

	after, _ := tree.Entry(idA)
	if after.CumulativeSize != before.CumulativeSize-contribution.CumulativeSize {
		t.Errorf("ancestor cumulative = %d, want %d",
			after.CumulativeSize, before.CumulativeSize-contribution.CumulativeSize)
	}
	if got := tree.TotalSize(); got != 100 {
		t.Errorf("TotalSize() = %d, want 100", got)
	}
}

func TestRemoveNoOps(t *testing.T) {
	tree := New("/root")
	tree.Upsert("/root/f", 10, false)

	if tree.RemovePathRecursive("/root") {
		t.Error("removing the root should be a no-op")
	}
	if tree.RemovePathRecursive("/root/missing") {
		t.Error("removing an unknown path should return false")
	}
	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tree.Len())
	}
}

func TestCumulativeSizeInvariant(t *testing.T) {
	tree := New("/r")
	tree.Upsert("/r/a/1", 10, false)
	tree.Upsert("/r/a/2", 20, false)
	tree.Upsert("/r/a/b/3", 30, false)
	tree.Upsert("/r/c/4", 40, false)
	tree.Upsert("/r/top", 5, false)
	tree.CalculateSizes()

	// Every directory's cumulative size must equal the sum of its direct
	// children's cumulative sizes, checked recursively to the leaves.
	var check func(id NodeID)
	check = func(id NodeID) {
		e, _ := tree.Entry(id)
		children := tree.Children(id)
		if e.IsDir {
			var sum uint64
			for _, c := range children {
				ce, _ := tree.Entry(c)
				sum += ce.CumulativeSize
			}
			if e.CumulativeSize != sum {
				t.Errorf("%s cumulative = %d, children sum = %d", e.Path, e.CumulativeSize, sum)
			}
		} else if e.CumulativeSize != e.Size {
			t.Errorf("%s cumulative = %d, want own size %d", e.Path, e.CumulativeSize, e.Size)
		}
		for _, c := range children {
			check(c)
		}
	}
	check(tree.Root())

	if got := tree.TotalSize(); got != 105 {
		t.Errorf("TotalSize() = %d, want 105", got)
	}
}

func TestArenaSlotReuseKeepsIndexConsistent(t *testing.T) {
	tree := New("/r")
	tree.Upsert("/r/old/a", 1, false)
	tree.Upsert("/r/old/b", 2, false)
	tree.RemovePathRecursive("/r/old")

	tree.Upsert("/r/new/c", 3, false)
	tree.CalculateSizes()

	if _, ok := tree.Lookup("/r/old/a"); ok {
		t.Error("stale path resolved after slot reuse")
	}
	id, ok := tree.Lookup("/r/new/c")
	if !ok {
		t.Fatal("new path missing")
	}
	e, _ := tree.Entry(id)
	if e.Path != "/r/new/c" || e.Size != 3 {
		t.Errorf("entry = %+v, want /r/new/c size 3", e)
	}
	if got := tree.TotalSize(); got != 3 {
		t.Errorf("TotalSize() = %d, want 3", got)
	}
}

func TestLookupUnknownPath(t *testing.T) {
	tree := New("/r")
	if id, ok := tree.Lookup("/r/nope"); ok || id != InvalidID {
		t.Errorf("Lookup = (%d, %v), want (InvalidID, false)", id, ok)
	}
	if _, ok := tree.Entry(InvalidID); ok {
		t.Error("Entry(InvalidID) should report false")
	}
}
