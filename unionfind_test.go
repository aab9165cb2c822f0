package dbscan

import "testing"

func TestNewUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	// Each element should be its own root.
	for i := 0; i < 5; i++ {
		if root := uf.Find(i); root != i {
			t.Errorf("Find(%d) = %d, want %d", i, root, i)
		}
		if uf.Size(i) != 1 {
			t.Errorf("Size(%d) = %d, want 1", i, uf.Size(i))
		}
	}
	if uf.Sets() != 5 {
		t.Errorf("Sets() = %d, want 5", uf.Sets())
	}
}

func TestUnionFind_UnionTwoElements(t *testing.T) {
	uf := NewUnionFind(5)
	root := uf.Union(1, 3)

	if !uf.Connected(1, 3) {
		t.Error("after Union(1,3), 1 and 3 are not connected")
	}
	if root != uf.Find(1) {
		t.Errorf("Union returned %d, Find(1) = %d", root, uf.Find(1))
	}
	if uf.Size(3) != 2 {
		t.Errorf("Size(3) = %d, want 2", uf.Size(3))
	}
	if uf.Connected(0, 1) {
		t.Error("0 and 1 should not be connected")
	}
	if uf.Sets() != 4 {
		t.Errorf("Sets() = %d, want 4", uf.Sets())
	}
}

func TestUnionFind_Transitive(t *testing.T) {
	uf := NewUnionFind(6)
	uf.Union(0, 1)
	uf.Union(2, 3)
	uf.Union(1, 3)
	uf.Union(4, 5)

	if !uf.Connected(0, 2) {
		t.Error("0 and 2 should be connected through 1 and 3")
	}
	if uf.Connected(0, 4) {
		t.Error("0 and 4 should not be connected")
	}
	if uf.Size(0) != 4 {
		t.Errorf("Size(0) = %d, want 4", uf.Size(0))
	}
	if uf.Sets() != 2 {
		t.Errorf("Sets() = %d, want 2", uf.Sets())
	}

	// A redundant union changes nothing.
	before := uf.Find(2)
	if got := uf.Union(0, 3); got != before {
		t.Errorf("redundant Union returned %d, want %d", got, before)
	}
	if uf.Sets() != 2 {
		t.Errorf("Sets() after redundant union = %d, want 2", uf.Sets())
	}
}

func TestUnionFind_PathCompression(t *testing.T) {
	uf := NewUnionFind(8)
	for i := 1; i < 8; i++ {
		uf.Union(i-1, i)
	}
	root := uf.Find(7)
	for i := 0; i < 8; i++ {
		uf.Find(i)
		if uf.parent[i] != -1 && uf.parent[i] != root {
			t.Errorf("parent[%d] = %d after Find, want root %d", i, uf.parent[i], root)
		}
	}
}
