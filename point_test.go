package dbscan

import (
	"errors"
	"math"
	"testing"
)

func TestPointEqualIsBitwise(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"identical", Point{1, 2}, Point{1, 2}, true},
		{"different value", Point{1, 2}, Point{1, 3}, false},
		{"different dimension", Point{1, 2}, Point{1, 2, 0}, false},
		{"signed zeros differ", Point{0}, Point{math.Copysign(0, -1)}, false},
		{"nan equals itself", Point{nan}, Point{nan}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.a.Key() == tt.b.Key(); got != tt.want {
				t.Errorf("Key equality = %v, want %v", got, tt.want)
			}
			if got := ComparePoints(tt.a, tt.b) == 0; got != tt.want {
				t.Errorf("ComparePoints == 0 is %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComparePointsTotalOrder(t *testing.T) {
	ordered := []Point{
		{math.Inf(-1)},
		{-2},
		{math.Copysign(0, -1)},
		{0},
		{1.5},
		{math.Inf(1)},
		{math.NaN()},
	}
	for i := range ordered {
		for j := range ordered {
			got := ComparePoints(ordered[i], ordered[j])
			var want int
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("ComparePoints(%v, %v) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}

	// Lexicographic across coordinates, shorter prefix first.
	if ComparePoints(Point{1, 9}, Point{2, 0}) != -1 {
		t.Error("expected (1,9) < (2,0)")
	}
	if ComparePoints(Point{1}, Point{1, 0}) != -1 {
		t.Error("expected (1) < (1,0)")
	}
}

func TestNewPointSet(t *testing.T) {
	set, err := NewPointSet([]Point{{0, 0}, {1, 1}, {0, 0}, {2, 2}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 5 {
		t.Errorf("Len = %d, want 5", set.Len())
	}
	if set.Dims() != 2 {
		t.Errorf("Dims = %d, want 2", set.Dims())
	}
	if set.Distinct() != 3 {
		t.Errorf("Distinct = %d, want 3", set.Distinct())
	}
	if len(set.Data()) != 10 {
		t.Errorf("len(Data) = %d, want 10", len(set.Data()))
	}
	if !set.At(3).Equal(Point{2, 2}) {
		t.Errorf("At(3) = %v, want (2,2)", set.At(3))
	}

	dups := set.Duplicates(Point{0, 0})
	want := []PointRef{0, 2, 4}
	if len(dups) != len(want) {
		t.Fatalf("Duplicates = %v, want %v", dups, want)
	}
	for i := range want {
		if dups[i] != want[i] {
			t.Errorf("Duplicates[%d] = %d, want %d", i, dups[i], want[i])
		}
	}

	ref, ok := set.Lookup(Point{1, 1})
	if !ok || ref != 1 {
		t.Errorf("Lookup((1,1)) = %d, %v; want 1, true", ref, ok)
	}
	if _, ok := set.Lookup(Point{5, 5}); ok {
		t.Error("Lookup of an absent point succeeded")
	}
	if set.Duplicates(Point{5, 5}) != nil {
		t.Error("Duplicates of an absent point should be nil")
	}

	if !set.Contains(4) || set.Contains(5) || set.Contains(-1) {
		t.Error("Contains does not match [0, Len)")
	}
}

func TestNewPointSetCopiesInput(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	set := mustPointSet(t, rows)
	rows[0][0] = 99
	if set.At(0)[0] != 1 {
		t.Errorf("PointSet shares storage with its input: At(0) = %v", set.At(0))
	}

	pts := set.Points()
	pts[1][1] = -1
	if set.At(1)[1] != 4 {
		t.Errorf("Points returned shared storage: At(1) = %v", set.At(1))
	}
}

func TestNewPointSetRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"zero dimension", []Point{{}}},
		{"ragged", []Point{{1, 2}, {3}}},
		{"nan", []Point{{1, math.NaN()}}},
		{"inf", []Point{{math.Inf(1), 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPointSet(tt.points)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPointSetAscendDistinct(t *testing.T) {
	set := mustPointSet(t, [][]float64{{3}, {1}, {2}, {1}})
	var got []float64
	var counts []int
	set.ascendDistinct(func(p Point, refs []PointRef) bool {
		got = append(got, p[0])
		counts = append(counts, len(refs))
		return true
	})
	want := []float64{1, 2, 3}
	wantCounts := []int{2, 1, 1}
	for i := range want {
		if got[i] != want[i] || counts[i] != wantCounts[i] {
			t.Errorf("entry %d = (%v, %d refs), want (%v, %d refs)", i, got[i], counts[i], want[i], wantCounts[i])
		}
	}
}
