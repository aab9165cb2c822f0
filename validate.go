package dbscan

import "fmt"

// ValidationError describes the first clustering invariant found violated
// by Validate.
type ValidationError struct {
	Property string
	Ref      PointRef
	Detail   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid clustering (%s) at ref %d: %s", e.Property, e.Ref, e.Detail)
}

// Is reports the error as ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Validate checks that classes is a correct DBSCAN clustering of the
// engine's point set for (eps, minPts):
//   - every point is labeled and cluster ids are exactly 0..K-1
//   - core points are never noise, and adjacent core points share a cluster
//   - every classified point lies within eps of a core point of its cluster
//   - every cluster's core points are density-connected
//   - noise points have no core point within eps
//
// It issues one region query per point.
func Validate(engine RegionQuery, eps float64, minPts int, classes Classes) error {
	set := engine.Set()
	if set == nil {
		return ErrNotInitialized
	}
	n := set.Len()
	if len(classes) != n {
		return &ValidationError{Property: "totality", Ref: PointRef(min(len(classes), n)),
			Detail: fmt.Sprintf("%d labels for %d points", len(classes), n)}
	}

	maxID := -1
	for i, l := range classes {
		switch l.Kind {
		case Unclassified:
			return &ValidationError{Property: "totality", Ref: PointRef(i), Detail: "point is unclassified"}
		case ClassifiedKind:
			if l.ID < 0 {
				return &ValidationError{Property: "ids", Ref: PointRef(i), Detail: fmt.Sprintf("negative cluster id %d", l.ID)}
			}
			maxID = max(maxID, l.ID)
		}
	}
	members := classes.Members()
	for id, refs := range members {
		if len(refs) == 0 {
			return &ValidationError{Property: "ids", Ref: -1, Detail: fmt.Sprintf("cluster id %d of 0..%d is unused", id, maxID)}
		}
	}

	neighbors := make([][]PointRef, n)
	core := make([]bool, n)
	for i := range neighbors {
		nb, err := engine.Region(set.At(PointRef(i)), eps)
		if err != nil {
			return err
		}
		neighbors[i] = nb
		core[i] = len(nb) >= minPts
	}

	uf := NewUnionFind(n)
	for i := 0; i < n; i++ {
		p := PointRef(i)
		l := classes[p]
		if core[p] {
			if !l.IsClassified() {
				return &ValidationError{Property: "core coverage", Ref: p, Detail: "core point labeled noise"}
			}
			for _, q := range neighbors[p] {
				if !core[q] {
					continue
				}
				if classes[q] != l {
					return &ValidationError{Property: "core connectivity", Ref: p,
						Detail: fmt.Sprintf("adjacent core point %d is %v, not %v", q, classes[q], l)}
				}
				uf.Union(int(p), int(q))
			}
			continue
		}

		reached := false
		for _, q := range neighbors[p] {
			if core[q] && (l.IsNoise() || classes[q] == l) {
				reached = true
				break
			}
		}
		switch {
		case l.IsNoise() && reached:
			return &ValidationError{Property: "noise", Ref: p, Detail: "noise point lies within eps of a core point"}
		case l.IsClassified() && !reached:
			return &ValidationError{Property: "reachability", Ref: p,
				Detail: fmt.Sprintf("no core point of %v within eps", l)}
		}
	}

	for id, refs := range members {
		root := -1
		for _, r := range refs {
			if !core[r] {
				continue
			}
			if root == -1 {
				root = uf.Find(int(r))
				continue
			}
			if uf.Find(int(r)) != root {
				return &ValidationError{Property: "core connectivity", Ref: r,
					Detail: fmt.Sprintf("cluster %d holds core points that are not density-connected", id)}
			}
		}
	}
	return nil
}
