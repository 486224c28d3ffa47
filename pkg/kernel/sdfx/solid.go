package sdfx

import (
	"sort"

	"github.com/chazu/hbcore/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type edge3 struct {
	a, b v3.Vec
}

func near(p, q v3.Vec, tol float64) bool {
	return p.Sub(q).Length() <= tol
}

// polyfaceEdges returns every loop edge of the faces, split wherever another
// vertex of the set lies on it, so T-junctions still pair up.
func polyfaceEdges(faces []geometry.Face3D, tol float64) []edge3 {
	var verts []v3.Vec
	for _, f := range faces {
		for _, p := range f.Vertices() {
			verts = append(verts, toV3(p))
		}
	}

	type cut struct {
		t float64
		p v3.Vec
	}

	var edges []edge3
	for _, f := range faces {
		for _, loop := range f.Loops() {
			for i := range loop {
				a := toV3(loop[i])
				b := toV3(loop[(i+1)%len(loop)])
				ab := b.Sub(a)
				l2 := ab.Dot(ab)
				if l2 == 0 {
					continue
				}
				var cuts []cut
				for _, v := range verts {
					if near(v, a, tol) || near(v, b, tol) {
						continue
					}
					t := v.Sub(a).Dot(ab) / l2
					if t <= 0 || t >= 1 {
						continue
					}
					if !near(a.Add(ab.MulScalar(t)), v, tol) {
						continue
					}
					cuts = append(cuts, cut{t: t, p: v})
				}
				sort.Slice(cuts, func(x, y int) bool { return cuts[x].t < cuts[y].t })
				prev := a
				for _, c := range cuts {
					if near(c.p, prev, tol) {
						continue
					}
					edges = append(edges, edge3{a: prev, b: c.p})
					prev = c.p
				}
				edges = append(edges, edge3{a: prev, b: b})
			}
		}
	}
	return edges
}

// edgeMatches counts, for edge i, the other edges running the same way and
// the opposite way.
func edgeMatches(edges []edge3, i int, tol float64) (same, opposite int) {
	e := edges[i]
	for j, o := range edges {
		if j == i {
			continue
		}
		switch {
		case near(e.a, o.a, tol) && near(e.b, o.b, tol):
			same++
		case near(e.a, o.b, tol) && near(e.b, o.a, tol):
			opposite++
		}
	}
	return same, opposite
}

// IsClosed reports whether every edge of the faces is shared by exactly one
// other face edge, so the faces bound a watertight volume.
func (k *SdfxKernel) IsClosed(faces []geometry.Face3D, tol float64) bool {
	edges := polyfaceEdges(faces, tol)
	if len(edges) == 0 {
		return false
	}
	for i := range edges {
		same, opposite := edgeMatches(edges, i, tol)
		if same+opposite != 1 {
			return false
		}
	}
	return true
}

// IsConsistentlyOriented reports whether every shared edge is traversed in
// opposite directions by its two faces.
func (k *SdfxKernel) IsConsistentlyOriented(faces []geometry.Face3D, tol float64) bool {
	edges := polyfaceEdges(faces, tol)
	for i := range edges {
		same, _ := edgeMatches(edges, i, tol)
		if same > 0 {
			return false
		}
	}
	return true
}
