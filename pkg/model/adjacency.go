package model

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/hbcore/internal/logging"
	"github.com/chazu/hbcore/pkg/geometry"
)

var adjacencyLog = logging.New("adjacency")

// TieBreak decides between several faces that could be matched with the
// same face.
type TieBreak int

const (
	// TieBreakLargestOverlap matches pairs in order of decreasing overlap
	// area across the whole set of rooms.
	TieBreakLargestOverlap TieBreak = iota
	// TieBreakFirstMatch matches pairs in room and face order.
	TieBreakFirstMatch
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakLargestOverlap:
		return "largest_overlap"
	case TieBreakFirstMatch:
		return "first_match"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(t))
	}
}

// ParseTieBreak parses "largest_overlap" or "first_match".
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "largest_overlap", "":
		return TieBreakLargestOverlap, nil
	case "first_match":
		return TieBreakFirstMatch, nil
	}
	return 0, fmt.Errorf("unknown adjacency tie break %q", s)
}

// AdjacencyOptions configure SolveAdjacency. Zero tolerances fall back to
// the model's, or to the package defaults for bare rooms.
type AdjacencyOptions struct {
	TieBreak TieBreak
	// ResetUnmatched reverts Surface conditions of faces left without a
	// partner to Outdoors or Ground.
	ResetUnmatched bool
	Tolerance      float64
	AngleTolerance float64
}

type FacePair struct{ A, B *Face }
type AperturePair struct{ A, B *Aperture }
type DoorPair struct{ A, B *Door }

// AdjacencyResult lists what a solve changed.
type AdjacencyResult struct {
	// Faces, Apertures and Doors are the pairs matched by this run.
	Faces     []FacePair
	Apertures []AperturePair
	Doors     []DoorPair
	// Kept are pairs that were already reciprocal and were left alone.
	Kept []FacePair
	// Skipped are geometric matches whose apertures or doors could not be
	// paired one to one.
	Skipped []FacePair
	// Reset are faces whose dangling Surface condition was reverted.
	Reset []*Face
}

// Changed reports whether any boundary condition was modified.
func (r *AdjacencyResult) Changed() bool {
	return len(r.Faces) > 0 || len(r.Reset) > 0
}

type candidate struct {
	a, b    *Face
	ra, rb  *Room
	overlap float64
	aps     []AperturePair
	drs     []DoorPair
}

// SolveAdjacency finds pairs of faces in different rooms that are
// coplanar, face opposite directions and overlap by more than the square
// of the tolerance, and gives both a reciprocal Surface condition. Their
// apertures and doors are paired by center distance and linked the same
// way. Faces already in a reciprocal Surface pair are kept as they are, so
// solving twice changes nothing. Geometry is never modified.
func SolveAdjacency(rooms []*Room, opts AdjacencyOptions) (*AdjacencyResult, error) {
	tol, angTol := opts.Tolerance, opts.AngleTolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if angTol <= 0 {
		angTol = DefaultAngleTolerance
	}
	switch opts.TieBreak {
	case TieBreakLargestOverlap, TieBreakFirstMatch:
	default:
		return nil, fmt.Errorf("solve adjacency: unknown tie break %v", opts.TieBreak)
	}

	res := &AdjacencyResult{}
	roomOf := make(map[*Face]*Room)
	byID := make(map[string]*Face)
	for _, r := range rooms {
		for _, f := range r.faces {
			roomOf[f] = r
			byID[f.id] = f
		}
	}

	used := make(map[*Face]bool)
	for _, r := range rooms {
		for _, f := range r.faces {
			if used[f] {
				continue
			}
			if o := reciprocalFace(f, byID, roomOf); o != nil && roomOf[o] != r {
				used[f], used[o] = true, true
				res.Kept = append(res.Kept, FacePair{A: f, B: o})
			}
		}
	}

	var cands []candidate
	for i, ra := range rooms {
		for _, rb := range rooms[i+1:] {
			for _, a := range ra.faces {
				if used[a] {
					continue
				}
				for _, b := range rb.faces {
					if used[b] {
						continue
					}
					ov, ok := faceOverlap(a, b, tol, angTol)
					if !ok {
						continue
					}
					aps, drs, ok := pairSubFaces(a, b, tol)
					if !ok {
						res.Skipped = append(res.Skipped, FacePair{A: a, B: b})
						adjacencyLog.Warn("sub-faces do not pair", "face", a.id, "other", b.id)
						continue
					}
					cands = append(cands, candidate{a: a, b: b, ra: ra, rb: rb, overlap: ov, aps: aps, drs: drs})
				}
			}
		}
	}
	if opts.TieBreak == TieBreakLargestOverlap {
		slices.SortStableFunc(cands, func(x, y candidate) int {
			return cmp.Compare(y.overlap, x.overlap)
		})
	}

	for _, c := range cands {
		if used[c.a] || used[c.b] {
			continue
		}
		used[c.a], used[c.b] = true, true
		c.a.bc = Surface{Objects: []string{c.b.id, c.rb.id}}
		c.b.bc = Surface{Objects: []string{c.a.id, c.ra.id}}
		for _, p := range c.aps {
			p.A.bc = Surface{Objects: []string{p.B.id, c.b.id, c.rb.id}}
			p.B.bc = Surface{Objects: []string{p.A.id, c.a.id, c.ra.id}}
		}
		for _, p := range c.drs {
			p.A.bc = Surface{Objects: []string{p.B.id, c.b.id, c.rb.id}}
			p.B.bc = Surface{Objects: []string{p.A.id, c.a.id, c.ra.id}}
		}
		res.Faces = append(res.Faces, FacePair{A: c.a, B: c.b})
		res.Apertures = append(res.Apertures, c.aps...)
		res.Doors = append(res.Doors, c.drs...)
		adjacencyLog.Debug("faces matched", "face", c.a.id, "other", c.b.id, "overlap", c.overlap)
	}

	if opts.ResetUnmatched {
		for _, r := range rooms {
			for _, f := range r.faces {
				if used[f] {
					continue
				}
				if _, ok := f.bc.(Surface); ok {
					resetSurface(f)
					res.Reset = append(res.Reset, f)
				}
			}
		}
	}

	adjacencyLog.Info("adjacency solved",
		"rooms", len(rooms), "matched", len(res.Faces), "kept", len(res.Kept),
		"skipped", len(res.Skipped), "reset", len(res.Reset))
	return res, nil
}

// SolveAdjacency solves adjacency between the rooms of the model using
// the model tolerances unless opts overrides them.
func (m *Model) SolveAdjacency(opts AdjacencyOptions) (*AdjacencyResult, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = m.Tolerance
	}
	if opts.AngleTolerance <= 0 {
		opts.AngleTolerance = m.AngleTolerance
	}
	return SolveAdjacency(m.rooms, opts)
}

// reciprocalFace returns the face f is Surface-linked to when that face
// links back to f.
func reciprocalFace(f *Face, byID map[string]*Face, roomOf map[*Face]*Room) *Face {
	s, ok := f.bc.(Surface)
	if !ok {
		return nil
	}
	o := byID[s.Counterpart()]
	if o == nil || o == f {
		return nil
	}
	if len(s.Objects) > 1 && s.Objects[1] != roomOf[o].id {
		return nil
	}
	os, ok := o.bc.(Surface)
	if !ok || os.Counterpart() != f.id {
		return nil
	}
	return o
}

// faceOverlap returns the overlap area of two faces that are coplanar and
// face opposite directions.
func faceOverlap(a, b *Face, tol, angTol float64) (float64, bool) {
	if geo.Normal(a.geometry).AngleTo(geo.Normal(b.geometry)) < 180-angTol {
		return 0, false
	}
	if !geo.IsCoplanar(a.geometry, b.geometry, tol, angTol) {
		return 0, false
	}
	ov := geo.OverlapArea(a.geometry, b.geometry, tol, angTol)
	return ov, ov > tol*tol
}

// pairSubFaces pairs the apertures and doors of two faces by center
// distance. Every sub-face needs exactly one partner.
func pairSubFaces(a, b *Face, tol float64) ([]AperturePair, []DoorPair, bool) {
	ap, ok := pairByCenter(a.apertures, b.apertures, tol, func(x, y *Aperture) bool {
		return x.IsOperable == y.IsOperable
	})
	if !ok {
		return nil, nil, false
	}
	dp, ok := pairByCenter(a.doors, b.doors, tol, func(x, y *Door) bool { return true })
	if !ok {
		return nil, nil, false
	}
	aps := make([]AperturePair, len(ap))
	for i, p := range ap {
		aps[i] = AperturePair{A: p[0], B: p[1]}
	}
	drs := make([]DoorPair, len(dp))
	for i, p := range dp {
		drs[i] = DoorPair{A: p[0], B: p[1]}
	}
	return aps, drs, true
}

type centered interface {
	Center() geometry.Vec3
}

func pairByCenter[T centered](xs, ys []T, tol float64, compatible func(x, y T) bool) ([][2]T, bool) {
	if len(xs) != len(ys) {
		return nil, false
	}
	taken := make([]bool, len(ys))
	out := make([][2]T, 0, len(xs))
	for _, x := range xs {
		best, bestD := -1, math.Inf(1)
		cx := x.Center()
		for j, y := range ys {
			if taken[j] || !compatible(x, y) {
				continue
			}
			if d := cx.DistanceTo(y.Center()); d <= tol && d < bestD {
				best, bestD = j, d
			}
		}
		if best < 0 {
			return nil, false
		}
		taken[best] = true
		out = append(out, [2]T{x, ys[best]})
	}
	return out, true
}

// resetSurface reverts a face and its sub-faces from Surface to the
// condition implied by their position.
func resetSurface(f *Face) {
	for _, a := range f.apertures {
		if _, ok := a.bc.(Surface); ok {
			a.bc = Outdoors{}
		}
	}
	for _, d := range f.doors {
		if _, ok := d.bc.(Surface); ok {
			d.bc = Outdoors{}
		}
	}
	bc := BoundaryConditionFromPosition(f.geometry.Vertices())
	if _, ground := bc.(Ground); ground && (f.hasSubFaces() || f.faceType == AirBoundary) {
		bc = Outdoors{}
	}
	adjacencyLog.Debug("surface condition reset", "face", f.id, "to", bc.Name())
	f.bc = bc
}
