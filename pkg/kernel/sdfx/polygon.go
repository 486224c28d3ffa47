package sdfx

import (
	"errors"
	"math"

	"github.com/chazu/hbcore/pkg/geometry"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type vec2 = v2.Vec

// eps is the numeric floor for 2D orientation tests.
const eps = 1e-10

var errDegenerate = errors.New("sdfx: degenerate polygon")

// frame is an orthonormal 2D basis on a plane.
type frame struct {
	o, x, y v3.Vec
}

// frameOf returns a frame on the face plane whose (x, y, normal) triple is
// right-handed, so a boundary that winds counterclockwise around the normal
// has positive signed area once projected.
func frameOf(f geometry.Face3D) (frame, bool) {
	n := newell(f.Boundary)
	if len(f.Boundary) < 3 || n.Length() == 0 {
		return frame{}, false
	}
	return newFrame(n.Normalize(), toV3(f.Boundary[0])), true
}

func newFrame(n, o v3.Vec) frame {
	ref := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = v3.Vec{Y: 1}
	}
	x := ref.Sub(n.MulScalar(ref.Dot(n))).Normalize()
	return frame{o: o, x: x, y: n.Cross(x)}
}

func (fr frame) project(p geometry.Vec3) vec2 {
	d := toV3(p).Sub(fr.o)
	return vec2{X: d.Dot(fr.x), Y: d.Dot(fr.y)}
}

func (fr frame) projectLoop(loop []geometry.Vec3) []vec2 {
	out := make([]vec2, len(loop))
	for i, p := range loop {
		out[i] = fr.project(p)
	}
	return out
}

func (fr frame) lift(u, v float64) geometry.Vec3 {
	return fromV3(fr.o.Add(fr.x.MulScalar(u)).Add(fr.y.MulScalar(v)))
}

func cross2(a, b vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// signedArea is positive for counterclockwise loops.
func signedArea(pts []vec2) float64 {
	var a float64
	for i := range pts {
		a += cross2(pts[i], pts[(i+1)%len(pts)])
	}
	return a / 2
}

// loopMoments returns the first moments and twice the signed area of a loop.
func loopMoments(pts []vec2) (mx, my, a2 float64) {
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		c := cross2(p, q)
		mx += (p.X + q.X) * c
		my += (p.Y + q.Y) * c
		a2 += c
	}
	return mx, my, a2
}

// lineDistance is the signed distance of x from the line through p and q.
func lineDistance(p, q, x vec2) float64 {
	d := q.Sub(p)
	l := d.Length()
	if l == 0 {
		return x.Sub(p).Length()
	}
	return cross2(d, x.Sub(p)) / l
}

// properIntersect reports whether segments ab and cd cross at a single
// interior point, with endpoints more than tol from the other segment's line.
func properIntersect(a, b, c, d vec2, tol float64) bool {
	d1 := lineDistance(c, d, a)
	d2 := lineDistance(c, d, b)
	d3 := lineDistance(a, b, c)
	d4 := lineDistance(a, b, d)
	return ((d1 > tol && d2 < -tol) || (d1 < -tol && d2 > tol)) &&
		((d3 > tol && d4 < -tol) || (d3 < -tol && d4 > tol))
}

type segment struct {
	a, b              vec2
	loop, index, size int
}

func (s segment) adjacent(o segment) bool {
	if s.loop != o.loop {
		return false
	}
	diff := s.index - o.index
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1 || diff == s.size-1
}

func pointInPolygon(p vec2, poly []vec2) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func distanceToSegment(p, a, b vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(a.Add(ab.MulScalar(t))).Length()
}

func distanceToLoop(p vec2, loop []vec2) float64 {
	best := math.Inf(1)
	for i := range loop {
		best = math.Min(best, distanceToSegment(p, loop[i], loop[(i+1)%len(loop)]))
	}
	return best
}

// clipConvex clips subject against the counterclockwise convex polygon clip
// (Sutherland-Hodgman).
func clipConvex(subject, clip []vec2) []vec2 {
	out := append([]vec2(nil), subject...)
	for i := range clip {
		if len(out) == 0 {
			break
		}
		c1, c2 := clip[i], clip[(i+1)%len(clip)]
		in := out
		out = nil
		for j := range in {
			cur := in[j]
			prev := in[(j+len(in)-1)%len(in)]
			curIn := cross2(c2.Sub(c1), cur.Sub(c1)) >= 0
			prevIn := cross2(c2.Sub(c1), prev.Sub(c1)) >= 0
			switch {
			case curIn && !prevIn:
				out = append(out, lineIntersection(prev, cur, c1, c2), cur)
			case curIn:
				out = append(out, cur)
			case prevIn:
				out = append(out, lineIntersection(prev, cur, c1, c2))
			}
		}
	}
	return out
}

func lineIntersection(p1, p2, q1, q2 vec2) vec2 {
	d := p2.Sub(p1)
	e := q2.Sub(q1)
	denom := cross2(d, e)
	if math.Abs(denom) < 1e-15 {
		return p2
	}
	t := cross2(q1.Sub(p1), e) / denom
	return p1.Add(d.MulScalar(t))
}

// bridgeHoles merges the holes of f into its boundary with zero-width
// bridges, returning the merged loop in 3D and in the frame.
func bridgeHoles(fr frame, f geometry.Face3D) ([]geometry.Vec3, []vec2) {
	pts3 := append([]geometry.Vec3(nil), f.Boundary...)
	pts2 := fr.projectLoop(f.Boundary)
	if signedArea(pts2) < 0 {
		reverse3(pts3)
		reverse2(pts2)
	}
	for hi, h := range f.Holes {
		h3 := append([]geometry.Vec3(nil), h...)
		h2 := fr.projectLoop(h)
		if len(h2) < 3 {
			continue
		}
		if signedArea(h2) > 0 {
			reverse3(h3)
			reverse2(h2)
		}
		// Bridge from the hole's rightmost vertex.
		j := 0
		for i := range h2 {
			if h2[i].X > h2[j].X {
				j = i
			}
		}
		var others [][]vec2
		for oi, o := range f.Holes {
			if oi != hi {
				others = append(others, fr.projectLoop(o))
			}
		}
		best, bestD := -1, math.Inf(1)
		for i := range pts2 {
			d := pts2[i].Sub(h2[j]).Length()
			if d >= bestD || bridgeBlocked(pts2[i], h2[j], append(others, pts2, h2)) {
				continue
			}
			best, bestD = i, d
		}
		if best < 0 {
			for i := range pts2 {
				if d := pts2[i].Sub(h2[j]).Length(); d < bestD {
					best, bestD = i, d
				}
			}
		}
		n3 := make([]geometry.Vec3, 0, len(pts3)+len(h3)+2)
		n2 := make([]vec2, 0, len(pts2)+len(h2)+2)
		n3 = append(n3, pts3[:best+1]...)
		n2 = append(n2, pts2[:best+1]...)
		for k := 0; k <= len(h3); k++ {
			n3 = append(n3, h3[(j+k)%len(h3)])
			n2 = append(n2, h2[(j+k)%len(h2)])
		}
		n3 = append(n3, pts3[best:]...)
		n2 = append(n2, pts2[best:]...)
		pts3, pts2 = n3, n2
	}
	return pts3, pts2
}

func bridgeBlocked(a, b vec2, loops [][]vec2) bool {
	for _, loop := range loops {
		for i := range loop {
			if properIntersect(a, b, loop[i], loop[(i+1)%len(loop)], 1e-9) {
				return true
			}
		}
	}
	return false
}

// earClip triangulates a simple polygon. Triangles keep the polygon's
// winding.
func earClip(pts []vec2) ([][3]int, error) {
	if len(pts) < 3 {
		return nil, errDegenerate
	}
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	flipped := signedArea(pts) < 0
	if flipped {
		for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	var tris [][3]int
	emit := func(a, b, c int) {
		if math.Abs(cross2(pts[b].Sub(pts[a]), pts[c].Sub(pts[a]))) <= eps {
			return
		}
		if flipped {
			a, c = c, a
		}
		tris = append(tris, [3]int{a, b, c})
	}

	for len(idx) > 3 {
		n := len(idx)
		ear := -1
		for i := 0; i < n && ear < 0; i++ {
			a, b, c := pts[idx[(i+n-1)%n]], pts[idx[i]], pts[idx[(i+1)%n]]
			if cross2(b.Sub(a), c.Sub(b)) <= eps {
				continue
			}
			if !anyInside(pts, idx, i, a, b, c) {
				ear = i
			}
		}
		if ear < 0 {
			// Only reflex or collinear corners remain; drop the flattest.
			best := math.Inf(1)
			for i := 0; i < n; i++ {
				a, b, c := pts[idx[(i+n-1)%n]], pts[idx[i]], pts[idx[(i+1)%n]]
				if v := math.Abs(cross2(b.Sub(a), c.Sub(b))); v < best {
					best, ear = v, i
				}
			}
		}
		emit(idx[(ear+n-1)%n], idx[ear], idx[(ear+1)%n])
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	emit(idx[0], idx[1], idx[2])
	if len(tris) == 0 {
		return nil, errDegenerate
	}
	return tris, nil
}

func anyInside(pts []vec2, idx []int, ear int, a, b, c vec2) bool {
	n := len(idx)
	for k := 0; k < n; k++ {
		if k == ear || k == (ear+n-1)%n || k == (ear+1)%n {
			continue
		}
		p := pts[idx[k]]
		if same2(p, a) || same2(p, b) || same2(p, c) {
			continue
		}
		if cross2(b.Sub(a), p.Sub(a)) > eps &&
			cross2(c.Sub(b), p.Sub(b)) > eps &&
			cross2(a.Sub(c), p.Sub(c)) > eps {
			return true
		}
	}
	return false
}

// triangles2D triangulates f in the frame and returns counterclockwise
// triangles.
func triangles2D(fr frame, f geometry.Face3D) [][3]vec2 {
	_, pts := bridgeHoles(fr, f)
	tris, err := earClip(pts)
	if err != nil {
		return nil
	}
	out := make([][3]vec2, 0, len(tris))
	for _, t := range tris {
		tri := [3]vec2{pts[t[0]], pts[t[1]], pts[t[2]]}
		if signedArea(tri[:]) < 0 {
			tri[0], tri[2] = tri[2], tri[0]
		}
		out = append(out, tri)
	}
	return out
}

func same2(a, b vec2) bool {
	return math.Abs(a.X-b.X) < 1e-12 && math.Abs(a.Y-b.Y) < 1e-12
}

func reverse2(s []vec2) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverse3(s []geometry.Vec3) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
