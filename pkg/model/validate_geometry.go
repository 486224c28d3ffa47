package model

import (
	"github.com/chazu/hbcore/pkg/geometry"
)

type planar interface {
	Object
	Geometry() geometry.Face3D
}

// validateGeometry runs the polygon, containment, and solid checks.
func validateGeometry(m *Model, cfg validateConfig) []Finding {
	var out []Finding
	m.Walk(func(o Object) bool {
		switch v := o.(type) {
		case planar:
			out = append(out, validatePolygon(v, v.Geometry(), cfg)...)
		case *ShadeMesh:
			out = append(out, validateMesh(v, cfg)...)
		}
		return true
	})

	for _, f := range m.Faces() {
		for _, a := range f.apertures {
			out = append(out, validateContainment(f, a, cfg)...)
		}
		for _, d := range f.doors {
			out = append(out, validateContainment(f, d, cfg)...)
		}
	}

	if cfg.solids {
		for _, r := range m.rooms {
			out = append(out, validateSolid(r, cfg)...)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Polygons
// ---------------------------------------------------------------------------

func validatePolygon(o Object, g geometry.Face3D, cfg validateConfig) []Finding {
	for _, loop := range g.Loops() {
		if len(loop) < 3 {
			return []Finding{finding(CodeTooFewVertices, SeverityError, o, "polygon loop has %d vertices", len(loop))}
		}
	}
	var out []Finding
	if a := geo.Area(g); a <= cfg.tol*cfg.tol {
		out = append(out, finding(CodeZeroArea, SeverityError, o, "area %.6g is below tolerance", a))
		return out
	}
	if !geo.IsPlanar(g, cfg.tol) {
		out = append(out, finding(CodeNonPlanar, SeverityError, o, "vertices are not planar within %g", cfg.tol))
	}
	if geo.IsSelfIntersecting(g, cfg.tol) {
		out = append(out, finding(CodeSelfIntersecting, SeverityError, o, "polygon edges intersect"))
	}
	return out
}

func validateMesh(s *ShadeMesh, cfg validateConfig) []Finding {
	var out []Finding
	for i := range s.mesh.Faces {
		pts := s.mesh.FaceVertices(i)
		if len(pts) < 3 {
			out = append(out, finding(CodeTooFewVertices, SeverityError, s, "mesh face %d has %d vertices", i, len(pts)))
			continue
		}
		if a := geo.Area(geometry.NewFace3D(pts)); a <= cfg.tol*cfg.tol {
			out = append(out, finding(CodeZeroArea, SeverityError, s, "mesh face %d has zero area", i))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Sub-faces
// ---------------------------------------------------------------------------

func validateContainment(f *Face, sub planar, cfg validateConfig) []Finding {
	if geo.Contains(f.geometry, sub.Geometry(), cfg.tol, cfg.angTol) {
		return nil
	}
	return []Finding{finding(CodeSubFaceNotContained, SeverityError, sub,
		"%s is not coplanar with and inside face %q", sub.Kind(), f.id)}
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

func validateSolid(r *Room, cfg validateConfig) []Finding {
	g := r.Geometry()
	if !geo.IsClosed(g, cfg.tol) {
		return []Finding{finding(CodeNotSolid, SeverityError, r, "faces do not form a closed volume")}
	}
	if !geo.IsConsistentlyOriented(g, cfg.tol) {
		return []Finding{finding(CodeInconsistentNormals, SeverityError, r, "face normals are not consistently oriented")}
	}
	if geo.Volume(g) <= 0 {
		return []Finding{finding(CodeInconsistentNormals, SeverityError, r, "face normals point into the room")}
	}
	return nil
}
