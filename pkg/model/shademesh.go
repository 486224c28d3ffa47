package model

import "github.com/chazu/hbcore/pkg/geometry"

// ShadeMesh is a shading surface made of a mesh rather than one polygon.
// It is owned only by a Model.
type ShadeMesh struct {
	base
	mesh *geometry.Mesh3D

	IsDetached bool
}

// NewShadeMesh returns a shade mesh. Every mesh face needs at least three
// valid vertex indices.
func NewShadeMesh(id string, mesh *geometry.Mesh3D) (*ShadeMesh, error) {
	b, err := newBase(KindShadeMesh, id)
	if err != nil {
		return nil, err
	}
	if mesh == nil || len(mesh.Faces) == 0 {
		return nil, geometryErrorf("%q: mesh has no faces", id)
	}
	for i, f := range mesh.Faces {
		if len(f) < 3 {
			return nil, geometryErrorf("%q: mesh face %d has %d vertices, need at least 3", id, i, len(f))
		}
		for _, vi := range f {
			if vi < 0 || vi >= len(mesh.Vertices) {
				return nil, geometryErrorf("%q: mesh face %d references vertex %d of %d", id, i, vi, len(mesh.Vertices))
			}
		}
	}
	return &ShadeMesh{base: b, mesh: mesh.Clone()}, nil
}

func (s *ShadeMesh) Kind() string { return KindShadeMesh }

// Geometry returns a copy of the mesh.
func (s *ShadeMesh) Geometry() *geometry.Mesh3D {
	return s.mesh.Clone()
}

// Area returns the total area of the mesh faces.
func (s *ShadeMesh) Area() float64 {
	var a float64
	for i := range s.mesh.Faces {
		a += geo.Area(geometry.NewFace3D(s.mesh.FaceVertices(i)))
	}
	return a
}

// Duplicate returns a deep copy with no parent.
func (s *ShadeMesh) Duplicate() *ShadeMesh {
	return &ShadeMesh{base: s.cloneBase(), mesh: s.mesh.Clone(), IsDetached: s.IsDetached}
}

func (s *ShadeMesh) identifiers() []string {
	return []string{s.id}
}

func (s *ShadeMesh) transform(t geometry.Transformer) {
	s.mesh = s.mesh.Transform(t)
	s.geomExtra = nil
}

func (s *ShadeMesh) Move(v geometry.Vec3) {
	s.transform(geo.Translation(v))
}

func (s *ShadeMesh) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	s.transform(geo.Rotation(axis, angle, origin))
}

func (s *ShadeMesh) RotateXY(angle float64, origin geometry.Vec3) {
	s.transform(geo.RotationXY(angle, origin))
}

func (s *ShadeMesh) Reflect(plane geometry.Plane) {
	s.transform(geo.Reflection(plane.Normal, plane.Origin))
}

func (s *ShadeMesh) Scale(factor float64, origin geometry.Vec3) {
	s.transform(geo.Scaling(factor, origin))
}
