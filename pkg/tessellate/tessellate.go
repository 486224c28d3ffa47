// Package tessellate walks a model and produces flat triangle buffers using
// a geometry kernel. One mesh is produced per object that carries geometry.
package tessellate

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/kernel"
	"github.com/chazu/hbcore/pkg/model"
)

// Options control Tessellate.
type Options struct {
	// Punched cuts apertures and doors out of their parent faces.
	Punched bool
	// SkipShades leaves shades and shade meshes out.
	SkipShades bool
}

// Tessellate walks the model in document order and returns one mesh per
// face, aperture, door, shade and shade mesh. The model is not modified.
func Tessellate(m *model.Model, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	var (
		meshes []*kernel.Mesh
		err    error
	)
	m.Walk(func(o model.Object) bool {
		var mesh *kernel.Mesh
		mesh, err = handleObject(k, o, opts)
		if err != nil {
			err = fmt.Errorf("tessellate: %s %q: %w", o.Kind(), o.Identifier(), err)
			return false
		}
		if mesh != nil {
			meshes = append(meshes, mesh)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}

// handleObject builds the mesh of one object, or nil for objects without
// their own geometry.
func handleObject(k kernel.Kernel, o model.Object, opts Options) (*kernel.Mesh, error) {
	var (
		mesh *geometry.Mesh3D
		err  error
	)
	switch obj := o.(type) {
	case *model.Face:
		mesh, err = k.Triangulate(faceGeometry(obj, opts.Punched))
	case *model.Aperture:
		mesh, err = k.Triangulate(obj.Geometry())
	case *model.Door:
		mesh, err = k.Triangulate(obj.Geometry())
	case *model.Shade:
		if opts.SkipShades {
			return nil, nil
		}
		mesh, err = k.Triangulate(obj.Geometry())
	case *model.ShadeMesh:
		if opts.SkipShades {
			return nil, nil
		}
		mesh = fanTriangles(obj.Geometry())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := flatten(mesh)
	out.Identifier = o.Identifier()
	out.ObjectType = o.Kind()
	return out, nil
}

// faceGeometry returns the face polygon, with its sub-faces as holes when
// punched is set.
func faceGeometry(f *model.Face, punched bool) geometry.Face3D {
	g := f.Geometry()
	if !punched {
		return g
	}
	g = g.Clone()
	for _, a := range f.Apertures() {
		g.Holes = append(g.Holes, a.Geometry().Boundary)
	}
	for _, d := range f.Doors() {
		g.Holes = append(g.Holes, d.Geometry().Boundary)
	}
	return g
}

// fanTriangles splits quad faces of a mesh into two triangles.
func fanTriangles(m *geometry.Mesh3D) *geometry.Mesh3D {
	out := &geometry.Mesh3D{Vertices: m.Vertices}
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f); i++ {
			out.Faces = append(out.Faces, []int{f[0], f[i], f[i+1]})
		}
	}
	return out
}

// flatten converts a triangle mesh to buffer form. Vertices are not shared
// between triangles so each carries its face normal.
func flatten(m *geometry.Mesh3D) *kernel.Mesh {
	numVerts := len(m.Faces) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i := range m.Faces {
		vs := m.FaceVertices(i)
		tri := sdf.Triangle3{toV3(vs[0]), toV3(vs[1]), toV3(vs[2])}
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j, v := range tri {
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}

func toV3(p geometry.Vec3) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Merge combines meshes into one buffer, for exporters that want a single
// draw call. The result carries no identifier.
func Merge(meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{}
	for _, m := range meshes {
		out.Append(m)
	}
	return out
}
