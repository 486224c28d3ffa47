// Package geometry defines the plain value types shared by the object model
// and the geometry kernel: points and vectors, planes, planar polygons with
// holes, and polygon meshes. The types carry no algorithms beyond simple
// vector arithmetic; measures, spatial relations, and transforms live behind
// the kernel.Kernel interface.
package geometry
