// Package model is the building object hierarchy: Model, Room, Face,
// Aperture, Door, Shade and ShadeMesh.
//
// Ownership is strictly hierarchical. A Model owns Rooms and orphaned
// objects, a Room owns Faces and Shades, a Face owns Apertures, Doors and
// Shades. Every identifier below a Model is unique, and insertions that
// would break uniqueness, containment or boundary condition rules are
// rejected without modifying the graph.
//
// Surface boundary conditions refer to their counterparts by identifier
// only and are resolved with Model.FindByID.
//
// Geometry is measured and transformed through a kernel.Kernel, sdfx by
// default (see UseKernel). The graph is not safe for concurrent mutation.
package model
