package voxelize

import (
	"log"

	"github.com/unixpickle/model3d/model3d"
)

// DefaultMaxFaces is the face count above which Simplify decimates.
const DefaultMaxFaces = 10000

const simplifyRounds = 6

// Simplify decimates m when it has more than maxFaces faces. The planar
// tolerance starts small relative to the mesh size and grows each round
// until the face budget is met or the rounds run out. Meshes at or under
// the budget are returned unchanged.
func Simplify(m *model3d.Mesh, maxFaces int) *model3d.Mesh {
	if maxFaces <= 0 || m.NumTriangles() <= maxFaces {
		return m
	}
	before := m.NumTriangles()
	diag := m.Max().Sub(m.Min()).Norm()
	tol := diag * 1e-4
	out := m
	for round := 0; round < simplifyRounds && out.NumTriangles() > maxFaces; round++ {
		d := &model3d.Decimator{
			PlaneDistance:    tol,
			BoundaryDistance: tol,
		}
		out = d.Decimate(m)
		tol *= 4
	}
	log.Printf("simplified mesh: %d -> %d faces (limit %d)", before, out.NumTriangles(), maxFaces)
	return out
}
