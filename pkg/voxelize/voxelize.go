package voxelize

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/chazu/polycube/pkg/polycube"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// Fill selects which cells Voxelize marks.
type Fill int

const (
	// FillSurface marks only cells crossed by the mesh surface.
	FillSurface Fill = iota

	// FillInterior also marks cells whose centers lie inside the mesh.
	FillInterior
)

func (f Fill) String() string {
	if f == FillInterior {
		return "interior"
	}
	return "surface"
}

// ParseFill parses "surface" or "interior". The empty string is surface.
func ParseFill(s string) (Fill, error) {
	switch s {
	case "", "surface":
		return FillSurface, nil
	case "interior":
		return FillInterior, nil
	}
	return FillSurface, fmt.Errorf("unknown fill %q", s)
}

// maxCells guards against pitches that would allocate absurd grids.
const maxCells = 512 * 512 * 512

// Voxelize rasterizes m into a grid with the given pitch.
//
// Every triangle is subdivided until neighboring samples are less than half
// a pitch apart, and each sample marks the cell it falls in.
func Voxelize(m *model3d.Mesh, pitch float64, fill Fill) (*Grid, error) {
	if !(pitch > 0) {
		return nil, fmt.Errorf("voxelize: invalid pitch %v", pitch)
	}
	if m == nil || m.NumTriangles() == 0 {
		return nil, errors.New("voxelize: empty mesh")
	}
	min, max := m.Min(), m.Max()
	extent := max.Sub(min)
	var dims [3]int
	for i, e := range extent.Array() {
		dims[i] = int(math.Floor(e/pitch)) + 1
	}
	if total := float64(dims[0]) * float64(dims[1]) * float64(dims[2]); total > maxCells {
		return nil, fmt.Errorf("voxelize: grid %dx%dx%d too large for pitch %v", dims[0], dims[1], dims[2], pitch)
	}
	grid := NewGrid(min, pitch, dims)

	for _, t := range m.TriangleSlice() {
		markTriangle(grid, t)
	}
	if fill == FillInterior {
		fillInterior(grid, model3d.MeshToCollider(m))
	}

	log.Printf("voxel grid: shape %dx%dx%d, pitch %.6g, %d occupied (%s)",
		dims[0], dims[1], dims[2], pitch, grid.Count(), fill)
	return grid, nil
}

func markTriangle(g *Grid, t *model3d.Triangle) {
	ab := t[1].Sub(t[0])
	ac := t[2].Sub(t[0])
	longest := math.Max(math.Max(ab.Norm(), ac.Norm()), t[2].Sub(t[1]).Norm())
	n := int(math.Ceil(longest / (g.Pitch / 2)))
	if n < 1 {
		n = 1
	}
	for i := 0; i <= n; i++ {
		for j := 0; i+j <= n; j++ {
			p := t[0].Add(ab.Scale(float64(i) / float64(n))).Add(ac.Scale(float64(j) / float64(n)))
			x, y, z := g.Cell(p)
			g.Set(x, y, z, true)
		}
	}
}

// fillInterior marks empty cells whose center is inside the collider. Slabs
// along x are independent, so they are processed concurrently.
func fillInterior(g *Grid, c model3d.Collider) {
	solid := &parityVoteSolid{Collider: c}
	essentials.ConcurrentMap(0, g.Dims[0], func(i int) {
		for j := 0; j < g.Dims[1]; j++ {
			for k := 0; k < g.Dims[2]; k++ {
				if g.At(i, j, k) {
					continue
				}
				if solid.Contains(g.Center(i, j, k)) {
					g.Set(i, j, k, true)
				}
			}
		}
	})
}

// Extract returns the occupied cells of g shifted to a zero minimum and
// capped at maxCubes entries (non-positive means no cap).
func Extract(g *Grid, maxCubes int, s polycube.Sampler) polycube.Coords {
	coords := polycube.Normalize(g.Cells())
	return polycube.Cap(coords, maxCubes, s)
}
