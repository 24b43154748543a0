package voxelize

import (
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/unixpickle/model3d/model3d"
)

// Grid is a dense occupancy grid bound to a pitch. Cell (i, j, k) covers
// Origin + [i, i+1)*Pitch along each axis.
type Grid struct {
	Origin model3d.Coord3D
	Pitch  float64
	Dims   [3]int

	data []bool
}

// NewGrid creates an empty grid.
func NewGrid(origin model3d.Coord3D, pitch float64, dims [3]int) *Grid {
	return &Grid{
		Origin: origin,
		Pitch:  pitch,
		Dims:   dims,
		data:   make([]bool, dims[0]*dims[1]*dims[2]),
	}
}

func (g *Grid) index(i, j, k int) int {
	return k + g.Dims[2]*(j+g.Dims[1]*i)
}

// InBounds reports whether (i, j, k) is a cell of the grid.
func (g *Grid) InBounds(i, j, k int) bool {
	return i >= 0 && j >= 0 && k >= 0 && i < g.Dims[0] && j < g.Dims[1] && k < g.Dims[2]
}

// At reports whether a cell is occupied. Out of bounds cells are empty.
func (g *Grid) At(i, j, k int) bool {
	if !g.InBounds(i, j, k) {
		return false
	}
	return g.data[g.index(i, j, k)]
}

// Set marks a cell. Out of bounds cells are ignored.
func (g *Grid) Set(i, j, k int, v bool) {
	if g.InBounds(i, j, k) {
		g.data[g.index(i, j, k)] = v
	}
}

// Center returns the world-space center of a cell.
func (g *Grid) Center(i, j, k int) model3d.Coord3D {
	return g.Origin.Add(model3d.XYZ(float64(i)+0.5, float64(j)+0.5, float64(k)+0.5).Scale(g.Pitch))
}

// Cell returns the cell containing p, clamped to the grid.
func (g *Grid) Cell(p model3d.Coord3D) (i, j, k int) {
	rel := p.Sub(g.Origin).Scale(1 / g.Pitch)
	return clamp(rel.X, g.Dims[0]), clamp(rel.Y, g.Dims[1]), clamp(rel.Z, g.Dims[2])
}

func clamp(x float64, n int) int {
	i := int(x)
	if x < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

// Shape returns the grid dimensions.
func (g *Grid) Shape() [3]int {
	return g.Dims
}

// Count returns the number of occupied cells.
func (g *Grid) Count() int {
	var n int
	for _, v := range g.data {
		if v {
			n++
		}
	}
	return n
}

// Cells returns the occupied cell indices in x-major order.
func (g *Grid) Cells() polycube.Coords {
	res := make(polycube.Coords, 0, g.Count())
	for i := 0; i < g.Dims[0]; i++ {
		for j := 0; j < g.Dims[1]; j++ {
			for k := 0; k < g.Dims[2]; k++ {
				if g.data[g.index(i, j, k)] {
					res = append(res, polycube.Coord{i, j, k})
				}
			}
		}
	}
	return res
}
