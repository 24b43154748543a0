// Package vtk builds a visualization mesh of a polycube and writes it as a
// VTK legacy (.vtk) or XML unstructured grid (.vtu) file.
package vtk

import (
	"math"
	"strconv"
	"strings"
)

// CellType is a VTK cell type id.
type CellType uint8

const (
	Triangle   CellType = 5
	Hexahedron CellType = 12
)

// Cell is one grid cell referencing points by index.
type Cell struct {
	Type   CellType
	Points []int
}

// UnstructuredGrid is a point/cell mesh with a per-cell cube index and
// dataset-level field data.
type UnstructuredGrid struct {
	Points [][3]float64
	Cells  []Cell

	// CubeIndex holds the source coordinate index of every cell.
	CubeIndex []int

	// FieldData is attached to the dataset as single-tuple arrays.
	// Values are strings, integers or floats.
	FieldData map[string]any
}

// NumPoints returns the number of points.
func (g *UnstructuredGrid) NumPoints() int { return len(g.Points) }

// NumCells returns the number of cells.
func (g *UnstructuredGrid) NumCells() int { return len(g.Cells) }

// CubeCount returns the number of distinct cubes still represented by at
// least one cell.
func (g *UnstructuredGrid) CubeCount() int {
	seen := map[int]struct{}{}
	for _, c := range g.CubeIndex {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// SetField sets a field data entry.
func (g *UnstructuredGrid) SetField(key string, value any) {
	if g.FieldData == nil {
		g.FieldData = map[string]any{}
	}
	g.FieldData[key] = value
}

// Merge returns a new grid holding the points and cells of a followed by
// those of b. Field data of a wins on conflicting keys.
func Merge(a, b *UnstructuredGrid) *UnstructuredGrid {
	out := &UnstructuredGrid{
		Points:    make([][3]float64, 0, len(a.Points)+len(b.Points)),
		Cells:     make([]Cell, 0, len(a.Cells)+len(b.Cells)),
		CubeIndex: make([]int, 0, len(a.CubeIndex)+len(b.CubeIndex)),
	}
	out.append(a)
	out.append(b)
	for k, v := range b.FieldData {
		out.SetField(k, v)
	}
	for k, v := range a.FieldData {
		out.SetField(k, v)
	}
	return out
}

// append adds the points, cells and cube indices of b to g in place,
// offsetting b's point ids. Field data is not copied.
func (g *UnstructuredGrid) append(b *UnstructuredGrid) {
	offset := len(g.Points)
	g.Points = append(g.Points, b.Points...)
	for _, c := range b.Cells {
		ids := make([]int, len(c.Points))
		for i, p := range c.Points {
			ids[i] = p + offset
		}
		g.Cells = append(g.Cells, Cell{Type: c.Type, Points: ids})
	}
	g.CubeIndex = append(g.CubeIndex, b.CubeIndex...)
}

// Clean merges points closer than tol (per axis, after quantization),
// removes cells that became duplicates of an earlier cell and drops points
// no cell refers to. A non-positive tol merges exactly equal points only.
func (g *UnstructuredGrid) Clean(tol float64) {
	type key [3]int64
	quant := func(p [3]float64) key {
		if tol <= 0 {
			return key{
				int64(math.Float64bits(p[0])),
				int64(math.Float64bits(p[1])),
				int64(math.Float64bits(p[2])),
			}
		}
		return key{
			int64(math.Round(p[0] / tol)),
			int64(math.Round(p[1] / tol)),
			int64(math.Round(p[2] / tol)),
		}
	}

	// Coincident points map to the first one seen.
	canon := make([]int, len(g.Points))
	first := map[key]int{}
	for i, p := range g.Points {
		k := quant(p)
		if j, ok := first[k]; ok {
			canon[i] = j
		} else {
			first[k] = i
			canon[i] = i
		}
	}

	cells := g.Cells[:0]
	cubes := g.CubeIndex[:0]
	seen := map[string]struct{}{}
	var sb strings.Builder
	for i, c := range g.Cells {
		ids := make([]int, len(c.Points))
		sb.Reset()
		sb.WriteString(strconv.Itoa(int(c.Type)))
		for j, p := range c.Points {
			ids[j] = canon[p]
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(ids[j]))
		}
		k := sb.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cells = append(cells, Cell{Type: c.Type, Points: ids})
		cubes = append(cubes, g.CubeIndex[i])
	}

	// Compact to used points, in order of first use.
	remap := map[int]int{}
	var points [][3]float64
	for _, c := range cells {
		for j, p := range c.Points {
			n, ok := remap[p]
			if !ok {
				n = len(points)
				remap[p] = n
				points = append(points, g.Points[p])
			}
			c.Points[j] = n
		}
	}
	g.Points = points
	g.Cells = cells
	g.CubeIndex = cubes
}
