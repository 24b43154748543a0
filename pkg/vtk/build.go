package vtk

import (
	"fmt"
	"log"

	"github.com/chazu/polycube/pkg/kernel"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/tessellate"
)

// DefaultScale is the cube edge used when BuildOptions.Scale is unset.
const DefaultScale = 12.0

// Smooth cubes are slightly smaller than the grid spacing so neighbors stay
// visually separate.
const (
	smoothShrink = 0.9
	smoothRound  = 0.15
)

// BuildOptions controls the visualization mesh.
type BuildOptions struct {
	Scale float64

	// Smooth replaces each hexahedron by a tessellated rounded cube.
	// Requires Kernel.
	Smooth bool
	Kernel kernel.Kernel
}

// hexCorners lists the unit cube corners in VTK hexahedron order.
var hexCorners = [8][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// Build creates one cube per coordinate centered at scale*coord, merges
// the cubes in order and cleans the result.
func Build(coords polycube.Coords, opts BuildOptions) (*UnstructuredGrid, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("vtk: empty coordinate list")
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}

	cube := func(i int, center [3]float64) *UnstructuredGrid { return hexCube(i, center, opts.Scale) }
	if opts.Smooth {
		if opts.Kernel == nil {
			return nil, fmt.Errorf("vtk: smooth cubes need a kernel")
		}
		tmpl, err := smoothTemplate(opts.Kernel, opts.Scale*smoothShrink)
		if err != nil {
			return nil, err
		}
		cube = func(i int, center [3]float64) *UnstructuredGrid { return tmpl.place(i, center) }
	}

	log.Printf("merging %d cubes", len(coords))
	first := cube(0, coords[0].Scaled(opts.Scale))
	g := &UnstructuredGrid{
		Points:    make([][3]float64, 0, len(first.Points)*len(coords)),
		Cells:     make([]Cell, 0, len(first.Cells)*len(coords)),
		CubeIndex: make([]int, 0, len(first.Cells)*len(coords)),
	}
	g.append(first)
	for i, c := range coords[1:] {
		g.append(cube(i+1, c.Scaled(opts.Scale)))
	}
	g.Clean(opts.Scale * 1e-6)
	return g, nil
}

func hexCube(index int, center [3]float64, edge float64) *UnstructuredGrid {
	h := edge / 2
	g := &UnstructuredGrid{
		Points:    make([][3]float64, 8),
		Cells:     []Cell{{Type: Hexahedron, Points: []int{0, 1, 2, 3, 4, 5, 6, 7}}},
		CubeIndex: []int{index},
	}
	for i, c := range hexCorners {
		g.Points[i] = [3]float64{center[0] + c[0]*h, center[1] + c[1]*h, center[2] + c[2]*h}
	}
	return g
}

// template is a rounded cube mesh centered on the origin.
type template struct {
	points [][3]float64
	tris   [][3]int
}

func smoothTemplate(k kernel.Kernel, edge float64) (*template, error) {
	s := k.RoundedBox(edge, edge, edge, edge*smoothRound)
	m, err := tessellate.Tessellate(k, s, tessellate.Resolution{CellSize: edge / 10, MinCells: 10, MaxCells: 24})
	if err != nil {
		return nil, fmt.Errorf("vtk: smooth cube: %w", err)
	}
	t := &template{}
	for i := 0; i < m.VertexCount(); i++ {
		t.points = append(t.points, m.Vertex(i))
	}
	for i := 0; i < m.TriangleCount(); i++ {
		t.tris = append(t.tris, m.Triangle(i))
	}
	return t, nil
}

func (t *template) place(index int, center [3]float64) *UnstructuredGrid {
	g := &UnstructuredGrid{
		Points:    make([][3]float64, len(t.points)),
		Cells:     make([]Cell, len(t.tris)),
		CubeIndex: make([]int, len(t.tris)),
	}
	for i, p := range t.points {
		g.Points[i] = [3]float64{p[0] + center[0], p[1] + center[1], p[2] + center[2]}
	}
	for i, tri := range t.tris {
		g.Cells[i] = Cell{Type: Triangle, Points: []int{tri[0], tri[1], tri[2]}}
		g.CubeIndex[i] = index
	}
	return g
}
