// Package tessellate turns kernel solids into triangle meshes and writes
// them out as STL.
package tessellate

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chazu/polycube/pkg/kernel"
	"github.com/unixpickle/model3d/model3d"
)

// Resolution controls how finely a solid is tessellated.
type Resolution struct {
	// CellSize is the target marching cubes cell edge in model units.
	CellSize float64

	// MinCells and MaxCells clamp the cell count along the longest axis.
	MinCells int
	MaxCells int
}

// DefaultResolution is used when a Resolution field is unset.
var DefaultResolution = Resolution{CellSize: 1, MinCells: 16, MaxCells: 400}

// Cells returns the number of marching cubes cells for a bounding box.
func (r Resolution) Cells(min, max [3]float64) int {
	if r.CellSize <= 0 {
		r.CellSize = DefaultResolution.CellSize
	}
	if r.MinCells <= 0 {
		r.MinCells = DefaultResolution.MinCells
	}
	if r.MaxCells <= 0 {
		r.MaxCells = DefaultResolution.MaxCells
	}
	longest := math.Max(max[0]-min[0], math.Max(max[1]-min[1], max[2]-min[2]))
	cells := int(math.Ceil(longest / r.CellSize))
	if cells < r.MinCells {
		cells = r.MinCells
	}
	if cells > r.MaxCells {
		cells = r.MaxCells
	}
	return cells
}

// Tessellate meshes a solid at a resolution derived from its bounding box.
func Tessellate(k kernel.Kernel, s kernel.Solid, r Resolution) (*kernel.Mesh, error) {
	cells := r.Cells(s.BoundingBox())
	m, err := k.ToMesh(s, cells)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %d cells: %w", cells, err)
	}
	return m, nil
}

// Triangles converts a kernel mesh to model3d triangles.
func Triangles(m *kernel.Mesh) []*model3d.Triangle {
	tris := make([]*model3d.Triangle, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		var t model3d.Triangle
		for j, idx := range m.Triangle(i) {
			v := m.Vertex(idx)
			t[j] = model3d.XYZ(v[0], v[1], v[2])
		}
		tris = append(tris, &t)
	}
	return tris
}

// WriteSTL encodes m as a binary STL.
func WriteSTL(w io.Writer, m *kernel.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("tessellate: refusing to write empty mesh")
	}
	return model3d.WriteSTL(w, Triangles(m))
}

// SaveSTL writes m to path as a binary STL.
func SaveSTL(path string, m *kernel.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteSTL(f, m); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}
