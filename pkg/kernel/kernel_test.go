package kernel

import "testing"

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshVertexAndTriangle(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 2, 0},
		Indices:  []uint32{0, 2, 1},
	}
	if got := m.Vertex(2); got != [3]float64{0, 2, 0} {
		t.Errorf("Vertex(2) = %v, want [0 2 0]", got)
	}
	if got := m.Triangle(0); got != [3]int{0, 2, 1} {
		t.Errorf("Triangle(0) = %v, want [0 2 1]", got)
	}
}

// --- Cubes ---

// boxSolid tracks only its bounds.
type boxSolid struct {
	min, max [3]float64
}

func (s *boxSolid) BoundingBox() (min, max [3]float64) { return s.min, s.max }

// boundsKernel is a Kernel without a direct cube construction. Solids are
// reduced to their bounding boxes and every operation is counted.
type boundsKernel struct {
	rounded, translated, unions int
}

func (k *boundsKernel) Box(x, y, z float64) Solid {
	return &boxSolid{min: [3]float64{-x / 2, -y / 2, -z / 2}, max: [3]float64{x / 2, y / 2, z / 2}}
}

func (k *boundsKernel) RoundedBox(x, y, z, _ float64) Solid {
	k.rounded++
	return k.Box(x, y, z)
}

func (k *boundsKernel) Union(a, b Solid) Solid {
	k.unions++
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	out := &boxSolid{}
	for i := 0; i < 3; i++ {
		out.min[i] = min(amin[i], bmin[i])
		out.max[i] = max(amax[i], bmax[i])
	}
	return out
}

func (k *boundsKernel) Translate(s Solid, x, y, z float64) Solid {
	k.translated++
	lo, hi := s.BoundingBox()
	d := [3]float64{x, y, z}
	out := &boxSolid{}
	for i := 0; i < 3; i++ {
		out.min[i] = lo[i] + d[i]
		out.max[i] = hi[i] + d[i]
	}
	return out
}

func (k *boundsKernel) ToMesh(Solid, int) (*Mesh, error) { return &Mesh{}, nil }

// directKernel adds a direct cube construction to boundsKernel.
type directKernel struct {
	boundsKernel
	calls int
}

func (k *directKernel) Cubes(centers [][3]float64, edge, _ float64) (Solid, error) {
	k.calls++
	return k.Box(edge, edge, edge), nil
}

var (
	_ Kernel     = (*boundsKernel)(nil)
	_ CubeKernel = (*directKernel)(nil)
)

func TestCubesUnionsTranslatedBoxes(t *testing.T) {
	k := &boundsKernel{}
	centers := [][3]float64{{0, 0, 0}, {12, 0, 0}, {12, 24, 0}, {0, 0, 36}, {-12, 0, 0}}
	s, err := Cubes(k, centers, 12, 1)
	if err != nil {
		t.Fatalf("Cubes: %v", err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{-18, -6, -6} || max != [3]float64{18, 30, 42} {
		t.Errorf("bounds = %v..%v", min, max)
	}
	if k.rounded != 1 || k.translated != len(centers) || k.unions != len(centers)-1 {
		t.Errorf("rounded %d, translated %d, unions %d", k.rounded, k.translated, k.unions)
	}
}

func TestCubesSingle(t *testing.T) {
	k := &boundsKernel{}
	s, err := Cubes(k, [][3]float64{{5, 5, 5}}, 2, 0)
	if err != nil {
		t.Fatalf("Cubes: %v", err)
	}
	if min, max := s.BoundingBox(); min != [3]float64{4, 4, 4} || max != [3]float64{6, 6, 6} {
		t.Errorf("bounds = %v..%v", min, max)
	}
	if k.unions != 0 {
		t.Errorf("unions = %d, want 0", k.unions)
	}
}

func TestCubesPrefersDirectConstruction(t *testing.T) {
	k := &directKernel{}
	if _, err := Cubes(k, [][3]float64{{0, 0, 0}, {1, 0, 0}}, 1, 0); err != nil {
		t.Fatalf("Cubes: %v", err)
	}
	if k.calls != 1 || k.translated != 0 || k.unions != 0 {
		t.Errorf("calls %d, translated %d, unions %d", k.calls, k.translated, k.unions)
	}
}

func TestCubesErrors(t *testing.T) {
	k := &boundsKernel{}
	if _, err := Cubes(k, nil, 1, 0); err == nil {
		t.Error("expected error for no centers")
	}
	if _, err := Cubes(k, [][3]float64{{0, 0, 0}}, 0, 0); err == nil {
		t.Error("expected error for zero edge")
	}
}
