//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/polycube/pkg/kernel"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-6 || math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Fatalf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestRoundedBoxIsOctahedralBevel(t *testing.T) {
	k := mustNew(t)
	s := k.RoundedBox(12.2, 12.2, 12.2, 1.1)
	checkBounds(t, s, [3]float64{-6.1, -6.1, -6.1}, [3]float64{6.1, 6.1, 6.1})

	m, err := k.ToMesh(s, 0)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	// Every hull vertex is an inner corner pushed out along one axis.
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		ax, ay, az := math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])
		if math.Max(ax, math.Max(ay, az)) > 6.1+1e-5 {
			t.Fatalf("vertex %v outside the box", v)
		}
		if ax+ay+az > 3*4.99+1.1+1e-4 {
			t.Fatalf("vertex %v beyond the bevel", v)
		}
	}
}

func TestRoundedBoxZeroRound(t *testing.T) {
	k := mustNew(t)
	checkBounds(t, k.RoundedBox(4, 6, 8, 0), [3]float64{-2, -3, -4}, [3]float64{2, 3, 4})
}

func TestCubesUnion(t *testing.T) {
	k := mustNew(t)
	s, err := kernel.Cubes(k, [][3]float64{{0, 0, 0}, {12, 0, 0}, {12, 12, 0}}, 12.2, 1.1)
	if err != nil {
		t.Fatalf("Cubes: %v", err)
	}
	checkBounds(t, s, [3]float64{-6.1, -6.1, -6.1}, [3]float64{18.1, 18.1, 6.1})

	m, err := k.ToMesh(s, 0)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if m.IsEmpty() || len(m.Normals) != len(m.Vertices) {
		t.Errorf("mesh: %d vertices, %d normals", m.VertexCount(), len(m.Normals)/3)
	}
}

func TestTranslate(t *testing.T) {
	k := mustNew(t)
	moved := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	checkBounds(t, moved, [3]float64{95, 195, 295}, [3]float64{105, 205, 305})
}
