// Package kernel defines the abstract solid-modeling kernel used to build
// rounded cubes and polycube solids. Implementations (sdfx, manifold)
// provide the geometry behind this interface so exporters never touch a
// backend directly.
package kernel

import (
	"errors"
	"math"
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract solid-modeling kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) Solid

	// RoundedBox is a box of outer size x, y, z whose edges are worn down
	// by round. The rounding profile belongs to the kernel: sdfx rounds
	// spherically, manifold cuts the octahedral bevel of a cube Minkowski
	// summed with an octahedron.
	RoundedBox(x, y, z, round float64) Solid

	Union(a, b Solid) Solid
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates s. Kernels that sample a field use cells
	// marching-cubes cells along the longest axis; exact kernels ignore it.
	ToMesh(s Solid, cells int) (*Mesh, error)
}

// CubeKernel is implemented by kernels with a direct construction for the
// union of many equal rounded cubes.
type CubeKernel interface {
	Kernel
	Cubes(centers [][3]float64, edge, round float64) (Solid, error)
}

// Cubes returns the union of equal rounded cubes with the given edge
// length, one centered on each point. A CubeKernel builds it directly.
// Other kernels get one translated RoundedBox per center, unioned pairwise
// as a balanced tree so no operand grows much faster than the other.
func Cubes(k Kernel, centers [][3]float64, edge, round float64) (Solid, error) {
	if ck, ok := k.(CubeKernel); ok {
		return ck.Cubes(centers, edge, round)
	}
	if len(centers) == 0 {
		return nil, errors.New("kernel: no cube centers")
	}
	if !(edge > 0) {
		return nil, errors.New("kernel: cube edge must be positive")
	}
	round = math.Max(0, math.Min(round, edge/2))

	cube := k.RoundedBox(edge, edge, edge, round)
	solids := make([]Solid, len(centers))
	for i, c := range centers {
		solids[i] = k.Translate(cube, c[0], c[1], c[2])
	}
	for len(solids) > 1 {
		next := solids[:0]
		for i := 0; i < len(solids); i += 2 {
			if i+1 == len(solids) {
				next = append(next, solids[i])
				break
			}
			next = append(next, k.Union(solids[i], solids[i+1]))
		}
		solids = next
	}
	return solids[0], nil
}
