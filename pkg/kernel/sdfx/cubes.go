package sdfx

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type bucket [3]int

// cubeSet is an sdf.SDF3 for the union of equal rounded cubes. Cube centers
// are hashed into buckets one edge wide, so a point only needs the 27
// buckets around it: any cube further away is at least half an edge from
// the point.
type cubeSet struct {
	edge  float64
	round float64
	cells map[bucket][]v3.Vec
	bb    sdf.Box3
}

func newCubeSet(centers [][3]float64, edge, round float64) (*cubeSet, error) {
	if len(centers) == 0 {
		return nil, errors.New("sdfx: no cube centers")
	}
	if !(edge > 0) {
		return nil, errors.New("sdfx: cube edge must be positive")
	}
	round = math.Max(0, math.Min(round, edge/2))

	c := &cubeSet{
		edge:  edge,
		round: round,
		cells: make(map[bucket][]v3.Vec, len(centers)),
	}
	half := edge / 2
	min := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range centers {
		v := v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		b := c.bucketOf(v)
		c.cells[b] = append(c.cells[b], v)
		min = v3.Vec{X: math.Min(min.X, v.X-half), Y: math.Min(min.Y, v.Y-half), Z: math.Min(min.Z, v.Z-half)}
		max = v3.Vec{X: math.Max(max.X, v.X+half), Y: math.Max(max.Y, v.Y+half), Z: math.Max(max.Z, v.Z+half)}
	}
	c.bb = sdf.Box3{Min: min, Max: max}
	return c, nil
}

func (c *cubeSet) bucketOf(v v3.Vec) bucket {
	return bucket{
		int(math.Floor(v.X / c.edge)),
		int(math.Floor(v.Y / c.edge)),
		int(math.Floor(v.Z / c.edge)),
	}
}

// Evaluate returns the signed distance to the union. Far from every cube it
// returns half an edge, which is a lower bound on the true distance.
func (c *cubeSet) Evaluate(p v3.Vec) float64 {
	d := c.edge / 2
	b := c.bucketOf(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, center := range c.cells[bucket{b[0] + dx, b[1] + dy, b[2] + dz}] {
					d = math.Min(d, c.cubeDistance(p, center))
				}
			}
		}
	}
	return d
}

// cubeDistance is the signed distance from p to one rounded cube.
func (c *cubeSet) cubeDistance(p, center v3.Vec) float64 {
	inner := c.edge/2 - c.round
	qx := math.Abs(p.X-center.X) - inner
	qy := math.Abs(p.Y-center.Y) - inner
	qz := math.Abs(p.Z-center.Z) - inner
	outside := math.Sqrt(sq(math.Max(qx, 0)) + sq(math.Max(qy, 0)) + sq(math.Max(qz, 0)))
	inside := math.Min(math.Max(qx, math.Max(qy, qz)), 0)
	return outside + inside - c.round
}

func sq(x float64) float64 {
	return x * x
}

// BoundingBox returns the box around every cube.
func (c *cubeSet) BoundingBox() sdf.Box3 {
	return c.bb
}
