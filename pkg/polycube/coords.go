// Package polycube defines the polycube coordinate set: an ordered list of
// integer grid cells, each standing for one unit cube. Coordinates are not
// deduplicated and no connectivity is implied.
package polycube

import (
	"log"
	"math/rand/v2"
)

// Coord is the integer grid position of a single cube.
type Coord [3]int

// Sub returns c - o, component-wise.
func (c Coord) Sub(o Coord) Coord {
	return Coord{c[0] - o[0], c[1] - o[1], c[2] - o[2]}
}

// Scaled returns the coordinate multiplied by s as floats.
func (c Coord) Scaled(s float64) [3]float64 {
	return [3]float64{float64(c[0]) * s, float64(c[1]) * s, float64(c[2]) * s}
}

// Coords is an ordered polycube coordinate set.
type Coords []Coord

// Bounds returns the per-axis minimum and maximum. ok is false for an
// empty set.
func Bounds(c Coords) (min, max Coord, ok bool) {
	if len(c) == 0 {
		return min, max, false
	}
	min, max = c[0], c[0]
	for _, p := range c[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max, true
}

// Normalize returns a copy of c shifted so that the minimum along each axis
// is zero.
func Normalize(c Coords) Coords {
	min, _, ok := Bounds(c)
	if !ok {
		return Coords{}
	}
	out := make(Coords, len(c))
	for i, p := range c {
		out[i] = p.Sub(min)
	}
	return out
}

// A Sampler picks n entries out of c, where 0 < n < len(c).
type Sampler interface {
	Sample(c Coords, n int) Coords
}

// Cap limits c to at most max coordinates. If c is larger, exactly max
// coordinates chosen by s are returned. A non-positive max disables the cap.
// A nil sampler means a RandomSampler with a random seed.
func Cap(c Coords, max int, s Sampler) Coords {
	if max <= 0 || len(c) <= max {
		return c
	}
	log.Printf("warning: cube count (%d) exceeds limit (%d), subsampling", len(c), max)
	if s == nil {
		s = NewRandomSampler(rand.Uint64())
	}
	return s.Sample(c, max)
}

// RandomSampler draws coordinates uniformly without replacement. The result
// is in draw order, not in input order, and carries no guarantee of
// connectivity or spatial coverage. The zero value draws from the global
// source.
type RandomSampler struct {
	Rand *rand.Rand
}

// NewRandomSampler creates a RandomSampler with a fixed seed.
func NewRandomSampler(seed uint64) *RandomSampler {
	return &RandomSampler{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample implements Sampler.
func (r *RandomSampler) Sample(c Coords, n int) Coords {
	perm := rand.Perm
	if r.Rand != nil {
		perm = r.Rand.Perm
	}
	idx := perm(len(c))
	out := make(Coords, n)
	for i := range out {
		out[i] = c[idx[i]]
	}
	return out
}

// StrideSampler keeps evenly spaced entries of c in their original order.
// For cells listed in x-major order this thins every region at the same rate.
type StrideSampler struct{}

// Sample implements Sampler.
func (StrideSampler) Sample(c Coords, n int) Coords {
	out := make(Coords, n)
	step := float64(len(c)) / float64(n)
	for i := range out {
		out[i] = c[int(float64(i)*step)]
	}
	return out
}
