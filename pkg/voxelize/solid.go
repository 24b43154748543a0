package voxelize

import (
	"sort"

	"github.com/unixpickle/model3d/model3d"
)

// parityVoteSolid is a Solid built from a mesh that may contain
// (near-)duplicate or non-manifold triangles. A point is inside when most
// ray directions cross the surface an odd number of times.
type parityVoteSolid struct {
	model3d.Collider
}

var voteDirections = []model3d.Coord3D{
	{X: -0.40475415, Y: 0.86174632, Z: -0.30588783},
	{X: -0.81025101, Y: 0.38452447, Z: -0.44230559},
	{X: -0.09226702, Y: -0.74875317, Z: -0.65639584},
	{X: -0.99668947, Y: 0.08087344, Z: 0.00834144},
	{X: 0.67074042, Y: -0.60098173, Z: 0.43465877},
}

func (p *parityVoteSolid) Contains(c model3d.Coord3D) bool {
	if !model3d.InBounds(p, c) {
		return false
	}
	var odd int
	for _, d := range voteDirections {
		if p.numIntersections(c, d)%2 == 1 {
			odd++
		}
	}
	return odd*2 > len(voteDirections)
}

func (p *parityVoteSolid) numIntersections(coord, direction model3d.Coord3D) int {
	var collisions []model3d.RayCollision
	p.Collider.RayCollisions(&model3d.Ray{
		Origin:    coord,
		Direction: direction,
	}, func(r model3d.RayCollision) {
		collisions = append(collisions, r)
	})
	if len(collisions) == 0 {
		return 0
	}

	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Scale < collisions[j].Scale
	})

	// Hits closer together than epsilon count as one boundary.
	epsilon := p.Max().Sub(p.Min()).Norm() * 1e-8
	lastScale := -1.0
	var numUnique int
	for _, c := range collisions {
		if lastScale < 0 || c.Scale-lastScale > epsilon {
			numUnique++
		}
		lastScale = c.Scale
	}
	return numUnique
}
