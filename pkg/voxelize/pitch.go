// Package voxelize turns surface meshes into dense occupancy grids and
// extracts polycube coordinates from them.
package voxelize

import (
	"errors"
	"log"
	"math"

	"github.com/unixpickle/model3d/model3d"
)

const (
	// DefaultTargetCubes is the approximate cube count AdaptivePitch aims for.
	DefaultTargetCubes = 500

	// DefaultMinResolution is the minimum number of cells along the longest
	// axis.
	DefaultMinResolution = 20

	// MaxResolution bounds the number of cells along the longest axis.
	MaxResolution = 100
)

// AdaptivePitch estimates a voxel pitch for a bounding box so that the
// box volume holds roughly targetCubes cells. The estimate is then clamped
// so the longest axis spans at least minResolution cells and at most
// MaxResolution cells. It is a single closed-form estimate; the resulting
// cube count is not checked.
func AdaptivePitch(min, max model3d.Coord3D, targetCubes, minResolution int) (float64, error) {
	if targetCubes <= 0 || minResolution <= 0 {
		return 0, errors.New("adaptive pitch: target cubes and resolution must be positive")
	}
	dims := max.Sub(min)
	maxDim := math.Max(math.Max(dims.X, dims.Y), dims.Z)
	if !(maxDim > 0) {
		return 0, errors.New("adaptive pitch: bounding box is empty")
	}
	volume := dims.X * dims.Y * dims.Z

	byTarget := math.Cbrt(volume / float64(targetCubes))
	byResolution := maxDim / float64(minResolution)
	pitch := math.Max(math.Min(byTarget, byResolution), maxDim/MaxResolution)

	log.Printf("adaptive pitch: extent=%.4g,%.4g,%.4g max=%.4g volume=%.6g pitch=%.6g expected cubes=%d",
		dims.X, dims.Y, dims.Z, maxDim, volume, pitch, int(volume/(pitch*pitch*pitch)))
	return pitch, nil
}
