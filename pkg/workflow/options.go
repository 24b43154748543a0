// Package workflow sequences mesh loading, voxelization and export for
// single files and batches.
package workflow

import (
	"context"

	"github.com/chazu/polycube/pkg/kernel"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/solid"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/vtk"
)

// MinCubes is the cube count under which an adaptive run halves the pitch
// and voxelizes again, once.
const MinCubes = 10

// Options configures a conversion.
type Options struct {
	// VoxelSize is the voxel pitch used when Adaptive is off.
	VoxelSize float64

	// Adaptive derives the pitch from the mesh bounds.
	Adaptive      bool
	TargetCubes   int
	MinResolution int

	// MaxCubes caps the cube count; non-positive disables the cap.
	MaxCubes int
	Sampler  polycube.Sampler

	Simplify bool
	MaxFaces int
	Fill     voxelize.Fill

	// Scale is the visualization cube edge and spacing.
	Scale  float64
	Smooth bool

	// Format is the visualization format of ConvertToVTK and batches.
	Format string

	Solid solid.Options

	// Tool is the OpenSCAD executable used for STL output.
	Tool string

	// NativeSTL writes the STL through Kernel instead of the external tool.
	// When false the kernel is still used if the tool fails.
	NativeSTL bool
	Kernel    kernel.Kernel

	// CoordsFile also saves the coordinates as <base>.json (or CoordsExt).
	CoordsFile bool
	CoordsExt  string

	// Recorder receives every batch result when set.
	Recorder Recorder
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		VoxelSize:     1.0,
		TargetCubes:   voxelize.DefaultTargetCubes,
		MinResolution: voxelize.DefaultMinResolution,
		MaxCubes:      1000,
		Simplify:      true,
		MaxFaces:      voxelize.DefaultMaxFaces,
		Scale:         vtk.DefaultScale,
		Format:        vtk.FormatVTK,
		Solid:         solid.DefaultOptions,
		Tool:          solid.DefaultTool,
		CoordsExt:     ".json",
	}
}

// Recorder stores batch results.
type Recorder interface {
	Record(ctx context.Context, runID string, r FileResult) error
}

func (o Options) buildOptions() vtk.BuildOptions {
	return vtk.BuildOptions{Scale: o.Scale, Smooth: o.Smooth, Kernel: o.Kernel}
}
