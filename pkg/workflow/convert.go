package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chazu/polycube/pkg/meshio"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/solid"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/vtk"
	"github.com/unixpickle/model3d/model3d"
)

// ErrNoCubes is returned when voxelization leaves no occupied cell.
var ErrNoCubes = errors.New("no cubes produced")

// Info describes how a polycube was produced.
type Info struct {
	Pitch    float64
	Faces    int
	Shape    [3]int
	Occupied int
	Cubes    int
}

// MeshToPolycube loads the mesh at path and converts it to polycube
// coordinates.
func MeshToPolycube(path string, opts Options) (polycube.Coords, Info, error) {
	m, err := meshio.Load(path)
	if err != nil {
		return nil, Info{}, err
	}
	return Polycube(m, opts)
}

// Polycube converts a mesh to coordinates: optional simplification,
// pitch selection, voxelization, extraction and capping.
func Polycube(m *model3d.Mesh, opts Options) (polycube.Coords, Info, error) {
	if opts.Simplify {
		maxFaces := opts.MaxFaces
		if maxFaces <= 0 {
			maxFaces = voxelize.DefaultMaxFaces
		}
		m = voxelize.Simplify(m, maxFaces)
	}

	pitch := opts.VoxelSize
	if opts.Adaptive {
		p, err := voxelize.AdaptivePitch(m.Min(), m.Max(), opts.TargetCubes, opts.MinResolution)
		if err != nil {
			return nil, Info{}, err
		}
		pitch = p
	}

	coords, info, err := extract(m, pitch, opts)
	if err != nil {
		return nil, info, err
	}
	if opts.Adaptive && len(coords) < MinCubes {
		log.Printf("only %d cubes at voxel size %g, retrying at %g", len(coords), pitch, pitch/2)
		coords, info, err = extract(m, pitch/2, opts)
		if err != nil {
			return nil, info, err
		}
	}
	if len(coords) == 0 {
		return nil, info, ErrNoCubes
	}
	log.Printf("polycube: %d cubes", len(coords))
	return coords, info, nil
}

func extract(m *model3d.Mesh, pitch float64, opts Options) (polycube.Coords, Info, error) {
	info := Info{Pitch: pitch, Faces: m.NumTriangles()}
	g, err := voxelize.Voxelize(m, pitch, opts.Fill)
	if err != nil {
		return nil, info, err
	}
	info.Shape = g.Shape()
	info.Occupied = g.Count()
	coords := voxelize.Extract(g, opts.MaxCubes, opts.Sampler)
	info.Cubes = len(coords)
	return coords, info, nil
}

// ConvertToVTK converts the mesh at input and writes <outBase>.<format>
// with the conversion parameters attached as field data. The format is
// checked before any other work.
func ConvertToVTK(ctx context.Context, input, outBase string, opts Options) (polycube.Coords, error) {
	if err := vtk.CheckFormat(opts.Format); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("converting %s -> %s.%s", input, outBase, opts.Format)

	coords, info, err := MeshToPolycube(input, opts)
	if err != nil {
		return nil, err
	}
	metadata := map[string]any{
		"source_file": input,
		"voxel_size":  info.Pitch,
		"cube_count":  len(coords),
		"scale":       opts.Scale,
	}
	if _, err := vtk.SaveWithMetadata(coords, outBase, opts.Scale, opts.Format, metadata); err != nil {
		return nil, err
	}
	log.Printf("conversion complete: %d cubes", len(coords))
	return coords, nil
}

// Outputs lists the files written by ConvertAll. Empty paths were not
// produced.
type Outputs struct {
	Coords polycube.Coords
	Info   Info

	SCAD       string
	STL        string
	VTK        string
	VTU        string
	CoordsFile string

	// Warnings hold failures that did not stop the conversion.
	Warnings []string
}

// ConvertAll converts the mesh at input and writes every output format
// next to outBase. An STL failure is recorded as a warning.
func ConvertAll(ctx context.Context, input, outBase string, opts Options) (*Outputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coords, info, err := MeshToPolycube(input, opts)
	if err != nil {
		return nil, err
	}
	out, err := Export(ctx, coords, outBase, opts)
	if out != nil {
		out.Info = info
	}
	return out, err
}

// Export writes every output format for existing coordinates.
func Export(ctx context.Context, coords polycube.Coords, outBase string, opts Options) (*Outputs, error) {
	out := &Outputs{Coords: coords}

	scad, err := solid.SaveSCAD(outBase, coords, opts.Solid)
	if err != nil {
		return nil, err
	}
	out.SCAD = scad
	log.Printf("SCAD file written: %s", scad)

	out.STL = exportSTL(ctx, coords, outBase, opts, out)

	paths, err := vtk.SaveCoords(coords, outBase, opts.buildOptions(), vtk.FormatVTK, vtk.FormatVTU)
	if err != nil {
		return out, err
	}
	out.VTK, out.VTU = paths[0], paths[1]

	if opts.CoordsFile {
		ext := opts.CoordsExt
		if ext == "" {
			ext = ".json"
		}
		path := outBase + ext
		if err := polycube.Save(path, coords); err != nil {
			return out, err
		}
		out.CoordsFile = path
	}
	return out, nil
}

// exportSTL returns the STL path, or "" after recording a warning.
func exportSTL(ctx context.Context, coords polycube.Coords, outBase string, opts Options, out *Outputs) string {
	if opts.NativeSTL {
		if opts.Kernel == nil {
			out.warn("native STL requested without a kernel")
			return ""
		}
		path, err := solid.SaveNativeSTL(opts.Kernel, outBase, coords, opts.Solid)
		if err != nil {
			out.warn(fmt.Sprintf("native STL generation failed: %v", err))
			return ""
		}
		return path
	}

	path, err := solid.RenderSTL(ctx, opts.Tool, outBase)
	if err == nil {
		log.Printf("STL file written: %s", path)
		return path
	}
	out.warn(fmt.Sprintf("STL generation failed (OpenSCAD required): %v", err))
	if opts.Kernel == nil {
		return ""
	}
	path, err = solid.SaveNativeSTL(opts.Kernel, outBase, coords, opts.Solid)
	if err != nil {
		out.warn(fmt.Sprintf("native STL fallback failed: %v", err))
		return ""
	}
	return path
}

func (o *Outputs) warn(msg string) {
	log.Printf("warning: %s", msg)
	o.Warnings = append(o.Warnings, msg)
}
