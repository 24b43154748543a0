package solid

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/chazu/polycube/pkg/kernel"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/tessellate"
)

// DefaultTool is the OpenSCAD executable looked up on PATH.
const DefaultTool = "openscad"

// RenderSTL runs the OpenSCAD tool to convert <base>.scad into <base>.stl.
// The call blocks until the tool exits; ctx may cancel it. The tool's
// output is not validated beyond its exit status.
func RenderSTL(ctx context.Context, tool, base string) (string, error) {
	if tool == "" {
		tool = DefaultTool
	}
	out := base + ".stl"
	cmd := exec.CommandContext(ctx, tool, "-o", out, base+".scad")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", tool, err, msg)
		}
		return "", fmt.Errorf("%s: %w", tool, err)
	}
	return out, nil
}

// Build returns the polycube as a single kernel solid: one rounded cube of
// the outer edge per coordinate, translated and unioned. How closely the
// rounding follows the octahedral bevel of the OpenSCAD design depends on
// the kernel's RoundedBox.
func Build(k kernel.Kernel, coords polycube.Coords, opts Options) (kernel.Solid, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("solid: no coordinates")
	}
	opts = opts.withDefaults()
	centers := make([][3]float64, len(coords))
	for i, c := range coords {
		centers[i] = c.Scaled(opts.Scale)
	}
	return kernel.Cubes(k, centers, opts.Edge(), opts.Round)
}

// SaveNativeSTL builds the polycube through the kernel and writes
// <base>.stl without any external tool.
func SaveNativeSTL(k kernel.Kernel, base string, coords polycube.Coords, opts Options) (string, error) {
	s, err := Build(k, coords, opts)
	if err != nil {
		return "", err
	}
	opts = opts.withDefaults()
	// Enough cells to resolve the gap between cubes and the rounding.
	res := tessellate.Resolution{CellSize: opts.Scale / 6, MaxCells: 600}
	m, err := tessellate.Tessellate(k, s, res)
	if err != nil {
		return "", err
	}
	path := base + ".stl"
	if err := tessellate.SaveSTL(path, m); err != nil {
		return "", err
	}
	log.Printf("native STL: %s (%d triangles)", path, m.TriangleCount())
	return path, nil
}
