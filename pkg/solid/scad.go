// Package solid exports a polycube as a CAD solid: an OpenSCAD design of
// rounded cubes, the STL rendered from it by the openscad tool, or an STL
// built in-process through the geometry kernel.
package solid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chazu/polycube/pkg/polycube"
)

// Options describes the rounded cubes of the exported solid.
type Options struct {
	// Scale is the distance between neighboring cube centers.
	Scale float64

	// CubeSize is the edge of the core cube before rounding.
	CubeSize float64

	// Round is the radius of the octahedron Minkowski-summed onto each cube.
	Round float64
}

// DefaultOptions leave a small overlap between neighbors:
// 10 + 2*1.1 > 12.
var DefaultOptions = Options{Scale: 12, CubeSize: 10, Round: 1.1}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = DefaultOptions.Scale
	}
	if o.CubeSize <= 0 {
		o.CubeSize = DefaultOptions.CubeSize
	}
	if o.Round < 0 {
		o.Round = 0
	}
	return o
}

// Edge is the full edge length of one rounded cube.
func (o Options) Edge() float64 {
	o = o.withDefaults()
	return o.CubeSize + 2*o.Round
}

const scadPrelude = `module octahedron(s) {
  polyhedron(
    points=[[0,0,s], [0,s,0], [s,0,0], [0,0,-s], [0,-s,0], [-s,0,0]],
    faces=[[1,0,2], [0,1,5], [1,2,3], [0,5,4], [0,4,2], [1,3,5], [2,4,3], [3,4,5]]
  );
}

module cbox(s, b) {
  minkowski() {
    cube(s, center=true);
    octahedron(b);
  }
}

`

// WriteSCAD writes an OpenSCAD program for the union of one rounded cube
// per coordinate, translated to scale*coordinate.
func WriteSCAD(w io.Writer, coords polycube.Coords, opts Options) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)
	bw.WriteString(scadPrelude)
	fmt.Fprintf(bw, "union() {\n")
	for _, c := range coords {
		p := c.Scaled(opts.Scale)
		fmt.Fprintf(bw, "  translate([%s, %s, %s]) cbox(%s, %s);\n",
			ftos(p[0]), ftos(p[1]), ftos(p[2]), ftos(opts.CubeSize), ftos(opts.Round))
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

// SaveSCAD writes <base>.scad and returns its path.
func SaveSCAD(base string, coords polycube.Coords, opts Options) (string, error) {
	path := base + ".scad"
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteSCAD(f, coords, opts); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func ftos(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
