// Package meshio loads triangle meshes from common interchange formats.
//
// Every failure, whatever its cause, is reported as ErrLoad with the
// underlying message appended.
package meshio

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// ErrLoad is the single error kind returned when a mesh cannot be loaded.
var ErrLoad = errors.New("cannot load mesh file")

// Format is a mesh file format.
type Format string

const (
	FormatSTL Format = "stl"
	FormatOFF Format = "off"
	FormatOBJ Format = "obj"
	FormatPLY Format = "ply"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL, true
	case ".off":
		return FormatOFF, true
	case ".obj":
		return FormatOBJ, true
	case ".ply":
		return FormatPLY, true
	}
	return "", false
}

// Load reads the mesh stored at path.
func Load(path string) (*model3d.Mesh, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, loadError(errors.Errorf("unsupported file extension %q", filepath.Ext(path)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, loadError(err)
	}
	defer f.Close()

	m, err := Read(f, format)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded mesh %s: %d vertices, %d faces", path, len(m.VertexSlice()), m.NumTriangles())
	return m, nil
}

// Read decodes a mesh of the given format from r.
func Read(r io.Reader, format Format) (*model3d.Mesh, error) {
	var tris []*model3d.Triangle
	var err error
	switch format {
	case FormatSTL:
		tris, err = model3d.ReadSTL(r)
	case FormatOFF:
		tris, err = model3d.ReadOFF(r)
	case FormatOBJ:
		tris, err = ReadOBJ(r)
	case FormatPLY:
		// Vertex colors are not used.
		tris, _, err = model3d.ReadColorPLY(r)
	default:
		err = errors.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, loadError(errors.Wrap(err, string(format)))
	}
	if len(tris) == 0 {
		return nil, loadError(errors.New("mesh has no faces"))
	}
	return model3d.NewMeshTriangles(tris), nil
}

func loadError(err error) error {
	return fmt.Errorf("%w: %v", ErrLoad, err)
}
