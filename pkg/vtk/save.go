package vtk

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/polycube/pkg/polycube"
)

// ErrUnsupportedFormat is returned for an output format other than vtk or vtu.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Output formats.
const (
	FormatVTK = "vtk"
	FormatVTU = "vtu"
)

// CheckFormat returns ErrUnsupportedFormat unless format is vtk or vtu.
func CheckFormat(format string) error {
	switch format {
	case FormatVTK, FormatVTU:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Write encodes g in the given format.
func Write(w io.Writer, g *UnstructuredGrid, format string) error {
	switch format {
	case FormatVTK:
		return WriteLegacy(w, g)
	case FormatVTU:
		return WriteXML(w, g)
	}
	return CheckFormat(format)
}

// Save writes g to <base>.<format> and returns the path. The format is
// checked before the file is created.
func Save(g *UnstructuredGrid, base, format string) (string, error) {
	if err := CheckFormat(format); err != nil {
		return "", err
	}
	path := base + "." + format
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Write(f, g, format); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	log.Printf("%s file saved: %s", format, path)
	return path, nil
}

// SaveCoords builds the mesh for coords once and saves it in every given
// format. Paths are returned in format order. All formats are checked
// before anything is built.
func SaveCoords(coords polycube.Coords, base string, opts BuildOptions, formats ...string) ([]string, error) {
	for _, format := range formats {
		if err := CheckFormat(format); err != nil {
			return nil, err
		}
	}
	g, err := Build(coords, opts)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path, err := Save(g, base, format)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveWithMetadata builds plain cubes for coords, attaches metadata as
// field data and saves the mesh.
func SaveWithMetadata(coords polycube.Coords, base string, scale float64, format string, metadata map[string]any) (string, error) {
	if err := CheckFormat(format); err != nil {
		return "", err
	}
	g, err := Build(coords, BuildOptions{Scale: scale})
	if err != nil {
		return "", err
	}
	for k, v := range metadata {
		g.SetField(k, v)
	}
	return Save(g, base, format)
}
