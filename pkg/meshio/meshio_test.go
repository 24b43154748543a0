package meshio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestLoadOBJCube(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "cube.obj"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// 6 quads, fan-triangulated.
	if got := m.NumTriangles(); got != 12 {
		t.Errorf("NumTriangles() = %d, want 12", got)
	}
	if min, max := m.Min(), m.Max(); min != model3d.XYZ(0, 0, 0) || max != model3d.XYZ(10, 10, 10) {
		t.Errorf("bounds = %v..%v, want origin..(10,10,10)", min, max)
	}
}

func TestReadSTLRoundTrip(t *testing.T) {
	src, err := Load(filepath.Join("testdata", "cube.obj"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var buf bytes.Buffer
	if err := model3d.WriteSTL(&buf, src.TriangleSlice()); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	m, err := Read(&buf, FormatSTL)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m.NumTriangles() != 12 {
		t.Errorf("NumTriangles() = %d, want 12", m.NumTriangles())
	}
}

func TestLoadPLY(t *testing.T) {
	src, err := Load(filepath.Join("testdata", "cube.obj"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "cube.ply")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gray := func(model3d.Coord3D) [3]uint8 { return [3]uint8{128, 128, 128} }
	if err := model3d.WritePLY(f, src.TriangleSlice(), gray); err != nil {
		t.Fatalf("WritePLY: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.NumTriangles() != 12 {
		t.Errorf("NumTriangles() = %d, want 12", m.NumTriangles())
	}
	if max := m.Max(); max != model3d.XYZ(10, 10, 10) {
		t.Errorf("max = %v, want (10,10,10)", max)
	}
}

func TestReadOBJIndices(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1/1/1 2/2/2 3/3/3
f -4 -3 -1
`
	tris, err := ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("got %d triangles, want 2", len(tris))
	}
	if tris[1][2] != model3d.XYZ(0, 0, 1) {
		t.Errorf("relative index resolved to %v, want (0,0,1)", tris[1][2])
	}
}

func TestLoadFailuresAreErrLoad(t *testing.T) {
	dir := t.TempDir()
	badOBJ := filepath.Join(dir, "bad.obj")
	if err := os.WriteFile(badOBJ, []byte("v 0 0 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	emptyOBJ := filepath.Join(dir, "empty.obj")
	if err := os.WriteFile(emptyOBJ, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "mesh.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.stl")},
		{"index out of range", badOBJ},
		{"no faces", emptyOBJ},
		{"unsupported extension", txt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrLoad) {
				t.Errorf("error %q is not ErrLoad", err)
			}
			if !strings.HasPrefix(err.Error(), ErrLoad.Error()+": ") {
				t.Errorf("error %q does not carry the underlying message", err)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.stl", FormatSTL, true},
		{"dir/B.STL", FormatSTL, true},
		{"c.off", FormatOFF, true},
		{"d.obj", FormatOBJ, true},
		{"e.ply", FormatPLY, true},
		{"f.3mf", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, ok)
		}
	}
}
