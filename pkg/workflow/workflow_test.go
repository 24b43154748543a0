package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/polycube/pkg/kernel/sdfx"
	"github.com/chazu/polycube/pkg/meshio"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/vtk"
)

const cubeOBJ = `v 0 0 0
v 10 0 0
v 10 10 0
v 0 10 0
v 0 0 10
v 10 0 10
v 10 10 10
v 0 10 10
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func writeCube(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(path, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.VoxelSize = 2
	opts.Tool = "/nonexistent/openscad"
	return opts
}

// --- polycube ---

func TestMeshToPolycube(t *testing.T) {
	path := writeCube(t, t.TempDir())
	opts := testOptions()
	opts.MaxCubes = 0
	coords, info, err := MeshToPolycube(path, opts)
	if err != nil {
		t.Fatalf("MeshToPolycube: %v", err)
	}
	// Shell of a 6x6x6 grid.
	if len(coords) != 152 {
		t.Errorf("got %d cubes, want 152", len(coords))
	}
	if info.Shape != [3]int{6, 6, 6} || info.Pitch != 2 {
		t.Errorf("info = %+v", info)
	}
	min, _, _ := polycube.Bounds(coords)
	if min != (polycube.Coord{}) {
		t.Errorf("min = %v, want origin", min)
	}
}

func TestMeshToPolycubeCap(t *testing.T) {
	path := writeCube(t, t.TempDir())
	opts := testOptions()
	opts.MaxCubes = 100
	opts.Sampler = polycube.NewRandomSampler(7)
	coords, info, err := MeshToPolycube(path, opts)
	if err != nil {
		t.Fatalf("MeshToPolycube: %v", err)
	}
	if len(coords) != 100 || info.Occupied != 152 || info.Cubes != 100 {
		t.Errorf("len=%d info=%+v", len(coords), info)
	}
}

func TestMeshToPolycubeAdaptiveHalves(t *testing.T) {
	path := writeCube(t, t.TempDir())
	opts := testOptions()
	opts.Adaptive = true
	opts.TargetCubes = 1
	opts.MinResolution = 1
	coords, info, err := MeshToPolycube(path, opts)
	if err != nil {
		t.Fatalf("MeshToPolycube: %v", err)
	}
	// Pitch 10 gives 8 cubes, under MinCubes; pitch 5 gives a 3x3x3 shell.
	if info.Pitch != 5 {
		t.Errorf("pitch = %v, want 5", info.Pitch)
	}
	if len(coords) != 26 {
		t.Errorf("got %d cubes, want 26", len(coords))
	}
}

func TestMeshToPolycubeInterior(t *testing.T) {
	path := writeCube(t, t.TempDir())
	opts := testOptions()
	opts.VoxelSize = 2.5
	opts.Fill = voxelize.FillInterior
	coords, _, err := MeshToPolycube(path, opts)
	if err != nil {
		t.Fatalf("MeshToPolycube: %v", err)
	}
	if len(coords) != 125 {
		t.Errorf("got %d cubes, want 125", len(coords))
	}
}

func TestMeshToPolycubeLoadError(t *testing.T) {
	_, _, err := MeshToPolycube(filepath.Join(t.TempDir(), "missing.stl"), testOptions())
	if !errors.Is(err, meshio.ErrLoad) {
		t.Errorf("err = %v, want ErrLoad", err)
	}
}

// --- convert ---

func TestConvertToVTK(t *testing.T) {
	dir := t.TempDir()
	path := writeCube(t, dir)
	opts := testOptions()
	opts.Format = vtk.FormatVTU
	base := filepath.Join(dir, "out")
	coords, err := ConvertToVTK(context.Background(), path, base, opts)
	if err != nil {
		t.Fatalf("ConvertToVTK: %v", err)
	}
	data, err := os.ReadFile(base + ".vtu")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"source_file", "voxel_size", "cube_count", "scale", "cube_index"} {
		if !strings.Contains(string(data), `Name="`+name+`"`) {
			t.Errorf("missing array %s", name)
		}
	}
	if len(coords) != 152 {
		t.Errorf("got %d cubes, want 152", len(coords))
	}
}

func TestConvertToVTKUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeCube(t, dir)
	opts := testOptions()
	opts.Format = "obj"
	_, err := ConvertToVTK(context.Background(), path, filepath.Join(dir, "out"), opts)
	if !errors.Is(err, vtk.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.obj")); !os.IsNotExist(err) {
		t.Error("output file was written")
	}
}

func TestConvertAllToolMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeCube(t, dir)
	opts := testOptions()
	opts.VoxelSize = 5
	opts.CoordsFile = true
	out, err := ConvertAll(context.Background(), path, filepath.Join(dir, "out"), opts)
	if err != nil {
		t.Fatalf("ConvertAll: %v", err)
	}
	if out.STL != "" {
		t.Errorf("STL = %q, want none", out.STL)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "OpenSCAD") {
		t.Errorf("warnings = %v", out.Warnings)
	}
	for _, p := range []string{out.SCAD, out.VTK, out.VTU, out.CoordsFile} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	saved, err := polycube.Load(out.CoordsFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != len(out.Coords) {
		t.Errorf("saved %d coords, want %d", len(saved), len(out.Coords))
	}
}

func TestConvertAllNativeFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeCube(t, dir)
	opts := testOptions()
	opts.VoxelSize = 5
	opts.Kernel = sdfx.New()
	out, err := ConvertAll(context.Background(), path, filepath.Join(dir, "out"), opts)
	if err != nil {
		t.Fatalf("ConvertAll: %v", err)
	}
	if out.STL == "" {
		t.Fatalf("no STL written, warnings %v", out.Warnings)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("warnings = %v, want the tool failure only", out.Warnings)
	}
}

func TestConvertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	if _, err := ConvertAll(ctx, writeCube(t, dir), filepath.Join(dir, "out"), testOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// --- batch ---

type memRecorder struct {
	runs    map[string]int
	results []FileResult
}

func (m *memRecorder) Record(ctx context.Context, runID string, r FileResult) error {
	if m.runs == nil {
		m.runs = map[string]int{}
	}
	m.runs[runID]++
	m.results = append(m.results, r)
	return nil
}

func TestBatchConvertIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeCube(t, dir)
	bad := filepath.Join(dir, "missing.stl")
	rec := &memRecorder{}
	opts := testOptions()
	opts.Recorder = rec

	outDir := filepath.Join(dir, "out")
	res := BatchConvert(context.Background(), []string{bad, good}, outDir, opts)
	if len(res) != 2 || res.Succeeded() != 1 || res.Failed() != 1 {
		t.Fatalf("results = %+v", res)
	}
	if r := res[bad]; r.Success || r.Error == "" {
		t.Errorf("bad result = %+v", r)
	}
	r := res[good]
	if !r.Success || r.CubeCount != 152 || r.Output != filepath.Join(outDir, "cube.vtk") {
		t.Errorf("good result = %+v", r)
	}
	if _, err := os.Stat(r.Output); err != nil {
		t.Error(err)
	}
	if len(rec.results) != 2 || len(rec.runs) != 1 {
		t.Errorf("recorder saw %d results over %d runs", len(rec.results), len(rec.runs))
	}
}

func TestBatchConvertBadFormat(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.Format = "stl"
	res := BatchConvert(context.Background(), []string{writeCube(t, dir)}, dir, opts)
	if res.Failed() != 1 {
		t.Errorf("results = %+v", res)
	}
}

// --- jobs ---

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := writeCube(t, dir)
	opts := testOptions()
	opts.VoxelSize = 5
	jobs := []Job{
		{Kind: JobConvert, Inputs: []string{input}, Out: filepath.Join(dir, "a"), Options: opts},
		{Kind: JobPolycube, Inputs: []string{input}, Out: filepath.Join(dir, "b"), Options: opts},
		{Kind: JobBatch, Inputs: []string{input}, Out: filepath.Join(dir, "c"), Options: opts},
		{Kind: JobConvert, Inputs: []string{input}, Options: opts},
		{Kind: "render", Inputs: []string{input}, Out: "x", Options: opts},
	}
	res := Run(context.Background(), jobs)
	if len(res) != len(jobs) {
		t.Fatalf("got %d results", len(res))
	}
	if res[0].Err != nil || res[0].Cubes != 26 {
		t.Errorf("convert: %+v", res[0])
	}
	if res[1].Err != nil || res[1].Outputs == nil || res[1].Outputs.VTU == "" {
		t.Errorf("polycube: %+v", res[1])
	}
	if res[2].Err != nil || res[2].Batch.Succeeded() != 1 {
		t.Errorf("batch: %+v", res[2])
	}
	if res[3].Err == nil {
		t.Error("convert without output base should fail")
	}
	if res[4].Err == nil {
		t.Error("unknown job kind should fail")
	}
}
