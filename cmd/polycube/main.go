// Command polycube converts surface meshes into polycubes and exports them
// as OpenSCAD, STL and VTK files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chazu/polycube/pkg/config"
	"github.com/chazu/polycube/pkg/engine"
	"github.com/chazu/polycube/pkg/meshio"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/store"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/workflow"
	"github.com/unixpickle/essentials"
)

const usage = `Usage: polycube <command> [flags] <args>

Commands:
  convert  <mesh>        convert one mesh (-format vtk, vtu or all)
  batch    <mesh>...     convert several meshes into -dir
  run      <script>      run a job script
  export   <coords>      export a saved coordinate file to every format
  pitch    <mesh>        print the adaptive voxel size for a mesh
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "convert":
		err = convertCmd(ctx, args)
	case "batch":
		err = batchCmd(ctx, args)
	case "run":
		err = runCmd(ctx, args)
	case "export":
		err = exportCmd(ctx, args)
	case "pitch":
		err = pitchCmd(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// settings are the flags shared by the conversion commands. Flags override
// the config file only when given explicitly.
type settings struct {
	fs *flag.FlagSet

	configPath string
	dbPath     string
	voxelSize  float64
	adaptive   bool
	maxCubes   int
	scale      float64
	smooth     bool
	seed       uint64
	stride     bool
	interior   bool
	nativeSTL  bool
	tool       string
	kernel     string
	coords     bool
}

func newSettings(name, args string) *settings {
	s := &settings{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	fs := s.fs
	fs.StringVar(&s.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&s.dbPath, "db", "", "SQLite ledger for batch results")
	fs.Float64Var(&s.voxelSize, "voxel-size", 1, "voxel pitch in mesh units")
	fs.BoolVar(&s.adaptive, "adaptive", false, "derive the voxel size from the mesh bounds")
	fs.IntVar(&s.maxCubes, "max-cubes", 1000, "cube cap, 0 for none")
	fs.Float64Var(&s.scale, "scale", 12, "cube spacing of the exported models")
	fs.BoolVar(&s.smooth, "smooth", false, "rounded cubes in VTK output")
	fs.Uint64Var(&s.seed, "seed", 0, "seed for cube subsampling (0 picks one)")
	fs.BoolVar(&s.stride, "stride", false, "subsample cubes deterministically")
	fs.BoolVar(&s.interior, "interior", false, "fill the mesh interior")
	fs.BoolVar(&s.nativeSTL, "native-stl", false, "build the STL without OpenSCAD")
	fs.StringVar(&s.tool, "tool", "openscad", "OpenSCAD executable")
	fs.StringVar(&s.kernel, "kernel", "sdfx", "solid kernel for native STL and smooth cubes: sdfx or manifold")
	fs.BoolVar(&s.coords, "coords", false, "also save the coordinates as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: polycube %s [flags] %s\n", name, args)
		fs.PrintDefaults()
		os.Exit(1)
	}
	return s
}

// options loads the configuration and applies explicit flags.
func (s *settings) options() (workflow.Options, config.Config, error) {
	c := config.Default()
	if s.configPath != "" {
		var err error
		if c, err = config.Load(s.configPath); err != nil {
			return workflow.Options{}, c, err
		}
	}
	// An explicit voxel size turns adaptive sizing off unless -adaptive is
	// also given.
	set := map[string]bool{}
	s.fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
		switch f.Name {
		case "db":
			c.Store.Path = s.dbPath
		case "voxel-size":
			c.Voxel.Size = s.voxelSize
			if !set["adaptive"] {
				c.Voxel.Adaptive = false
			}
		case "adaptive":
			c.Voxel.Adaptive = s.adaptive
		case "max-cubes":
			c.Voxel.MaxCubes = s.maxCubes
		case "scale":
			c.Output.Scale = s.scale
		case "smooth":
			c.Output.Smooth = s.smooth
		case "seed":
			c.Voxel.Seed = s.seed
		case "stride":
			if s.stride {
				c.Voxel.Sampling = "stride"
			}
		case "interior":
			if s.interior {
				c.Voxel.Fill = voxelize.FillInterior.String()
			}
		case "native-stl":
			c.Solid.NativeSTL = s.nativeSTL
		case "tool":
			c.Solid.Tool = s.tool
		case "kernel":
			c.Solid.Kernel = s.kernel
		case "coords":
			c.Output.CoordsFile = s.coords
		}
	})
	opts, err := c.Options()
	if err != nil {
		return opts, c, err
	}
	if opts.Kernel, err = c.Kernel(); err != nil {
		return opts, c, err
	}
	return opts, c, nil
}

// openRecorder opens the ledger named by the configuration, if any.
func openRecorder(c config.Config, opts *workflow.Options) (func(), error) {
	if c.Store.Path == "" {
		return func() {}, nil
	}
	st, err := store.OpenSQLite(c.Store.Path)
	if err != nil {
		return nil, err
	}
	opts.Recorder = st
	return func() {
		if err := st.Close(); err != nil {
			log.Printf("warning: closing ledger: %v", err)
		}
	}, nil
}

func convertCmd(ctx context.Context, args []string) error {
	s := newSettings("convert", "<mesh>")
	format := s.fs.String("format", "", "vtk, vtu or all (default from config)")
	out := s.fs.String("o", "", "output base path (default: input without extension)")
	s.fs.Parse(args)
	if s.fs.NArg() != 1 {
		s.fs.Usage()
	}
	input := s.fs.Arg(0)
	opts, _, err := s.options()
	if err != nil {
		return err
	}
	base := *out
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	if *format == "all" {
		res, err := workflow.ConvertAll(ctx, input, base, opts)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		for _, p := range []string{res.SCAD, res.STL, res.VTK, res.VTU, res.CoordsFile} {
			if p != "" {
				fmt.Println(p)
			}
		}
		return nil
	}
	if *format != "" {
		opts.Format = *format
	}
	coords, err := workflow.ConvertToVTK(ctx, input, base, opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s.%s: %d cubes\n", base, opts.Format, len(coords))
	return nil
}

func batchCmd(ctx context.Context, args []string) error {
	s := newSettings("batch", "<mesh>...")
	dir := s.fs.String("dir", ".", "output directory")
	format := s.fs.String("format", "", "vtk or vtu (default from config)")
	s.fs.Parse(args)
	if s.fs.NArg() == 0 {
		s.fs.Usage()
	}
	opts, c, err := s.options()
	if err != nil {
		return err
	}
	if *format != "" {
		opts.Format = *format
	}
	closeStore, err := openRecorder(c, &opts)
	if err != nil {
		return err
	}
	defer closeStore()

	res := workflow.BatchConvert(ctx, s.fs.Args(), *dir, opts)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	essentials.Must(enc.Encode(res))
	if res.Succeeded() == 0 && len(res) > 0 {
		return fmt.Errorf("all %d conversions failed", len(res))
	}
	return nil
}

func runCmd(ctx context.Context, args []string) error {
	s := newSettings("run", "<script>")
	s.fs.Parse(args)
	if s.fs.NArg() != 1 {
		s.fs.Usage()
	}
	src, err := os.ReadFile(s.fs.Arg(0))
	if err != nil {
		return err
	}
	opts, c, err := s.options()
	if err != nil {
		return err
	}
	closeStore, err := openRecorder(c, &opts)
	if err != nil {
		return err
	}
	defer closeStore()

	results, evalErrs, err := engine.NewEngine(opts).Run(ctx, string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", s.fs.Arg(0), e.Error())
		}
		return fmt.Errorf("%d script error(s)", len(evalErrs))
	}
	failed := 0
	for i, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("job %d (%s): error: %v\n", i+1, r.Job.Kind, r.Err)
		case r.Batch != nil:
			fmt.Printf("job %d (batch): %d succeeded, %d failed\n", i+1, r.Batch.Succeeded(), r.Batch.Failed())
		case r.Outputs != nil:
			fmt.Printf("job %d (polycube): %d cubes, %d warnings\n", i+1, len(r.Outputs.Coords), len(r.Outputs.Warnings))
		default:
			fmt.Printf("job %d (convert): %d cubes\n", i+1, r.Cubes)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

func exportCmd(ctx context.Context, args []string) error {
	s := newSettings("export", "<coords.json>")
	out := s.fs.String("o", "", "output base path (default: input without extension)")
	s.fs.Parse(args)
	if s.fs.NArg() != 1 {
		s.fs.Usage()
	}
	input := s.fs.Arg(0)
	coords, err := polycube.Load(input)
	if err != nil {
		return err
	}
	opts, _, err := s.options()
	if err != nil {
		return err
	}
	opts.CoordsFile = false
	base := *out
	if base == "" {
		base = strings.TrimSuffix(strings.TrimSuffix(input, ".zst"), ".json")
	}
	res, err := workflow.Export(ctx, coords, base, opts)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("exported %d cubes to %s.*\n", len(coords), base)
	return nil
}

func pitchCmd(args []string) error {
	fs := flag.NewFlagSet("pitch", flag.ExitOnError)
	target := fs.Int("target", voxelize.DefaultTargetCubes, "approximate cube count")
	minRes := fs.Int("min-res", voxelize.DefaultMinResolution, "minimum cells along the longest axis")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: polycube pitch [flags] <mesh>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	pitch, err := voxelize.AdaptivePitch(m.Min(), m.Max(), *target, *minRes)
	if err != nil {
		return err
	}
	fmt.Println(pitch)
	return nil
}
