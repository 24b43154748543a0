// Package config loads polycube settings from YAML. Files are checked
// against an embedded JSON Schema before use.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/chazu/polycube/pkg/kernel"
	"github.com/chazu/polycube/pkg/kernel/manifold"
	"github.com/chazu/polycube/pkg/kernel/sdfx"
	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/solid"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/workflow"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaText string

type Config struct {
	Voxel  Voxel  `yaml:"voxel"`
	Mesh   Mesh   `yaml:"mesh"`
	Output Output `yaml:"output"`
	Solid  Solid  `yaml:"solid"`
	Store  Store  `yaml:"store"`
}

type Voxel struct {
	Size          float64 `yaml:"size"`
	Adaptive      bool    `yaml:"adaptive"`
	TargetCubes   int     `yaml:"target_cubes"`
	MinResolution int     `yaml:"min_resolution"`
	Fill          string  `yaml:"fill"`
	MaxCubes      int     `yaml:"max_cubes"`
	Sampling      string  `yaml:"sampling"`
	Seed          uint64  `yaml:"seed"`
}

type Mesh struct {
	Simplify bool `yaml:"simplify"`
	MaxFaces int  `yaml:"max_faces"`
}

type Output struct {
	Scale      float64 `yaml:"scale"`
	Smooth     bool    `yaml:"smooth"`
	Format     string  `yaml:"format"`
	CoordsFile bool    `yaml:"coords_file"`
	CoordsExt  string  `yaml:"coords_ext"`
}

type Solid struct {
	CubeSize  float64 `yaml:"cube_size"`
	Round     float64 `yaml:"round"`
	Tool      string  `yaml:"tool"`
	NativeSTL bool    `yaml:"native_stl"`
	Kernel    string  `yaml:"kernel"`
}

// Store configures the run ledger. An empty path disables it.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the configuration matching workflow.DefaultOptions.
func Default() Config {
	o := workflow.DefaultOptions()
	return Config{
		Voxel: Voxel{
			Size:          o.VoxelSize,
			TargetCubes:   o.TargetCubes,
			MinResolution: o.MinResolution,
			Fill:          o.Fill.String(),
			MaxCubes:      o.MaxCubes,
			Sampling:      "random",
		},
		Mesh: Mesh{Simplify: o.Simplify, MaxFaces: o.MaxFaces},
		Output: Output{
			Scale:     o.Scale,
			Format:    o.Format,
			CoordsExt: o.CoordsExt,
		},
		Solid: Solid{
			CubeSize: o.Solid.CubeSize,
			Round:    o.Solid.Round,
			Tool:     o.Tool,
			Kernel:   "sdfx",
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates YAML settings and applies them over the defaults.
// Keys missing from raw keep their default values.
func Parse(raw []byte) (Config, error) {
	if err := validate(raw); err != nil {
		return Config{}, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", schemaText)
	})
	return schema, schemaErr
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// The validator expects JSON values.
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Kernel returns the solid-modeling kernel named by the configuration.
// The manifold kernel needs a binary built with -tags=manifold.
func (c Config) Kernel() (kernel.Kernel, error) {
	switch c.Solid.Kernel {
	case "", "sdfx":
		return sdfx.New(), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("unknown kernel %q", c.Solid.Kernel)
}

// Options converts c to workflow options. The kernel and recorder are left
// for the caller.
func (c Config) Options() (workflow.Options, error) {
	fill, err := voxelize.ParseFill(c.Voxel.Fill)
	if err != nil {
		return workflow.Options{}, err
	}
	o := workflow.Options{
		VoxelSize:     c.Voxel.Size,
		Adaptive:      c.Voxel.Adaptive,
		TargetCubes:   c.Voxel.TargetCubes,
		MinResolution: c.Voxel.MinResolution,
		MaxCubes:      c.Voxel.MaxCubes,
		Fill:          fill,
		Simplify:      c.Mesh.Simplify,
		MaxFaces:      c.Mesh.MaxFaces,
		Scale:         c.Output.Scale,
		Smooth:        c.Output.Smooth,
		Format:        c.Output.Format,
		CoordsFile:    c.Output.CoordsFile,
		CoordsExt:     c.Output.CoordsExt,
		Solid: solid.Options{
			Scale:    c.Output.Scale,
			CubeSize: c.Solid.CubeSize,
			Round:    c.Solid.Round,
		},
		Tool:      c.Solid.Tool,
		NativeSTL: c.Solid.NativeSTL,
	}
	switch c.Voxel.Sampling {
	case "", "random":
		if c.Voxel.Seed != 0 {
			o.Sampler = polycube.NewRandomSampler(c.Voxel.Seed)
		}
	case "stride":
		o.Sampler = polycube.StrideSampler{}
	default:
		return workflow.Options{}, fmt.Errorf("unknown sampling %q", c.Voxel.Sampling)
	}
	return o, nil
}
