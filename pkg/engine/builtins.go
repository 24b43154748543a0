package engine

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/chazu/polycube/pkg/polycube"
	"github.com/chazu/polycube/pkg/voxelize"
	"github.com/chazu/polycube/pkg/vtk"
	"github.com/chazu/polycube/pkg/workflow"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms job script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: max-cubes -> max_cubes
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpJob is returned by the job builtins so scripts can bind or print the
// jobs they declare.
type sexpJob struct {
	index int
	job   workflow.Job
}

func (j *sexpJob) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s #%d %q)", j.job.Kind, j.index, strings.Join(j.job.Inputs, " "))
}
func (j *sexpJob) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				if _, next := isKW(args[i+1]); next && isFlag(name) {
					// Flag followed by another keyword.
					result.kw[name] = zygo.SexpNull
					i++
					continue
				}
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare flag (nil value) counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	if s == zygo.SexpNull {
		return true, nil
	}
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_vtu) and plain strings ("vtu").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toStrings converts a list or array of strings.
func toStrings(s zygo.Sexp) ([]string, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		str, err := toString(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, str)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Conversion options
// ---------------------------------------------------------------------------

// flagOptions are the keywords that may appear without a value.
var flagOptions = map[string]bool{
	"adaptive":   true,
	"smooth":     true,
	"simplify":   true,
	"stride":     true,
	"native-stl": true,
	"coords":     true,
}

func isFlag(name string) bool { return flagOptions[name] }

// applyOptions sets the conversion options named by keywords, in name
// order. Keywords in skip are consumed by the caller. An explicit voxel size
// turns adaptive sizing off unless :adaptive is also given.
func applyOptions(opts *workflow.Options, kw map[string]zygo.Sexp, skip ...string) error {
	names := make([]string, 0, len(kw))
	for name := range kw {
		if !slices.Contains(skip, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := applyOption(opts, name, kw[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, ok := kw["voxel-size"]; ok {
		if _, ok := kw["adaptive"]; !ok {
			opts.Adaptive = false
		}
	}
	return nil
}

func applyOption(opts *workflow.Options, name string, v zygo.Sexp) error {
	var err error
	switch name {
	case "voxel-size":
		opts.VoxelSize, err = toFloat64(v)
		if err == nil && opts.VoxelSize <= 0 {
			err = fmt.Errorf("must be positive")
		}
	case "adaptive":
		opts.Adaptive, err = toBool(v)
	case "target-cubes":
		opts.TargetCubes, err = toInt(v)
	case "min-resolution":
		opts.MinResolution, err = toInt(v)
	case "max-cubes":
		opts.MaxCubes, err = toInt(v)
	case "scale":
		opts.Scale, err = toFloat64(v)
		if err == nil {
			opts.Solid.Scale = opts.Scale
		}
	case "smooth":
		opts.Smooth, err = toBool(v)
	case "simplify":
		opts.Simplify, err = toBool(v)
	case "max-faces":
		opts.MaxFaces, err = toInt(v)
	case "fill":
		var s string
		if s, err = toKeywordString(v); err == nil {
			opts.Fill, err = voxelize.ParseFill(s)
		}
	case "seed":
		var seed int
		if seed, err = toInt(v); err == nil {
			opts.Sampler = polycube.NewRandomSampler(uint64(seed))
		}
	case "stride":
		var on bool
		if on, err = toBool(v); err == nil && on {
			opts.Sampler = polycube.StrideSampler{}
		}
	case "cube-size":
		opts.Solid.CubeSize, err = toFloat64(v)
	case "round":
		opts.Solid.Round, err = toFloat64(v)
	case "tool":
		opts.Tool, err = toString(v)
	case "native-stl":
		opts.NativeSTL, err = toBool(v)
	case "coords":
		opts.CoordsFile, err = toBool(v)
	case "format":
		var s string
		if s, err = toKeywordString(v); err == nil {
			if err = vtk.CheckFormat(s); err == nil {
				opts.Format = s
			}
		}
	default:
		err = fmt.Errorf("unknown option")
	}
	return err
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// plan collects the jobs declared by a script.
type plan struct {
	defaults workflow.Options
	jobs     []workflow.Job
}

func (p *plan) add(j workflow.Job) *sexpJob {
	p.jobs = append(p.jobs, j)
	return &sexpJob{index: len(p.jobs) - 1, job: j}
}

// registerBuiltins installs the job builtins into a zygomys environment.
// The builtins append to p during evaluation; nothing is converted until
// the caller runs the jobs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *plan) {

	// -----------------------------------------------------------------------
	// (convert "bunny.obj" :out "out/bunny" :format :vtu :voxel-size 0.5)
	// (polycube "teapot.stl" :out "out/teapot" :scale 12)
	// -----------------------------------------------------------------------
	single := func(kind workflow.JobKind) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires one input path", name)
			}
			input, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: input: %w", name, err)
			}

			out := strings.TrimSuffix(input, path.Ext(input))
			if v, ok := pa.kw["out"]; ok {
				if out, err = toString(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: out: %w", name, err)
				}
			}

			opts := p.defaults
			if err := applyOptions(&opts, pa.kw, "out"); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return p.add(workflow.Job{Kind: kind, Inputs: []string{input}, Out: out, Options: opts}), nil
		}
	}
	env.AddFunction("convert", single(workflow.JobConvert))
	env.AddFunction("polycube", single(workflow.JobPolycube))

	// -----------------------------------------------------------------------
	// (batch (list "a.stl" "b.obj") :dir "out" :format :vtk)
	// -----------------------------------------------------------------------
	env.AddFunction("batch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("batch requires a list of input paths")
		}
		inputs, err := toStrings(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("batch: inputs: %w", err)
		}
		if len(inputs) == 0 {
			return zygo.SexpNull, fmt.Errorf("batch: no inputs")
		}

		dir := "."
		if v, ok := pa.kw["dir"]; ok {
			if dir, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("batch: dir: %w", err)
			}
		}

		opts := p.defaults
		if err := applyOptions(&opts, pa.kw, "dir"); err != nil {
			return zygo.SexpNull, fmt.Errorf("batch: %w", err)
		}
		return p.add(workflow.Job{Kind: workflow.JobBatch, Inputs: inputs, Out: dir, Options: opts}), nil
	})
}
