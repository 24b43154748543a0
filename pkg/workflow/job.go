package workflow

import (
	"context"
	"fmt"
	"log"
)

// JobKind selects what a Job does.
type JobKind string

const (
	// JobConvert writes one visualization mesh with metadata.
	JobConvert JobKind = "convert"

	// JobPolycube writes every output format.
	JobPolycube JobKind = "polycube"

	// JobBatch converts several inputs into a directory.
	JobBatch JobKind = "batch"
)

// Job is one unit of work declared by a script or the command line.
type Job struct {
	Kind   JobKind
	Inputs []string

	// Out is the output base for convert and polycube jobs and the output
	// directory for batch jobs.
	Out string

	Options Options
}

// JobResult is the outcome of a Job. Cubes is set for convert jobs,
// Outputs for polycube jobs and Batch for batch jobs.
type JobResult struct {
	Job     Job
	Cubes   int
	Outputs *Outputs
	Batch   BatchResult
	Err     error
}

// Run executes jobs in order. A failing job does not stop later ones.
func Run(ctx context.Context, jobs []Job) []JobResult {
	runID := NewRunID()
	results := make([]JobResult, 0, len(jobs))
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			results = append(results, JobResult{Job: j, Err: err})
			continue
		}
		log.Printf("job %d/%d: %s %v", i+1, len(jobs), j.Kind, j.Inputs)
		r := runJob(ctx, runID, j)
		if r.Err != nil {
			log.Printf("job %d failed: %v", i+1, r.Err)
		}
		results = append(results, r)
	}
	return results
}

func runJob(ctx context.Context, runID string, j Job) JobResult {
	r := JobResult{Job: j}
	switch j.Kind {
	case JobConvert, JobPolycube:
		if len(j.Inputs) != 1 {
			r.Err = fmt.Errorf("%s: want 1 input, got %d", j.Kind, len(j.Inputs))
			return r
		}
		if j.Out == "" {
			r.Err = fmt.Errorf("%s: no output base", j.Kind)
			return r
		}
		if j.Kind == JobConvert {
			coords, err := ConvertToVTK(ctx, j.Inputs[0], j.Out, j.Options)
			r.Cubes, r.Err = len(coords), err
		} else {
			r.Outputs, r.Err = ConvertAll(ctx, j.Inputs[0], j.Out, j.Options)
		}
	case JobBatch:
		r.Batch = BatchConvertRun(ctx, runID, j.Inputs, j.Out, j.Options)
	default:
		r.Err = fmt.Errorf("unknown job kind %q", j.Kind)
	}
	return r
}
