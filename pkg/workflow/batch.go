package workflow

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileResult is the outcome of converting one batch input.
type FileResult struct {
	Input     string `json:"input"`
	Success   bool   `json:"success"`
	CubeCount int    `json:"cube_count,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResult maps each input path to its result.
type BatchResult map[string]FileResult

// Succeeded returns the number of successful conversions.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b {
		if r.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed conversions.
func (b BatchResult) Failed() int {
	return len(b) - b.Succeeded()
}

// NewRunID returns an identifier for a batch run.
func NewRunID() string {
	return time.Now().UTC().Format("20060102T150405.000000000Z")
}

// BatchConvert converts every input to <outDir>/<basename>.<format>. A
// failing input is recorded in its FileResult and the batch continues.
func BatchConvert(ctx context.Context, inputs []string, outDir string, opts Options) BatchResult {
	return BatchConvertRun(ctx, NewRunID(), inputs, outDir, opts)
}

// BatchConvertRun is BatchConvert with a caller-chosen run id for the
// recorder.
func BatchConvertRun(ctx context.Context, runID string, inputs []string, outDir string, opts Options) BatchResult {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Printf("warning: %v", err)
	}

	results := make(BatchResult, len(inputs))
	for _, input := range inputs {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		outBase := filepath.Join(outDir, base)

		var r FileResult
		coords, err := ConvertToVTK(ctx, input, outBase, opts)
		if err != nil {
			log.Printf("batch: %s failed: %v", input, err)
			r = FileResult{Input: input, Error: err.Error()}
		} else {
			r = FileResult{
				Input:     input,
				Success:   true,
				CubeCount: len(coords),
				Output:    outBase + "." + opts.Format,
			}
		}
		results[input] = r

		if opts.Recorder != nil {
			if err := opts.Recorder.Record(ctx, runID, r); err != nil {
				log.Printf("warning: recording %s: %v", input, err)
			}
		}
	}
	log.Printf("batch: %d succeeded, %d failed", results.Succeeded(), results.Failed())
	return results
}
