//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// pipelineStages lists the CLI invocations that take a sources file to a
// finished analysis report, in order.
var pipelineStages = [][]string{
	{"fetch"},
	{"ingest"},
	{"preprocess", "--stem"},
	{"corpus", "index"},
	{"analyze", "report"},
}

// Pipeline builds the CLI and runs every stage end to end: fetch, ingest,
// preprocess, corpus index, analyze report. Stages skip up-to-date work, so
// reruns only process changed documents.
func Pipeline() error {
	mg.Deps(Init, Build)

	bin := filepath.Join(binDir, binName)
	for _, stage := range pipelineStages {
		fmt.Printf("==> narrative-engine %v\n", stage)
		cmd := exec.Command(bin, stage...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("stage %v: %w", stage, err)
		}
	}
	return nil
}
